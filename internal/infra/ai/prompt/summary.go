package prompt

import "fmt"

// SystemPrompt frames the model as an accessibility remediation
// assistant working from a structured audit report.
func SystemPrompt() string {
	return `You are an accessibility remediation assistant. You receive one
web accessibility audit as JSON: an analysis of a page, its WCAG
success-criterion results, and the concrete errors found per criterion
(code, CSS selector, message).

Write a remediation summary for the page owner:
- Lead with the overall state of the page and its score.
- Group failed criteria by impact and name the WCAG criterion numbers.
- For each group, give concrete fixes referencing the reported
  selectors.
- Keep it short and actionable. Do not invent findings that are not in
  the report.`
}

// UserPrompt wraps the rendered report.
func UserPrompt(report string) string {
	return fmt.Sprintf("Audit report:\n\n%s", report)
}
