package results

// Status enum for a criterion check
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusManual Status = "manual"
)

// Result is one WCAG success-criterion outcome within an analysis.
type Result struct {
	ID         int64  `json:"id"`
	AnalysisID int64  `json:"analysis_id"`
	Criterion  string `json:"criterion"`
	Level      string `json:"level,omitempty"`
	Status     Status `json:"status"`
}
