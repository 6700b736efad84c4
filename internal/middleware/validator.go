package middleware

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Input validation for audit ingest payloads.

// ValidatePageURL validates the audited page URL.
func ValidatePageURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("url cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("URL host cannot be empty")
	}

	return nil
}

var criterionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// ValidateCriterion checks a WCAG success-criterion reference like "1.1.1".
func ValidateCriterion(criterion string) error {
	if !criterionPattern.MatchString(criterion) {
		return fmt.Errorf("invalid criterion: %s (expected e.g. 1.4.3)", criterion)
	}
	return nil
}

// ValidateResultStatus checks the criterion outcome value.
func ValidateResultStatus(status string) error {
	switch strings.ToLower(status) {
	case "pass", "fail", "manual":
		return nil
	}
	return fmt.Errorf("invalid result status: %s (allowed: pass, fail, manual)", status)
}
