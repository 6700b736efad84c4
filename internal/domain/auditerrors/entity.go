package auditerrors

// AuditError is one concrete violation found for a criterion result,
// pointing at the offending element on the audited page.
type AuditError struct {
	ID       int64  `json:"id"`
	ResultID int64  `json:"result_id"`
	Code     string `json:"code,omitempty"`
	Selector string `json:"selector,omitempty"`
	Message  string `json:"message"`
}
