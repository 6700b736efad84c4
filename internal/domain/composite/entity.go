package composite

import (
	"github.com/clearview/a11yaudit/internal/domain/analyses"
	"github.com/clearview/a11yaudit/internal/domain/auditerrors"
	"github.com/clearview/a11yaudit/internal/domain/results"
)

// CompleteAnalysis is the nested aggregate of one analysis, its
// criterion results and each result's errors. It is assembled fresh per
// request and never persisted; the three underlying reads are not
// wrapped in one transaction, so the tree is only consistent at
// assembly time.
type CompleteAnalysis struct {
	analyses.Analysis
	Results []*CompleteResult `json:"results"`
}

// CompleteResult is one criterion result with its errors attached.
type CompleteResult struct {
	results.Result
	Errors []*auditerrors.AuditError `json:"errors"`
}
