package audits

import (
	"context"

	"github.com/clearview/a11yaudit/internal/application"
	"github.com/clearview/a11yaudit/internal/domain/analyses"
	"github.com/clearview/a11yaudit/internal/domain/auditerrors"
	"github.com/clearview/a11yaudit/internal/domain/composite"
	"github.com/clearview/a11yaudit/internal/domain/results"
)

// Service implements the audit ingest use-case. Safe for concurrent use.
type Service struct {
	Analyses analyses.Repository
	Results  results.Repository
	Errors   auditerrors.Repository
	Clock    application.Clock
}

type SubmitErrorInput struct {
	Code     string
	Selector string
	Message  string
}

type SubmitResultInput struct {
	Criterion string
	Level     string
	Status    string
	Errors    []SubmitErrorInput
}

// SubmitAuditCommand carries one full audit: the analysis plus its
// nested criterion results and their errors. UserID is the owner the
// record is written under.
type SubmitAuditCommand struct {
	UserID  int64
	URL     string
	Score   int
	Results []SubmitResultInput
}

// Submit persists the audit top-down (analysis, then results, then
// errors) and returns the stored tree. Repos backfill generated ids, so
// the returned tree carries the persisted ids without a re-read.
func (s *Service) Submit(ctx context.Context, cmd SubmitAuditCommand) (*composite.CompleteAnalysis, error) {
	a := &analyses.Analysis{
		UserID:    cmd.UserID,
		URL:       cmd.URL,
		Score:     cmd.Score,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Analyses.Save(ctx, a); err != nil {
		return nil, err
	}

	out := &composite.CompleteAnalysis{
		Analysis: *a,
		Results:  make([]*composite.CompleteResult, 0, len(cmd.Results)),
	}
	for _, in := range cmd.Results {
		r := &results.Result{
			AnalysisID: a.ID,
			Criterion:  in.Criterion,
			Level:      in.Level,
			Status:     results.Status(in.Status),
		}
		if err := s.Results.Save(ctx, r); err != nil {
			return nil, err
		}

		cr := &composite.CompleteResult{
			Result: *r,
			Errors: make([]*auditerrors.AuditError, 0, len(in.Errors)),
		}
		for _, ein := range in.Errors {
			e := &auditerrors.AuditError{
				ResultID: r.ID,
				Code:     ein.Code,
				Selector: ein.Selector,
				Message:  ein.Message,
			}
			if err := s.Errors.Save(ctx, e); err != nil {
				return nil, err
			}
			cr.Errors = append(cr.Errors, e)
		}
		out.Results = append(out.Results, cr)
	}
	return out, nil
}
