package composite

import (
	"context"

	"github.com/clearview/a11yaudit/internal/domain/analyses"
	"github.com/clearview/a11yaudit/internal/domain/auditerrors"
	"github.com/clearview/a11yaudit/internal/domain/composite"
	"github.com/clearview/a11yaudit/internal/domain/results"
)

// Service assembles complete analysis trees by fanning out to the three
// record readers: analysis, then its results, then each result's
// errors. Reads are sequential and in that fixed order; they are not
// wrapped in a transaction, so the tree reflects whatever each read
// returned at the moment it ran.
//
// Service is safe for concurrent use: it holds only the reader ports.
type Service struct {
	Analyses analyses.Repository
	Results  results.Repository
	Errors   auditerrors.Repository
}

// CompleteByID builds the full tree for one analysis. Returns
// (nil, nil) when the analysis does not exist; in that case no further
// reads are made. Any reader failure propagates unchanged — no retry,
// no partial tree.
func (s *Service) CompleteByID(ctx context.Context, id int64) (*composite.CompleteAnalysis, error) {
	a, err := s.Analyses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	rs, err := s.Results.ListByAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &composite.CompleteAnalysis{
		Analysis: *a,
		Results:  make([]*composite.CompleteResult, 0, len(rs)),
	}
	for _, r := range rs {
		es, err := s.Errors.ListByResult(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		if es == nil {
			es = []*auditerrors.AuditError{}
		}
		out.Results = append(out.Results, &composite.CompleteResult{
			Result: *r,
			Errors: es,
		})
	}
	return out, nil
}

// CompleteByUser builds the full tree for every analysis owned by
// userID, preserving the order of the owning list. An analysis that
// vanishes between the list read and its by-id re-fetch is skipped
// silently, never emitted as a nil entry.
func (s *Service) CompleteByUser(ctx context.Context, userID int64) ([]*composite.CompleteAnalysis, error) {
	list, err := s.Analyses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*composite.CompleteAnalysis, 0, len(list))
	for _, a := range list {
		ca, err := s.CompleteByID(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if ca == nil {
			continue
		}
		out = append(out, ca)
	}
	return out, nil
}
