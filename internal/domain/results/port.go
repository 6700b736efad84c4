package results

import "context"

// Repository port for criterion results.
type Repository interface {
	Save(ctx context.Context, r *Result) error
	ListByAnalysis(ctx context.Context, analysisID int64) ([]*Result, error)
}
