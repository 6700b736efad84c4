package analyses

import "context"

// Repository port for analysis records.
// GetByID returns (nil, nil) when no record exists; errors are reserved
// for genuine storage faults.
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	GetByID(ctx context.Context, id int64) (*Analysis, error)
	ListByUser(ctx context.Context, userID int64) ([]*Analysis, error)
}
