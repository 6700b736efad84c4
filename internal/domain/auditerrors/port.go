package auditerrors

import "context"

// Repository port for audit errors.
type Repository interface {
	Save(ctx context.Context, e *AuditError) error
	ListByResult(ctx context.Context, resultID int64) ([]*AuditError, error)
}
