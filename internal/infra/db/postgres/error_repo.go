package postgres

import (
	"context"
	"database/sql"

	domain "github.com/clearview/a11yaudit/internal/domain/auditerrors"
)

type ErrorRepository struct {
	db *sql.DB
}

func NewErrorRepository(db *sql.DB) *ErrorRepository {
	return &ErrorRepository{db: db}
}

func (r *ErrorRepository) Save(ctx context.Context, e *domain.AuditError) error {
	const q = `
INSERT INTO audit_errors (result_id, code, selector, message)
VALUES ($1,$2,$3,$4)
RETURNING id;`

	return r.db.QueryRowContext(ctx, q, e.ResultID, e.Code, e.Selector, e.Message).Scan(&e.ID)
}

func (r *ErrorRepository) ListByResult(ctx context.Context, resultID int64) ([]*domain.AuditError, error) {
	const q = `
SELECT id, result_id, code, selector, message
FROM audit_errors
WHERE result_id=$1 ORDER BY id ASC;`

	rows, err := r.db.QueryContext(ctx, q, resultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditError
	for rows.Next() {
		var e domain.AuditError
		if err := rows.Scan(&e.ID, &e.ResultID, &e.Code, &e.Selector, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
