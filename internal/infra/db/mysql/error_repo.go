package mysql

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
VALUES (?,?,?,?);
`
	out, err := r.db.ExecContext(ctx, q, e.ResultID, e.Code, e.Selector, e.Message)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListByResult returns errors in insertion order.
func (r *ErrorRepository) ListByResult(ctx context.Context, resultID int64) ([]*domain.AuditError, error) {
	const q = `
SELECT id, result_id, code, selector, message
FROM audit_errors
WHERE result_id=? ORDER BY id ASC;
`
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
