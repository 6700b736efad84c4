package postgres

import (
	"context"
	"database/sql"

	domain "github.com/clearview/a11yaudit/internal/domain/results"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Save(ctx context.Context, res *domain.Result) error {
	const q = `
INSERT INTO audit_results (analysis_id, criterion, level, status)
VALUES ($1,$2,$3,$4)
RETURNING id;`

	return r.db.QueryRowContext(ctx, q, res.AnalysisID, res.Criterion, res.Level, res.Status).Scan(&res.ID)
}

func (r *ResultRepository) ListByAnalysis(ctx context.Context, analysisID int64) ([]*domain.Result, error) {
	const q = `
SELECT id, analysis_id, criterion, level, status
FROM audit_results
WHERE analysis_id=$1 ORDER BY id ASC;`

	rows, err := r.db.QueryContext(ctx, q, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		var res domain.Result
		if err := rows.Scan(&res.ID, &res.AnalysisID, &res.Criterion, &res.Level, &res.Status); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}
