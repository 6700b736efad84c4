package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/clearview/a11yaudit/internal/domain/analyses"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO audit_analyses (user_id, url, score, created_at)
VALUES ($1,$2,$3,$4)
RETURNING id;`

	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if err := r.db.QueryRowContext(ctx, q, a.UserID, a.URL, a.Score, created).Scan(&a.ID); err != nil {
		return err
	}
	a.CreatedAt = created
	return nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id int64) (*domain.Analysis, error) {
	const q = `
SELECT id, user_id, url, score, created_at
FROM audit_analyses
WHERE id=$1 LIMIT 1;`

	var a domain.Analysis
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.UserID, &a.URL, &a.Score, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnalysisRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Analysis, error) {
	const q = `
SELECT id, user_id, url, score, created_at
FROM audit_analyses
WHERE user_id=$1 ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.URL, &a.Score, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
