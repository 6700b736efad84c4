package analyses

import "time"

// Analysis is the flat view of one accessibility audit run.
// UserID is the owning user and decides read access downstream.
type Analysis struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	URL       string    `json:"url"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
