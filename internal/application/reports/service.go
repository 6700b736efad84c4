package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/clearview/a11yaudit/internal/application"
	"github.com/clearview/a11yaudit/internal/domain/composite"
)

// ArtifactStore port for report uploads.
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, data []byte) (string, error)
}

// Service renders a complete analysis to JSON and archives it in object
// storage.
type Service struct {
	Store ArtifactStore
	Clock application.Clock
}

// Export uploads the rendered tree and returns the artifact URL. Keys
// carry a timestamp plus a random suffix so repeated exports of the
// same analysis never collide.
func (s *Service) Export(ctx context.Context, ca *composite.CompleteAnalysis) (string, error) {
	data, err := json.MarshalIndent(ca, "", "  ")
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("reports/%d/%s-%s.json",
		ca.ID,
		s.Clock.Now().UTC().Format("20060102T150405Z"),
		uuid.New().String()[:8],
	)
	return s.Store.PutJSON(ctx, key, data)
}
