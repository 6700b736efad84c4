package advice

import (
	"context"
	"encoding/json"

	domadvice "github.com/clearview/a11yaudit/internal/domain/advice"
	"github.com/clearview/a11yaudit/internal/domain/composite"
)

type Service struct {
	client domadvice.Client
}

func NewService(client domadvice.Client) *Service {
	return &Service{client: client}
}

// Summarize renders the tree and asks the AI client for a remediation
// summary.
func (s *Service) Summarize(ctx context.Context, ca *composite.CompleteAnalysis) (string, error) {
	data, err := json.Marshal(ca)
	if err != nil {
		return "", err
	}
	return s.client.Summarize(ctx, string(data))
}
