package advice

import "context"

// Client produces a remediation summary for a rendered audit report.
type Client interface {
	Summarize(ctx context.Context, report string) (string, error)
}
