package ports

import (
	"context"

	"gutcheck/domain/dysbiosis"
	"gutcheck/domain/run"
)

// ResultRepository persists batch summaries and per-sample dysbiosis
// results. Persistence is optional; a nil repository disables it.
type ResultRepository interface {
	SaveSummary(ctx context.Context, summary *run.Summary) error
	SaveResult(ctx context.Context, batchID string, result *dysbiosis.Result) error
}
