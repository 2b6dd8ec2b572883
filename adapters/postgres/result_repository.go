package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gutcheck/domain/dysbiosis"
	"gutcheck/domain/run"
	"gutcheck/ports"
)

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// SaveSummary persists a batch run and every sample's terminal state.
func (r *resultRepository) SaveSummary(ctx context.Context, summary *run.Summary) error {
	query := `INSERT INTO batch_runs (id, db_name, started_at, finished_at, done, failed)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		summary.BatchID, summary.Database, summary.StartedAt, summary.FinishedAt,
		summary.Done, summary.Failed,
	); err != nil {
		return fmt.Errorf("failed to save batch run: %w", err)
	}

	outcomeQuery := `INSERT INTO sample_outcomes
		(batch_id, sample_id, state, score, category, error_kind, error_message, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, o := range summary.Outcomes {
		if _, err := r.db.ExecContext(ctx, outcomeQuery,
			summary.BatchID, o.SampleID, string(o.State), o.Score, o.Category,
			o.ErrKind, o.ErrMessage, o.Attempts,
		); err != nil {
			return fmt.Errorf("failed to save outcome for sample %s: %w", o.SampleID, err)
		}
	}
	return nil
}

// SaveResult persists one finalized dysbiosis result with its
// per-phylum breakdown.
func (r *resultRepository) SaveResult(ctx context.Context, batchID string, result *dysbiosis.Result) error {
	breakdownJSON, err := json.Marshal(result.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	query := `INSERT INTO dysbiosis_results (batch_id, sample_id, score, category, breakdown)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		batchID, result.SampleID, result.Score, string(result.Category), breakdownJSON,
	); err != nil {
		return fmt.Errorf("failed to save dysbiosis result for sample %s: %w", result.SampleID, err)
	}
	return nil
}
