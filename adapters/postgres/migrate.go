package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gutcheck/internal/errors"
)

// schema holds the idempotent DDL for the result store.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS batch_runs (
		id          TEXT PRIMARY KEY,
		db_name     TEXT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		done        INTEGER NOT NULL,
		failed      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sample_outcomes (
		batch_id      TEXT NOT NULL REFERENCES batch_runs(id),
		sample_id     TEXT NOT NULL,
		state         TEXT NOT NULL,
		score         DOUBLE PRECISION,
		category      TEXT,
		error_kind    TEXT,
		error_message TEXT,
		attempts      INTEGER NOT NULL,
		PRIMARY KEY (batch_id, sample_id)
	)`,
	`CREATE TABLE IF NOT EXISTS dysbiosis_results (
		batch_id  TEXT NOT NULL,
		sample_id TEXT NOT NULL,
		score     DOUBLE PRECISION NOT NULL,
		category  TEXT NOT NULL,
		breakdown JSONB NOT NULL,
		PRIMARY KEY (batch_id, sample_id)
	)`,
}

// EnsureSchema creates the result tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return errors.Wrap(err, "applying result store schema")
		}
	}
	return nil
}
