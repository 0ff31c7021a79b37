package database

import (
	"context"
	"fmt"

	"github.com/yourusername/ace-loop/internal/config"
)

// schemaStatements create the persistence tables when they do not already
// exist. Experience rows carry a deterministic id, so re-running a loop
// against the same data upserts rather than duplicates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS experiences (
		experience_id TEXT PRIMARY KEY,
		event_date    DATE,
		race_id       TEXT NOT NULL,
		runner_id     TEXT NOT NULL,
		selection_id  BIGINT,
		strategy_id   TEXT NOT NULL,
		params        TEXT,
		action        TEXT NOT NULL,
		stake         DOUBLE PRECISION NOT NULL,
		profit        DOUBLE PRECISION NOT NULL,
		model_prob    DOUBLE PRECISION,
		implied_prob  DOUBLE PRECISION,
		edge          DOUBLE PRECISION,
		win_odds      DOUBLE PRECISION,
		won_flag      INT NOT NULL,
		track         TEXT,
		state_code    TEXT,
		distance      DOUBLE PRECISION,
		racing_type   TEXT,
		race_type     TEXT,
		context_hash  TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_experiences_strategy ON experiences (strategy_id)`,
	`CREATE INDEX IF NOT EXISTS idx_experiences_event_date ON experiences (event_date)`,
	`CREATE TABLE IF NOT EXISTS playbook_snapshots (
		id           BIGSERIAL PRIMARY KEY,
		run_id       TEXT,
		generated_at TIMESTAMPTZ NOT NULL,
		snapshot     JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Initialize creates a database connection pool and ensures the schema exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema applies the table and index definitions.
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
