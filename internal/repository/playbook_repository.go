package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/ace-loop/internal/database"
	"github.com/yourusername/ace-loop/internal/playbook"
)

// PostgresPlaybookRepository implements PlaybookRepository for PostgreSQL
type PostgresPlaybookRepository struct {
	db *database.DB
}

// NewPostgresPlaybookRepository creates a new playbook repository
func NewPostgresPlaybookRepository(db *database.DB) PlaybookRepository {
	return &PostgresPlaybookRepository{db: db}
}

// Save stores one snapshot
func (r *PostgresPlaybookRepository) Save(ctx context.Context, runID string, pb playbook.Playbook) error {
	snapshot, err := json.Marshal(pb)
	if err != nil {
		return fmt.Errorf("failed to encode playbook snapshot: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339, pb.Metadata.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO playbook_snapshots (run_id, generated_at, snapshot)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(ctx, query, runID, generatedAt, snapshot); err != nil {
		return fmt.Errorf("failed to save playbook snapshot: %w", err)
	}
	return nil
}

// GetLatest returns the most recently generated snapshot
func (r *PostgresPlaybookRepository) GetLatest(ctx context.Context) (*playbook.Playbook, error) {
	query := `
		SELECT snapshot
		FROM playbook_snapshots
		ORDER BY generated_at DESC, id DESC
		LIMIT 1
	`

	var snapshot []byte
	err := r.db.QueryRow(ctx, query).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest playbook snapshot: %w", err)
	}

	var pb playbook.Playbook
	if err := json.Unmarshal(snapshot, &pb); err != nil {
		return nil, fmt.Errorf("failed to decode playbook snapshot: %w", err)
	}
	return &pb, nil
}
