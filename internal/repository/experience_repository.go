package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/ace-loop/internal/database"
	"github.com/yourusername/ace-loop/internal/experience"
)

const experienceColumns = `
	experience_id, event_date, race_id, runner_id, selection_id, strategy_id,
	params, action, stake, profit, model_prob, implied_prob, edge, win_odds,
	won_flag, track, state_code, distance, racing_type, race_type, context_hash`

// PostgresExperienceRepository implements ExperienceRepository for PostgreSQL
type PostgresExperienceRepository struct {
	db *database.DB
}

// NewPostgresExperienceRepository creates a new experience repository
func NewPostgresExperienceRepository(db *database.DB) ExperienceRepository {
	return &PostgresExperienceRepository{db: db}
}

// SaveBatch upserts records by experience_id using a pgx batch inside one
// transaction, so a run's rows land all-or-nothing. The same bet re-simulated
// produces the same id, so replays overwrite rather than duplicate.
func (r *PostgresExperienceRepository) SaveBatch(ctx context.Context, records []experience.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO experiences (` + experienceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (experience_id) DO UPDATE SET
			stake = EXCLUDED.stake,
			profit = EXCLUDED.profit,
			won_flag = EXCLUDED.won_flag,
			context_hash = EXCLUDED.context_hash
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		var eventDate *time.Time
		if rec.EventDate != "" {
			if d, err := time.Parse("2006-01-02", rec.EventDate); err == nil {
				eventDate = &d
			}
		}
		batch.Queue(query,
			rec.ExperienceID, eventDate, rec.RaceID, rec.RunnerID, rec.SelectionID, rec.StrategyID,
			rec.Params, rec.Action, rec.Stake, rec.Profit, rec.ModelProb, rec.ImpliedProb, rec.Edge,
			rec.WinOdds, rec.WonFlag, rec.Track, rec.StateCode, rec.Distance, rec.RacingType,
			rec.RaceType, rec.ContextHash,
		)
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to save experience batch: %w", err)
			}
		}
		return results.Close()
	})
}

// GetByStrategy retrieves all records for one strategy
func (r *PostgresExperienceRepository) GetByStrategy(ctx context.Context, strategyID string) ([]experience.Record, error) {
	query := `
		SELECT ` + experienceColumns + `
		FROM experiences
		WHERE strategy_id = $1
		ORDER BY event_date, race_id, runner_id
	`

	rows, err := r.db.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiences by strategy: %w", err)
	}
	defer rows.Close()

	return scanExperienceRows(rows)
}

// GetByDateRange retrieves records with event dates in [start, end]
func (r *PostgresExperienceRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]experience.Record, error) {
	query := `
		SELECT ` + experienceColumns + `
		FROM experiences
		WHERE event_date >= $1 AND event_date <= $2
		ORDER BY event_date, race_id, runner_id
	`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiences by date range: %w", err)
	}
	defer rows.Close()

	return scanExperienceRows(rows)
}

// Count returns the total number of stored records
func (r *PostgresExperienceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM experiences`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count experiences: %w", err)
	}
	return count, nil
}

func scanExperienceRows(rows pgx.Rows) ([]experience.Record, error) {
	var records []experience.Record
	for rows.Next() {
		var rec experience.Record
		var eventDate *time.Time
		err := rows.Scan(
			&rec.ExperienceID, &eventDate, &rec.RaceID, &rec.RunnerID, &rec.SelectionID, &rec.StrategyID,
			&rec.Params, &rec.Action, &rec.Stake, &rec.Profit, &rec.ModelProb, &rec.ImpliedProb, &rec.Edge,
			&rec.WinOdds, &rec.WonFlag, &rec.Track, &rec.StateCode, &rec.Distance, &rec.RacingType,
			&rec.RaceType, &rec.ContextHash,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		if eventDate != nil {
			rec.EventDate = eventDate.Format("2006-01-02")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
