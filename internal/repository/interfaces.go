// Package repository provides optional Postgres persistence for experience
// rows and playbook snapshots, queryable alongside the file artifacts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/ace-loop/internal/experience"
	"github.com/yourusername/ace-loop/internal/playbook"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ExperienceRepository persists experience records.
type ExperienceRepository interface {
	// SaveBatch upserts records by experience_id.
	SaveBatch(ctx context.Context, records []experience.Record) error
	// GetByStrategy returns records for one strategy ordered by event date.
	GetByStrategy(ctx context.Context, strategyID string) ([]experience.Record, error)
	// GetByDateRange returns records with event dates in [start, end].
	GetByDateRange(ctx context.Context, start, end time.Time) ([]experience.Record, error)
	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)
}

// PlaybookRepository persists playbook snapshots.
type PlaybookRepository interface {
	// Save stores one snapshot.
	Save(ctx context.Context, runID string, pb playbook.Playbook) error
	// GetLatest returns the most recently generated snapshot.
	GetLatest(ctx context.Context) (*playbook.Playbook, error)
}
