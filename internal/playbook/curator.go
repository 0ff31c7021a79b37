package playbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ace-loop/internal/metrics"
)

// DefaultMaxHistory is the rolling snapshot cap.
const DefaultMaxHistory = 10

// File is the on-disk playbook shape: the rolling snapshot history plus a
// copy of the most recent snapshot for cheap latest-lookup. History entries
// are kept as raw JSON so old snapshots survive schema additions untouched.
type File struct {
	History []json.RawMessage `json:"history"`
	Latest  json.RawMessage   `json:"latest"`
}

// Curator owns the playbook file: it appends each new snapshot, evicts the
// oldest beyond the history cap, and writes atomically so a crash mid-save
// never leaves a torn file behind.
type Curator struct {
	path       string
	maxHistory int
	logger     *logrus.Logger
}

// NewCurator creates a curator for the given playbook path.
func NewCurator(path string, maxHistory int, logger *logrus.Logger) (*Curator, error) {
	if path == "" {
		return nil, errors.New("playbook path is required")
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Curator{path: path, maxHistory: maxHistory, logger: logger}, nil
}

// Load reads the current playbook file. A missing or unreadable file yields
// an empty history rather than an error: the loop must not wedge on a
// corrupt artifact it is about to rewrite.
func (c *Curator) Load() File {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).WithField("path", c.path).Warn("Failed to read playbook, starting fresh")
		}
		return File{}
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.WithError(err).WithField("path", c.path).Warn("Playbook file is corrupt, starting fresh")
		return File{}
	}
	return f
}

// Latest returns the most recent snapshot, or false when none exists.
func (c *Curator) Latest() (Playbook, bool) {
	f := c.Load()
	if len(f.Latest) == 0 {
		return Playbook{}, false
	}
	var pb Playbook
	if err := json.Unmarshal(f.Latest, &pb); err != nil {
		c.logger.WithError(err).Warn("Latest playbook snapshot is corrupt")
		return Playbook{}, false
	}
	return pb, true
}

// Save appends the snapshot to the rolling history and rewrites the playbook
// file atomically. Returns the path written.
func (c *Curator) Save(pb Playbook) (string, error) {
	snapshot, err := json.Marshal(pb)
	if err != nil {
		metrics.RecordPlaybookSave(err)
		return "", fmt.Errorf("failed to encode playbook snapshot: %w", err)
	}

	f := c.Load()
	f.History = append(f.History, snapshot)
	if len(f.History) > c.maxHistory {
		f.History = f.History[len(f.History)-c.maxHistory:]
	}
	f.Latest = snapshot

	payload, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		metrics.RecordPlaybookSave(err)
		return "", fmt.Errorf("failed to encode playbook file: %w", err)
	}

	if err := c.writeAtomic(payload); err != nil {
		metrics.RecordPlaybookSave(err)
		return "", err
	}
	metrics.RecordPlaybookSave(nil)

	c.logger.WithFields(logrus.Fields{
		"path":    c.path,
		"history": len(f.History),
	}).Info("Playbook saved")
	return c.path, nil
}

// writeAtomic writes to a temp file in the target directory, then renames
// over the destination. The temp file is removed on any failure.
func (c *Curator) writeAtomic(payload []byte) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create playbook directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".playbook-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp playbook file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp playbook file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp playbook file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp playbook file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace playbook file: %w", err)
	}
	return nil
}
