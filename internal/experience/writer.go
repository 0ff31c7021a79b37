package experience

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ace-loop/internal/metrics"
)

// WriterConfig holds settings for experience persistence.
type WriterConfig struct {
	OutputDir       string
	FilenamePrefix  string
	PartitionByDate bool
}

// DefaultWriterConfig returns the conventional output layout.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		OutputDir:       "data/experiences",
		FilenamePrefix:  "experiences",
		PartitionByDate: true,
	}
}

// Writer persists experience tables. Parquet is the primary format; any
// serialization failure falls back to gzip-compressed CSV rather than
// failing the run.
type Writer struct {
	config WriterConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewWriter creates a writer and ensures the output directory exists.
func NewWriter(cfg WriterConfig, logger *logrus.Logger) (*Writer, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultWriterConfig().OutputDir
	}
	if cfg.FilenamePrefix == "" {
		cfg.FilenamePrefix = DefaultWriterConfig().FilenamePrefix
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create experience output dir: %w", err)
	}
	return &Writer{config: cfg, logger: logger, now: time.Now}, nil
}

// Write persists the records and returns the path written. The filename
// carries the label (or configured prefix), the covered date range when one
// is present, and a generation timestamp so successive runs never collide.
func (w *Writer) Write(records []Record, label string) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no experience records to write")
	}

	timestamp := w.now().UTC().Format("20060102T150405Z")
	prefix := label
	if prefix == "" {
		prefix = w.config.FilenamePrefix
	}

	suffix := timestamp
	if w.config.PartitionByDate {
		if dates := collectDates(records); len(dates) > 0 {
			if len(dates) == 1 {
				suffix = dates[0]
			} else {
				suffix = dates[0] + "_" + dates[len(dates)-1]
			}
		}
	}

	base := fmt.Sprintf("%s_%s_%s", prefix, suffix, timestamp)
	parquetPath := filepath.Join(w.config.OutputDir, base+".parquet")

	if err := writeParquet(parquetPath, records); err != nil {
		w.logger.WithError(err).Warn("Parquet write failed, falling back to gzip CSV")
		metrics.RecordWriteFallback()
		os.Remove(parquetPath)

		csvPath := filepath.Join(w.config.OutputDir, base+".csv.gz")
		if err := writeCSVGz(csvPath, records); err != nil {
			return "", fmt.Errorf("fallback CSV write failed: %w", err)
		}
		return csvPath, nil
	}
	return parquetPath, nil
}

func writeParquet(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	pw := parquet.NewGenericWriter[Record](f)
	if _, err := pw.Write(records); err != nil {
		f.Close()
		return err
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var csvHeader = []string{
	"experience_id", "event_date", "race_id", "runner_id", "selection_id",
	"strategy_id", "params", "action", "stake", "profit", "model_prob",
	"implied_prob", "edge", "win_odds", "won_flag", "track", "state_code",
	"distance", "racing_type", "race_type", "context_hash",
}

func writeCSVGz(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(f)
	cw := csv.NewWriter(gz)

	writeErr := cw.Write(csvHeader)
	for _, rec := range records {
		if writeErr != nil {
			break
		}
		distance := ""
		if rec.Distance != nil {
			distance = formatFloat(*rec.Distance)
		}
		writeErr = cw.Write([]string{
			rec.ExperienceID,
			rec.EventDate,
			rec.RaceID,
			rec.RunnerID,
			strconv.FormatInt(rec.SelectionID, 10),
			rec.StrategyID,
			rec.Params,
			rec.Action,
			formatFloat(rec.Stake),
			formatFloat(rec.Profit),
			formatFloat(rec.ModelProb),
			formatFloat(rec.ImpliedProb),
			formatFloat(rec.Edge),
			formatFloat(rec.WinOdds),
			strconv.FormatInt(int64(rec.WonFlag), 10),
			rec.Track,
			rec.StateCode,
			distance,
			rec.RacingType,
			rec.RaceType,
			rec.ContextHash,
		})
	}
	cw.Flush()
	if writeErr == nil {
		writeErr = cw.Error()
	}
	if err := gz.Close(); writeErr == nil {
		writeErr = err
	}
	if err := f.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		os.Remove(path)
	}
	return writeErr
}

func collectDates(records []Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.EventDate == "" {
			continue
		}
		seen[strings.ReplaceAll(rec.EventDate, "-", "")] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
