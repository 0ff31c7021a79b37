package experience

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ReadFile loads an experience table previously produced by a Writer,
// dispatching on the file extension.
func ReadFile(path string) ([]Record, error) {
	switch {
	case strings.HasSuffix(path, ".parquet"):
		return readParquet(path)
	case strings.HasSuffix(path, ".csv.gz"), strings.HasSuffix(path, ".csv"):
		return readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported experience file format: %s", path)
	}
}

func readParquet(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open experience file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pr := parquet.NewGenericReader[Record](f)
	defer pr.Close()

	records := make([]Record, 0, info.Size()/256)
	buf := make([]Record, 128)
	for {
		n, err := pr.Read(buf)
		records = append(records, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}

func readCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open experience file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read experience CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		rec := Record{
			ExperienceID: cell("experience_id"),
			EventDate:    cell("event_date"),
			RaceID:       cell("race_id"),
			RunnerID:     cell("runner_id"),
			StrategyID:   cell("strategy_id"),
			Params:       cell("params"),
			Action:       cell("action"),
			Track:        cell("track"),
			StateCode:    cell("state_code"),
			RacingType:   cell("racing_type"),
			RaceType:     cell("race_type"),
			ContextHash:  cell("context_hash"),
		}
		rec.SelectionID, _ = strconv.ParseInt(cell("selection_id"), 10, 64)
		rec.Stake, _ = strconv.ParseFloat(cell("stake"), 64)
		rec.Profit, _ = strconv.ParseFloat(cell("profit"), 64)
		rec.ModelProb, _ = strconv.ParseFloat(cell("model_prob"), 64)
		rec.ImpliedProb, _ = strconv.ParseFloat(cell("implied_prob"), 64)
		rec.Edge, _ = strconv.ParseFloat(cell("edge"), 64)
		rec.WinOdds, _ = strconv.ParseFloat(cell("win_odds"), 64)
		if won, err := strconv.ParseInt(cell("won_flag"), 10, 32); err == nil {
			rec.WonFlag = int32(won)
		}
		if raw := cell("distance"); raw != "" {
			if d, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Distance = &d
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
