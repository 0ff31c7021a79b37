package dataset

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Column headers recognised by the CSV parser.
const (
	colEventDate   = "event_date"
	colRaceID      = "race_id"
	colWinMarketID = "win_market_id"
	colRunnerID    = "runner_id"
	colSelectionID = "selection_id"
	colModelProb   = "model_prob"
	colWinOdds     = "win_odds"
	colImpliedProb = "implied_prob"
	colWinResult   = "win_result"
)

// ParseCSV reads a runner table from CSV. Known columns map to typed fields,
// anything else lands in Extra so equality filters over evolving context
// columns keep working. Empty cells become nil, not zero.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return Table{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	known := map[string]bool{
		colEventDate: true, colRaceID: true, colWinMarketID: true,
		colRunnerID: true, colSelectionID: true, colModelProb: true,
		colWinOdds: true, colImpliedProb: true, colWinResult: true,
		ColTrack: true, ColStateCode: true, ColDistance: true,
		ColRacingType: true, ColRaceType: true,
	}

	table := make(Table, 0, 256)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Runner{
			RaceID:      cell(colRaceID),
			WinMarketID: cell(colWinMarketID),
			RunnerID:    cell(colRunnerID),
			WinResult:   cell(colWinResult),
			Track:       cell(ColTrack),
			StateCode:   cell(ColStateCode),
			RacingType:  cell(ColRacingType),
			RaceType:    cell(ColRaceType),
		}

		if raw := cell(colEventDate); raw != "" {
			parsed, err := parseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid event_date %q: %w", line, raw, err)
			}
			row.EventDate = parsed
		}
		if raw := cell(colSelectionID); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid selection_id %q: %w", line, raw, err)
			}
			row.SelectionID = id
		}
		row.ModelProb = parseOptionalFloat(cell(colModelProb))
		row.WinOdds = parseOptionalFloat(cell(colWinOdds))
		row.ImpliedProb = parseOptionalFloat(cell(colImpliedProb))
		row.Distance = parseOptionalFloat(cell(ColDistance))

		for name, i := range index {
			if known[name] || i >= len(record) {
				continue
			}
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[name] = strings.TrimSpace(record[i])
		}

		table = append(table, row)
	}

	return table, nil
}

// LoadCSVFile reads a runner table from a CSV or gzip-compressed CSV file.
func LoadCSVFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open runner table: %w", err)
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
	return ParseCSV(r)
}

func parseOptionalFloat(raw string) *float64 {
	if raw == "" || strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "null") {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date layout")
}
