// Package dataset loads and models the scored runner table consumed by the
// evaluation loop. One row per horse per race, already carrying a
// model-estimated win probability and market odds.
package dataset

import (
	"strconv"
	"time"
)

// Context column names recognised on a runner row.
const (
	ColTrack      = "track"
	ColStateCode  = "state_code"
	ColDistance   = "distance"
	ColRacingType = "racing_type"
	ColRaceType   = "race_type"
)

// Runner is one row of the scored runner table.
type Runner struct {
	EventDate   time.Time
	RaceID      string
	WinMarketID string
	RunnerID    string
	SelectionID int64
	ModelProb   *float64
	WinOdds     *float64
	ImpliedProb *float64
	WinResult   string
	Track       string
	StateCode   string
	Distance    *float64
	RacingType  string
	RaceType    string
	Extra       map[string]string
}

// RaceKey returns the race identifier for the row, preferring race_id and
// falling back to the win market identifier.
func (r *Runner) RaceKey() string {
	if r.RaceID != "" {
		return r.RaceID
	}
	return r.WinMarketID
}

// ContextValue resolves a context column by name to its string-coerced value.
// The second return reports whether the column is present on this row.
func (r *Runner) ContextValue(column string) (string, bool) {
	switch column {
	case ColTrack:
		return r.Track, r.Track != ""
	case ColStateCode:
		return r.StateCode, r.StateCode != ""
	case ColDistance:
		if r.Distance == nil {
			return "", false
		}
		return strconv.FormatFloat(*r.Distance, 'g', -1, 64), true
	case ColRacingType:
		return r.RacingType, r.RacingType != ""
	case ColRaceType:
		return r.RaceType, r.RaceType != ""
	}
	if r.Extra != nil {
		v, ok := r.Extra[column]
		return v, ok
	}
	return "", false
}

// Table is an in-memory runner table snapshot.
type Table []Runner

// Races returns the number of distinct races in the table.
func (t Table) Races() int {
	seen := make(map[string]struct{}, len(t))
	for i := range t {
		key := t[i].RaceKey()
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// FilterDateRange returns the rows whose event date falls in [start, end].
// Zero start or end means unbounded on that side.
func (t Table) FilterDateRange(start, end time.Time) Table {
	filtered := make(Table, 0, len(t))
	for _, row := range t {
		if !start.IsZero() && row.EventDate.Before(start) {
			continue
		}
		if !end.IsZero() && row.EventDate.After(end) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// LimitRaces caps the table to the first maxRaces distinct races in row order.
func (t Table) LimitRaces(maxRaces int) Table {
	if maxRaces <= 0 {
		return t
	}
	keep := make(map[string]struct{}, maxRaces)
	limited := make(Table, 0, len(t))
	for _, row := range t {
		key := row.RaceKey()
		if _, ok := keep[key]; !ok {
			if len(keep) >= maxRaces {
				continue
			}
			keep[key] = struct{}{}
		}
		limited = append(limited, row)
	}
	return limited
}
