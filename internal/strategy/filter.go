package strategy

import (
	"sort"

	"github.com/yourusername/ace-loop/internal/dataset"
)

// Predicate decides whether a context value is accepted by a filter.
type Predicate interface {
	Matches(value string) bool
	paramValue() any
}

// Equals accepts exactly one value.
type Equals struct {
	Value string
}

// Matches reports whether value equals the accepted value.
func (e Equals) Matches(value string) bool { return value == e.Value }

func (e Equals) paramValue() any { return e.Value }

// OneOf accepts any value from a set.
type OneOf struct {
	Values []string
}

// Matches reports whether value is in the accepted set.
func (o OneOf) Matches(value string) bool {
	for _, v := range o.Values {
		if v == value {
			return true
		}
	}
	return false
}

func (o OneOf) paramValue() any {
	values := append([]string(nil), o.Values...)
	sort.Strings(values)
	return values
}

// Filter constrains a single context column. Columns unknown to the runner
// schema are skipped rather than rejected, so filter definitions stay
// forward-compatible with evolving context columns.
type Filter struct {
	Column    string
	Predicate Predicate
}

// Matches applies the filter to a runner row. The fixed context columns are
// always part of the schema; dynamic columns apply only when the row carries
// them.
func (f Filter) Matches(r *dataset.Runner) bool {
	value, known := resolveColumn(r, f.Column)
	if !known {
		return true
	}
	return f.Predicate.Matches(value)
}

func resolveColumn(r *dataset.Runner, column string) (string, bool) {
	switch column {
	case dataset.ColTrack, dataset.ColStateCode, dataset.ColDistance,
		dataset.ColRacingType, dataset.ColRaceType:
		value, _ := r.ContextValue(column)
		return value, true
	}
	return r.ContextValue(column)
}
