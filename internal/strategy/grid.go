package strategy

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Axes describes the value ranges a Grid expands into concrete configs.
// Absent axes default to a single neutral value, never to zero: a missing
// constraint means "no constraint", not "exclude everything".
type Axes struct {
	Margins       []float64
	TopNs         []int
	Stakes        []float64
	MinModelProbs []*float64
	MaxWinOdds    []*float64
	BaseFilters   []Filter
}

// Build expands the Cartesian product of the axes into concrete configs with
// deterministic ids: identical parameterizations always yield identical ids.
func Build(axes Axes) []Config {
	margins := axes.Margins
	if len(margins) == 0 {
		margins = []float64{1.05}
	}
	topNs := axes.TopNs
	if len(topNs) == 0 {
		topNs = []int{1}
	}
	stakes := axes.Stakes
	if len(stakes) == 0 {
		stakes = []float64{1.0}
	}
	minProbs := axes.MinModelProbs
	if len(minProbs) == 0 {
		minProbs = []*float64{nil}
	}
	maxOdds := axes.MaxWinOdds
	if len(maxOdds) == 0 {
		maxOdds = []*float64{nil}
	}

	configs := make([]Config, 0, len(margins)*len(topNs)*len(stakes)*len(minProbs)*len(maxOdds))
	for _, margin := range margins {
		for _, topN := range topNs {
			for _, stake := range stakes {
				for _, minProb := range minProbs {
					for _, capOdds := range maxOdds {
						id := fmt.Sprintf("margin_%.2f_top%d_stake%.2f", margin, topN, stake)
						if minProb != nil {
							id += fmt.Sprintf("_minprob%.2f", *minProb)
						}
						if capOdds != nil {
							id += fmt.Sprintf("_maxodds%.2f", *capOdds)
						}
						cfg := NewConfig(id, margin, topN, stake)
						cfg.MinModelProb = minProb
						cfg.MaxWinOdds = capOdds
						cfg.Filters = append([]Filter(nil), axes.BaseFilters...)
						configs = append(configs, cfg)
					}
				}
			}
		}
	}
	return configs
}

// Definition is the JSON shape of a strategy definition file entry.
type Definition struct {
	Margins       []float64      `json:"margins"`
	TopNs         []int          `json:"top_ns"`
	Stakes        []float64      `json:"stakes"`
	MinModelProbs []*float64     `json:"min_model_probs"`
	MaxWinOdds    []*float64     `json:"max_win_odds"`
	Filters       map[string]any `json:"filters"`
}

// FromDefinition expands a definition into concrete configs. List-valued
// filter entries fan out into one config per value combination, with a
// filter-derived id suffix so variants stay distinguishable. Filter keys are
// iterated in sorted order so expansion is deterministic.
func FromDefinition(def Definition) ([]Config, error) {
	base := Build(Axes{
		Margins:       def.Margins,
		TopNs:         def.TopNs,
		Stakes:        def.Stakes,
		MinModelProbs: def.MinModelProbs,
		MaxWinOdds:    def.MaxWinOdds,
	})
	if len(def.Filters) == 0 {
		return base, nil
	}

	keys := sortedKeys(def.Filters)
	values := make([][]string, len(keys))
	for i, key := range keys {
		coerced, err := coerceFilterValues(def.Filters[key])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", key, err)
		}
		if len(coerced) == 0 {
			return nil, fmt.Errorf("filter %q: empty value list", key)
		}
		values[i] = coerced
	}

	combos := crossProduct(values)
	var expanded []Config
	for _, cfg := range base {
		for _, combo := range combos {
			variant := cfg
			variant.Filters = make([]Filter, len(keys))
			for i, key := range keys {
				variant.ID += fmt.Sprintf("_%s%s", key, combo[i])
				variant.Filters[i] = Filter{Column: key, Predicate: Equals{Value: combo[i]}}
			}
			expanded = append(expanded, variant)
		}
	}
	return expanded, nil
}

// LoadDefinitions reads a strategy definition file: either a single
// definition object or a list of them, expanded to the union.
func LoadDefinitions(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy definitions: %w", err)
	}

	var list []Definition
	if err := json.Unmarshal(data, &list); err == nil {
		var configs []Config
		for i, def := range list {
			expanded, err := FromDefinition(def)
			if err != nil {
				return nil, fmt.Errorf("definition %d: %w", i, err)
			}
			configs = append(configs, expanded...)
		}
		return configs, nil
	}

	var single Definition
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("unsupported strategy definition in %s: %w", path, err)
	}
	return FromDefinition(single)
}

// DefaultGrid is the grid evaluated when no definition file is supplied.
func DefaultGrid() []Config {
	return Build(Axes{
		Margins: []float64{1.02, 1.05, 1.08},
		TopNs:   []int{1, 2},
		Stakes:  []float64{1.0},
	})
}

func coerceFilterValues(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, err := coerceScalar(item)
			if err != nil {
				return nil, err
			}
			values = append(values, s)
		}
		return values, nil
	default:
		s, err := coerceScalar(raw)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func coerceScalar(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported filter value %v (%T)", raw, raw)
	}
}

func crossProduct(values [][]string) [][]string {
	combos := [][]string{{}}
	for _, axis := range values {
		next := make([][]string, 0, len(combos)*len(axis))
		for _, combo := range combos {
			for _, value := range axis {
				extended := make([]string, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, value))
			}
		}
		combos = next
	}
	return combos
}
