// Package strategy defines the declarative betting-strategy model and the
// combinatorial grid that expands parameter ranges into concrete configs.
package strategy

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Evaluation-logic revision tags. These are deliberately explicit constants:
// identifiers carried into persisted experiences must survive recompilation,
// so they are bumped by hand whenever the edge formula changes.
// 2.0.0 switched the edge formula to win_odds - (1/model_prob)/margin.
const (
	EvalVersion  = "2.0.0"
	EvalCodeHash = "edge-fair-odds-v2"
)

// Config is an immutable description of one betting rule. Construct via the
// Grid helpers or NewConfig; never mutate after creation.
type Config struct {
	ID           string
	Margin       float64
	TopN         int
	Stake        float64
	MinModelProb *float64
	MaxWinOdds   *float64
	Filters      []Filter
	Version      string
	CodeHash     string
}

// NewConfig creates a config with the current evaluation-logic tags applied.
func NewConfig(id string, margin float64, topN int, stake float64) Config {
	return Config{
		ID:       id,
		Margin:   margin,
		TopN:     topN,
		Stake:    stake,
		Version:  EvalVersion,
		CodeHash: EvalCodeHash,
	}
}

// Validate checks the parameter domain documented in the data model.
func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("strategy id is required")
	}
	if c.Margin < 1.0 {
		return fmt.Errorf("strategy %s: margin must be >= 1.0, got %v", c.ID, c.Margin)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("strategy %s: top_n must be positive, got %d", c.ID, c.TopN)
	}
	if c.Stake <= 0 {
		return fmt.Errorf("strategy %s: stake must be positive, got %v", c.ID, c.Stake)
	}
	if c.MinModelProb != nil && (*c.MinModelProb < 0 || *c.MinModelProb > 1) {
		return fmt.Errorf("strategy %s: min_model_prob must be in [0,1]", c.ID)
	}
	if c.MaxWinOdds != nil && *c.MaxWinOdds <= 1 {
		return fmt.Errorf("strategy %s: max_win_odds must exceed 1.0", c.ID)
	}
	return nil
}

// Params returns the strategy parameters as a plain map, filters included.
func (c Config) Params() map[string]any {
	filters := make(map[string]any, len(c.Filters))
	for _, f := range c.Filters {
		filters[f.Column] = f.Predicate.paramValue()
	}
	return map[string]any{
		"strategy_id":    c.ID,
		"margin":         c.Margin,
		"top_n":          c.TopN,
		"stake":          c.Stake,
		"min_model_prob": c.MinModelProb,
		"max_win_odds":   c.MaxWinOdds,
		"filters":        filters,
		"version":        c.Version,
		"code_hash":      c.CodeHash,
	}
}

// EncodeParams serializes the parameters canonically: JSON with sorted keys
// at every level, so the same config always encodes to the same bytes.
func (c Config) EncodeParams() string {
	data, err := json.Marshal(c.Params())
	if err != nil {
		// Params only contains JSON-safe types; this cannot fire in practice.
		return fmt.Sprintf(`{"strategy_id":%q}`, c.ID)
	}
	return string(data)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
