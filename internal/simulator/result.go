// Package simulator evaluates a betting strategy against a runner table and
// computes realized profit. Evaluation is a pure function of its inputs;
// concurrent per-strategy runs share no state.
package simulator

import (
	"github.com/yourusername/ace-loop/internal/dataset"
	"github.com/yourusername/ace-loop/internal/strategy"
)

// Bet is a runner row accepted by a strategy, settled against the race result.
type Bet struct {
	Runner      dataset.Runner
	RaceKey     string
	ImpliedProb float64
	Edge        float64
	Stake       float64
	Profit      float64
	Won         bool
}

// Metrics is the scalar summary of one strategy evaluation. A zero-bet
// strategy yields a zero-valued record, not a missing one, so downstream
// aggregation stays total.
type Metrics struct {
	StrategyID  string  `json:"strategy_id"`
	Bets        int     `json:"bets"`
	Wins        int     `json:"wins"`
	HitRate     float64 `json:"hit_rate"`
	MeanEdge    float64 `json:"mean_edge"`
	TotalStaked float64 `json:"total_staked"`
	TotalProfit float64 `json:"total_profit"`
	PotPct      float64 `json:"pot_pct"`
	Params      string  `json:"params"`
}

// TrackBreakdown aggregates a strategy's bets for one track.
type TrackBreakdown struct {
	Track  string  `json:"track"`
	Bets   int     `json:"bets"`
	Profit float64 `json:"profit"`
	PotPct float64 `json:"pot_pct"`
}

// Result holds one (runner table, strategy) evaluation. Immutable once built.
type Result struct {
	Strategy strategy.Config
	Bets     []Bet
	Metrics  Metrics
	ByTrack  []TrackBreakdown
}

func emptyResult(cfg strategy.Config) *Result {
	return &Result{
		Strategy: cfg,
		Bets:     nil,
		Metrics: Metrics{
			StrategyID: cfg.ID,
			Params:     cfg.EncodeParams(),
		},
	}
}
