// Package playbook distills aggregated experience into a statistically
// vetted summary of which strategies, tracks, and contexts show edge, and
// maintains the rolling playbook artifact on disk.
package playbook

// Metadata describes one playbook snapshot.
type Metadata struct {
	GeneratedAt         string `json:"generated_at"`
	RunID               string `json:"run_id,omitempty"`
	ExperienceRows      int    `json:"experience_rows"`
	StrategiesEvaluated int    `json:"strategies_evaluated"`
}

// GlobalStats aggregates the whole run. HitRate is nil when no outcome data
// was available to compute it.
type GlobalStats struct {
	TotalBets   int      `json:"total_bets"`
	TotalProfit float64  `json:"total_profit"`
	TotalStaked float64  `json:"total_staked"`
	PotPct      float64  `json:"pot_pct"`
	HitRate     *float64 `json:"hit_rate"`
}

// StrategyInsight is one strategy's aggregate with significance fields.
// ROIPct is nil, not zero, when nothing was staked: a zero-bet strategy is
// not a break-even strategy.
type StrategyInsight struct {
	StrategyID     string   `json:"strategy_id"`
	Bets           int      `json:"bets"`
	Wins           int      `json:"wins"`
	HitRate        float64  `json:"hit_rate"`
	MeanEdge       float64  `json:"mean_edge"`
	TotalStaked    float64  `json:"total_staked"`
	TotalProfit    float64  `json:"total_profit"`
	PotPct         float64  `json:"pot_pct"`
	ROIPct         *float64 `json:"roi_pct"`
	PValue         *float64 `json:"p_value,omitempty"`
	HitRateCILow   *float64 `json:"hit_rate_ci_low,omitempty"`
	HitRateCIHigh  *float64 `json:"hit_rate_ci_high,omitempty"`
	CorrectedAlpha float64  `json:"corrected_alpha,omitempty"`
	Significant    *bool    `json:"significant,omitempty"`
	Params         string   `json:"params,omitempty"`
}

// TrackInsight aggregates bets at one track.
type TrackInsight struct {
	Track   string  `json:"track"`
	Bets    int     `json:"bets"`
	Profit  float64 `json:"profit"`
	PotPct  float64 `json:"pot_pct"`
	HitRate float64 `json:"hit_rate"`
}

// ContextInsight aggregates bets in one track/distance-band/type slice.
type ContextInsight struct {
	Track        string  `json:"track"`
	DistanceBand string  `json:"distance_band"`
	RacingType   string  `json:"racing_type"`
	RaceType     string  `json:"race_type"`
	Bets         int     `json:"bets"`
	Profit       float64 `json:"profit"`
	PotPct       float64 `json:"pot_pct"`
}

// Playbook is one reflection snapshot.
type Playbook struct {
	Metadata   Metadata          `json:"metadata"`
	Global     GlobalStats       `json:"global"`
	Strategies []StrategyInsight `json:"strategies"`
	Tracks     []TrackInsight    `json:"tracks"`
	Contexts   []ContextInsight  `json:"contexts"`
}
