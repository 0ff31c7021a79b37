package simulator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ace-loop/internal/dataset"
	"github.com/yourusername/ace-loop/internal/strategy"
)

// winnerResult is the finish-result value that settles a bet as won,
// compared case-insensitively.
const winnerResult = "WINNER"

// oddsEpsilon guards the implied-probability division.
const oddsEpsilon = 1e-9

// Simulator applies a strategy's betting rule to a runner table.
//
// The edge formula is the fair-odds form: the amount by which market odds
// exceed the fair odds required after applying the strategy's margin of
// safety:
//
//	edge = win_odds - (1 / model_prob) / margin
//
// The older probability-space form (model_prob - implied_prob * margin) is
// not equivalent and is not used; strategy.EvalVersion tags every result with
// the formula revision.
type Simulator struct {
	logger *logrus.Logger
}

// New creates a simulator.
func New(logger *logrus.Logger) *Simulator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Simulator{logger: logger}
}

// Evaluate runs one strategy over the runner table. An empty table is a valid
// zero-metrics outcome; a table with no usable probabilities, odds, or race
// identifiers is a configuration error.
func (s *Simulator) Evaluate(table dataset.Table, cfg strategy.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return emptyResult(cfg), nil
	}
	if err := validateTable(table); err != nil {
		return nil, err
	}

	candidates := s.selectCandidates(table, cfg)
	if len(candidates) == 0 {
		return emptyResult(cfg), nil
	}

	bets := settle(candidates, cfg.Stake)
	result := &Result{
		Strategy: cfg,
		Bets:     bets,
		Metrics:  summarize(cfg, bets),
		ByTrack:  trackBreakdown(bets),
	}
	return result, nil
}

// validateTable escalates data-quality gaps that make evaluation impossible.
func validateTable(table dataset.Table) error {
	anyProb, anyOdds, anyRace := false, false, false
	for i := range table {
		if table[i].ModelProb != nil {
			anyProb = true
		}
		if table[i].WinOdds != nil {
			anyOdds = true
		}
		if table[i].RaceKey() != "" {
			anyRace = true
		}
	}
	if !anyOdds {
		return fmt.Errorf("all win_odds values are null - cannot compute edge")
	}
	if !anyProb {
		return fmt.Errorf("all model_prob values are null - cannot evaluate strategy")
	}
	if !anyRace {
		return fmt.Errorf("no race identifier found (expected race_id or win_market_id)")
	}
	return nil
}

// selectCandidates drops null rows, prices and filters the rest, and applies
// the per-race admission cap.
func (s *Simulator) selectCandidates(table dataset.Table, cfg strategy.Config) []Bet {
	candidates := make([]Bet, 0, len(table))
	droppedNull := 0
	for i := range table {
		row := table[i]
		if row.ModelProb == nil || row.WinOdds == nil {
			droppedNull++
			continue
		}
		prob := *row.ModelProb
		odds := *row.WinOdds
		if prob <= 0 || odds <= 0 {
			continue
		}

		implied := 1.0 / (odds + oddsEpsilon)
		if row.ImpliedProb != nil {
			implied = *row.ImpliedProb
		}

		fairOdds := 1.0 / prob
		edge := odds - fairOdds/cfg.Margin

		if cfg.MinModelProb != nil && prob < *cfg.MinModelProb {
			continue
		}
		if cfg.MaxWinOdds != nil && odds > *cfg.MaxWinOdds {
			continue
		}
		if !matchesFilters(&row, cfg.Filters) {
			continue
		}
		if edge <= 0 {
			continue
		}

		candidates = append(candidates, Bet{
			Runner:      row,
			RaceKey:     row.RaceKey(),
			ImpliedProb: implied,
			Edge:        edge,
		})
	}

	if droppedNull > 0 {
		s.logger.WithFields(logrus.Fields{
			"strategy_id": cfg.ID,
			"dropped":     droppedNull,
		}).Debug("Dropped rows with null model_prob or win_odds")
	}

	// Rank within each race by descending edge, then admit at most TopN per
	// race. The sort is stable so equal edges keep input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RaceKey != candidates[j].RaceKey {
			return candidates[i].RaceKey < candidates[j].RaceKey
		}
		return candidates[i].Edge > candidates[j].Edge
	})

	admitted := make([]Bet, 0, len(candidates))
	perRace := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if perRace[c.RaceKey] >= cfg.TopN {
			continue
		}
		perRace[c.RaceKey]++
		admitted = append(admitted, c)
	}
	return admitted
}

func matchesFilters(row *dataset.Runner, filters []strategy.Filter) bool {
	for _, f := range filters {
		if !f.Matches(row) {
			return false
		}
	}
	return true
}

func settle(candidates []Bet, stake float64) []Bet {
	bets := make([]Bet, len(candidates))
	for i, c := range candidates {
		c.Stake = stake
		c.Won = strings.EqualFold(c.Runner.WinResult, winnerResult)
		if c.Won {
			c.Profit = stake * (*c.Runner.WinOdds - 1.0)
		} else {
			c.Profit = -stake
		}
		bets[i] = c
	}
	return bets
}

func summarize(cfg strategy.Config, bets []Bet) Metrics {
	m := Metrics{
		StrategyID: cfg.ID,
		Bets:       len(bets),
		Params:     cfg.EncodeParams(),
	}
	if len(bets) == 0 {
		return m
	}

	edgeSum := 0.0
	for _, b := range bets {
		if b.Won {
			m.Wins++
		}
		edgeSum += b.Edge
		m.TotalStaked += b.Stake
		m.TotalProfit += b.Profit
	}
	n := float64(len(bets))
	m.HitRate = float64(m.Wins) / n
	m.MeanEdge = edgeSum / n
	m.PotPct = m.TotalProfit / n * 100.0
	return m
}

func trackBreakdown(bets []Bet) []TrackBreakdown {
	byTrack := make(map[string]*TrackBreakdown)
	for _, b := range bets {
		track := b.Runner.Track
		if track == "" {
			continue
		}
		agg, ok := byTrack[track]
		if !ok {
			agg = &TrackBreakdown{Track: track}
			byTrack[track] = agg
		}
		agg.Bets++
		agg.Profit += b.Profit
	}
	if len(byTrack) == 0 {
		return nil
	}

	breakdown := make([]TrackBreakdown, 0, len(byTrack))
	for _, agg := range byTrack {
		agg.PotPct = agg.Profit / float64(agg.Bets) * 100.0
		breakdown = append(breakdown, *agg)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].PotPct != breakdown[j].PotPct {
			return breakdown[i].PotPct > breakdown[j].PotPct
		}
		return breakdown[i].Track < breakdown[j].Track
	})
	return breakdown
}
