package playbook

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ace-loop/internal/experience"
	"github.com/yourusername/ace-loop/internal/simulator"
)

// ReflectorConfig tunes the aggregation thresholds.
type ReflectorConfig struct {
	// MinBets is the sample-size floor below which a track or context
	// grouping is too noisy to report.
	MinBets int
	// Alpha is the family-wise significance level before Bonferroni
	// correction.
	Alpha float64
	// TopKContexts caps the context insight list.
	TopKContexts int
	// Confidence is the confidence level for hit-rate intervals.
	Confidence float64
}

// DefaultReflectorConfig returns the standard thresholds.
func DefaultReflectorConfig() ReflectorConfig {
	return ReflectorConfig{
		MinBets:      30,
		Alpha:        0.05,
		TopKContexts: 20,
		Confidence:   0.95,
	}
}

// Reflector turns experience records and per-strategy metrics into a
// playbook snapshot.
type Reflector struct {
	cfg    ReflectorConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewReflector creates a reflector. Zero-valued config fields fall back to
// the defaults.
func NewReflector(cfg ReflectorConfig, logger *logrus.Logger) *Reflector {
	def := DefaultReflectorConfig()
	if cfg.MinBets <= 0 {
		cfg.MinBets = def.MinBets
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		cfg.Alpha = def.Alpha
	}
	if cfg.TopKContexts <= 0 {
		cfg.TopKContexts = def.TopKContexts
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = def.Confidence
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Reflector{cfg: cfg, logger: logger, now: time.Now}
}

// BuildPlaybook aggregates one loop iteration. Experience records are the
// preferred source for global and context stats; strategy metrics cover
// strategies that placed no bets and serve as the global fallback when no
// experiences were recorded.
func (r *Reflector) BuildPlaybook(records []experience.Record, metrics []simulator.Metrics) Playbook {
	pb := Playbook{
		Metadata: Metadata{
			GeneratedAt:         r.now().UTC().Format(time.RFC3339),
			ExperienceRows:      len(records),
			StrategiesEvaluated: len(metrics),
		},
		Global:     r.globalStats(records, metrics),
		Strategies: r.strategyInsights(metrics),
		Tracks:     r.trackInsights(records),
		Contexts:   r.contextInsights(records),
	}

	r.logger.WithFields(logrus.Fields{
		"experience_rows": len(records),
		"strategies":      len(metrics),
		"tracks":          len(pb.Tracks),
		"contexts":        len(pb.Contexts),
	}).Info("Playbook built")

	return pb
}

func (r *Reflector) globalStats(records []experience.Record, metrics []simulator.Metrics) GlobalStats {
	if len(records) > 0 {
		var g GlobalStats
		wins := 0
		for _, rec := range records {
			g.TotalBets++
			g.TotalStaked += rec.Stake
			g.TotalProfit += rec.Profit
			if rec.WonFlag == 1 {
				wins++
			}
		}
		g.PotPct = g.TotalProfit / float64(g.TotalBets) * 100.0
		hitRate := float64(wins) / float64(g.TotalBets)
		g.HitRate = &hitRate
		return g
	}

	// No bets placed anywhere: fall back to the metrics summaries so the
	// playbook still records that the run happened.
	var g GlobalStats
	for _, m := range metrics {
		g.TotalBets += m.Bets
		g.TotalStaked += m.TotalStaked
		g.TotalProfit += m.TotalProfit
	}
	if g.TotalBets > 0 {
		g.PotPct = g.TotalProfit / float64(g.TotalBets) * 100.0
	}
	return g
}

func (r *Reflector) strategyInsights(metrics []simulator.Metrics) []StrategyInsight {
	if len(metrics) == 0 {
		return nil
	}

	correctedAlpha := BonferroniAlpha(r.cfg.Alpha, len(metrics))
	insights := make([]StrategyInsight, 0, len(metrics))
	for _, m := range metrics {
		ins := StrategyInsight{
			StrategyID:  m.StrategyID,
			Bets:        m.Bets,
			Wins:        m.Wins,
			HitRate:     m.HitRate,
			MeanEdge:    m.MeanEdge,
			TotalStaked: m.TotalStaked,
			TotalProfit: m.TotalProfit,
			PotPct:      m.PotPct,
			Params:      m.Params,
		}
		if m.TotalStaked > 0 {
			roi := m.TotalProfit / m.TotalStaked * 100.0
			ins.ROIPct = &roi
		}
		if m.Bets > 0 {
			p := BinomialPValue(m.Wins, m.Bets)
			low, high := WilsonInterval(m.Wins, m.Bets, r.cfg.Confidence)
			sig := p < correctedAlpha
			ins.PValue = &p
			ins.HitRateCILow = &low
			ins.HitRateCIHigh = &high
			ins.CorrectedAlpha = correctedAlpha
			ins.Significant = &sig
		}
		insights = append(insights, ins)
	}

	// Rank by ROI descending; strategies that never staked sort last.
	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i].ROIPct, insights[j].ROIPct
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return insights[i].StrategyID < insights[j].StrategyID
	})
	return insights
}

func (r *Reflector) trackInsights(records []experience.Record) []TrackInsight {
	type agg struct {
		bets   int
		wins   int
		profit float64
	}
	byTrack := make(map[string]*agg)
	for _, rec := range records {
		if rec.Track == "" {
			continue
		}
		a := byTrack[rec.Track]
		if a == nil {
			a = &agg{}
			byTrack[rec.Track] = a
		}
		a.bets++
		a.profit += rec.Profit
		if rec.WonFlag == 1 {
			a.wins++
		}
	}

	insights := make([]TrackInsight, 0, len(byTrack))
	for track, a := range byTrack {
		if a.bets < r.cfg.MinBets {
			continue
		}
		insights = append(insights, TrackInsight{
			Track:   track,
			Bets:    a.bets,
			Profit:  a.profit,
			PotPct:  a.profit / float64(a.bets) * 100.0,
			HitRate: float64(a.wins) / float64(a.bets),
		})
	}
	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].PotPct != insights[j].PotPct {
			return insights[i].PotPct > insights[j].PotPct
		}
		return insights[i].Track < insights[j].Track
	})
	return insights
}

func (r *Reflector) contextInsights(records []experience.Record) []ContextInsight {
	type key struct {
		track, band, racingType, raceType string
	}
	type agg struct {
		bets   int
		profit float64
	}
	byCtx := make(map[key]*agg)
	for _, rec := range records {
		if rec.Track == "" {
			continue
		}
		k := key{
			track:      rec.Track,
			band:       DistanceBand(rec.Distance),
			racingType: rec.RacingType,
			raceType:   rec.RaceType,
		}
		a := byCtx[k]
		if a == nil {
			a = &agg{}
			byCtx[k] = a
		}
		a.bets++
		a.profit += rec.Profit
	}

	insights := make([]ContextInsight, 0, len(byCtx))
	for k, a := range byCtx {
		if a.bets < r.cfg.MinBets {
			continue
		}
		insights = append(insights, ContextInsight{
			Track:        k.track,
			DistanceBand: k.band,
			RacingType:   k.racingType,
			RaceType:     k.raceType,
			Bets:         a.bets,
			Profit:       a.profit,
			PotPct:       a.profit / float64(a.bets) * 100.0,
		})
	}
	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].PotPct != insights[j].PotPct {
			return insights[i].PotPct > insights[j].PotPct
		}
		if insights[i].Track != insights[j].Track {
			return insights[i].Track < insights[j].Track
		}
		return insights[i].DistanceBand < insights[j].DistanceBand
	})
	if len(insights) > r.cfg.TopKContexts {
		insights = insights[:r.cfg.TopKContexts]
	}
	return insights
}
