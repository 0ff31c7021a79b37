package playbook

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ace-loop/internal/experience"
	"github.com/yourusername/ace-loop/internal/simulator"
)

func newTestReflector(cfg ReflectorConfig) *Reflector {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	r := NewReflector(cfg, log)
	r.now = func() time.Time {
		return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	}
	return r
}

func betRecord(track string, distance *float64, won bool, profit float64) experience.Record {
	flag := int32(0)
	if won {
		flag = 1
	}
	return experience.Record{
		Track:      track,
		Distance:   distance,
		WonFlag:    flag,
		Stake:      1.0,
		Profit:     profit,
		RacingType: "Thoroughbred",
		RaceType:   "Handicap",
	}
}

func TestNewReflectorFillsDefaults(t *testing.T) {
	r := NewReflector(ReflectorConfig{}, nil)
	assert.Equal(t, DefaultReflectorConfig(), r.cfg)

	r = NewReflector(ReflectorConfig{MinBets: 5, Alpha: 1.5}, nil)
	assert.Equal(t, 5, r.cfg.MinBets)
	assert.Equal(t, 0.05, r.cfg.Alpha)
}

func TestBuildPlaybookMetadata(t *testing.T) {
	r := newTestReflector(ReflectorConfig{MinBets: 1})
	records := []experience.Record{betRecord("Flemington", nil, true, 1.5)}
	metrics := []simulator.Metrics{{StrategyID: "margin_1.05_top1_stake1.00", Bets: 1}}

	pb := r.BuildPlaybook(records, metrics)

	assert.Equal(t, "2025-03-05T12:00:00Z", pb.Metadata.GeneratedAt)
	assert.Equal(t, 1, pb.Metadata.ExperienceRows)
	assert.Equal(t, 1, pb.Metadata.StrategiesEvaluated)
}

func TestGlobalStatsFromRecords(t *testing.T) {
	r := newTestReflector(ReflectorConfig{MinBets: 1})
	records := []experience.Record{
		betRecord("Flemington", nil, true, 1.5),
		betRecord("Flemington", nil, false, -1.0),
		betRecord("Randwick", nil, false, -1.0),
		betRecord("Randwick", nil, true, 4.0),
	}

	pb := r.BuildPlaybook(records, nil)

	assert.Equal(t, 4, pb.Global.TotalBets)
	assert.InDelta(t, 4.0, pb.Global.TotalStaked, 1e-9)
	assert.InDelta(t, 3.5, pb.Global.TotalProfit, 1e-9)
	assert.InDelta(t, 87.5, pb.Global.PotPct, 1e-9)
	require.NotNil(t, pb.Global.HitRate)
	assert.InDelta(t, 0.5, *pb.Global.HitRate, 1e-9)
}

func TestGlobalStatsFallsBackToMetrics(t *testing.T) {
	r := newTestReflector(ReflectorConfig{})
	metrics := []simulator.Metrics{
		{StrategyID: "a", Bets: 3, TotalStaked: 3.0, TotalProfit: -0.5},
		{StrategyID: "b", Bets: 2, TotalStaked: 2.0, TotalProfit: 1.0},
	}

	pb := r.BuildPlaybook(nil, metrics)

	assert.Equal(t, 5, pb.Global.TotalBets)
	assert.InDelta(t, 5.0, pb.Global.TotalStaked, 1e-9)
	assert.InDelta(t, 0.5, pb.Global.TotalProfit, 1e-9)
	assert.InDelta(t, 10.0, pb.Global.PotPct, 1e-9)
	assert.Nil(t, pb.Global.HitRate, "hit rate is unknowable without records")
}

func TestStrategyInsightsROINilWithoutStake(t *testing.T) {
	r := newTestReflector(ReflectorConfig{})
	metrics := []simulator.Metrics{
		{StrategyID: "never_bet", Bets: 0, TotalStaked: 0},
	}

	pb := r.BuildPlaybook(nil, metrics)

	require.Len(t, pb.Strategies, 1)
	ins := pb.Strategies[0]
	assert.Nil(t, ins.ROIPct)
	assert.Nil(t, ins.PValue)
	assert.Nil(t, ins.Significant)
}

func TestStrategyInsightsRanking(t *testing.T) {
	r := newTestReflector(ReflectorConfig{})
	metrics := []simulator.Metrics{
		{StrategyID: "loser", Bets: 10, Wins: 2, TotalStaked: 10, TotalProfit: -3},
		{StrategyID: "idle_b", Bets: 0},
		{StrategyID: "winner", Bets: 10, Wins: 6, TotalStaked: 10, TotalProfit: 4},
		{StrategyID: "idle_a", Bets: 0},
	}

	pb := r.BuildPlaybook(nil, metrics)

	require.Len(t, pb.Strategies, 4)
	assert.Equal(t, "winner", pb.Strategies[0].StrategyID)
	assert.Equal(t, "loser", pb.Strategies[1].StrategyID)
	// Zero-stake strategies sort last, alphabetically.
	assert.Equal(t, "idle_a", pb.Strategies[2].StrategyID)
	assert.Equal(t, "idle_b", pb.Strategies[3].StrategyID)

	require.NotNil(t, pb.Strategies[0].ROIPct)
	assert.InDelta(t, 40.0, *pb.Strategies[0].ROIPct, 1e-9)
}

func TestStrategyInsightsSignificance(t *testing.T) {
	r := newTestReflector(ReflectorConfig{Alpha: 0.05})
	metrics := []simulator.Metrics{
		{StrategyID: "perfect", Bets: 20, Wins: 20, TotalStaked: 20, TotalProfit: 15},
		{StrategyID: "coinflip", Bets: 20, Wins: 10, TotalStaked: 20, TotalProfit: 0},
	}

	pb := r.BuildPlaybook(nil, metrics)

	require.Len(t, pb.Strategies, 2)
	byID := map[string]StrategyInsight{}
	for _, ins := range pb.Strategies {
		byID[ins.StrategyID] = ins
	}

	perfect := byID["perfect"]
	require.NotNil(t, perfect.PValue)
	assert.InDelta(t, math.Pow(0.5, 20), *perfect.PValue, 1e-12)
	assert.InDelta(t, 0.025, perfect.CorrectedAlpha, 1e-12)
	require.NotNil(t, perfect.Significant)
	assert.True(t, *perfect.Significant)

	coinflip := byID["coinflip"]
	require.NotNil(t, coinflip.Significant)
	assert.False(t, *coinflip.Significant)
	require.NotNil(t, coinflip.HitRateCILow)
	require.NotNil(t, coinflip.HitRateCIHigh)
	assert.LessOrEqual(t, *coinflip.HitRateCILow, 0.5)
	assert.GreaterOrEqual(t, *coinflip.HitRateCIHigh, 0.5)
}

func TestTrackInsightsMinBetsFloor(t *testing.T) {
	r := newTestReflector(ReflectorConfig{MinBets: 3})
	records := []experience.Record{
		betRecord("Flemington", nil, true, 2.0),
		betRecord("Flemington", nil, false, -1.0),
		betRecord("Flemington", nil, false, -1.0),
		betRecord("Randwick", nil, true, 5.0),
		betRecord("", nil, true, 1.0),
	}

	pb := r.BuildPlaybook(records, nil)

	require.Len(t, pb.Tracks, 1, "tracks below the sample floor are dropped")
	ft := pb.Tracks[0]
	assert.Equal(t, "Flemington", ft.Track)
	assert.Equal(t, 3, ft.Bets)
	assert.InDelta(t, 0.0, ft.Profit, 1e-9)
	assert.InDelta(t, 1.0/3.0, ft.HitRate, 1e-9)
}

func TestTrackInsightsOrderedByPot(t *testing.T) {
	r := newTestReflector(ReflectorConfig{MinBets: 1})
	records := []experience.Record{
		betRecord("Flemington", nil, false, -1.0),
		betRecord("Randwick", nil, true, 3.0),
	}

	pb := r.BuildPlaybook(records, nil)

	require.Len(t, pb.Tracks, 2)
	assert.Equal(t, "Randwick", pb.Tracks[0].Track)
	assert.Equal(t, "Flemington", pb.Tracks[1].Track)
}

func TestContextInsightsBandedAndCapped(t *testing.T) {
	sprint := 1000.0
	mile := 1600.0
	r := newTestReflector(ReflectorConfig{MinBets: 1, TopKContexts: 2})
	records := []experience.Record{
		betRecord("Flemington", &sprint, true, 3.0),
		betRecord("Flemington", &mile, false, -1.0),
		betRecord("Randwick", nil, true, 1.0),
	}

	pb := r.BuildPlaybook(records, nil)

	require.Len(t, pb.Contexts, 2, "context list honours the cap")
	assert.Equal(t, "Flemington", pb.Contexts[0].Track)
	assert.Equal(t, "<=1200", pb.Contexts[0].DistanceBand)
	assert.Equal(t, "Randwick", pb.Contexts[1].Track)
	assert.Equal(t, "unknown", pb.Contexts[1].DistanceBand)
}
