package playbook

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinomialPValueDegenerateInputs(t *testing.T) {
	assert.Equal(t, 1.0, BinomialPValue(0, 0))
	assert.Equal(t, 1.0, BinomialPValue(5, 0))
	assert.Equal(t, 1.0, BinomialPValue(0, 10))
	assert.Equal(t, 1.0, BinomialPValue(-3, 10))
}

func TestBinomialPValuePerfectRecord(t *testing.T) {
	// 10 wins in 10 fair-coin trials: P(X >= 10) = 0.5^10.
	p := BinomialPValue(10, 10)
	assert.InDelta(t, math.Pow(0.5, 10), p, 1e-12)
}

func TestBinomialPValueWinsAboveNClamped(t *testing.T) {
	assert.Equal(t, BinomialPValue(10, 10), BinomialPValue(15, 10))
}

func TestBinomialPValueMonotonicInWins(t *testing.T) {
	prev := 1.0
	for wins := 1; wins <= 20; wins++ {
		p := BinomialPValue(wins, 20)
		assert.LessOrEqual(t, p, prev, "p-value must shrink as wins grow")
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		prev = p
	}
}

func TestWilsonIntervalNoTrials(t *testing.T) {
	low, high := WilsonInterval(0, 0, 0.95)
	assert.Equal(t, 0.0, low)
	assert.Equal(t, 1.0, high)
}

func TestWilsonIntervalBracketsObservedRate(t *testing.T) {
	cases := []struct {
		wins, n int
	}{
		{0, 10}, {1, 10}, {5, 10}, {10, 10},
		{3, 7}, {40, 100}, {99, 100},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.wins, tc.n), func(t *testing.T) {
			rate := float64(tc.wins) / float64(tc.n)
			low, high := WilsonInterval(tc.wins, tc.n, 0.95)
			assert.GreaterOrEqual(t, low, 0.0)
			assert.LessOrEqual(t, low, rate)
			assert.GreaterOrEqual(t, high, rate)
			assert.LessOrEqual(t, high, 1.0)
		})
	}
}

func TestWilsonIntervalNarrowsWithSampleSize(t *testing.T) {
	lowSmall, highSmall := WilsonInterval(5, 10, 0.95)
	lowLarge, highLarge := WilsonInterval(500, 1000, 0.95)
	assert.Less(t, highLarge-lowLarge, highSmall-lowSmall)
}

func TestWilsonIntervalEdgeRates(t *testing.T) {
	low, _ := WilsonInterval(0, 20, 0.95)
	assert.Equal(t, 0.0, low)

	_, high := WilsonInterval(20, 20, 0.95)
	assert.Equal(t, 1.0, high)
}

func TestBonferroniAlpha(t *testing.T) {
	assert.Equal(t, 0.05, BonferroniAlpha(0.05, 0))
	assert.Equal(t, 0.05, BonferroniAlpha(0.05, 1))
	assert.InDelta(t, 0.01, BonferroniAlpha(0.05, 5), 1e-12)
	assert.InDelta(t, 0.0005, BonferroniAlpha(0.05, 100), 1e-12)
}

func TestDistanceBand(t *testing.T) {
	band := func(d float64) string { return DistanceBand(&d) }

	assert.Equal(t, "unknown", DistanceBand(nil))
	assert.Equal(t, "<=1200", band(800))
	assert.Equal(t, "<=1200", band(1200))
	assert.Equal(t, "1201-1600", band(1201))
	assert.Equal(t, "1201-1600", band(1600))
	assert.Equal(t, "1601-2000", band(2000))
	assert.Equal(t, "2001-2400", band(2400))
	assert.Equal(t, "2400+", band(2401))
	assert.Equal(t, "2400+", band(3200))
}
