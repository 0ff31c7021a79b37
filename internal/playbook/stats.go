package playbook

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// BinomialPValue is the one-sided probability of observing wins or more
// successes in n fair-coin trials. A small value means the hit rate is
// unlikely to be luck against a 50% null.
func BinomialPValue(wins, n int) float64 {
	if n <= 0 {
		return 1.0
	}
	if wins <= 0 {
		return 1.0
	}
	if wins > n {
		wins = n
	}
	b := distuv.Binomial{N: float64(n), P: 0.5}
	// P(X >= wins) = 1 - P(X <= wins-1)
	p := 1.0 - b.CDF(float64(wins-1))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// WilsonInterval returns the Wilson score confidence interval for a
// binomial proportion. Both bounds are clamped to [0, 1] and bracket the
// observed rate. With no trials the interval is maximally uninformative.
func WilsonInterval(wins, n int, confidence float64) (low, high float64) {
	if n <= 0 {
		return 0.0, 1.0
	}
	if wins < 0 {
		wins = 0
	}
	if wins > n {
		wins = n
	}
	z := distuv.UnitNormal.Quantile(1.0 - (1.0-confidence)/2.0)
	nf := float64(n)
	p := float64(wins) / nf
	denom := 1.0 + z*z/nf
	center := (p + z*z/(2.0*nf)) / denom
	margin := z / denom * math.Sqrt(p*(1.0-p)/nf+z*z/(4.0*nf*nf))
	low = center - margin
	high = center + margin
	if low < 0 {
		low = 0
	}
	if high > 1 {
		high = 1
	}
	if low > p {
		low = p
	}
	if high < p {
		high = p
	}
	return low, high
}

// BonferroniAlpha corrects a significance level for multiple comparisons.
func BonferroniAlpha(alpha float64, tests int) float64 {
	if tests <= 1 {
		return alpha
	}
	return alpha / float64(tests)
}

// DistanceBand buckets a race distance in metres into a labelled band.
func DistanceBand(distance *float64) string {
	if distance == nil {
		return "unknown"
	}
	d := *distance
	switch {
	case d <= 1200:
		return "<=1200"
	case d <= 1600:
		return "1201-1600"
	case d <= 2000:
		return "1601-2000"
	case d <= 2400:
		return "2001-2400"
	default:
		return "2400+"
	}
}
