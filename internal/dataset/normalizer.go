package dataset

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Normalizer cleans numeric fields on a freshly loaded runner table.
// Odds are rounded to two decimal places and probabilities clamped to [0, 1];
// out-of-domain values that cannot be repaired are nulled so the simulator
// drops them instead of betting on garbage.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a normalizer for loaded snapshots.
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns a cleaned copy of the table.
func (n *Normalizer) Normalize(table Table) Table {
	cleaned := make(Table, len(table))
	dropped := 0
	for i, row := range table {
		row.WinOdds = normalizeOdds(row.WinOdds)
		row.ModelProb = normalizeProb(row.ModelProb)
		row.ImpliedProb = normalizeProb(row.ImpliedProb)
		if row.WinOdds == nil && table[i].WinOdds != nil {
			dropped++
		}
		cleaned[i] = row
	}
	if dropped > 0 {
		n.logger.WithFields(logrus.Fields{
			"rows":         len(table),
			"nulled_odds":  dropped,
		}).Warn("Nulled unusable win odds during normalization")
	}
	return cleaned
}

// normalizeOdds rounds decimal odds to two places and rejects prices at or
// below even money minus the tick, which the market cannot quote.
func normalizeOdds(odds *float64) *float64 {
	if odds == nil {
		return nil
	}
	d := decimal.NewFromFloat(*odds).Round(2)
	if d.LessThanOrEqual(decimal.NewFromInt(1)) {
		return nil
	}
	v, _ := d.Float64()
	return &v
}

func normalizeProb(prob *float64) *float64 {
	if prob == nil {
		return nil
	}
	d := decimal.NewFromFloat(*prob)
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return nil
	}
	v, _ := d.Float64()
	return &v
}
