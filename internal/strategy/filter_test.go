package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/ace-loop/internal/dataset"
)

func TestEqualsFilterOnFixedColumn(t *testing.T) {
	f := Filter{Column: dataset.ColStateCode, Predicate: Equals{Value: "VIC"}}

	vic := dataset.Runner{StateCode: "VIC"}
	nsw := dataset.Runner{StateCode: "NSW"}
	blank := dataset.Runner{}

	assert.True(t, f.Matches(&vic))
	assert.False(t, f.Matches(&nsw))
	// Fixed schema columns always participate: an empty value is a mismatch,
	// not a missing column.
	assert.False(t, f.Matches(&blank))
}

func TestOneOfFilter(t *testing.T) {
	f := Filter{Column: dataset.ColRacingType, Predicate: OneOf{Values: []string{"Harness", "Thoroughbred"}}}

	tb := dataset.Runner{RacingType: "Thoroughbred"}
	gh := dataset.Runner{RacingType: "Greyhound"}

	assert.True(t, f.Matches(&tb))
	assert.False(t, f.Matches(&gh))
}

func TestUnknownColumnIsSkipped(t *testing.T) {
	f := Filter{Column: "going", Predicate: Equals{Value: "Good"}}

	without := dataset.Runner{}
	withMatch := dataset.Runner{Extra: map[string]string{"going": "Good"}}
	withMiss := dataset.Runner{Extra: map[string]string{"going": "Heavy"}}

	assert.True(t, f.Matches(&without), "row without the column passes the filter")
	assert.True(t, f.Matches(&withMatch))
	assert.False(t, f.Matches(&withMiss))
}

func TestDistanceFilterMatchesFormattedValue(t *testing.T) {
	d := 1200.0
	f := Filter{Column: dataset.ColDistance, Predicate: Equals{Value: "1200"}}
	row := dataset.Runner{Distance: &d}
	assert.True(t, f.Matches(&row))
}
