package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeRoundsOdds(t *testing.T) {
	n := NewNormalizer(nil)
	table := Table{{WinOdds: fptr(5.126), ModelProb: fptr(0.2)}}

	cleaned := n.Normalize(table)
	require.NotNil(t, cleaned[0].WinOdds)
	assert.Equal(t, 5.13, *cleaned[0].WinOdds)
}

func TestNormalizeNullsUnquotableOdds(t *testing.T) {
	n := NewNormalizer(nil)
	table := Table{
		{WinOdds: fptr(1.0)},
		{WinOdds: fptr(0.5)},
		{WinOdds: fptr(1.01)},
	}

	cleaned := n.Normalize(table)
	assert.Nil(t, cleaned[0].WinOdds)
	assert.Nil(t, cleaned[1].WinOdds)
	assert.NotNil(t, cleaned[2].WinOdds)
}

func TestNormalizeNullsOutOfDomainProbs(t *testing.T) {
	n := NewNormalizer(nil)
	table := Table{
		{ModelProb: fptr(-0.1), ImpliedProb: fptr(1.5)},
		{ModelProb: fptr(0.0), ImpliedProb: fptr(1.0)},
	}

	cleaned := n.Normalize(table)
	assert.Nil(t, cleaned[0].ModelProb)
	assert.Nil(t, cleaned[0].ImpliedProb)
	assert.NotNil(t, cleaned[1].ModelProb)
	assert.NotNil(t, cleaned[1].ImpliedProb)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	n := NewNormalizer(nil)
	original := fptr(5.126)
	table := Table{{WinOdds: original}}

	n.Normalize(table)
	assert.Equal(t, 5.126, *original)
}
