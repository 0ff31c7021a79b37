package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestNewConfigCarriesEvalTags(t *testing.T) {
	cfg := NewConfig("margin_1.05_top1_stake1.00", 1.05, 1, 1.0)
	assert.Equal(t, EvalVersion, cfg.Version)
	assert.Equal(t, EvalCodeHash, cfg.CodeHash)
}

func TestValidateRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty id", func(c *Config) { c.ID = "" }},
		{"margin below 1", func(c *Config) { c.Margin = 0.99 }},
		{"zero top_n", func(c *Config) { c.TopN = 0 }},
		{"zero stake", func(c *Config) { c.Stake = 0 }},
		{"min prob above 1", func(c *Config) { c.MinModelProb = fptr(1.5) }},
		{"max odds at 1", func(c *Config) { c.MaxWinOdds = fptr(1.0) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig("s", 1.05, 1, 1.0)
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := NewConfig("s", 1.0, 1, 0.5)
	assert.NoError(t, cfg.Validate())
}

func TestEncodeParamsIsDeterministic(t *testing.T) {
	a := NewConfig("s", 1.05, 2, 1.0)
	a.Filters = []Filter{
		{Column: "state_code", Predicate: Equals{Value: "VIC"}},
		{Column: "racing_type", Predicate: OneOf{Values: []string{"Harness", "Thoroughbred"}}},
	}
	b := NewConfig("s", 1.05, 2, 1.0)
	b.Filters = []Filter{
		{Column: "racing_type", Predicate: OneOf{Values: []string{"Thoroughbred", "Harness"}}},
		{Column: "state_code", Predicate: Equals{Value: "VIC"}},
	}

	assert.Equal(t, a.EncodeParams(), b.EncodeParams(),
		"filter declaration order must not change the encoding")
}

func TestEncodeParamsContainsIdentity(t *testing.T) {
	cfg := NewConfig("margin_1.05_top1_stake1.00", 1.05, 1, 1.0)
	encoded := cfg.EncodeParams()
	require.Contains(t, encoded, `"strategy_id":"margin_1.05_top1_stake1.00"`)
	require.Contains(t, encoded, `"version":"`+EvalVersion+`"`)
}
