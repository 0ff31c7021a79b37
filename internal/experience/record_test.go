package experience

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeExperienceIDIsDeterministic(t *testing.T) {
	a := MakeExperienceID("margin_1.05_top1_stake1.00", "R1", "r1", ActionBet)
	b := MakeExperienceID("margin_1.05_top1_stake1.00", "R1", "r1", ActionBet)

	assert.Equal(t, a, b)
	assert.Len(t, a, 20)
}

func TestMakeExperienceIDVariesWithInputs(t *testing.T) {
	base := MakeExperienceID("s1", "R1", "r1", ActionBet)

	assert.NotEqual(t, base, MakeExperienceID("s2", "R1", "r1", ActionBet))
	assert.NotEqual(t, base, MakeExperienceID("s1", "R2", "r1", ActionBet))
	assert.NotEqual(t, base, MakeExperienceID("s1", "R1", "r2", ActionBet))
}

func TestMakeContextHashOrderInvariant(t *testing.T) {
	// Maps iterate in random order; the hash must not care.
	a := MakeContextHash(map[string]string{
		"track": "Flemington", "state_code": "VIC", "distance": "1200",
	})
	for i := 0; i < 10; i++ {
		b := MakeContextHash(map[string]string{
			"distance": "1200", "track": "Flemington", "state_code": "VIC",
		})
		assert.Equal(t, a, b)
	}
	assert.Len(t, a, 16)
}

func TestMakeContextHashDistinguishesValues(t *testing.T) {
	a := MakeContextHash(map[string]string{"track": "Flemington"})
	b := MakeContextHash(map[string]string{"track": "Randwick"})
	assert.NotEqual(t, a, b)
}

func TestMakeContextHashEmptyContext(t *testing.T) {
	assert.Len(t, MakeContextHash(map[string]string{}), 16)
	assert.Len(t, MakeContextHash(nil), 16)
}
