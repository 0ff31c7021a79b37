// Package experience turns accepted bets into durable experience records:
// one row per bet across every strategy evaluated in a run, each with a
// deterministic identity and a context fingerprint.
package experience

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ActionBet is the only action recorded by the evaluation loop.
const ActionBet = "bet"

// DefaultContextFields are the race/runner attributes folded into the
// context fingerprint.
var DefaultContextFields = []string{"track", "state_code", "distance", "racing_type", "race_type"}

// Record is one accepted bet. ExperienceID is a pure function of
// (strategy_id, race_id, runner_id, action): re-running the same strategy
// against the same data regenerates the same id.
type Record struct {
	ExperienceID string   `parquet:"experience_id" json:"experience_id"`
	EventDate    string   `parquet:"event_date,optional" json:"event_date"`
	RaceID       string   `parquet:"race_id" json:"race_id"`
	RunnerID     string   `parquet:"runner_id" json:"runner_id"`
	SelectionID  int64    `parquet:"selection_id" json:"selection_id"`
	StrategyID   string   `parquet:"strategy_id" json:"strategy_id"`
	Params       string   `parquet:"params" json:"params"`
	Action       string   `parquet:"action" json:"action"`
	Stake        float64  `parquet:"stake" json:"stake"`
	Profit       float64  `parquet:"profit" json:"profit"`
	ModelProb    float64  `parquet:"model_prob" json:"model_prob"`
	ImpliedProb  float64  `parquet:"implied_prob" json:"implied_prob"`
	Edge         float64  `parquet:"edge" json:"edge"`
	WinOdds      float64  `parquet:"win_odds" json:"win_odds"`
	WonFlag      int32    `parquet:"won_flag" json:"won_flag"`
	Track        string   `parquet:"track,optional" json:"track,omitempty"`
	StateCode    string   `parquet:"state_code,optional" json:"state_code,omitempty"`
	Distance     *float64 `parquet:"distance,optional" json:"distance,omitempty"`
	RacingType   string   `parquet:"racing_type,optional" json:"racing_type,omitempty"`
	RaceType     string   `parquet:"race_type,optional" json:"race_type,omitempty"`
	ContextHash  string   `parquet:"context_hash" json:"context_hash"`
}

// MakeExperienceID derives the bet's deterministic identity.
func MakeExperienceID(strategyID, raceID, runnerID, action string) string {
	key := fmt.Sprintf("%s|%s|%s|%s", strategyID, raceID, runnerID, action)
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:20]
}

// MakeContextHash fingerprints a set of context-column values. The payload is
// encoded canonically (JSON object, keys sorted by the encoder), so the hash
// is invariant to map iteration order and to the order fields were gathered.
func MakeContextHash(context map[string]string) string {
	encoded, err := json.Marshal(context)
	if err != nil {
		// A map[string]string always marshals; keep the signature honest anyway.
		encoded = []byte("{}")
	}
	sum := sha1.Sum(encoded)
	return hex.EncodeToString(sum[:])[:16]
}
