// Package logger provides loop-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LoopLogger provides dedicated logging for evaluation loop runs.
type LoopLogger struct {
	*logrus.Entry
}

// NewLoopLogger creates a new loop logger.
func NewLoopLogger(baseLogger *logrus.Logger) *LoopLogger {
	return &LoopLogger{
		Entry: baseLogger.WithField("component", "loop"),
	}
}

// LogLoopStart logs the beginning of an evaluation loop run.
func (ll *LoopLogger) LogLoopStart(runID, source string, races, strategies int) {
	ll.WithFields(logrus.Fields{
		"run_id":     runID,
		"source":     source,
		"races":      races,
		"strategies": strategies,
	}).Info("Evaluation loop started")
}

// LogLoopComplete logs a finished evaluation loop run.
func (ll *LoopLogger) LogLoopComplete(runID string, experienceRows int, experiencePath, playbookPath string, duration time.Duration) {
	ll.WithFields(logrus.Fields{
		"run_id":          runID,
		"experience_rows": experienceRows,
		"experience_path": experiencePath,
		"playbook_path":   playbookPath,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Evaluation loop completed")
}

// LogStrategyResult logs one strategy's evaluation summary.
func (ll *LoopLogger) LogStrategyResult(strategyID string, bets, wins int, potPct float64) {
	ll.WithFields(logrus.Fields{
		"strategy_id": strategyID,
		"bets":        bets,
		"wins":        wins,
		"pot_pct":     potPct,
	}).Debug("Strategy evaluated")
}

// LogLoopError logs a failed evaluation loop run.
func (ll *LoopLogger) LogLoopError(runID string, err error) {
	ll.WithFields(logrus.Fields{
		"run_id": runID,
		"error":  err.Error(),
	}).Error("Evaluation loop failed")
}
