package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger("not-a-level", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	log := NewLogger("debug", "production")
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok, "expected JSON formatter in production")
}

func TestLoopLoggerStart(t *testing.T) {
	log, buf := setupTestLogger()
	loopLogger := NewLoopLogger(log)

	loopLogger.LogLoopStart("run_001", "data/runner_table.csv", 120, 6)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "run_001", logEntry["run_id"])
	assert.Equal(t, "loop", logEntry["component"])
	assert.Equal(t, float64(120), logEntry["races"])
}

func TestLoopLoggerComplete(t *testing.T) {
	log, buf := setupTestLogger()
	loopLogger := NewLoopLogger(log)

	loopLogger.LogLoopComplete("run_001", 340, "data/experiences/x.parquet", "data/playbook.json", 2500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(340), logEntry["experience_rows"])
	assert.Equal(t, float64(2500), logEntry["duration_ms"])
}

func TestLoopLoggerError(t *testing.T) {
	log, buf := setupTestLogger()
	loopLogger := NewLoopLogger(log)

	loopLogger.LogLoopError("run_002", errors.New("snapshot missing"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "snapshot missing", logEntry["error"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestLoopLoggerOutputIsValidJSON(t *testing.T) {
	log, buf := setupTestLogger()
	loopLogger := NewLoopLogger(log)

	loopLogger.LogStrategyResult("margin_1.05_top1_stake1.00", 40, 12, 3.2)

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}
