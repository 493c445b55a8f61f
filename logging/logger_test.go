package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(level LogLevel) (*WorkflowLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestWithDisputeAttachesContext(t *testing.T) {
	l, buf := captureLogger(LogLevelInfo)

	l.WithComponent("engine").
		WithDispute("user-1", "session-1", "DSP123").
		Info("Stage started", "stage", "plan")

	entry := lastEntry(t, buf)
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "session-1", entry["session_id"])
	assert.Equal(t, "DSP123", entry["dispute_id"])
	assert.Equal(t, "plan", entry["stage"])
}

func TestWithDisputeDoesNotMutateParent(t *testing.T) {
	l, buf := captureLogger(LogLevelInfo)
	l.WithDispute("user-1", "session-1", "DSP123")

	l.Info("no context expected")

	entry := lastEntry(t, buf)
	assert.NotContains(t, entry, "dispute_id")
}

func TestLevelFiltering(t *testing.T) {
	l, buf := captureLogger(LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("visible")

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestLogStage(t *testing.T) {
	l, buf := captureLogger(LogLevelInfo)

	l.LogStage("retrieve", 120*time.Millisecond, 0.95, nil)

	entry := lastEntry(t, buf)
	assert.Equal(t, "Stage completed", entry["msg"])
	assert.Equal(t, "retrieve", entry["stage"])
	assert.InDelta(t, 120, entry["duration_ms"].(float64), 0.001)
	assert.InDelta(t, 0.95, entry["confidence"].(float64), 0.001)
}

func TestLogLaneFailure(t *testing.T) {
	l, buf := captureLogger(LogLevelInfo)

	l.LogLane("merchant_risk", 50*time.Millisecond, false, nil)

	entry := lastEntry(t, buf)
	assert.Equal(t, "Lane failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, false, entry["success"])
}

func TestSlogAdapterSatisfiesLogger(t *testing.T) {
	var _ Logger = NewDefaultSlogLogger()
	var _ Logger = NoOpLogger{}
	var _ Logger = &WorkflowLogger{}
}
