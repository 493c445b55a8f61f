package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.InDelta(t, 0.7, c.ConfidenceThreshold, 0.001)
	assert.Equal(t, 10, c.MaxTurns)
	assert.Zero(t, c.MaxModelCalls)
	assert.Equal(t, 30*time.Second, c.ModelCallTimeout)
	assert.Equal(t, 4, c.MaxParallelFunctions)
	assert.NoError(t, c.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DISPUTEFLOW_CONFIDENCE_THRESHOLD", "0.85")
	t.Setenv("DISPUTEFLOW_MAX_CONVERSATION_TURNS", "5")
	t.Setenv("DISPUTEFLOW_MODEL_CALL_TIMEOUT", "10s")

	c, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.InDelta(t, 0.85, c.ConfidenceThreshold, 0.001)
	assert.Equal(t, 5, c.MaxTurns)
	assert.Equal(t, 10*time.Second, c.ModelCallTimeout)
	assert.Equal(t, 4, c.MaxParallelFunctions, "unset values keep their defaults")
}

func TestConfigFromEnvRejectsInvalidValues(t *testing.T) {
	t.Setenv("DISPUTEFLOW_CONFIDENCE_THRESHOLD", "1.5")

	_, err := ConfigFromEnv()
	assert.ErrorContains(t, err, "confidence threshold")
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	c.MaxTurns = 0
	assert.ErrorContains(t, c.Validate(), "max turns")

	c = DefaultConfig()
	c.MaxModelCalls = -1
	assert.ErrorContains(t, c.Validate(), "max model calls")

	c = DefaultConfig()
	c.ModelCallTimeout = -time.Second
	assert.ErrorContains(t, c.Validate(), "timeout")
}
