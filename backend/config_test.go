package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromEnvDefaults(t *testing.T) {
	apply, err := OptionsFromEnv()
	require.NoError(t, err)

	var o Options
	apply(&o)

	assert.Equal(t, 1500*time.Millisecond, o.Latency)
	assert.InDelta(t, 0.85, o.FilingSuccessRate, 0.001)
	assert.InDelta(t, 0.95, o.CreditSuccessRate, 0.001)
	assert.InDelta(t, 0.98, o.NotificationSuccessRate, 0.001)
}

func TestOptionsFromEnvOverrides(t *testing.T) {
	t.Setenv("DISPUTEFLOW_MOCK_API_DELAY", "10ms")
	t.Setenv("DISPUTEFLOW_FILING_SUCCESS_RATE", "1.0")

	apply, err := OptionsFromEnv()
	require.NoError(t, err)

	var o Options
	apply(&o)

	assert.Equal(t, 10*time.Millisecond, o.Latency)
	assert.InDelta(t, 1.0, o.FilingSuccessRate, 0.001)
	assert.InDelta(t, 0.95, o.CreditSuccessRate, 0.001, "unset values keep their defaults")
}

func TestOptionsFromEnvRejectsInvalidRate(t *testing.T) {
	t.Setenv("DISPUTEFLOW_CREDIT_SUCCESS_RATE", "1.5")

	_, err := OptionsFromEnv()
	assert.ErrorContains(t, err, "credit success rate")
}
