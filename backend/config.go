package backend

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds the mock backend tunables that can come from the
// environment with the DISPUTEFLOW_ prefix, e.g. DISPUTEFLOW_MOCK_API_DELAY=200ms.
type EnvConfig struct {
	Latency                 time.Duration `envconfig:"MOCK_API_DELAY" default:"1500ms"`
	FilingSuccessRate       float64       `envconfig:"FILING_SUCCESS_RATE" default:"0.85"`
	CreditSuccessRate       float64       `envconfig:"CREDIT_SUCCESS_RATE" default:"0.95"`
	NotificationSuccessRate float64       `envconfig:"NOTIFICATION_SUCCESS_RATE" default:"0.98"`
}

// Validate checks the configuration for out-of-range values.
func (c EnvConfig) Validate() error {
	if c.Latency < 0 {
		return fmt.Errorf("mock api delay must not be negative, got %v", c.Latency)
	}
	for _, rate := range []struct {
		name  string
		value float64
	}{
		{"filing", c.FilingSuccessRate},
		{"credit", c.CreditSuccessRate},
		{"notification", c.NotificationSuccessRate},
	} {
		if rate.value < 0 || rate.value > 1 {
			return fmt.Errorf("%s success rate must be between 0 and 1, got %v", rate.name, rate.value)
		}
	}
	return nil
}

// OptionsFromEnv loads the mock tunables from the environment and returns an
// option applying them, for use with NewMock.
func OptionsFromEnv() (func(o *Options), error) {
	var c EnvConfig
	if err := envconfig.Process("disputeflow", &c); err != nil {
		return nil, fmt.Errorf("load backend config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return func(o *Options) {
		o.Latency = c.Latency
		o.FilingSuccessRate = c.FilingSuccessRate
		o.CreditSuccessRate = c.CreditSuccessRate
		o.NotificationSuccessRate = c.NotificationSuccessRate
	}, nil
}
