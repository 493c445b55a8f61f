package engine

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries the tunables shared by both engines. Values load from the
// environment with the DISPUTEFLOW_ prefix, e.g.
// DISPUTEFLOW_CONFIDENCE_THRESHOLD=0.8.
type Config struct {
	// ConfidenceThreshold is the critique score below which the analysis is
	// flagged as needing improvement.
	ConfidenceThreshold float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"0.7"`

	// MaxTurns bounds the assistant engine's conversation: at most this many
	// model completions happen per dispute.
	MaxTurns int `envconfig:"MAX_CONVERSATION_TURNS" default:"10"`

	// MaxModelCalls caps model calls per request across both engines.
	// Zero means unlimited.
	MaxModelCalls int `envconfig:"MAX_MODEL_CALLS" default:"0"`

	// ModelCallTimeout bounds each individual model call.
	ModelCallTimeout time.Duration `envconfig:"MODEL_CALL_TIMEOUT" default:"30s"`

	// MaxParallelFunctions bounds concurrent tool executions per batch.
	MaxParallelFunctions int `envconfig:"MAX_PARALLEL_FUNCTIONS" default:"4"`

	// HistoryLimit caps how many card transactions are handed to the model
	// during the retrieve stage.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"10"`
}

// DefaultConfig returns the built-in defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:  0.7,
		MaxTurns:             10,
		ModelCallTimeout:     30 * time.Second,
		MaxParallelFunctions: 4,
		HistoryLimit:         10,
	}
}

// ConfigFromEnv loads the configuration from DISPUTEFLOW_* environment
// variables, falling back to the declared defaults.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("disputeflow", &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be between 0 and 1, got %v", c.ConfidenceThreshold)
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	if c.MaxModelCalls < 0 {
		return fmt.Errorf("max model calls must not be negative, got %d", c.MaxModelCalls)
	}
	if c.ModelCallTimeout < 0 {
		return fmt.Errorf("model call timeout must not be negative, got %v", c.ModelCallTimeout)
	}
	return nil
}
