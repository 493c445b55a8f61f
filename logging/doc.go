// Package logging provides a minimal logging interface and adapters for disputeflow.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engines and services use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - WorkflowLogger with dispute/session context and domain helpers
//
// Usage:
//
//	logger := logging.NewWorkflowLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.NewPipelineEngine(repo, be, client, func(o *engine.PipelineOptions) {
//		o.Logger = logger
//	})
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
