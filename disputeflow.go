// Package disputeflow provides a high-level façade over the dispute
// processing engines and their collaborators (data repository, banking
// backend, language model client & logging). Most applications interact
// with this package by:
//  1. Creating a DisputeFlow via New() with a model client (optionally
//     overriding the default in-memory repository and mock backend)
//  2. Picking an engine: Pipeline() for the fixed eight stage workflow or
//     Assistant() for model-driven function calling
//  3. Passing core.DisputeRequest values to ProcessDispute
//
// The façade delegates orchestration to the engine package while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments supply a CSV-backed repository, a real
// backend integration and a structured logger.
package disputeflow

import (
	"context"

	"github.com/disputeflow/disputeflow/backend"
	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/engine"
	"github.com/disputeflow/disputeflow/logging"
	"github.com/disputeflow/disputeflow/model"
	"github.com/disputeflow/disputeflow/repository"
	"github.com/disputeflow/disputeflow/tool"
)

// Options configures the DisputeFlow instance.
type Options struct {
	// Config holds the engine tunables (confidence threshold, turn bound,
	// model call budget and timeout). Defaults to engine.DefaultConfig().
	Config engine.Config

	// Repository is the read-only dispute data source. Defaults to an empty
	// in-memory repository; load one from CSV files via repository.Load.
	Repository repository.Repository

	// Backend is the boundary to the bank's operational systems. Defaults to
	// the mock backend with its standard latency and success rates.
	Backend backend.Backend

	// Logger receives the structured workflow log. Nil discards all output.
	Logger *logging.WorkflowLogger
}

// DisputeFlow aggregates the two engines over one shared set of
// collaborators.
type DisputeFlow struct {
	opts      Options
	registry  *tool.Registry
	pipeline  *engine.PipelineEngine
	assistant *engine.AssistantEngine
}

// New creates a DisputeFlow over the given model client with optional
// overrides. Any unset collaborator is initialized with a local
// implementation.
func New(client model.Client, optFns ...func(o *Options)) *DisputeFlow {
	opts := Options{
		Config:     engine.DefaultConfig(),
		Repository: repository.NewInMemory(repository.Tables{}),
		Backend:    backend.NewMock(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewCatalog(opts.Repository, opts.Backend)

	pipeline := engine.NewPipelineEngine(client, opts.Repository, opts.Backend, func(o *engine.PipelineOptions) {
		o.Config = opts.Config
		o.Logger = opts.Logger
	})
	assistant := engine.NewAssistantEngine(client, registry, func(o *engine.AssistantOptions) {
		o.Config = opts.Config
		o.Logger = opts.Logger
	})

	return &DisputeFlow{
		opts:      opts,
		registry:  registry,
		pipeline:  pipeline,
		assistant: assistant,
	}
}

// Pipeline returns the fixed-workflow engine.
func (d *DisputeFlow) Pipeline() *engine.PipelineEngine { return d.pipeline }

// Assistant returns the function-calling engine.
func (d *DisputeFlow) Assistant() *engine.AssistantEngine { return d.assistant }

// Registry returns the capability catalog shared with the assistant engine.
func (d *DisputeFlow) Registry() *tool.Registry { return d.registry }

// ProcessDispute runs a dispute through the pipeline engine. It is the
// conservative default: fixed stage order, model used for enrichment only.
func (d *DisputeFlow) ProcessDispute(ctx context.Context, req core.DisputeRequest) (*core.DisputeResponse, error) {
	return d.pipeline.ProcessDispute(ctx, req)
}

// ProcessDisputeIntelligently runs a dispute through the assistant engine,
// letting the model choose which functions to call.
func (d *DisputeFlow) ProcessDisputeIntelligently(ctx context.Context, req core.DisputeRequest) (*core.DisputeResponse, error) {
	return d.assistant.ProcessDispute(ctx, req)
}
