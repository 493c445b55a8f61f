package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/logging"
	"github.com/disputeflow/disputeflow/model"
)

// ExecutorOptions configure the parallel batch executor.
type ExecutorOptions struct {
	// MaxParallel bounds concurrent tool executions. 0 or less means no
	// explicit limit beyond the batch size.
	MaxParallel int
	Logger      logging.Logger
}

// Executor runs a batch of model-requested function calls, possibly in
// parallel, and produces exactly one core.FunctionCall record per request.
// Results are returned in the original request order regardless of
// completion order. Panics inside a tool are recovered and reported as the
// call's Error.
type Executor struct {
	*core.LoggerAdapter

	registry    *Registry
	maxParallel int
}

// NewExecutor constructs an executor over the given registry.
func NewExecutor(registry *Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		registry:      registry,
		maxParallel:   opts.MaxParallel,
	}
}

// ExecuteBatch runs every requested call and returns one record per call, in
// request order. A record's Error is set when the call never reached its
// handler (unknown function, malformed arguments, panic); handler-level
// failures land in the result envelope instead.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []model.ToolCall, session Session) []core.FunctionCall {
	n := len(calls)
	if n == 0 {
		return nil
	}

	// Fast path: single call, execute inline.
	if n == 1 {
		return []core.FunctionCall{e.executeOne(ctx, calls[0], session)}
	}

	maxPar := e.maxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.FunctionCall, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call model.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.executeOne(ctx, call, session)
		}(i, calls[i])
	}
	wg.Wait()

	e.LogDebug("tool.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

func (e *Executor) executeOne(ctx context.Context, call model.ToolCall, session Session) core.FunctionCall {
	record := core.FunctionCall{
		ID:   call.ID,
		Name: call.Name,
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		record.Error = err.Error()
		e.LogWarn("tool.call.bad_arguments", "function", call.Name, "function_call_id", call.ID, "error", err.Error())
		return record
	}
	record.Arguments = args

	if err := ctx.Err(); err != nil {
		record.Error = err.Error()
		return record
	}

	tctx := NewContext(ctx, call.ID, func(o *ContextOptions) {
		o.Session = session
		o.Logger = e.Logger()
	})

	start := time.Now()
	var (
		result  map[string]any
		execErr error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("panic in %s: %v", call.Name, r)
				e.LogError("tool.call.panic", "function", call.Name, "recover", r, "stack", string(debug.Stack()))
			}
		}()
		result, execErr = e.registry.Execute(tctx, call.Name, args)
	}()
	record.ExecutionTime = time.Since(start)

	if execErr != nil {
		record.Error = execErr.Error()
	} else {
		record.Result = result
	}

	e.LogInfo("tool.call.executed",
		"function", call.Name,
		"function_call_id", call.ID,
		"duration_ms", record.ExecutionTime.Milliseconds(),
		"error", record.Error != "",
	)

	return record
}

func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return args, nil
}
