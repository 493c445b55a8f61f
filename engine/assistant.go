package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/logging"
	"github.com/disputeflow/disputeflow/model"
	"github.com/disputeflow/disputeflow/prompt"
	"github.com/disputeflow/disputeflow/tool"
)

// AssistantOptions configures the assistant engine.
type AssistantOptions struct {
	// Config holds the shared engine tunables. Zero value means defaults.
	Config Config

	// Logger receives the structured workflow log. Nil discards all output.
	Logger *logging.WorkflowLogger
}

// AssistantEngine lets the model drive the investigation: it exposes the
// capability catalog as callable functions and loops the conversation until
// the model stops requesting calls or the turn bound is reached.
type AssistantEngine struct {
	client   model.Client
	registry *tool.Registry
	executor *tool.Executor
	cfg      Config
	logger   *logging.WorkflowLogger
	now      func() time.Time
}

var _ Engine = (*AssistantEngine)(nil)

// NewAssistantEngine creates an assistant engine over the given model client
// and capability registry.
func NewAssistantEngine(client model.Client, registry *tool.Registry, optFns ...func(o *AssistantOptions)) *AssistantEngine {
	opts := AssistantOptions{
		Config: DefaultConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelError, Output: io.Discard})
	}
	executor := tool.NewExecutor(registry, func(o *tool.ExecutorOptions) {
		o.MaxParallel = opts.Config.MaxParallelFunctions
		o.Logger = logger
	})
	return &AssistantEngine{
		client:   client,
		registry: registry,
		executor: executor,
		cfg:      opts.Config,
		logger:   logger.WithComponent("assistant_engine"),
		now:      time.Now,
	}
}

// ProcessDispute runs the function-calling conversation for one dispute. An
// error return means the request was invalid; conversation failures yield a
// pending error response flagged for manual review.
func (e *AssistantEngine) ProcessDispute(ctx context.Context, req core.DisputeRequest) (*core.DisputeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispute request: %w", err)
	}

	disputeID := core.NewDisputeID(e.now())
	log := e.logger.WithDispute(req.UserID, req.SessionID, disputeID)
	start := e.now()

	log.Info("Starting intelligent dispute processing",
		"customer_id", req.CustomerID,
		"dispute_category", string(req.Category),
		"transaction_amount", req.TransactionAmount,
	)

	p := prompt.Assistant(req)
	messages := []model.Message{{Role: model.RoleUser, Text: p.User}}
	tools := e.registry.Definitions()
	budget := core.NewCallBudget(e.cfg.MaxModelCalls)
	session := tool.Session{UserID: req.UserID, SessionID: req.SessionID, DisputeID: disputeID}

	var calls []core.FunctionCall
	var reasoning string
	turns := 0

	for turns < e.cfg.MaxTurns {
		if err := budget.Increment(); err != nil {
			log.Error("Model call budget exhausted", "error", err.Error())
			return assistantErrorResponse(disputeID, err.Error(), e.step(req, start, calls, reasoning, turns, 0.0), e.now()), nil
		}

		resp, err := e.complete(ctx, model.Request{
			Instructions: p.System,
			Messages:     messages,
			Tools:        tools,
		}, log)
		if err != nil {
			return assistantErrorResponse(disputeID, err.Error(), e.step(req, start, calls, reasoning, turns, 0.0), e.now()), nil
		}
		turns++

		if resp.Text != "" {
			reasoning = resp.Text
		}
		messages = append(messages, model.Message{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			break
		}

		records := e.executor.ExecuteBatch(ctx, resp.ToolCalls, session)
		calls = append(calls, records...)
		for _, record := range records {
			messages = append(messages, model.Message{
				Role:       model.RoleTool,
				Text:       toolResultText(record),
				ToolCallID: record.ID,
			})
		}
	}

	res := extractResolution(calls, reasoning)
	status := resolutionStatus(res.CreditIssued, res.CustomerResponse)

	log.Info("Intelligent dispute processing complete",
		"status", string(status),
		"turns", turns,
		"function_calls", len(calls),
		"confidence", res.Confidence,
	)

	return &core.DisputeResponse{
		DisputeID:               disputeID,
		Status:                  status,
		CustomerResponse:        res.CustomerResponse,
		BackOfficeNotes:         res.BackOfficeNotes,
		TemporaryCreditIssued:   res.CreditIssued,
		TemporaryCreditAmount:   res.CreditAmount,
		EstimatedResolutionDays: res.EstimatedResolutionDays,
		ConfidenceScore:         res.Confidence,
		NextSteps:               res.NextSteps,
		SupportingEvidence:      res.SupportingEvidence,
		Steps:                   e.step(req, start, calls, reasoning, turns, res.Confidence),
		TotalFunctionCalls:      len(calls),
		Reasoning:               reasoning,
	}, nil
}

func (e *AssistantEngine) complete(ctx context.Context, req model.Request, log *logging.WorkflowLogger) (*model.Response, error) {
	if e.cfg.ModelCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ModelCallTimeout)
		defer cancel()
	}
	start := e.now()
	resp, err := e.client.Complete(ctx, req)
	log.LogModelCall(e.client.Info().Name, e.now().Sub(start), err == nil, err)
	return resp, err
}

// step wraps the whole conversation in a single processing step so the
// response shape matches the pipeline engine's.
func (e *AssistantEngine) step(req core.DisputeRequest, start time.Time, calls []core.FunctionCall, reasoning string, turns int, confidence float64) []core.AgentStep {
	end := e.now()
	return []core.AgentStep{{
		Name:      "intelligent_dispute_processing",
		Status:    "completed",
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Inputs: map[string]any{
			"dispute_category":   string(req.Category),
			"transaction_amount": req.TransactionAmount,
		},
		Outputs: map[string]any{
			"function_calls": len(calls),
			"turns":          turns,
		},
		Confidence: confidence,
		Reasoning:  reasoning,
	}}
}

// toolResultText renders a function call record for the model. Invocation
// failures go back as plain error text so the model can adjust its approach.
func toolResultText(record core.FunctionCall) string {
	if record.Error != "" {
		return "Error: " + record.Error
	}
	b, err := json.Marshal(record.Result)
	if err != nil {
		return "Error: " + err.Error()
	}
	return string(b)
}
