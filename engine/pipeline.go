package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/disputeflow/disputeflow/backend"
	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/logging"
	"github.com/disputeflow/disputeflow/model"
	"github.com/disputeflow/disputeflow/prompt"
	"github.com/disputeflow/disputeflow/repository"
)

// PipelineOptions configures the pipeline engine.
type PipelineOptions struct {
	// Config holds the shared engine tunables. Zero value means defaults.
	Config Config

	// Logger receives the structured workflow log. Nil discards all output.
	Logger *logging.WorkflowLogger
}

// PipelineEngine runs the fixed eight stage dispute workflow:
// plan, retrieve, fork, synthesize, generate, act, critique, finalize.
type PipelineEngine struct {
	client model.Client
	repo   repository.Repository
	be     backend.Backend
	cfg    Config
	logger *logging.WorkflowLogger
	now    func() time.Time
}

var _ Engine = (*PipelineEngine)(nil)

// NewPipelineEngine creates a pipeline engine over the given model client,
// data repository and bank backend.
func NewPipelineEngine(client model.Client, repo repository.Repository, be backend.Backend, optFns ...func(o *PipelineOptions)) *PipelineEngine {
	opts := PipelineOptions{
		Config: DefaultConfig(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelError, Output: io.Discard})
	}
	return &PipelineEngine{
		client: client,
		repo:   repo,
		be:     be,
		cfg:    opts.Config,
		logger: logger.WithComponent("pipeline_engine"),
		now:    time.Now,
	}
}

// ProcessDispute runs the full workflow for one dispute. An error return
// means the request was invalid; every runtime failure yields a pending
// error response carrying the steps completed so far.
func (e *PipelineEngine) ProcessDispute(ctx context.Context, req core.DisputeRequest) (*core.DisputeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dispute request: %w", err)
	}

	r := &pipelineRun{
		e:      e,
		req:    req,
		log:    e.logger.WithDispute(req.UserID, req.SessionID, ""),
		budget: core.NewCallBudget(e.cfg.MaxModelCalls),
	}

	r.log.Info("Starting dispute processing",
		"customer_id", req.CustomerID,
		"dispute_category", string(req.Category),
		"transaction_amount", req.TransactionAmount,
	)

	resp, err := r.run(ctx)
	if err != nil {
		r.log.Error("Dispute processing failed", "error", err.Error())
		return pipelineErrorResponse(r.steps, err.Error(), e.now()), nil
	}
	return resp, nil
}

// pipelineRun carries the per-request state: the step accumulator, the model
// call budget and the request-scoped logger. One run serves exactly one
// request and is never reused.
type pipelineRun struct {
	e      *PipelineEngine
	req    core.DisputeRequest
	log    *logging.WorkflowLogger
	budget *core.CallBudget
	steps  []core.AgentStep
}

func (r *pipelineRun) run(ctx context.Context) (*core.DisputeResponse, error) {
	r.plan(ctx)

	retrieved, err := r.retrieve(ctx)
	if err != nil {
		return nil, err
	}

	lanes := r.forkLanes(ctx)

	assessment := r.synthesize(ctx, lanes)
	r.generate(ctx, assessment)

	action, err := r.act(ctx, retrieved)
	if err != nil {
		return nil, err
	}

	critique := r.critique(ctx, action)

	return r.finalize(action, critique, lanes), nil
}

// analyze performs one model call for a stage and parses the result. Model
// failures never abort the run: they fold into the returned analysis so the
// remaining stages can still complete.
func (r *pipelineRun) analyze(ctx context.Context, p prompt.Prompt) map[string]any {
	if err := r.budget.Increment(); err != nil {
		return map[string]any{"error": err.Error(), "confidence": 0.0}
	}

	if r.e.cfg.ModelCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.e.cfg.ModelCallTimeout)
		defer cancel()
	}

	start := r.e.now()
	resp, err := r.e.client.Complete(ctx, model.Request{
		Instructions: p.System,
		Messages:     []model.Message{{Role: model.RoleUser, Text: p.User}},
	})
	r.log.LogModelCall(r.e.client.Info().Name, r.e.now().Sub(start), err == nil, err)
	if err != nil {
		return map[string]any{"error": err.Error(), "confidence": 0.0}
	}
	return parseAnalysis(resp.Text)
}

// parseAnalysis decodes a model reply. Stage prompts ask for JSON but the
// model is free to answer in prose, which is kept as plain analysis text.
func parseAnalysis(text string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err == nil && m != nil {
		return m
	}
	return map[string]any{"analysis": text, "confidence": 0.8}
}

func (r *pipelineRun) record(name string, start time.Time, inputs, outputs map[string]any, confidence float64, reasoning string) {
	end := r.e.now()
	r.steps = append(r.steps, core.AgentStep{
		Name:       name,
		Status:     "completed",
		StartTime:  start,
		EndTime:    end,
		Duration:   end.Sub(start),
		Inputs:     inputs,
		Outputs:    outputs,
		Confidence: confidence,
		Reasoning:  reasoning,
	})
	r.log.LogStage(name, end.Sub(start), confidence, nil)
}

func (r *pipelineRun) plan(ctx context.Context) {
	start := r.e.now()
	analysis := r.analyze(ctx, prompt.Plan(r.req))

	r.record("plan", start,
		map[string]any{"customer_id": r.req.CustomerID, "dispute_category": string(r.req.Category)},
		analysis,
		confidenceFrom(analysis, 0.8),
		stringFrom(analysis, "reasoning", "Analysis plan created"),
	)
}

// retrieved holds the data pulled during the retrieve stage that later
// stages need again.
type retrieved struct {
	Transaction  *repository.Transaction
	Transactions []repository.Transaction
	Policies     []repository.DisputePolicy
}

func (r *pipelineRun) retrieve(ctx context.Context) (*retrieved, error) {
	start := r.e.now()

	tx, err := r.e.repo.FindTransaction(ctx, r.req.CardLastFour, r.req.TransactionAmount, r.req.MerchantName)
	if err != nil {
		return nil, fmt.Errorf("retrieve transaction: %w", err)
	}
	txs, err := r.e.repo.TransactionsByCard(ctx, r.req.CardLastFour)
	if err != nil {
		return nil, fmt.Errorf("retrieve card history: %w", err)
	}
	policies, err := r.e.repo.Policies(ctx, string(r.req.Category), r.req.TransactionAmount)
	if err != nil {
		return nil, fmt.Errorf("retrieve policies: %w", err)
	}

	history := txs
	if limit := r.e.cfg.HistoryLimit; limit > 0 && len(history) > limit {
		history = history[:limit]
	}

	data := map[string]any{
		"matched_transaction":   tx,
		"customer_transactions": history,
		"applicable_policies":   policies,
		"transactions_count":    len(txs),
	}
	analysis := r.analyze(ctx, prompt.Retrieve(r.req, data))
	data["ai_analysis"] = analysis

	confidence := 0.5
	if tx != nil {
		confidence = 1.0
	}
	r.record("retrieve", start,
		map[string]any{"data_sources": []string{"transactions", "policies"}},
		data,
		confidence,
		fmt.Sprintf("Found %d transactions, matched: %t", len(txs), tx != nil),
	)

	return &retrieved{Transaction: tx, Transactions: txs, Policies: policies}, nil
}

func (r *pipelineRun) synthesize(ctx context.Context, lanes []core.LaneResult) map[string]any {
	start := r.e.now()
	successful := 0
	for _, l := range lanes {
		if l.Status == core.LaneStatusCompleted {
			successful++
		}
	}

	synthesis := r.analyze(ctx, prompt.Synthesize(r.req, lanes))
	confidence := overallConfidence(lanes)

	r.record("synthesize", start,
		map[string]any{"lane_count": len(lanes), "successful_lanes": successful},
		synthesis,
		confidence,
		fmt.Sprintf("Synthesized %d/%d successful lanes", successful, len(lanes)),
	)

	return map[string]any{
		"synthesis":          synthesis,
		"overall_confidence": confidence,
		"lane_results":       lanes,
		"successful_lanes":   successful,
	}
}

func (r *pipelineRun) generate(ctx context.Context, assessment map[string]any) {
	start := r.e.now()
	generation := r.analyze(ctx, prompt.Generate(r.req, assessment))

	confidence, _ := assessment["overall_confidence"].(float64)
	r.record("generate", start,
		map[string]any{"assessment": assessment},
		generation,
		confidence,
		"Generated customer and back-office communications",
	)
}

func (r *pipelineRun) act(ctx context.Context, data *retrieved) (actionOutcome, error) {
	start := r.e.now()

	disputeID := core.NewDisputeID(r.e.now())
	r.log = r.log.WithDispute(r.req.UserID, r.req.SessionID, disputeID)

	account := "****" + r.req.CardLastFour
	status, err := r.e.be.CheckAccountStatus(ctx, r.req.CustomerID, account)
	if err != nil {
		return actionOutcome{}, fmt.Errorf("check account status: %w", err)
	}
	eligibility := core.AssessEligibility(
		r.req.TransactionAmount,
		status.AccountStatus,
		status.PendingDisputes,
		status.DisputeEligible,
	)

	outcome := actionOutcome{DisputeID: disputeID, Eligibility: eligibility}

	if eligibility.Eligible {
		filing, err := r.e.be.FileDispute(ctx, backend.FilingRequest{
			CustomerID:    r.req.CustomerID,
			CardLastFour:  r.req.CardLastFour,
			Amount:        r.req.TransactionAmount,
			MerchantName:  r.req.MerchantName,
			DisputeReason: r.req.DisputeReason,
			Category:      string(r.req.Category),
		})
		if err != nil {
			return actionOutcome{}, fmt.Errorf("file dispute: %w", err)
		}
		outcome.Filing = filing

		if amount := core.TemporaryCreditAmount(r.req.TransactionAmount, r.req.Category); amount > 0 {
			credit, err := r.e.be.IssueTemporaryCredit(ctx, backend.CreditRequest{
				CustomerID:    r.req.CustomerID,
				Amount:        amount,
				DisputeID:     disputeID,
				AccountNumber: account,
			})
			if err != nil {
				return actionOutcome{}, fmt.Errorf("issue temporary credit: %w", err)
			}
			outcome.Credit = credit
		}
	}

	confidence := 0.3
	if eligibility.Eligible {
		confidence = 0.9
	}
	r.record("act", start,
		map[string]any{"dispute_id": disputeID, "eligible": eligibility.Eligible},
		map[string]any{
			"eligibility":       eligibility,
			"dispute_filing":    outcome.Filing,
			"temporary_credit":  outcome.Credit,
			"transaction_found": data.Transaction != nil,
		},
		confidence,
		"Dispute actions executed based on eligibility",
	)

	return outcome, nil
}

func (r *pipelineRun) critique(ctx context.Context, action actionOutcome) map[string]any {
	start := r.e.now()

	critique := r.analyze(ctx, prompt.Critique(r.req, map[string]any{
		"processing_steps": r.steps,
		"action_results":   action,
	}))

	confidence := confidenceFrom(critique, 0.8)
	needsReprocessing := confidence < r.e.cfg.ConfidenceThreshold
	if needsReprocessing {
		r.log.Warn("Critique flagged analysis for improvement",
			"confidence", confidence,
			"threshold", r.e.cfg.ConfidenceThreshold,
		)
	}

	reasoning := "Quality check: acceptable"
	if needsReprocessing {
		reasoning = "Quality check: needs improvement"
	}
	r.record("critique", start,
		map[string]any{"steps_analyzed": len(r.steps)},
		critique,
		confidence,
		reasoning,
	)

	return critique
}

func (r *pipelineRun) finalize(action actionOutcome, critique map[string]any, lanes []core.LaneResult) *core.DisputeResponse {
	start := r.e.now()

	status := finalStatus(action)
	confidence := confidenceFrom(critique, 0.5)
	creditIssued := action.creditIssued()

	r.record("finalize", start,
		map[string]any{"critique_confidence": confidence},
		map[string]any{"status": string(status), "dispute_id": action.DisputeID},
		confidence,
		"Final dispute response created",
	)

	return &core.DisputeResponse{
		DisputeID:               action.DisputeID,
		Status:                  status,
		CustomerResponse:        customerLetter(action),
		BackOfficeNotes:         backOfficeNotes(r.steps, lanes),
		TemporaryCreditIssued:   creditIssued,
		TemporaryCreditAmount:   action.creditAmount(),
		EstimatedResolutionDays: 10,
		ConfidenceScore:         confidence,
		NextSteps:               nextSteps(status, creditIssued),
		SupportingEvidence:      supportingEvidence(lanes),
		Steps:                   r.steps,
	}
}

func confidenceFrom(m map[string]any, def float64) float64 {
	if v, ok := m["confidence"].(float64); ok {
		return v
	}
	return def
}

func stringFrom(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}
