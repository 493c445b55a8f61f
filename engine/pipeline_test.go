package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/disputeflow/disputeflow/backend"
	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/model"
	"github.com/disputeflow/disputeflow/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo() repository.Repository {
	return repository.NewInMemory(repository.Tables{
		Transactions: []repository.Transaction{
			{TransactionID: "TXN001", CustomerID: "CUST001", CardLastFour: "1234", MerchantName: "TechStore Online", Amount: 250.00},
			{TransactionID: "TXN002", CustomerID: "CUST001", CardLastFour: "1234", MerchantName: "Grocery Mart", Amount: 42.17},
		},
		PastDisputes: []repository.PastDispute{
			{DisputeID: "DSP001", CustomerID: "CUST001", MerchantName: "TechStore Online", DisputeCategory: "Fraud", Resolution: "Approved"},
			{DisputeID: "DSP002", CustomerID: "CUST001", MerchantName: "TechStore Online", DisputeCategory: "Billing Error", Resolution: "Denied"},
		},
		MerchantRisk: []repository.MerchantRisk{
			{MerchantName: "TechStore Online", RiskScore: 8.1},
		},
		NetworkRules: []repository.NetworkRule{
			{RuleID: "VR001", RuleType: "Fraud", SuccessRate: 85.0},
		},
		Policies: []repository.DisputePolicy{
			{PolicyID: "POL001", Category: "Fraud", MaxAmount: 5000.00},
		},
	})
}

// stubBackend gives tests full control over eligibility and action outcomes.
type stubBackend struct {
	status    *backend.AccountStatus
	statusErr error
	filing    *backend.FilingResult
	filingErr error
	credit    *backend.CreditResult
	creditErr error

	filingCalls int
	creditCalls int
}

func (s *stubBackend) CheckAccountStatus(ctx context.Context, customerID, accountNumber string) (*backend.AccountStatus, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.status, nil
}

func (s *stubBackend) FileDispute(ctx context.Context, req backend.FilingRequest) (*backend.FilingResult, error) {
	s.filingCalls++
	if s.filingErr != nil {
		return nil, s.filingErr
	}
	return s.filing, nil
}

func (s *stubBackend) IssueTemporaryCredit(ctx context.Context, req backend.CreditRequest) (*backend.CreditResult, error) {
	s.creditCalls++
	if s.creditErr != nil {
		return nil, s.creditErr
	}
	if s.credit != nil {
		return s.credit, nil
	}
	return &backend.CreditResult{Success: true, Amount: req.Amount}, nil
}

func (s *stubBackend) NotifyCustomer(ctx context.Context, n backend.Notification) (*backend.NotificationResult, error) {
	return &backend.NotificationResult{Success: true}, nil
}

func (s *stubBackend) UpdateCase(ctx context.Context, u backend.CaseUpdate) (*backend.CaseResult, error) {
	return &backend.CaseResult{Success: true}, nil
}

func eligibleBackend() *stubBackend {
	return &stubBackend{
		status: &backend.AccountStatus{
			CustomerID:      "CUST001",
			AccountStatus:   "Active",
			PendingDisputes: 0,
			DisputeEligible: true,
			CreditEligible:  true,
		},
		filing: &backend.FilingResult{Success: true, ReferenceNumber: "REF12345678"},
	}
}

// failingClient simulates a model outage on every call.
type failingClient struct{}

func (failingClient) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	return nil, fmt.Errorf("model unavailable")
}

func (failingClient) Info() model.Info { return model.Info{Name: "failing", Provider: "test"} }

func pipelineRequest() core.DisputeRequest {
	return core.DisputeRequest{
		CustomerID:        "CUST001",
		CardLastFour:      "1234",
		TransactionAmount: 250.00,
		MerchantName:      "TechStore Online",
		DisputeReason:     "I did not make this purchase",
		Category:          core.CategoryFraud,
		UserID:            "user-1",
		SessionID:         "session-1",
	}
}

func scriptedClient() *model.ScriptedClient {
	c := model.NewScriptedClient()
	c.SetFallback(`{"analysis": "ok", "confidence": 0.9}`)
	return c
}

func TestPipelineProcessDispute(t *testing.T) {
	client := scriptedClient()
	be := eligibleBackend()
	e := NewPipelineEngine(client, testRepo(), be)

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, core.StatusFiled, resp.Status)
	assert.True(t, strings.HasPrefix(resp.DisputeID, "DSP"))
	assert.True(t, resp.TemporaryCreditIssued)
	assert.InDelta(t, 250.00, resp.TemporaryCreditAmount, 0.001, "fraud disputes credit the full amount")
	assert.Equal(t, 10, resp.EstimatedResolutionDays)
	assert.InDelta(t, 0.9, resp.ConfidenceScore, 0.001)
	assert.Contains(t, resp.CustomerResponse, "Reference: "+resp.DisputeID)

	names := make([]string, 0, len(resp.Steps))
	for _, s := range resp.Steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"plan", "retrieve", "synthesize", "generate", "act", "critique", "finalize"}, names)

	// One call per stage plus one per lane.
	assert.Len(t, client.Requests(), 8)
	assert.Equal(t, 1, be.filingCalls)
	assert.Equal(t, 1, be.creditCalls)

	assert.Contains(t, resp.SupportingEvidence, "Historical dispute patterns analyzed")
	assert.Contains(t, resp.SupportingEvidence, "Merchant risk assessment completed")
	assert.Contains(t, resp.SupportingEvidence, "Network compliance verified")
}

func TestPipelineInvalidRequest(t *testing.T) {
	e := NewPipelineEngine(scriptedClient(), testRepo(), eligibleBackend())

	req := pipelineRequest()
	req.CustomerID = ""

	resp, err := e.ProcessDispute(context.Background(), req)
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "customer_id is required")
}

func TestPipelineDeniedWhenIneligible(t *testing.T) {
	be := eligibleBackend()
	be.status.AccountStatus = "Frozen"
	be.status.DisputeEligible = false
	e := NewPipelineEngine(scriptedClient(), testRepo(), be)

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, core.StatusDenied, resp.Status)
	assert.False(t, resp.TemporaryCreditIssued)
	assert.Zero(t, be.filingCalls, "ineligible disputes are never filed")
	assert.Contains(t, resp.CustomerResponse, "unable to process a dispute at this time")
	assert.Equal(t, "Document denial reason for customer", resp.NextSteps[0])
}

func TestPipelinePendingWhenFilingFails(t *testing.T) {
	be := eligibleBackend()
	be.filing = &backend.FilingResult{Success: false, ErrorCode: "FILING_ERROR"}
	e := NewPipelineEngine(scriptedClient(), testRepo(), be)

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, core.StatusPending, resp.Status)
	assert.Contains(t, resp.CustomerResponse, "Due to high volume")
	assert.Equal(t, "Retry dispute filing in 4 hours", resp.NextSteps[0])
}

func TestPipelineModelOutageDoesNotAbort(t *testing.T) {
	be := eligibleBackend()
	e := NewPipelineEngine(failingClient{}, testRepo(), be)

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, core.StatusFiled, resp.Status, "actions proceed even when model analysis is unavailable")
	assert.Zero(t, resp.ConfidenceScore, "critique confidence collapses without the model")
	assert.Equal(t, 1, be.filingCalls)
}

func TestPipelineBackendFailureYieldsErrorResponse(t *testing.T) {
	be := eligibleBackend()
	be.statusErr = fmt.Errorf("core banking unreachable")
	e := NewPipelineEngine(scriptedClient(), testRepo(), be)

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, "ERROR", resp.DisputeID)
	assert.Equal(t, core.StatusPending, resp.Status)
	assert.Contains(t, resp.BackOfficeNotes["error"], "core banking unreachable")
	assert.NotEmpty(t, resp.Steps, "steps completed before the failure are preserved")
}

type failingRiskRepo struct {
	repository.Repository
}

func (failingRiskRepo) MerchantRisk(ctx context.Context, merchantName string) (*repository.MerchantRisk, error) {
	return nil, fmt.Errorf("risk store down")
}

func TestPipelineLaneFailureIsIsolated(t *testing.T) {
	e := NewPipelineEngine(scriptedClient(), failingRiskRepo{testRepo()}, eligibleBackend())

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, core.StatusFiled, resp.Status, "one failed lane does not sink the run")
	assert.NotContains(t, resp.SupportingEvidence, "Merchant risk assessment completed")
	assert.Contains(t, resp.SupportingEvidence, "Historical dispute patterns analyzed")
}

func TestPipelineModelCallBudget(t *testing.T) {
	client := scriptedClient()
	e := NewPipelineEngine(client, testRepo(), eligibleBackend(), func(o *PipelineOptions) {
		o.Config.MaxModelCalls = 2
	})

	resp, err := e.ProcessDispute(context.Background(), pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, core.StatusFiled, resp.Status)
	assert.Len(t, client.Requests(), 2, "calls beyond the budget never reach the model")
}

func TestPipelineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewPipelineEngine(scriptedClient(), testRepo(), eligibleBackend())
	resp, err := e.ProcessDispute(ctx, pipelineRequest())
	require.NoError(t, err)

	assert.Equal(t, "ERROR", resp.DisputeID, "a cancelled context yields the error response")
}
