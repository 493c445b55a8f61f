package engine

import (
	"testing"
	"time"

	"github.com/disputeflow/disputeflow/backend"
	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPastDisputesConfidence(t *testing.T) {
	assert.InDelta(t, 0.5, pastDisputesConfidence(0, 0), 0.001)
	assert.InDelta(t, 0.75, pastDisputesConfidence(2, 1), 0.001)
	assert.InDelta(t, 0.9, pastDisputesConfidence(10, 10), 0.001, "confidence is capped")
}

func TestMerchantRiskConfidence(t *testing.T) {
	assert.InDelta(t, 0.3, merchantRiskConfidence(nil), 0.001)
	assert.InDelta(t, 0.757, merchantRiskConfidence(&repository.MerchantRisk{RiskScore: 8.1}), 0.001)
	assert.InDelta(t, 0.95, merchantRiskConfidence(&repository.MerchantRisk{RiskScore: 0.5}), 0.001, "confidence is capped")
}

func TestNetworkRulesConfidence(t *testing.T) {
	assert.InDelta(t, 0.4, networkRulesConfidence(nil), 0.001)

	rules := []repository.NetworkRule{{SuccessRate: 80.0}, {SuccessRate: 70.0}}
	assert.InDelta(t, 0.75, networkRulesConfidence(rules), 0.001)

	high := []repository.NetworkRule{{SuccessRate: 99.0}}
	assert.InDelta(t, 0.9, networkRulesConfidence(high), 0.001, "confidence is capped")
}

func TestOverallConfidence(t *testing.T) {
	lanes := []core.LaneResult{
		{Status: core.LaneStatusCompleted, Confidence: 0.8},
		{Status: core.LaneStatusCompleted, Confidence: 0.6},
		{Status: core.LaneStatusFailed, Confidence: 0.0},
	}
	assert.InDelta(t, 0.7, overallConfidence(lanes), 0.001, "failed lanes are excluded")

	allFailed := []core.LaneResult{{Status: core.LaneStatusFailed}}
	assert.InDelta(t, 0.2, overallConfidence(allFailed), 0.001)
}

func TestFinalStatus(t *testing.T) {
	eligible := core.Eligibility{Eligible: true}

	filed := actionOutcome{Eligibility: eligible, Filing: &backend.FilingResult{Success: true}}
	assert.Equal(t, core.StatusFiled, finalStatus(filed))

	failed := actionOutcome{Eligibility: eligible, Filing: &backend.FilingResult{Success: false}}
	assert.Equal(t, core.StatusPending, finalStatus(failed))

	denied := actionOutcome{Eligibility: core.Eligibility{Eligible: false}}
	assert.Equal(t, core.StatusDenied, finalStatus(denied))
}

func TestCustomerLetter(t *testing.T) {
	eligible := core.Eligibility{Eligible: true}

	t.Run("filed with credit", func(t *testing.T) {
		letter := customerLetter(actionOutcome{
			DisputeID:   "DSP20260315103045AABBCCDD",
			Eligibility: eligible,
			Filing:      &backend.FilingResult{Success: true},
			Credit:      &backend.CreditResult{Success: true, Amount: 250.00},
		})
		assert.Contains(t, letter, "Reference: DSP20260315103045AABBCCDD")
		assert.Contains(t, letter, "A temporary credit has been posted to your account")
		assert.Contains(t, letter, "resolution within 10 business days")
	})

	t.Run("filed without credit", func(t *testing.T) {
		letter := customerLetter(actionOutcome{
			DisputeID:   "DSP1",
			Eligibility: eligible,
			Filing:      &backend.FilingResult{Success: true},
		})
		assert.Contains(t, letter, "We are reviewing your eligibility for a temporary credit.")
	})

	t.Run("filing failed", func(t *testing.T) {
		letter := customerLetter(actionOutcome{
			Eligibility: eligible,
			Filing:      &backend.FilingResult{Success: false},
		})
		assert.Contains(t, letter, "Due to high volume")
		assert.Contains(t, letter, "within 24 hours")
	})

	t.Run("not eligible", func(t *testing.T) {
		letter := customerLetter(actionOutcome{Eligibility: core.Eligibility{Eligible: false}})
		assert.Contains(t, letter, "unable to process a dispute at this time")
		assert.Contains(t, letter, "account restrictions, timing limitations")
	})
}

func TestCustomerLetterIsIdempotent(t *testing.T) {
	outcome := actionOutcome{
		DisputeID:   "DSP1",
		Eligibility: core.Eligibility{Eligible: true},
		Filing:      &backend.FilingResult{Success: true},
	}
	assert.Equal(t, customerLetter(outcome), customerLetter(outcome))
}

func TestNextSteps(t *testing.T) {
	filed := nextSteps(core.StatusFiled, true)
	require.Len(t, filed, 4)
	assert.Equal(t, "Track temporary credit reversal date", filed[3])

	assert.Len(t, nextSteps(core.StatusFiled, false), 3)

	pending := nextSteps(core.StatusPending, false)
	require.Len(t, pending, 3)
	assert.Equal(t, "Retry dispute filing in 4 hours", pending[0])

	denied := nextSteps(core.StatusDenied, false)
	require.Len(t, denied, 3)
	assert.Equal(t, "Document denial reason for customer", denied[0])

	assert.Nil(t, nextSteps(core.StatusInvestigating, false))
}

func TestSupportingEvidence(t *testing.T) {
	lanes := []core.LaneResult{
		{Lane: lanePastDisputes, Status: core.LaneStatusCompleted, Confidence: 0.8},
		{Lane: laneMerchantRisk, Status: core.LaneStatusFailed, Confidence: 0.0},
		{Lane: laneNetworkRules, Status: core.LaneStatusCompleted, Confidence: 0.4},
	}
	evidence := supportingEvidence(lanes)

	assert.Contains(t, evidence, "Transaction details verified")
	assert.Contains(t, evidence, "Historical dispute patterns analyzed")
	assert.NotContains(t, evidence, "Merchant risk assessment completed")
	assert.NotContains(t, evidence, "Network compliance verified", "low confidence lanes contribute no evidence")
}

func TestBackOfficeNotes(t *testing.T) {
	steps := []core.AgentStep{
		{Confidence: 0.9, Duration: 100 * time.Millisecond},
		{Confidence: 0.3, Duration: 200 * time.Millisecond},
	}
	lanes := []core.LaneResult{
		{Status: core.LaneStatusCompleted, Confidence: 0.8},
		{Status: core.LaneStatusCompleted, Confidence: 0.4},
		{Status: core.LaneStatusFailed},
	}

	notes := backOfficeNotes(steps, lanes)

	summary := notes["analysis_summary"].(map[string]any)
	assert.Equal(t, 2, summary["total_steps"])
	assert.Equal(t, 1, summary["successful_steps"])
	assert.InDelta(t, 0.6, summary["average_confidence"].(float64), 0.001)

	laneAnalysis := notes["lane_analysis"].(map[string]any)
	assert.Equal(t, 3, laneAnalysis["lanes_executed"])
	assert.Equal(t, 1, laneAnalysis["lanes_successful"])

	assert.Equal(t, systemVersion, notes["system_version"])
	assert.InDelta(t, 0.3, notes["processing_time"].(float64), 0.001)
}

func TestExtractResolutionDefaults(t *testing.T) {
	res := extractResolution(nil, "Nothing needed to be done.")

	assert.Equal(t, "Your dispute has been processed and is under review.", res.CustomerResponse)
	assert.False(t, res.CreditIssued)
	assert.Equal(t, 5, res.EstimatedResolutionDays)
	assert.InDelta(t, 0.8, res.Confidence, 0.001)
	assert.Equal(t, []string{"Review dispute documentation", "Monitor case status"}, res.NextSteps)
	assert.Equal(t, 0, res.BackOfficeNotes["function_calls_executed"])
}

func TestExtractResolutionCreditAndFiling(t *testing.T) {
	calls := []core.FunctionCall{
		{
			Name: "file_dispute_with_network",
			Result: map[string]any{
				"success": true,
				"data":    map[string]any{"success": true, "reference_number": "REF12345678"},
			},
		},
		{
			Name: "issue_temporary_credit",
			Result: map[string]any{
				"success": true,
				"data":    map[string]any{"success": true, "amount": 250.0},
			},
		},
		{
			Name: "assess_merchant_risk",
			Result: map[string]any{
				"success": true,
				"data":    map[string]any{"analysis": "High risk merchant with elevated dispute rate"},
			},
		},
	}

	res := extractResolution(calls, "Filed and credited with high confidence.")

	assert.True(t, res.CreditIssued)
	assert.InDelta(t, 250.0, res.CreditAmount, 0.001)
	assert.Contains(t, res.CustomerResponse, "temporary credit of $250.00")
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
	assert.Contains(t, res.SupportingEvidence, "High risk merchant with elevated dispute rate")
}

func TestExtractResolutionFilingOnly(t *testing.T) {
	calls := []core.FunctionCall{
		{
			Name: "file_dispute_with_network",
			Result: map[string]any{
				"success": true,
				"data":    map[string]any{"success": true, "reference_number": "REF12345678"},
			},
		},
	}

	res := extractResolution(calls, "Done.")

	assert.Equal(t, "Your dispute has been filed with the payment network. Reference number: REF12345678", res.CustomerResponse)
	assert.Equal(t, 10, res.EstimatedResolutionDays)
	assert.False(t, res.CreditIssued)
}

func TestExtractResolutionIgnoresFailedCalls(t *testing.T) {
	calls := []core.FunctionCall{
		{Name: "issue_temporary_credit", Error: "panic in issue_temporary_credit"},
		{Name: "file_dispute_with_network", Result: map[string]any{"success": false, "error": "FILING_ERROR"}},
	}

	res := extractResolution(calls, "Could not complete the actions.")

	assert.False(t, res.CreditIssued)
	assert.Equal(t, "Your dispute has been processed and is under review.", res.CustomerResponse)
}

func TestKeywordConfidence(t *testing.T) {
	assert.InDelta(t, 0.9, keywordConfidence("I state HIGH CONFIDENCE in this outcome", 0.8), 0.001)
	assert.InDelta(t, 0.7, keywordConfidence("medium confidence overall", 0.8), 0.001)
	assert.InDelta(t, 0.5, keywordConfidence("low confidence due to missing data", 0.8), 0.001)
	assert.InDelta(t, 0.8, keywordConfidence("no statement made", 0.8), 0.001)
}

func TestResolutionStatus(t *testing.T) {
	assert.Equal(t, core.StatusApproved, resolutionStatus(true, "anything"))
	assert.Equal(t, core.StatusFiled, resolutionStatus(false, "Your dispute has been filed with the payment network. Reference number: REF1"))
	assert.Equal(t, core.StatusDenied, resolutionStatus(false, "Your dispute was Denied after review"))
	assert.Equal(t, core.StatusInvestigating, resolutionStatus(false, "Under review"))
}

func TestPipelineErrorResponse(t *testing.T) {
	steps := []core.AgentStep{{Name: "plan"}}
	now := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)

	resp := pipelineErrorResponse(steps, "repository unavailable", now)

	assert.Equal(t, "ERROR", resp.DisputeID)
	assert.Equal(t, core.StatusPending, resp.Status)
	assert.Contains(t, resp.CustomerResponse, "technical difficulties")
	assert.Equal(t, "repository unavailable", resp.BackOfficeNotes["error"])
	assert.Equal(t, now.Format(time.RFC3339), resp.BackOfficeNotes["timestamp"])
	assert.Equal(t, 1, resp.EstimatedResolutionDays)
	assert.Zero(t, resp.ConfidenceScore)
	assert.Equal(t, steps, resp.Steps, "accumulated steps are preserved for diagnosis")
}

func TestAssistantErrorResponse(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)

	resp := assistantErrorResponse("DSP1", "model unavailable", nil, now)

	assert.Equal(t, "DSP1", resp.DisputeID)
	assert.Equal(t, core.StatusPending, resp.Status)
	assert.Contains(t, resp.CustomerResponse, "Error: model unavailable")
	assert.Equal(t, true, resp.BackOfficeNotes["requires_manual_review"])
	assert.Equal(t, "Error occurred: model unavailable", resp.Reasoning)
	assert.Equal(t, []string{"Manual review required", "Contact technical support"}, resp.NextSteps)
}
