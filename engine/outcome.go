package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/disputeflow/disputeflow/backend"
	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/repository"
)

const systemVersion = "disputeflow v1.0"

// actionOutcome collects everything the act stage produced. Filing and
// Credit stay nil when eligibility was not met or no credit applies.
type actionOutcome struct {
	DisputeID   string
	Eligibility core.Eligibility
	Filing      *backend.FilingResult
	Credit      *backend.CreditResult
}

func (a actionOutcome) filed() bool {
	return a.Filing != nil && a.Filing.Success
}

func (a actionOutcome) creditIssued() bool {
	return a.Credit != nil && a.Credit.Success
}

func (a actionOutcome) creditAmount() float64 {
	if !a.creditIssued() {
		return 0
	}
	return a.Credit.Amount
}

// pastDisputesConfidence scores the past-disputes lane by how much history
// was available to analyze.
func pastDisputesConfidence(merchantDisputes, customerDisputes int) float64 {
	c := 0.5 + float64(merchantDisputes)*0.1 + float64(customerDisputes)*0.05
	if c > 0.9 {
		c = 0.9
	}
	return c
}

// merchantRiskConfidence scores the merchant-risk lane: a low risk score
// means cleaner data and a stronger signal. Without a risk profile the lane
// still completes, at low confidence.
func merchantRiskConfidence(risk *repository.MerchantRisk) float64 {
	if risk == nil {
		return 0.3
	}
	c := 0.7 + (10-risk.RiskScore)*0.03
	if c > 0.95 {
		c = 0.95
	}
	return c
}

// networkRulesConfidence scores the network-rules lane from the average
// historical success rate of the applicable rules.
func networkRulesConfidence(rules []repository.NetworkRule) float64 {
	if len(rules) == 0 {
		return 0.4
	}
	var sum float64
	for _, r := range rules {
		sum += r.SuccessRate
	}
	c := sum / float64(len(rules)) / 100.0
	if c > 0.9 {
		c = 0.9
	}
	return c
}

// overallConfidence averages the completed lanes. With no completed lane the
// assessment is nearly worthless but processing still continues.
func overallConfidence(lanes []core.LaneResult) float64 {
	var sum float64
	var n int
	for _, l := range lanes {
		if l.Status == core.LaneStatusCompleted {
			sum += l.Confidence
			n++
		}
	}
	if n == 0 {
		return 0.2
	}
	return sum / float64(n)
}

// finalStatus maps the act stage outcome onto the case status: a successful
// filing is Filed, an eligible customer whose filing failed stays Pending
// for retry, and an ineligible customer is Denied.
func finalStatus(a actionOutcome) core.Status {
	if !a.Eligibility.Eligible {
		return core.StatusDenied
	}
	if a.filed() {
		return core.StatusFiled
	}
	return core.StatusPending
}

func customerLetter(a actionOutcome) string {
	if !a.Eligibility.Eligible {
		return deniedLetter
	}
	if !a.filed() {
		return delayLetter
	}
	creditLine := "We are reviewing your eligibility for a temporary credit."
	if a.creditIssued() {
		creditLine = "A temporary credit has been posted to your account while we investigate."
	}
	return fmt.Sprintf(filedLetter, a.DisputeID, creditLine)
}

const filedLetter = `Dear Valued Customer,

Thank you for contacting us regarding the disputed transaction. We have successfully filed your dispute (Reference: %s) and begun our investigation.

%s

We will keep you updated on the progress of your dispute. You can expect a resolution within 10 business days.

Thank you for your patience.

Best regards,
Customer Service Team`

const delayLetter = `Dear Valued Customer,

We received your dispute request and are currently processing it. Due to high volume, there may be a slight delay in filing your dispute with the payment network.

We will contact you within 24 hours with an update on the status.

Thank you for your patience.

Best regards,
Customer Service Team`

const deniedLetter = `Dear Valued Customer,

Thank you for contacting us regarding the transaction in question. After reviewing your account and the transaction details, we are unable to process a dispute at this time.

This may be due to account restrictions, timing limitations, or other eligibility factors. Please contact customer service for more information about your specific situation.

Best regards,
Customer Service Team`

// backOfficeNotes summarizes the run for a human reviewer.
func backOfficeNotes(steps []core.AgentStep, lanes []core.LaneResult) map[string]any {
	var confidenceSum float64
	successful := 0
	var processing time.Duration
	for _, s := range steps {
		confidenceSum += s.Confidence
		if s.Confidence > 0.5 {
			successful++
		}
		processing += s.Duration
	}
	avg := 0.0
	if len(steps) > 0 {
		avg = confidenceSum / float64(len(steps))
	}

	lanesSuccessful := 0
	for _, l := range lanes {
		if l.Status == core.LaneStatusCompleted && l.Confidence > 0.5 {
			lanesSuccessful++
		}
	}

	return map[string]any{
		"analysis_summary": map[string]any{
			"total_steps":        len(steps),
			"successful_steps":   successful,
			"average_confidence": avg,
		},
		"lane_analysis": map[string]any{
			"lanes_executed":   len(lanes),
			"lanes_successful": lanesSuccessful,
		},
		"risk_assessment": "Automated analysis completed with AI assistance",
		"recommendations": []string{
			"Review merchant risk profile periodically",
			"Monitor customer dispute patterns",
			"Follow up on temporary credit reversal timing",
		},
		"processing_time": processing.Seconds(),
		"system_version":  systemVersion,
	}
}

func nextSteps(status core.Status, creditIssued bool) []string {
	switch status {
	case core.StatusFiled:
		steps := []string{
			"Monitor payment network response",
			"Follow up with customer in 5 business days",
			"Prepare additional documentation if requested",
		}
		if creditIssued {
			steps = append(steps, "Track temporary credit reversal date")
		}
		return steps
	case core.StatusPending:
		return []string{
			"Retry dispute filing in 4 hours",
			"Escalate to senior analyst if retry fails",
			"Notify customer of delay",
		}
	case core.StatusDenied:
		return []string{
			"Document denial reason for customer",
			"Explore alternative resolution options",
			"Schedule follow-up call with customer",
		}
	default:
		return nil
	}
}

func supportingEvidence(lanes []core.LaneResult) []string {
	evidence := []string{
		"Transaction details verified",
		"Customer account history reviewed",
		"Payment network rules analyzed",
	}
	for _, l := range lanes {
		if l.Status != core.LaneStatusCompleted || l.Confidence <= 0.5 {
			continue
		}
		switch l.Lane {
		case lanePastDisputes:
			evidence = append(evidence, "Historical dispute patterns analyzed")
		case laneMerchantRisk:
			evidence = append(evidence, "Merchant risk assessment completed")
		case laneNetworkRules:
			evidence = append(evidence, "Network compliance verified")
		}
	}
	return evidence
}

// pipelineErrorResponse is returned when a pipeline run fails outright. The
// steps accumulated so far are preserved for diagnosis.
func pipelineErrorResponse(steps []core.AgentStep, errMsg string, now time.Time) *core.DisputeResponse {
	return &core.DisputeResponse{
		DisputeID:        "ERROR",
		Status:           core.StatusPending,
		CustomerResponse: "We apologize, but we're experiencing technical difficulties. Please try again later or contact customer service.",
		BackOfficeNotes: map[string]any{
			"error":     errMsg,
			"timestamp": now.Format(time.RFC3339),
		},
		EstimatedResolutionDays: 1,
		ConfidenceScore:         0.0,
		NextSteps:               []string{"Technical team to investigate", "Customer service to follow up"},
		SupportingEvidence:      []string{"Error logged for technical review"},
		Steps:                   steps,
	}
}

// resolution is what the assistant engine distills from the conversation and
// the function call records.
type resolution struct {
	CustomerResponse        string
	BackOfficeNotes         map[string]any
	CreditIssued            bool
	CreditAmount            float64
	EstimatedResolutionDays int
	Confidence              float64
	NextSteps               []string
	SupportingEvidence      []string
}

// extractResolution derives the final resolution from the executed function
// calls and the model's closing reasoning.
func extractResolution(calls []core.FunctionCall, reasoning string) resolution {
	res := resolution{
		CustomerResponse: "Your dispute has been processed and is under review.",
		BackOfficeNotes: map[string]any{
			"processing_summary":      reasoning,
			"function_calls_executed": len(calls),
			"investigation_completed": true,
		},
		EstimatedResolutionDays: 5,
		Confidence:              keywordConfidence(reasoning, 0.8),
		NextSteps:               []string{"Review dispute documentation", "Monitor case status"},
		SupportingEvidence:      []string{},
	}

	for _, call := range calls {
		data := call.ResultData()
		if data == nil {
			continue
		}
		switch call.Name {
		case "issue_temporary_credit":
			if ok, _ := data["success"].(bool); ok {
				res.CreditIssued = true
				res.CreditAmount, _ = data["amount"].(float64)
				res.CustomerResponse = fmt.Sprintf(
					"Your dispute has been processed and a temporary credit of $%.2f has been issued to your account.",
					res.CreditAmount,
				)
			}
		case "file_dispute_with_network":
			if ok, _ := data["success"].(bool); ok {
				ref, _ := data["reference_number"].(string)
				res.CustomerResponse = fmt.Sprintf(
					"Your dispute has been filed with the payment network. Reference number: %s", ref,
				)
				res.EstimatedResolutionDays = 10
			}
		case "search_past_disputes", "assess_merchant_risk", "check_network_rules":
			if analysis, ok := data["analysis"].(string); ok && analysis != "" {
				res.SupportingEvidence = append(res.SupportingEvidence, analysis)
			}
		}
	}
	return res
}

// keywordConfidence scans the model's reasoning for an explicit confidence
// statement, falling back to def when none is present.
func keywordConfidence(reasoning string, def float64) float64 {
	lower := strings.ToLower(reasoning)
	switch {
	case strings.Contains(lower, "high confidence"):
		return 0.9
	case strings.Contains(lower, "medium confidence"):
		return 0.7
	case strings.Contains(lower, "low confidence"):
		return 0.5
	default:
		return def
	}
}

// resolutionStatus maps the extracted resolution onto a case status.
func resolutionStatus(creditIssued bool, customerResponse string) core.Status {
	switch {
	case creditIssued:
		return core.StatusApproved
	case strings.Contains(customerResponse, "filed with the payment network"):
		return core.StatusFiled
	case strings.Contains(strings.ToLower(customerResponse), "denied"):
		return core.StatusDenied
	default:
		return core.StatusInvestigating
	}
}

// assistantErrorResponse is returned when the conversation fails outright.
func assistantErrorResponse(disputeID, errMsg string, steps []core.AgentStep, now time.Time) *core.DisputeResponse {
	return &core.DisputeResponse{
		DisputeID:        disputeID,
		Status:           core.StatusPending,
		CustomerResponse: fmt.Sprintf("We're experiencing technical difficulties processing your dispute. Please try again later. Error: %s", errMsg),
		BackOfficeNotes: map[string]any{
			"error":                  errMsg,
			"requires_manual_review": true,
			"timestamp":              now.Format(time.RFC3339),
		},
		EstimatedResolutionDays: 1,
		ConfidenceScore:         0.0,
		NextSteps:               []string{"Manual review required", "Contact technical support"},
		Steps:                   steps,
		Reasoning:               fmt.Sprintf("Error occurred: %s", errMsg),
	}
}
