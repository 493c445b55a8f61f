package core

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies why a transaction is being disputed.
type Category string

const (
	// CategoryFraud covers unauthorized or fraudulent charges.
	CategoryFraud Category = "Fraud"
	// CategoryBillingError covers duplicate or incorrectly billed charges.
	CategoryBillingError Category = "Billing Error"
	// CategoryAuthorizationIssue covers charges exceeding or lacking authorization.
	CategoryAuthorizationIssue Category = "Authorization Issue"
)

// Categories returns all valid dispute categories.
func Categories() []Category {
	return []Category{CategoryFraud, CategoryBillingError, CategoryAuthorizationIssue}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFraud, CategoryBillingError, CategoryAuthorizationIssue:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a dispute case.
type Status string

const (
	// StatusPending indicates the case exists but no filing has succeeded yet.
	StatusPending Status = "Pending"
	// StatusInvestigating indicates analysis ran without a terminal action.
	StatusInvestigating Status = "Investigating"
	// StatusApproved indicates a temporary credit was issued to the customer.
	StatusApproved Status = "Approved"
	// StatusDenied indicates the customer is not eligible to dispute.
	StatusDenied Status = "Denied"
	// StatusFiled indicates the dispute was filed with the payment network.
	StatusFiled Status = "Filed"
)

// LaneStatus is the terminal state of one concurrent analysis lane.
type LaneStatus string

const (
	// LaneStatusPending means the lane has not started.
	LaneStatusPending LaneStatus = "Pending"
	// LaneStatusProcessing means the lane is running.
	LaneStatusProcessing LaneStatus = "Processing"
	// LaneStatusCompleted means the lane produced a usable result.
	LaneStatusCompleted LaneStatus = "Completed"
	// LaneStatusFailed means the lane failed; the error is captured, not raised.
	LaneStatusFailed LaneStatus = "Failed"
)

// DisputeRequest is the immutable input to either engine. It is created once
// per incoming request and never mutated.
type DisputeRequest struct {
	CustomerID        string   `json:"customer_id"`
	CardLastFour      string   `json:"card_last_four"`
	TransactionAmount float64  `json:"transaction_amount"`
	MerchantName      string   `json:"merchant_name"`
	DisputeReason     string   `json:"dispute_reason"`
	Category          Category `json:"dispute_category"`
	AdditionalDetails string   `json:"additional_details,omitempty"`
	UserID            string   `json:"user_id,omitempty"`
	SessionID         string   `json:"session_id,omitempty"`
}

// Validate checks the required request fields. A non-nil error is a
// validation failure in the error taxonomy: the request never reaches an
// engine run.
func (r DisputeRequest) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return fmt.Errorf("customer_id is required")
	}
	if len(strings.TrimSpace(r.CardLastFour)) != 4 {
		return fmt.Errorf("card_last_four must be exactly four digits")
	}
	if r.TransactionAmount <= 0 {
		return fmt.Errorf("transaction_amount must be positive")
	}
	if strings.TrimSpace(r.MerchantName) == "" {
		return fmt.Errorf("merchant_name is required")
	}
	if strings.TrimSpace(r.DisputeReason) == "" {
		return fmt.Errorf("dispute_reason is required")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("dispute_category %q is not valid", r.Category)
	}
	return nil
}

// AgentStep records one pipeline stage's execution. Steps are append-only:
// the engine owns the list for the duration of one request and never mutates
// a step after appending it.
type AgentStep struct {
	Name       string         `json:"step_name"`
	Status     string         `json:"status"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   time.Duration  `json:"duration"`
	Inputs     map[string]any `json:"inputs"`
	Outputs    map[string]any `json:"outputs"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
}

// LaneResult is the output of one concurrent analysis branch. Exactly one
// LaneResult is produced per lane regardless of success or failure.
type LaneResult struct {
	Lane           string         `json:"lane_name"`
	Status         LaneStatus     `json:"status"`
	Data           map[string]any `json:"data"`
	Confidence     float64        `json:"confidence"`
	ProcessingTime time.Duration  `json:"processing_time"`
	ErrorMessage   string         `json:"error_message,omitempty"`
}

// FunctionCall records one function invocation made by the assistant engine.
// The ID matches the correlation id the model supplied when requesting the
// call. Once execution completes exactly one of Result or Error is populated.
type FunctionCall struct {
	ID            string         `json:"id"`
	Name          string         `json:"function_name"`
	Arguments     map[string]any `json:"arguments"`
	Result        map[string]any `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// Succeeded reports whether the call executed and its handler reported success.
func (fc FunctionCall) Succeeded() bool {
	if fc.Error != "" || fc.Result == nil {
		return false
	}
	ok, _ := fc.Result["success"].(bool)
	return ok
}

// ResultData returns the handler payload of a successful call, or nil.
func (fc FunctionCall) ResultData() map[string]any {
	if !fc.Succeeded() {
		return nil
	}
	data, _ := fc.Result["data"].(map[string]any)
	return data
}

// DisputeResponse is the final output of either engine.
type DisputeResponse struct {
	DisputeID               string         `json:"dispute_id"`
	Status                  Status         `json:"status"`
	CustomerResponse        string         `json:"customer_response"`
	BackOfficeNotes         map[string]any `json:"back_office_notes"`
	TemporaryCreditIssued   bool           `json:"temporary_credit_issued"`
	TemporaryCreditAmount   float64        `json:"temporary_credit_amount"`
	EstimatedResolutionDays int            `json:"estimated_resolution_days"`
	ConfidenceScore         float64        `json:"confidence_score"`
	NextSteps               []string       `json:"next_steps"`
	SupportingEvidence      []string       `json:"supporting_evidence"`
	Steps                   []AgentStep    `json:"processing_steps"`

	// Assistant engine extras.
	TotalFunctionCalls int    `json:"total_function_calls,omitempty"`
	Reasoning          string `json:"reasoning,omitempty"`
}
