// Package tool implements the function calling subsystem that lets the
// dispute engines invoke structured capabilities (data queries, banking
// actions) with schema validated arguments, consistent error handling and
// rich metadata for LLM guidance.
package tool

import (
	"fmt"

	"github.com/disputeflow/disputeflow/internal/util"
)

// Capability names one function the dispute assistant may invoke. The set is
// closed: the catalog registers exactly these capabilities and nothing else.
type Capability string

const (
	// Analysis capabilities.
	CapabilitySearchPastDisputes     Capability = "search_past_disputes"
	CapabilityAssessMerchantRisk     Capability = "assess_merchant_risk"
	CapabilityCheckNetworkRules      Capability = "check_network_rules"
	CapabilityFindTransactionDetails Capability = "find_transaction_details"
	CapabilityCustomerDisputeHistory Capability = "get_customer_dispute_history"
	CapabilityCheckDisputePolicies   Capability = "check_dispute_policies"

	// Action capabilities.
	CapabilityCheckAccountEligibility  Capability = "check_account_eligibility"
	CapabilityCalculateTemporaryCredit Capability = "calculate_temporary_credit"
	CapabilityIssueTemporaryCredit     Capability = "issue_temporary_credit"
	CapabilityFileDisputeWithNetwork   Capability = "file_dispute_with_network"
	CapabilitySendCustomerNotification Capability = "send_customer_notification"
	CapabilityUpdateCaseManagement     Capability = "update_case_management"
)

// Capabilities returns every capability in the closed set.
func Capabilities() []Capability {
	return []Capability{
		CapabilitySearchPastDisputes,
		CapabilityAssessMerchantRisk,
		CapabilityCheckNetworkRules,
		CapabilityFindTransactionDetails,
		CapabilityCustomerDisputeHistory,
		CapabilityCheckDisputePolicies,
		CapabilityCheckAccountEligibility,
		CapabilityCalculateTemporaryCredit,
		CapabilityIssueTemporaryCredit,
		CapabilityFileDisputeWithNetwork,
		CapabilitySendCustomerNotification,
		CapabilityUpdateCaseManagement,
	}
}

// Tool defines the interface for one callable capability.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe; the executor runs tools concurrently
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and
	// how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// This schema is used for parameter validation and LLM function calling.
	Parameters() map[string]any

	// Call executes the tool with structured arguments and a Context carrying
	// cancellation, the function call id and session identifiers.
	Call(tctx *Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
