// Package prompt builds the model prompts for every stage of dispute
// analysis. All builders are pure: the same request and payload always
// produce the same Prompt, which keeps the engines deterministic and easy to
// test against a scripted client.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/disputeflow/disputeflow/core"
)

// Prompt is one model invocation: standing instructions plus user input.
type Prompt struct {
	System string
	User   string
}

const planSystem = `You are a banking dispute analysis expert. Your task is to create a comprehensive plan for analyzing a customer dispute.

Analyze the dispute request and create a structured plan with:
1. Key analysis steps needed
2. Data requirements for each step
3. Risk factors to investigate
4. Success probability estimate

Return a JSON object with your analysis plan.`

const retrieveSystem = `You are a banking data analyst. Analyze the provided transaction and customer data to identify relevant information for the dispute.

Focus on:
1. Transaction verification and matching
2. Customer history patterns
3. Anomaly detection
4. Data quality assessment

Return a JSON object with your findings.`

const pastDisputesSystem = `You are a dispute pattern analyst. Analyze past disputes for similar patterns and outcomes.

Focus on:
1. Similar merchant disputes
2. Resolution patterns
3. Success rate analysis
4. Risk indicators

Return a JSON object with pattern analysis and confidence score.`

const merchantRiskSystem = `You are a merchant risk analyst. Evaluate the risk profile of the merchant involved in the dispute.

Analyze:
1. Merchant risk scores and factors
2. Historical dispute patterns
3. Fraud indicators
4. Compliance status

Return a JSON object with risk assessment and recommendations.`

const networkRulesSystem = `You are a payment network rules expert. Analyze applicable chargeback and dispute rules.

Evaluate:
1. Applicable network rules (Visa/Mastercard)
2. Time limits and eligibility
3. Documentation requirements
4. Success probability based on rules

Return a JSON object with rules analysis and compliance assessment.`

const synthesizeSystem = `You are a dispute resolution specialist. Synthesize all gathered information to form a comprehensive assessment.

Combine insights from:
1. Transaction analysis
2. Past dispute patterns
3. Merchant risk assessment
4. Network rules compliance

Return a JSON object with synthesis, overall confidence, and recommendation.`

const generateSystem = `You are a customer communication specialist. Generate appropriate responses for the customer and back-office notes.

Create:
1. Professional customer response
2. Detailed back-office notes
3. Action items and next steps
4. Documentation requirements

Return a JSON object with generated content.`

const critiqueSystem = `You are a quality assurance analyst. Review the dispute analysis for completeness and accuracy.

Check:
1. Analysis completeness
2. Evidence quality
3. Reasoning consistency
4. Compliance with policies

Return a JSON object with critique, gaps identified, and improvement recommendations.`

const assistantSystem = `You are an intelligent banking dispute resolution assistant. A customer has submitted a dispute for a card transaction. Your job is to investigate the dispute using the available functions and take the appropriate actions.

Guidelines:
1. Start by verifying the transaction and checking account eligibility
2. Investigate merchant risk, past disputes, and applicable network rules as needed
3. When the customer is eligible, file the dispute with the payment network and issue a temporary credit if policy allows
4. Notify the customer and update the case management system with your findings
5. Finish with a clear summary of your reasoning and state your confidence as high, medium, or low

Only call functions that are necessary for this specific dispute.`

// baseInfo renders the dispute request block shared by every stage prompt.
func baseInfo(req core.DisputeRequest) string {
	return fmt.Sprintf(`Dispute Request Information:
- Customer ID: %s
- Card Last Four: %s
- Transaction Amount: $%.2f
- Merchant: %s
- Dispute Reason: %s
- Category: %s`,
		req.CustomerID,
		req.CardLastFour,
		req.TransactionAmount,
		req.MerchantName,
		req.DisputeReason,
		req.Category,
	)
}

// render serializes a stage payload for inclusion in a prompt, substituting
// fallback when the payload is empty.
func render(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fallback
	}
	s := string(b)
	switch s {
	case "null", "{}", "[]", `""`:
		return fallback
	}
	return s
}

func withPayload(req core.DisputeRequest, heading, payload, instruction string) string {
	var b strings.Builder
	b.WriteString(baseInfo(req))
	b.WriteString("\n\n")
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(payload)
	b.WriteString("\n\n")
	b.WriteString(instruction)
	return b.String()
}

// Plan asks the model for an analysis plan.
func Plan(req core.DisputeRequest) Prompt {
	return Prompt{
		System: planSystem,
		User: baseInfo(req) +
			"\n\nCreate a comprehensive analysis plan for this dispute. Consider all aspects that need investigation.",
	}
}

// Retrieve asks the model to analyze the retrieved transaction data.
func Retrieve(req core.DisputeRequest, transactions any) Prompt {
	return Prompt{
		System: retrieveSystem,
		User: withPayload(req,
			"Transaction Data Available:",
			render(transactions, "No matching transactions found"),
			"Analyze this transaction data for the dispute.",
		),
	}
}

// PastDisputes asks the model to analyze merchant dispute history.
func PastDisputes(req core.DisputeRequest, disputes any) Prompt {
	return Prompt{
		System: pastDisputesSystem,
		User: withPayload(req,
			"Past Disputes Data:",
			render(disputes, "No past disputes found"),
			"Analyze patterns in past disputes for this merchant.",
		),
	}
}

// MerchantRisk asks the model to assess the merchant's risk profile.
func MerchantRisk(req core.DisputeRequest, risk any) Prompt {
	return Prompt{
		System: merchantRiskSystem,
		User: withPayload(req,
			"Merchant Risk Data:",
			render(risk, "No merchant risk data available"),
			"Assess the risk profile of this merchant.",
		),
	}
}

// NetworkRules asks the model to evaluate payment network rule compliance.
func NetworkRules(req core.DisputeRequest, rules any) Prompt {
	return Prompt{
		System: networkRulesSystem,
		User: withPayload(req,
			"Applicable Network Rules:",
			render(rules, "No specific network rules found"),
			"Evaluate compliance with payment network rules.",
		),
	}
}

// Synthesize asks the model to merge all lane findings into one assessment.
func Synthesize(req core.DisputeRequest, laneResults any) Prompt {
	return Prompt{
		System: synthesizeSystem,
		User: withPayload(req,
			"Analysis Results from All Lanes:",
			render(laneResults, "No lane results available"),
			"Synthesize all findings into a comprehensive assessment.",
		),
	}
}

// Generate asks the model to draft customer and back-office communications.
func Generate(req core.DisputeRequest, assessment any) Prompt {
	return Prompt{
		System: generateSystem,
		User: withPayload(req,
			"Final Assessment:",
			render(assessment, "No assessment available"),
			"Generate customer response and back-office documentation.",
		),
	}
}

// Critique asks the model to review the complete analysis for gaps.
func Critique(req core.DisputeRequest, analysis any) Prompt {
	return Prompt{
		System: critiqueSystem,
		User: withPayload(req,
			"Complete Analysis:",
			render(analysis, "No analysis available"),
			"Review this analysis for quality and completeness.",
		),
	}
}

// Assistant opens the function-calling conversation for a dispute.
func Assistant(req core.DisputeRequest) Prompt {
	user := baseInfo(req)
	if req.AdditionalDetails != "" {
		user += "\n- Additional Details: " + req.AdditionalDetails
	}
	user += "\n\nInvestigate this dispute and take the appropriate actions."
	return Prompt{
		System: assistantSystem,
		User:   user,
	}
}
