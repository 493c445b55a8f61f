package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/disputeflow/disputeflow/backend"
	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/model"
	"github.com/disputeflow/disputeflow/repository"
)

// Registry holds the closed set of dispute capabilities. It is built once by
// NewCatalog and never mutated afterwards, so it is safe for concurrent use.
type Registry struct {
	tools map[Capability]Tool
	order []Capability
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[Capability(name)]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, c := range r.order {
		names[i] = string(c)
	}
	return names
}

// Definitions exposes every tool as a model.ToolDefinition for the provider
// request.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(r.order))
	for i, c := range r.order {
		t := r.tools[c]
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}

// Execute runs one capability and wraps its outcome in the uniform result
// envelope: {"success": true, "data": ...} on success and
// {"success": false, "error": ...} when the tool reports a failure. The error
// return is reserved for requests naming a capability outside the closed set.
func (r *Registry) Execute(tctx *Context, name string, args map[string]any) (map[string]any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", name)
	}

	result, err := t.Call(tctx, args)
	if err != nil {
		return map[string]any{"success": false, "error": err.Error()}, nil
	}
	return map[string]any{"success": true, "data": result}, nil
}

// NewCatalog builds the registry of all dispute capabilities over the given
// repository and backend.
func NewCatalog(repo repository.Repository, be backend.Backend) *Registry {
	r := &Registry{tools: make(map[Capability]Tool)}

	r.add(searchPastDisputes(repo))
	r.add(assessMerchantRisk(repo))
	r.add(checkNetworkRules(repo))
	r.add(findTransactionDetails(repo))
	r.add(customerDisputeHistory(repo))
	r.add(checkDisputePolicies(repo))
	r.add(checkAccountEligibility(be))
	r.add(calculateTemporaryCredit())
	r.add(issueTemporaryCredit(be))
	r.add(fileDisputeWithNetwork(be))
	r.add(sendCustomerNotification(be))
	r.add(updateCaseManagement(be))

	return r
}

func (r *Registry) add(t Tool) {
	c := Capability(t.Name())
	r.tools[c] = t
	r.order = append(r.order, c)
}

// asMap converts any JSON-serializable value to a generic map.
func asMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func asMaps[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = asMap(item)
	}
	return out
}

func strArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// resolvedSuccessfully reports whether a past dispute ended in the
// customer's favor.
func resolvedSuccessfully(resolution string) bool {
	switch strings.ToLower(resolution) {
	case "approved", "resolved":
		return true
	default:
		return false
	}
}

func disputeSuccessRate(disputes []repository.PastDispute) float64 {
	if len(disputes) == 0 {
		return 0
	}
	successful := 0
	for _, d := range disputes {
		if resolvedSuccessfully(d.Resolution) {
			successful++
		}
	}
	return float64(successful) / float64(len(disputes))
}

func searchPastDisputes(repo repository.Repository) Tool {
	return NewFunctionTool(
		string(CapabilitySearchPastDisputes),
		"Search for past disputes involving a specific merchant to identify patterns and success rates",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"merchant_name": map[string]any{
					"type":        "string",
					"description": "Name of the merchant to search disputes for",
				},
				"category": map[string]any{
					"type":        "string",
					"enum":        []string{"Fraud", "Billing Error", "Authorization Issue", "all"},
					"description": "Dispute category to filter by, or 'all' for all categories",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of past disputes to return",
					"default":     10,
				},
			},
			"required": []string{"merchant_name"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			merchant := strArg(args, "merchant_name", "")
			category := strArg(args, "category", "all")
			limit := intArg(args, "limit", 10)

			disputes, err := repo.DisputesByMerchant(tctx.Context(), merchant)
			if err != nil {
				return nil, err
			}
			if category != "all" {
				filtered := disputes[:0]
				for _, d := range disputes {
					if strings.EqualFold(d.DisputeCategory, category) {
						filtered = append(filtered, d)
					}
				}
				disputes = filtered
			}
			if len(disputes) > limit {
				disputes = disputes[:limit]
			}

			rate := disputeSuccessRate(disputes)
			return map[string]any{
				"merchant_name":        merchant,
				"total_disputes_found": len(disputes),
				"success_rate":         rate,
				"disputes":             asMaps(disputes),
				"analysis": fmt.Sprintf("Found %d past disputes for %s with %.1f%% success rate",
					len(disputes), merchant, rate*100),
			}, nil
		},
	)
}

func assessMerchantRisk(repo repository.Repository) Tool {
	return NewFunctionTool(
		string(CapabilityAssessMerchantRisk),
		"Get comprehensive risk assessment data for a merchant including fraud rates and dispute patterns",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"merchant_name": map[string]any{
					"type":        "string",
					"description": "Name of the merchant to assess",
				},
			},
			"required": []string{"merchant_name"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			risk, err := repo.MerchantRisk(tctx.Context(), strArg(args, "merchant_name", ""))
			if err != nil {
				return nil, err
			}
			if risk == nil {
				return map[string]any{
					"merchant_found": false,
					"risk_level":     "Unknown",
					"recommendation": "No risk data available - proceed with standard analysis",
				}, nil
			}

			level := "Low"
			recommendation := "Standard processing"
			switch {
			case risk.RiskScore > 7:
				level = "High"
				recommendation = "Proceed with caution"
			case risk.RiskScore > 4:
				level = "Medium"
			}

			return map[string]any{
				"merchant_found": true,
				"risk_data":      asMap(risk),
				"risk_level":     level,
				"recommendation": recommendation,
			}, nil
		},
	)
}

func checkNetworkRules(repo repository.Repository) Tool {
	return NewFunctionTool(
		string(CapabilityCheckNetworkRules),
		"Check applicable payment network rules (Visa/Mastercard) for dispute eligibility and requirements",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"dispute_category": map[string]any{
					"type":        "string",
					"enum":        []string{"Fraud", "Billing Error", "Authorization Issue"},
					"description": "Category of the dispute",
				},
				"transaction_amount": map[string]any{
					"type":        "number",
					"description": "Amount of the disputed transaction",
				},
			},
			"required": []string{"dispute_category", "transaction_amount"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			category := strArg(args, "dispute_category", "")
			amount := floatArg(args, "transaction_amount")

			rules, err := repo.NetworkRules(tctx.Context(), category)
			if err != nil {
				return nil, err
			}

			// Rules that mention the amount in their description take
			// precedence; otherwise fall back to the top general rules.
			amountText := strconv.FormatFloat(amount, 'f', -1, 64)
			var applicable []repository.NetworkRule
			for _, rule := range rules {
				if rule.Description != "" && strings.Contains(rule.Description, amountText) {
					applicable = append(applicable, rule)
				}
			}
			if len(applicable) == 0 {
				if len(rules) > 3 {
					rules = rules[:3]
				}
				applicable = rules
			}

			return map[string]any{
				"dispute_category":   category,
				"transaction_amount": amount,
				"applicable_rules":   asMaps(applicable),
				"rules_count":        len(applicable),
				"analysis": fmt.Sprintf("Found %d applicable network rules for %s disputes",
					len(applicable), category),
			}, nil
		},
	)
}

func findTransactionDetails(repo repository.Repository) Tool {
	return NewFunctionTool(
		string(CapabilityFindTransactionDetails),
		"Locate and retrieve detailed information about a specific transaction",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"card_last_four": map[string]any{
					"type":        "string",
					"description": "Last four digits of the card",
				},
				"amount": map[string]any{
					"type":        "number",
					"description": "Transaction amount",
				},
				"merchant_name": map[string]any{
					"type":        "string",
					"description": "Name of the merchant",
				},
			},
			"required": []string{"card_last_four", "amount", "merchant_name"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			cardLastFour := strArg(args, "card_last_four", "")
			amount := floatArg(args, "amount")
			merchant := strArg(args, "merchant_name", "")

			tx, err := repo.FindTransaction(tctx.Context(), cardLastFour, amount, merchant)
			if err != nil {
				return nil, err
			}
			if tx == nil {
				return map[string]any{
					"transaction_found": false,
					"analysis": fmt.Sprintf("No matching transaction found for card %s, amount $%.2f, merchant %s",
						cardLastFour, amount, merchant),
				}, nil
			}
			return map[string]any{
				"transaction_found": true,
				"transaction":       asMap(tx),
				"analysis":          fmt.Sprintf("Found matching transaction: %s", tx.TransactionID),
			}, nil
		},
	)
}

func customerDisputeHistory(repo repository.Repository) Tool {
	return NewFunctionTool(
		string(CapabilityCustomerDisputeHistory),
		"Get the customer's past dispute history to identify patterns and assess credibility",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{
					"type":        "string",
					"description": "Customer ID to look up",
				},
				"days": map[string]any{
					"type":        "integer",
					"description": "Number of days back to search",
					"default":     365,
				},
			},
			"required": []string{"customer_id"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			customerID := strArg(args, "customer_id", "")

			disputes, err := repo.DisputesByCustomer(tctx.Context(), customerID)
			if err != nil {
				return nil, err
			}

			rate := disputeSuccessRate(disputes)
			return map[string]any{
				"customer_id":    customerID,
				"total_disputes": len(disputes),
				"success_rate":   rate,
				"disputes":       asMaps(disputes),
				"analysis": fmt.Sprintf("Customer has %d disputes in history with %.1f%% success rate",
					len(disputes), rate*100),
			}, nil
		},
	)
}

func checkDisputePolicies(repo repository.Repository) Tool {
	return NewFunctionTool(
		string(CapabilityCheckDisputePolicies),
		"Check internal bank policies for dispute handling, time limits, and eligibility criteria",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"enum":        []string{"Fraud", "Billing Error", "Authorization Issue"},
					"description": "Dispute category",
				},
				"amount": map[string]any{
					"type":        "number",
					"description": "Dispute amount",
				},
			},
			"required": []string{"category", "amount"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			category := strArg(args, "category", "")
			amount := floatArg(args, "amount")

			policies, err := repo.Policies(tctx.Context(), category, amount)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"category":            category,
				"amount":              amount,
				"applicable_policies": asMaps(policies),
				"policies_count":      len(policies),
				"analysis": fmt.Sprintf("Found %d applicable policies for %s disputes of $%.2f",
					len(policies), category, amount),
			}, nil
		},
	)
}

func checkAccountEligibility(be backend.Backend) Tool {
	return NewFunctionTool(
		string(CapabilityCheckAccountEligibility),
		"Check if customer account is eligible for dispute filing and temporary credits",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{
					"type":        "string",
					"description": "Customer ID to check",
				},
			},
			"required": []string{"customer_id"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			status, err := be.CheckAccountStatus(tctx.Context(), strArg(args, "customer_id", ""), "****1234")
			if err != nil {
				return nil, err
			}
			return asMap(status), nil
		},
	)
}

func calculateTemporaryCredit() Tool {
	return NewFunctionTool(
		string(CapabilityCalculateTemporaryCredit),
		"Calculate the appropriate temporary credit amount based on dispute details and policies",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{
					"type":        "string",
					"description": "Customer ID",
				},
				"dispute_amount": map[string]any{
					"type":        "number",
					"description": "Amount being disputed",
				},
				"dispute_category": map[string]any{
					"type":        "string",
					"enum":        []string{"Fraud", "Billing Error", "Authorization Issue"},
					"description": "Category of dispute",
				},
			},
			"required": []string{"customer_id", "dispute_amount", "dispute_category"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			customerID := strArg(args, "customer_id", "")
			amount := floatArg(args, "dispute_amount")
			category := core.Category(strArg(args, "dispute_category", ""))

			credit := core.TemporaryCreditAmount(amount, category)
			percentage := 0.0
			if amount > 0 {
				percentage = credit / amount * 100
			}

			return map[string]any{
				"customer_id":        customerID,
				"dispute_amount":     amount,
				"dispute_category":   string(category),
				"recommended_credit": credit,
				"credit_percentage":  percentage,
				"analysis": fmt.Sprintf("Recommended temporary credit: $%.2f (%.0f%% of dispute amount)",
					credit, percentage),
			}, nil
		},
	)
}

func issueTemporaryCredit(be backend.Backend) Tool {
	return NewFunctionTool(
		string(CapabilityIssueTemporaryCredit),
		"Issue a temporary credit to the customer's account",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{
					"type":        "string",
					"description": "Customer ID",
				},
				"amount": map[string]any{
					"type":        "number",
					"description": "Credit amount to issue",
				},
				"dispute_id": map[string]any{
					"type":        "string",
					"description": "Associated dispute ID",
				},
			},
			"required": []string{"customer_id", "amount", "dispute_id"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			result, err := be.IssueTemporaryCredit(tctx.Context(), backend.CreditRequest{
				CustomerID:    strArg(args, "customer_id", ""),
				Amount:        floatArg(args, "amount"),
				DisputeID:     strArg(args, "dispute_id", ""),
				AccountNumber: "****1234",
			})
			if err != nil {
				return nil, err
			}
			return asMap(result), nil
		},
	)
}

func fileDisputeWithNetwork(be backend.Backend) Tool {
	return NewFunctionTool(
		string(CapabilityFileDisputeWithNetwork),
		"File the dispute with the payment network (Visa/Mastercard)",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"dispute_data": map[string]any{
					"type":        "object",
					"description": "Complete dispute information",
					"properties": map[string]any{
						"customer_id":      map[string]any{"type": "string"},
						"transaction_id":   map[string]any{"type": "string"},
						"dispute_category": map[string]any{"type": "string"},
						"dispute_reason":   map[string]any{"type": "string"},
						"amount":           map[string]any{"type": "number"},
						"merchant_name":    map[string]any{"type": "string"},
					},
					"required": []string{"customer_id", "dispute_category", "dispute_reason", "amount", "merchant_name"},
				},
			},
			"required": []string{"dispute_data"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			data, ok := args["dispute_data"].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("dispute_data must be an object")
			}
			result, err := be.FileDispute(tctx.Context(), backend.FilingRequest{
				CustomerID:    strArg(data, "customer_id", ""),
				CardLastFour:  strArg(data, "card_last_four", ""),
				Amount:        floatArg(data, "amount"),
				MerchantName:  strArg(data, "merchant_name", ""),
				DisputeReason: strArg(data, "dispute_reason", ""),
				Category:      strArg(data, "dispute_category", ""),
			})
			if err != nil {
				return nil, err
			}
			return asMap(result), nil
		},
	)
}

func sendCustomerNotification(be backend.Backend) Tool {
	return NewFunctionTool(
		string(CapabilitySendCustomerNotification),
		"Send notification to customer about dispute status or next steps",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_id": map[string]any{
					"type":        "string",
					"description": "Customer ID",
				},
				"message": map[string]any{
					"type":        "string",
					"description": "Message to send to customer",
				},
				"channel": map[string]any{
					"type":        "string",
					"enum":        []string{"email", "sms", "both"},
					"description": "Communication channel",
					"default":     "email",
				},
			},
			"required": []string{"customer_id", "message"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			result, err := be.NotifyCustomer(tctx.Context(), backend.Notification{
				CustomerID: strArg(args, "customer_id", ""),
				Message:    strArg(args, "message", ""),
				Channel:    strArg(args, "channel", "email"),
			})
			if err != nil {
				return nil, err
			}
			return asMap(result), nil
		},
	)
}

func updateCaseManagement(be backend.Backend) Tool {
	return NewFunctionTool(
		string(CapabilityUpdateCaseManagement),
		"Update the case management system with dispute status and notes",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"dispute_id": map[string]any{
					"type":        "string",
					"description": "Dispute ID",
				},
				"status": map[string]any{
					"type":        "string",
					"enum":        []string{"Pending", "Investigating", "Approved", "Denied", "Filed"},
					"description": "Current dispute status",
				},
				"notes": map[string]any{
					"type":        "string",
					"description": "Case notes and findings",
				},
			},
			"required": []string{"dispute_id", "status", "notes"},
		},
		func(tctx *Context, args map[string]any) (any, error) {
			result, err := be.UpdateCase(tctx.Context(), backend.CaseUpdate{
				DisputeID: strArg(args, "dispute_id", ""),
				Priority:  "Normal",
				Summary:   strArg(args, "notes", ""),
			})
			if err != nil {
				return nil, err
			}
			return asMap(result), nil
		},
	)
}
