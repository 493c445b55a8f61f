package core

const (
	// MinDisputeAmount is the smallest amount that can be disputed.
	MinDisputeAmount = 1.00
	// MaxPendingDisputes is the pending-dispute count at which an account
	// may no longer open new disputes.
	MaxPendingDisputes = 5
	// AuthorizationCreditCap bounds the partial credit for authorization issues.
	AuthorizationCreditCap = 500.00
)

// TemporaryCreditAmount computes the provisional refund for a disputed
// transaction: the full amount for fraud and billing errors, half the amount
// capped at AuthorizationCreditCap for authorization issues, zero otherwise.
func TemporaryCreditAmount(amount float64, category Category) float64 {
	switch category {
	case CategoryFraud, CategoryBillingError:
		return amount
	case CategoryAuthorizationIssue:
		half := amount * 0.5
		if half > AuthorizationCreditCap {
			return AuthorizationCreditCap
		}
		return half
	default:
		return 0
	}
}

// Eligibility is the outcome of the dispute eligibility check.
type Eligibility struct {
	Eligible        bool   `json:"eligible"`
	AccountStatus   string `json:"account_status"`
	PendingDisputes int    `json:"pending_disputes"`
	Reason          string `json:"reason"`
}

// AssessEligibility applies the filing rules: the disputed amount must exceed
// MinDisputeAmount, the account must have fewer than MaxPendingDisputes
// pending disputes, and the account status must permit disputes.
func AssessEligibility(amount float64, accountStatus string, pendingDisputes int, disputePermitted bool) Eligibility {
	eligible := disputePermitted &&
		pendingDisputes < MaxPendingDisputes &&
		amount > MinDisputeAmount

	reason := "Eligible for dispute filing"
	if !eligible {
		reason = "Does not meet dispute eligibility criteria"
	}

	return Eligibility{
		Eligible:        eligible,
		AccountStatus:   accountStatus,
		PendingDisputes: pendingDisputes,
		Reason:          reason,
	}
}
