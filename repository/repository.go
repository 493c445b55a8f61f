package repository

import "context"

// Transaction is one card transaction on record.
type Transaction struct {
	TransactionID    string  `json:"transaction_id"`
	CustomerID       string  `json:"customer_id"`
	CardNumber       string  `json:"card_number"`
	CardLastFour     string  `json:"card_last_four"`
	MerchantName     string  `json:"merchant_name"`
	MerchantCategory string  `json:"merchant_category"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	TransactionDate  string  `json:"transaction_date"`
	TransactionTime  string  `json:"transaction_time"`
	Status           string  `json:"status"`
	Description      string  `json:"description"`
	Location         string  `json:"location"`
	MCCCode          int     `json:"mcc_code"`
	AuthCode         string  `json:"auth_code"`
}

// PastDispute is a previously resolved or open dispute case.
type PastDispute struct {
	DisputeID       string  `json:"dispute_id"`
	TransactionID   string  `json:"transaction_id"`
	CustomerID      string  `json:"customer_id"`
	MerchantName    string  `json:"merchant_name"`
	DisputeReason   string  `json:"dispute_reason"`
	DisputeCategory string  `json:"dispute_category"`
	Amount          float64 `json:"amount"`
	DisputeDate     string  `json:"dispute_date"`
	Resolution      string  `json:"resolution"`
	ResolutionDate  string  `json:"resolution_date"`
	Notes           string  `json:"notes"`
	SimilarCases    int     `json:"similar_cases"`
}

// MerchantRisk is the risk profile maintained for a merchant.
type MerchantRisk struct {
	MerchantName         string  `json:"merchant_name"`
	MerchantID           string  `json:"merchant_id"`
	RiskScore            float64 `json:"risk_score"`
	DisputeRate          float64 `json:"dispute_rate"`
	FraudIncidents90d    int     `json:"fraud_incidents_90d"`
	TotalTransactions90d int     `json:"total_transactions_90d"`
	AvgTransactionAmount float64 `json:"avg_transaction_amount"`
	HighRiskTransactions int     `json:"high_risk_transactions"`
	ComplianceScore      float64 `json:"compliance_score"`
	LastUpdated          string  `json:"last_updated"`
	RiskFactors          string  `json:"risk_factors"`
}

// NetworkRule is a payment network chargeback rule.
type NetworkRule struct {
	RuleID                string  `json:"rule_id"`
	Network               string  `json:"network"`
	RuleType              string  `json:"rule_type"`
	Description           string  `json:"description"`
	TimeLimitDays         int     `json:"time_limit_days"`
	LiabilityShift        string  `json:"liability_shift"`
	DocumentationRequired string  `json:"documentation_required"`
	SuccessRate           float64 `json:"success_rate"`
}

// DisputePolicy is an internal policy governing dispute handling.
type DisputePolicy struct {
	PolicyID                string   `json:"policy_id"`
	Category                string   `json:"category"`
	Subcategory             string   `json:"subcategory"`
	TimeLimitHours          int      `json:"time_limit_hours"`
	MaxAmount               float64  `json:"max_amount"`
	AutoApproveThreshold    float64  `json:"auto_approve_threshold"`
	InvestigationRequired   bool     `json:"investigation_required"`
	TemporaryCreditEligible bool     `json:"temporary_credit_eligible"`
	DocumentationRequired   []string `json:"documentation_required"`
	ProcessingTimeDays      int      `json:"processing_time_days"`
	SuccessRate             float64  `json:"success_rate"`
}

// TransactionStats summarizes the loaded transaction table.
type TransactionStats struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalAmount       float64 `json:"total_amount"`
	AvgAmount         float64 `json:"avg_amount"`
	UniqueMerchants   int     `json:"unique_merchants"`
	UniqueCustomers   int     `json:"unique_customers"`
	DateRangeStart    string  `json:"date_range_start"`
	DateRangeEnd      string  `json:"date_range_end"`
}

// Repository is the read-only query surface the engines and tools depend on.
// Implementations must be safe for concurrent use: the pipeline engine issues
// lane queries in parallel.
type Repository interface {
	// FindTransaction matches a transaction by card, amount (within a small
	// tolerance) and case-insensitive merchant substring. It returns
	// (nil, nil) when nothing matches.
	FindTransaction(ctx context.Context, cardLastFour string, amount float64, merchantName string) (*Transaction, error)

	// TransactionsByCard returns every transaction recorded for a card.
	TransactionsByCard(ctx context.Context, cardLastFour string) ([]Transaction, error)

	// DisputesByMerchant returns past disputes whose merchant name contains
	// merchantName, case-insensitively.
	DisputesByMerchant(ctx context.Context, merchantName string) ([]PastDispute, error)

	// DisputesByCustomer returns past disputes filed by a customer.
	DisputesByCustomer(ctx context.Context, customerID string) ([]PastDispute, error)

	// MerchantRisk returns the first risk profile whose merchant name contains
	// merchantName, or (nil, nil) when none exists.
	MerchantRisk(ctx context.Context, merchantName string) (*MerchantRisk, error)

	// NetworkRules returns the network rules applicable to a dispute category.
	NetworkRules(ctx context.Context, category string) ([]NetworkRule, error)

	// Policies returns dispute policies for a category; when amount is
	// positive, only policies whose max amount covers it are returned.
	Policies(ctx context.Context, category string, amount float64) ([]DisputePolicy, error)

	// Merchants returns the distinct merchant names in the transaction table.
	Merchants(ctx context.Context) ([]string, error)

	// TransactionStats returns summary statistics over the transaction table.
	TransactionStats(ctx context.Context) (*TransactionStats, error)
}
