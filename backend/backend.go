package backend

import "context"

// FilingRequest carries the data needed to file a dispute with the network.
type FilingRequest struct {
	CustomerID    string  `json:"customer_id"`
	CardLastFour  string  `json:"card_last_four"`
	Amount        float64 `json:"amount"`
	MerchantName  string  `json:"merchant_name"`
	DisputeReason string  `json:"dispute_reason"`
	Category      string  `json:"category"`
}

// FilingResult is the outcome of a filing attempt. Success=false with a
// populated ErrorCode is an expected business outcome, not a transport error.
type FilingResult struct {
	Success                 bool   `json:"success"`
	DisputeID               string `json:"dispute_id,omitempty"`
	ReferenceNumber         string `json:"reference_number,omitempty"`
	Status                  string `json:"status,omitempty"`
	FiledDate               string `json:"filed_date,omitempty"`
	EstimatedResolutionDate string `json:"estimated_resolution_date,omitempty"`
	Message                 string `json:"message,omitempty"`
	ErrorCode               string `json:"error_code,omitempty"`
	ErrorMessage            string `json:"error_message,omitempty"`
	RetryAfterSeconds       int    `json:"retry_after,omitempty"`
}

// CreditRequest carries the data needed to post a temporary credit.
type CreditRequest struct {
	CustomerID    string  `json:"customer_id"`
	Amount        float64 `json:"amount"`
	DisputeID     string  `json:"dispute_id"`
	AccountNumber string  `json:"account_number,omitempty"`
}

// CreditResult is the outcome of a temporary credit attempt.
type CreditResult struct {
	Success           bool    `json:"success"`
	CreditID          string  `json:"credit_id,omitempty"`
	Amount            float64 `json:"amount,omitempty"`
	CustomerID        string  `json:"customer_id,omitempty"`
	AccountNumber     string  `json:"account_number,omitempty"`
	PostedDate        string  `json:"posted_date,omitempty"`
	Description       string  `json:"description,omitempty"`
	ReversalDate      string  `json:"reversal_date,omitempty"`
	Message           string  `json:"message,omitempty"`
	ErrorCode         string  `json:"error_code,omitempty"`
	ErrorMessage      string  `json:"error_message,omitempty"`
	RetryAfterSeconds int     `json:"retry_after,omitempty"`
}

// AccountStatus describes a customer account at the moment of the check.
type AccountStatus struct {
	CustomerID          string   `json:"customer_id"`
	AccountNumber       string   `json:"account_number"`
	AccountStatus       string   `json:"account_status"`
	AvailableBalance    float64  `json:"available_balance"`
	PendingDisputes     int      `json:"pending_disputes"`
	LastTransactionDate string   `json:"last_transaction_date"`
	CreditEligible      bool     `json:"credit_eligible"`
	DisputeEligible     bool     `json:"dispute_eligible"`
	Restrictions        []string `json:"restrictions"`
}

// Notification is a customer-facing message to deliver.
type Notification struct {
	CustomerID string `json:"customer_id"`
	Channel    string `json:"channel,omitempty"`
	Message    string `json:"message"`
}

// NotificationResult is the outcome of a notification attempt.
type NotificationResult struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notification_id,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	Channel        string `json:"channel,omitempty"`
	SentDate       string `json:"sent_date,omitempty"`
	Message        string `json:"message,omitempty"`
	ErrorCode      string `json:"error_code,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// CaseUpdate describes a case management entry to create or update.
type CaseUpdate struct {
	DisputeID string `json:"dispute_id"`
	Priority  string `json:"priority,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// CaseResult is the outcome of a case management update.
type CaseResult struct {
	Success       bool   `json:"success"`
	CaseID        string `json:"case_id"`
	DisputeID     string `json:"dispute_id"`
	AssignedAgent string `json:"assigned_agent"`
	Priority      string `json:"priority"`
	CreatedDate   string `json:"created_date"`
	DueDate       string `json:"due_date"`
	Status        string `json:"status"`
	WorkflowStage string `json:"workflow_stage"`
	Message       string `json:"message"`
}

// Backend is the boundary to the bank's operational systems. Every method
// returns a typed result for expected business failures; the error return is
// reserved for transport-level problems such as a cancelled context.
type Backend interface {
	FileDispute(ctx context.Context, req FilingRequest) (*FilingResult, error)
	IssueTemporaryCredit(ctx context.Context, req CreditRequest) (*CreditResult, error)
	CheckAccountStatus(ctx context.Context, customerID, accountNumber string) (*AccountStatus, error)
	NotifyCustomer(ctx context.Context, n Notification) (*NotificationResult, error)
	UpdateCase(ctx context.Context, u CaseUpdate) (*CaseResult, error)
}
