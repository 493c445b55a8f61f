package backend

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/disputeflow/disputeflow/core"
	"github.com/disputeflow/disputeflow/logging"
	"github.com/google/uuid"
)

// Options configure the mock backend. Inject Rand and Now for deterministic
// tests; both default to real randomness and wall-clock time.
type Options struct {
	Logger logging.Logger

	// Latency is the base simulated delay for filing; the other operations
	// use fixed fractions of it. Zero disables simulated delays.
	Latency time.Duration

	FilingSuccessRate       float64
	CreditSuccessRate       float64
	NotificationSuccessRate float64

	Rand *rand.Rand
	Now  func() time.Time
}

// Mock simulates the bank's operational systems with configurable latency
// and success rates.
type Mock struct {
	*core.LoggerAdapter

	opts Options

	mu   sync.Mutex
	rand *rand.Rand
}

// NewMock constructs a mock backend.
func NewMock(optFns ...func(o *Options)) *Mock {
	opts := Options{
		Latency:                 1500 * time.Millisecond,
		FilingSuccessRate:       0.85,
		CreditSuccessRate:       0.95,
		NotificationSuccessRate: 0.98,
		Now:                     time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Mock{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		opts:          opts,
		rand:          rng,
	}
}

// sleep waits for the given duration or until the context is cancelled.
func (m *Mock) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Mock) roll(rate float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rand.Float64() < rate
}

func (m *Mock) randFloat(min, max float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return min + m.rand.Float64()*(max-min)
}

func (m *Mock) randInt(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rand.Intn(n)
}

func (m *Mock) newID(prefix string, hexLen int) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:hexLen])
	return fmt.Sprintf("%s%s%s", prefix, m.opts.Now().Format("20060102150405"), suffix)
}

// FileDispute implements Backend.
func (m *Mock) FileDispute(ctx context.Context, req FilingRequest) (*FilingResult, error) {
	if err := m.sleep(ctx, m.opts.Latency); err != nil {
		return nil, err
	}

	m.LogInfo("filing dispute", "customer_id", req.CustomerID, "merchant", req.MerchantName)

	if !m.roll(m.opts.FilingSuccessRate) {
		return &FilingResult{
			Success:           false,
			ErrorCode:         "FILING_ERROR",
			ErrorMessage:      "Unable to file dispute at this time. Please try again later.",
			RetryAfterSeconds: 300,
		}, nil
	}

	now := m.opts.Now()
	return &FilingResult{
		Success:                 true,
		DisputeID:               m.newID("DSP", 6),
		ReferenceNumber:         "REF" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		Status:                  "Filed",
		FiledDate:               now.Format(time.RFC3339),
		EstimatedResolutionDate: now.AddDate(0, 0, 10).Format(time.RFC3339),
		Message:                 "Dispute successfully filed with payment network",
	}, nil
}

// IssueTemporaryCredit implements Backend.
func (m *Mock) IssueTemporaryCredit(ctx context.Context, req CreditRequest) (*CreditResult, error) {
	if err := m.sleep(ctx, m.opts.Latency/2); err != nil {
		return nil, err
	}

	m.LogInfo("issuing temporary credit", "customer_id", req.CustomerID, "amount", req.Amount)

	if !m.roll(m.opts.CreditSuccessRate) {
		return &CreditResult{
			Success:           false,
			ErrorCode:         "CREDIT_ERROR",
			ErrorMessage:      "Unable to post temporary credit. Account may have restrictions.",
			RetryAfterSeconds: 600,
		}, nil
	}

	account := req.AccountNumber
	if account == "" {
		account = "****1234"
	}
	disputeID := req.DisputeID
	if disputeID == "" {
		disputeID = "N/A"
	}

	now := m.opts.Now()
	return &CreditResult{
		Success:       true,
		CreditID:      m.newID("TMP", 6),
		Amount:        req.Amount,
		CustomerID:    req.CustomerID,
		AccountNumber: account,
		PostedDate:    now.Format(time.RFC3339),
		Description:   fmt.Sprintf("Temporary credit for dispute %s", disputeID),
		ReversalDate:  now.AddDate(0, 0, 10).Format(time.RFC3339),
		Message:       "Temporary credit successfully posted to account",
	}, nil
}

// accountStatuses is weighted towards active accounts.
var accountStatuses = []string{"Active", "Active", "Active", "Restricted", "Frozen"}

// CheckAccountStatus implements Backend.
func (m *Mock) CheckAccountStatus(ctx context.Context, customerID, accountNumber string) (*AccountStatus, error) {
	if err := m.sleep(ctx, m.opts.Latency*3/10); err != nil {
		return nil, err
	}

	m.LogInfo("checking account status", "customer_id", customerID)

	status := accountStatuses[m.randInt(len(accountStatuses))]
	pending := m.randInt(4)

	restrictions := []string{}
	if status != "Active" {
		restrictions = []string{"Limited dispute filing"}
	}

	return &AccountStatus{
		CustomerID:          customerID,
		AccountNumber:       accountNumber,
		AccountStatus:       status,
		AvailableBalance:    float64(int(m.randFloat(100, 5000)*100)) / 100,
		PendingDisputes:     pending,
		LastTransactionDate: m.opts.Now().AddDate(0, 0, -(1 + m.randInt(7))).Format(time.RFC3339),
		CreditEligible:      status == "Active" && pending < 3,
		DisputeEligible:     status == "Active" || status == "Restricted",
		Restrictions:        restrictions,
	}, nil
}

// NotifyCustomer implements Backend.
func (m *Mock) NotifyCustomer(ctx context.Context, n Notification) (*NotificationResult, error) {
	if err := m.sleep(ctx, m.opts.Latency/5); err != nil {
		return nil, err
	}

	m.LogInfo("sending notification", "customer_id", n.CustomerID, "channel", n.Channel)

	if !m.roll(m.opts.NotificationSuccessRate) {
		return &NotificationResult{
			Success:      false,
			ErrorCode:    "NOTIFICATION_ERROR",
			ErrorMessage: "Failed to send notification. Contact information may be outdated.",
		}, nil
	}

	channel := n.Channel
	if channel == "" {
		channel = "email"
	}

	return &NotificationResult{
		Success:        true,
		NotificationID: m.newID("NOT", 4),
		CustomerID:     n.CustomerID,
		Channel:        channel,
		SentDate:       m.opts.Now().Format(time.RFC3339),
		Message:        "Notification sent successfully",
	}, nil
}

// UpdateCase implements Backend.
func (m *Mock) UpdateCase(ctx context.Context, u CaseUpdate) (*CaseResult, error) {
	if err := m.sleep(ctx, m.opts.Latency*2/5); err != nil {
		return nil, err
	}

	m.LogInfo("updating case management", "dispute_id", u.DisputeID)

	priority := u.Priority
	if priority == "" {
		priority = "Normal"
	}

	now := m.opts.Now()
	return &CaseResult{
		Success:       true,
		CaseID:        m.newID("CASE", 4),
		DisputeID:     u.DisputeID,
		AssignedAgent: fmt.Sprintf("Agent%d", 100+m.randInt(900)),
		Priority:      priority,
		CreatedDate:   now.Format(time.RFC3339),
		DueDate:       now.AddDate(0, 0, 5).Format(time.RFC3339),
		Status:        "Open",
		WorkflowStage: "Investigation",
		Message:       "Case created and assigned successfully",
	}, nil
}
