package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// amountTolerance absorbs floating point drift when matching amounts.
const amountTolerance = 0.01

// categoryRuleTypes maps dispute categories to network rule types.
var categoryRuleTypes = map[string]string{
	"Fraud":               "Fraud",
	"Billing Error":       "Processing Error",
	"Authorization Issue": "Authorization",
}

// Tables holds the loaded reference data served by InMemory.
type Tables struct {
	Transactions []Transaction
	PastDisputes []PastDispute
	MerchantRisk []MerchantRisk
	NetworkRules []NetworkRule
	Policies     []DisputePolicy
}

// InMemory serves Repository queries from tables loaded once at startup.
// All queries read the immutable snapshot, so InMemory is safe for
// concurrent use without locking.
type InMemory struct {
	tables Tables
}

// NewInMemory constructs a repository over pre-built tables. Used by tests
// and anywhere the data does not come from CSV files.
func NewInMemory(tables Tables) *InMemory {
	return &InMemory{tables: tables}
}

// Load reads every reference table from CSV files under dir and returns a
// repository over the result. The five tables load concurrently; the first
// failure aborts the load.
func Load(ctx context.Context, dir string) (*InMemory, error) {
	var tables Tables

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tables.Transactions, err = loadCSV(ctx, filepath.Join(dir, "transactions.csv"), parseTransaction)
		return err
	})
	g.Go(func() error {
		var err error
		tables.PastDisputes, err = loadCSV(ctx, filepath.Join(dir, "past_disputes.csv"), parsePastDispute)
		return err
	})
	g.Go(func() error {
		var err error
		tables.MerchantRisk, err = loadCSV(ctx, filepath.Join(dir, "merchant_risk.csv"), parseMerchantRisk)
		return err
	})
	g.Go(func() error {
		var err error
		tables.NetworkRules, err = loadCSV(ctx, filepath.Join(dir, "network_rules.csv"), parseNetworkRule)
		return err
	})
	g.Go(func() error {
		var err error
		tables.Policies, err = loadCSV(ctx, filepath.Join(dir, "dispute_policies.csv"), parseDisputePolicy)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewInMemory(tables), nil
}

// row exposes a CSV record's fields by column name.
type row struct {
	columns map[string]int
	fields  []string
}

func (r row) str(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r row) float(name string) float64 {
	v, _ := strconv.ParseFloat(r.str(name), 64)
	return v
}

func (r row) int(name string) int {
	v, _ := strconv.Atoi(r.str(name))
	return v
}

func (r row) bool(name string) bool {
	v, _ := strconv.ParseBool(strings.ToLower(r.str(name)))
	return v
}

// loadCSV reads one CSV file and converts every record with parse.
func loadCSV[T any](ctx context.Context, path string, parse func(row) T) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header row", filepath.Base(path))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.TrimSpace(name)] = i
	}

	out := make([]T, 0, len(records)-1)
	for _, rec := range records[1:] {
		out = append(out, parse(row{columns: columns, fields: rec}))
	}
	return out, nil
}

func parseTransaction(r row) Transaction {
	return Transaction{
		TransactionID:    r.str("transaction_id"),
		CustomerID:       r.str("customer_id"),
		CardNumber:       r.str("card_number"),
		CardLastFour:     r.str("card_last_four"),
		MerchantName:     r.str("merchant_name"),
		MerchantCategory: r.str("merchant_category"),
		Amount:           r.float("amount"),
		Currency:         r.str("currency"),
		TransactionDate:  r.str("transaction_date"),
		TransactionTime:  r.str("transaction_time"),
		Status:           r.str("status"),
		Description:      r.str("description"),
		Location:         r.str("location"),
		MCCCode:          r.int("mcc_code"),
		AuthCode:         r.str("auth_code"),
	}
}

func parsePastDispute(r row) PastDispute {
	return PastDispute{
		DisputeID:       r.str("dispute_id"),
		TransactionID:   r.str("transaction_id"),
		CustomerID:      r.str("customer_id"),
		MerchantName:    r.str("merchant_name"),
		DisputeReason:   r.str("dispute_reason"),
		DisputeCategory: r.str("dispute_category"),
		Amount:          r.float("amount"),
		DisputeDate:     r.str("dispute_date"),
		Resolution:      r.str("resolution"),
		ResolutionDate:  r.str("resolution_date"),
		Notes:           r.str("notes"),
		SimilarCases:    r.int("similar_cases"),
	}
}

func parseMerchantRisk(r row) MerchantRisk {
	return MerchantRisk{
		MerchantName:         r.str("merchant_name"),
		MerchantID:           r.str("merchant_id"),
		RiskScore:            r.float("risk_score"),
		DisputeRate:          r.float("dispute_rate"),
		FraudIncidents90d:    r.int("fraud_incidents_90d"),
		TotalTransactions90d: r.int("total_transactions_90d"),
		AvgTransactionAmount: r.float("avg_transaction_amount"),
		HighRiskTransactions: r.int("high_risk_transactions"),
		ComplianceScore:      r.float("compliance_score"),
		LastUpdated:          r.str("last_updated"),
		RiskFactors:          r.str("risk_factors"),
	}
}

func parseNetworkRule(r row) NetworkRule {
	return NetworkRule{
		RuleID:                r.str("rule_id"),
		Network:               r.str("network"),
		RuleType:              r.str("rule_type"),
		Description:           r.str("description"),
		TimeLimitDays:         r.int("time_limit_days"),
		LiabilityShift:        r.str("liability_shift"),
		DocumentationRequired: r.str("documentation_required"),
		SuccessRate:           r.float("success_rate"),
	}
}

func parseDisputePolicy(r row) DisputePolicy {
	return DisputePolicy{
		PolicyID:                r.str("policy_id"),
		Category:                r.str("category"),
		Subcategory:             r.str("subcategory"),
		TimeLimitHours:          r.int("time_limit_hours"),
		MaxAmount:               r.float("max_amount"),
		AutoApproveThreshold:    r.float("auto_approve_threshold"),
		InvestigationRequired:   r.bool("investigation_required"),
		TemporaryCreditEligible: r.bool("temporary_credit_eligible"),
		DocumentationRequired:   parseDocList(r.str("documentation_required")),
		ProcessingTimeDays:      r.int("processing_time_days"),
		SuccessRate:             r.float("success_rate"),
	}
}

// parseDocList accepts either a bracketed list literal like
// ['receipt', 'statement'] or a plain comma-separated string.
func parseDocList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}

	var docs []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			docs = append(docs, part)
		}
	}
	return docs
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FindTransaction implements Repository.
func (m *InMemory) FindTransaction(ctx context.Context, cardLastFour string, amount float64, merchantName string) (*Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, tx := range m.tables.Transactions {
		if tx.CardLastFour != cardLastFour {
			continue
		}
		diff := tx.Amount - amount
		if diff < -amountTolerance || diff > amountTolerance {
			continue
		}
		if !containsFold(tx.MerchantName, merchantName) {
			continue
		}
		found := tx
		return &found, nil
	}
	return nil, nil
}

// TransactionsByCard implements Repository.
func (m *InMemory) TransactionsByCard(ctx context.Context, cardLastFour string) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Transaction
	for _, tx := range m.tables.Transactions {
		if tx.CardLastFour == cardLastFour {
			out = append(out, tx)
		}
	}
	return out, nil
}

// DisputesByMerchant implements Repository.
func (m *InMemory) DisputesByMerchant(ctx context.Context, merchantName string) ([]PastDispute, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []PastDispute
	for _, d := range m.tables.PastDisputes {
		if containsFold(d.MerchantName, merchantName) {
			out = append(out, d)
		}
	}
	return out, nil
}

// DisputesByCustomer implements Repository.
func (m *InMemory) DisputesByCustomer(ctx context.Context, customerID string) ([]PastDispute, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []PastDispute
	for _, d := range m.tables.PastDisputes {
		if d.CustomerID == customerID {
			out = append(out, d)
		}
	}
	return out, nil
}

// MerchantRisk implements Repository.
func (m *InMemory) MerchantRisk(ctx context.Context, merchantName string) (*MerchantRisk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range m.tables.MerchantRisk {
		if containsFold(r.MerchantName, merchantName) {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

// NetworkRules implements Repository.
func (m *InMemory) NetworkRules(ctx context.Context, category string) ([]NetworkRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ruleType, ok := categoryRuleTypes[category]
	if !ok {
		ruleType = category
	}
	var out []NetworkRule
	for _, r := range m.tables.NetworkRules {
		if containsFold(r.RuleType, ruleType) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Policies implements Repository.
func (m *InMemory) Policies(ctx context.Context, category string, amount float64) ([]DisputePolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []DisputePolicy
	for _, p := range m.tables.Policies {
		if !containsFold(p.Category, category) {
			continue
		}
		if amount > 0 && p.MaxAmount < amount {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Merchants implements Repository.
func (m *InMemory) Merchants(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range m.tables.Transactions {
		if _, ok := seen[tx.MerchantName]; ok {
			continue
		}
		seen[tx.MerchantName] = struct{}{}
		out = append(out, tx.MerchantName)
	}
	return out, nil
}

// TransactionStats implements Repository.
func (m *InMemory) TransactionStats(ctx context.Context) (*TransactionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &TransactionStats{TotalTransactions: len(m.tables.Transactions)}
	merchants := make(map[string]struct{})
	customers := make(map[string]struct{})
	for _, tx := range m.tables.Transactions {
		stats.TotalAmount += tx.Amount
		merchants[tx.MerchantName] = struct{}{}
		customers[tx.CustomerID] = struct{}{}
		if stats.DateRangeStart == "" || tx.TransactionDate < stats.DateRangeStart {
			stats.DateRangeStart = tx.TransactionDate
		}
		if tx.TransactionDate > stats.DateRangeEnd {
			stats.DateRangeEnd = tx.TransactionDate
		}
	}
	stats.UniqueMerchants = len(merchants)
	stats.UniqueCustomers = len(customers)
	if stats.TotalTransactions > 0 {
		stats.AvgAmount = stats.TotalAmount / float64(stats.TotalTransactions)
	}
	return stats, nil
}
