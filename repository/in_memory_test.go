package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTables() Tables {
	return Tables{
		Transactions: []Transaction{
			{
				TransactionID: "TXN001", CustomerID: "CUST001", CardLastFour: "1234",
				MerchantName: "TechStore Online", Amount: 250.00, TransactionDate: "2026-01-10",
			},
			{
				TransactionID: "TXN002", CustomerID: "CUST001", CardLastFour: "1234",
				MerchantName: "QuickMart", Amount: 42.50, TransactionDate: "2026-01-12",
			},
			{
				TransactionID: "TXN003", CustomerID: "CUST002", CardLastFour: "5678",
				MerchantName: "TechStore Online", Amount: 99.99, TransactionDate: "2026-01-15",
			},
		},
		PastDisputes: []PastDispute{
			{DisputeID: "DSP001", CustomerID: "CUST001", MerchantName: "TechStore Online", Resolution: "Approved"},
			{DisputeID: "DSP002", CustomerID: "CUST002", MerchantName: "QuickMart", Resolution: "Denied"},
			{DisputeID: "DSP003", CustomerID: "CUST001", MerchantName: "TechStore Online", Resolution: "Approved"},
		},
		MerchantRisk: []MerchantRisk{
			{MerchantName: "TechStore Online", RiskScore: 7.2},
		},
		NetworkRules: []NetworkRule{
			{RuleID: "VR001", Network: "Visa", RuleType: "Fraud", SuccessRate: 85.0},
			{RuleID: "VR002", Network: "Visa", RuleType: "Processing Error", SuccessRate: 78.0},
			{RuleID: "MC001", Network: "Mastercard", RuleType: "Authorization", SuccessRate: 72.0},
		},
		Policies: []DisputePolicy{
			{PolicyID: "POL001", Category: "Fraud", MaxAmount: 5000.00},
			{PolicyID: "POL002", Category: "Fraud", MaxAmount: 100.00},
			{PolicyID: "POL003", Category: "Billing Error", MaxAmount: 2500.00},
		},
	}
}

func TestFindTransaction(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory(testTables())

	t.Run("exact match", func(t *testing.T) {
		tx, err := repo.FindTransaction(ctx, "1234", 250.00, "TechStore")
		require.NoError(t, err)
		require.NotNil(t, tx)
		assert.Equal(t, "TXN001", tx.TransactionID)
	})

	t.Run("amount within tolerance", func(t *testing.T) {
		tx, err := repo.FindTransaction(ctx, "1234", 250.005, "techstore")
		require.NoError(t, err)
		require.NotNil(t, tx)
	})

	t.Run("no match returns nil without error", func(t *testing.T) {
		tx, err := repo.FindTransaction(ctx, "1234", 999.99, "TechStore")
		require.NoError(t, err)
		assert.Nil(t, tx)
	})

	t.Run("merchant substring is case insensitive", func(t *testing.T) {
		tx, err := repo.FindTransaction(ctx, "5678", 99.99, "TECHSTORE")
		require.NoError(t, err)
		require.NotNil(t, tx)
		assert.Equal(t, "TXN003", tx.TransactionID)
	})
}

func TestDisputeQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory(testTables())

	disputes, err := repo.DisputesByMerchant(ctx, "techstore")
	require.NoError(t, err)
	assert.Len(t, disputes, 2)

	disputes, err = repo.DisputesByCustomer(ctx, "CUST001")
	require.NoError(t, err)
	assert.Len(t, disputes, 2)

	disputes, err = repo.DisputesByCustomer(ctx, "CUST999")
	require.NoError(t, err)
	assert.Empty(t, disputes)
}

func TestMerchantRiskLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory(testTables())

	risk, err := repo.MerchantRisk(ctx, "TechStore")
	require.NoError(t, err)
	require.NotNil(t, risk)
	assert.InDelta(t, 7.2, risk.RiskScore, 0.001)

	risk, err = repo.MerchantRisk(ctx, "Unknown Merchant")
	require.NoError(t, err)
	assert.Nil(t, risk)
}

func TestNetworkRulesCategoryMapping(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory(testTables())

	tests := []struct {
		category string
		wantRule string
	}{
		{"Fraud", "VR001"},
		{"Billing Error", "VR002"},
		{"Authorization Issue", "MC001"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			rules, err := repo.NetworkRules(ctx, tt.category)
			require.NoError(t, err)
			require.Len(t, rules, 1)
			assert.Equal(t, tt.wantRule, rules[0].RuleID)
		})
	}
}

func TestPolicies(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory(testTables())

	t.Run("filters by max amount", func(t *testing.T) {
		policies, err := repo.Policies(ctx, "Fraud", 250.00)
		require.NoError(t, err)
		require.Len(t, policies, 1)
		assert.Equal(t, "POL001", policies[0].PolicyID)
	})

	t.Run("zero amount returns all category policies", func(t *testing.T) {
		policies, err := repo.Policies(ctx, "Fraud", 0)
		require.NoError(t, err)
		assert.Len(t, policies, 2)
	})
}

func TestMerchantsAndStats(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory(testTables())

	merchants, err := repo.Merchants(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"TechStore Online", "QuickMart"}, merchants)

	stats, err := repo.TransactionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTransactions)
	assert.InDelta(t, 392.49, stats.TotalAmount, 0.001)
	assert.Equal(t, 2, stats.UniqueMerchants)
	assert.Equal(t, 2, stats.UniqueCustomers)
	assert.Equal(t, "2026-01-10", stats.DateRangeStart)
	assert.Equal(t, "2026-01-15", stats.DateRangeEnd)
}

func TestLoadFromCSV(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"transactions.csv": "transaction_id,customer_id,card_number,card_last_four,merchant_name,merchant_category,amount,currency,transaction_date,transaction_time,status,description,location,mcc_code,auth_code\n" +
			"TXN001,CUST001,4111111111111234,1234,TechStore Online,Electronics,250.00,USD,2026-01-10,14:22:05,Completed,Laptop accessories,New York NY,5732,A12345\n",
		"past_disputes.csv": "dispute_id,transaction_id,customer_id,merchant_name,dispute_reason,dispute_category,amount,dispute_date,resolution,resolution_date,notes,similar_cases\n" +
			"DSP001,TXN900,CUST001,TechStore Online,Unauthorized charge,Fraud,120.00,2025-11-02,Approved,2025-11-12,Customer refunded,3\n",
		"merchant_risk.csv": "merchant_name,merchant_id,risk_score,dispute_rate,fraud_incidents_90d,total_transactions_90d,avg_transaction_amount,high_risk_transactions,compliance_score,last_updated,risk_factors\n" +
			"TechStore Online,MER001,7.2,0.04,12,3400,185.20,40,88.5,2026-01-01,High online fraud exposure\n",
		"network_rules.csv": "rule_id,network,rule_type,description,time_limit_days,liability_shift,documentation_required,success_rate\n" +
			"VR001,Visa,Fraud,Unauthorized transaction,120,Issuer,Transaction records,85.0\n",
		"dispute_policies.csv": "policy_id,category,subcategory,time_limit_hours,max_amount,auto_approve_threshold,investigation_required,temporary_credit_eligible,documentation_required,processing_time_days,success_rate\n" +
			`POL001,Fraud,Card Not Present,48,5000.00,100.00,true,true,"['police_report', 'statement']",10,82.0` + "\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	repo, err := Load(context.Background(), dir)
	require.NoError(t, err)

	ctx := context.Background()

	tx, err := repo.FindTransaction(ctx, "1234", 250.00, "TechStore")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, 5732, tx.MCCCode)
	assert.Equal(t, "A12345", tx.AuthCode)

	policies, err := repo.Policies(ctx, "Fraud", 250.00)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.True(t, policies[0].InvestigationRequired)
	assert.Equal(t, []string{"police_report", "statement"}, policies[0].DocumentationRequired)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	assert.Error(t, err)
}
