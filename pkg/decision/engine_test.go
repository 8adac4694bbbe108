package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/models"
)

const (
	validWalletA = "0x1111111111111111111111111111111111111111"
	validWalletB = "0x2222222222222222222222222222222222222222"
	validWalletC = "0x3333333333333333333333333333333333333333"
)

func payrollData(netCentsPerEmployee int64, wallets ...string) map[string]any {
	employees := make([]map[string]any, 0, len(wallets))
	var total int64

	for i, wallet := range wallets {
		employees = append(employees, map[string]any{
			"id":             string(rune('a' + i)),
			"wallet_address": wallet,
			"net_pay_cents":  netCentsPerEmployee,
			"payment_status": "pending",
		})
		total += netCentsPerEmployee
	}

	return map[string]any{
		"employees":          employees,
		"total_amount_cents": total,
	}
}

func TestEvaluateAutoApprovesUnderThreshold(t *testing.T) {
	engine := NewEngine()

	// Three employees at $500 each against a $5,000 threshold.
	data := payrollData(50_000, validWalletA, validWalletB, validWalletC)
	cfg := Config{ApprovalThresholdCents: 500_000}

	logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionAutoApprove, logic.Decision)
	assert.True(t, logic.AutoApprovalEligible)
	assert.Empty(t, logic.RulesFired)
	assert.InDelta(t, 1.0, logic.Confidence, 0.001)

	require.Len(t, logic.ThresholdChecks, 1)
	assert.True(t, logic.ThresholdChecks[0].Passed)
	assert.Equal(t, int64(150_000), logic.ThresholdChecks[0].Value)
}

func TestEvaluateFlagsAboveThreshold(t *testing.T) {
	engine := NewEngine()

	// A $20,000 batch against a $10,000 threshold.
	data := payrollData(2_000_000, validWalletA)
	cfg := Config{ApprovalThresholdCents: 1_000_000}

	logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionFlagForReview, logic.Decision)
	assert.False(t, logic.AutoApprovalEligible)
	assert.Contains(t, logic.RulesFired, "amount-threshold")
	assert.NotEmpty(t, logic.Flags)
	assert.Less(t, logic.Confidence, 1.0)
}

func TestEvaluateFlagsExactlyAtThreshold(t *testing.T) {
	engine := NewEngine()

	data := payrollData(1_000_000, validWalletA)
	cfg := Config{ApprovalThresholdCents: 1_000_000}

	logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionFlagForReview, logic.Decision)
	require.Len(t, logic.ThresholdChecks, 1)
	assert.False(t, logic.ThresholdChecks[0].Passed)
}

func TestEvaluateRejectsInvalidWalletRegardlessOfAmount(t *testing.T) {
	engine := NewEngine()
	cfg := Config{ApprovalThresholdCents: 1_000_000}

	tests := []struct {
		name        string
		centsEach   int64
		badWallet   string
	}{
		{name: "small batch", centsEach: 100, badWallet: "not-a-wallet"},
		{name: "batch above threshold", centsEach: 5_000_000, badWallet: "0x123"},
		{name: "missing hex prefix", centsEach: 50_000, badWallet: "1111111111111111111111111111111111111111 11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := payrollData(tt.centsEach, validWalletA, tt.badWallet)

			logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
			require.NoError(t, err)

			assert.Equal(t, models.DecisionReject, logic.Decision)
			assert.Equal(t, "invalid wallet address", logic.Reason)
			assert.Contains(t, logic.RulesFired, "wallet-validity")
			assert.False(t, logic.AutoApprovalEligible)
		})
	}
}

func TestEvaluateRejectsIneligiblePayee(t *testing.T) {
	engine := NewEngine()

	data := map[string]any{
		"employees": []map[string]any{
			{
				"id":             "emp-1",
				"wallet_address": validWalletA,
				"net_pay_cents":  50_000,
				"payment_status": "inactive",
			},
		},
	}

	logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, Config{ApprovalThresholdCents: 1_000_000})
	require.NoError(t, err)

	assert.Equal(t, models.DecisionReject, logic.Decision)
	assert.Contains(t, logic.RulesFired, "employee-state")
}

func TestEvaluateAppliesPolicyRules(t *testing.T) {
	engine := NewEngine()

	cfg := Config{
		ApprovalThresholdCents: 10_000_000,
		Rules: []PolicyRule{
			{
				Name:       "headcount-guard",
				Expression: "employee_count > 2",
				Outcome:    models.DecisionFlagForReview,
				Flag:       "large batch",
			},
			{
				Name:       "never-fires",
				Expression: "total_amount_cents > 100000000",
				Outcome:    models.DecisionReject,
			},
		},
	}

	data := payrollData(50_000, validWalletA, validWalletB, validWalletC)

	logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionFlagForReview, logic.Decision)
	assert.Equal(t, []string{"headcount-guard"}, logic.RulesFired)
	assert.Contains(t, logic.Flags, "large batch")
	assert.InDelta(t, 0.9, logic.Confidence, 0.001)
}

func TestEvaluateStrictestOutcomeWins(t *testing.T) {
	engine := NewEngine()

	cfg := Config{
		ApprovalThresholdCents: 10_000_000,
		Rules: []PolicyRule{
			{
				Name:       "flagging-rule",
				Expression: "employee_count > 0",
				Outcome:    models.DecisionFlagForReview,
			},
			{
				Name:       "rejecting-rule",
				Expression: "total_amount_cents > 0",
				Outcome:    models.DecisionReject,
			},
		},
	}

	data := payrollData(50_000, validWalletA)

	logic, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionReject, logic.Decision)
	assert.ElementsMatch(t, []string{"flagging-rule", "rejecting-rule"}, logic.RulesFired)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	engine := NewEngine()

	data := payrollData(2_000_000, validWalletA, validWalletB)
	cfg := Config{
		ApprovalThresholdCents: 1_000_000,
		Rules: []PolicyRule{
			{Name: "pair", Expression: "employee_count == 2", Outcome: models.DecisionFlagForReview},
		},
	}

	first, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	second, err := engine.Evaluate(models.WorkflowTypePayrollApproval, data, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluateNoPayeesUsesDeclaredTotal(t *testing.T) {
	engine := NewEngine()

	data := map[string]any{"total_amount_cents": 2_000_000}

	logic, err := engine.Evaluate(models.WorkflowTypeComplianceCheck, data, Config{ApprovalThresholdCents: 1_000_000})
	require.NoError(t, err)

	assert.Equal(t, models.DecisionFlagForReview, logic.Decision)
}

func TestEvaluateBadRuleExpressionFails(t *testing.T) {
	engine := NewEngine()

	cfg := Config{
		Rules: []PolicyRule{
			{Name: "broken", Expression: "employee_count +", Outcome: models.DecisionReject},
		},
	}

	_, err := engine.Evaluate(models.WorkflowTypePayrollApproval, payrollData(100, validWalletA), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestStricter(t *testing.T) {
	assert.Equal(t, models.DecisionReject, models.DecisionFlagForReview.Stricter(models.DecisionReject))
	assert.Equal(t, models.DecisionReject, models.DecisionReject.Stricter(models.DecisionAutoApprove))
	assert.Equal(t, models.DecisionFlagForReview, models.DecisionAutoApprove.Stricter(models.DecisionFlagForReview))
	assert.Equal(t, models.DecisionAutoApprove, models.DecisionAutoApprove.Stricter(models.DecisionAutoApprove))
}
