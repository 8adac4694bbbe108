// Package decision implements the pure policy evaluator for the payroll
// pipeline. Evaluate performs no I/O and is deterministic given identical
// inputs, which keeps every policy branch unit-testable.
package decision

import (
	"encoding/json"
	"fmt"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/settlement"
)

// Config is the policy configuration the engine evaluates against. The
// approval threshold comes from deployment configuration, never from code.
type Config struct {
	ApprovalThresholdCents int64        `json:"approval_threshold_cents"`
	Rules                  []PolicyRule `json:"rules,omitempty"`
}

// Payee is the decision-layer view of one payout recipient.
type Payee struct {
	ID            string               `json:"id"`
	WalletAddress string               `json:"wallet_address"`
	NetPayCents   int64                `json:"net_pay_cents"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// Engine evaluates workflow inputs against policy rules. It is stateless and
// safe for concurrent use across executions.
type Engine struct {
	evaluator    *exprEvaluator
	addressValid func(string) bool
}

// NewEngine creates a decision engine using the settlement network's address
// format for wallet validation.
func NewEngine() *Engine {
	return &Engine{
		evaluator:    newExprEvaluator(),
		addressValid: settlement.ValidAddress,
	}
}

// Evaluate applies the policy rules for the given workflow type and returns
// the combined verdict. Structural preconditions (wallet validity, payee
// eligibility) short-circuit to reject; all remaining rules are evaluated and
// the strictest triggered outcome wins.
func (e *Engine) Evaluate(workflowType models.WorkflowType, data map[string]any, cfg Config) (*models.DecisionLogic, error) {
	logic := &models.DecisionLogic{
		Decision:        models.DecisionAutoApprove,
		RulesFired:      []string{},
		Flags:           []string{},
		ThresholdChecks: []models.ThresholdCheck{},
		Confidence:      1.0,
	}

	payees, err := payeesFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payees: %w", err)
	}

	// Structural preconditions: a malformed destination or an ineligible
	// payee is a data error, not a judgment call.
	if rejected := e.checkWalletValidity(payees, logic); rejected {
		return logic, nil
	}

	if rejected := e.checkPayeeEligibility(payees, logic); rejected {
		return logic, nil
	}

	totalCents := totalAmountCents(data, payees)

	e.checkAmountThreshold(totalCents, cfg, logic)

	if err := e.applyPolicyRules(workflowType, data, payees, totalCents, cfg, logic); err != nil {
		return nil, err
	}

	logic.AutoApprovalEligible = logic.Decision == models.DecisionAutoApprove

	switch logic.Decision {
	case models.DecisionAutoApprove:
		logic.Reason = "all policy checks passed"
	case models.DecisionFlagForReview:
		logic.Reason = "policy checks require human sign-off"
	case models.DecisionReject:
		logic.Reason = "policy checks rejected the request"
	}

	return logic, nil
}

// checkWalletValidity rejects the whole batch when any destination address
// does not match the settlement network's format.
func (e *Engine) checkWalletValidity(payees []Payee, logic *models.DecisionLogic) bool {
	invalid := 0

	for _, payee := range payees {
		if !e.addressValid(payee.WalletAddress) {
			invalid++
		}
	}

	if invalid == 0 {
		return false
	}

	logic.Decision = models.DecisionReject
	logic.Reason = "invalid wallet address"
	logic.RulesFired = append(logic.RulesFired, "wallet-validity")
	logic.Flags = append(logic.Flags, fmt.Sprintf("%d payee(s) with invalid wallet address", invalid))
	logic.Confidence = 1.0

	return true
}

// checkPayeeEligibility rejects when any payee is not in an eligible payment
// state. Non-active payees represent a data error rather than a matter for
// reviewer discretion.
func (e *Engine) checkPayeeEligibility(payees []Payee, logic *models.DecisionLogic) bool {
	ineligible := 0

	for _, payee := range payees {
		if !payee.PaymentStatus.PayEligible() {
			ineligible++
		}
	}

	if ineligible == 0 {
		return false
	}

	logic.Decision = models.DecisionReject
	logic.Reason = "ineligible payee state"
	logic.RulesFired = append(logic.RulesFired, "employee-state")
	logic.Flags = append(logic.Flags, fmt.Sprintf("%d payee(s) not in an eligible payment state", ineligible))
	logic.Confidence = 1.0

	return true
}

// checkAmountThreshold flags batches at or above the configured approval
// threshold for review. A large batch is plausible, it merely needs sign-off.
func (e *Engine) checkAmountThreshold(totalCents int64, cfg Config, logic *models.DecisionLogic) {
	if cfg.ApprovalThresholdCents <= 0 || totalCents <= 0 {
		return
	}

	passed := totalCents < cfg.ApprovalThresholdCents
	logic.ThresholdChecks = append(logic.ThresholdChecks, models.ThresholdCheck{
		Name:      "approval-amount",
		Value:     totalCents,
		Threshold: cfg.ApprovalThresholdCents,
		Passed:    passed,
	})

	if passed {
		return
	}

	logic.Decision = logic.Decision.Stricter(models.DecisionFlagForReview)
	logic.RulesFired = append(logic.RulesFired, "amount-threshold")
	logic.Flags = append(logic.Flags, fmt.Sprintf(
		"total amount %d cents meets or exceeds approval threshold %d cents",
		totalCents, cfg.ApprovalThresholdCents))
	logic.Confidence -= 0.2
}

// applyPolicyRules evaluates every configured rule and merges triggered
// outcomes under the strictest-outcome tie-break.
func (e *Engine) applyPolicyRules(workflowType models.WorkflowType, data map[string]any, payees []Payee, totalCents int64, cfg Config, logic *models.DecisionLogic) error {
	if len(cfg.Rules) == 0 {
		return nil
	}

	env := map[string]any{
		"workflow_type":      string(workflowType),
		"total_amount_cents": totalCents,
		"employee_count":     len(payees),
	}

	for key, value := range data {
		if _, reserved := env[key]; !reserved {
			env[key] = value
		}
	}

	for _, rule := range cfg.Rules {
		fired, err := e.evaluator.evaluate(rule.Expression, env)
		if err != nil {
			return fmt.Errorf("policy rule %q: %w", rule.Name, err)
		}

		if !fired {
			continue
		}

		logic.Decision = logic.Decision.Stricter(rule.Outcome)
		logic.RulesFired = append(logic.RulesFired, rule.Name)

		if rule.Flag != "" {
			logic.Flags = append(logic.Flags, rule.Flag)
		}

		logic.Confidence -= 0.1
	}

	if logic.Confidence < 0 {
		logic.Confidence = 0
	}

	return nil
}

// payeesFromData decodes the employees entry of a workflow input payload.
func payeesFromData(data map[string]any) ([]Payee, error) {
	raw, ok := data["employees"]
	if !ok {
		return nil, nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var payees []Payee
	if err := json.Unmarshal(encoded, &payees); err != nil {
		return nil, err
	}

	return payees, nil
}

// totalAmountCents reads the declared batch total, falling back to the sum of
// payee amounts when the input does not carry one.
func totalAmountCents(data map[string]any, payees []Payee) int64 {
	switch v := data["total_amount_cents"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}

	var total int64
	for _, payee := range payees {
		total += payee.NetPayCents
	}

	return total
}
