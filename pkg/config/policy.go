// Package config provides configuration loading for the decision policy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/paydeck/paydeck/pkg/decision"
	"github.com/paydeck/paydeck/pkg/models"
)

// PolicyFile represents the structure of the policy.yaml file.
type PolicyFile struct {
	ApprovalThresholdCents int64            `yaml:"approval_threshold_cents"`
	Rules                  []PolicyRuleFile `yaml:"rules"`
}

// PolicyRuleFile represents one rule entry in the YAML file.
type PolicyRuleFile struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Outcome    string `yaml:"outcome"`
	Flag       string `yaml:"flag"`
}

// LoadPolicy loads the decision policy from a YAML file.
func LoadPolicy(filepath string) (decision.Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return decision.Config{}, fmt.Errorf("failed to read policy file %s: %w", filepath, err)
	}

	var policyFile PolicyFile
	if err := yaml.Unmarshal(data, &policyFile); err != nil {
		return decision.Config{}, fmt.Errorf("failed to parse YAML policy: %w", err)
	}

	cfg := decision.Config{
		ApprovalThresholdCents: policyFile.ApprovalThresholdCents,
		Rules:                  make([]decision.PolicyRule, len(policyFile.Rules)),
	}

	for i, rule := range policyFile.Rules {
		cfg.Rules[i] = decision.PolicyRule{
			Name:       rule.Name,
			Expression: rule.Expression,
			Outcome:    models.Decision(rule.Outcome),
			Flag:       rule.Flag,
		}
	}

	if err := ValidatePolicy(cfg); err != nil {
		return decision.Config{}, err
	}

	return cfg, nil
}

// LoadPolicyOrDefault attempts to load the policy from a file, falling back
// to the default policy with the given threshold when no file is configured
// or readable.
func LoadPolicyOrDefault(filepath string, thresholdCents int64) decision.Config {
	if filepath == "" {
		return DefaultPolicy(thresholdCents)
	}

	cfg, err := LoadPolicy(filepath)
	if err != nil {
		return DefaultPolicy(thresholdCents)
	}

	return cfg
}

// DefaultPolicy returns the built-in policy: the configured approval
// threshold plus a headcount guard against runaway batches.
func DefaultPolicy(thresholdCents int64) decision.Config {
	return decision.Config{
		ApprovalThresholdCents: thresholdCents,
		Rules: []decision.PolicyRule{
			{
				Name:       "large-headcount",
				Expression: "employee_count > 250",
				Outcome:    models.DecisionFlagForReview,
				Flag:       "batch exceeds 250 employees",
			},
		},
	}
}

// ValidatePolicy validates the policy configuration.
func ValidatePolicy(cfg decision.Config) error {
	if cfg.ApprovalThresholdCents < 0 {
		return fmt.Errorf("approval threshold must not be negative, got %d", cfg.ApprovalThresholdCents)
	}

	for _, rule := range cfg.Rules {
		if rule.Name == "" {
			return fmt.Errorf("policy rule with expression %q has no name", rule.Expression)
		}

		if rule.Expression == "" {
			return fmt.Errorf("policy rule %q has no expression", rule.Name)
		}

		switch rule.Outcome {
		case models.DecisionAutoApprove, models.DecisionFlagForReview, models.DecisionReject:
		default:
			return fmt.Errorf("policy rule %q has invalid outcome %q", rule.Name, rule.Outcome)
		}
	}

	return nil
}
