package models

// Decision is the Decision Engine's verdict for one execution.
type Decision string

const (
	DecisionAutoApprove   Decision = "auto_approve"
	DecisionFlagForReview Decision = "flag_for_review"
	DecisionReject        Decision = "reject"
)

// rank orders decisions by strictness; higher dominates.
func (d Decision) rank() int {
	switch d {
	case DecisionReject:
		return 2
	case DecisionFlagForReview:
		return 1
	default:
		return 0
	}
}

// Stricter returns the stricter of the two decisions. Reject dominates
// flag_for_review, which dominates auto_approve.
func (d Decision) Stricter(other Decision) Decision {
	if other.rank() > d.rank() {
		return other
	}

	return d
}

// ThresholdCheck records the outcome of one quantitative policy comparison.
type ThresholdCheck struct {
	Name      string `json:"name"`
	Value     int64  `json:"value"`
	Threshold int64  `json:"threshold"`
	Passed    bool   `json:"passed"`
}

// DecisionLogic is the pure output of the Decision Engine. It is immutable
// once produced and attached verbatim to the owning execution.
type DecisionLogic struct {
	Decision             Decision         `json:"decision"`
	Reason               string           `json:"reason"`
	RulesFired           []string         `json:"rules_fired"`
	Confidence           float64          `json:"confidence"`
	Flags                []string         `json:"flags"`
	AutoApprovalEligible bool             `json:"auto_approval_eligible"`
	ThresholdChecks      []ThresholdCheck `json:"threshold_checks"`
}
