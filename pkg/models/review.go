package models

import "time"

// ReviewDecision is the verdict a human reviewer records on a parked execution.
type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "approved"
	ReviewDecisionRejected ReviewDecision = "rejected"
)

// Valid reports whether d is one of the two allowed reviewer verdicts.
func (d ReviewDecision) Valid() bool {
	return d == ReviewDecisionApproved || d == ReviewDecisionRejected
}

// ReviewRequest parks an execution awaiting a human approve/reject decision.
// It is created only when the engine decides flag_for_review and is stamped
// exactly once; once Decision is set the request is terminal.
type ReviewRequest struct {
	ID                  string          `json:"id"`
	WorkflowExecutionID string          `json:"workflow_execution_id"`
	WorkflowType        WorkflowType    `json:"workflow_type"`
	RequestedAt         time.Time       `json:"requested_at"`
	Priority            string          `json:"priority,omitempty"`
	Data                map[string]any  `json:"data,omitempty"`
	Flags               []string        `json:"flags,omitempty"`
	Reason              string          `json:"reason"`
	Reviewer            string          `json:"reviewer,omitempty"`
	ReviewedAt          *time.Time      `json:"reviewed_at,omitempty"`
	Decision            *ReviewDecision `json:"decision,omitempty"`
	Notes               string          `json:"notes,omitempty"`
}

// Decided reports whether the request has already been stamped.
func (r *ReviewRequest) Decided() bool {
	return r.Decision != nil
}
