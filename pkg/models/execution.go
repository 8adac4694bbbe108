// Package models defines the core domain models for the payroll decision-and-settlement pipeline.
package models

import "time"

// WorkflowType identifies the policy family an execution is evaluated under.
type WorkflowType string

const (
	WorkflowTypePayrollApproval WorkflowType = "payroll-approval"
	WorkflowTypeOnboardingCheck WorkflowType = "onboarding-check"
	WorkflowTypeComplianceCheck WorkflowType = "compliance-check"
)

// ExecutionStatus represents the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusCompleted ExecutionStatus = "completed" // Settlement confirmed (or no settlement required)
	ExecutionStatusPending   ExecutionStatus = "pending"   // Suspended awaiting a human review decision
	ExecutionStatusRejected  ExecutionStatus = "rejected"  // Rejected by policy or by a reviewer
	ExecutionStatusFailed    ExecutionStatus = "failed"    // Settlement submission exhausted retries
)

// Terminal reports whether the execution can no longer change state.
func (s ExecutionStatus) Terminal() bool {
	return s != ExecutionStatusPending
}

// StageName identifies one of the six fixed pipeline stages.
type StageName string

const (
	StageIntake     StageName = "intake"
	StageUnderstand StageName = "understand"
	StageDecide     StageName = "decide"
	StageReview     StageName = "review"
	StageExecute    StageName = "execute"
	StageDeliver    StageName = "deliver"
)

// StepStatus represents the outcome of a single pipeline stage.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusSuspended StepStatus = "suspended"
)

// WorkflowInput is the immutable payload a caller hands to the pipeline.
type WorkflowInput struct {
	WorkflowType WorkflowType   `json:"workflow_type" validate:"required"`
	Data         map[string]any `json:"data"          validate:"required"`
	Metadata     InputMetadata  `json:"metadata"`
}

// InputMetadata carries caller-supplied context for an input.
type InputMetadata struct {
	Priority    string `json:"priority,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// WorkflowStep records one pipeline stage's run. A step is appended when the
// stage starts and closed exactly once; it is never mutated afterwards.
type WorkflowStep struct {
	Step       StageName      `json:"step"`
	Name       string         `json:"name"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Status     StepStatus     `json:"status"`
	Result     map[string]any `json:"result,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
}

// Close stamps the step's end time, duration and status.
func (s *WorkflowStep) Close(status StepStatus, at time.Time) {
	end := at
	s.EndTime = &end
	s.DurationMs = at.Sub(s.StartTime).Milliseconds()
	s.Status = status
}

// ExecutionOutputs holds the settlement-facing results of a completed run.
type ExecutionOutputs struct {
	TransactionHash string `json:"transaction_hash,omitempty"`
	BlockNumber     uint64 `json:"block_number,omitempty"`
	TotalPaidCents  int64  `json:"total_paid_cents,omitempty"`
	EmployeeCount   int    `json:"employee_count,omitempty"`
	EmailsSent      int    `json:"emails_sent,omitempty"`
}

// WorkflowExecution is the aggregate root of one pipeline run. It is mutated
// only by the orchestrator while in flight and by the review queue's single
// decision stamp; once Status leaves pending it is terminal.
type WorkflowExecution struct {
	ID            string             `json:"id"`
	WorkflowType  WorkflowType       `json:"workflow_type"`
	Status        ExecutionStatus    `json:"status"`
	Input         WorkflowInput      `json:"input"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       *time.Time         `json:"end_time,omitempty"`
	Steps         []WorkflowStep     `json:"steps"`
	Decision      *DecisionLogic     `json:"decision,omitempty"`
	ReviewRequest *ReviewRequest     `json:"review_request,omitempty"`
	Provenance    *ProvenanceRecord  `json:"provenance,omitempty"`
	Outputs       *ExecutionOutputs  `json:"outputs,omitempty"`
	Error         string             `json:"error,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CurrentStep returns the most recently appended step, or nil.
func (e *WorkflowExecution) CurrentStep() *WorkflowStep {
	if len(e.Steps) == 0 {
		return nil
	}

	return &e.Steps[len(e.Steps)-1]
}
