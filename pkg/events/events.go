// Package events defines event types and structures for pipeline lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/paydeck/paydeck/pkg/models"
)

type EventType string

// Topic carries all pipeline lifecycle events.
const Topic = "paydeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionRejectedEvent  EventType = "execution.rejected"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionResumedEvent   EventType = "execution.resumed"
)

type BaseEvent struct {
	ID           string              `json:"id"`
	Type         EventType           `json:"type"`
	Timestamp    time.Time           `json:"timestamp"`
	ExecutionID  string              `json:"execution_id"`
	WorkflowType models.WorkflowType `json:"workflow_type"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
}

// ExecutionCompleted is published when a run finishes with a confirmed
// settlement (or required none).
type ExecutionCompleted struct {
	BaseEvent

	TransactionHash string `json:"transaction_hash,omitempty"`
	BlockNumber     uint64 `json:"block_number,omitempty"`
	TotalPaidCents  int64  `json:"total_paid_cents"`
	EmployeeCount   int    `json:"employee_count"`
	DurationMs      int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// ExecutionRejected is published when policy or a reviewer rejected the run.
type ExecutionRejected struct {
	BaseEvent

	Reason   string `json:"reason"`
	Reviewer string `json:"reviewer,omitempty"`
}

func (e ExecutionRejected) GetType() EventType {
	return ExecutionRejectedEvent
}

// ExecutionFailed is published when settlement submission exhausted retries.
type ExecutionFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

// ExecutionPaused is published when a run parks awaiting human review.
type ExecutionPaused struct {
	BaseEvent

	ReviewRequestID string   `json:"review_request_id"`
	Reason          string   `json:"reason"`
	Flags           []string `json:"flags,omitempty"`
}

func (e ExecutionPaused) GetType() EventType {
	return ExecutionPausedEvent
}

// ExecutionResumed is published when a reviewer decision resumes a parked run.
type ExecutionResumed struct {
	BaseEvent

	ReviewRequestID string                `json:"review_request_id"`
	ReviewDecision  models.ReviewDecision `json:"review_decision"`
	Reviewer        string                `json:"reviewer"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

func NewBaseEvent(eventType EventType, executionID string, workflowType models.WorkflowType) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		ExecutionID:  executionID,
		WorkflowType: workflowType,
		Metadata:     make(map[string]any),
	}
}
