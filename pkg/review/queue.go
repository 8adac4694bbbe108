// Package review manages the human-review queue for executions the decision
// engine flagged. Each review request accepts exactly one decision.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// Resumer continues or closes out a parked execution after a decision.
// Implemented by workflow.Orchestrator.
type Resumer interface {
	Resume(ctx context.Context, execution *models.WorkflowExecution) (*models.WorkflowExecution, error)
	FinalizeRejected(ctx context.Context, execution *models.WorkflowExecution) error
}

// Queue exposes the pending review requests and accepts reviewer decisions.
type Queue struct {
	executions persistence.ExecutionRepository
	resumer    Resumer
	logger     *slog.Logger

	// mu serializes decision stamping so two reviewers racing on the same
	// request cannot both win.
	mu sync.Mutex
}

func NewQueue(executions persistence.ExecutionRepository, resumer Resumer, logger *slog.Logger) *Queue {
	return &Queue{
		executions: executions,
		resumer:    resumer,
		logger:     logger.With("module", "review_queue"),
	}
}

// ListPending returns the review requests of all executions parked in
// pending state, optionally filtered by workflow type. Newest first,
// matching the execution ordering of the store.
func (q *Queue) ListPending(ctx context.Context, workflowType *models.WorkflowType) ([]*models.ReviewRequest, error) {
	pending := models.ExecutionStatusPending

	executions, err := q.executions.List(ctx, persistence.ListExecutionsOptions{
		Status:       &pending,
		WorkflowType: workflowType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending executions: %w", err)
	}

	requests := make([]*models.ReviewRequest, 0, len(executions))

	for _, execution := range executions {
		if execution.ReviewRequest == nil {
			continue
		}

		requests = append(requests, execution.ReviewRequest)
	}

	return requests, nil
}

// Submission is one reviewer decision on a parked execution.
type Submission struct {
	ReviewRequestID string
	Decision        models.ReviewDecision
	Reviewer        string
	Notes           string
}

// Submit stamps a reviewer decision and synchronously drives the execution
// to its next state: approval resumes settlement, rejection finalizes the
// run. The stamp is persisted before resumption, so a crash mid-settlement
// still leaves the request decided.
//
// Returns ErrInvalidSubmission for malformed input, ErrReviewNotFound when
// the request does not exist and ErrAlreadyDecided when it was stamped
// before.
func (q *Queue) Submit(ctx context.Context, submission Submission) (*models.WorkflowExecution, error) {
	if err := validateSubmission(submission); err != nil {
		return nil, err
	}

	execution, err := q.stamp(ctx, submission)
	if err != nil {
		return nil, err
	}

	q.logger.InfoContext(ctx, "Review decision recorded",
		"review_request_id", submission.ReviewRequestID,
		"decision", submission.Decision,
		"reviewer", submission.Reviewer,
	)

	if submission.Decision == models.ReviewDecisionRejected {
		if err := q.resumer.FinalizeRejected(ctx, execution); err != nil {
			return execution, fmt.Errorf("failed to finalize rejected execution: %w", err)
		}

		return execution, nil
	}

	return q.resumer.Resume(ctx, execution)
}

// stamp records the decision on the review request exactly once.
func (q *Queue) stamp(ctx context.Context, submission Submission) (*models.WorkflowExecution, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	execution, err := q.executions.GetByReviewRequestID(ctx, submission.ReviewRequestID)
	if err != nil {
		if persistence.IsReviewRequestNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrReviewNotFound, submission.ReviewRequestID)
		}

		return nil, fmt.Errorf("failed to load review request %s: %w", submission.ReviewRequestID, err)
	}

	review := execution.ReviewRequest

	if review.Decided() || execution.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyDecided, submission.ReviewRequestID)
	}

	now := time.Now().UTC()
	decision := submission.Decision

	review.Decision = &decision
	review.Reviewer = submission.Reviewer
	review.ReviewedAt = &now
	review.Notes = submission.Notes

	execution.UpdatedAt = now

	if err := q.executions.Save(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to persist review decision: %w", err)
	}

	return execution, nil
}

func validateSubmission(submission Submission) error {
	if submission.ReviewRequestID == "" {
		return fmt.Errorf("%w: review request ID is required", ErrInvalidSubmission)
	}

	if !submission.Decision.Valid() {
		return fmt.Errorf("%w: decision must be %q or %q",
			ErrInvalidSubmission, models.ReviewDecisionApproved, models.ReviewDecisionRejected)
	}

	if submission.Reviewer == "" {
		return fmt.Errorf("%w: reviewer is required", ErrInvalidSubmission)
	}

	return nil
}
