package review

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// fakeExecutionRepo is an in-memory execution store keyed by execution ID.
type fakeExecutionRepo struct {
	executions map[string]*models.WorkflowExecution
}

func newFakeExecutionRepo(executions ...*models.WorkflowExecution) *fakeExecutionRepo {
	repo := &fakeExecutionRepo{executions: make(map[string]*models.WorkflowExecution)}
	for _, execution := range executions {
		repo.executions[execution.ID] = execution
	}

	return repo
}

func (f *fakeExecutionRepo) Save(_ context.Context, execution *models.WorkflowExecution) error {
	f.executions[execution.ID] = execution

	return nil
}

func (f *fakeExecutionRepo) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	execution, ok := f.executions[id]
	if !ok {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	return execution, nil
}

func (f *fakeExecutionRepo) List(_ context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	out := make([]*models.WorkflowExecution, 0, len(f.executions))

	for _, execution := range f.executions {
		if opts.Status != nil && execution.Status != *opts.Status {
			continue
		}

		if opts.WorkflowType != nil && execution.WorkflowType != *opts.WorkflowType {
			continue
		}

		out = append(out, execution)
	}

	return out, nil
}

func (f *fakeExecutionRepo) GetByReviewRequestID(_ context.Context, reviewRequestID string) (*models.WorkflowExecution, error) {
	for _, execution := range f.executions {
		if execution.ReviewRequest != nil && execution.ReviewRequest.ID == reviewRequestID {
			return execution, nil
		}
	}

	return nil, persistence.NewReviewLookupError("GetByReviewRequestID", reviewRequestID, persistence.ErrReviewRequestNotFound)
}

// fakeResumer records which path the queue drove the execution down.
type fakeResumer struct {
	resumed   []string
	finalized []string
}

func (f *fakeResumer) Resume(_ context.Context, execution *models.WorkflowExecution) (*models.WorkflowExecution, error) {
	f.resumed = append(f.resumed, execution.ID)
	execution.Status = models.ExecutionStatusCompleted

	return execution, nil
}

func (f *fakeResumer) FinalizeRejected(_ context.Context, execution *models.WorkflowExecution) error {
	f.finalized = append(f.finalized, execution.ID)
	execution.Status = models.ExecutionStatusRejected

	return nil
}

func parkedExecution(id, reviewID string) *models.WorkflowExecution {
	return &models.WorkflowExecution{
		ID:           id,
		WorkflowType: models.WorkflowTypePayrollApproval,
		Status:       models.ExecutionStatusPending,
		StartTime:    time.Now().UTC(),
		ReviewRequest: &models.ReviewRequest{
			ID:                  reviewID,
			WorkflowExecutionID: id,
			WorkflowType:        models.WorkflowTypePayrollApproval,
			RequestedAt:         time.Now().UTC(),
			Reason:              "policy checks require human sign-off",
		},
	}
}

func TestListPending(t *testing.T) {
	completed := parkedExecution("exec-2", "review-2")
	completed.Status = models.ExecutionStatusCompleted

	repo := newFakeExecutionRepo(parkedExecution("exec-1", "review-1"), completed)
	queue := NewQueue(repo, &fakeResumer{}, slog.Default())

	requests, err := queue.ListPending(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, "review-1", requests[0].ID)
}

func TestListPendingFiltersWorkflowType(t *testing.T) {
	other := parkedExecution("exec-2", "review-2")
	other.WorkflowType = models.WorkflowTypeComplianceCheck

	repo := newFakeExecutionRepo(parkedExecution("exec-1", "review-1"), other)
	queue := NewQueue(repo, &fakeResumer{}, slog.Default())

	workflowType := models.WorkflowTypeComplianceCheck

	requests, err := queue.ListPending(context.Background(), &workflowType)
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, "review-2", requests[0].ID)
}

func TestSubmitValidation(t *testing.T) {
	queue := NewQueue(newFakeExecutionRepo(), &fakeResumer{}, slog.Default())

	tests := []struct {
		name       string
		submission Submission
	}{
		{
			name:       "missing review ID",
			submission: Submission{Decision: models.ReviewDecisionApproved, Reviewer: "ops"},
		},
		{
			name:       "invalid decision",
			submission: Submission{ReviewRequestID: "review-1", Decision: "maybe", Reviewer: "ops"},
		},
		{
			name:       "missing reviewer",
			submission: Submission{ReviewRequestID: "review-1", Decision: models.ReviewDecisionApproved},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queue.Submit(context.Background(), tt.submission)
			require.Error(t, err)
			assert.True(t, IsInvalidSubmission(err))
		})
	}
}

func TestSubmitUnknownReview(t *testing.T) {
	queue := NewQueue(newFakeExecutionRepo(), &fakeResumer{}, slog.Default())

	_, err := queue.Submit(context.Background(), Submission{
		ReviewRequestID: "review-missing",
		Decision:        models.ReviewDecisionApproved,
		Reviewer:        "ops",
	})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSubmitApproveResumesExecution(t *testing.T) {
	execution := parkedExecution("exec-1", "review-1")
	repo := newFakeExecutionRepo(execution)
	resumer := &fakeResumer{}
	queue := NewQueue(repo, resumer, slog.Default())

	result, err := queue.Submit(context.Background(), Submission{
		ReviewRequestID: "review-1",
		Decision:        models.ReviewDecisionApproved,
		Reviewer:        "ops@paydeck.io",
		Notes:           "verified with finance",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"exec-1"}, resumer.resumed)
	assert.Empty(t, resumer.finalized)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)

	review := result.ReviewRequest
	require.NotNil(t, review.Decision)
	assert.Equal(t, models.ReviewDecisionApproved, *review.Decision)
	assert.Equal(t, "ops@paydeck.io", review.Reviewer)
	assert.Equal(t, "verified with finance", review.Notes)
	assert.NotNil(t, review.ReviewedAt)
}

func TestSubmitRejectFinalizesExecution(t *testing.T) {
	execution := parkedExecution("exec-1", "review-1")
	repo := newFakeExecutionRepo(execution)
	resumer := &fakeResumer{}
	queue := NewQueue(repo, resumer, slog.Default())

	result, err := queue.Submit(context.Background(), Submission{
		ReviewRequestID: "review-1",
		Decision:        models.ReviewDecisionRejected,
		Reviewer:        "ops",
	})
	require.NoError(t, err)

	assert.Empty(t, resumer.resumed)
	assert.Equal(t, []string{"exec-1"}, resumer.finalized)
	assert.Equal(t, models.ExecutionStatusRejected, result.Status)
}

func TestSubmitSecondDecisionConflicts(t *testing.T) {
	execution := parkedExecution("exec-1", "review-1")
	repo := newFakeExecutionRepo(execution)
	resumer := &fakeResumer{}
	queue := NewQueue(repo, resumer, slog.Default())

	_, err := queue.Submit(context.Background(), Submission{
		ReviewRequestID: "review-1",
		Decision:        models.ReviewDecisionApproved,
		Reviewer:        "first",
	})
	require.NoError(t, err)

	_, err = queue.Submit(context.Background(), Submission{
		ReviewRequestID: "review-1",
		Decision:        models.ReviewDecisionRejected,
		Reviewer:        "second",
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// The first decision stands untouched.
	review := execution.ReviewRequest
	assert.Equal(t, models.ReviewDecisionApproved, *review.Decision)
	assert.Equal(t, "first", review.Reviewer)
	assert.Len(t, resumer.resumed, 1)
}
