// Package web provides HTTP request and response types for the payroll API.
package web

import "github.com/paydeck/paydeck/pkg/models"

// RunPayrollRequest represents the optional request body for triggering a
// payroll run.
type RunPayrollRequest struct {
	RequestedBy string `json:"requested_by,omitempty"`
	Priority    string `json:"priority,omitempty"    validate:"omitempty,oneof=low normal high"`
}

// SubmitReviewRequest represents the request body for submitting a reviewer
// decision.
type SubmitReviewRequest struct {
	ReviewID string `json:"reviewId" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Reviewer string `json:"reviewer" validate:"required,min=1"`
	Notes    string `json:"notes,omitempty"`
}

// CreateEmployeeRequest represents the request body for registering an
// employee in the payroll store.
type CreateEmployeeRequest struct {
	Name          string `json:"name"           validate:"required,min=1"`
	Email         string `json:"email"          validate:"required,email"`
	WalletAddress string `json:"wallet_address" validate:"required"`
	GrossPayCents int64  `json:"gross_pay_cents" validate:"required,gt=0"`
	NetPayCents   int64  `json:"net_pay_cents,omitempty" validate:"omitempty,gt=0"`
}

// ReviewResponse is the queue-facing view of one pending review request.
type ReviewResponse struct {
	ID           string              `json:"id"`
	ExecutionID  string              `json:"executionId"`
	WorkflowType models.WorkflowType `json:"workflowType"`
	RequestedAt  string              `json:"requestedAt"`
	Priority     string              `json:"priority,omitempty"`
	Reason       string              `json:"reason"`
	Flags        []string            `json:"flags,omitempty"`
	Data         map[string]any      `json:"data,omitempty"`
}

// TransformReviewResponse maps a review request onto its API shape.
func TransformReviewResponse(review *models.ReviewRequest) ReviewResponse {
	return ReviewResponse{
		ID:           review.ID,
		ExecutionID:  review.WorkflowExecutionID,
		WorkflowType: review.WorkflowType,
		RequestedAt:  review.RequestedAt.Format("2006-01-02T15:04:05Z07:00"),
		Priority:     review.Priority,
		Reason:       review.Reason,
		Flags:        review.Flags,
		Data:         review.Data,
	}
}
