// Package web provides HTTP handlers and REST API endpoints for the payroll
// decision-and-settlement pipeline.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/payroll"
	"github.com/paydeck/paydeck/pkg/persistence"
	"github.com/paydeck/paydeck/pkg/review"
)

// PipelineRunner drives one input through the pipeline. Implemented by
// workflow.Orchestrator.
type PipelineRunner interface {
	Run(ctx context.Context, input models.WorkflowInput) (*models.WorkflowExecution, error)
}

// ReviewQueue exposes pending reviews and accepts decisions. Implemented by
// review.Queue.
type ReviewQueue interface {
	ListPending(ctx context.Context, workflowType *models.WorkflowType) ([]*models.ReviewRequest, error)
	Submit(ctx context.Context, submission review.Submission) (*models.WorkflowExecution, error)
}

// BatchAssembler builds the pending payout batch. Implemented by
// payroll.Service.
type BatchAssembler interface {
	PendingBatch(ctx context.Context) (*payroll.Batch, error)
}

type APIHandlers struct {
	payroll     BatchAssembler
	runner      PipelineRunner
	reviews     ReviewQueue
	executions  persistence.ExecutionRepository
	employees   persistence.EmployeeRepository
	calculator  *payroll.Calculator
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewAPIHandlers(
	batches BatchAssembler,
	runner PipelineRunner,
	reviews ReviewQueue,
	executions persistence.ExecutionRepository,
	employees persistence.EmployeeRepository,
	calculator *payroll.Calculator,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		payroll:     batches,
		runner:      runner,
		reviews:     reviews,
		executions:  executions,
		employees:   employees,
		calculator:  calculator,
		persistence: persistence,
		validator:   validator,
	}
}

// RunPayroll assembles the pending payout batch and drives it through the
// pipeline. Flagged runs come back 202 with the review request to act on.
func (h *APIHandlers) RunPayroll(c fiber.Ctx) error {
	var req RunPayrollRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}

		if err := h.validator.Struct(req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	batch, err := h.payroll.PendingBatch(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	if len(batch.Payees) == 0 {
		return c.JSON(fiber.Map{
			"success":    true,
			"paid":       0,
			"totalPaid":  0,
			"emailsSent": 0,
			"message":    "no employees pending payment",
		})
	}

	input := models.WorkflowInput{
		WorkflowType: models.WorkflowTypePayrollApproval,
		Data:         batch.DecisionData(),
		Metadata: models.InputMetadata{
			Priority:    req.Priority,
			RequestedBy: req.RequestedBy,
		},
	}

	execution, err := h.runner.Run(c.Context(), input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return h.renderRunOutcome(c, execution)
}

// renderRunOutcome maps a finished or parked execution onto the payroll run
// response shape.
func (h *APIHandlers) renderRunOutcome(c fiber.Ctx, execution *models.WorkflowExecution) error {
	switch execution.Status {
	case models.ExecutionStatusPending:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success":     false,
			"status":      string(execution.Status),
			"executionId": execution.ID,
			"reviewId":    execution.ReviewRequest.ID,
			"reason":      execution.ReviewRequest.Reason,
			"flags":       execution.ReviewRequest.Flags,
		})

	case models.ExecutionStatusRejected:
		return c.JSON(fiber.Map{
			"success":     false,
			"status":      string(execution.Status),
			"executionId": execution.ID,
			"reason":      execution.Error,
		})
	}

	outputs := execution.Outputs
	if outputs == nil {
		outputs = &models.ExecutionOutputs{}
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"executionId": execution.ID,
		"paid":        outputs.EmployeeCount,
		"totalPaid":   outputs.TotalPaidCents,
		"tx":          outputs.TransactionHash,
		"blockNumber": outputs.BlockNumber,
		"emailsSent":  outputs.EmailsSent,
	})
}

// ListReviews returns all review requests awaiting a decision.
func (h *APIHandlers) ListReviews(c fiber.Ctx) error {
	var workflowType *models.WorkflowType

	if typeStr := c.Query("workflow_type"); typeStr != "" {
		wt := models.WorkflowType(typeStr)
		workflowType = &wt
	}

	requests, err := h.reviews.ListPending(c.Context(), workflowType)
	if err != nil {
		return internalError(c, err)
	}

	reviews := make([]ReviewResponse, 0, len(requests))
	for _, request := range requests {
		reviews = append(reviews, TransformReviewResponse(request))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reviews": reviews,
	})
}

// SubmitReview records a reviewer decision. Approval synchronously resumes
// the parked execution through settlement; the response carries the final
// outcome.
func (h *APIHandlers) SubmitReview(c fiber.Ctx) error {
	var req SubmitReviewRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.reviews.Submit(c.Context(), review.Submission{
		ReviewRequestID: req.ReviewID,
		Decision:        models.ReviewDecision(req.Decision),
		Reviewer:        req.Reviewer,
		Notes:           req.Notes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	message := "review approved, execution resumed"
	if req.Decision == string(models.ReviewDecisionRejected) {
		message = "review rejected, execution closed"
	}

	response := fiber.Map{
		"success":  true,
		"message":  message,
		"reviewId": req.ReviewID,
		"decision": req.Decision,
		"reviewer": req.Reviewer,
		"status":   string(execution.Status),
	}

	if execution.Outputs != nil {
		response["tx"] = execution.Outputs.TransactionHash
		response["totalPaid"] = execution.Outputs.TotalPaidCents
		response["paid"] = execution.Outputs.EmployeeCount
	}

	return c.JSON(response)
}

// ListExecutions returns pipeline runs, newest first.
func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	opts := persistence.ListExecutionsOptions{}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ExecutionStatus(statusStr)
		opts.Status = &status
	}

	if typeStr := c.Query("workflow_type"); typeStr != "" {
		workflowType := models.WorkflowType(typeStr)
		opts.WorkflowType = &workflowType
	}

	executions, err := h.executions.List(c.Context(), opts)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"executions": executions,
	})
}

// GetExecution returns one pipeline run by ID.
func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.executions.GetByID(c.Context(), id)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return notFound(c, "execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(execution)
}

// CreateEmployee registers an employee awaiting payment. Net pay is derived
// from gross via the withholding schedule unless supplied.
func (h *APIHandlers) CreateEmployee(c fiber.Ctx) error {
	var req CreateEmployeeRequest

	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	netCents := req.NetPayCents
	if netCents == 0 {
		netCents = h.calculator.NetPayCents(req.GrossPayCents)
	}

	now := time.Now().UTC()
	employee := &models.Employee{
		ID:            "emp-" + uuid.New().String(),
		Name:          req.Name,
		Email:         req.Email,
		WalletAddress: req.WalletAddress,
		GrossPayCents: req.GrossPayCents,
		NetPayCents:   netCents,
		PaymentStatus: models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.employees.Save(c.Context(), employee); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(employee)
}

// ListEmployees returns employees in the given payment status, defaulting to
// those awaiting payment.
func (h *APIHandlers) ListEmployees(c fiber.Ctx) error {
	status := models.PaymentStatusPending
	if statusStr := c.Query("payment_status"); statusStr != "" {
		status = models.PaymentStatus(statusStr)
	}

	employees, err := h.employees.ListByPaymentStatus(c.Context(), status)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"employees": employees,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Paydeck API is healthy"
	httpStatus := http.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "Persistence layer is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
