// Package workflow runs the fixed six-stage decision-and-settlement pipeline:
// intake, understand, decide, review, execute, deliver. Every run is recorded
// as a WorkflowExecution with one step per stage entered.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/paydeck/paydeck/pkg/decision"
	"github.com/paydeck/paydeck/pkg/eventbus"
	"github.com/paydeck/paydeck/pkg/events"
	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
	"github.com/paydeck/paydeck/pkg/provenance"
)

// Settler submits one settlement batch. Implemented by settlement.Executor.
type Settler interface {
	ExecuteBatch(ctx context.Context, payees []models.BatchPaymentEmployee) (*models.BatchPaymentResult, error)
}

var stageNames = map[models.StageName]string{
	models.StageIntake:     "Validate input",
	models.StageUnderstand: "Enrich and assess input",
	models.StageDecide:     "Evaluate policy",
	models.StageReview:     "Human review",
	models.StageExecute:    "Settle batch payment",
	models.StageDeliver:    "Deliver notifications",
}

// Orchestrator drives executions through the pipeline. Stages always run in
// the same order; a stage that does not apply to a run is recorded as skipped
// rather than omitted.
type Orchestrator struct {
	executions persistence.ExecutionRepository
	engine     *decision.Engine
	settler    Settler
	recorder   *provenance.Recorder
	publisher  eventbus.EventPublisher
	notifier   Notifier
	validator  *intakeValidator
	policy     decision.Config
	logger     *slog.Logger
}

func NewOrchestrator(
	executions persistence.ExecutionRepository,
	engine *decision.Engine,
	settler Settler,
	recorder *provenance.Recorder,
	publisher eventbus.EventPublisher,
	notifier Notifier,
	policy decision.Config,
	logger *slog.Logger,
) (*Orchestrator, error) {
	validator, err := newIntakeValidator()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		executions: executions,
		engine:     engine,
		settler:    settler,
		recorder:   recorder,
		publisher:  publisher,
		notifier:   notifier,
		validator:  validator,
		policy:     policy,
		logger:     logger.With("module", "workflow_orchestrator"),
	}, nil
}

// Run executes the pipeline for one input. It returns the resulting
// execution in every case except intake validation failure, where nothing is
// persisted and ErrInvalidInput is returned. A flagged run is persisted in
// pending state and returned without error; a settlement failure returns the
// failed execution together with the settlement error.
func (o *Orchestrator) Run(ctx context.Context, input models.WorkflowInput) (*models.WorkflowExecution, error) {
	now := time.Now().UTC()
	execution := &models.WorkflowExecution{
		ID:           generateExecutionID(),
		WorkflowType: input.WorkflowType,
		Status:       models.ExecutionStatusPending,
		Input:        input,
		StartTime:    now,
		Steps:        []models.WorkflowStep{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	logger := o.logger.With("execution_id", execution.ID, "workflow_type", input.WorkflowType)
	logger.InfoContext(ctx, "Starting pipeline run")

	if err := o.runIntake(ctx, execution); err != nil {
		return nil, err
	}

	o.runUnderstand(ctx, execution)

	if err := o.runDecide(ctx, execution, logger); err != nil {
		return execution, err
	}

	proceed, err := o.runReview(ctx, execution, logger)
	if err != nil || !proceed {
		return execution, err
	}

	return o.settleAndDeliver(ctx, execution, logger)
}

// Resume continues an approved execution from the execute stage onward. The
// review queue calls it after stamping the reviewer's approval.
func (o *Orchestrator) Resume(ctx context.Context, execution *models.WorkflowExecution) (*models.WorkflowExecution, error) {
	logger := o.logger.With("execution_id", execution.ID, "workflow_type", execution.WorkflowType)

	review := execution.ReviewRequest

	idx := o.beginStep(execution, models.StageReview)
	execution.Steps[idx].Result = map[string]any{
		"decision": string(*review.Decision),
		"reviewer": review.Reviewer,
	}
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())

	o.publish(ctx, logger, execution.ID, events.ExecutionResumed{
		BaseEvent:       events.NewBaseEvent(events.ExecutionResumedEvent, execution.ID, execution.WorkflowType),
		ReviewRequestID: review.ID,
		ReviewDecision:  *review.Decision,
		Reviewer:        review.Reviewer,
	})

	logger.InfoContext(ctx, "Resuming approved execution", "review_request_id", review.ID, "reviewer", review.Reviewer)

	return o.settleAndDeliver(ctx, execution, logger)
}

// FinalizeRejected closes out an execution a reviewer turned down. The review
// queue calls it after stamping the rejection.
func (o *Orchestrator) FinalizeRejected(ctx context.Context, execution *models.WorkflowExecution) error {
	logger := o.logger.With("execution_id", execution.ID, "workflow_type", execution.WorkflowType)

	review := execution.ReviewRequest

	idx := o.beginStep(execution, models.StageReview)
	execution.Steps[idx].Result = map[string]any{
		"decision": string(*review.Decision),
		"reviewer": review.Reviewer,
	}
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())

	reason := "rejected by reviewer"
	if review.Notes != "" {
		reason = fmt.Sprintf("rejected by reviewer: %s", review.Notes)
	}

	if err := o.finalize(ctx, execution, models.ExecutionStatusRejected, reason, nil); err != nil {
		return err
	}

	o.publish(ctx, logger, execution.ID, events.ExecutionRejected{
		BaseEvent: events.NewBaseEvent(events.ExecutionRejectedEvent, execution.ID, execution.WorkflowType),
		Reason:    reason,
		Reviewer:  review.Reviewer,
	})

	logger.InfoContext(ctx, "Execution rejected by reviewer", "reviewer", review.Reviewer)

	return nil
}

// runIntake validates the payload against the workflow type's schema. An
// invalid payload aborts before anything is persisted.
func (o *Orchestrator) runIntake(ctx context.Context, execution *models.WorkflowExecution) error {
	idx := o.beginStep(execution, models.StageIntake)

	err := o.validator.Validate(execution.WorkflowType, execution.Input.Data)
	if err != nil {
		execution.Steps[idx].Close(models.StepStatusFailed, time.Now().UTC())

		return err
	}

	execution.Steps[idx].Result = map[string]any{"validated": true}
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())

	return nil
}

// runUnderstand enriches the payload with derived figures and assesses how
// much the declared input can be trusted. Inconsistencies degrade confidence
// but never abort the run; the decide stage weighs them instead.
func (o *Orchestrator) runUnderstand(ctx context.Context, execution *models.WorkflowExecution) {
	idx := o.beginStep(execution, models.StageUnderstand)

	payees := payeesFromInput(execution.Input.Data)

	var computedTotal int64
	for _, payee := range payees {
		computedTotal += payee.NetPayCents
	}

	confidence := 1.0
	result := map[string]any{
		"employee_count":     len(payees),
		"total_amount_cents": computedTotal,
	}

	declared, hasDeclared := declaredTotalCents(execution.Input.Data)

	switch {
	case !hasDeclared:
		confidence = 0.9
		result["declared_total"] = false
	case declared != computedTotal:
		confidence = 0.7
		result["declared_total_cents"] = declared
		result["total_mismatch"] = true
	}

	execution.Steps[idx].Result = result
	execution.Steps[idx].Confidence = &confidence
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())
}

// runDecide evaluates policy. Engine errors fail the run.
func (o *Orchestrator) runDecide(ctx context.Context, execution *models.WorkflowExecution, logger *slog.Logger) error {
	idx := o.beginStep(execution, models.StageDecide)

	logic, err := o.engine.Evaluate(execution.WorkflowType, execution.Input.Data, o.policy)
	if err != nil {
		execution.Steps[idx].Close(models.StepStatusFailed, time.Now().UTC())

		if finalizeErr := o.finalize(ctx, execution, models.ExecutionStatusFailed, err.Error(), nil); finalizeErr != nil {
			logger.ErrorContext(ctx, "Failed to persist failed execution", "error", finalizeErr)
		}

		return fmt.Errorf("policy evaluation failed: %w", err)
	}

	execution.Decision = logic
	execution.Steps[idx].Result = map[string]any{
		"decision":    string(logic.Decision),
		"reason":      logic.Reason,
		"rules_fired": logic.RulesFired,
	}
	execution.Steps[idx].Confidence = &logic.Confidence
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())

	logger.InfoContext(ctx, "Policy decision reached",
		"decision", logic.Decision, "reason", logic.Reason, "confidence", logic.Confidence)

	return nil
}

// runReview routes the policy verdict. Flagged runs park in pending state
// with a review request; rejected runs finalize immediately. The returned
// bool reports whether the pipeline should continue to settlement.
func (o *Orchestrator) runReview(ctx context.Context, execution *models.WorkflowExecution, logger *slog.Logger) (bool, error) {
	switch execution.Decision.Decision {
	case models.DecisionAutoApprove:
		idx := o.beginStep(execution, models.StageReview)
		execution.Steps[idx].Result = map[string]any{"auto_approved": true}
		execution.Steps[idx].Close(models.StepStatusSkipped, time.Now().UTC())

		return true, nil

	case models.DecisionReject:
		idx := o.beginStep(execution, models.StageReview)
		execution.Steps[idx].Close(models.StepStatusSkipped, time.Now().UTC())

		if err := o.finalize(ctx, execution, models.ExecutionStatusRejected, execution.Decision.Reason, nil); err != nil {
			return false, err
		}

		o.publish(ctx, logger, execution.ID, events.ExecutionRejected{
			BaseEvent: events.NewBaseEvent(events.ExecutionRejectedEvent, execution.ID, execution.WorkflowType),
			Reason:    execution.Decision.Reason,
		})

		logger.InfoContext(ctx, "Execution rejected by policy", "reason", execution.Decision.Reason)

		return false, nil
	}

	review := &models.ReviewRequest{
		ID:                  generateReviewRequestID(),
		WorkflowExecutionID: execution.ID,
		WorkflowType:        execution.WorkflowType,
		RequestedAt:         time.Now().UTC(),
		Priority:            execution.Input.Metadata.Priority,
		Data:                execution.Input.Data,
		Flags:               execution.Decision.Flags,
		Reason:              execution.Decision.Reason,
	}

	execution.ReviewRequest = review

	idx := o.beginStep(execution, models.StageReview)
	execution.Steps[idx].Result = map[string]any{"review_request_id": review.ID}
	execution.Steps[idx].Close(models.StepStatusSuspended, time.Now().UTC())

	execution.Status = models.ExecutionStatusPending
	execution.UpdatedAt = time.Now().UTC()

	if err := o.executions.Save(ctx, execution); err != nil {
		return false, fmt.Errorf("failed to persist suspended execution: %w", err)
	}

	o.publish(ctx, logger, execution.ID, events.ExecutionPaused{
		BaseEvent:       events.NewBaseEvent(events.ExecutionPausedEvent, execution.ID, execution.WorkflowType),
		ReviewRequestID: review.ID,
		Reason:          review.Reason,
		Flags:           review.Flags,
	})

	logger.InfoContext(ctx, "Execution parked for human review",
		"review_request_id", review.ID, "flags", review.Flags)

	return false, nil
}

// settleAndDeliver runs the execute and deliver stages and finalizes the
// execution.
func (o *Orchestrator) settleAndDeliver(ctx context.Context, execution *models.WorkflowExecution, logger *slog.Logger) (*models.WorkflowExecution, error) {
	result, err := o.runExecute(ctx, execution, logger)
	if err != nil {
		return execution, err
	}

	o.runDeliver(ctx, execution, result, logger)

	if err := o.finalize(ctx, execution, models.ExecutionStatusCompleted, "", result); err != nil {
		return execution, err
	}

	completed := events.ExecutionCompleted{
		BaseEvent:  events.NewBaseEvent(events.ExecutionCompletedEvent, execution.ID, execution.WorkflowType),
		DurationMs: execution.EndTime.Sub(execution.StartTime).Milliseconds(),
	}
	if execution.Outputs != nil {
		completed.TransactionHash = execution.Outputs.TransactionHash
		completed.BlockNumber = execution.Outputs.BlockNumber
		completed.TotalPaidCents = execution.Outputs.TotalPaidCents
		completed.EmployeeCount = execution.Outputs.EmployeeCount
	}

	o.publish(ctx, logger, execution.ID, completed)

	logger.InfoContext(ctx, "Pipeline run completed")

	return execution, nil
}

// runExecute settles the batch. Runs without payees have nothing to settle
// and record the stage as skipped.
func (o *Orchestrator) runExecute(ctx context.Context, execution *models.WorkflowExecution, logger *slog.Logger) (*models.BatchPaymentResult, error) {
	idx := o.beginStep(execution, models.StageExecute)

	payees := payeesFromInput(execution.Input.Data)
	if len(payees) == 0 {
		execution.Steps[idx].Close(models.StepStatusSkipped, time.Now().UTC())

		return nil, nil
	}

	result, err := o.settler.ExecuteBatch(ctx, payees)
	if err != nil {
		execution.Steps[idx].Close(models.StepStatusFailed, time.Now().UTC())

		if finalizeErr := o.finalize(ctx, execution, models.ExecutionStatusFailed, err.Error(), nil); finalizeErr != nil {
			logger.ErrorContext(ctx, "Failed to persist failed execution", "error", finalizeErr)
		}

		o.publish(ctx, logger, execution.ID, events.ExecutionFailed{
			BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, execution.ID, execution.WorkflowType),
			Error:     err.Error(),
		})

		logger.ErrorContext(ctx, "Settlement failed", "error", err)

		return nil, fmt.Errorf("settlement failed: %w", err)
	}

	execution.Outputs = &models.ExecutionOutputs{
		TransactionHash: result.TxHash,
		BlockNumber:     result.BlockNumber,
		TotalPaidCents:  result.TotalPaidCents,
		EmployeeCount:   result.EmployeeCount,
	}

	execution.Steps[idx].Result = map[string]any{
		"tx_hash":          result.TxHash,
		"block_number":     result.BlockNumber,
		"total_paid_cents": result.TotalPaidCents,
		"employee_count":   result.EmployeeCount,
	}
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())

	logger.InfoContext(ctx, "Settlement confirmed",
		"tx_hash", result.TxHash, "block_number", result.BlockNumber, "total_paid_cents", result.TotalPaidCents)

	return result, nil
}

// runDeliver sends payout notifications. Delivery is best effort; a
// notification failure never unwinds a confirmed settlement.
func (o *Orchestrator) runDeliver(ctx context.Context, execution *models.WorkflowExecution, result *models.BatchPaymentResult, logger *slog.Logger) {
	idx := o.beginStep(execution, models.StageDeliver)

	if result == nil {
		execution.Steps[idx].Close(models.StepStatusSkipped, time.Now().UTC())

		return
	}

	sent, err := o.notifier.NotifyPaid(ctx, execution, result)
	if err != nil {
		logger.WarnContext(ctx, "Notification delivery incomplete", "emails_sent", sent, "error", err)
	}

	if execution.Outputs != nil {
		execution.Outputs.EmailsSent = sent
	}

	execution.Steps[idx].Result = map[string]any{"emails_sent": sent}
	execution.Steps[idx].Close(models.StepStatusCompleted, time.Now().UTC())
}

// finalize stamps the terminal state, attaches the audit record and persists
// the execution.
func (o *Orchestrator) finalize(ctx context.Context, execution *models.WorkflowExecution, status models.ExecutionStatus, errMsg string, result *models.BatchPaymentResult) error {
	now := time.Now().UTC()
	execution.Status = status
	execution.EndTime = &now
	execution.UpdatedAt = now

	if status != models.ExecutionStatusCompleted {
		execution.Error = errMsg
	}

	dataSources := []string{"workflow-input"}
	artifacts := []string{}

	if result != nil {
		dataSources = append(dataSources, "settlement-network")
		artifacts = append(artifacts, "tx:"+result.TxHash)
	}

	if err := o.recorder.Record(execution, dataSources, artifacts); err != nil {
		o.logger.ErrorContext(ctx, "Failed to attach provenance record", "execution_id", execution.ID, "error", err)
	}

	if err := o.executions.Save(ctx, execution); err != nil {
		return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
	}

	return nil
}

func (o *Orchestrator) beginStep(execution *models.WorkflowExecution, stage models.StageName) int {
	execution.Steps = append(execution.Steps, models.WorkflowStep{
		Step:      stage,
		Name:      stageNames[stage],
		StartTime: time.Now().UTC(),
	})

	return len(execution.Steps) - 1
}

// publish sends a lifecycle event. Event delivery is observational; failures
// are logged and never affect the run's outcome.
func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	if err := o.publisher.Publish(ctx, key, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}

func generateExecutionID() string {
	return "exec-" + uuid.New().String()
}

func generateReviewRequestID() string {
	return "review-" + uuid.New().String()
}

// payeesFromInput decodes the employees entry of an input payload into
// settlement payees. Entries the schema admitted are well formed; anything
// that does not decode is treated as an empty batch.
func payeesFromInput(data map[string]any) []models.BatchPaymentEmployee {
	raw, ok := data["employees"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var payees []models.BatchPaymentEmployee
	if err := json.Unmarshal(encoded, &payees); err != nil {
		return nil
	}

	return payees
}

// declaredTotalCents reads the caller-declared batch total, if present.
func declaredTotalCents(data map[string]any) (int64, bool) {
	raw, ok := data["total_amount_cents"]
	if !ok {
		return 0, false
	}

	return asCents(raw), true
}

func asCents(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}

	return 0
}
