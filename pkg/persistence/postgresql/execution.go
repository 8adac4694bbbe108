package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// ExecutionRepository handles workflow execution database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_type
  , status
  , input
  , start_time
  , end_time
  , steps
  , decision
  , review_request
  , provenance
  , outputs
  , error
  , created_at
  , updated_at
`

// Save upserts an execution row, serializing nested structures as JSONB.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	now := time.Now().UTC()

	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = now
	}

	execution.UpdatedAt = now

	inputJSON, err := json.Marshal(execution.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	stepsJSON, err := json.Marshal(execution.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	decisionJSON, err := marshalNullable(execution.Decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	reviewJSON, err := marshalNullable(execution.ReviewRequest)
	if err != nil {
		return fmt.Errorf("failed to marshal review request: %w", err)
	}

	provenanceJSON, err := marshalNullable(execution.Provenance)
	if err != nil {
		return fmt.Errorf("failed to marshal provenance: %w", err)
	}

	outputsJSON, err := marshalNullable(execution.Outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	query := `
		INSERT INTO workflow_executions (id, workflow_type, status, input, start_time, end_time,
steps, decision, review_request, provenance, outputs, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			end_time = EXCLUDED.end_time,
			steps = EXCLUDED.steps,
			decision = EXCLUDED.decision,
			review_request = EXCLUDED.review_request,
			provenance = EXCLUDED.provenance,
			outputs = EXCLUDED.outputs,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowType,
		execution.Status,
		inputJSON,
		execution.StartTime,
		execution.EndTime,
		stepsJSON,
		decisionJSON,
		reviewJSON,
		provenanceJSON,
		outputsJSON,
		execution.Error,
		execution.CreatedAt,
		execution.UpdatedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	return nil
}

// GetByID returns an execution by its ID.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	execution, err := r.scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// List returns executions matching the given filters, newest first.
func (r *ExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE 1=1`

	args := make([]any, 0, 2)

	if opts.Status != nil {
		args = append(args, *opts.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if opts.WorkflowType != nil {
		args = append(args, *opts.WorkflowType)
		query += fmt.Sprintf(" AND workflow_type = $%d", len(args))
	}

	query += " ORDER BY start_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func(ctx context.Context, r *ExecutionRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// GetByReviewRequestID locates the execution owning the embedded review request.
func (r *ExecutionRepository) GetByReviewRequestID(ctx context.Context, reviewRequestID string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE review_request->>'id' = $1`

	row := r.db.QueryRowContext(ctx, query, reviewRequestID)

	execution, err := r.scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewReviewLookupError("GetByReviewRequestID", reviewRequestID, persistence.ErrReviewRequestNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ExecutionRepository) scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution      models.WorkflowExecution
		endTime        sql.NullTime
		inputJSON      []byte
		stepsJSON      []byte
		decisionJSON   []byte
		reviewJSON     []byte
		provenanceJSON []byte
		outputsJSON    []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowType,
		&execution.Status,
		&inputJSON,
		&execution.StartTime,
		&endTime,
		&stepsJSON,
		&decisionJSON,
		&reviewJSON,
		&provenanceJSON,
		&outputsJSON,
		&execution.Error,
		&execution.CreatedAt,
		&execution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		execution.EndTime = &endTime.Time
	}

	if err := json.Unmarshal(inputJSON, &execution.Input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input: %w", err)
	}

	if err := json.Unmarshal(stepsJSON, &execution.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	if err := unmarshalNullable(decisionJSON, &execution.Decision); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
	}

	if err := unmarshalNullable(reviewJSON, &execution.ReviewRequest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review request: %w", err)
	}

	if err := unmarshalNullable(provenanceJSON, &execution.Provenance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provenance: %w", err)
	}

	if err := unmarshalNullable(outputsJSON, &execution.Outputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
	}

	return &execution, nil
}

// marshalNullable maps a nil pointer to a SQL NULL instead of the JSON "null" literal.
func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if string(data) == "null" {
		return nil, nil
	}

	return data, nil
}

func unmarshalNullable(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, v)
}
