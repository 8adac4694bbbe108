package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/persistence"
)

// ExecutionRepository handles workflow execution file operations.
type ExecutionRepository struct {
	root string // File system root for storing executions
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

// Save writes an execution to the file system as one JSON document per execution.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	err := os.MkdirAll(er.root+"/executions", 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	now := time.Now().UTC()
	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = now
	}

	execution.UpdatedAt = now

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	filePath := path.Join(er.root+"/executions", execution.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// GetByID retrieves an execution by its ID from the file system.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	filePath := filepath.Clean(path.Join(er.root, "executions", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to fetch execution %s: %w", id, err)
	}

	var execution models.WorkflowExecution

	err = json.Unmarshal(body, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

// List returns executions matching the given filters, newest first.
func (er *ExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	root := os.DirFS(er.root + "/executions")

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.WorkflowExecution, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		executionID := file[:len(file)-5] // Remove .json extension

		execution, err := er.GetByID(ctx, executionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load execution %s: %w", executionID, err)
		}

		if opts.Status != nil && execution.Status != *opts.Status {
			continue
		}

		if opts.WorkflowType != nil && execution.WorkflowType != *opts.WorkflowType {
			continue
		}

		executions = append(executions, execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartTime.After(executions[j].StartTime)
	})

	return executions, nil
}

// GetByReviewRequestID locates the execution owning the embedded review request.
func (er *ExecutionRepository) GetByReviewRequestID(ctx context.Context, reviewRequestID string) (*models.WorkflowExecution, error) {
	executions, err := er.List(ctx, persistence.ListExecutionsOptions{})
	if err != nil {
		return nil, err
	}

	for _, execution := range executions {
		if execution.ReviewRequest != nil && execution.ReviewRequest.ID == reviewRequestID {
			return execution, nil
		}
	}

	return nil, persistence.NewReviewLookupError("GetByReviewRequestID", reviewRequestID, persistence.ErrReviewRequestNotFound)
}
