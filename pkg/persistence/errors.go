// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrExecutionNotFound indicates a workflow execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("workflow execution not found")

	// ErrReviewRequestNotFound indicates no execution embeds a review request with the given identifier.
	ErrReviewRequestNotFound = errors.New("review request not found")

	// ErrEmployeeNotFound indicates an employee was not found by the given identifier.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// ExecutionError wraps execution-related errors with additional context.
type ExecutionError struct {
	Op          string // Operation being performed (e.g., "GetByID", "Save")
	ExecutionID string // Execution ID if applicable
	ReviewID    string // Review request ID if applicable
	Err         error  // Underlying error
}

func (e *ExecutionError) Error() string {
	target := e.ExecutionID
	if e.ReviewID != "" {
		target = fmt.Sprintf("review %s", e.ReviewID)
	}

	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, target, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for execution errors.
func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{
		Op:          op,
		ExecutionID: executionID,
		Err:         err,
	}
}

// NewReviewLookupError creates a new execution error for review-id lookups.
func NewReviewLookupError(op, reviewID string, err error) *ExecutionError {
	return &ExecutionError{
		Op:       op,
		ReviewID: reviewID,
		Err:      err,
	}
}

// EmployeeError wraps employee-related errors with additional context.
type EmployeeError struct {
	Op         string
	EmployeeID string
	Err        error
}

func (e *EmployeeError) Error() string {
	return fmt.Sprintf("%s operation failed for employee %s: %v", e.Op, e.EmployeeID, e.Err)
}

func (e *EmployeeError) Unwrap() error {
	return e.Err
}

func (e *EmployeeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsReviewRequestNotFound checks if an error indicates a review request was not found.
func IsReviewRequestNotFound(err error) bool {
	return errors.Is(err, ErrReviewRequestNotFound)
}

// IsEmployeeNotFound checks if an error indicates an employee was not found.
func IsEmployeeNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
