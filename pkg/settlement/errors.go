// Package settlement executes batched money-movement transactions against the
// settlement network, with balance verification, bounded retry and
// confirmation waiting.
package settlement

import (
	"errors"
	"fmt"
)

// Transient network error classes reported by chain clients. Only these two
// are retryable; anything else aborts the submission immediately.
var (
	// ErrRateLimited indicates the RPC endpoint throttled the request.
	ErrRateLimited = errors.New("rate limited by settlement network")

	// ErrNonceConflict indicates the sequence number was already consumed,
	// typically by a previous half-submitted attempt.
	ErrNonceConflict = errors.New("sequence number conflict")
)

// ValidationError indicates a malformed payee entry. It is raised before any
// network call; no partial submission is possible.
type ValidationError struct {
	EmployeeID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payee %s: %s", e.EmployeeID, e.Reason)
}

// InsufficientFundsError indicates the funding account cannot cover the batch
// total. No transaction is submitted.
type InsufficientFundsError struct {
	RequiredCents  int64
	AvailableCents int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d cents, have %d cents", e.RequiredCents, e.AvailableCents)
}

// SubmissionError indicates the transaction could not be submitted or
// confirmed after exhausting retries.
type SubmissionError struct {
	Attempts int
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("batch submission failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a payee validation error.
func IsValidationError(err error) bool {
	var target *ValidationError

	return errors.As(err, &target)
}

// IsInsufficientFunds checks if an error indicates an underfunded account.
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError

	return errors.As(err, &target)
}

// IsSubmissionError checks if an error indicates an exhausted submission.
func IsSubmissionError(err error) bool {
	var target *SubmissionError

	return errors.As(err, &target)
}

// retryable reports whether the error belongs to one of the two transient
// classes the executor retries on.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNonceConflict)
}

func errorIsNonceConflict(err error) bool {
	return errors.Is(err, ErrNonceConflict)
}
