package review

import "errors"

var (
	// ErrReviewNotFound is returned when no parked execution carries the
	// given review request ID.
	ErrReviewNotFound = errors.New("review request not found")

	// ErrAlreadyDecided is returned when a second decision arrives for a
	// review request that was already stamped. The original decision stands.
	ErrAlreadyDecided = errors.New("review request already decided")

	// ErrInvalidSubmission is returned for structurally invalid submissions.
	ErrInvalidSubmission = errors.New("invalid review submission")
)

// IsNotFound checks if an error means the review request does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReviewNotFound)
}

// IsConflict checks if an error means the review request was already decided.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyDecided)
}

// IsInvalidSubmission checks if an error means the submission failed validation.
func IsInvalidSubmission(err error) bool {
	return errors.Is(err, ErrInvalidSubmission)
}
