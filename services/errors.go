package services

import "errors"

// Error kinds surfaced by the review core. Controllers map these onto HTTP
// status codes with errors.Is; everything except ErrTransport aborts the
// triggering operation.
var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotAssigned marks a reviewer acting outside their assignment.
	ErrNotAssigned = errors.New("reviewer is not assigned to this abstract")
	// ErrDuplicateReview marks a second review attempt for the same abstract.
	ErrDuplicateReview = errors.New("review already submitted")
	// ErrConflict marks a state transition attempted from a terminal or
	// otherwise invalid state.
	ErrConflict = errors.New("operation conflicts with current abstract state")
	// ErrNotFound marks a missing abstract, reviewer or rule.
	ErrNotFound = errors.New("not found")
	// ErrTransport marks an email delivery failure. It never unwinds an
	// already-committed decision; callers log it and carry on.
	ErrTransport = errors.New("email transport failed")
)
