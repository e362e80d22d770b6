// Package apperr defines the sentinel errors shared across the backend.
// Handlers map these onto HTTP status codes at the boundary; everything
// below the boundary wraps them with fmt.Errorf("...: %w", err).
package apperr

import "errors"

var (
	// ErrNotFound is returned when a referenced topic, course, path,
	// user or notification does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when an authenticated caller lacks the
	// role an operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed input, including
	// prerequisite edges that would close a cycle.
	ErrValidation = errors.New("validation failed")

	// ErrLimitExceeded is returned when an admin-enforced cap is hit
	// (10 users, 2 admins, 10 courses, 5 topics per course).
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrExternalService is returned when the quiz content provider
	// produced unusable output.
	ErrExternalService = errors.New("external service failure")
)
