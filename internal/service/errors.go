package service

import "errors"

var (
	// ErrNotFound is returned for a missing or cross-tenant resource
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned on a role or ownership violation
	ErrForbidden = errors.New("access forbidden")

	// ErrInvalidState is returned when a lifecycle precondition is
	// violated; callers should re-fetch the current status rather than
	// retry blindly
	ErrInvalidState = errors.New("invalid invoice state for this operation")

	// ErrValidation is returned for bad input; wrap it with detail
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDependency is returned when a collaborator (PDF, blob, email)
	// fails in a position where the failure blocks the operation
	ErrDependency = errors.New("dependency failure")
)
