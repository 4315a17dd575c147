// Package service implements the request/task lifecycle and the
// authorization rules around it.
package service

import (
	"errors"
	"fmt"

	"github.com/stickyasks/stickyasks-api/internal/store"
)

// Common sentinel errors returned by the services. The API layer maps
// these to HTTP status codes.
var (
	// ErrInvalidInput indicates missing or malformed caller-supplied data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the caller is authenticated but is neither
	// sender, recipient, nor assignee of the targeted entity.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition indicates a status precondition was not met,
	// e.g. completing a task that was never started. Concurrent writers
	// losing a transition race see this too.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRequestAlreadyClosed indicates an attempt to close a request
	// that is already closed.
	ErrRequestAlreadyClosed = errors.New("request already closed")
)

// ServiceError wraps errors from the services with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_or_merge").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps an error with operation context. Sentinel errors
// that the API layer matches on pass through unwrapped.
func newServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrRequestAlreadyClosed),
		errors.Is(err, store.ErrNotFound):
		return err
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
