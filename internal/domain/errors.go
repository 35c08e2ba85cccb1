package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrUpstream   = errors.New("upstream error")

	// ErrMalformedResponse marks a 2xx provider response whose body could
	// not be used.
	ErrMalformedResponse = errors.New("malformed response")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// UpstreamError reports a failed call to a third-party provider: a non-2xx
// response (Status set), a transport failure (Status 0, Err set) or an
// unusable 2xx body (Err wraps ErrMalformedResponse).
// Message carries the provider's own error text when it sent one; it is
// meant for logs, not for API callers.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, http.StatusText(e.Status))
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, ErrUpstream)
	}
}

// Is makes errors.Is(err, ErrUpstream) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same call may succeed.
// Transport failures, 429 and 5xx responses are temporary. Malformed
// bodies are not.
func (e *UpstreamError) Temporary() bool {
	if e.Status == 0 {
		return e.Err != nil && !errors.Is(e.Err, ErrMalformedResponse)
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}
