package apperr

import (
	"errors"
	"fmt"
)

// Invalid is returned when the input fails domain validation.
var Invalid = errors.New("invalid input")

// Conflict indicates a uniqueness or state conflict (HTTP 409).
var Conflict = errors.New("conflict")

// NotFound indicates that the requested resource does not exist.
var NotFound = errors.New("not found")

// StaleVersion indicates an optimistic-concurrency failure: the caller's base
// plan version is no longer current and must be re-fetched before retrying.
var StaleVersion = errors.New("stale plan version")

// FieldError ties a validation failure to the specific input field. It wraps
// Invalid so errors.Is(err, apperr.Invalid) still matches.
type FieldError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input: field %q %s", e.Field, e.Reason)
}

// Unwrap lets FieldError match apperr.Invalid.
func (e *FieldError) Unwrap() error { return Invalid }

// Fieldf builds a FieldError with a formatted reason.
func Fieldf(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
