// Package errors provides the error taxonomy shared across the quotation engine.
package errors

import (
	"errors"
	"fmt"
)

// Type identifies the category of error.
type Type string

const (
	// TypeNotFound indicates a quote, item or catalog price is absent.
	TypeNotFound Type = "NOT_FOUND"

	// TypeInvalidState indicates a mutation attempted outside draft status.
	TypeInvalidState Type = "INVALID_STATE"

	// TypeInvalidTransition indicates an illegal status change.
	TypeInvalidTransition Type = "INVALID_TRANSITION"

	// TypeValidation indicates malformed input, such as a discount rate out of
	// range or an incomplete pricing context.
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeSequenceExhausted indicates quote-number generation ran out of retries.
	TypeSequenceExhausted Type = "SEQUENCE_EXHAUSTED"

	// TypeConflict indicates a concurrent modification was detected on write.
	TypeConflict Type = "CONFLICT"

	// TypeInternal indicates an internal error.
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is a domain error carrying its category and, when relevant, the
// offending field. Callers render user-facing messages from both.
type Error struct {
	Type    Type
	Message string
	Field   string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	case e.Field != "":
		return fmt.Sprintf("[%s] %s (field: %s)", e.Type, e.Message, e.Field)
	default:
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithField records the offending field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// New creates a new error.
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error.
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a category and message.
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err (or anything it wraps) carries the given type.
func IsType(err error, t Type) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// NotFound creates a not-found error for a named resource.
func NotFound(resource, id string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resource, id)
}

// InvalidState creates an invalid-state error.
func InvalidState(message string) *Error {
	return New(TypeInvalidState, message)
}

// InvalidTransition creates an invalid-transition error for a status change.
func InvalidTransition(from, to string) *Error {
	return Newf(TypeInvalidTransition, "cannot transition quote status from %q to %q", from, to).
		WithField("status")
}
