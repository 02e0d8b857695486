package core

import (
	"errors"
	"fmt"
)

// Error is a categorized interaction failure. Every failure raised by the
// interaction layer is one of these, so callers can branch with errors.Is
// against the predefined values below.
type Error struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, so derived copies
// (WithCause, WithMessage, ...) still match the predefined errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithMessagef is WithMessage with formatting.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	ErrTimeout = &Error{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "wait condition timed out",
	}
	ErrNotFound = &Error{
		Category: ErrCategoryNotFound,
		Code:     "not_found",
		Message:  "element not found",
	}
	ErrStaleElement = &Error{
		Category: ErrCategoryStaleElement,
		Code:     "stale_element",
		Message:  "element is no longer attached to the UI tree",
	}
	ErrInvalidArgument = &Error{
		Category: ErrCategoryInvalidArgument,
		Code:     "invalid_argument",
		Message:  "invalid argument",
	}
	ErrConnection = &Error{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not talk to automation server",
	}
	ErrInvalidConfig = &Error{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewError creates a new Error with the given parameters
func NewError(category ErrorCategory, code, message string) *Error {
	return &Error{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of the first *Error in err's chain.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrCategoryNone
}
