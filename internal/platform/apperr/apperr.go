// Package apperr defines the error taxonomy shared by services and handlers.
// Services return *Error values; the HTTP layer maps Code to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for the caller.
type Code string

const (
	// CodeUnauthenticated: credential missing, malformed, or rejected.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeUnauthorized: authenticated but not allowed (e.g. cross-org access, no org assignment).
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound: the resource does not exist (or is hidden from this caller).
	CodeNotFound Code = "not_found"
	// CodeValidation: the request payload is invalid; nothing was mutated.
	CodeValidation Code = "validation_error"
	// CodeConflict: a state race or invalid-state re-entry; nothing was mutated for the loser.
	CodeConflict Code = "conflict"
	// CodeUnavailable: an external collaborator failed or timed out.
	CodeUnavailable Code = "service_unavailable"
	// CodeInternal: unclassified internal failure; details are logged, not surfaced.
	CodeInternal Code = "internal"
)

// Error is a classified error with a caller-safe message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New returns a classified error with a caller-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf returns a classified error with a formatted caller-safe message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a classified error wrapping cause. The cause is not exposed to callers.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf returns the Code of err if it is (or wraps) an *Error; CodeInternal otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
