// Package domerrors defines the coded errors the registration engine returns
// to callers. Services wrap store sentinels into these; the HTTP layer maps
// codes to status codes in one place.
package domerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for machine handling.
type Code string

const (
	// CodeValidation covers field-level and roster-level rule violations.
	// Recoverable: the user corrects the input.
	CodeValidation Code = "validation"
	// CodeState covers mutations of a batch that has left PENDING and
	// transitions out of a terminal state. Recoverable by refreshing state.
	CodeState Code = "state"
	// CodeDeadline covers submissions after the registration deadline.
	// Terminal for the event, not retryable.
	CodeDeadline Code = "deadline"
	// CodeDependency covers deletes/deactivations blocked by dependents.
	CodeDependency Code = "dependency"
	// CodeConcurrency covers optimistic-transition races. Recoverable by
	// retrying against fresh state; the engine itself never retries.
	CodeConcurrency Code = "concurrency"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error. Reason is a stable machine-readable token
// ("sibling_threshold", "deadline_passed", "not_pending", ...); Message is for
// humans.
type Error struct {
	Code    Code
	Reason  string
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds a coded error without a machine reason.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewReason builds a coded error with a machine-readable reason token.
func NewReason(code Code, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// Wrap attaches a cause so callers can still errors.Is against sentinels.
func Wrap(code Code, reason, message string, cause error) *Error {
	return &Error{Code: code, Reason: reason, Message: message, wrapped: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ReasonOf returns the machine reason of err, or "" when err is not coded.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeState, CodeConcurrency, CodeDependency:
		return http.StatusConflict
	case CodeDeadline:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
