package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, shared.ErrNotFound) against a specific, detailed error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidState        = "INVALID_STATE"
	CodeAlreadyProcessed    = "ALREADY_PROCESSED"
	CodeConflict            = "CONFLICT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrAlreadyProcessed    = NewDomainError(CodeAlreadyProcessed, "Resource has already been processed")
	ErrConflict            = NewDomainError(CodeConflict, "Unique value collided with a concurrent writer")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// NotFoundf builds a NOT_FOUND error with a formatted message
func NotFoundf(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// InvalidInputf builds an INVALID_INPUT error with a formatted message
func InvalidInputf(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidStatef builds an INVALID_STATE error with a formatted message
func InvalidStatef(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// AlreadyProcessedf builds an ALREADY_PROCESSED error with a formatted message
func AlreadyProcessedf(format string, args ...any) *DomainError {
	return NewDomainError(CodeAlreadyProcessed, fmt.Sprintf(format, args...))
}

// IsInvalidRequest reports whether err is a caller error: a missing entity,
// a bad input, an unmet status precondition or an already processed origin.
func IsInvalidRequest(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case CodeNotFound, CodeInvalidInput, CodeInvalidState, CodeAlreadyProcessed:
		return true
	}
	return false
}

// IsRetryable reports whether err is a write collision that a fresh unit of
// work may resolve.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrConcurrencyConflict)
}
