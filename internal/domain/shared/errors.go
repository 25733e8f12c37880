package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// ErrorCode returns the machine-readable code
func (e *DomainError) ErrorCode() string {
	return e.Code
}

// Is matches domain errors by code so that wrapped or detailed copies
// still satisfy errors.Is against the sentinel values below.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateRequest    = NewDomainError("DUPLICATE_REQUEST", "A request with the same idempotency key is in progress")
)
