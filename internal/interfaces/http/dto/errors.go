package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION> for transport level errors. Register
// engine codes are returned verbatim so clients can branch on them.

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller may not touch the resource
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Register engine codes
const (
	CodeAlreadyOpenSession  = "ALREADY_OPEN_SESSION"
	CodeSessionNotOpen      = "SESSION_NOT_OPEN"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeCashboxInactive     = "CASHBOX_INACTIVE"
	CodeActiveCashboxExists = "ACTIVE_CASHBOX_EXISTS"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeExceedsOutstanding  = "EXCEEDS_OUTSTANDING"
	CodeExceedsPaid         = "EXCEEDS_PAID"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	// Register engine
	CodeAlreadyOpenSession:  http.StatusConflict,
	CodeDuplicateRequest:    http.StatusConflict,
	CodeActiveCashboxExists: http.StatusConflict,
	CodeSessionNotOpen:      http.StatusUnprocessableEntity,
	CodeInsufficientFunds:   http.StatusUnprocessableEntity,
	CodeCashboxInactive:     http.StatusUnprocessableEntity,
	CodeExceedsOutstanding:  http.StatusUnprocessableEntity,
	CodeExceedsPaid:         http.StatusUnprocessableEntity,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unlisted INVALID_* codes are input errors; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the generic domain codes to transport codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a generic domain code to the transport format.
// Register engine codes and unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
