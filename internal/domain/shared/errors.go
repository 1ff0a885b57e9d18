package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes shared by every bounded context. The HTTP layer maps them to
// status codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeConflict           = "CONFLICT"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeOptimisticLock     = "OPTIMISTIC_LOCK_FAILED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidState       = "INVALID_STATE"
	CodeReservationExpired = "RESERVATION_EXPIRED"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// ApiError is a typed business error. Two ApiErrors match under errors.Is
// when their codes are equal, so callers can compare against the sentinels
// below regardless of the message.
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *ApiError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *ApiError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an ApiError with the same code
func (e *ApiError) Is(target error) bool {
	var t *ApiError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewApiError creates a new typed error
func NewApiError(code, message string) *ApiError {
	return &ApiError{
		Code:    code,
		Message: message,
	}
}

// WrapApiError creates a typed error that keeps cause in the chain
func WrapApiError(code, message string, cause error) *ApiError {
	return &ApiError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common errors
var (
	ErrNotFound           = NewApiError(CodeNotFound, "Resource not found")
	ErrAlreadyExists      = NewApiError(CodeAlreadyExists, "Resource already exists")
	ErrConflict           = NewApiError(CodeConflict, "Resource conflict")
	ErrInsufficientStock  = NewApiError(CodeInsufficientStock, "Insufficient stock available")
	ErrOptimisticLock     = NewApiError(CodeOptimisticLock, "Resource was modified by another request")
	ErrUnauthorized       = NewApiError(CodeUnauthorized, "Authentication required")
	ErrForbidden          = NewApiError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState       = NewApiError(CodeInvalidState, "Operation not allowed in current state")
	ErrReservationExpired = NewApiError(CodeReservationExpired, "Ticket reservation has expired")
	ErrPaymentFailed      = NewApiError(CodePaymentFailed, "Payment failed")
	ErrExternalService    = NewApiError(CodeExternalService, "External service unavailable")
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid input. It always maps to a 400 response.
type ValidationError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidationError creates a validation error without field details
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewFieldValidationError creates a validation error for a single field
func NewFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "Invalid input",
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
