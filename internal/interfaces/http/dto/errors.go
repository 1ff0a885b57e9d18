package dto

import (
	"net/http"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ErrorCodeHTTPStatus maps ApiError codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound: http.StatusNotFound,

	// Conflicts with current data -> 409
	shared.CodeAlreadyExists:     http.StatusConflict,
	shared.CodeConflict:          http.StatusConflict,
	shared.CodeInsufficientStock: http.StatusConflict,
	shared.CodeOptimisticLock:    http.StatusConflict,

	shared.CodeValidation:   http.StatusBadRequest,
	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,

	// Business rule errors -> 422 Unprocessable Entity
	shared.CodeInvalidState:       http.StatusUnprocessableEntity,
	shared.CodeReservationExpired: http.StatusUnprocessableEntity,

	shared.CodePaymentFailed:   http.StatusPaymentRequired,
	shared.CodeRateLimited:     http.StatusTooManyRequests,
	shared.CodeExternalService: http.StatusBadGateway,
	shared.CodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
