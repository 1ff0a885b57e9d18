package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/logger"
	"github.com/teebalk/marketplace/internal/interfaces/http/dto"
)

// ErrorHandler writes the response for the last error a handler attached
// with c.Error. Handlers never write error bodies themselves.
//
// *shared.ValidationError becomes 400 with field details, *shared.ApiError
// is mapped by code, anything else is logged and hidden behind a 500.
func ErrorHandler(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		requestID := GetRequestID(c)

		var ve *shared.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(ve, requestID))
			return
		}

		var apiErr *shared.ApiError
		if errors.As(err, &apiErr) {
			status := dto.GetHTTPStatus(apiErr.Code)
			if status >= http.StatusInternalServerError {
				logger.Enrich(c.Request.Context(), base).Error("Request failed",
					zap.String("code", apiErr.Code),
					zap.Error(err))
			}
			c.JSON(status, dto.NewErrorResponse(apiErr.Code, apiErr.Message, requestID))
			return
		}

		logger.Enrich(c.Request.Context(), base).Error("Unhandled error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			shared.CodeInternal,
			"An unexpected error occurred",
			requestID,
		))
	}
}
