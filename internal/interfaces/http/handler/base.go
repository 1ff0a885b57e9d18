// Package handler holds the gin handlers of the marketplace API. Handlers
// bind and validate input, call one application service and write the
// envelope; errors are attached with c.Error and rendered by
// middleware.ErrorHandler.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/interfaces/http/dto"
	"github.com/teebalk/marketplace/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error hands err to the error middleware
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
}

// BindJSON binds the body into obj. On failure the validation error is
// attached and false returned.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, middleware.ValidationErrorFrom(err))
		return false
	}
	return true
}

// BindQuery binds query parameters into obj
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, middleware.ValidationErrorFrom(err))
		return false
	}
	return true
}

// CurrentUser returns the authenticated caller. Routes behind
// middleware.Auth always have one.
func (h *BaseHandler) CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		h.Error(c, shared.ErrUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// PathID parses the :name path parameter as a UUID
func (h *BaseHandler) PathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, shared.NewFieldValidationError(name, "Invalid UUID format"))
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional UUID query parameter
func (h *BaseHandler) QueryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(c, shared.NewFieldValidationError(name, "Invalid UUID format"))
		return nil, false
	}
	return &id, true
}

// viewer returns the caller on routes with optional auth
func viewer(c *gin.Context) *uuid.UUID {
	if userID, ok := middleware.GetUserID(c); ok {
		return &userID
	}
	return nil
}

// page writes a paginated list
func page[T any](c *gin.Context, p *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(*p))
}
