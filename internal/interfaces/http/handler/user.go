package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/interfaces/http/middleware"
)

// ProfileReader reads the caller's SSO profile with their own token
type ProfileReader interface {
	GetUser(ctx context.Context, token string) (*auth.Profile, error)
}

// UserHandler handles the caller's account endpoints
type UserHandler struct {
	BaseHandler
	profiles ProfileReader
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(profiles ProfileReader) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// Me returns the caller's SSO profile
func (h *UserHandler) Me(c *gin.Context) {
	if _, ok := h.CurrentUser(c); !ok {
		return
	}
	token := strings.TrimPrefix(c.GetHeader(middleware.AuthHeaderKey), middleware.BearerPrefix)
	profile, err := h.profiles.GetUser(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, profile)
}
