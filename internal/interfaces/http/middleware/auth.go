package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/infrastructure/logger"
)

// Auth header constants
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

const identityKey = "identity"

// TokenVerifier verifies SSO access tokens
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Identity, error)
}

// Auth requires a valid SSO bearer token
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, true)
}

// OptionalAuth attaches the caller when a bearer token is sent. A token
// that fails verification is still rejected.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			if required {
				_ = c.Error(shared.NewApiError(shared.CodeUnauthorized, "Authorization header is required"))
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			_ = c.Error(shared.NewApiError(shared.CodeUnauthorized, "Authorization header must use the Bearer scheme"))
			c.Abort()
			return
		}

		identity, err := verifier.VerifyToken(strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)))
		if err != nil {
			msg := "Invalid access token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Access token has expired"
			}
			_ = c.Error(shared.WrapApiError(shared.CodeUnauthorized, msg, err))
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), identity.UserID.String()))
		c.Next()
	}
}

// GetIdentity returns the authenticated caller, if any
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*auth.Identity)
	return identity, ok
}

// GetUserID returns the authenticated caller's id
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := GetIdentity(c)
	if !ok {
		return uuid.Nil, false
	}
	return identity.UserID, true
}
