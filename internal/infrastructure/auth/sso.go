// Package auth verifies access tokens issued by the SSO service and fetches
// user profiles from it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/infrastructure/cache"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
	"github.com/teebalk/marketplace/internal/infrastructure/external"
)

const serviceName = "SSO service"

// Token errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing subject in claims")
)

// Claims are the claims of an SSO access token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity is the authenticated caller taken from a verified token
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// Profile is the user record kept by the SSO service
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// SSOClient verifies HS256 tokens locally and reads profiles over HTTP.
// Profiles are cached for the configured TTL.
type SSOClient struct {
	secret   []byte
	issuer   string
	api      *external.Client
	apiKey   string
	profiles cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSSOClient creates an SSO client. profiles may be nil to disable caching.
func NewSSOClient(cfg config.SSOConfig, profiles cache.Cache, logger *zap.Logger) *SSOClient {
	return &SSOClient{
		secret:   []byte(cfg.TokenSecret),
		issuer:   cfg.Issuer,
		api:      external.NewClient(serviceName, cfg.BaseURL, cfg.Timeout, nil),
		apiKey:   cfg.APIKey,
		profiles: profiles,
		ttl:      cfg.ProfileCache,
		logger:   logger,
	}
}

// VerifyToken checks signature, issuer and expiry and returns the caller
func (c *SSOClient) VerifyToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: userID, Email: claims.Email, Name: claims.Name}, nil
}

// GetUser returns the profile of the token's owner via /api/v1/users/me
func (c *SSOClient) GetUser(ctx context.Context, token string) (*Profile, error) {
	identity, err := c.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	return c.cached(ctx, identity.UserID, func() (*Profile, error) {
		header := http.Header{"Authorization": {"Bearer " + token}}
		var p Profile
		if err := c.api.Do(ctx, http.MethodGet, "/api/v1/users/me", header, nil, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}

// LookupUser returns any user's profile using the service API key. It is
// used to address notification emails.
func (c *SSOClient) LookupUser(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return c.cached(ctx, userID, func() (*Profile, error) {
		header := http.Header{"X-Api-Key": {c.apiKey}}
		var p Profile
		path := "/api/v1/users/" + url.PathEscape(userID.String())
		if err := c.api.Do(ctx, http.MethodGet, path, header, nil, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}

func (c *SSOClient) cached(ctx context.Context, userID uuid.UUID, fetch func() (*Profile, error)) (*Profile, error) {
	key := userID.String()
	if c.profiles != nil {
		var p Profile
		found, err := c.profiles.Get(ctx, key, &p)
		if err != nil {
			c.logger.Warn("Profile cache read failed", zap.Error(err))
		} else if found {
			return &p, nil
		}
	}

	p, err := fetch()
	if err != nil {
		if external.StatusCode(err) == http.StatusUnauthorized {
			return nil, ErrInvalidToken
		}
		return nil, external.Unavailable(serviceName, fmt.Errorf("fetch profile %s: %w", key, err))
	}
	if p.ID == uuid.Nil {
		p.ID = userID
	}

	if c.profiles != nil {
		if err := c.profiles.Set(ctx, key, p, c.ttl); err != nil {
			c.logger.Warn("Profile cache write failed", zap.Error(err))
		}
	}
	return p, nil
}
