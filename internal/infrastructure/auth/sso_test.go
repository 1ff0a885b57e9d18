package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/cache"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID uuid.UUID) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sso",
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "buyer@example.com",
		Name:  "Buyer",
	}
}

func newTestClient(baseURL string, profiles cache.Cache) *SSOClient {
	return NewSSOClient(config.SSOConfig{
		BaseURL:      baseURL,
		APIKey:       "svc-key",
		TokenSecret:  testSecret,
		Issuer:       "sso",
		ProfileCache: time.Minute,
		Timeout:      time.Second,
	}, profiles, zap.NewNop())
}

func TestSSOClient_VerifyToken(t *testing.T) {
	c := newTestClient("http://unused", nil)
	userID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		id, err := c.VerifyToken(signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID)))
		require.NoError(t, err)
		assert.Equal(t, userID, id.UserID)
		assert.Equal(t, "buyer@example.com", id.Email)
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims(userID)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := c.VerifyToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims(userID)
		claims.Issuer = "someone-else"
		_, err := c.VerifyToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := c.VerifyToken(signToken(t, "another-secret-another-secret-123", jwt.SigningMethodHS256, validClaims(userID)))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		_, err := c.VerifyToken(signToken(t, testSecret, jwt.SigningMethodHS512, validClaims(userID)))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims(userID)
		claims.ExpiresAt = nil
		_, err := c.VerifyToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject is not a uuid", func(t *testing.T) {
		claims := validClaims(userID)
		claims.Subject = "42"
		_, err := c.VerifyToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSSOClient_GetUserCachesProfile(t *testing.T) {
	userID := uuid.New()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/v1/users/me", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
		_, _ = w.Write([]byte(`{"id":"` + userID.String() + `","email":"buyer@example.com","name":"Buyer"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, cache.NewMemoryCache())
	token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID))

	for i := 0; i < 3; i++ {
		p, err := c.GetUser(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "buyer@example.com", p.Email)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestSSOClient_LookupUser(t *testing.T) {
	userID := uuid.New()

	t.Run("uses service key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "svc-key", r.Header.Get("X-Api-Key"))
			assert.Equal(t, "/api/v1/users/"+userID.String(), r.URL.Path)
			_, _ = w.Write([]byte(`{"email":"seller@example.com","name":"Seller"}`))
		}))
		defer srv.Close()

		p, err := newTestClient(srv.URL, nil).LookupUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, userID, p.ID)
		assert.Equal(t, "seller@example.com", p.Email)
	})

	t.Run("service down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, nil).LookupUser(context.Background(), userID)
		assert.ErrorIs(t, err, shared.ErrExternalService)
	})
}
