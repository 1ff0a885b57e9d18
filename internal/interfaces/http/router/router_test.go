package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
	"github.com/teebalk/marketplace/internal/interfaces/http/handler"
	"github.com/teebalk/marketplace/internal/interfaces/http/middleware"
	"github.com/teebalk/marketplace/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	NewRouter(engine, WithAPIVersion("v2")).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroup(t *testing.T) {
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		group := NewDomainGroup("items", "/items").
			GET("", ok).
			POST("", ok).
			PUT("/:id", ok).
			PATCH("/:id", ok).
			DELETE("/:id", ok)
		assert.Equal(t, "items", group.Name())
		assert.Equal(t, "/items", group.Prefix())

		group.RegisterRoutes(engine.Group("/api"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/items"},
			{http.MethodPost, "/api/items"},
			{http.MethodPut, "/api/items/1"},
			{http.MethodPatch, "/api/items/1"},
			{http.MethodDelete, "/api/items/1"},
		} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, tc.method)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("group middleware runs before route handlers", func(t *testing.T) {
		engine := gin.New()
		var order []string
		mw := func(name string) gin.HandlerFunc {
			return func(c *gin.Context) { order = append(order, name); c.Next() }
		}
		NewDomainGroup("g", "/g").Use(mw("group")).
			GET("/x", mw("route"), func(c *gin.Context) { order = append(order, "handler") }).
			RegisterRoutes(engine.Group(""))

		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/g/x", nil))
		assert.Equal(t, []string{"group", "route", "handler"}, order)
	})

	t.Run("middleware does not leak into other groups", func(t *testing.T) {
		engine := gin.New()
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }
		NewRouter(engine).Register(
			NewDomainGroup("closed", "/closed").Use(deny).GET("", ok),
			NewDomainGroup("open", "/open").GET("", ok),
		).Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/closed", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/open", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

type staticVerifier struct{ userID uuid.UUID }

func (v staticVerifier) VerifyToken(token string) (*auth.Identity, error) {
	if token != "good" {
		return nil, shared.NewApiError(shared.CodeUnauthorized, "Invalid access token")
	}
	return &auth.Identity{UserID: v.userID}, nil
}

func testEngine(t *testing.T, httpCfg config.HTTPConfig, checks map[string]handler.HealthCheck) *gin.Engine {
	t.Helper()
	engine, err := NewEngine(Options{
		ServiceName: "marketplace-test",
		Logger:      zap.NewNop(),
		HTTP:        httpCfg,
		Security:    middleware.DefaultSecurityConfig(),
		Verifier:    staticVerifier{userID: uuid.New()},
		Metrics:     telemetry.NewMetrics(),
	}, Handlers{
		System:     handler.NewSystemHandler("marketplace", "test", checks),
		User:       handler.NewUserHandler(nil),
		Shop:       handler.NewShopHandler(nil),
		Product:    handler.NewProductHandler(nil),
		Cart:       handler.NewCartHandler(nil),
		Order:      handler.NewOrderHandler(nil, nil),
		Experience: handler.NewExperienceHandler(nil),
		Booking:    handler.NewBookingHandler(nil),
		Webhook:    handler.NewStripeWebhookHandler(nil),
		Exchange:   handler.NewExchangeHandler(nil),
		Upload:     handler.NewUploadHandler(nil),
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine_Routes(t *testing.T) {
	engine := testEngine(t, config.HTTPConfig{}, nil)

	registered := make(map[string]bool)
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, route := range []string{
		"GET /health",
		"GET /metrics",
		"GET /api/v1/me",
		"GET /api/v1/shop",
		"GET /api/v1/shop/orders",
		"POST /api/v1/shop/orders/:id/ship",
		"POST /api/v1/shop/check-in",
		"POST /api/v1/shops",
		"GET /api/v1/shops/:id/products",
		"DELETE /api/v1/products/:id",
		"PATCH /api/v1/cart/items/:id",
		"POST /api/v1/orders/checkout",
		"POST /api/v1/orders/:id/complete",
		"GET /api/v1/payments/:id",
		"POST /api/v1/experiences/:id/sessions",
		"POST /api/v1/sessions/:id/reservations",
		"DELETE /api/v1/sessions/:id/reservations",
		"POST /api/v1/sessions/:id/payment",
		"GET /api/v1/bookings/:id",
		"GET /api/v1/exchange-rates/convert",
		"POST /api/v1/uploads/presign",
		"POST /api/v1/webhooks/stripe",
	} {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestNewEngine_Envelopes(t *testing.T) {
	engine := testEngine(t, config.HTTPConfig{}, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
	})

	t.Run("unknown route", func(t *testing.T) {
		w := testutil.Serve(t, engine, testutil.Request{Path: "/api/v1/nothing"})

		info := testutil.AssertErrorEnvelope(t, w, http.StatusNotFound, shared.CodeNotFound)
		assert.NotEmpty(t, info.RequestID)
	})

	t.Run("protected route without token", func(t *testing.T) {
		w := testutil.Serve(t, engine, testutil.Request{Path: "/api/v1/cart"})
		testutil.AssertErrorEnvelope(t, w, http.StatusUnauthorized, shared.CodeUnauthorized)

		w = testutil.Serve(t, engine, testutil.Request{Path: "/api/v1/cart", Token: "bad"})
		testutil.AssertErrorEnvelope(t, w, http.StatusUnauthorized, shared.CodeUnauthorized)
	})

	t.Run("health and security headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "marketplace_http_requests_total")
	})
}

func TestNewEngine_RateLimit(t *testing.T) {
	engine := testEngine(t, config.HTTPConfig{
		RateLimitEnabled:  true,
		RateLimitRequests: 1,
		RateLimitWindow:   time.Minute,
	}, nil)

	get := func(path string) int {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, get("/api/v1/cart"))
	assert.Equal(t, http.StatusTooManyRequests, get("/api/v1/cart"))
	// health is outside the API groups
	assert.Equal(t, http.StatusOK, get("/health"))
}

func TestNewEngine_BadTrustedProxy(t *testing.T) {
	_, err := NewEngine(Options{
		Logger: zap.NewNop(),
		HTTP:   config.HTTPConfig{TrustedProxies: []string{"not-an-ip"}},
	}, Handlers{})
	assert.Error(t, err)
}
