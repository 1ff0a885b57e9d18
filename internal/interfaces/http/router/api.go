package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
	"github.com/teebalk/marketplace/internal/infrastructure/logger"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
	"github.com/teebalk/marketplace/internal/interfaces/http/dto"
	"github.com/teebalk/marketplace/internal/interfaces/http/handler"
	"github.com/teebalk/marketplace/internal/interfaces/http/middleware"
)

// Options configures the engine's middleware chain
type Options struct {
	ServiceName string
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	Security    middleware.SecurityConfig
	Verifier    middleware.TokenVerifier
	Metrics     *telemetry.Metrics
	Tracing     bool
}

// Handlers are the API's handlers, one per resource
type Handlers struct {
	System     *handler.SystemHandler
	User       *handler.UserHandler
	Shop       *handler.ShopHandler
	Product    *handler.ProductHandler
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	Experience *handler.ExperienceHandler
	Booking    *handler.BookingHandler
	Webhook    *handler.StripeWebhookHandler
	Exchange   *handler.ExchangeHandler
	Upload     *handler.UploadHandler
}

// NewEngine builds the gin engine with the full middleware chain and every
// route of the API.
//
// ErrorHandler sits outside BodyLimit, RateLimit and Auth because those
// report their failures with c.Error.
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(opts.Logger),
	)
	if opts.Tracing {
		engine.Use(middleware.Tracing(opts.ServiceName), middleware.SpanAttributes())
	}
	cors := middleware.DefaultCORSConfig()
	if len(opts.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	}
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	engine.Use(
		logger.GinMiddleware(opts.Logger),
		middleware.HTTPMetrics(opts.Metrics),
		middleware.Secure(opts.Security),
		middleware.CORS(cors),
		middleware.ErrorHandler(opts.Logger),
	)
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(shared.CodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	engine.GET("/health", h.System.Health)
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	var limit []gin.HandlerFunc
	if opts.HTTP.RateLimitEnabled {
		limit = append(limit, middleware.RateLimit(middleware.NewRateLimiter(opts.HTTP.RateLimitRequests, opts.HTTP.RateLimitWindow)))
	}

	NewRouter(engine).Register(
		webhookRoutes(h),
		accountRoutes(h, opts.Verifier, limit),
		shopRoutes(h, opts.Verifier, limit),
		productRoutes(h, opts.Verifier, limit),
		cartRoutes(h, opts.Verifier, limit),
		orderRoutes(h, opts.Verifier, limit),
		experienceRoutes(h, opts.Verifier, limit),
		sessionRoutes(h, opts.Verifier, limit),
		bookingRoutes(h, opts.Verifier, limit),
		exchangeRoutes(h, limit),
		uploadRoutes(h, opts.Verifier, limit),
	).Setup()

	return engine, nil
}

// webhookRoutes are called by Stripe and carry no rate limit
func webhookRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("webhooks", "/webhooks").
		POST("/stripe", h.Webhook.HandleStripeWebhook)
}

// accountRoutes cover the caller's profile and the seller back office
func accountRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) RouteRegistrar {
	auth := middleware.Auth(v)
	return multi{
		NewDomainGroup("me", "/me").Use(limit...).Use(auth).
			GET("", h.User.Me),
		NewDomainGroup("seller", "/shop").Use(limit...).Use(auth).
			GET("", h.Shop.GetMine).
			GET("/orders", h.Order.ListShop).
			POST("/orders/:id/ship", h.Order.Ship).
			GET("/experiences", h.Experience.ListShop).
			POST("/check-in", h.Booking.CheckIn),
	}
}

func shopRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	auth, optional := middleware.Auth(v), middleware.OptionalAuth(v)
	return NewDomainGroup("shops", "/shops").Use(limit...).
		GET("", h.Shop.List).
		GET("/:id", optional, h.Shop.Get).
		GET("/:id/products", optional, h.Product.ListShop).
		POST("", auth, h.Shop.Create).
		PUT("/:id", auth, h.Shop.Update).
		POST("/:id/publish", auth, h.Shop.Publish).
		POST("/:id/unpublish", auth, h.Shop.Unpublish)
}

func productRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	auth, optional := middleware.Auth(v), middleware.OptionalAuth(v)
	return NewDomainGroup("products", "/products").Use(limit...).
		GET("", h.Product.List).
		GET("/:id", optional, h.Product.Get).
		POST("", auth, h.Product.Create).
		PUT("/:id", auth, h.Product.Update).
		DELETE("/:id", auth, h.Product.Delete).
		POST("/:id/publish", auth, h.Product.Publish).
		POST("/:id/unpublish", auth, h.Product.Unpublish)
}

func cartRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("cart", "/cart").Use(limit...).Use(middleware.Auth(v)).
		GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PATCH("/items/:id", h.Cart.UpdateItem).
		DELETE("/items/:id", h.Cart.RemoveItem)
}

func orderRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) RouteRegistrar {
	auth := middleware.Auth(v)
	return multi{
		NewDomainGroup("orders", "/orders").Use(limit...).Use(auth).
			POST("/checkout", h.Order.Checkout).
			GET("", h.Order.ListMine).
			GET("/:id", h.Order.Get).
			POST("/:id/cancel", h.Order.Cancel).
			POST("/:id/complete", h.Order.Complete),
		NewDomainGroup("payments", "/payments").Use(limit...).Use(auth).
			GET("/:id", h.Order.GetTransaction),
	}
}

func experienceRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	auth, optional := middleware.Auth(v), middleware.OptionalAuth(v)
	return NewDomainGroup("experiences", "/experiences").Use(limit...).
		GET("", h.Experience.List).
		GET("/:id", optional, h.Experience.Get).
		POST("", auth, h.Experience.Create).
		PUT("/:id", auth, h.Experience.Update).
		POST("/:id/publish", auth, h.Experience.Publish).
		POST("/:id/unpublish", auth, h.Experience.Unpublish).
		POST("/:id/tickets", auth, h.Experience.AddTicket).
		POST("/:id/sessions", auth, h.Experience.AddSession)
}

func sessionRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("sessions", "/sessions").Use(limit...).Use(middleware.Auth(v)).
		POST("/:id/cancel", h.Experience.CancelSession).
		POST("/:id/reservations", h.Booking.Reserve).
		DELETE("/:id/reservations", h.Booking.CancelReservation).
		POST("/:id/payment", h.Booking.Pay)
}

func bookingRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("bookings", "/bookings").Use(limit...).Use(middleware.Auth(v)).
		GET("", h.Booking.ListOrders).
		GET("/:id", h.Booking.GetOrder)
}

func exchangeRoutes(h Handlers, limit []gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("exchange", "/exchange-rates").Use(limit...).
		GET("", h.Exchange.Latest).
		GET("/convert", h.Exchange.Convert)
}

func uploadRoutes(h Handlers, v middleware.TokenVerifier, limit []gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("uploads", "/uploads").Use(limit...).Use(middleware.Auth(v)).
		POST("/presign", h.Upload.Presign)
}

// multi registers several groups as one
type multi []*DomainGroup

func (m multi) RegisterRoutes(rg *gin.RouterGroup) {
	for _, g := range m {
		g.RegisterRoutes(rg)
	}
}
