package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cartapp "github.com/teebalk/marketplace/internal/application/cart"
	catalogapp "github.com/teebalk/marketplace/internal/application/catalog"
	experienceapp "github.com/teebalk/marketplace/internal/application/experience"
	"github.com/teebalk/marketplace/internal/application/notification"
	orderapp "github.com/teebalk/marketplace/internal/application/order"
	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	shopapp "github.com/teebalk/marketplace/internal/application/shop"
	uploadapp "github.com/teebalk/marketplace/internal/application/upload"
	webhookapp "github.com/teebalk/marketplace/internal/application/webhook"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/auth"
	"github.com/teebalk/marketplace/internal/infrastructure/cache"
	"github.com/teebalk/marketplace/internal/infrastructure/coin"
	"github.com/teebalk/marketplace/internal/infrastructure/config"
	"github.com/teebalk/marketplace/internal/infrastructure/event"
	"github.com/teebalk/marketplace/internal/infrastructure/exchange"
	"github.com/teebalk/marketplace/internal/infrastructure/logger"
	"github.com/teebalk/marketplace/internal/infrastructure/mail"
	paymentinfra "github.com/teebalk/marketplace/internal/infrastructure/payment"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence"
	"github.com/teebalk/marketplace/internal/infrastructure/scheduler"
	"github.com/teebalk/marketplace/internal/infrastructure/storage"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
	"github.com/teebalk/marketplace/internal/interfaces/http/handler"
	"github.com/teebalk/marketplace/internal/interfaces/http/middleware"
	"github.com/teebalk/marketplace/internal/interfaces/http/router"
)

// notificationTimeout bounds one notification handler run
const notificationTimeout = 30 * time.Second

// app owns every long-lived component of the API process
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *persistence.Database
	stores    *cache.Stores
	tracer    *telemetry.TracerProvider
	logs      *telemetry.LoggerProvider
	profiler  *telemetry.Profiler
	bus       *event.InMemoryEventBus
	scheduler *scheduler.Scheduler
	engine    *gin.Engine
}

// newApp connects to the database and external services and wires the
// application services into the HTTP engine. Nothing is started yet.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	if a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log); err != nil {
		return nil, err
	}
	if a.logs, err = telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log); err != nil {
		return nil, err
	}
	log = a.logs.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	a.log = log
	if a.profiler, err = telemetry.NewProfiler(cfg.Telemetry, cfg.App.Env, a.tracer, log); err != nil {
		return nil, err
	}

	gormCfg := logger.GormConfig{Level: cfg.Log.Level, SlowThreshold: cfg.Telemetry.DBSlowQueryThresh}
	if cfg.Telemetry.DBTraceEnabled {
		// the tracing callbacks report slow statements with their span
		gormCfg.SlowThreshold = 0
	}
	gormLog := logger.NewGormLogger(log, gormCfg)
	if a.db, err = persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog)); err != nil {
		return nil, err
	}
	if err = telemetry.RegisterDBTracing(a.db.DB, cfg.Telemetry, log); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}
	log.Info("Database connected", zap.String("driver", a.db.DB.Dialector.Name()))

	if a.stores, err = cache.NewStores(ctx, cfg.Redis, !cfg.App.IsProduction(), log); err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics()
	db := a.db.DB

	// Repositories
	shopRepo := persistence.NewGormShopRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	cartRepo := persistence.NewGormCartRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	txRepo := persistence.NewGormPaymentTransactionRepository(db)
	experienceRepo := persistence.NewGormExperienceRepository(db)
	sessionRepo := persistence.NewGormSessionRepository(db)
	reservationRepo := persistence.NewGormReservationRepository(db)
	bookingRepo := persistence.NewGormExperienceOrderRepository(db)
	scope := persistence.NewGormTransactionScope(db)

	// External services
	sso := auth.NewSSOClient(cfg.SSO, a.stores.Profiles, log)
	wallet := coin.NewClient(cfg.Coin, log)
	gateway, err := paymentinfra.NewStripeGateway(cfg.Stripe, nil, log)
	if err != nil {
		return nil, err
	}
	rates := exchange.NewClient(cfg.ExchangeRate, a.stores.Exchange, log)
	mailer := mail.New(cfg.Mail, log)

	var presigner uploadapp.Presigner
	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3Storage(cfg.Storage, log)
		if err != nil {
			return nil, err
		}
		presigner = s3
	} else {
		log.Warn("Object storage not configured, image uploads are disabled")
	}

	// Application services
	payments := paymentapp.NewPaymentService(txRepo, gateway, wallet, log, paymentapp.WithMetrics(metrics))
	shopService := shopapp.NewShopService(shopRepo)
	productService := catalogapp.NewProductService(productRepo, shopRepo)
	cartService := cartapp.NewCartService(cartRepo, productRepo, shopRepo)
	orderService := orderapp.NewOrderService(orderRepo, shopRepo, scope, payments, cfg.Order.CommissionRate, log)
	orderService.SetMetrics(metrics)
	experienceService := experienceapp.NewExperienceService(experienceRepo, sessionRepo, reservationRepo, shopRepo)
	bookingService := experienceapp.NewBookingService(scope, experienceRepo, sessionRepo, reservationRepo, bookingRepo,
		txRepo, shopRepo, payments, experienceapp.BookingConfig{
			HoldTTL:      cfg.Reservation.TTL,
			PaymentTTL:   cfg.Reservation.PaymentTTL,
			CleanupBatch: cfg.Reservation.CleanupBatch,
		}, log)
	bookingService.SetMetrics(metrics)
	webhookService := webhookapp.NewStripeWebhookService(webhookapp.StripeWebhookServiceConfig{
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Transactions:  txRepo,
		Orders:        orderService,
		Bookings:      bookingService,
		Idempotency:   a.stores.Idempotency,
		Metrics:       metrics,
		Logger:        log,
	})
	uploadService := uploadapp.NewUploadService(presigner, log)

	// Events: notifications are sent off the request path
	a.bus = event.NewInMemoryEventBus(log, event.WithAsyncDispatch(notificationTimeout))
	notifier := notification.NewNotifier(mailer, sso, shopRepo, log)
	for _, h := range []shared.EventHandler{
		notification.NewOrderPaidHandler(notifier),
		notification.NewOrderShippedHandler(notifier),
		notification.NewExperienceOrderPaidHandler(notifier, experienceRepo, sessionRepo),
	} {
		a.bus.Subscribe(h, h.EventTypes()...)
	}
	shopService.SetEventPublisher(a.bus)
	productService.SetEventPublisher(a.bus)
	orderService.SetEventPublisher(a.bus)
	bookingService.SetEventPublisher(a.bus)

	// Background jobs
	a.scheduler = scheduler.NewScheduler(log, metrics.ObserveJob)
	if err = a.scheduler.Register(scheduler.Job{
		Name:       "expire-reservations",
		Interval:   cfg.Reservation.CleanupInterval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := bookingService.CleanupExpiredReservations(ctx)
			return err
		},
	}); err != nil {
		return nil, err
	}

	checks := map[string]handler.HealthCheck{"database": a.db.Ping}
	if a.stores.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return a.stores.Client.Ping(ctx).Err() }
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.IsProduction()

	a.engine, err = router.NewEngine(router.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Logger:      log,
		HTTP:        cfg.HTTP,
		Security:    security,
		Verifier:    sso,
		Metrics:     metrics,
		Tracing:     cfg.Telemetry.Enabled,
	}, router.Handlers{
		System:     handler.NewSystemHandler(cfg.App.Name, version, checks),
		User:       handler.NewUserHandler(sso),
		Shop:       handler.NewShopHandler(shopService),
		Product:    handler.NewProductHandler(productService),
		Cart:       handler.NewCartHandler(cartService),
		Order:      handler.NewOrderHandler(orderService, payments),
		Experience: handler.NewExperienceHandler(experienceService),
		Booking:    handler.NewBookingHandler(bookingService),
		Webhook:    handler.NewStripeWebhookHandler(webhookService),
		Exchange:   handler.NewExchangeHandler(rates),
		Upload:     handler.NewUploadHandler(uploadService),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP engine: %w", err)
	}
	return a, nil
}

// start runs the event bus and the background jobs
func (a *app) start(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return err
	}
	return a.scheduler.Start(ctx)
}

// close stops background work and releases connections in reverse order of
// creation. It is safe on a partially built app.
func (a *app) close(ctx context.Context) {
	var errs []error
	if a.scheduler != nil {
		errs = append(errs, a.scheduler.Stop(ctx))
	}
	if a.bus != nil {
		errs = append(errs, a.bus.Stop(ctx))
	}
	if a.stores != nil {
		errs = append(errs, a.stores.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.profiler != nil {
		errs = append(errs, a.profiler.Stop())
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Error("Error during shutdown", zap.Error(err))
	}
}
