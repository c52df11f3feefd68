package app

import (
	"fmt"

	"github.com/commercekit/checkout/internal/module/accounting"
	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/module/merchant"
	"github.com/commercekit/checkout/internal/module/order"
	"github.com/commercekit/checkout/internal/module/payment"
	"github.com/commercekit/checkout/internal/module/receipt"
	"github.com/commercekit/checkout/internal/module/refund"
	"github.com/commercekit/checkout/internal/shared/config"
	"github.com/commercekit/checkout/internal/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application.
type App struct {
	infra   *Infra
	cleanup func()
	router  *gin.Engine

	paymentHandler *payment.Handler
	refundHandler  *refund.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	infra, cleanup, err := InitializeInfra(cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	app := &App{
		infra:   infra,
		cleanup: cleanup,
	}

	if err := migrate(infra); err != nil {
		cleanup()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err := app.initModules(); err != nil {
		cleanup()
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// migrate keeps the schema in sync with the models. The unique index
// on accounting correlation keys is what makes entry creation
// idempotent, so migrations run before any module starts.
func migrate(infra *Infra) error {
	return infra.DB.AutoMigrate(
		&order.Order{},
		&order.OrderItem{},
		&merchant.Config{},
		&payment.Payment{},
		&refund.Refund{},
		&refund.RefundItem{},
		&accounting.Entry{},
		&accounting.Line{},
	)
}

// initModules builds the module graph.
func (a *App) initModules() error {
	cfg := a.infra.Config
	log := a.infra.Logger
	m := a.infra.Metrics

	// Gateway registry. Only configured gateways are registered;
	// payments referencing an unregistered gateway fail closed at
	// verification time.
	registry := gateway.NewRegistry()
	if cfg.Gateway.Stripe.APIKey != "" {
		stripeGW := gateway.NewStripeGateway(&gateway.StripeConfig{
			APIKey:        cfg.Gateway.Stripe.APIKey,
			WebhookSecret: cfg.Gateway.Stripe.WebhookSecret,
		}, log)
		if err := registry.Register(stripeGW); err != nil {
			return err
		}
	}
	if cfg.Gateway.Alipay.AppID != "" && cfg.Gateway.Alipay.PrivateKey != "" {
		alipayGW, err := gateway.NewAlipayGateway(&gateway.AlipayConfig{
			AppID:           cfg.Gateway.Alipay.AppID,
			PrivateKey:      cfg.Gateway.Alipay.PrivateKey,
			AlipayPublicKey: cfg.Gateway.Alipay.AlipayPublicKey,
			IsProd:          cfg.Gateway.Alipay.IsProd,
		}, log)
		if err != nil {
			return fmt.Errorf("create alipay gateway: %w", err)
		}
		if err := registry.Register(alipayGW); err != nil {
			return err
		}
	}

	// Repositories.
	orderRepo := order.NewRepository(a.infra.DB)
	merchantRepo := merchant.NewRepository(a.infra.DB)
	paymentRepo := payment.NewRepository(a.infra.DB)
	accountingRepo := accounting.NewRepository(a.infra.DB)
	refundRepo := refund.NewRepository(a.infra.DB)

	// Services.
	orderService := order.NewService(orderRepo, log)
	merchantService := merchant.NewService(merchantRepo, a.infra.Redis, cfg.Checkout.MerchantCacheTTL, m, log)
	paymentService := payment.NewService(paymentRepo)
	guard := accounting.NewGuard(accountingRepo, log)

	notifier := receipt.NewNotifier(&cfg.Messaging, merchantService, log)
	effects := payment.NewEffectExecutor(notifier, guard, orderService, m, log)
	holds := payment.NewHoldCanceller(paymentRepo, registry, m, log)

	refundService := refund.NewService(
		refundRepo,
		orderService,
		newPaymentRefAdapter(paymentService),
		registry,
		guard,
		log,
	)
	orchestrator := refund.NewOrchestrator(refundRepo, orderService, paymentService, m, log)

	resolver := payment.NewRedirectResolver(cfg.Checkout.ReturnBaseURL)
	reconciler := payment.NewReconciler(
		paymentRepo,
		orderService,
		merchantService,
		registry,
		resolver,
		effects,
		holds,
		newRefundAdapter(refundService),
		m,
		log,
	)

	a.paymentHandler = payment.NewHandler(reconciler, log)
	a.refundHandler = refund.NewHandler(orchestrator, refundService, log)

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.infra.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.infra.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.infra.Logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.infra.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	// Gateway callbacks authenticate through signature verification,
	// not through the admin JWT.
	a.paymentHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(a.infra.Config.Auth.JWTSecret, "admin", "support"))
	if a.infra.Redis != nil {
		protected.Use(middleware.Idempotency(a.infra.Redis, middleware.DefaultIdempotencyConfig()))
	}
	a.refundHandler.RegisterRoutes(protected)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.infra != nil && a.infra.Logger != nil {
		_ = a.infra.Logger.Sync()
	}
	if a.cleanup != nil {
		a.cleanup()
	}
}
