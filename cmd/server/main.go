package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/loomworks/internal"
	"github.com/dukerupert/loomworks/internal/billing"
	"github.com/dukerupert/loomworks/internal/bootstrap"
	"github.com/dukerupert/loomworks/internal/cart"
	"github.com/dukerupert/loomworks/internal/cookie"
	"github.com/dukerupert/loomworks/internal/email"
	"github.com/dukerupert/loomworks/internal/events"
	"github.com/dukerupert/loomworks/internal/handler"
	"github.com/dukerupert/loomworks/internal/handler/admin"
	"github.com/dukerupert/loomworks/internal/handler/storefront"
	"github.com/dukerupert/loomworks/internal/handler/webhook"
	"github.com/dukerupert/loomworks/internal/idempotency"
	"github.com/dukerupert/loomworks/internal/middleware"
	"github.com/dukerupert/loomworks/internal/pricing"
	"github.com/dukerupert/loomworks/internal/router"
	"github.com/dukerupert/loomworks/internal/routes"
	"github.com/dukerupert/loomworks/internal/service"
	"github.com/dukerupert/loomworks/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "loomworks"

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	telemetry.InitBusinessMetrics(metricsNamespace, registry)
	metrics := middleware.NewMetrics(metricsNamespace, registry)

	// Order and stock backend
	stores, err := bootstrap.OpenStores(ctx, cfg, true, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	// Processed-event ledger
	ledger, closeLedger, err := bootstrap.OpenLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	// Payment provider. Left nil when keys are absent so checkout answers 503.
	var provider billing.Provider
	if cfg.Stripe.Configured() {
		stripeProvider, err := billing.NewStripeProvider(billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Currency:      cfg.Stripe.Currency,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}
		provider = stripeProvider
		logger.Info("Stripe provider initialized")
	} else {
		logger.Warn("Stripe keys not set, payments disabled")
	}

	// Email
	notifier, err := email.NewService(newEmailSender(cfg, logger), email.Config{
		FromAddress:   cfg.Email.From,
		FromName:      cfg.Email.FromName,
		OperatorEmail: cfg.Email.OperatorEmail,
		BaseURL:       cfg.BaseURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Order events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS publisher connected", "subject", cfg.NATS.Subject)
	}

	// Services
	policy := pricing.Policy{
		FreeShippingThreshold: cfg.Shipping.FreeShippingThreshold,
		StandardShippingCost:  cfg.Shipping.StandardShippingCost,
		ExpressShippingCost:   cfg.Shipping.ExpressShippingCost,
	}
	orderService := service.NewOrderService(stores.Orders, &policy, logger)
	inventoryService := service.NewInventoryService(stores.Stock, logger)
	checkoutService := service.NewCheckoutService(stores.Orders, provider, service.CheckoutConfig{
		BaseURL:        cfg.BaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
		Currency:       cfg.Stripe.Currency,
	}, logger)
	reconciler := service.NewPaymentReconciler(service.ReconcilerDeps{
		Orders:    orderService,
		Inventory: inventoryService,
		Notifier:  notifier,
		Publisher: publisher,
		Claimer:   idempotency.NewGuard(ledger, "stripe", cfg.Idempotency.TTL),
	}, logger)

	// Middleware
	checkoutLimiter := middleware.NewRateLimiter(middleware.CheckoutRateLimiterConfig())
	defer checkoutLimiter.Stop()

	r := router.New(
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		metrics.Middleware,
		middleware.SecurityHeaders(middleware.APISecurityHeadersConfig(cfg.Env == "prod")),
		middleware.WithUser,
	)

	if cfg.MetricsEnabled {
		// Should be protected in production via firewall
		r.Get("/metrics", metrics.Handler().ServeHTTP)
	}
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		pingCtx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := stores.Ping(pingCtx); err != nil {
			handler.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "backend": stores.Backend})
			return
		}
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": stores.Backend})
	})

	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		CartHandler:     storefront.NewCartHandler(cart.NewCookieStore(cookie.NewConfig("", cfg.Env == "prod")), inventoryService, policy),
		OrderHandler:    storefront.NewOrderHandler(orderService),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService),
		CheckoutLimiter: checkoutLimiter,
	})
	routes.RegisterAdminRoutes(r, routes.AdminDeps{
		OrderHandler: admin.NewOrderHandler(orderService),
		StockHandler: admin.NewStockHandler(inventoryService),
		AdminEmails:  cfg.AdminEmails,
	})
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(provider, reconciler, logger),
	})

	if len(cfg.AdminEmails) == 0 {
		logger.Warn("ADMIN_EMAILS is empty, admin API will reject every request")
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{cfg.BaseURL}
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Recovery(logger)(router.CORS(origins)(r)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "backend", stores.Backend, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// newEmailSender picks Postmark, then SMTP. Nil means email is not configured.
func newEmailSender(cfg *internal.Config, logger *slog.Logger) email.Sender {
	switch {
	case cfg.Email.PostmarkToken != "":
		logger.Info("Email via Postmark")
		return email.NewPostmarkSender(cfg.Email.PostmarkToken)
	case cfg.Email.Host != "":
		logger.Info("Email via SMTP", "host", cfg.Email.Host, "port", cfg.Email.Port)
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
		}, logger)
	default:
		logger.Warn("No email provider configured, notifications will be skipped")
		return nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
