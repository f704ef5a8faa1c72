package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/config"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/domain"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/handler"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/cache"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/email"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/postgres"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/resilience"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/stripe"
	"github.com/AIsTushar/tookierx-budget-blueprint/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
		zap.Duration("otp_ttl", cfg.OTPTTL),
	)

	// Monetary amounts serialize as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "tookierx-budget-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Database ---
	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// --- Cache ---
	paycheckCache := cache.New[*domain.Paycheck](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	emailClient := email.NewClient(
		httpClient,
		cfg.EmailAPIURL,
		cfg.EmailAPIKey,
		cfg.EmailFrom,
		resilience.NewCircuitBreaker("email"),
		resilienceCfg,
		metrics,
	)
	stripeClient := stripe.NewClient(
		httpClient,
		cfg.StripeAPIURL,
		cfg.StripeSecretKey,
		resilience.NewCircuitBreaker("stripe"),
		resilienceCfg,
		metrics,
	)

	// --- Services ---
	paycheckSvc := service.NewPaycheckService(store, store, store, paycheckCache, metrics, logger)
	billSvc := service.NewBillService(store, store, metrics, logger)
	allowanceSvc := service.NewAllowanceService(store, store, metrics, logger)
	savingsSvc := service.NewSavingsService(store, metrics, logger)
	creditCardSvc := service.NewCreditCardService(store, metrics, logger)
	authSvc := service.NewAuthService(store, emailClient, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.OTPTTL, logger)
	billingSvc := service.NewBillingService(store, stripeClient, cfg.StripePriceID, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Paychecks:   paycheckSvc,
		Bills:       billSvc,
		Allowances:  allowanceSvc,
		Savings:     savingsSvc,
		CreditCards: creditCardSvc,
		Auth:        authSvc,
		Billing:     billingSvc,
	}, store, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
