package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/showsettle/showsettle-backend/api/routes"
	"github.com/showsettle/showsettle-backend/internal/auth"
	"github.com/showsettle/showsettle-backend/internal/billing"
	"github.com/showsettle/showsettle-backend/internal/entitlements"
	"github.com/showsettle/showsettle-backend/internal/sharelinks"
	"github.com/showsettle/showsettle-backend/internal/shows"
	"github.com/showsettle/showsettle-backend/internal/users"
	stripewebhook "github.com/showsettle/showsettle-backend/internal/webhooks/stripe"
	"github.com/showsettle/showsettle-backend/pkg/auth/session"
	"github.com/showsettle/showsettle-backend/pkg/config"
	"github.com/showsettle/showsettle-backend/pkg/db"
	"github.com/showsettle/showsettle-backend/pkg/logger"
	"github.com/showsettle/showsettle-backend/pkg/metrics"
	"github.com/showsettle/showsettle-backend/pkg/migrate"
	"github.com/showsettle/showsettle-backend/pkg/redis"
	pkgstripe "github.com/showsettle/showsettle-backend/pkg/stripe"

	subsvc "github.com/showsettle/showsettle-backend/internal/subscriptions"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	showsRepo := shows.NewRepository(dbClient.DB())
	showsService, err := shows.NewService(showsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create shows service", err)
		os.Exit(1)
	}

	shareLinkService, err := sharelinks.NewService(sharelinks.NewRepository(dbClient.DB()), showsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create share link service", err)
		os.Exit(1)
	}

	entitlementsRepo := entitlements.NewRepository(dbClient.DB())
	entitlementsService, err := entitlements.NewService(entitlementsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlements service", err)
		os.Exit(1)
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:         billingRepo,
		Sessions:     billing.NewStripeSessionClient(stripeClient),
		StripeConfig: cfg.Stripe,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		BillingRepo:       billingRepo,
		EntitlementsRepo:  entitlementsRepo,
		StripeClient:      subsvc.NewStripeClient(stripeClient),
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookEventTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:              cfg,
			Logger:              logg,
			DBPinger:            dbClient,
			RedisClient:         redisClient,
			SessionManager:      sessionManager,
			AuthService:         authService,
			ShowsService:        showsService,
			ShareLinkService:    shareLinkService,
			EntitlementsService: entitlementsService,
			BillingService:      billingService,
			StripeClient:        stripeClient,
			WebhookService:      webhookService,
			WebhookGuard:        webhookGuard,
			WebhookMetrics:      webhookMetrics,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
