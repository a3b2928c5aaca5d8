package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/showsettle/showsettle-backend/api/controllers"
	webhookcontrollers "github.com/showsettle/showsettle-backend/api/controllers/webhooks"
	"github.com/showsettle/showsettle-backend/api/middleware"
	"github.com/showsettle/showsettle-backend/internal/auth"
	"github.com/showsettle/showsettle-backend/internal/entitlements"
	"github.com/showsettle/showsettle-backend/internal/sharelinks"
	"github.com/showsettle/showsettle-backend/internal/shows"
	stripewebhook "github.com/showsettle/showsettle-backend/internal/webhooks/stripe"
	"github.com/showsettle/showsettle-backend/pkg/auth/session"
	"github.com/showsettle/showsettle-backend/pkg/config"
	"github.com/showsettle/showsettle-backend/pkg/db"
	"github.com/showsettle/showsettle-backend/pkg/logger"
	"github.com/showsettle/showsettle-backend/pkg/metrics"
	"github.com/showsettle/showsettle-backend/pkg/redis"
	pkgstripe "github.com/showsettle/showsettle-backend/pkg/stripe"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config              *config.Config
	Logger              *logger.Logger
	DBPinger            db.Pinger
	RedisClient         *redis.Client
	SessionManager      sessionManager
	AuthService         auth.Service
	ShowsService        shows.Service
	ShareLinkService    sharelinks.Service
	EntitlementsService entitlements.Service
	BillingService      controllers.BillingService
	StripeClient        *pkgstripe.Client
	WebhookService      *stripewebhook.Service
	WebhookGuard        *stripewebhook.IdempotencyGuard
	WebhookMetrics      *metrics.WebhookMetrics
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/shared/{token}", controllers.PublicSharedShow(p.ShareLinkService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.WebhookService, p.StripeClient, p.WebhookGuard, p.WebhookMetrics, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.RedisClient, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.RedisClient, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.SessionManager, logg)).Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))

		r.Post("/settlements/preview", controllers.SettlementPreview(logg))

		r.Route("/shows", func(r chi.Router) {
			r.Get("/", controllers.ShowList(p.ShowsService, logg))
			r.Get("/{showId}", controllers.ShowDetail(p.ShowsService, logg))

			// Writes are the premium surface; reads stay available after a
			// subscription lapses.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEntitlement(p.EntitlementsService, logg))
				r.Post("/", controllers.ShowCreate(p.ShowsService, logg))
				r.Put("/{showId}", controllers.ShowUpdate(p.ShowsService, logg))
				r.Post("/{showId}/share", controllers.ShareLinkCreate(p.ShareLinkService, logg))
				r.Patch("/{showId}/share", controllers.ShareLinkToggle(p.ShareLinkService, logg))
			})
		})

		r.Get("/entitlements/me", controllers.EntitlementMe(p.EntitlementsService, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Get("/subscription", controllers.BillingSubscription(p.BillingService, logg))
			r.Post("/checkout-session", controllers.BillingCheckoutSession(p.BillingService, logg))
			r.Post("/portal-session", controllers.BillingPortalSession(p.BillingService, logg))
		})
	})

	return r
}
