package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pulseai/pulseai/internal/api/handlers"
	"github.com/pulseai/pulseai/internal/api/middleware"
	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/metrics"
	"github.com/pulseai/pulseai/internal/pkg/utils"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	AI      *handlers.AIHandler
	Payment *handlers.PaymentHandler
	Profile *handlers.ProfileHandler
	Plans   *handlers.PlanHandler
}

// Limiters are the per-IP token buckets shared by all requests
type Limiters struct {
	Global *middleware.RateLimiter
	OTP    *middleware.RateLimiter
}

// NewLimiters builds the limiters from configuration
func NewLimiters(cfg *config.Config) *Limiters {
	return &Limiters{
		Global: middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		OTP:    middleware.NewRateLimiter(cfg.Auth.OTPRateLimit, cfg.Auth.OTPBurst),
	}
}

// Run evicts idle clients until ctx is done
func (l *Limiters) Run(ctx context.Context) {
	go l.Global.Run(ctx, time.Minute)
	l.OTP.Run(ctx, time.Minute)
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers, limiters *Limiters) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(limiters.Global.Middleware("Too many requests"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, errors.NotFound("Route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		utils.WriteError(w, errors.MethodNotAllowed())
	})

	// Flow routes, callable from any origin
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.Auth.JWTSecret))

		flowRoute(r, http.MethodPost, "/api/ai", h.AI.Ask)
		flowRoute(r, http.MethodPost, "/api/payment", h.Payment.Create)
		flowRoute(r, http.MethodPost, "/api/payment/webhook", h.Payment.Webhook)
		flowRoute(r, http.MethodGet, "/api/profile", h.Profile.Get)

		flowRoute(r.With(limiters.OTP.Middleware("Too many code requests")), http.MethodPost, "/api/auth", h.Auth.Auth)
	})

	// Service routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

		r.Get("/api/plans", h.Plans.List)

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	})

	return r
}

// flowRoute registers handler for method on path together with its OPTIONS
// preflight, both wrapped in the wildcard CORS headers
func flowRoute(r chi.Router, method, path string, handler http.HandlerFunc) {
	cors := middleware.FlowCORS(method)
	r.With(cors).Method(method, path, handler)
	r.With(cors).Options(path, func(w http.ResponseWriter, r *http.Request) {})
}
