// Package server wires configuration, storage, providers and handlers into
// a runnable HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/pulseai/pulseai/internal/api/handlers"
	"github.com/pulseai/pulseai/internal/api/router"
	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/plan"
	"github.com/pulseai/pulseai/internal/entitlement"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/validator"
	"github.com/pulseai/pulseai/internal/providers"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/internal/services"
	"github.com/pulseai/pulseai/migrations"
)

// Server owns the database pool and the HTTP server
type Server struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *sql.DB
	limiters *router.Limiters
	http     *http.Server
}

// Option overrides an external dependency, mainly for tests
type Option func(*deps)

type deps struct {
	db        *sql.DB
	completer airequest.Completer
	gateway   payment.Gateway
}

// WithDB uses an already opened database instead of cfg.Database
func WithDB(db *sql.DB) Option {
	return func(d *deps) { d.db = db }
}

// WithCompleter replaces the configured completion provider
func WithCompleter(c airequest.Completer) Option {
	return func(d *deps) { d.completer = c }
}

// WithGateway replaces the YooKassa client
func WithGateway(g payment.Gateway) Option {
	return func(d *deps) { d.gateway = g }
}

// OpenDB connects to the configured database and applies pending migrations
func OpenDB(cfg config.DatabaseConfig, log *logger.Logger) (*sql.DB, error) {
	db, err := postgres.New(cfg)
	if err != nil {
		return nil, err
	}

	schema, err := migrations.For(cfg.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	applied, err := postgres.RunMigrations(db, postgres.DialectFor(cfg.Driver), schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, name := range applied {
		log.With("migration", name).Info("Migration applied")
	}

	return db, nil
}

// New builds the full dependency graph
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Server, error) {
	d := &deps{}
	for _, opt := range opts {
		opt(d)
	}

	if d.db == nil {
		db, err := OpenDB(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		d.db = db
	}
	if d.completer == nil {
		d.completer = newCompleter(cfg.AI)
	}
	if d.gateway == nil {
		d.gateway = providers.NewYooKassaClient(cfg.Payment)
	}

	dialect := postgres.DialectFor(cfg.Database.Driver)
	userRepo := postgres.NewUserRepository(d.db, dialect)
	subRepo := postgres.NewSubscriptionRepository(d.db, dialect)
	paymentRepo := postgres.NewPaymentRepository(d.db, dialect)
	requestRepo := postgres.NewAIRequestRepository(d.db, dialect)

	policy := entitlement.Policy{
		FreeRequests:      cfg.Quota.FreeRequests,
		UnlimitedSentinel: cfg.Quota.UnlimitedSentinel,
	}
	engine := entitlement.NewEngine(postgres.NewLedgerRepository(d.db, dialect), policy)
	catalog := plan.Default()

	authService := services.NewAuthService(userRepo, cfg.Auth, log)
	aiService := services.NewAIService(userRepo, engine, d.completer, cfg.Database.WriteTimeout, log)
	paymentService := services.NewPaymentService(paymentRepo, userRepo, d.gateway, catalog, cfg.Payment, log)
	profileService := services.NewProfileService(userRepo, subRepo, requestRepo, paymentRepo, policy, log)

	val := validator.New()
	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(d.db, log),
		Auth:    handlers.NewAuthHandler(authService, log, val),
		AI:      handlers.NewAIHandler(aiService, log, val),
		Payment: handlers.NewPaymentHandler(paymentService, log, val),
		Profile: handlers.NewProfileHandler(profileService, log),
		Plans:   handlers.NewPlanHandler(catalog),
	}

	limiters := router.NewLimiters(cfg)

	return &Server{
		cfg:      cfg,
		logger:   log,
		db:       d.db,
		limiters: limiters,
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router.New(cfg, log, h, limiters),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to ShutdownTimeout and closes the database
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	limiterCtx, stopLimiters := context.WithCancel(ctx)
	defer stopLimiters()
	go s.limiters.Run(limiterCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting server on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

func newCompleter(cfg config.AIConfig) airequest.Completer {
	if cfg.Provider == "gemini" {
		return providers.NewGeminiCompleter(cfg)
	}
	return providers.NewOpenAICompleter(cfg)
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.Server.ShutdownTimeout > 0 {
		return s.cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}
