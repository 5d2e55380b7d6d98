package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/corebanking/internal/adapter/http/handler"
	"github.com/iho/corebanking/internal/adapter/http/middleware"
	"github.com/iho/corebanking/internal/infrastructure/metrics"
)

// APIPrefix is where the ledger API is mounted.
const APIPrefix = "/api/v1/corebanking"

// RouterConfig holds dependencies for the router. Idempotency, RateLimiter,
// Metrics and MetricsHandler are optional.
type RouterConfig struct {
	CustomerHandler       *handler.CustomerHandler
	AccountHandler        *handler.AccountHandler
	LedgerHandler         *handler.LedgerHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	Idempotency    *middleware.IdempotencyMiddleware
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		// Customers
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", cfg.CustomerHandler.Create)
			r.Get("/", cfg.CustomerHandler.List)
			r.Get("/{id}", cfg.CustomerHandler.Get)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/by-number/{number}", cfg.AccountHandler.GetByNumber)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/transactions", cfg.AccountHandler.Transactions)
			r.Get("/{id}/reconciliation", cfg.ReconciliationHandler.Account)

			// Balance-moving operations
			r.Group(func(r chi.Router) {
				if cfg.Idempotency != nil {
					r.Use(cfg.Idempotency.Wrap)
				}
				r.Put("/{id}/deposit", cfg.LedgerHandler.Deposit)
				r.Put("/{id}/withdraw", cfg.LedgerHandler.Withdraw)
				r.Put("/{id}/transfer", cfg.LedgerHandler.Transfer)
			})
		})

		r.Get("/ledger/consistency", cfg.ReconciliationHandler.Ledger)
	})

	return r
}
