package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"txn-api/internal/middleware"
)

// Prefix is the mount point of the versioned API.
const Prefix = "/api/v1"

// RouterConfig configures the cross-cutting middleware of the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	// RateLimit is disabled when RequestsPerSecond is zero.
	RateLimit middleware.RateLimitConfig
	Logger    *slog.Logger
}

// NewRouter mounts the handler under Prefix with recovery, request IDs,
// access logging, CORS and per-client rate limiting.
func NewRouter(h *APIHandler, cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.Healthz)

	r.Route(Prefix, func(r chi.Router) {
		if cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(middleware.RateLimiter(cfg.RateLimit))
		}

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Get("/count", h.CountTransactions)
			r.Get("/validate", h.ValidateTransactions)
			r.Post("/validate", h.ValidateTransactions)
			r.Get("/reference", h.ReferenceValues)
			r.Get("/{id}", h.GetTransaction)
			r.Get("/{id}/companies", h.TransactionCompanies)
			r.Get("/{id}/advisors", h.TransactionAdvisors)
		})
		r.Get("/companies/{id}/transactions", h.CompanyTransactions)
		r.Get("/industries/{id}/statistics", h.IndustryStatistics)
		r.Get("/schema/status", h.SchemaStatus)
		r.Get("/schema/fields", h.SchemaFields)
	})

	return r
}
