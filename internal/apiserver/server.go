// Package apiserver exposes a read-mostly HTTP API over the scheduler
// registry: listing live Scheduler Instances and Pools, inspecting
// their size, and issuing finish/exit requests remotely.
package apiserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/esrt/internal/audit"
)

// Server is the esrt introspection HTTP API.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	registry  *Registry
	audit     *audit.Store
	startTime time.Time
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithAudit attaches an audit store backing GET /api/v1/audit. Without
// it, that endpoint reports an empty list rather than failing.
func WithAudit(store *audit.Store) Option {
	return func(s *Server) { s.audit = store }
}

// New creates a Server with every route registered.
func New(reg *Registry, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "apiserver"),
		registry:  reg,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/schedulers", func(r chi.Router) {
			r.Get("/", s.handleListSchedulers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetScheduler)
				r.Get("/size", s.handleGetSchedulerSize)
				r.Get("/pools/{idx}", s.handleGetSchedulerPool)
				r.Post("/finish", s.handleFinishScheduler)
				r.Post("/exit", s.handleExitScheduler)
			})
		})

		r.Route("/pools", func(r chi.Router) {
			r.Get("/{id}", s.handleGetPool)
		})

		r.Get("/audit", s.handleListAudit)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, requestID(), map[string]any{
		"status":     "ok",
		"uptime_sec": time.Since(s.startTime).Seconds(),
	})
}
