// Package httpserver provides the HTTP REST API server for the author
// analytics service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/helixir/author-analytics-service/internal/collabnet"
	"github.com/helixir/author-analytics-service/internal/dashboard"
	"github.com/helixir/author-analytics-service/internal/domain"
	"github.com/helixir/author-analytics-service/internal/observability"
)

// ReportService defines the dashboard operations the HTTP server exposes.
type ReportService interface {
	BuildReport(ctx context.Context, orcid string, opts dashboard.BuildOptions, onProgress dashboard.ProgressFunc) (*dashboard.Report, error)
	BuildNetwork(ctx context.Context, orcid string, maxDepth int) (*collabnet.Graph, error)
	SearchAuthors(ctx context.Context, query string) ([]domain.AuthorSuggestion, error)
	StartJob(orcid string, opts dashboard.BuildOptions) (*dashboard.Job, error)
}

var _ ReportService = (*dashboard.Service)(nil)

// CacheInvalidator drops cached fetches for one author. It is nil when the
// server runs without a cache in front of the record source.
type CacheInvalidator interface {
	InvalidateAuthor(orcid string) int
}

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	service     ReportService
	store       *dashboard.Store
	invalidator CacheInvalidator
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies. invalidator
// may be nil; cache invalidation then reports zero removed entries.
func NewServer(
	cfg Config,
	service ReportService,
	store *dashboard.Store,
	invalidator CacheInvalidator,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		service:     service,
		store:       store,
		invalidator: invalidator,
		logger:      logger.With().Str("component", "http-server").Logger(),
		metrics:     metrics,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(s.requestLoggerMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/authors/search", s.searchAuthors)
		r.Get("/authors/{orcid}/report", s.getAuthorReport)
		r.Get("/authors/{orcid}/network", s.getAuthorNetwork)
		r.Delete("/authors/{orcid}/cache", s.invalidateAuthorCache)

		r.Post("/reports", s.startReport)
		r.Get("/reports/{reportID}", s.getReportJob)
		r.Get("/reports/{reportID}/events", s.streamReportEvents)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler returns readiness status. The service holds no
// connections of its own, so readiness matches liveness; the remote source
// is deliberately not probed to keep readiness from flapping with it.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
