package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AlwaysReady is the readiness check used when the service has no external
// dependency to probe.
type AlwaysReady struct{}

func (AlwaysReady) CheckReadiness(context.Context) error { return nil }

// Server exposes the location API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	geocoder   domain.Geocoder
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/v1/location/reverse, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, geocoder domain.Geocoder, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		geocoder: geocoder,
		validate: newValidator(),
		logger:   logger,
	}

	mux.HandleFunc("GET /api/v1/location/reverse", s.handleReverse)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
