package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status reports whether the service is ready and which grid it published last.
type Status interface {
	sharedobs.ReadinessChecker
	LastGrid() (domain.GridSummary, bool)
}

// Server exposes health, readiness, last-grid status, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /status, and /metrics routes.
// Readiness flips once the pipeline has published its first grid.
func NewServer(addr string, status Status, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(status))
	mux.HandleFunc("GET /status", lastGridHandler(status))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// lastGridHandler serves the summary of the last published grid, or 404
// before the first one.
func lastGridHandler(status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		last, ok := status.LastGrid()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"status": "no grid published yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, struct {
			Status   string             `json:"status"`
			LastGrid domain.GridSummary `json:"last_grid"`
			AgeSec   float64            `json:"age_sec"`
		}{
			Status:   "ok",
			LastGrid: last,
			AgeSec:   domain.Now().Sub(last.ProcessedAt).Seconds(),
		})
	}
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
