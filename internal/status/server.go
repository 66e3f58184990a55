// Package status exposes a small HTTP surface for observing a running
// job: live progress counts, a health probe, and Prometheus metrics.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goeslapse/goesdown/internal/run"
)

// ProgressSource provides the current run counters.
type ProgressSource interface {
	Snapshot() run.Snapshot
}

// Server serves the status endpoints on a dedicated listener.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a status server bound to addr.
func NewServer(addr string, progress ProgressSource, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/progress", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, progress.Snapshot())
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in the background. Listener errors other than a
// clean shutdown are logged, not fatal: the status surface is auxiliary
// to the download run.
func (s *Server) Start() {
	go func() {
		s.logger.Info("status server starting", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server failed", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
