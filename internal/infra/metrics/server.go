package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether the automation session still answers.
type HealthCheck func() error

// Server provides /metrics and /health over HTTP.
type Server struct {
	check  HealthCheck
	server *http.Server
}

// NewServer creates a new metrics server listening on addr.
func NewServer(addr string, check HealthCheck) *Server {
	mux := http.NewServeMux()
	s := &Server{
		check: check,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background. Listen errors are logged.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "addr", s.server.Addr, "error", err)
		}
	}()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{"status": "healthy"}
	status := http.StatusOK

	if s.check != nil {
		if err := s.check(); err != nil {
			SessionUp.Set(0)
			response = map[string]string{"status": "unavailable", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			SessionUp.Set(1)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
