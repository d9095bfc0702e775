package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parliament-monitor/internal/observability/tracing"
)

// ReadyFunc reports whether the monitor can serve a run right now.
type ReadyFunc func() bool

// StatusFunc returns a JSON-encodable snapshot of the tool client.
type StatusFunc func() any

// HealthServer serves liveness, readiness, client status and metrics.
//
// Endpoints:
//   - GET /health: always 200 while the process is up
//   - GET /health/ready: 200 when ready() is true, 503 otherwise
//   - GET /health/client: the status() snapshot
//   - GET /metrics: Prometheus exposition
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  ReadyFunc
	status StatusFunc
	server *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthServer creates a health server. A nil ready reports not ready;
// a nil status serves an empty object.
func NewHealthServer(addr string, ready ReadyFunc, status StatusFunc, logger *slog.Logger) *HealthServer {
	if ready == nil {
		ready = func() bool { return false }
	}
	if status == nil {
		status = func() any { return struct{}{} }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{
		addr:   addr,
		logger: logger,
		ready:  ready,
		status: status,
	}
}

// Handler returns the traced HTTP handler with every endpoint mounted.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	mux.HandleFunc("GET /health/client", h.handleClient)
	mux.Handle("GET /metrics", promhttp.Handler())
	return tracing.Middleware(mux)
}

// Start serves until ctx is canceled, then shuts down gracefully.
// It returns http.ErrServerClosed after a clean shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.ready() {
		h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
}

func (h *HealthServer) handleClient(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.status())
}

func (h *HealthServer) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
