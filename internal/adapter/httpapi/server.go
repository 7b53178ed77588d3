// Package httpapi exposes the advisory REST API consumed by dashboards and
// field tooling, plus the operational health and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tillhouse/agro-advisor/internal/adapter/sqlite"
	"github.com/tillhouse/agro-advisor/internal/domain"
	"github.com/tillhouse/agro-advisor/internal/observability"
)

// Store is the persistence surface the API needs.
type Store interface {
	RecordAnalysis(ctx context.Context, reading domain.SensorReading, analysis domain.Analysis) (sqlite.Reading, sqlite.Recommendation, error)
	LatestReadings(ctx context.Context, limit int) ([]sqlite.Reading, error)
	ReadingByID(ctx context.Context, id int64) (sqlite.Reading, error)
	LatestRecommendations(ctx context.Context, limit int) ([]sqlite.Recommendation, error)
	Ping(ctx context.Context) error
}

// Server routes the advisory API.
type Server struct {
	httpServer *http.Server
	store      Store
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the API server with all routes registered.
func NewServer(addr string, store Store, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:   store,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("POST /api/sensor-data", s.handleSubmitReading)
	mux.HandleFunc("GET /api/sensor-data/latest", s.handleLatestReadings)
	mux.HandleFunc("GET /api/sensor-data/{id}", s.handleReadingByID)
	mux.HandleFunc("GET /api/recommendations/latest", s.handleLatestRecommendations)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/crops", s.handleCrops)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
