package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/covid-data-engine/internal/dataset"
	"github.com/couchcryptid/covid-data-engine/internal/domain"
	"github.com/couchcryptid/covid-data-engine/internal/observability"
)

// maxCitySuggestions bounds the "did you mean" list on unknown-city responses.
const maxCitySuggestions = 5

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Queries is the read-only query surface served by the API. Implemented by
// dataset.Service and its caching decorator.
type Queries interface {
	Periods() []dataset.Period
	LatestPeriod() dataset.Period
	ResolveCityQuery(city string) (dataset.CityResolution, error)
	SuggestCities(city string, limit int) []string
	CountySnapshot(key string, ordinal int) (dataset.CountySnapshot, error)
	StateSnapshot(state string, ordinal int) (dataset.StateSnapshot, error)
	MonthlySeries(key string) []dataset.PeriodDelta
}

// Server exposes the query API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	queries    Queries
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, ready ReadinessChecker, queries Queries, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		queries: queries,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/periods", s.instrument("periods", s.handlePeriods))
	mux.HandleFunc("GET /api/v1/cities/{city}", s.instrument("city", s.handleCity))
	mux.HandleFunc("GET /api/v1/counties/{key}", s.instrument("county_snapshot", s.handleCountySnapshot))
	mux.HandleFunc("GET /api/v1/counties/{key}/series", s.instrument("monthly_series", s.handleMonthlySeries))
	mux.HandleFunc("GET /api/v1/states/{state}", s.instrument("state_snapshot", s.handleStateSnapshot))

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

// instrument wraps a handler with per-endpoint counters and latency. The
// outcome label is set by the handler through outcomeRecorder.
func (s *Server) instrument(endpoint string, h func(http.ResponseWriter, *http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		outcome := h(w, r)
		s.metrics.Queries.WithLabelValues(endpoint, outcome).Inc()
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handlePeriods(w http.ResponseWriter, _ *http.Request) string {
	writeJSON(w, http.StatusOK, map[string]any{"periods": s.queries.Periods()})
	return "ok"
}

func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) string {
	city := r.PathValue("city")

	res, err := s.queries.ResolveCityQuery(city)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       "unknown city",
			"suggestions": s.queries.SuggestCities(city, maxCitySuggestions),
		})
		return "not_found"
	}
	if err != nil {
		s.logger.Error("city resolution failed", "city", city, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return "error"
	}
	writeJSON(w, http.StatusOK, res)
	return "ok"
}

func (s *Server) handleCountySnapshot(w http.ResponseWriter, r *http.Request) string {
	key := r.PathValue("key")
	ordinal, ok := s.periodOrdinal(w, r)
	if !ok {
		return "bad_request"
	}

	snap, err := s.queries.CountySnapshot(key, ordinal)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown period"})
		return "not_found"
	}
	if err != nil {
		s.logger.Error("county snapshot failed", "key", key, "period", ordinal, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return "error"
	}
	writeJSON(w, http.StatusOK, snap)
	return "ok"
}

func (s *Server) handleStateSnapshot(w http.ResponseWriter, r *http.Request) string {
	state := r.PathValue("state")
	ordinal, ok := s.periodOrdinal(w, r)
	if !ok {
		return "bad_request"
	}

	snap, err := s.queries.StateSnapshot(state, ordinal)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown period"})
		return "not_found"
	}
	if err != nil {
		s.logger.Error("state snapshot failed", "state", state, "period", ordinal, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return "error"
	}
	writeJSON(w, http.StatusOK, snap)
	return "ok"
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) string {
	key := r.PathValue("key")
	writeJSON(w, http.StatusOK, map[string]any{"series": s.queries.MonthlySeries(key)})
	return "ok"
}

// periodOrdinal reads the optional ?period= query parameter, defaulting to
// the latest period. Reports false after writing a 400 for malformed input.
func (s *Server) periodOrdinal(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return s.queries.LatestPeriod().Ordinal, true
	}
	ordinal, err := strconv.Atoi(raw)
	if err != nil || ordinal < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "period must be a positive integer"})
		return 0, false
	}
	return ordinal, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
