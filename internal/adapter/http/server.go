package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/inference"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Predictor scores live observations.
type Predictor interface {
	Predict(inputs []inference.Input) ([]inference.Prediction, error)
	Models() []inference.ModelInfo
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithPredictor enables POST /v1/predict and GET /v1/models.
func WithPredictor(p Predictor) Option {
	return func(s *Server) { s.predictor = p }
}

// WithRecords enables the city summary and history routes over records.
func WithRecords(records []domain.CleanRecord) Option {
	return func(s *Server) { s.records = records }
}

// Server exposes health, readiness, metrics, prediction and city routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	predictor  Predictor
	records    []domain.CleanRecord
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 API routes.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/predict", s.handlePredict)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /v1/cities", s.handleCities)
	mux.HandleFunc("GET /v1/cities/{city}/history", s.handleHistory)

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

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	if s.predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": s.predictor.Models()})
}

func (s *Server) handleCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": report.Summarize(s.records)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	city := r.PathValue("city")
	history := report.History(s.records, city)
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no records for city "+city)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"city": history[0].City, "records": history})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
