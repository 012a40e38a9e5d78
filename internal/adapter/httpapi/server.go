// Package httpapi exposes the scoring engine over HTTP: the analyze and
// inference endpoints for the frontend, plus health, readiness, and metrics.
// The handlers are thin glue; every rule lives below the transport.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/engine"
)

// Scorer is the engine surface the transport needs.
type Scorer interface {
	ScorePoint(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) (domain.ComfortResult, error)
	ScoreRegion(ctx context.Context, vertices []domain.Coordinate, sampleCount int, day domain.CalendarDay, profile domain.ComfortProfile, weights domain.WeightSet) (domain.ComfortResult, []domain.SamplePoint, error)
	InferProfile(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay) (engine.InferredProfile, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the comfort API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	scorer     Scorer
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered. corsOrigins
// lists the origins allowed to call the API; "*" allows any.
func NewServer(addr string, scorer Scorer, corsOrigins []string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      corsMiddleware(corsOrigins, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scorer: scorer,
		logger: logger,
	}

	mux.HandleFunc("POST /api/v1/analyze/point", s.handleAnalyzePoint)
	mux.HandleFunc("POST /api/v1/analyze/region", s.handleAnalyzeRegion)
	mux.HandleFunc("GET /api/v1/profile/infer", s.handleInferProfile)
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

// Request and response bodies.

type calendarDayBody struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (b calendarDayBody) toDomain() domain.CalendarDay {
	return domain.CalendarDay{Month: b.Month, Day: b.Day}
}

type pointRequest struct {
	Lat     float64                `json:"lat"`
	Lon     float64                `json:"lon"`
	Day     calendarDayBody        `json:"calendar_day"`
	Profile *domain.ComfortProfile `json:"profile,omitempty"`
	Weights *domain.WeightSet      `json:"weights,omitempty"`
}

type regionRequest struct {
	Vertices    []domain.Coordinate    `json:"vertices"`
	SampleCount int                    `json:"sample_count"`
	Day         calendarDayBody        `json:"calendar_day"`
	Profile     *domain.ComfortProfile `json:"profile,omitempty"`
	Weights     *domain.WeightSet      `json:"weights,omitempty"`
}

type regionResponse struct {
	Result  domain.ComfortResult `json:"result"`
	Samples []domain.SamplePoint `json:"samples"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// orDefaults fills absent profile or weights with the engine baselines, so
// the frontend can omit both on first load.
func orDefaults(profile *domain.ComfortProfile, weights *domain.WeightSet) (domain.ComfortProfile, domain.WeightSet) {
	p := domain.DefaultProfile()
	if profile != nil {
		p = *profile
	}
	w := domain.DefaultWeights()
	if weights != nil {
		w = *weights
	}
	return p, w
}

func (s *Server) handleAnalyzePoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}

	profile, weights := orDefaults(req.Profile, req.Weights)
	result, err := s.scorer.ScorePoint(r.Context(),
		domain.Coordinate{Lat: req.Lat, Lon: req.Lon}, req.Day.toDomain(), profile, weights)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyzeRegion(w http.ResponseWriter, r *http.Request) {
	var req regionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return
	}

	profile, weights := orDefaults(req.Profile, req.Weights)
	result, samples, err := s.scorer.ScoreRegion(r.Context(),
		req.Vertices, req.SampleCount, req.Day.toDomain(), profile, weights)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regionResponse{Result: result, Samples: samples})
}

func (s *Server) handleInferProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err1 := parseFloatParam(q.Get("lat"))
	lon, err2 := parseFloatParam(q.Get("lon"))
	month, err3 := parseIntParam(q.Get("month"))
	day, err4 := parseIntParam(q.Get("day"))
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "lat, lon, month, day query parameters are required and must be numeric",
		})
		return
	}

	inferred, err := s.scorer.InferProfile(r.Context(),
		domain.Coordinate{Lat: lat, Lon: lon}, domain.CalendarDay{Month: month, Day: day})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inferred)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.scorer.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeError maps domain errors to HTTP statuses: bad input 400, missing
// climatology 404, upstream trouble 502, anything unexpected 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr         *domain.ValidationError
		noData       *domain.NoClimatologyError
		unavailable  *domain.SourceUnavailableError
		insufficient *domain.InsufficientSamplesError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, domain.ErrDegenerateWeights):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "weights"})
	case errors.As(err, &noData):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: noData.Error()})
	case errors.As(err, &unavailable), errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// corsMiddleware answers preflight requests and sets the allow-origin header
// for origins in the configured list.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			h := w.Header()
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseFloatParam(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseIntParam(s string) (int, error) {
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
