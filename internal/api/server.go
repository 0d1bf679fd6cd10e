// Package api exposes the HTTP interface for the consolidation service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/progress"
	"github.com/docfold/docfold/internal/scrape"
)

// Metrics receives the measurements the event stream cannot carry: cache
// hits answered before a stream opens, and finished-run durations.
type Metrics interface {
	progress.Sink
	CacheHit()
	ScrapeDuration(d time.Duration)
}

// Server wires HTTP handlers to the scrape engine and cache.
type Server struct {
	router   chi.Router
	engine   *scrape.Engine
	cache    scrape.Cache
	metrics  Metrics
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. metrics may be
// nil when metrics export is disabled.
func NewServer(
	engine *scrape.Engine,
	cache scrape.Cache,
	metrics Metrics,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   engine,
		cache:    cache,
		metrics:  metrics,
		registry: registry,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scrape", s.scrape)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"`
}

type cacheHitResponse struct {
	CacheHit     bool   `json:"cacheHit"`
	LastModified string `json:"lastModified"`
	Content      string `json:"content"`
}

// scrape accepts {url, force}. A fresh cache entry short-circuits to a single
// JSON payload; otherwise the handler streams progress events until a
// terminal event. The caller cancels by aborting the request.
func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	scope, _, err := scrape.NewScope(req.URL)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !req.Force {
		if entry, ok := s.cache.Get(string(scope)); ok {
			if s.metrics != nil {
				s.metrics.CacheHit()
			}
			s.writeJSON(w, http.StatusOK, cacheHitResponse{
				CacheHit:     true,
				LastModified: entry.LastModified.UTC().Format(time.RFC3339),
				Content:      entry.Content,
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	emitter := progress.NewFanout(s.logger,
		progress.NewStreamSink(w, flusher),
		progress.NewLogSink(s.logger),
		s.metrics,
	)

	result, err := s.engine.Run(r.Context(), scrape.Request{URL: req.URL, Force: req.Force}, emitter)
	if s.metrics != nil && result.Duration > 0 {
		s.metrics.ScrapeDuration(result.Duration)
	}
	switch {
	case err == nil:
	case errors.Is(err, scrape.ErrStopped):
		// Caller-requested stop is a normal completed response; the
		// terminal stopped event is already on the stream.
		s.logger.Info("scrape stopped by caller", zap.String("scope", string(scope)))
	default:
		// Terminal error event is already on the stream.
		s.logger.Error("scrape failed", zap.String("scope", string(scope)), zap.Error(err))
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
