// Package api exposes the read-only HTTP surface: identity resolution,
// flight tracking and the random-aircraft picker.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/ratelimit"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/statuscache"
)

// StatusResolver assembles a flight status for an aircraft identity.
type StatusResolver interface {
	Resolve(ctx context.Context, id flight.Ident) (*flight.Status, error)
}

// StatusEnricher fills airport metadata on an assembled status.
type StatusEnricher interface {
	Enrich(ctx context.Context, st *flight.Status)
}

// NearbyFunc returns the hex codes of aircraft currently active near the
// configured point. Used by the random-aircraft endpoint.
type NearbyFunc func(ctx context.Context) ([]string, error)

// Config wires the server's collaborators. Everything is injected; the api
// package owns no global state.
type Config struct {
	Logger         *slog.Logger
	TrustProxy     bool
	ResolveLimiter *ratelimit.Limiter
	RandomLimiter  *ratelimit.Limiter
	Cache          *statuscache.Cache
	Resolver       StatusResolver
	Enricher       StatusEnricher
	Nearby         NearbyFunc
}

// Server holds the HTTP router and its dependencies.
type Server struct {
	cfg    Config
	router chi.Router
}

// NewServer creates a configured server.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/resolve/{tail}", s.handleResolve)
		r.Get("/track/{hex}", s.handleTrack)
		r.Get("/random", s.handleRandom)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		level := slog.LevelInfo
		if r.URL.Path == "/healthz" {
			level = slog.LevelDebug
		}
		s.cfg.Logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(sr.statusCode),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_ip", s.clientIP(r),
		)
	})
}
