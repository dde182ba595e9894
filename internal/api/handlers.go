package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/nnumber"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/ratelimit"
)

// errorBody is the JSON error shape for all endpoints.
type errorBody struct {
	Error    string `json:"error"`
	Provider string `json:"provider,omitempty"`
}

type resolveResponse struct {
	Hex    string `json:"hex"`
	Tail   string `json:"tail"`
	Source string `json:"source"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorBody{Error: code})
}

// setRateHeaders mirrors the limiter's window state onto the response so
// clients can pace themselves.
func setRateHeaders(w http.ResponseWriter, limiter *ratelimit.Limiter, st ratelimit.Status) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(st.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(st.ResetAfter.Seconds()+0.999)))
}

// admit runs one limiter check for the request's client. On deny it writes
// the 429 response and returns false.
func (s *Server) admit(w http.ResponseWriter, r *http.Request, limiter *ratelimit.Limiter) bool {
	ip := s.clientIP(r)
	allowed := limiter.Allow(ip)
	st := limiter.GetStatus(ip)
	setRateHeaders(w, limiter, st)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(st.ResetAfter.Seconds()+0.999)))
		writeError(w, http.StatusTooManyRequests, "rate_limited")
		return false
	}
	return true
}

// handleResolve converts a tail number to its ICAO hex address.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, s.cfg.ResolveLimiter) {
		return
	}

	tail := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "tail")))
	if tail == "" || len(tail) > 6 {
		writeError(w, http.StatusBadRequest, "invalid_format")
		return
	}
	if tail[0] != 'N' {
		writeError(w, http.StatusBadRequest, "non_us_aircraft")
		return
	}

	hex, ok := nnumber.Encode(tail)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_nnumber")
		return
	}

	// The codec is a bijection; a mismatch here means the codec itself is
	// broken, not the input.
	if back, ok := nnumber.Decode(hex); !ok || back != tail {
		s.cfg.Logger.Error("codec round-trip mismatch", "tail", tail, "hex", hex)
		writeError(w, http.StatusInternalServerError, "conversion_failed")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{Hex: hex, Tail: tail, Source: "computed"})
}

// handleTrack assembles and returns the flight status for a hex address.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	hex := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "hex")))
	if !validHexShape(hex) {
		writeError(w, http.StatusBadRequest, "invalid_format")
		return
	}
	if hex[0] != 'A' {
		writeError(w, http.StatusBadRequest, "non_us_aircraft")
		return
	}

	st, err := s.track(r.Context(), hex)
	if err != nil {
		s.writeTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleRandom picks a random currently active aircraft and returns its
// status. Gated by the low-rate limiter since each call can fan out to the
// positional provider.
func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, s.cfg.RandomLimiter) {
		return
	}

	hexes, err := s.cfg.Nearby(r.Context())
	if err != nil {
		s.writeTrackError(w, r, err)
		return
	}
	if len(hexes) == 0 {
		writeError(w, http.StatusNotFound, "unknown")
		return
	}

	hex := strings.ToUpper(hexes[rand.Intn(len(hexes))])
	st, err := s.track(r.Context(), hex)
	if err != nil {
		s.writeTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// track runs the cached resolve-enrich pipeline for one hex address.
func (s *Server) track(ctx context.Context, hex string) (*flight.Status, error) {
	if st, ok := s.cfg.Cache.Get(hex); ok {
		return st, nil
	}

	id := flight.Ident{Hex: hex}
	if tail, ok := nnumber.Decode(hex); ok {
		id.Tail = tail
	}

	st, err := s.cfg.Resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Enricher.Enrich(ctx, st)
	s.cfg.Cache.Set(hex, st)
	return st, nil
}

func (s *Server) writeTrackError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; nothing useful to write.
		return
	}

	var rlErr *flight.RateLimitedError
	if errors.As(err, &rlErr) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:    "rate_limited",
			Provider: rlErr.Provider,
		})
		return
	}
	if errors.Is(err, flight.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown")
		return
	}

	s.cfg.Logger.Error("track failed", "error", err)
	writeError(w, http.StatusInternalServerError, "track_error")
}

// validHexShape reports whether s is exactly six hex characters.
func validHexShape(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
