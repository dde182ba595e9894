package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/ratelimit"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/statuscache"
)

type stubResolver struct {
	status *flight.Status
	err    error
	calls  int
}

func (s *stubResolver) Resolve(_ context.Context, id flight.Ident) (*flight.Status, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.status != nil {
		return s.status, nil
	}
	return &flight.Status{Hex: id.Hex, Tail: id.Tail}, nil
}

type stubEnricher struct {
	calls int
}

func (s *stubEnricher) Enrich(_ context.Context, _ *flight.Status) { s.calls++ }

type testServer struct {
	*Server
	resolver *stubResolver
	enricher *stubEnricher
}

func newTestServer(t *testing.T, opts ...func(*Config)) *testServer {
	t.Helper()
	resolver := &stubResolver{}
	enricher := &stubEnricher{}
	cfg := Config{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		ResolveLimiter: ratelimit.New(ratelimit.Config{Max: 100, Window: time.Minute}),
		RandomLimiter:  ratelimit.New(ratelimit.Config{Max: 100, Window: time.Minute}),
		Cache:          statuscache.New(time.Minute),
		Resolver:       resolver,
		Enricher:       enricher,
		Nearby: func(context.Context) ([]string, error) {
			return []string{"ab88b6"}, nil
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testServer{Server: NewServer(cfg), resolver: resolver, enricher: enricher}
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "198.51.100.7:4242"
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestResolve(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get(t, "/api/v1/resolve/N842QS")

	require.Equal(t, http.StatusOK, rec.Code)
	var body resolveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "AB88B6", body.Hex)
	assert.Equal(t, "N842QS", body.Tail)

	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestResolve_Lowercase(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get(t, "/api/v1/resolve/n1")

	require.Equal(t, http.StatusOK, rec.Code)
	var body resolveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "A00001", body.Hex)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		tail   string
		status int
		code   string
	}{
		{"too long", "N123456", http.StatusBadRequest, "invalid_format"},
		{"non-us", "C12345", http.StatusBadRequest, "non_us_aircraft"},
		{"letters too early", "N12AB3", http.StatusBadRequest, "invalid_nnumber"},
		{"bare N", "N", http.StatusBadRequest, "invalid_nnumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.get(t, "/api/v1/resolve/"+tt.tail)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
}

func TestResolve_RateLimited(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.ResolveLimiter = ratelimit.New(ratelimit.Config{Max: 2, Window: time.Minute})
	})

	require.Equal(t, http.StatusOK, ts.get(t, "/api/v1/resolve/N1").Code)
	require.Equal(t, http.StatusOK, ts.get(t, "/api/v1/resolve/N1").Code)

	rec := ts.get(t, "/api/v1/resolve/N1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Error)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTrack(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get(t, "/api/v1/track/ab88b6")

	require.Equal(t, http.StatusOK, rec.Code)
	var st flight.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "AB88B6", st.Hex)
	assert.Equal(t, "N842QS", st.Tail, "tail decoded from hex before resolution")
	assert.Equal(t, 1, ts.enricher.calls)
}

func TestTrack_CacheHit(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusOK, ts.get(t, "/api/v1/track/AB88B6").Code)
	require.Equal(t, http.StatusOK, ts.get(t, "/api/v1/track/AB88B6").Code)

	assert.Equal(t, 1, ts.resolver.calls, "second request served from cache")
	assert.Equal(t, 1, ts.enricher.calls)
}

func TestTrack_Errors(t *testing.T) {
	tests := []struct {
		name   string
		hex    string
		err    error
		status int
		code   string
	}{
		{"malformed", "XYZ", nil, http.StatusBadRequest, "invalid_format"},
		{"not hex", "AZZZZZ", nil, http.StatusBadRequest, "invalid_format"},
		{"non-us block", "B00001", nil, http.StatusBadRequest, "non_us_aircraft"},
		{"not found", "A00001", flight.ErrNotFound, http.StatusNotFound, "unknown"},
		{"generic failure", "A00001", errors.New("boom"), http.StatusInternalServerError, "track_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.resolver.err = tt.err
			rec := ts.get(t, "/api/v1/track/"+tt.hex)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
}

func TestTrack_ProviderRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.err = &flight.RateLimitedError{Provider: "aeroapi"}

	rec := ts.get(t, "/api/v1/track/A00001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "rate_limited", body.Error)
	assert.Equal(t, "aeroapi", body.Provider)
}

func TestRandom(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get(t, "/api/v1/random")

	require.Equal(t, http.StatusOK, rec.Code)
	var st flight.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "AB88B6", st.Hex)
}

func TestRandom_NoneActive(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.Nearby = func(context.Context) ([]string, error) { return nil, nil }
	})

	rec := ts.get(t, "/api/v1/random")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown", decodeError(t, rec).Error)
}

func TestRandom_RateLimitedIndependently(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.RandomLimiter = ratelimit.New(ratelimit.Config{Max: 1, Window: time.Minute})
	})

	require.Equal(t, http.StatusOK, ts.get(t, "/api/v1/random").Code)
	require.Equal(t, http.StatusTooManyRequests, ts.get(t, "/api/v1/random").Code)

	// The resolve limiter is untouched by random traffic.
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/resolve/N1").Code)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
