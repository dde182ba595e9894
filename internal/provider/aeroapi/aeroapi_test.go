package aeroapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

const flightsBody = `{"flights":[{
	"fa_flight_id":"NJE842-1717230000-airline-0001",
	"origin":{"code_icao":"KSFO"},
	"destination":{"code_icao":"KTEB"},
	"actual_off":"2024-06-01T10:00:00Z",
	"actual_on":null,
	"cancelled":false
}]}`

const trackBody = `{"positions":[
	{"latitude":37.61,"longitude":-122.39,"altitude":120,"heading":78,"timestamp":"2024-06-01T10:05:00Z"},
	{"latitude":38.05,"longitude":-121.20,"altitude":350,"heading":80,"timestamp":"2024-06-01T10:20:00Z"}
]}`

const routeBody = `{"fixes":[
	{"name":"KSFO","latitude":37.62,"longitude":-122.37},
	{"name":"TOP","latitude":39.0,"longitude":-95.7},
	{"name":"KTEB","latitude":40.85,"longitude":-74.06}
]}`

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-apikey"))
		switch r.URL.Path {
		case "/flights/N842QS":
			w.Write([]byte(flightsBody))
		case "/flights/NJE842-1717230000-airline-0001/track":
			w.Write([]byte(trackBody))
		case "/flights/NJE842-1717230000-airline-0001/route":
			w.Write([]byte(routeBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	partial, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6", Tail: "N842QS"})

	require.NoError(t, err)
	require.NotNil(t, partial)
	assert.Equal(t, "KSFO", partial.OriginAirport)
	assert.Equal(t, "KTEB", partial.DestinationAirport)
	require.Len(t, partial.Points, 2)
	assert.Equal(t, 12000, partial.Points[0].Altitude, "altitude arrives in hundreds of feet")
	assert.Equal(t, 78.0, partial.Points[0].Heading)
	require.NotNil(t, partial.FirstSeen)
	assert.Equal(t, "2024-06-01T10:00:00Z", partial.FirstSeen.Format("2006-01-02T15:04:05Z"))
	require.NotNil(t, partial.LastSeen, "no actual_on yet, falls back to last track point")
	assert.Len(t, partial.Waypoints, 3)
}

func TestLookup_NoFlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"flights":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	partial, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6", Tail: "N842QS"})
	require.NoError(t, err)
	assert.Nil(t, partial)
}

func TestLookup_NoTail(t *testing.T) {
	c := New("http://unreachable.invalid", "k")
	partial, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6"})
	require.NoError(t, err)
	assert.Nil(t, partial, "aeroapi cannot look up by hex alone")
}

func TestLookup_Classification(t *testing.T) {
	tests := []struct {
		status int
		kind   flight.ErrorKind
	}{
		{http.StatusUnauthorized, flight.Unauthorized},
		{http.StatusTooManyRequests, flight.RateLimited},
		{http.StatusInternalServerError, flight.ServerError},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		c := New(srv.URL, "k")
		_, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6", Tail: "N842QS"})

		var perr *flight.ProviderError
		require.ErrorAs(t, err, &perr, "status %d", tt.status)
		assert.Equal(t, tt.kind, perr.Kind)
		assert.Equal(t, "aeroapi", perr.Provider)
		srv.Close()
	}
}

func TestLookup_TrackFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/flights/N842QS" {
			w.Write([]byte(flightsBody))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	partial, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6", Tail: "N842QS"})

	require.NoError(t, err, "schedule data alone is still a usable partial")
	require.NotNil(t, partial)
	assert.Equal(t, "KSFO", partial.OriginAirport)
	assert.Empty(t, partial.Points)
}
