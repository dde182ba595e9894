package hexdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/route/icao/AB88B6", r.URL.Path)
		w.Write([]byte(`{"flight":"NJE842","route":"KSFO-KTEB","updatetime":1717236000}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	partial, err := c.Lookup(context.Background(), flight.Ident{Hex: "ab88b6"})

	require.NoError(t, err)
	require.NotNil(t, partial)
	assert.Equal(t, "KSFO", partial.OriginAirport)
	assert.Equal(t, "KTEB", partial.DestinationAirport)
	assert.Empty(t, partial.Points, "hexdb knows routes, not positions")
}

func TestLookup_MalformedRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"route":"KSFO"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	partial, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6"})
	require.NoError(t, err)
	assert.Nil(t, partial)
}

func TestLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Lookup(context.Background(), flight.Ident{Hex: "AB88B6"})

	var perr *flight.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, flight.NoData, perr.Kind)
}

func TestAirport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/airport/icao/KSFO", r.URL.Path)
		w.Write([]byte(`{
			"icao":"KSFO","iata":"SFO",
			"airport":"San Francisco International Airport",
			"region_name":"California","country_code":"US",
			"latitude":37.6213,"longitude":-122.379
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	info, err := c.Airport(context.Background(), "ksfo")

	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "KSFO", info.ICAO)
	assert.Equal(t, "San Francisco International Airport", info.Name)
	assert.Equal(t, "California", info.City)
	assert.Equal(t, "US", info.Country)
	assert.Equal(t, 37.6213, info.Lat)
}

func TestAirport_EmptyRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	info, err := c.Airport(context.Background(), "XXXX")
	require.NoError(t, err)
	assert.Nil(t, info)
}
