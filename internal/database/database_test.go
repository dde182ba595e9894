package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetAirport_Unknown(t *testing.T) {
	db := newTestDB(t)

	info, err := db.GetAirport("KSFO")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestUpsertAndGetAirport(t *testing.T) {
	db := newTestDB(t)

	want := &flight.AirportInfo{
		ICAO:    "KSFO",
		Name:    "San Francisco International Airport",
		City:    "California",
		Country: "US",
		Lat:     37.6213,
		Lon:     -122.379,
	}
	require.NoError(t, db.UpsertAirport(want))

	got, err := db.GetAirport("KSFO")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpsertAirport_Replaces(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertAirport(&flight.AirportInfo{ICAO: "KTEB", Name: "old name"}))
	require.NoError(t, db.UpsertAirport(&flight.AirportInfo{ICAO: "KTEB", Name: "Teterboro", Country: "US"}))

	got, err := db.GetAirport("KTEB")
	require.NoError(t, err)
	assert.Equal(t, "Teterboro", got.Name)
	assert.Equal(t, "US", got.Country)
}
