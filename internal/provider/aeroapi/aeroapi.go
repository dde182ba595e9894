// Package aeroapi implements the primary flight-data provider, backed by
// FlightAware's AeroAPI. It is the only source that returns a full track,
// filed route waypoints and schedule metadata, so the cascade tries it first.
package aeroapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

const providerName = "aeroapi"

// DefaultBaseURL is the production AeroAPI endpoint.
const DefaultBaseURL = "https://aeroapi.flightaware.com/aeroapi"

// Client talks to AeroAPI. Authentication is a per-account API key sent in
// the x-apikey header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates an AeroAPI client. baseURL falls back to DefaultBaseURL when
// empty. Per-call deadlines come from the caller's context; the embedded
// http.Client carries no timeout of its own.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Name implements flight.Provider.
func (c *Client) Name() string { return providerName }

// airportRef mirrors the AeroAPI airport reference shape.
type airportRef struct {
	CodeICAO *string `json:"code_icao"`
	Code     *string `json:"code"`
}

func (a *airportRef) icao() string {
	if a == nil {
		return ""
	}
	if a.CodeICAO != nil && *a.CodeICAO != "" {
		return *a.CodeICAO
	}
	if a.Code != nil {
		return *a.Code
	}
	return ""
}

type apiFlight struct {
	FAFlightID  string      `json:"fa_flight_id"`
	Origin      *airportRef `json:"origin"`
	Destination *airportRef `json:"destination"`
	ActualOff   *time.Time  `json:"actual_off"`
	ActualOn    *time.Time  `json:"actual_on"`
	Cancelled   bool        `json:"cancelled"`
}

type flightsResponse struct {
	Flights []apiFlight `json:"flights"`
}

type trackPosition struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  int       `json:"altitude"` // hundreds of feet
	Heading   *float64  `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}

type trackResponse struct {
	Positions []trackPosition `json:"positions"`
}

type routeFix struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type routeResponse struct {
	Fixes []routeFix `json:"fixes"`
}

// Lookup implements flight.Provider. It finds the most recent flight for the
// aircraft's registration, then fills in the track and route. Failures of
// the supplementary calls degrade to whatever the first call produced.
func (c *Client) Lookup(ctx context.Context, id flight.Ident) (*flight.Partial, error) {
	if id.Tail == "" {
		// AeroAPI is keyed by registration/ident, not by ICAO hex.
		return nil, nil
	}

	var fr flightsResponse
	path := fmt.Sprintf("/flights/%s?max_pages=1", url.PathEscape(id.Tail))
	if err := c.get(ctx, path, &fr); err != nil {
		return nil, err
	}
	if len(fr.Flights) == 0 {
		return nil, nil
	}

	f := pickFlight(fr.Flights)
	partial := &flight.Partial{
		OriginAirport:      f.Origin.icao(),
		DestinationAirport: f.Destination.icao(),
		FirstSeen:          f.ActualOff,
		LastSeen:           f.ActualOn,
	}

	var tr trackResponse
	if err := c.get(ctx, "/flights/"+url.PathEscape(f.FAFlightID)+"/track", &tr); err == nil {
		for _, pos := range tr.Positions {
			pt := flight.Point{
				Lat:       pos.Latitude,
				Lon:       pos.Longitude,
				Altitude:  pos.Altitude * 100,
				Timestamp: pos.Timestamp,
			}
			if pos.Heading != nil {
				pt.Heading = *pos.Heading
			}
			partial.Points = append(partial.Points, pt)
		}
		if len(tr.Positions) > 0 {
			if partial.FirstSeen == nil {
				partial.FirstSeen = &tr.Positions[0].Timestamp
			}
			if partial.LastSeen == nil {
				partial.LastSeen = &tr.Positions[len(tr.Positions)-1].Timestamp
			}
		}
	}

	var rr routeResponse
	if err := c.get(ctx, "/flights/"+url.PathEscape(f.FAFlightID)+"/route", &rr); err == nil {
		for _, fix := range rr.Fixes {
			if fix.Latitude == nil || fix.Longitude == nil {
				continue
			}
			partial.Waypoints = append(partial.Waypoints, flight.Waypoint{
				Lat: *fix.Latitude,
				Lon: *fix.Longitude,
			})
		}
	}

	return partial, nil
}

// pickFlight prefers the flight currently in the air; otherwise the first
// (most recent) entry.
func pickFlight(flights []apiFlight) apiFlight {
	for _, f := range flights {
		if f.ActualOff != nil && f.ActualOn == nil && !f.Cancelled {
			return f
		}
	}
	return flights[0]
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return flight.ClassifyTransport(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return flight.ClassifyStatusCode(providerName, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &flight.ProviderError{Provider: providerName, Kind: flight.ServerError, Err: err}
	}
	return nil
}
