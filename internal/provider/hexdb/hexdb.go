// Package hexdb implements the tertiary aggregator provider, backed by
// hexdb.io. It only knows origin/destination routes, plus the airport
// metadata used by the enrichment layer. No API key required.
package hexdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

const providerName = "hexdb"

// DefaultBaseURL is the public hexdb.io endpoint.
const DefaultBaseURL = "https://hexdb.io"

// Client talks to hexdb.io.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. baseURL falls back to DefaultBaseURL when empty.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Name implements flight.Provider.
func (c *Client) Name() string { return providerName }

type routeResponse struct {
	Route string `json:"route"` // "KSFO-KTEB"
}

// Lookup implements flight.Provider. Origin and destination only.
func (c *Client) Lookup(ctx context.Context, id flight.Ident) (*flight.Partial, error) {
	var rr routeResponse
	err := c.get(ctx, "/api/v1/route/icao/"+url.PathEscape(strings.ToUpper(id.Hex)), &rr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(rr.Route, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil
	}
	return &flight.Partial{
		OriginAirport:      parts[0],
		DestinationAirport: parts[1],
	}, nil
}

type airportResponse struct {
	ICAO       string  `json:"icao"`
	Airport    string  `json:"airport"`
	RegionName string  `json:"region_name"`
	Country    string  `json:"country_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Airport fetches metadata for an ICAO airport code.
func (c *Client) Airport(ctx context.Context, icao string) (*flight.AirportInfo, error) {
	var ar airportResponse
	err := c.get(ctx, "/api/v1/airport/icao/"+url.PathEscape(strings.ToUpper(icao)), &ar)
	if err != nil {
		return nil, err
	}
	if ar.ICAO == "" {
		return nil, nil
	}
	return &flight.AirportInfo{
		ICAO:    ar.ICAO,
		Name:    ar.Airport,
		City:    ar.RegionName,
		Country: ar.Country,
		Lat:     ar.Latitude,
		Lon:     ar.Longitude,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
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
