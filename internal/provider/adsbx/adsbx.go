// Package adsbx implements the secondary, positional provider, backed by the
// ADS-B Exchange v2 API. It returns the aircraft's latest received position
// and, when the aircraft is broadcasting a callsign, a coarse route. It also
// serves the point-radius query behind the random-aircraft endpoint.
package adsbx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

const providerName = "adsbx"

// DefaultBaseURL is the ADS-B Exchange API endpoint via RapidAPI.
const DefaultBaseURL = "https://adsbexchange-com1.p.rapidapi.com"

// Client talks to the ADS-B Exchange v2 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client. baseURL falls back to DefaultBaseURL when empty.
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

// altitude handles alt_baro, which readsb reports as a number of feet or the
// literal string "ground".
type altitude int

func (a *altitude) UnmarshalJSON(data []byte) error {
	if string(data) == `"ground"` {
		*a = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = altitude(v)
	return nil
}

// Aircraft is one aircraft record from the v2 API.
type Aircraft struct {
	Hex      string   `json:"hex"`
	Flight   string   `json:"flight"` // callsign, space-padded
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	AltBaro  altitude `json:"alt_baro"`
	Track    float64  `json:"track"`
	SeenPos  float64  `json:"seen_pos"` // seconds since last position
	Category string   `json:"category"`
}

// Callsign returns the trimmed broadcast callsign.
func (a Aircraft) Callsign() string {
	return strings.TrimSpace(a.Flight)
}

type v2Response struct {
	Aircraft []Aircraft `json:"ac"`
	Now      int64      `json:"now"` // ms since epoch
}

type routeResponse struct {
	AirportCodes string `json:"airport_codes"` // "KSFO-KTEB", "unknown" when absent
}

// Lookup implements flight.Provider. One point from the latest position
// report, plus a coarse origin/destination when the callsign resolves to a
// known route.
func (c *Client) Lookup(ctx context.Context, id flight.Ident) (*flight.Partial, error) {
	var resp v2Response
	if err := c.get(ctx, "/v2/hex/"+url.PathEscape(strings.ToLower(id.Hex))+"/", &resp); err != nil {
		return nil, err
	}
	if len(resp.Aircraft) == 0 {
		return nil, nil
	}

	ac := resp.Aircraft[0]
	seen := time.UnixMilli(resp.Now).Add(-time.Duration(ac.SeenPos * float64(time.Second)))
	partial := &flight.Partial{
		Points: []flight.Point{{
			Lat:       ac.Lat,
			Lon:       ac.Lon,
			Altitude:  int(ac.AltBaro),
			Heading:   ac.Track,
			Timestamp: seen,
		}},
		LastSeen: &seen,
	}

	if cs := ac.Callsign(); cs != "" {
		var rr routeResponse
		if err := c.get(ctx, "/v2/route/"+url.PathEscape(cs)+"/", &rr); err == nil {
			if origin, dest, ok := splitRoute(rr.AirportCodes); ok {
				partial.OriginAirport = origin
				partial.DestinationAirport = dest
			}
		}
	}

	return partial, nil
}

// Nearby returns aircraft currently broadcasting within radiusNM of a point.
func (c *Client) Nearby(ctx context.Context, lat, lon float64, radiusNM int) ([]Aircraft, error) {
	path := fmt.Sprintf("/v2/point/%.4f/%.4f/%d/", lat, lon, radiusNM)
	var resp v2Response
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Aircraft, nil
}

func splitRoute(codes string) (origin, dest string, ok bool) {
	parts := strings.Split(codes, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == "unknown" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
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
