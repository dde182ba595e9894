// Package flight holds the flight-status domain model and the provider
// cascade that assembles a status from multiple external data sources.
package flight

import "time"

// Point is a single track position report.
type Point struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
	Altitude  int       `json:"altitude"` // feet
	Heading   float64   `json:"heading"`  // degrees true
}

// Waypoint is a filed route waypoint. Only the primary provider knows these.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AirportInfo is enrichment metadata for an airport code. Effectively static.
type AirportInfo struct {
	ICAO    string  `json:"icao"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Status is the assembled flight status for one aircraft. A Status is built
// once per resolution and never mutated afterwards; a fresh instance replaces
// any cached one.
type Status struct {
	Hex  string `json:"hex"`
	Tail string `json:"tail,omitempty"`

	Points []Point `json:"points,omitempty"`

	OriginAirport      string       `json:"originAirport,omitempty"`
	DestinationAirport string       `json:"destinationAirport,omitempty"`
	Origin             *AirportInfo `json:"origin,omitempty"`
	Destination        *AirportInfo `json:"destination,omitempty"`

	FirstSeen *time.Time `json:"firstSeen,omitempty"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`

	Waypoints []Waypoint `json:"waypoints,omitempty"`

	// Source names the provider that contributed the track, for display.
	Source string `json:"source,omitempty"`
}

// Partial is one provider's contribution to a Status. Zero-valued fields are
// treated as "not known by this provider" during the merge.
type Partial struct {
	Points             []Point
	OriginAirport      string
	DestinationAirport string
	FirstSeen          *time.Time
	LastSeen           *time.Time
	Waypoints          []Waypoint
}

// Empty reports whether the provider contributed nothing usable.
func (p *Partial) Empty() bool {
	return p == nil ||
		(len(p.Points) == 0 &&
			p.OriginAirport == "" &&
			p.DestinationAirport == "" &&
			p.FirstSeen == nil &&
			p.LastSeen == nil &&
			len(p.Waypoints) == 0)
}
