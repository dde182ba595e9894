package flight

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when every provider was reachable but none had any
// data for the aircraft.
var ErrNotFound = errors.New("no provider had data for aircraft")

// ErrorKind classifies a provider failure. The cascade pattern-matches on the
// kind instead of parsing error strings.
type ErrorKind int

const (
	// Unauthorized means the provider rejected our credentials. The key is
	// misconfigured; retrying within this process will not help.
	Unauthorized ErrorKind = iota
	// RateLimited means the provider is throttling us right now.
	RateLimited
	// ServerError covers provider-side 5xx responses.
	ServerError
	// Timeout covers deadline-exceeded and other network-level failures.
	Timeout
	// NoData means the provider answered but knows nothing about the
	// aircraft. Not a failure; the cascade simply moves on.
	NoData
)

func (k ErrorKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case RateLimited:
		return "rate_limited"
	case ServerError:
		return "server_error"
	case Timeout:
		return "timeout"
	case NoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// ProviderError is a classified failure from one provider call.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int   // HTTP status when applicable, else 0
	Err        error // underlying cause, may be nil
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Provider, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimitedError is the terminal error when the cascade found no data and
// at least one provider was throttling; Provider names the last one.
type RateLimitedError struct {
	Provider string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("provider %s is rate limited", e.Provider)
}
