package flight

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Ident identifies the aircraft being resolved. Hex is always set; Tail is
// set when the caller knows it.
type Ident struct {
	Hex  string
	Tail string
}

// Provider is one external flight-data source. Lookup returns a Partial with
// whatever fields the provider knows, nil when the provider has no data for
// the aircraft, or a *ProviderError describing a classified failure.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, id Ident) (*Partial, error)
}

// authFailLimit is how many consecutive unauthorized responses a provider
// may return before the cascade stops calling it for the rest of the
// process lifetime. A misconfigured API key cannot fix itself mid-process.
const authFailLimit = 3

// Cascade queries providers sequentially in priority order, merging partial
// results first-wins until enough fields are filled or providers run out.
type Cascade struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	authFails map[string]int
	disabled  map[string]bool
}

// NewCascade creates a cascade over providers, tried in slice order.
// Each provider call is bounded by timeout.
func NewCascade(providers []Provider, timeout time.Duration, logger *slog.Logger) *Cascade {
	return &Cascade{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
		authFails: make(map[string]int),
		disabled:  make(map[string]bool),
	}
}

// Resolve assembles a Status for id. Providers are called one at a time so
// that early termination skips the cost of lower-priority sources. A Status
// with some fields missing is returned in preference to an error as long as
// at least one provider contributed data.
func (c *Cascade) Resolve(ctx context.Context, id Ident) (*Status, error) {
	st := &Status{Hex: id.Hex, Tail: id.Tail}
	gotData := false
	lastLimited := ""

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.isDisabled(p.Name()) {
			c.logger.Debug("skipping disabled provider", "provider", p.Name())
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		partial, err := p.Lookup(callCtx, id)
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				// Caller went away; abort the whole resolution.
				return nil, ctx.Err()
			}
			var perr *ProviderError
			if !errors.As(err, &perr) {
				c.logger.Warn("provider failed", "provider", p.Name(), "error", err)
				c.resetAuthFails(p.Name())
				continue
			}
			switch perr.Kind {
			case Unauthorized:
				c.recordAuthFail(p.Name())
			case RateLimited:
				lastLimited = p.Name()
				c.logger.Warn("provider rate limited", "provider", p.Name())
				c.resetAuthFails(p.Name())
			case NoData:
				c.resetAuthFails(p.Name())
			default:
				c.logger.Warn("provider failed", "provider", p.Name(),
					"kind", perr.Kind.String(), "error", err)
				c.resetAuthFails(p.Name())
			}
			continue
		}
		c.resetAuthFails(p.Name())

		if partial.Empty() {
			continue
		}
		gotData = true
		merge(st, partial, p.Name())

		if complete(st) {
			break
		}
	}

	if gotData {
		return st, nil
	}
	if lastLimited != "" {
		return nil, &RateLimitedError{Provider: lastLimited}
	}
	return nil, ErrNotFound
}

// merge copies fields from partial into st, first-wins: a field an earlier
// provider already filled is never overwritten. The primary provider's track
// is authoritative and never mixed with a coarser one.
func merge(st *Status, partial *Partial, provider string) {
	if len(st.Points) == 0 && len(partial.Points) > 0 {
		st.Points = partial.Points
		st.Source = provider
	}
	if st.OriginAirport == "" && partial.OriginAirport != "" {
		st.OriginAirport = partial.OriginAirport
	}
	if st.DestinationAirport == "" && partial.DestinationAirport != "" {
		st.DestinationAirport = partial.DestinationAirport
	}
	if st.FirstSeen == nil && partial.FirstSeen != nil {
		st.FirstSeen = partial.FirstSeen
	}
	if st.LastSeen == nil && partial.LastSeen != nil {
		st.LastSeen = partial.LastSeen
	}
	if len(st.Waypoints) == 0 && len(partial.Waypoints) > 0 {
		st.Waypoints = partial.Waypoints
	}
}

// complete reports whether every tracked field group is filled, at which
// point querying lower-priority providers buys nothing.
func complete(st *Status) bool {
	return len(st.Points) > 0 &&
		st.OriginAirport != "" && st.DestinationAirport != "" &&
		st.FirstSeen != nil && st.LastSeen != nil
}

func (c *Cascade) isDisabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[name]
}

func (c *Cascade) recordAuthFail(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFails[name]++
	if c.authFails[name] >= authFailLimit && !c.disabled[name] {
		c.disabled[name] = true
		c.logger.Warn("disabling provider after repeated unauthorized responses",
			"provider", name, "failures", c.authFails[name])
	}
}

func (c *Cascade) resetAuthFails(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.authFails, name)
}
