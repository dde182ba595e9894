// Package airports resolves airport metadata for origin/destination codes on
// an assembled flight status. It sits outside the provider cascade: it runs
// once per resolved airport code, after the cascade has finished, and keeps
// its own long-lived caches because airport metadata is effectively static.
package airports

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/database"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
)

// Source fetches airport metadata from an external provider.
type Source interface {
	Airport(ctx context.Context, icao string) (*flight.AirportInfo, error)
}

// Enricher fills Status.Origin and Status.Destination. Lookups go memory
// cache, then the sqlite store, then the external source; source hits are
// written back to both. Enrichment is best-effort: a failed lookup leaves
// the field nil and never fails the request.
type Enricher struct {
	mu     sync.Mutex
	mem    map[string]*flight.AirportInfo
	repo   database.AirportRepository
	source Source
	logger *slog.Logger
}

// New creates an enricher. repo may be nil when persistence is disabled.
func New(repo database.AirportRepository, source Source, logger *slog.Logger) *Enricher {
	return &Enricher{
		mem:    make(map[string]*flight.AirportInfo),
		repo:   repo,
		source: source,
		logger: logger,
	}
}

// Enrich resolves origin and destination metadata. The two lookups are
// independent, so they run concurrently.
func (e *Enricher) Enrich(ctx context.Context, st *flight.Status) {
	var wg sync.WaitGroup
	if st.OriginAirport != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Origin = e.lookup(ctx, st.OriginAirport)
		}()
	}
	if st.DestinationAirport != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Destination = e.lookup(ctx, st.DestinationAirport)
		}()
	}
	wg.Wait()
}

func (e *Enricher) lookup(ctx context.Context, icao string) *flight.AirportInfo {
	e.mu.Lock()
	info, ok := e.mem[icao]
	e.mu.Unlock()
	if ok {
		return info
	}

	if e.repo != nil {
		stored, err := e.repo.GetAirport(icao)
		if err != nil {
			e.logger.Warn("airport store read failed", "icao", icao, "error", err)
		} else if stored != nil {
			e.remember(icao, stored)
			return stored
		}
	}

	fetched, err := e.source.Airport(ctx, icao)
	if err != nil {
		e.logger.Debug("airport lookup failed", "icao", icao, "error", err)
		return nil
	}
	if fetched == nil {
		return nil
	}

	e.remember(icao, fetched)
	if e.repo != nil {
		if err := e.repo.UpsertAirport(fetched); err != nil {
			e.logger.Warn("airport store write failed", "icao", icao, "error", err)
		}
	}
	return fetched
}

func (e *Enricher) remember(icao string, info *flight.AirportInfo) {
	e.mu.Lock()
	e.mem[icao] = info
	e.mu.Unlock()
}
