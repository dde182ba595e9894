// Package daemon wires configuration into a running server: providers,
// cascade, caches, limiters, background tasks and the HTTP listener.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/airports"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/api"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/config"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/database"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/provider/adsbx"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/provider/aeroapi"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/provider/hexdb"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/ratelimit"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/scheduler"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/statuscache"
	"github.com/robasen-whph/TrackMyBird-sub000/internal/tasks"
)

// Daemon owns the server's long-lived state.
type Daemon struct {
	ctx        context.Context
	cancel     context.CancelFunc
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
	db         *database.DB
	done       chan struct{}
}

// New builds a daemon from configuration. All shared state (caches, limiter
// windows, provider circuit state) is constructed here and handed to the
// pieces that need it; nothing lives in package-level variables.
func New(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	var db *database.DB
	if cfg.DBPath != "" {
		var err error
		db, err = database.New(cfg.DBPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize airport database: %w", err)
		}
	}

	primary := aeroapi.New(cfg.Providers.AeroAPIBaseURL, cfg.Providers.AeroAPIKey)
	secondary := adsbx.New(cfg.Providers.ADSBXBaseURL, cfg.Providers.ADSBXKey)
	tertiary := hexdb.New(cfg.Providers.HexDBBaseURL)

	cascade := flight.NewCascade(
		[]flight.Provider{primary, secondary, tertiary},
		cfg.Cascade.Timeout,
		slog.Default(),
	)

	var repo database.AirportRepository
	if db != nil {
		repo = db
	}
	enricher := airports.New(repo, tertiary, slog.Default())

	resolveLimiter := ratelimit.New(ratelimit.Config{
		Max:    cfg.RateLimit.Resolve.Max,
		Window: cfg.RateLimit.Resolve.Window,
	})
	randomLimiter := ratelimit.New(ratelimit.Config{
		Max:    cfg.RateLimit.Random.Max,
		Window: cfg.RateLimit.Random.Window,
	})

	sched := scheduler.New(ctx)
	sched.AddTask(tasks.NewRateLimitSweep("resolve", resolveLimiter, cfg.RateLimit.SweepInterval))
	sched.AddTask(tasks.NewRateLimitSweep("random", randomLimiter, cfg.RateLimit.SweepInterval))

	nearby := func(ctx context.Context) ([]string, error) {
		aircraft, err := secondary.Nearby(ctx, cfg.Random.Lat, cfg.Random.Lon, cfg.Random.RadiusNM)
		if err != nil {
			return nil, err
		}
		hexes := make([]string, 0, len(aircraft))
		for _, ac := range aircraft {
			hexes = append(hexes, ac.Hex)
		}
		return hexes, nil
	}

	server := api.NewServer(api.Config{
		Logger:         slog.Default(),
		TrustProxy:     cfg.TrustProxy,
		ResolveLimiter: resolveLimiter,
		RandomLimiter:  randomLimiter,
		Cache:          statuscache.New(cfg.Cache.StatusTTL),
		Resolver:       cascade,
		Enricher:       enricher,
		Nearby:         nearby,
	})

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: sched,
		db:        db,
		done:      make(chan struct{}),
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           server.Handler(),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Start launches the background tasks and the HTTP listener. It returns once
// the listener is up; serve errors are reported on the returned channel.
func (d *Daemon) Start() <-chan error {
	slog.Info("Starting daemon", "addr", d.httpServer.Addr)

	d.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		defer close(d.done)
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	slog.Info("Daemon started successfully")
	return errCh
}

// Stop gracefully stops the daemon.
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}
	<-d.done

	d.cancel()
	d.scheduler.Stop()

	if d.db != nil {
		if err := d.db.Close(); err != nil {
			slog.Error("Error closing airport database", "error", err)
		}
	}

	slog.Info("Daemon stopped")
	return nil
}
