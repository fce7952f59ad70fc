package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dockstats/dockstats/internal/activity"
	"github.com/dockstats/dockstats/internal/controllers/restserver"
	"github.com/dockstats/dockstats/internal/log"
	"github.com/dockstats/dockstats/internal/managers"
	"github.com/dockstats/dockstats/internal/storage"
	"github.com/dockstats/dockstats/internal/types"
	"github.com/dockstats/dockstats/pkg/config"
	"go.uber.org/zap"
)

const storageHealthInterval = time.Minute

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Compute reads the configured feed once and runs the pipeline over it. It
// returns the result and the station metadata the feed supplied.
func (a *App) Compute(ctx context.Context) (*types.Result, []types.Station, error) {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	policy, err := activity.ParseDuplicatePolicy(cfg.DuplicateTimestamps)
	if err != nil {
		return nil, nil, err
	}

	feed, err := managers.NewSnapshotFeed(ctx, cfg.Feed, loc, a.logger.Named("feed"))
	if err != nil {
		return nil, nil, fmt.Errorf("could not open %s feed: %w", cfg.Feed.Type, err)
	}
	defer feed.Close()

	snaps, err := feed.Snapshots(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading snapshots: %w", err)
	}
	stations, err := feed.Stations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading station metadata: %w", err)
	}
	a.logger.Infof("read %d snapshots and %d stations from %s feed", len(snaps), len(stations), cfg.Feed.Type)

	universe := append([]string(nil), cfg.Stations...)
	for _, s := range stations {
		universe = append(universe, s.ID)
	}

	pipeline := activity.NewPipeline(activity.Options{
		Location:   loc,
		Duplicates: policy,
		Workers:    cfg.Workers,
		Stations:   universe,
	}, a.logger.Named("pipeline"))

	res, err := pipeline.Run(ctx, snaps)
	if err != nil {
		return nil, nil, err
	}
	return res, stations, nil
}

// Run computes and stores one result. With serve set it then keeps serving
// the result over REST, recomputing it every refresh interval, until a
// shutdown signal arrives or ctx is cancelled.
func (a *App) Run(ctx context.Context, serve bool) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer storageManager.Close()

	res, stations, err := a.Compute(ctx)
	if err != nil {
		return err
	}
	if err := storageManager.Store(ctx, res); err != nil {
		return fmt.Errorf("error storing result: %w", err)
	}

	if !serve {
		log.Info("run complete")
		return nil
	}

	rest := restserver.NewController(cfg.REST, a.logger.Named("rest"))
	rest.SetResult(res, stations)

	for name, checker := range storageManager.HealthCheckers() {
		storage.StartHealthMonitor(ctx, name, checker, storageHealthInterval, rest.SetStorageHealth)
	}

	if err := rest.StartController(ctx, &wg); err != nil {
		return err
	}

	if cfg.RefreshInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.refresh(ctx, cfg.RefreshInterval, storageManager, rest)
		}()
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// refresh recomputes the result on every tick. A failed run keeps the
// previous result published.
func (a *App) refresh(ctx context.Context, every time.Duration, sm *managers.StorageManager, rest *restserver.Controller) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, stations, err := a.Compute(ctx)
			if err != nil {
				a.logger.Errorf("refresh failed, keeping previous result: %v", err)
				continue
			}
			if err := sm.Store(ctx, res); err != nil {
				a.logger.Errorf("error storing refreshed result: %v", err)
			}
			rest.SetResult(res, stations)
		}
	}
}
