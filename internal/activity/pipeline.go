package activity

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dockstats/dockstats/internal/types"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures a Pipeline.
type Options struct {
	// Location is the time zone hours and dates are taken in. Nil means UTC.
	Location *time.Location
	// Duplicates decides how coinciding snapshots of one station are handled.
	Duplicates DuplicatePolicy
	// Workers bounds the number of stations diffed concurrently. Zero or
	// less means runtime.NumCPU().
	Workers int
	// Stations extends the station universe beyond the stations seen in the
	// snapshots; those stations get zero-filled profiles.
	Stations []string
}

// Pipeline turns a batch of snapshots into change records and profiles.
type Pipeline struct {
	opts   Options
	logger *zap.SugaredLogger
}

// NewPipeline creates a pipeline. A nil logger disables logging.
func NewPipeline(opts Options, logger *zap.SugaredLogger) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Duplicates == "" {
		opts.Duplicates = DuplicateReject
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Run computes a Result from snaps. snaps is only read.
func (p *Pipeline) Run(ctx context.Context, snaps []types.StationSnapshot) (*types.Result, error) {
	start := time.Now()

	changes, err := p.computeChanges(ctx, snaps)
	if err != nil {
		return nil, err
	}

	stations := stationUniverse(changes, p.opts.Stations)

	var (
		hourly  []types.HourlyProfile
		weekday []types.WeekdayProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hourly = AggregateHourly(changes, stations, p.opts.Location)
		return gctx.Err()
	})
	g.Go(func() error {
		weekday = AggregateWeekday(changes, stations, p.opts.Location)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &types.Result{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Stations:    stations,
		Changes:     changes,
		Hourly:      hourly,
		Weekday:     weekday,
	}

	p.logger.Infow("activity pipeline finished",
		"run_id", res.RunID.String(),
		"snapshots", len(snaps),
		"stations", len(stations),
		"records", len(changes),
		"elapsed", time.Since(start))

	return res, nil
}

// computeChanges diffs each station on the worker pool. Every station writes
// only its own slot, so the results need no locking and are concatenated
// in station order afterwards.
func (p *Pipeline) computeChanges(ctx context.Context, snaps []types.StationSnapshot) ([]types.ChangeRecord, error) {
	ids, byStation, err := groupByStation(snaps)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(p.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([][]types.ChangeRecord, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = ComputeStationChanges(byStation[id], p.opts.Duplicates)
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("could not schedule station %s: %w", id, submitErr)
		}
	}
	wg.Wait()

	total := 0
	for i := range ids {
		if errs[i] != nil {
			return nil, errs[i]
		}
		total += len(results[i])
	}

	changes := make([]types.ChangeRecord, 0, total)
	for _, rs := range results {
		changes = append(changes, rs...)
	}

	p.logger.Debugf("computed %d change records for %d stations with %d workers", total, len(ids), p.opts.Workers)
	return changes, nil
}
