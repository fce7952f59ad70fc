package jsonfeed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dockstats/dockstats/internal/types"
	"go.uber.org/zap"
)

// DefaultFilenameLayout is the time layout of scrape file names, e.g.
// 2024-05-06T08-15-00.json.
const DefaultFilenameLayout = "2006-01-02T15-04-05"

// Feed serves the snapshots stored in a scrape directory.
type Feed struct {
	dir    string
	layout string
	loc    *time.Location
	logger *zap.SugaredLogger

	// set by the first successful ReadAll
	snaps    []types.StationSnapshot
	stations []types.Station
	loaded   bool
}

type scrapeFile struct {
	path string
	at   time.Time
}

// New creates a feed over dir. File names (without the .json extension)
// are parsed with layout in loc to obtain the observation time.
func New(dir, layout string, loc *time.Location, logger *zap.SugaredLogger) *Feed {
	if layout == "" {
		layout = DefaultFilenameLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Feed{dir: dir, layout: layout, loc: loc, logger: logger}
}

// files lists the scrape files in chronological order. Files whose names do
// not match the layout are skipped with a warning.
func (f *Feed) files() ([]scrapeFile, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("could not read scrape directory: %w", err)
	}

	var files []scrapeFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".json")
		at, err := time.ParseInLocation(f.layout, base, f.loc)
		if err != nil {
			f.logger.Warnf("skipping %s: name does not match layout %q", e.Name(), f.layout)
			continue
		}
		files = append(files, scrapeFile{path: filepath.Join(f.dir, e.Name()), at: at})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].at.Before(files[j].at) })
	return files, nil
}

// ReadAll loads every scrape file. Station metadata is taken from the
// newest file that lists the station.
func (f *Feed) ReadAll(ctx context.Context) ([]types.StationSnapshot, []types.Station, error) {
	files, err := f.files()
	if err != nil {
		return nil, nil, err
	}

	var snaps []types.StationSnapshot
	latest := make(map[string]types.Station)
	for _, sf := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := os.ReadFile(sf.path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not read %s: %w", sf.path, err)
		}
		s, st, err := ParseDocument(data, sf.at)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", filepath.Base(sf.path), err)
		}
		snaps = append(snaps, s...)
		for _, station := range st {
			latest[station.ID] = station
		}
	}

	stations := make([]types.Station, 0, len(latest))
	for _, s := range latest {
		stations = append(stations, s)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })

	f.logger.Infof("read %d snapshots of %d stations from %d scrape files", len(snaps), len(stations), len(files))
	return snaps, stations, nil
}

func (f *Feed) load(ctx context.Context) error {
	if f.loaded {
		return nil
	}
	snaps, stations, err := f.ReadAll(ctx)
	if err != nil {
		return err
	}
	f.snaps, f.stations, f.loaded = snaps, stations, true
	return nil
}

// Snapshots returns all snapshots in the directory. The directory is read
// once per Feed; later calls return the same data.
func (f *Feed) Snapshots(ctx context.Context) ([]types.StationSnapshot, error) {
	if err := f.load(ctx); err != nil {
		return nil, err
	}
	return f.snaps, nil
}

// Stations returns the station metadata found in the directory.
func (f *Feed) Stations(ctx context.Context) ([]types.Station, error) {
	if err := f.load(ctx); err != nil {
		return nil, err
	}
	return f.stations, nil
}

// Close is a no-op; the feed holds no open handles.
func (f *Feed) Close() error {
	return nil
}
