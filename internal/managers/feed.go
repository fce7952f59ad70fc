package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/dockstats/dockstats/internal/feed"
	"github.com/dockstats/dockstats/internal/feed/jsonfeed"
	"github.com/dockstats/dockstats/internal/feed/pgfeed"
	"github.com/dockstats/dockstats/internal/feed/sqlitefeed"
	"github.com/dockstats/dockstats/pkg/config"
	"go.uber.org/zap"
)

// NewSnapshotFeed opens the snapshot source selected in the configuration.
func NewSnapshotFeed(ctx context.Context, fc config.FeedData, loc *time.Location, logger *zap.SugaredLogger) (feed.SnapshotFeed, error) {
	switch fc.Type {
	case "json":
		if fc.JSON == nil {
			return nil, fmt.Errorf("json feed selected but not configured")
		}
		return jsonfeed.New(fc.JSON.Dir, fc.JSON.FilenameLayout, loc, logger), nil
	case "sqlite":
		if fc.SQLite == nil {
			return nil, fmt.Errorf("sqlite feed selected but not configured")
		}
		store, err := sqlitefeed.Open(ctx, fc.SQLite.Path, loc)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		if fc.Postgres == nil {
			return nil, fmt.Errorf("postgres feed selected but not configured")
		}
		pf, err := pgfeed.Open(ctx, fc.Postgres.ConnectionString, loc)
		if err != nil {
			return nil, err
		}
		return pf, nil
	}
	return nil, fmt.Errorf("unsupported feed type: %s", fc.Type)
}
