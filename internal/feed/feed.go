// Package feed defines where station snapshots come from. Implementations
// live in the subpackages.
package feed

import (
	"context"

	"github.com/dockstats/dockstats/internal/types"
)

// SnapshotFeed supplies the snapshots of one batch run together with the
// known station metadata.
type SnapshotFeed interface {
	Snapshots(ctx context.Context) ([]types.StationSnapshot, error)
	Stations(ctx context.Context) ([]types.Station, error)
	Close() error
}
