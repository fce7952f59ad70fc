// Package storage defines the sinks pipeline results are written to.
package storage

import (
	"context"

	"github.com/dockstats/dockstats/internal/types"
)

// StorageEngineInterface is implemented by every result sink.
type StorageEngineInterface interface {
	// StoreResult persists one complete pipeline run.
	StoreResult(ctx context.Context, res *types.Result) error
	Close() error
}

// HealthChecker defines the interface for storage backends to implement health checks
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
