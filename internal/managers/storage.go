package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dockstats/dockstats/internal/log"
	"github.com/dockstats/dockstats/internal/storage"
	"github.com/dockstats/dockstats/internal/storage/postgres"
	"github.com/dockstats/dockstats/internal/types"
	"github.com/dockstats/dockstats/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines []StorageEngine
}

// StorageEngine pairs a backend with the name it was configured under
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
}

// NewStorageManager creates a StorageManager populated with every
// configured storage backend. No backend at all is valid: results are then
// only served over the REST API.
func NewStorageManager(ctx context.Context, c *config.ConfigData) (*StorageManager, error) {
	s := &StorageManager{}

	if c.Storage.Postgres != nil {
		if err := s.AddEngine(ctx, "postgres", c); err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add PostgreSQL storage backend: %w", err)
		}
	}

	return s, nil
}

// AddEngine adds a new StorageEngine of name engineName
func (s *StorageManager) AddEngine(ctx context.Context, engineName string, c *config.ConfigData) error {
	switch engineName {
	case "postgres":
		pg := c.Storage.Postgres
		engine, err := postgres.New(ctx, pg.ConnectionString, c.Timezone, c.DuplicateTimestamps, pg.KeepRuns)
		if err != nil {
			return err
		}
		s.Engines = append(s.Engines, StorageEngine{Name: engineName, Engine: engine})
	default:
		return fmt.Errorf("unknown storage backend %q", engineName)
	}
	return nil
}

// Store hands the result to every backend. A failing backend does not stop
// the others; all failures are returned together.
func (s *StorageManager) Store(ctx context.Context, res *types.Result) error {
	var errs []error
	for _, e := range s.Engines {
		if err := e.Engine.StoreResult(ctx, res); err != nil {
			log.Errorf("storage backend %s failed: %v", e.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

// HealthCheckers returns the backends that support health checks, by name.
func (s *StorageManager) HealthCheckers() map[string]storage.HealthChecker {
	checkers := make(map[string]storage.HealthChecker)
	for _, e := range s.Engines {
		if hc, ok := e.Engine.(storage.HealthChecker); ok {
			checkers[e.Name] = hc
		}
	}
	return checkers
}

// Close closes every backend.
func (s *StorageManager) Close() error {
	var errs []error
	for _, e := range s.Engines {
		if err := e.Engine.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
