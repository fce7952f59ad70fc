package sqlitefeed

import (
	"context"
	"fmt"

	"github.com/dockstats/dockstats/pkg/migrate"
	"github.com/jmoiron/sqlx"
)

// Schema gives access to the schema version of a snapshot store without
// migrating it on open.
type Schema struct {
	db       *sqlx.DB
	migrator *migrate.Migrator
}

// OpenSchema opens the database at path for schema inspection.
func OpenSchema(ctx context.Context, path string) (*Schema, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Schema{db: db, migrator: newMigrator(db)}, nil
}

// Status returns the applied schema version and the migrations still to run.
func (s *Schema) Status(ctx context.Context) (int, []migrate.Migration, error) {
	current, err := s.migrator.GetCurrentVersion(ctx)
	if err != nil {
		return 0, nil, err
	}
	pending, err := s.migrator.GetPendingMigrations(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list pending migrations: %w", err)
	}
	return current, pending, nil
}

// MigrateTo moves the schema up or down to version. Zero reverts every
// migration.
func (s *Schema) MigrateTo(ctx context.Context, version int) error {
	if version < 0 {
		return fmt.Errorf("invalid schema version %d", version)
	}
	return s.migrator.MigrateTo(ctx, version)
}

// Close closes the database.
func (s *Schema) Close() error {
	return s.db.Close()
}
