// Package sqlitefeed keeps station snapshots in a local SQLite database.
// It is both a snapshot feed for the pipeline and the target of the
// dockstats-import tool.
package sqlitefeed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dockstats/dockstats/internal/log"
	"github.com/dockstats/dockstats/internal/types"
	"github.com/dockstats/dockstats/pkg/migrate"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SQLite-backed snapshot store.
type Store struct {
	db  *sqlx.DB
	loc *time.Location
}

// snapshotRow is the stored form of a snapshot: the timestamp as Unix
// nanoseconds and the bike set as a sorted JSON array ("null" for a
// missing set).
type snapshotRow struct {
	StationID  string `db:"station_id"`
	ObservedAt int64  `db:"observed_at"`
	Bikes      string `db:"bikes"`
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema. Timestamps read back are expressed in loc, UTC when nil.
func Open(ctx context.Context, path string, loc *time.Location) (*Store, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := newMigrator(db).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snapshot store: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}, nil
}

func openDB(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}

func newMigrator(db *sqlx.DB) *migrate.Migrator {
	return migrate.NewMigrator(db.DB, migrate.NewFSProvider(migrations, "migrations", ""), log.Named("migrate"))
}

// SaveSnapshots inserts snapshots in a single transaction. Snapshots that
// are already stored verbatim are skipped, so re-importing the same scrape
// files is harmless.
func (s *Store) SaveSnapshots(ctx context.Context, snaps []types.StationSnapshot) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx,
		`INSERT OR IGNORE INTO snapshots (station_id, observed_at, bikes) VALUES (:station_id, :observed_at, :bikes)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, snap := range snaps {
		row, err := toRow(snap)
		if err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx, row)
		if err != nil {
			return 0, fmt.Errorf("failed to insert snapshot of station %s: %w", snap.StationID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return inserted, nil
}

// SaveStations upserts station metadata.
func (s *Store) SaveStations(ctx context.Context, stations []types.Station) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO stations (station_id, name, lat, lng, racks)
		VALUES (:station_id, :name, :lat, :lng, :racks)
		ON CONFLICT (station_id) DO UPDATE SET
			name = excluded.name, lat = excluded.lat, lng = excluded.lng, racks = excluded.racks`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		if _, err := stmt.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// Snapshots returns every stored snapshot ordered by station and time.
func (s *Store) Snapshots(ctx context.Context) ([]types.StationSnapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT station_id, observed_at, bikes FROM snapshots ORDER BY station_id, observed_at, bikes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}

	snaps := make([]types.StationSnapshot, 0, len(rows))
	for _, r := range rows {
		var ids []string
		if err := json.Unmarshal([]byte(r.Bikes), &ids); err != nil {
			return nil, fmt.Errorf("corrupt bike list for station %s: %w", r.StationID, err)
		}
		var bikes types.BikeSet
		if ids != nil {
			bikes = types.NewBikeSet(ids...)
		}
		snaps = append(snaps, types.StationSnapshot{
			StationID: r.StationID,
			Timestamp: time.Unix(0, r.ObservedAt).In(s.loc),
			Bikes:     bikes,
		})
	}
	return snaps, nil
}

// Stations returns the stored station metadata ordered by ID.
func (s *Store) Stations(ctx context.Context) ([]types.Station, error) {
	var stations []types.Station
	err := s.db.SelectContext(ctx, &stations,
		`SELECT station_id, name, lat, lng, racks FROM stations ORDER BY station_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	return stations, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func toRow(snap types.StationSnapshot) (snapshotRow, error) {
	var ids []string
	if snap.Bikes != nil {
		ids = snap.Bikes.IDs()
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return snapshotRow{}, fmt.Errorf("failed to encode bikes of station %s: %w", snap.StationID, err)
	}
	return snapshotRow{
		StationID:  snap.StationID,
		ObservedAt: snap.Timestamp.UnixNano(),
		Bikes:      string(b),
	}, nil
}
