// Package pgfeed reads station snapshots from a PostgreSQL database that a
// scraper writes into directly. dockstats-import can also mirror scrapes
// into it.
//
// Expected tables:
//
//	station_snapshots (station_id text, observed_at timestamptz, bike_ids text[])
//	stations          (station_id text, name text, lat double precision,
//	                   lng double precision, racks integer)
package pgfeed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dockstats/dockstats/internal/types"
	"github.com/lib/pq"
)

// Feed is a snapshot feed backed by PostgreSQL.
type Feed struct {
	db  *sql.DB
	loc *time.Location
}

// Open connects to the database described by connStr.
func Open(ctx context.Context, connStr string, loc *time.Location) (*Feed, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Feed{db: db, loc: loc}, nil
}

// Snapshots returns all snapshots ordered by station and time. A NULL
// bike_ids array yields a nil bike set.
func (f *Feed) Snapshots(ctx context.Context) ([]types.StationSnapshot, error) {
	rows, err := f.db.QueryContext(ctx, `
		SELECT station_id, observed_at, bike_ids
		FROM station_snapshots
		ORDER BY station_id, observed_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []types.StationSnapshot
	for rows.Next() {
		var (
			stationID string
			observed  time.Time
			ids       pq.StringArray
		)
		if err := rows.Scan(&stationID, &observed, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		var bikes types.BikeSet
		if ids != nil {
			bikes = types.NewBikeSet(ids...)
		}
		snaps = append(snaps, types.StationSnapshot{
			StationID: stationID,
			Timestamp: observed.In(f.loc),
			Bikes:     bikes,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading snapshot rows: %w", err)
	}
	return snaps, nil
}

// Stations returns station metadata ordered by ID.
func (f *Feed) Stations(ctx context.Context) ([]types.Station, error) {
	rows, err := f.db.QueryContext(ctx, `
		SELECT station_id, COALESCE(name, ''), COALESCE(lat, 0), COALESCE(lng, 0), COALESCE(racks, 0)
		FROM stations
		ORDER BY station_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []types.Station
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.Racks); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// insertSnapshot adds a snapshot unless the same station, time and bike set
// is already stored. Differing bike sets at one timestamp are kept so the
// pipeline's duplicate policy can decide on them.
const insertSnapshot = `
	INSERT INTO station_snapshots (station_id, observed_at, bike_ids)
	SELECT $1::text, $2::timestamptz, $3::text[]
	WHERE NOT EXISTS (
		SELECT 1 FROM station_snapshots
		WHERE station_id = $1::text
		  AND observed_at = $2::timestamptz
		  AND bike_ids IS NOT DISTINCT FROM $3::text[]
	)`

const (
	updateStation = `
	UPDATE stations SET name = $2, lat = $3, lng = $4, racks = $5
	WHERE station_id = $1`
	insertStation = `
	INSERT INTO stations (station_id, name, lat, lng, racks)
	SELECT $1::text, $2::text, $3::double precision, $4::double precision, $5::integer
	WHERE NOT EXISTS (SELECT 1 FROM stations WHERE station_id = $1::text)`
)

// snapshotArgs returns the insertSnapshot parameters. A missing bike set is
// stored as NULL, an empty one as an empty array.
func snapshotArgs(s types.StationSnapshot) []any {
	var ids []string
	if s.Bikes != nil {
		ids = s.Bikes.IDs()
	}
	return []any{s.StationID, s.Timestamp, pq.Array(ids)}
}

// SaveSnapshots mirrors snapshots into the shared database in a single
// transaction and returns how many were new. Re-importing the same scrapes
// adds nothing.
func (f *Feed) SaveSnapshots(ctx context.Context, snaps []types.StationSnapshot) (int64, error) {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSnapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var added int64
	for _, s := range snaps {
		res, err := stmt.ExecContext(ctx, snapshotArgs(s)...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert snapshot of station %s: %w", s.StationID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return added, nil
}

// SaveStations inserts or updates station metadata.
func (f *Feed) SaveStations(ctx context.Context, stations []types.Station) error {
	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, st := range stations {
		res, err := tx.ExecContext(ctx, updateStation, st.ID, st.Name, st.Lat, st.Lng, st.Racks)
		if err != nil {
			return fmt.Errorf("failed to update station %s: %w", st.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertStation, st.ID, st.Name, st.Lat, st.Lng, st.Racks); err != nil {
			return fmt.Errorf("failed to insert station %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (f *Feed) Close() error {
	return f.db.Close()
}
