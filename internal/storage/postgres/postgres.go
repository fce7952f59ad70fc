// Package postgres stores pipeline results in PostgreSQL through GORM.
package postgres

import (
	"context"
	"fmt"

	"github.com/dockstats/dockstats/internal/database"
	"github.com/dockstats/dockstats/internal/log"
	"github.com/dockstats/dockstats/internal/types"
	"gorm.io/gorm"
)

const batchSize = 500

// Storage holds the connection to the profile database
type Storage struct {
	DB       *gorm.DB
	timezone string
	policy   string
	keepRuns int
}

// New connects, migrates the profile tables and (re)creates the
// latest-run views. keepRuns bounds how many runs are retained; zero keeps
// everything.
func New(ctx context.Context, connectionString, timezone, policy string, keepRuns int) (*Storage, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	s := &Storage{DB: db, timezone: timezone, policy: policy, keepRuns: keepRuns}

	if err := database.Migrate(ctx, db); err != nil {
		s.Close()
		return nil, err
	}

	views := []struct{ name, stmt string }{
		{"latest run", createLatestRunViewSQL},
		{"latest hourly", createLatestHourlyViewSQL},
		{"latest weekday", createLatestWeekdayViewSQL},
	}
	for _, v := range views {
		log.Infof("creating %s view...", v.name)
		if err := db.WithContext(ctx).Exec(v.stmt).Error; err != nil {
			s.Close()
			return nil, fmt.Errorf("could not create %s view: %w", v.name, err)
		}
	}

	return s, nil
}

// StoreResult writes a run and all of its rows in one transaction.
func (s *Storage) StoreResult(ctx context.Context, res *types.Result) error {
	rows, err := database.RowsFromResult(res, s.timezone, s.policy)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows.Run).Error; err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}
		if len(rows.Changes) > 0 {
			if err := tx.CreateInBatches(rows.Changes, batchSize).Error; err != nil {
				return fmt.Errorf("could not store change records: %w", err)
			}
		}
		if len(rows.Hourly) > 0 {
			if err := tx.CreateInBatches(rows.Hourly, batchSize).Error; err != nil {
				return fmt.Errorf("could not store hourly profiles: %w", err)
			}
		}
		if len(rows.Weekday) > 0 {
			if err := tx.CreateInBatches(rows.Weekday, batchSize).Error; err != nil {
				return fmt.Errorf("could not store weekday profiles: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.keepRuns > 0 {
		if err := s.pruneRuns(ctx); err != nil {
			log.Warnf("could not prune old runs: %v", err)
		}
	}

	log.Infof("stored run %s: %d change records, %d hourly and %d weekday rows",
		rows.Run.RunID, len(rows.Changes), len(rows.Hourly), len(rows.Weekday))
	return nil
}

// pruneRuns deletes all but the newest keepRuns runs together with their rows.
func (s *Storage) pruneRuns(ctx context.Context) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []string
		err := tx.Model(&database.ProfileRun{}).
			Order("generated_at DESC").
			Offset(s.keepRuns).
			Pluck("run_id", &stale).Error
		if err != nil || len(stale) == 0 {
			return err
		}
		models := []any{
			&database.ChangeRecordRow{},
			&database.HourlyProfileRow{},
			&database.WeekdayProfileRow{},
			&database.ProfileRun{},
		}
		for _, model := range models {
			if err := tx.Where("run_id IN ?", stale).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CheckHealth pings the database.
func (s *Storage) CheckHealth(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
