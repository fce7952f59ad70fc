// Package database holds the GORM connection helper and table models for
// the PostgreSQL profile store.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dockstats/dockstats/internal/log"
	"go.uber.org/zap"
)

// CreateConnection opens a GORM connection with the standard logger setup:
// GORM's warnings and slow queries go through zap.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a PostgreSQL connection:", err)
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the profile tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(
		&ProfileRun{},
		&ChangeRecordRow{},
		&HourlyProfileRow{},
		&WeekdayProfileRow{},
	)
	if err != nil {
		return fmt.Errorf("could not migrate profile tables: %w", err)
	}
	return nil
}
