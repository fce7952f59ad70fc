// Package config loads and validates the dockstats configuration.
package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	// Timezone is the IANA zone hour-of-day and calendar dates are taken in.
	Timezone string `yaml:"timezone"`
	// DuplicateTimestamps is "reject" or "merge".
	DuplicateTimestamps string        `yaml:"duplicate_timestamps" validate:"omitempty,oneof=reject merge"`
	Workers             int           `yaml:"workers" validate:"gte=0"`
	RefreshInterval     time.Duration `yaml:"refresh_interval" validate:"gte=0"`
	// Stations are added to the station universe even when no snapshot
	// mentions them.
	Stations []string       `yaml:"stations" validate:"dive,required"`
	Feed     FeedData       `yaml:"feed" validate:"required"`
	Storage  StorageData    `yaml:"storage"`
	REST     RESTServerData `yaml:"rest"`
	Log      LogData        `yaml:"log"`
}

// LogData optionally adds a rotated JSON log file next to console output.
// Sizes are in megabytes, ages in days; zero means the rotation default.
type LogData struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// FeedData selects and configures the snapshot source
type FeedData struct {
	Type     string        `yaml:"type" validate:"required,oneof=json sqlite postgres"`
	JSON     *JSONFeedData `yaml:"json" validate:"required_if=Type json"`
	SQLite   *SQLiteData   `yaml:"sqlite" validate:"required_if=Type sqlite"`
	Postgres *PostgresData `yaml:"postgres" validate:"required_if=Type postgres"`
}

// JSONFeedData points at a directory of scraped JSON documents
type JSONFeedData struct {
	Dir            string `yaml:"dir" validate:"required"`
	FilenameLayout string `yaml:"filename_layout"`
}

type SQLiteData struct {
	Path string `yaml:"path" validate:"required"`
}

type PostgresData struct {
	ConnectionString string `yaml:"connection_string" validate:"required"`
}

// StorageData holds the configuration for the profile sinks. More than one
// can be enabled at once.
type StorageData struct {
	Postgres *ProfileStoreData `yaml:"postgres"`
}

// ProfileStoreData configures the PostgreSQL profile sink. KeepRuns bounds
// how many runs are retained; zero keeps all of them.
type ProfileStoreData struct {
	ConnectionString string `yaml:"connection_string" validate:"required"`
	KeepRuns         int    `yaml:"keep_runs" validate:"gte=0"`
}

type RESTServerData struct {
	ListenAddr string `yaml:"listen_addr"`
	Port       int    `yaml:"port" validate:"gte=0,lte=65535"`
}

// Location resolves the configured time zone.
func (c *ConfigData) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr is the host:port the REST server listens on.
func (r RESTServerData) Addr() string {
	return fmt.Sprintf("%s:%d", r.ListenAddr, r.Port)
}
