package database

import (
	"fmt"
	"time"

	"github.com/dockstats/dockstats/internal/types"
	"github.com/jackc/pgtype"
)

// ProfileRun is one stored pipeline run. Summary is a JSONB document with
// the run's parameters and counts.
type ProfileRun struct {
	RunID       string       `gorm:"primaryKey;column:run_id;type:uuid"`
	GeneratedAt time.Time    `gorm:"column:generated_at;not null;index"`
	Summary     pgtype.JSONB `gorm:"column:summary;type:jsonb;default:'{}';not null"`
}

// TableName specifies the table name for ProfileRun
func (ProfileRun) TableName() string {
	return "profile_runs"
}

// RunSummary is stored in ProfileRun.Summary.
type RunSummary struct {
	Timezone        string `json:"timezone"`
	DuplicatePolicy string `json:"duplicate_policy"`
	Stations        int    `json:"stations"`
	Records         int    `json:"records"`
	KnownRecords    int    `json:"known_records"`
}

// ChangeRecordRow stores a ChangeRecord; NULL counts mark a station's
// first observation.
type ChangeRecordRow struct {
	RunID     string    `gorm:"primaryKey;column:run_id;type:uuid"`
	StationID string    `gorm:"primaryKey;column:station_id"`
	Time      time.Time `gorm:"primaryKey;column:time"`
	Incoming  *int32    `gorm:"column:incoming"`
	Outgoing  *int32    `gorm:"column:outgoing"`
	Changes   *int32    `gorm:"column:changes"`
}

func (ChangeRecordRow) TableName() string {
	return "change_records"
}

type HourlyProfileRow struct {
	RunID        string  `gorm:"primaryKey;column:run_id;type:uuid"`
	StationID    string  `gorm:"primaryKey;column:station_id"`
	Hour         int16   `gorm:"primaryKey;column:hour"`
	MeanChanges  float64 `gorm:"column:mean_changes;not null"`
	MeanIncoming float64 `gorm:"column:mean_incoming;not null"`
	MeanOutgoing float64 `gorm:"column:mean_outgoing;not null"`
}

func (HourlyProfileRow) TableName() string {
	return "hourly_profiles"
}

type WeekdayProfileRow struct {
	RunID        string  `gorm:"primaryKey;column:run_id;type:uuid"`
	StationID    string  `gorm:"primaryKey;column:station_id"`
	Weekday      int16   `gorm:"primaryKey;column:weekday"`
	MeanChanges  float64 `gorm:"column:mean_changes;not null"`
	MeanIncoming float64 `gorm:"column:mean_incoming;not null"`
	MeanOutgoing float64 `gorm:"column:mean_outgoing;not null"`
}

func (WeekdayProfileRow) TableName() string {
	return "weekday_profiles"
}

// Rows is the table representation of a Result.
type Rows struct {
	Run     ProfileRun
	Changes []ChangeRecordRow
	Hourly  []HourlyProfileRow
	Weekday []WeekdayProfileRow
}

// RowsFromResult converts a pipeline result into table rows.
func RowsFromResult(res *types.Result, timezone, policy string) (*Rows, error) {
	runID := res.RunID.String()

	summary := RunSummary{
		Timezone:        timezone,
		DuplicatePolicy: policy,
		Stations:        len(res.Stations),
		Records:         len(res.Changes),
	}

	rows := &Rows{
		Changes: make([]ChangeRecordRow, 0, len(res.Changes)),
		Hourly:  make([]HourlyProfileRow, 0, len(res.Hourly)),
		Weekday: make([]WeekdayProfileRow, 0, len(res.Weekday)),
	}

	for _, c := range res.Changes {
		row := ChangeRecordRow{RunID: runID, StationID: c.StationID, Time: c.Timestamp}
		if c.Known() {
			summary.KnownRecords++
			row.Incoming = int32p(*c.Incoming)
			row.Outgoing = int32p(*c.Outgoing)
			row.Changes = int32p(*c.Changes)
		}
		rows.Changes = append(rows.Changes, row)
	}
	for _, h := range res.Hourly {
		rows.Hourly = append(rows.Hourly, HourlyProfileRow{
			RunID:        runID,
			StationID:    h.StationID,
			Hour:         int16(h.Hour),
			MeanChanges:  h.MeanChanges,
			MeanIncoming: h.MeanIncoming,
			MeanOutgoing: h.MeanOutgoing,
		})
	}
	for _, w := range res.Weekday {
		rows.Weekday = append(rows.Weekday, WeekdayProfileRow{
			RunID:        runID,
			StationID:    w.StationID,
			Weekday:      int16(w.Weekday),
			MeanChanges:  w.MeanChanges,
			MeanIncoming: w.MeanIncoming,
			MeanOutgoing: w.MeanOutgoing,
		})
	}

	rows.Run = ProfileRun{RunID: runID, GeneratedAt: res.GeneratedAt}
	if err := rows.Run.Summary.Set(summary); err != nil {
		return nil, fmt.Errorf("could not encode run summary: %w", err)
	}
	return rows, nil
}

func int32p(v int) *int32 {
	i := int32(v)
	return &i
}
