package types

import (
	"time"

	"github.com/google/uuid"
)

// ChangeRecord holds the bike movement at a station between a snapshot and
// the station's previous snapshot. The counts are nil for a station's first
// snapshot, where there is nothing to compare against.
type ChangeRecord struct {
	StationID string    `json:"station_id"`
	Timestamp time.Time `json:"timestamp"`
	Incoming  *int      `json:"incoming"`
	Outgoing  *int      `json:"outgoing"`
	Changes   *int      `json:"changes"`
}

// Known reports whether the record carries counts.
func (c ChangeRecord) Known() bool {
	return c.Incoming != nil && c.Outgoing != nil && c.Changes != nil
}

// ActivityMeans groups the three mean activity metrics of a profile bucket.
type ActivityMeans struct {
	MeanChanges  float64 `json:"mean_changes"`
	MeanIncoming float64 `json:"mean_incoming"`
	MeanOutgoing float64 `json:"mean_outgoing"`
}

// HourlyProfile is the mean activity of a station during one hour of the day.
type HourlyProfile struct {
	StationID string `json:"station_id"`
	Hour      int    `json:"hour"`
	ActivityMeans
}

// WeekdayProfile is the mean daily activity of a station on one weekday,
// where 0 is Monday and 6 is Sunday.
type WeekdayProfile struct {
	StationID string `json:"station_id"`
	Weekday   int    `json:"weekday"`
	ActivityMeans
}

// Result is the output of one pipeline run. All slices are ordered by
// station ID, then by timestamp or bucket.
type Result struct {
	RunID       uuid.UUID        `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Stations    []string         `json:"stations"`
	Changes     []ChangeRecord   `json:"changes"`
	Hourly      []HourlyProfile  `json:"hourly"`
	Weekday     []WeekdayProfile `json:"weekday"`
}
