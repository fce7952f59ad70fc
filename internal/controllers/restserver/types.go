package restserver

import (
	"time"

	"github.com/dockstats/dockstats/internal/types"
)

// RunInfo describes the result currently served
type RunInfo struct {
	RunID        string    `json:"run_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	StationCount int       `json:"station_count"`
	RecordCount  int       `json:"record_count"`
	KnownRecords int       `json:"known_record_count"`
}

// StationInfo is one station of the universe, with metadata when the feed
// provided it.
type StationInfo struct {
	types.Station
	HasMetadata bool `json:"has_metadata"`
}

// RankEntry is one row of a station ranking. Score is the mean of the
// station's seven weekday means for the ranked metric.
type RankEntry struct {
	Rank      int     `json:"rank"`
	StationID string  `json:"station_id"`
	Name      string  `json:"name,omitempty"`
	Score     float64 `json:"score"`
}

// RankingResponse wraps a ranking with the parameters that produced it.
type RankingResponse struct {
	Metric  string      `json:"metric"`
	Order   string      `json:"order"`
	Limit   int         `json:"limit"`
	Entries []RankEntry `json:"entries"`
}
