package restserver

import (
	"fmt"
	"sort"

	"github.com/dockstats/dockstats/internal/types"
	"gonum.org/v1/gonum/stat"
)

// Ranking parameters and their defaults.
const (
	MetricChanges  = "changes"
	MetricIncoming = "incoming"
	MetricOutgoing = "outgoing"

	OrderTop    = "top"
	OrderBottom = "bottom"

	defaultRankLimit = 10
)

func metricValue(metric string, m types.ActivityMeans) (float64, error) {
	switch metric {
	case MetricChanges:
		return m.MeanChanges, nil
	case MetricIncoming:
		return m.MeanIncoming, nil
	case MetricOutgoing:
		return m.MeanOutgoing, nil
	}
	return 0, fmt.Errorf("unknown metric %q", metric)
}

// RankStations orders the stations of res by mean daily activity for metric.
// Top puts the busiest first, bottom the quietest; ties go to the lower
// station ID either way. At most limit entries are returned.
func RankStations(res *types.Result, meta map[string]types.Station, metric, order string, limit int) ([]RankEntry, error) {
	if order != OrderTop && order != OrderBottom {
		return nil, fmt.Errorf("unknown order %q", order)
	}
	if _, err := metricValue(metric, types.ActivityMeans{}); err != nil {
		return nil, err
	}

	// Weekday rows are grouped by station, one row per weekday
	values := make(map[string][]float64, len(res.Stations))
	for _, row := range res.Weekday {
		v, _ := metricValue(metric, row.ActivityMeans)
		values[row.StationID] = append(values[row.StationID], v)
	}

	entries := make([]RankEntry, 0, len(res.Stations))
	for _, id := range res.Stations {
		e := RankEntry{StationID: id, Name: meta[id].Name}
		if vs := values[id]; len(vs) > 0 {
			e.Score = stat.Mean(vs, nil)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			if order == OrderTop {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}
		return a.StationID < b.StationID
	})

	if limit < len(entries) {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
