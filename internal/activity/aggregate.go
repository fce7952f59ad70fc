package activity

import (
	"sort"
	"time"

	"github.com/dockstats/dockstats/internal/types"
	"gonum.org/v1/gonum/stat"
)

// totals accumulates summed counts of one collapsed group.
type totals struct {
	changes  int
	incoming int
	outgoing int
}

func (t *totals) add(r types.ChangeRecord) {
	t.changes += *r.Changes
	t.incoming += *r.Incoming
	t.outgoing += *r.Outgoing
}

// observation is one collapsed total assigned to a profile bucket.
type observation struct {
	key BucketKey[int]
	totals
}

// averageBuckets takes the mean of the collapsed totals falling into each
// bucket. obs must be in a deterministic order so the float sums are
// reproducible.
func averageBuckets(obs []observation) map[BucketKey[int]]types.ActivityMeans {
	type series struct{ changes, incoming, outgoing []float64 }

	groups := make(map[BucketKey[int]]*series)
	for _, o := range obs {
		s, ok := groups[o.key]
		if !ok {
			s = &series{}
			groups[o.key] = s
		}
		s.changes = append(s.changes, float64(o.changes))
		s.incoming = append(s.incoming, float64(o.incoming))
		s.outgoing = append(s.outgoing, float64(o.outgoing))
	}

	means := make(map[BucketKey[int]]types.ActivityMeans, len(groups))
	for k, s := range groups {
		means[k] = types.ActivityMeans{
			MeanChanges:  stat.Mean(s.changes, nil),
			MeanIncoming: stat.Mean(s.incoming, nil),
			MeanOutgoing: stat.Mean(s.outgoing, nil),
		}
	}
	return means
}

// stationUniverse is the sorted union of the given station IDs and every
// station appearing in records, including stations that only have a first
// (count-less) record.
func stationUniverse(records []types.ChangeRecord, stations []string) []string {
	seen := make(map[string]struct{}, len(stations))
	for _, s := range stations {
		seen[s] = struct{}{}
	}
	for _, r := range records {
		seen[r.StationID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WeekdayIndex maps t's weekday onto 0 = Monday ... 6 = Sunday.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
