package activity

import (
	"sort"
	"time"

	"github.com/dockstats/dockstats/internal/constants"
	"github.com/dockstats/dockstats/internal/types"
)

// AggregateHourly builds the hour-of-day profile of every station.
//
// Records sharing a station and an exact timestamp are first summed into one
// total; those totals are then averaged per (station, hour) across the days
// that had an observation in that hour. Hours without any observation are
// reported as zero. Records without counts are ignored, but their stations
// still get a full set of 24 rows. Hours are taken in loc (UTC when nil).
func AggregateHourly(records []types.ChangeRecord, stations []string, loc *time.Location) []types.HourlyProfile {
	loc = location(loc)

	type instant struct {
		station string
		nanos   int64
	}

	collapsed := make(map[instant]*totals)
	var keys []instant
	for _, r := range records {
		if !r.Known() {
			continue
		}
		k := instant{station: r.StationID, nanos: r.Timestamp.UnixNano()}
		t, ok := collapsed[k]
		if !ok {
			t = &totals{}
			collapsed[k] = t
			keys = append(keys, k)
		}
		t.add(r)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].station != keys[j].station {
			return keys[i].station < keys[j].station
		}
		return keys[i].nanos < keys[j].nanos
	})

	obs := make([]observation, 0, len(keys))
	for _, k := range keys {
		hour := time.Unix(0, k.nanos).In(loc).Hour()
		obs = append(obs, observation{
			key:    BucketKey[int]{StationID: k.station, Bucket: hour},
			totals: *collapsed[k],
		})
	}

	universe := stationUniverse(records, stations)
	full := FillKeySpace(averageBuckets(obs), universe, bucketRange(constants.HoursPerDay), types.ActivityMeans{})

	profiles := make([]types.HourlyProfile, 0, len(universe)*constants.HoursPerDay)
	for _, s := range universe {
		for h := 0; h < constants.HoursPerDay; h++ {
			profiles = append(profiles, types.HourlyProfile{
				StationID:     s,
				Hour:          h,
				ActivityMeans: full[BucketKey[int]{StationID: s, Bucket: h}],
			})
		}
	}
	return profiles
}
