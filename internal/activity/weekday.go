package activity

import (
	"sort"
	"time"

	"github.com/dockstats/dockstats/internal/constants"
	"github.com/dockstats/dockstats/internal/types"
)

type stationDay struct {
	station string
	year    int
	month   time.Month
	day     int
}

func (a stationDay) less(b stationDay) bool {
	switch {
	case a.station != b.station:
		return a.station < b.station
	case a.year != b.year:
		return a.year < b.year
	case a.month != b.month:
		return a.month < b.month
	}
	return a.day < b.day
}

// AggregateWeekday builds the weekday profile of every station.
//
// All records of a station on one calendar date (in loc, UTC when nil) are
// summed into a daily total. Daily totals are then averaged per
// (station, weekday) across the observed dates. Weekdays never observed are
// reported as zero, and every station gets exactly 7 rows.
func AggregateWeekday(records []types.ChangeRecord, stations []string, loc *time.Location) []types.WeekdayProfile {
	loc = location(loc)

	type daily struct {
		totals
		weekday int
	}

	days := make(map[stationDay]*daily)
	var keys []stationDay
	for _, r := range records {
		if !r.Known() {
			continue
		}
		lt := r.Timestamp.In(loc)
		y, m, d := lt.Date()
		k := stationDay{station: r.StationID, year: y, month: m, day: d}
		t, ok := days[k]
		if !ok {
			t = &daily{weekday: WeekdayIndex(lt)}
			days[k] = t
			keys = append(keys, k)
		}
		t.add(r)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	obs := make([]observation, 0, len(keys))
	for _, k := range keys {
		d := days[k]
		obs = append(obs, observation{
			key:    BucketKey[int]{StationID: k.station, Bucket: d.weekday},
			totals: d.totals,
		})
	}

	universe := stationUniverse(records, stations)
	full := FillKeySpace(averageBuckets(obs), universe, bucketRange(constants.DaysPerWeek), types.ActivityMeans{})

	profiles := make([]types.WeekdayProfile, 0, len(universe)*constants.DaysPerWeek)
	for _, s := range universe {
		for wd := 0; wd < constants.DaysPerWeek; wd++ {
			profiles = append(profiles, types.WeekdayProfile{
				StationID:     s,
				Weekday:       wd,
				ActivityMeans: full[BucketKey[int]{StationID: s, Bucket: wd}],
			})
		}
	}
	return profiles
}
