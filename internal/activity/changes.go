package activity

import (
	"fmt"
	"sort"

	"github.com/dockstats/dockstats/internal/types"
)

// DuplicatePolicy decides what happens when a station has more than one
// snapshot at the same instant.
type DuplicatePolicy string

const (
	// DuplicateReject fails the run with a ValidationError.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateMerge unions the bike sets of the coinciding snapshots and
	// treats them as a single observation.
	DuplicateMerge DuplicatePolicy = "merge"
)

// ParseDuplicatePolicy maps a config value to a policy. The empty string
// selects DuplicateReject.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicateReject:
		return DuplicateReject, nil
	case DuplicateMerge:
		return DuplicateMerge, nil
	}
	return "", fmt.Errorf("unknown duplicate timestamp policy %q (want %q or %q)", s, DuplicateReject, DuplicateMerge)
}

func validateSnapshot(s types.StationSnapshot) error {
	switch {
	case s.StationID == "":
		return &ValidationError{Timestamp: s.Timestamp, Reason: "missing station id"}
	case s.Timestamp.IsZero():
		return &ValidationError{StationID: s.StationID, Reason: "missing timestamp"}
	case s.Bikes == nil:
		return &ValidationError{StationID: s.StationID, Timestamp: s.Timestamp, Reason: "missing bike set"}
	}
	return nil
}

// groupByStation validates every snapshot and partitions them by station.
// The returned IDs are sorted.
func groupByStation(snaps []types.StationSnapshot) ([]string, map[string][]types.StationSnapshot, error) {
	byStation := make(map[string][]types.StationSnapshot)
	for _, s := range snaps {
		if err := validateSnapshot(s); err != nil {
			return nil, nil, err
		}
		byStation[s.StationID] = append(byStation[s.StationID], s)
	}

	ids := make([]string, 0, len(byStation))
	for id := range byStation {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, byStation, nil
}

// ComputeChanges derives one ChangeRecord per snapshot, station by station.
// Records are ordered by station ID, then timestamp.
func ComputeChanges(snaps []types.StationSnapshot, policy DuplicatePolicy) ([]types.ChangeRecord, error) {
	ids, byStation, err := groupByStation(snaps)
	if err != nil {
		return nil, err
	}

	records := make([]types.ChangeRecord, 0, len(snaps))
	for _, id := range ids {
		rs, err := ComputeStationChanges(byStation[id], policy)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return records, nil
}

// ComputeStationChanges diffs each snapshot of a single station against the
// one immediately before it. The first snapshot has no predecessor and
// yields a record with nil counts. The input slice is not reordered.
func ComputeStationChanges(snaps []types.StationSnapshot, policy DuplicatePolicy) ([]types.ChangeRecord, error) {
	if len(snaps) == 0 {
		return nil, nil
	}

	stationID := snaps[0].StationID
	ordered := make([]types.StationSnapshot, len(snaps))
	copy(ordered, snaps)
	for _, s := range ordered {
		if err := validateSnapshot(s); err != nil {
			return nil, err
		}
		if s.StationID != stationID {
			return nil, &ValidationError{StationID: s.StationID, Timestamp: s.Timestamp,
				Reason: fmt.Sprintf("mixed into the snapshots of station %s", stationID)}
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	ordered, err := resolveDuplicates(ordered, policy)
	if err != nil {
		return nil, err
	}

	records := make([]types.ChangeRecord, len(ordered))
	records[0] = types.ChangeRecord{StationID: stationID, Timestamp: ordered[0].Timestamp}
	for i := 1; i < len(ordered); i++ {
		in, out := diff(ordered[i-1].Bikes, ordered[i].Bikes)
		total := in + out
		records[i] = types.ChangeRecord{
			StationID: stationID,
			Timestamp: ordered[i].Timestamp,
			Incoming:  &in,
			Outgoing:  &out,
			Changes:   &total,
		}
	}
	return records, nil
}

// resolveDuplicates applies the policy to runs of equal timestamps in an
// already sorted slice.
func resolveDuplicates(ordered []types.StationSnapshot, policy DuplicatePolicy) ([]types.StationSnapshot, error) {
	out := make([]types.StationSnapshot, 0, len(ordered))
	for _, s := range ordered {
		n := len(out)
		if n == 0 || !out[n-1].Timestamp.Equal(s.Timestamp) {
			out = append(out, s)
			continue
		}
		if policy != DuplicateMerge {
			return nil, &ValidationError{StationID: s.StationID, Timestamp: s.Timestamp,
				Reason: "more than one snapshot at the same timestamp"}
		}
		out[n-1] = types.StationSnapshot{
			StationID: s.StationID,
			Timestamp: out[n-1].Timestamp,
			Bikes:     out[n-1].Bikes.Union(s.Bikes),
		}
	}
	return out, nil
}

// diff counts bikes that arrived (present later, absent earlier) and bikes
// that left (present earlier, absent later). Their sum is the size of the
// symmetric difference.
func diff(earlier, later types.BikeSet) (incoming, outgoing int) {
	for id := range later {
		if !earlier.Has(id) {
			incoming++
		}
	}
	for id := range earlier {
		if !later.Has(id) {
			outgoing++
		}
	}
	return incoming, outgoing
}
