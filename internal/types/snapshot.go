package types

import (
	"sort"
	"time"
)

// BikeSet is the set of bike identifiers physically docked at a station.
// A nil BikeSet means the observation carried no bike list at all, which is
// not the same thing as an empty (non-nil) set.
type BikeSet map[string]struct{}

// NewBikeSet builds a BikeSet from a list of IDs. Duplicates collapse.
func NewBikeSet(ids ...string) BikeSet {
	s := make(BikeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether the bike is present.
func (s BikeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s BikeSet) Union(o BikeSet) BikeSet {
	u := make(BikeSet, len(s)+len(o))
	for id := range s {
		u[id] = struct{}{}
	}
	for id := range o {
		u[id] = struct{}{}
	}
	return u
}

// IDs returns the members in sorted order.
func (s BikeSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StationSnapshot is one observation of which bikes were docked at a station
// at a given instant.
type StationSnapshot struct {
	StationID string
	Timestamp time.Time
	Bikes     BikeSet
}

// Station carries the descriptive metadata of a docking station. The
// activity pipeline only ever uses ID.
type Station struct {
	ID    string  `json:"id" db:"station_id"`
	Name  string  `json:"name" db:"name"`
	Lat   float64 `json:"lat" db:"lat"`
	Lng   float64 `json:"lng" db:"lng"`
	Racks int     `json:"racks" db:"racks"`
}
