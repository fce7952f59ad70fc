// Package jsonfeed reads station snapshots from a directory of scraped
// nextbike-style JSON documents, one document per observation round.
package jsonfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dockstats/dockstats/internal/types"
)

// document mirrors the part of the scraped payload we use. Everything above
// the places list is constant across scrapes.
type document struct {
	Countries []struct {
		Cities []struct {
			Places []place `json:"places"`
		} `json:"cities"`
	} `json:"countries"`
}

type place struct {
	UID         flexID   `json:"uid"`
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	BikeRacks   int      `json:"bike_racks"`
	BikeNumbers []flexID `json:"bike_numbers"`
}

// flexID accepts identifiers encoded either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identifier %s is neither a string nor a number", b)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

// ParseDocument decodes one scraped document observed at the given time.
// A place without a bike_numbers list yields a snapshot with a nil bike set,
// which the activity pipeline rejects as malformed.
func ParseDocument(data []byte, at time.Time) ([]types.StationSnapshot, []types.Station, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("could not decode document: %w", err)
	}
	if len(doc.Countries) == 0 || len(doc.Countries[0].Cities) == 0 {
		return nil, nil, fmt.Errorf("document has no country/city section")
	}

	places := doc.Countries[0].Cities[0].Places
	snaps := make([]types.StationSnapshot, 0, len(places))
	stations := make([]types.Station, 0, len(places))
	for _, p := range places {
		id := string(p.UID)

		var bikes types.BikeSet
		if p.BikeNumbers != nil {
			bikes = make(types.BikeSet, len(p.BikeNumbers))
			for _, b := range p.BikeNumbers {
				bikes[string(b)] = struct{}{}
			}
		}

		snaps = append(snaps, types.StationSnapshot{StationID: id, Timestamp: at, Bikes: bikes})
		stations = append(stations, types.Station{
			ID:    id,
			Name:  p.Name,
			Lat:   p.Lat,
			Lng:   p.Lng,
			Racks: p.BikeRacks,
		})
	}
	return snaps, stations, nil
}
