package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/dockstats/dockstats/internal/types"
)

var t0 = time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC) // a Monday

func snap(station string, at time.Time, bikes ...string) types.StationSnapshot {
	return types.StationSnapshot{StationID: station, Timestamp: at, Bikes: types.NewBikeSet(bikes...)}
}

func intp(v int) *int { return &v }

func TestComputeStationChangesDiff(t *testing.T) {
	records, err := ComputeStationChanges([]types.StationSnapshot{
		snap("S2", t0, "1", "2", "3"),
		snap("S2", t0.Add(10*time.Minute), "1", "4"),
	}, DuplicateReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	second := records[1]
	if !second.Known() {
		t.Fatalf("second record should carry counts")
	}
	if *second.Incoming != 1 || *second.Outgoing != 2 || *second.Changes != 3 {
		t.Errorf("got incoming=%d outgoing=%d changes=%d, expected 1/2/3",
			*second.Incoming, *second.Outgoing, *second.Changes)
	}
}

func TestFirstSnapshotHasNullCounts(t *testing.T) {
	tests := []struct {
		name  string
		snaps []types.StationSnapshot
	}{
		{
			name:  "single snapshot",
			snaps: []types.StationSnapshot{snap("A", t0, "1", "2")},
		},
		{
			name:  "empty bike set",
			snaps: []types.StationSnapshot{snap("A", t0), snap("A", t0.Add(time.Hour), "1")},
		},
		{
			name: "unsorted input",
			snaps: []types.StationSnapshot{
				snap("A", t0.Add(2*time.Hour), "3"),
				snap("A", t0, "1"),
				snap("A", t0.Add(time.Hour), "2"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ComputeStationChanges(tt.snaps, DuplicateReject)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != len(tt.snaps) {
				t.Fatalf("expected %d records, got %d", len(tt.snaps), len(records))
			}
			first := records[0]
			if !first.Timestamp.Equal(t0) {
				t.Errorf("first record at %v, expected %v", first.Timestamp, t0)
			}
			if first.Incoming != nil || first.Outgoing != nil || first.Changes != nil {
				t.Errorf("first record should have nil counts, got %+v", first)
			}
			for _, r := range records[1:] {
				if !r.Known() {
					t.Errorf("record at %v should carry counts", r.Timestamp)
				}
			}
		})
	}
}

func TestZeroTurnoverIsNotNull(t *testing.T) {
	records, err := ComputeStationChanges([]types.StationSnapshot{
		snap("A", t0, "1", "2"),
		snap("A", t0.Add(time.Hour), "2", "1"),
	}, DuplicateReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[1]
	if !r.Known() || *r.Changes != 0 || *r.Incoming != 0 || *r.Outgoing != 0 {
		t.Errorf("expected known zero counts, got %+v", r)
	}
}

func TestChangesEqualIncomingPlusOutgoing(t *testing.T) {
	snaps := []types.StationSnapshot{
		snap("A", t0, "1", "2", "3", "4"),
		snap("A", t0.Add(1*time.Hour), "3", "4", "5"),
		snap("A", t0.Add(2*time.Hour)),
		snap("A", t0.Add(3*time.Hour), "9", "8", "7"),
		snap("B", t0, "x"),
		snap("B", t0.Add(time.Hour), "y", "x", "z"),
	}
	records, err := ComputeChanges(snaps, DuplicateReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range records {
		if !r.Known() {
			continue
		}
		if *r.Changes != *r.Incoming+*r.Outgoing {
			t.Errorf("%s@%v: changes %d != incoming %d + outgoing %d",
				r.StationID, r.Timestamp, *r.Changes, *r.Incoming, *r.Outgoing)
		}
	}
}

func TestComputeChangesOrdering(t *testing.T) {
	snaps := []types.StationSnapshot{
		snap("B", t0.Add(time.Hour), "1"),
		snap("A", t0.Add(time.Hour), "1"),
		snap("B", t0),
		snap("A", t0),
	}
	records, err := ComputeChanges(snaps, DuplicateReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []struct {
		station string
		at      time.Time
	}{
		{"A", t0}, {"A", t0.Add(time.Hour)}, {"B", t0}, {"B", t0.Add(time.Hour)},
	}
	if len(records) != len(expected) {
		t.Fatalf("expected %d records, got %d", len(expected), len(records))
	}
	for i, e := range expected {
		if records[i].StationID != e.station || !records[i].Timestamp.Equal(e.at) {
			t.Errorf("record %d: got %s@%v, expected %s@%v",
				i, records[i].StationID, records[i].Timestamp, e.station, e.at)
		}
	}
}

func TestDuplicateTimestamps(t *testing.T) {
	snaps := []types.StationSnapshot{
		snap("A", t0, "1"),
		snap("A", t0.Add(time.Hour), "2"),
		snap("A", t0.Add(time.Hour), "3"),
		snap("A", t0.Add(2*time.Hour), "2", "3"),
	}

	t.Run("reject", func(t *testing.T) {
		_, err := ComputeStationChanges(snaps, DuplicateReject)
		if err == nil {
			t.Fatal("expected an error for duplicate timestamps")
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected a *ValidationError, got %T", err)
		}
		if verr.StationID != "A" || !verr.Timestamp.Equal(t0.Add(time.Hour)) {
			t.Errorf("error points at %s@%v", verr.StationID, verr.Timestamp)
		}
		if !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected error to match ErrInvalidSnapshot")
		}
	})

	t.Run("merge", func(t *testing.T) {
		records, err := ComputeStationChanges(snaps, DuplicateMerge)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records after merging, got %d", len(records))
		}
		// {1} -> {2,3}
		if *records[1].Incoming != 2 || *records[1].Outgoing != 1 {
			t.Errorf("merged record: got in=%d out=%d, expected 2/1", *records[1].Incoming, *records[1].Outgoing)
		}
		// {2,3} -> {2,3}
		if *records[2].Changes != 0 {
			t.Errorf("expected no changes after merged snapshot, got %d", *records[2].Changes)
		}
	})
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		snap types.StationSnapshot
	}{
		{"missing station", types.StationSnapshot{Timestamp: t0, Bikes: types.NewBikeSet()}},
		{"missing timestamp", types.StationSnapshot{StationID: "A", Bikes: types.NewBikeSet()}},
		{"missing bikes", types.StationSnapshot{StationID: "A", Timestamp: t0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeChanges([]types.StationSnapshot{tt.snap}, DuplicateReject)
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestMixedStationsRejected(t *testing.T) {
	_, err := ComputeStationChanges([]types.StationSnapshot{snap("A", t0), snap("B", t0.Add(time.Hour))}, DuplicateReject)
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    DuplicatePolicy
		wantErr bool
	}{
		{"", DuplicateReject, false},
		{"reject", DuplicateReject, false},
		{"merge", DuplicateMerge, false},
		{"first", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDuplicatePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuplicatePolicy(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDuplicatePolicy(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
