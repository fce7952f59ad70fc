package activity

import (
	"math"
	"testing"
	"time"

	"github.com/dockstats/dockstats/internal/types"
)

func rec(station string, at time.Time, in, out int) types.ChangeRecord {
	return types.ChangeRecord{
		StationID: station,
		Timestamp: at,
		Incoming:  intp(in),
		Outgoing:  intp(out),
		Changes:   intp(in + out),
	}
}

func firstRec(station string, at time.Time) types.ChangeRecord {
	return types.ChangeRecord{StationID: station, Timestamp: at}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateHourlySumsBeforeAveraging(t *testing.T) {
	records := []types.ChangeRecord{
		firstRec("S1", t0.Add(-time.Hour)),
		rec("S1", t0, 1, 1),                  // changes 2
		rec("S1", t0, 2, 1),                  // changes 3, same instant
		rec("S1", t0.Add(24*time.Hour), 1, 0), // changes 1, same hour next day
	}

	profiles := AggregateHourly(records, nil, time.UTC)
	if len(profiles) != 24 {
		t.Fatalf("expected 24 rows, got %d", len(profiles))
	}

	h8 := profiles[8]
	if h8.StationID != "S1" || h8.Hour != 8 {
		t.Fatalf("row 8 is %s/%d", h8.StationID, h8.Hour)
	}
	if !approx(h8.MeanChanges, 3) {
		t.Errorf("hour 8 mean changes = %.3f, expected 3", h8.MeanChanges)
	}
	if !approx(h8.MeanIncoming, 2) {
		t.Errorf("hour 8 mean incoming = %.3f, expected 2", h8.MeanIncoming)
	}
	if !approx(h8.MeanOutgoing, 1) {
		t.Errorf("hour 8 mean outgoing = %.3f, expected 1", h8.MeanOutgoing)
	}

	for _, p := range profiles {
		if p.Hour == 8 {
			continue
		}
		if p.ActivityMeans != (types.ActivityMeans{}) {
			t.Errorf("hour %d should be zero-filled, got %+v", p.Hour, p.ActivityMeans)
		}
	}
}

func TestAggregateHourlyTotality(t *testing.T) {
	records := []types.ChangeRecord{
		firstRec("B", t0),
		rec("B", t0.Add(time.Hour), 2, 2),
		firstRec("A", t0),
		firstRec("only-null", t0),
	}

	profiles := AggregateHourly(records, []string{"C", "A"}, time.UTC)

	expectedStations := []string{"A", "B", "C", "only-null"}
	if len(profiles) != len(expectedStations)*24 {
		t.Fatalf("expected %d rows, got %d", len(expectedStations)*24, len(profiles))
	}

	seen := make(map[BucketKey[int]]bool)
	for i, p := range profiles {
		station := expectedStations[i/24]
		if p.StationID != station || p.Hour != i%24 {
			t.Errorf("row %d: got %s/%d, expected %s/%d", i, p.StationID, p.Hour, station, i%24)
		}
		k := BucketKey[int]{StationID: p.StationID, Bucket: p.Hour}
		if seen[k] {
			t.Errorf("duplicate row %+v", k)
		}
		seen[k] = true
	}

	// B at 09:00 had 4 changes
	if got := profiles[24+9].MeanChanges; !approx(got, 4) {
		t.Errorf("B hour 9 = %.2f, expected 4", got)
	}
}

func TestAggregateHourlyUsesLocation(t *testing.T) {
	cest := time.FixedZone("CEST", 2*60*60)
	records := []types.ChangeRecord{rec("A", time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC), 1, 0)}

	profiles := AggregateHourly(records, nil, cest)
	if !approx(profiles[1].MeanChanges, 1) {
		t.Errorf("expected activity at local hour 1, got %+v", profiles[1])
	}
	if !approx(profiles[23].MeanChanges, 0) {
		t.Errorf("expected no activity at hour 23, got %+v", profiles[23])
	}
}

func TestAggregateWeekdayDailyTotals(t *testing.T) {
	monday1 := t0
	monday2 := t0.AddDate(0, 0, 7)
	records := []types.ChangeRecord{
		firstRec("S3", monday1.Add(-time.Hour)),
		rec("S3", monday1, 2, 2),
		rec("S3", monday1.Add(2*time.Hour), 1, 2),
		rec("S3", monday1.Add(5*time.Hour), 3, 0),
		rec("S3", monday2.Add(time.Hour), 4, 3),
		rec("S3", monday2.Add(6*time.Hour), 5, 2),
	}

	profiles := AggregateWeekday(records, nil, time.UTC)
	if len(profiles) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(profiles))
	}

	monday := profiles[0]
	if monday.Weekday != 0 {
		t.Fatalf("first row is weekday %d", monday.Weekday)
	}
	if !approx(monday.MeanChanges, 12) {
		t.Errorf("monday mean changes = %.3f, expected 12", monday.MeanChanges)
	}
	if !approx(monday.MeanIncoming, 7.5) {
		t.Errorf("monday mean incoming = %.3f, expected 7.5", monday.MeanIncoming)
	}
	if !approx(monday.MeanOutgoing, 4.5) {
		t.Errorf("monday mean outgoing = %.3f, expected 4.5", monday.MeanOutgoing)
	}
	for _, p := range profiles[1:] {
		if p.ActivityMeans != (types.ActivityMeans{}) {
			t.Errorf("weekday %d should be zero-filled, got %+v", p.Weekday, p.ActivityMeans)
		}
	}
}

func TestAggregateWeekdayTotality(t *testing.T) {
	records := []types.ChangeRecord{
		rec("A", t0, 1, 1),
		rec("A", t0.AddDate(0, 0, 6), 0, 1), // Sunday
		firstRec("B", t0),
	}

	profiles := AggregateWeekday(records, []string{"C"}, time.UTC)
	if len(profiles) != 3*7 {
		t.Fatalf("expected 21 rows, got %d", len(profiles))
	}
	for i, p := range profiles {
		if p.Weekday != i%7 {
			t.Errorf("row %d has weekday %d", i, p.Weekday)
		}
	}
	if !approx(profiles[6].MeanChanges, 1) {
		t.Errorf("A sunday = %+v, expected 1 change", profiles[6])
	}
	for _, p := range profiles[7:] {
		if p.ActivityMeans != (types.ActivityMeans{}) {
			t.Errorf("%s weekday %d should be zero-filled", p.StationID, p.Weekday)
		}
	}
}

func TestWeekdayIndex(t *testing.T) {
	for i := 0; i < 7; i++ {
		d := t0.AddDate(0, 0, i)
		if got := WeekdayIndex(d); got != i {
			t.Errorf("%s: got %d, expected %d", d.Weekday(), got, i)
		}
	}
}
