package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dockstats/dockstats/pkg/config"
)

const (
	scrapeMorning = `{"countries":[{"cities":[{"places":[
  {"uid":2244,"name":"Trg bana Jelacica","bike_racks":12,"bike_numbers":["101","102","103"]},
  {"uid":2245,"name":"Glavni kolodvor","bike_racks":10,"bike_numbers":[]}
]}]}]}`
	scrapeLater = `{"countries":[{"cities":[{"places":[
  {"uid":2244,"name":"Trg bana Jelacica","bike_racks":12,"bike_numbers":["101","104"]},
  {"uid":2245,"name":"Glavni kolodvor","bike_racks":10,"bike_numbers":["102"]}
]}]}]}`
)

// staticProvider serves a fixed configuration.
type staticProvider struct {
	cfg *config.ConfigData
}

func (p staticProvider) LoadConfig() (*config.ConfigData, error) { return p.cfg, nil }
func (p staticProvider) Close() error { return nil }

func jsonConfig(t *testing.T, files map[string]string) *config.ConfigData {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return &config.ConfigData{
		Timezone: "UTC",
		Workers:  2,
		Stations: []string{"9999"},
		Feed: config.FeedData{
			Type: "json",
			JSON: &config.JSONFeedData{Dir: dir},
		},
	}
}

func TestCompute(t *testing.T) {
	cfg := jsonConfig(t, map[string]string{
		"2024-05-06T08-00-00.json": scrapeMorning,
		"2024-05-06T08-30-00.json": scrapeLater,
	})

	res, stations, err := New(staticProvider{cfg}, nil).Compute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2244", "2245", "9999"}
	if len(res.Stations) != len(want) {
		t.Fatalf("stations = %v, want %v", res.Stations, want)
	}
	for i := range want {
		if res.Stations[i] != want[i] {
			t.Errorf("stations[%d] = %s, want %s", i, res.Stations[i], want[i])
		}
	}
	if len(stations) != 2 {
		t.Errorf("expected metadata for 2 stations, got %d", len(stations))
	}
	if len(res.Hourly) != 3*24 || len(res.Weekday) != 3*7 {
		t.Errorf("profiles not total: %d hourly, %d weekday", len(res.Hourly), len(res.Weekday))
	}

	// 2244: {101,102,103} -> {101,104}: one in, two out
	second := res.Changes[1]
	if second.StationID != "2244" || second.Changes == nil || *second.Changes != 3 {
		t.Errorf("unexpected change record %+v", second)
	}

	for _, h := range res.Hourly {
		if h.StationID == "2244" && h.Hour == 8 && h.MeanChanges != 3 {
			t.Errorf("hour 8 mean = %v, want 3", h.MeanChanges)
		}
	}
}

func TestComputeBadConfig(t *testing.T) {
	cfg := jsonConfig(t, nil)
	cfg.DuplicateTimestamps = "average"

	_, _, err := New(staticProvider{cfg}, nil).Compute(context.Background())
	if err == nil {
		t.Fatal("expected an error for an unknown duplicate policy")
	}
}

func TestRunWithoutServing(t *testing.T) {
	cfg := jsonConfig(t, map[string]string{
		"2024-05-06T08-00-00.json": scrapeMorning,
		"2024-05-06T08-30-00.json": scrapeLater,
	})

	if err := New(staticProvider{cfg}, nil).Run(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := jsonConfig(t, map[string]string{
		"2024-05-06T08-00-00.json": scrapeMorning,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(staticProvider{cfg}, nil).Run(ctx, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
