package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	StationID string  `json:"station_id"`
	Mean      float64 `json:"mean"`
}

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
	}{
		{"default json", "/api/x", "application/json"},
		{"unknown format falls back to json", "/api/x?format=xml", "application/json"},
		{"msgpack", "/api/x?format=msgpack", "application/x-msgpack"},
	}

	f := NewFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			in := payload{StationID: "100", Mean: 2.5}

			if err := f.WriteResponse(rec, req, in, map[string]string{"Cache-Control": "no-cache"}); err != nil {
				t.Fatalf("WriteResponse: %v", err)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
				t.Errorf("Cache-Control = %q", got)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("CORS header = %q", got)
			}

			var out payload
			if tt.contentType == "application/x-msgpack" {
				dec := msgpack.NewDecoder(rec.Body)
				dec.SetCustomStructTag("json")
				if err := dec.Decode(&out); err != nil {
					t.Fatalf("decode msgpack: %v", err)
				}
			} else if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
				t.Fatalf("decode json: %v", err)
			}
			if out != in {
				t.Errorf("round trip = %+v, want %+v", out, in)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)

	if err := f.WriteError(rec, req, http.StatusNotFound, "unknown station"); err != nil {
		t.Fatalf("WriteError: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var out ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error != "unknown station" {
		t.Errorf("error = %q", out.Error)
	}
}
