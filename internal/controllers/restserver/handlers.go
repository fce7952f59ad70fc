package restserver

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/dockstats/dockstats/internal/types"
	"github.com/dockstats/dockstats/pkg/responseformat"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, nil); err != nil {
		h.controller.logger.Errorf("error writing response for %s: %v", req.URL.Path, err)
	}
}

func (h *Handlers) fail(w http.ResponseWriter, req *http.Request, status int, message string) {
	if err := h.formatter.WriteError(w, req, status, message); err != nil {
		h.controller.logger.Errorf("error writing error response for %s: %v", req.URL.Path, err)
	}
}

// station resolves the {station} path variable, answering 404 itself when
// the station is not part of the result.
func (h *Handlers) station(w http.ResponseWriter, req *http.Request, res *types.Result) (string, bool) {
	id := mux.Vars(req)["station"]
	i := sort.SearchStrings(res.Stations, id)
	if i == len(res.Stations) || res.Stations[i] != id {
		h.fail(w, req, http.StatusNotFound, "unknown station: "+id)
		return "", false
	}
	return id, true
}

// stationRows returns the contiguous run of rows belonging to station in a
// slice ordered by station ID.
func stationRows[T any](rows []T, station string, id func(T) string) []T {
	lo := sort.Search(len(rows), func(i int) bool { return id(rows[i]) >= station })
	hi := sort.Search(len(rows), func(i int) bool { return id(rows[i]) > station })
	return rows[lo:hi]
}

// GetRun handles requests for the current run summary
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	res := publishedFromContext(req).result

	known := 0
	for _, c := range res.Changes {
		if c.Known() {
			known++
		}
	}

	h.respond(w, req, RunInfo{
		RunID:        res.RunID.String(),
		GeneratedAt:  res.GeneratedAt,
		StationCount: len(res.Stations),
		RecordCount:  len(res.Changes),
		KnownRecords: known,
	})
}

// GetStations handles requests for the station universe
func (h *Handlers) GetStations(w http.ResponseWriter, req *http.Request) {
	p := publishedFromContext(req)

	stations := make([]StationInfo, 0, len(p.result.Stations))
	for _, id := range p.result.Stations {
		s, ok := p.stations[id]
		if !ok {
			s = types.Station{ID: id}
		}
		stations = append(stations, StationInfo{Station: s, HasMetadata: ok})
	}
	h.respond(w, req, stations)
}

// GetHourly handles requests for a station's hour-of-day profile
func (h *Handlers) GetHourly(w http.ResponseWriter, req *http.Request) {
	res := publishedFromContext(req).result
	id, ok := h.station(w, req, res)
	if !ok {
		return
	}
	h.respond(w, req, stationRows(res.Hourly, id, func(r types.HourlyProfile) string { return r.StationID }))
}

// GetWeekday handles requests for a station's weekday profile
func (h *Handlers) GetWeekday(w http.ResponseWriter, req *http.Request) {
	res := publishedFromContext(req).result
	id, ok := h.station(w, req, res)
	if !ok {
		return
	}
	h.respond(w, req, stationRows(res.Weekday, id, func(r types.WeekdayProfile) string { return r.StationID }))
}

// GetChanges handles requests for a station's change records
func (h *Handlers) GetChanges(w http.ResponseWriter, req *http.Request) {
	res := publishedFromContext(req).result
	id, ok := h.station(w, req, res)
	if !ok {
		return
	}
	h.respond(w, req, stationRows(res.Changes, id, func(r types.ChangeRecord) string { return r.StationID }))
}

// GetRankings handles requests for the busiest or quietest stations
func (h *Handlers) GetRankings(w http.ResponseWriter, req *http.Request) {
	p := publishedFromContext(req)
	q := req.URL.Query()

	metric := q.Get("metric")
	if metric == "" {
		metric = MetricChanges
	}
	order := q.Get("order")
	if order == "" {
		order = OrderTop
	}
	limit := defaultRankLimit
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			h.fail(w, req, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := RankStations(p.result, p.stations, metric, order, limit)
	if err != nil {
		h.fail(w, req, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, req, RankingResponse{
		Metric:  metric,
		Order:   order,
		Limit:   limit,
		Entries: entries,
	})
}
