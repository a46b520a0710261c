package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"mbtamap/internal/directory"
	"mbtamap/internal/lines"
	"mbtamap/internal/storage"
)

const searchLimit = 20

// lineView is a line as listed by /api/lines.
type lineView struct {
	ID        lines.ID `json:"id"`
	Color     string   `json:"color"`
	RouteName string   `json:"route_name"`
	Stations  int      `json:"stations"`
	Error     string   `json:"error,omitempty"`
}

// stationView is a station as listed by /api/stations.
type stationView struct {
	Index       int        `json:"index"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	Lines       []lines.ID `json:"lines"`
	PrimaryLine lines.ID   `json:"primary_line"`
	RouteName   string     `json:"route_name"`
	Address     string     `json:"address,omitempty"`
	Wheelchair  string     `json:"wheelchair"`
}

func newStationView(i int, s directory.Station) stationView {
	return stationView{
		Index:       i,
		ID:          s.ID,
		Name:        s.Name,
		Lat:         s.Position.Lat(),
		Lon:         s.Position.Lon(),
		Lines:       s.Lines,
		PrimaryLine: s.PrimaryLine,
		RouteName:   s.RouteName,
		Address:     s.Address,
		Wheelchair:  s.Wheelchair.String(),
	}
}

// Lines lists the configured lines with their colors and fetch outcome.
func (h *Handler) Lines(w http.ResponseWriter, r *http.Request) {
	out := make([]lineView, 0, len(h.dir.Lines()))
	for _, id := range h.dir.Lines() {
		v := lineView{
			ID:        id,
			Color:     h.dir.Color(id),
			RouteName: h.dir.RouteName(id),
			Stations:  len(h.dir.StationsOnLine(id)),
		}
		if err := h.dir.Failures[id]; err != nil {
			v.Error = err.Error()
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

// Stations lists every station in navigation order. With ?line=ID only
// stations on that line are listed, read from the station index.
func (h *Handler) Stations(w http.ResponseWriter, r *http.Request) {
	if line := r.URL.Query().Get("line"); line != "" {
		if !h.dir.HasLine(lines.ID(line)) {
			writeError(w, http.StatusNotFound, "unknown line")
			return
		}
		rows, err := h.db.StationsForLine(r.Context(), lines.ID(line))
		if err != nil {
			h.logger.Error("stations for line", "line", line, "error", err)
			writeError(w, http.StatusInternalServerError, "station lookup failed")
			return
		}
		out := make([]stationView, 0, len(rows))
		for _, row := range rows {
			if s, ok := h.dir.Station(row.Index); ok {
				out = append(out, newStationView(row.Index, s))
			}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	out := make([]stationView, len(h.dir.Stations))
	for i, s := range h.dir.Stations {
		out[i] = newStationView(i, s)
	}
	writeJSON(w, http.StatusOK, out)
}

// Nearest returns the station closest to ?lat=&lon=.
func (h *Handler) Nearest(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil || math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	i, meters, ok := h.dir.Nearest(orb.Point{lon, lat})
	if !ok {
		writeError(w, http.StatusNotFound, "No stations available")
		return
	}
	s, _ := h.dir.Station(i)
	writeJSON(w, http.StatusOK, struct {
		Station        stationView `json:"station"`
		DistanceMeters float64     `json:"distance_meters"`
	}{newStationView(i, s), meters})
}

// searchResult is the /api/search response. Address is set when no
// station name matched and the query was geocoded instead; Stations then
// holds the station nearest that address.
type searchResult struct {
	Query    string               `json:"query"`
	Stations []storage.StationRow `json:"stations"`
	Address  *addressMatch        `json:"address,omitempty"`
}

type addressMatch struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Search finds stations by name, falling back to the station nearest a
// geocoded address.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	results, err := h.db.SearchStations(r.Context(), query, searchLimit)
	if err != nil {
		h.logger.Error("search stations", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	out := searchResult{Query: query, Stations: results}
	if len(results) == 0 {
		out.Address = h.searchAddress(r, query, &out)
	}
	if out.Stations == nil {
		out.Stations = []storage.StationRow{}
	}
	writeJSON(w, http.StatusOK, out)
}

// searchAddress geocodes query within the station area and appends the
// nearest station to out. Geocoder failures only drop the fallback.
func (h *Handler) searchAddress(r *http.Request, query string, out *searchResult) *addressMatch {
	if h.geo == nil || h.dir.Empty() {
		return nil
	}
	res, err := h.geo.Search(r.Context(), query, h.dir.Bound().Pad(0.02))
	if err != nil {
		h.logger.Warn("address geocoding failed", "query", query, "error", err)
		return nil
	}
	if res == nil {
		return nil
	}

	i, meters, _ := h.dir.Nearest(res.Point)
	s, _ := h.dir.Station(i)
	out.Stations = append(out.Stations, storage.StationRow{
		Index:     i,
		ID:        s.ID,
		Name:      s.Name,
		Lat:       s.Position.Lat(),
		Lon:       s.Position.Lon(),
		RouteName: s.RouteName,
		Lines:     lineStrings(s.Lines),
	})
	return &addressMatch{
		Name:           res.DisplayName,
		Lat:            res.Point.Lat(),
		Lon:            res.Point.Lon(),
		DistanceMeters: meters,
	}
}

func lineStrings(ids []lines.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
