package handler

import (
	"net/http"

	"mbtamap/internal/templates"
)

// Viewer serves the map page for the viewer's session.
func (h *Handler) Viewer(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s := h.viewerSession(w, r)
	plan := s.Plan()

	data := templates.ViewerData{
		Page:     h.page("MBTA Subway Map"),
		View:     h.mapView(),
		Status:   plan.Status,
		Stations: h.dir.Len(),
		Failed:   h.failedLines(),
		Empty:    h.dir.Empty(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ViewerPage(data).Render(r.Context(), w); err != nil {
		h.logger.Error("rendering viewer page", "error", err)
	}
}

// mapView fits the map to the stations, or centers on downtown Boston
// when there are none.
func (h *Handler) mapView() templates.MapView {
	v := templates.MapView{
		Center: [2]float64{templates.DefaultCenterLat, templates.DefaultCenterLon},
		Zoom:   templates.DefaultZoom,
	}
	if h.dir.Empty() {
		return v
	}
	b := h.dir.Bound()
	v.Center = [2]float64{b.Center().Lat(), b.Center().Lon()}
	v.Bounds = &[2][2]float64{{b.Min.Lat(), b.Min.Lon()}, {b.Max.Lat(), b.Max.Lon()}}
	return v
}

// failedLines lists lines whose stops could not be fetched, in line order.
func (h *Handler) failedLines() []string {
	var out []string
	for _, l := range h.dir.Lines() {
		if _, failed := h.dir.Failures[l]; failed {
			out = append(out, string(l))
		}
	}
	return out
}
