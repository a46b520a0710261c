package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Manifest serves the web app manifest.
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	fmt.Fprint(w, `{
  "name": "MBTA Subway Map",
  "short_name": "MBTA Map",
  "description": "Keyboard-navigable map of MBTA rapid transit stations",
  "start_url": "/",
  "scope": "/",
  "display": "standalone",
  "orientation": "any",
  "background_color": "#1a1a2e",
  "theme_color": "#1a1a2e",
  "categories": ["navigation", "transportation"]
}`)
}

// Health reports readiness and basic counters. Index figures are read
// back from the station index, so a failed load shows up as a mismatch.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status          string   `json:"status"`
		Stations        int      `json:"stations"`
		IndexedStations int      `json:"indexed_stations"`
		Segments        int      `json:"segments"`
		Sessions        int      `json:"sessions"`
		FailedLines     []string `json:"failed_lines,omitempty"`
		BuiltAt         string   `json:"built_at"`
		Alerts          int      `json:"alerts"`
		AlertsUpdatedAt string   `json:"alerts_updated_at,omitempty"`
	}

	out := health{
		Status:      "ok",
		Stations:    h.dir.Len(),
		Segments:    len(h.dir.Segments),
		Sessions:    h.sessions.Len(),
		FailedLines: h.failedLines(),
		Alerts:      h.rt.Len(),
	}
	if t := h.rt.UpdatedAt(); !t.IsZero() {
		out.AlertsUpdatedAt = t.UTC().Format(time.RFC3339)
	}

	ctx := r.Context()
	builtAt, err := h.db.GetMetadata(ctx, "built_at")
	if err != nil {
		h.logger.Error("read index metadata", "key", "built_at", "error", err)
		out.Status = "degraded"
	}
	out.BuiltAt = builtAt
	count, err := h.db.GetMetadata(ctx, "station_count")
	if err != nil {
		h.logger.Error("read index metadata", "key", "station_count", "error", err)
		out.Status = "degraded"
	}
	if n, err := strconv.Atoi(count); err == nil {
		out.IndexedStations = n
	}
	if out.IndexedStations != out.Stations {
		out.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, out)
}
