package handler

import (
	"net/http"
	"time"

	"mbtamap/internal/lines"
	"mbtamap/internal/realtime"
)

// alertView is an alert with its effect spelled out for display.
type alertView struct {
	realtime.Alert
	EffectLabel string `json:"effect_label"`
}

// Alerts lists active service alerts. ?station=ID narrows to alerts for
// that station and its lines; ?line=ID narrows to one line. Without
// either, alerts for every configured line are listed.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var alerts []realtime.Alert

	switch q := r.URL.Query(); {
	case q.Get("station") != "":
		i, ok := h.dir.IndexOf(q.Get("station"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown station")
			return
		}
		s, _ := h.dir.Station(i)
		alerts = h.rt.ForStation(s.ID, s.Lines, now)
	case q.Get("line") != "":
		if !h.dir.HasLine(lines.ID(q.Get("line"))) {
			writeError(w, http.StatusNotFound, "unknown line")
			return
		}
		alerts = h.rt.ForLines([]lines.ID{lines.ID(q.Get("line"))}, now)
	default:
		alerts = h.rt.ForLines(h.dir.Lines(), now)
	}

	out := make([]alertView, len(alerts))
	for i, a := range alerts {
		out[i] = alertView{Alert: a, EffectLabel: realtime.EffectLabel(a.Effect)}
	}
	writeJSON(w, http.StatusOK, out)
}
