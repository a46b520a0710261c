package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mbtamap/internal/navigation"
	"mbtamap/internal/projection"
)

// Next moves focus to the following station.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, navigation.Next{})
}

// Previous moves focus to the preceding station.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, navigation.Previous{})
}

// Select focuses the station at {index}, as a marker click does.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid station index")
		return
	}
	h.dispatch(w, r, navigation.Select{Index: i})
}

// Details toggles the detail view of the current station.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, navigation.ToggleDetails{})
}

// Key translates a browser key name into a navigation event. Keys with
// no binding are accepted and ignored.
func (h *Handler) Key(w http.ResponseWriter, r *http.Request) {
	ev, ok := navigation.EventForKey(r.PathValue("key"))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.dispatch(w, r, ev)
}

// CompleteTransition reports that the map finished panning for {seq}.
func (h *Handler) CompleteTransition(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transition sequence")
		return
	}
	h.dispatch(w, r, navigation.TransitionCompleted{Seq: seq})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, ev navigation.Event) {
	s := h.viewerSession(w, r)
	st, err := s.Dispatch(ev)
	if errors.Is(err, navigation.ErrIndexOutOfRange) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("dispatch navigation event", "session", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "navigation failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Plan returns the viewer's current render plan.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	s := h.viewerSession(w, r)
	writeJSON(w, http.StatusOK, s.Plan())
}

// PlanGeoJSON returns the viewer's current render plan as a GeoJSON
// feature collection.
func (h *Handler) PlanGeoJSON(w http.ResponseWriter, r *http.Request) {
	s := h.viewerSession(w, r)
	body, err := json.Marshal(projection.GeoJSON(s.Plan()))
	if err != nil {
		h.logger.Error("encode plan geojson", "error", err)
		writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(body)
}
