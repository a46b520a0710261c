package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mbtamap/internal/session"
)

// keepAliveInterval spaces comment lines that hold idle streams open
// through proxies.
const keepAliveInterval = 30 * time.Second

// SSESession streams the viewer's session updates via Server-Sent Events.
// "transition" events ask the browser to pan; "plan" events carry the
// render plan to draw. A newly connected browser first receives any
// in-flight transition and then the current plan.
func (h *Handler) SSESession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	s := h.viewerSession(w, r)
	updates, cancel := s.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if t, ok := s.PendingTransition(); ok {
		h.sendEvent(w, flusher, session.Update{Kind: session.KindTransition, State: s.State(), Transition: &t})
	}
	plan := s.Plan()
	h.sendEvent(w, flusher, session.Update{Kind: session.KindPlan, State: s.State(), Plan: &plan})

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				// Session expired or evicted; the browser reconnects with a new one.
				return
			}
			h.sendEvent(w, flusher, u)
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// sendEvent writes one update as an SSE event named after its kind.
func (h *Handler) sendEvent(w http.ResponseWriter, flusher http.Flusher, u session.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		h.logger.Error("encoding SSE update", "kind", u.Kind, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\n", u.Kind)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
