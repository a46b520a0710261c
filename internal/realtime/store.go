package realtime

import (
	"sync"
	"time"

	"mbtamap/internal/lines"
)

// Period is an alert's active window in Unix seconds. Zero means unbounded.
type Period struct {
	Start uint64 `json:"start,omitempty"`
	End   uint64 `json:"end,omitempty"`
}

// Alert is a parsed service alert.
type Alert struct {
	ID       string   `json:"id"`
	Header   string   `json:"header"`
	Body     string   `json:"body,omitempty"`
	Routes   []string `json:"routes,omitempty"`
	Stops    []string `json:"stops,omitempty"`
	Effect   string   `json:"effect"` // NO_SERVICE, REDUCED_SERVICE, DETOUR, ...
	Cause    string   `json:"cause"`
	Severity string   `json:"severity"`
	Periods  []Period `json:"periods,omitempty"`
}

// Active reports whether the alert applies at t. Alerts without periods
// are always active.
func (a Alert) Active(t time.Time) bool {
	if len(a.Periods) == 0 {
		return true
	}
	now := uint64(t.Unix())
	for _, p := range a.Periods {
		if (p.Start == 0 || p.Start <= now) && (p.End == 0 || now < p.End) {
			return true
		}
	}
	return false
}

func (a Alert) affectsRoute(id string) bool {
	for _, r := range a.Routes {
		if r == id {
			return true
		}
	}
	return false
}

func (a Alert) affectsStop(id string) bool {
	for _, s := range a.Stops {
		if s == id {
			return true
		}
	}
	return false
}

// Store holds the latest alerts in a thread-safe manner.
type Store struct {
	mu        sync.RWMutex
	alerts    []Alert
	updatedAt time.Time
}

// NewStore creates an empty alert store.
func NewStore() *Store {
	return &Store{}
}

// SetAlerts replaces all alerts.
func (s *Store) SetAlerts(alerts []Alert, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
	s.updatedAt = at
}

// UpdatedAt returns when the alerts were last replaced.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// ForLines returns alerts active at t that name any of ids, in feed order.
func (s *Store) ForLines(ids []lines.ID, t time.Time) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Alert
	for _, a := range s.alerts {
		if !a.Active(t) {
			continue
		}
		for _, id := range ids {
			if a.affectsRoute(string(id)) {
				result = append(result, a)
				break
			}
		}
	}
	return result
}

// ForStation returns alerts active at t that name the station directly
// or name one of its lines without naming specific stops.
func (s *Store) ForStation(stationID string, ids []lines.ID, t time.Time) []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Alert
	for _, a := range s.alerts {
		if !a.Active(t) {
			continue
		}
		if a.affectsStop(stationID) {
			result = append(result, a)
			continue
		}
		if len(a.Stops) > 0 {
			continue
		}
		for _, id := range ids {
			if a.affectsRoute(string(id)) {
				result = append(result, a)
				break
			}
		}
	}
	return result
}

// Len returns the number of stored alerts, active or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
