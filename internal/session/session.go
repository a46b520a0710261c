package session

import (
	"log/slog"
	"sync"
	"time"

	"mbtamap/internal/directory"
	"mbtamap/internal/navigation"
	"mbtamap/internal/projection"
)

// FlyToDuration is how long the browser animates a pan.
const FlyToDuration = 250 * time.Millisecond

// Config tunes transition handling.
type Config struct {
	// TransitionTimeout bounds the wait for a completion report. Zero
	// disables the bound.
	TransitionTimeout time.Duration
	// SettleDelay postpones the highlight redraw after completion, for
	// maps that report the end of a pan slightly before it is drawn.
	SettleDelay time.Duration
}

// UpdateKind names the event sent to subscribers.
type UpdateKind string

const (
	KindTransition UpdateKind = "transition"
	KindPlan       UpdateKind = "plan"
)

// Transition tells the browser where to pan and which seq to report back.
type Transition struct {
	Seq        uint64              `json:"seq"`
	Index      int                 `json:"index"`
	Position   projection.Position `json:"position"`
	DurationMS int64               `json:"duration_ms"`
}

// Update is pushed to subscribers after each state change.
type Update struct {
	Kind       UpdateKind             `json:"kind"`
	State      navigation.State       `json:"state"`
	Transition *Transition            `json:"transition,omitempty"`
	Plan       *projection.RenderPlan `json:"plan,omitempty"`
}

// Session is one viewer's navigation state. Events are applied one at a
// time in the order they acquire the session lock.
type Session struct {
	ID string

	dir    *directory.Directory
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	machine *navigation.Machine
	shown   int // highlight index of the published plan
	plan    projection.RenderPlan
	timeout *time.Timer
	settle  *time.Timer
	subs    map[chan Update]struct{}
	closed  bool
}

// New creates a session focused on the first station.
func New(id string, dir *directory.Directory, cfg Config, logger *slog.Logger) *Session {
	m := navigation.New(dir.Len())
	st := m.State()
	return &Session{
		ID:      id,
		dir:     dir,
		cfg:     cfg,
		logger:  logger.With("session", id),
		machine: m,
		plan:    projection.Project(dir, st.Highlight, st.DetailsVisible),
		subs:    make(map[chan Update]struct{}),
	}
}

// State returns the current navigation state. Highlight is the index
// drawn in the published plan, which trails the machine while a settle
// delay is pending.
func (s *Session) State() navigation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() navigation.State {
	st := s.machine.State()
	st.Highlight = s.shown
	return st
}

// Plan returns the most recently published render plan.
func (s *Session) Plan() projection.RenderPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// Dispatch applies ev and notifies subscribers.
func (s *Session) Dispatch(ev navigation.Event) (navigation.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eff, err := s.machine.Apply(ev)
	if err != nil {
		return s.stateLocked(), err
	}

	switch e := ev.(type) {
	case navigation.TransitionCompleted:
		if !eff.Redraw {
			s.logger.Debug("stale transition completion ignored", "seq", e.Seq)
			return s.stateLocked(), nil
		}
		s.stopTimeout()
		s.scheduleRedraw()
		return s.stateLocked(), nil
	case navigation.TransitionAbandoned:
		if eff.Redraw {
			s.stopTimeout()
			s.stopSettle()
			s.advance()
			s.redrawLocked()
		}
		return s.stateLocked(), nil
	}

	if t := eff.Transition; t != nil {
		// A finished pan still waiting out its settle delay is drawn now,
		// before the map starts moving again.
		s.stopSettle()
		s.advance()
		s.armTimeout(t.Seq)
		s.publishLocked(Update{
			Kind:       KindTransition,
			State:      s.stateLocked(),
			Transition: s.transition(*t),
		})
	}
	if eff.Redraw {
		s.redrawLocked()
	}
	return s.stateLocked(), nil
}

// PendingTransition returns the in-flight transition, if any, so a newly
// connected browser can resume it.
func (s *Session) PendingTransition() (Transition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.machine.State()
	if st.Phase != navigation.Transitioning {
		return Transition{}, false
	}
	return *s.transition(navigation.TransitionRequest{Seq: st.PendingSeq, Index: st.Focus}), true
}

func (s *Session) transition(t navigation.TransitionRequest) *Transition {
	st, _ := s.dir.Station(t.Index)
	return &Transition{
		Seq:        t.Seq,
		Index:      t.Index,
		Position:   projection.Position{st.Position.Lat(), st.Position.Lon()},
		DurationMS: FlyToDuration.Milliseconds(),
	}
}

func (s *Session) armTimeout(seq uint64) {
	s.stopTimeout()
	if s.cfg.TransitionTimeout <= 0 {
		return
	}
	s.timeout = time.AfterFunc(s.cfg.TransitionTimeout, func() {
		s.mu.Lock()
		stale := s.closed || s.machine.Stale(seq)
		s.mu.Unlock()
		if stale {
			return
		}
		s.logger.Warn("transition completion not received, abandoning", "seq", seq, "timeout", s.cfg.TransitionTimeout)
		s.Dispatch(navigation.TransitionAbandoned{Seq: seq})
	})
}

func (s *Session) stopTimeout() {
	if s.timeout != nil {
		s.timeout.Stop()
		s.timeout = nil
	}
}

func (s *Session) scheduleRedraw() {
	s.stopSettle()
	if s.cfg.SettleDelay <= 0 {
		s.advance()
		s.redrawLocked()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.cfg.SettleDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.settle != t {
			return
		}
		s.settle = nil
		s.advance()
		s.redrawLocked()
	})
	s.settle = t
}

func (s *Session) stopSettle() {
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

// advance moves the published highlight to the machine's settled one.
func (s *Session) advance() {
	s.shown = s.machine.State().Highlight
}

// redrawLocked recomputes the plan around the published highlight.
func (s *Session) redrawLocked() {
	st := s.stateLocked()
	s.plan = projection.Project(s.dir, s.shown, st.DetailsVisible)
	plan := s.plan
	s.publishLocked(Update{Kind: KindPlan, State: st, Plan: &plan})
}

// Subscribe returns a channel of updates and a function that ends the
// subscription. Updates are dropped for a subscriber that falls behind;
// Plan always has the latest.
func (s *Session) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 16)
	s.mu.Lock()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) publishLocked(u Update) {
	for ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.logger.Debug("subscriber behind, update dropped", "kind", u.Kind)
		}
	}
}

// Close stops timers and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimeout()
	s.stopSettle()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
