// Package navigation tracks which station a viewer is focused on.
//
// The highlight drawn on the map lags the focus: it moves only when the
// map reports that the pan toward the newly focused station has finished
// (or the wait for that report is given up). Each pan request carries a
// sequence number so a late completion for a superseded pan is ignored.
package navigation

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when Select names a station that does not exist.
var ErrIndexOutOfRange = errors.New("station index out of range")

// Phase is whether a map transition is in flight.
type Phase int

const (
	Idle Phase = iota
	Transitioning
)

func (p Phase) String() string {
	if p == Transitioning {
		return "transitioning"
	}
	return "idle"
}

// MarshalText encodes the phase by name in JSON responses.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of a Machine.
type State struct {
	Count          int    `json:"count"`
	Focus          int    `json:"focus"`
	Highlight      int    `json:"highlight"`
	DetailsVisible bool   `json:"details_visible"`
	Phase          Phase  `json:"phase"`
	PendingSeq     uint64 `json:"pending_seq"`
}

// TransitionRequest asks the map to pan to the station at Index. The
// completion report must echo Seq.
type TransitionRequest struct {
	Seq   uint64 `json:"seq"`
	Index int    `json:"index"`
}

// Effect describes what the caller must do after an event.
type Effect struct {
	// Transition is set when the map must start panning.
	Transition *TransitionRequest
	// Redraw is set when the render plan changed.
	Redraw bool
}

// Machine is the focus state machine for one viewer. It is not safe for
// concurrent use.
type Machine struct {
	count   int
	focus   int
	shown   int
	details bool
	phase   Phase
	seq     uint64
}

// New returns a Machine over count stations, focused on the first.
func New(count int) *Machine {
	if count < 0 {
		count = 0
	}
	return &Machine{count: count}
}

// State returns a snapshot of the machine.
func (m *Machine) State() State {
	return State{
		Count:          m.count,
		Focus:          m.focus,
		Highlight:      m.shown,
		DetailsVisible: m.details,
		Phase:          m.phase,
		PendingSeq:     m.seq,
	}
}

// Apply processes one input event.
func (m *Machine) Apply(ev Event) (Effect, error) {
	switch e := ev.(type) {
	case Next:
		return m.move(1), nil
	case Previous:
		return m.move(-1), nil
	case Select:
		if e.Index < 0 || e.Index >= m.count {
			return Effect{}, fmt.Errorf("select %d of %d: %w", e.Index, m.count, ErrIndexOutOfRange)
		}
		return m.focusOn(e.Index), nil
	case ToggleDetails:
		m.details = !m.details
		return Effect{Redraw: true}, nil
	case TransitionCompleted:
		return m.settle(e.Seq), nil
	case TransitionAbandoned:
		return m.settle(e.Seq), nil
	default:
		return Effect{}, fmt.Errorf("unknown event %T", ev)
	}
}

func (m *Machine) move(delta int) Effect {
	if m.count == 0 {
		return Effect{}
	}
	return m.focusOn((m.focus + delta + m.count) % m.count)
}

func (m *Machine) focusOn(i int) Effect {
	m.focus = i
	m.details = false
	m.phase = Transitioning
	m.seq++
	// The tooltip collapses immediately even though the highlight waits.
	return Effect{
		Transition: &TransitionRequest{Seq: m.seq, Index: i},
		Redraw:     true,
	}
}

// settle ends the transition identified by seq. Reports for any other
// sequence number belong to a superseded request.
func (m *Machine) settle(seq uint64) Effect {
	if m.phase != Transitioning || seq != m.seq {
		return Effect{}
	}
	m.phase = Idle
	m.shown = m.focus
	return Effect{Redraw: true}
}

// Stale reports whether seq no longer identifies the in-flight transition.
func (m *Machine) Stale(seq uint64) bool {
	return m.phase != Transitioning || seq != m.seq
}
