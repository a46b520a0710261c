package session

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"mbtamap/internal/directory"
	"mbtamap/internal/lines"
	"mbtamap/internal/navigation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testDirectory() *directory.Directory {
	return directory.New(lines.Default(), []directory.Station{
		{ID: "place-alfcl", Name: "Alewife", Position: orb.Point{-71.142483, 42.395428}, Lines: []lines.ID{"Red"}, PrimaryLine: "Red", RouteName: "Red Line"},
		{ID: "place-davis", Name: "Davis", Position: orb.Point{-71.121815, 42.39674}, Lines: []lines.ID{"Red"}, PrimaryLine: "Red", RouteName: "Red Line"},
		{ID: "place-portr", Name: "Porter", Position: orb.Point{-71.119149, 42.3884}, Lines: []lines.ID{"Red"}, PrimaryLine: "Red", RouteName: "Red Line"},
	}, nil)
}

func dispatch(t *testing.T, s *Session, ev navigation.Event) navigation.State {
	t.Helper()
	st, err := s.Dispatch(ev)
	if err != nil {
		t.Fatalf("Dispatch(%T) error = %v", ev, err)
	}
	return st
}

func highlightIndex(t *testing.T, s *Session) int {
	t.Helper()
	h := s.Plan().Highlight
	if h == nil {
		t.Fatal("plan has no highlight")
	}
	return h.Index
}

func recv(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestSession_InitialPlan(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())
	if got := highlightIndex(t, s); got != 0 {
		t.Errorf("initial highlight = %d, want 0", got)
	}
	if _, ok := s.PendingTransition(); ok {
		t.Error("new session should have no pending transition")
	}
}

func TestSession_HighlightWaitsForCompletion(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())
	updates, cancel := s.Subscribe()
	defer cancel()

	dispatch(t, s, navigation.Next{})

	u := recv(t, updates)
	if u.Kind != KindTransition || u.Transition == nil {
		t.Fatalf("first update = %+v, want transition", u)
	}
	if u.Transition.Index != 1 || u.Transition.Position[0] != 42.39674 {
		t.Errorf("transition = %+v, want Davis", u.Transition)
	}
	if u.Transition.DurationMS != 250 {
		t.Errorf("DurationMS = %d, want 250", u.Transition.DurationMS)
	}
	if u := recv(t, updates); u.Kind != KindPlan || u.Plan.Highlight.Index != 0 {
		t.Errorf("plan after Next = %+v, highlight should stay on 0", u)
	}

	// Simulated slow map: the highlight holds until completion arrives.
	time.Sleep(20 * time.Millisecond)
	if got := highlightIndex(t, s); got != 0 {
		t.Fatalf("highlight before completion = %d, want 0", got)
	}

	dispatch(t, s, navigation.TransitionCompleted{Seq: u.Transition.Seq})
	if got := highlightIndex(t, s); got != 1 {
		t.Errorf("highlight after completion = %d, want 1", got)
	}
	if u := recv(t, updates); u.Kind != KindPlan || u.Plan.Highlight.Index != 1 {
		t.Errorf("completion update = %+v", u)
	}
}

func TestSession_SupersededCompletionIgnored(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())

	dispatch(t, s, navigation.Next{})
	first := s.State().PendingSeq
	dispatch(t, s, navigation.Next{})
	second := s.State().PendingSeq

	dispatch(t, s, navigation.TransitionCompleted{Seq: first})
	if got := highlightIndex(t, s); got != 0 {
		t.Errorf("highlight after stale completion = %d, want 0", got)
	}
	if st := s.State(); st.Focus != 2 || st.Phase != navigation.Transitioning {
		t.Errorf("state after stale completion = %+v", st)
	}

	dispatch(t, s, navigation.TransitionCompleted{Seq: second})
	if got := highlightIndex(t, s); got != 2 {
		t.Errorf("highlight = %d, want 2", got)
	}
}

func TestSession_TimeoutAbandonsTransition(t *testing.T) {
	s := New("s1", testDirectory(), Config{TransitionTimeout: 30 * time.Millisecond}, testLogger())
	defer s.Close()

	dispatch(t, s, navigation.Previous{})
	if got := highlightIndex(t, s); got != 0 {
		t.Fatalf("highlight = %d, want 0 before timeout", got)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.State().Phase == navigation.Idle {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st := s.State(); st.Phase != navigation.Idle {
		t.Fatalf("phase = %v, want idle after timeout", st.Phase)
	}
	if got := highlightIndex(t, s); got != 2 {
		t.Errorf("highlight after timeout = %d, want 2", got)
	}
}

func TestSession_TimeoutCancelledByCompletion(t *testing.T) {
	s := New("s1", testDirectory(), Config{TransitionTimeout: 20 * time.Millisecond}, testLogger())
	defer s.Close()

	dispatch(t, s, navigation.Next{})
	seq := s.State().PendingSeq
	dispatch(t, s, navigation.TransitionCompleted{Seq: seq})

	updates, cancel := s.Subscribe()
	defer cancel()

	select {
	case u := <-updates:
		t.Errorf("unexpected update after completion: %+v", u)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestSession_SettleDelay(t *testing.T) {
	s := New("s1", testDirectory(), Config{SettleDelay: 30 * time.Millisecond}, testLogger())
	defer s.Close()

	dispatch(t, s, navigation.Next{})
	dispatch(t, s, navigation.TransitionCompleted{Seq: s.State().PendingSeq})

	if got := highlightIndex(t, s); got != 0 {
		t.Errorf("highlight during settle = %d, want 0", got)
	}
	time.Sleep(80 * time.Millisecond)
	if got := highlightIndex(t, s); got != 1 {
		t.Errorf("highlight after settle = %d, want 1", got)
	}
}

func TestSession_ToggleDuringSettle(t *testing.T) {
	s := New("s1", testDirectory(), Config{SettleDelay: 200 * time.Millisecond}, testLogger())
	defer s.Close()

	dispatch(t, s, navigation.Next{})
	dispatch(t, s, navigation.TransitionCompleted{Seq: s.State().PendingSeq})
	st := dispatch(t, s, navigation.ToggleDetails{})

	if st.Highlight != 0 {
		t.Errorf("State().Highlight during settle = %d, want 0", st.Highlight)
	}
	plan := s.Plan()
	if plan.Highlight.Index != 0 {
		t.Errorf("plan highlight during settle = %d, want 0", plan.Highlight.Index)
	}
	if plan.Highlight.Tooltip.Details == nil {
		t.Error("toggle during settle should still show details")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && highlightIndex(t, s) != 1 {
		time.Sleep(10 * time.Millisecond)
	}
	if got := highlightIndex(t, s); got != 1 {
		t.Fatalf("highlight after settle = %d, want 1", got)
	}
	if s.State().Highlight != 1 || s.Plan().Highlight.Tooltip.Details == nil {
		t.Errorf("after settle: state = %+v", s.State())
	}
}

func TestSession_NextDuringSettle(t *testing.T) {
	s := New("s1", testDirectory(), Config{SettleDelay: time.Hour}, testLogger())
	defer s.Close()

	dispatch(t, s, navigation.Next{})
	dispatch(t, s, navigation.TransitionCompleted{Seq: s.State().PendingSeq})
	if got := highlightIndex(t, s); got != 0 {
		t.Fatalf("highlight during settle = %d, want 0", got)
	}

	// The finished pan is drawn as soon as the next one starts.
	st := dispatch(t, s, navigation.Next{})
	if st.Highlight != 1 || st.Focus != 2 {
		t.Errorf("state = %+v, want highlight 1 focus 2", st)
	}
	if got := highlightIndex(t, s); got != 1 {
		t.Errorf("plan highlight = %d, want 1", got)
	}
}

func TestSession_ToggleDetails(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())

	dispatch(t, s, navigation.ToggleDetails{})
	if s.Plan().Highlight.Tooltip.Details == nil {
		t.Fatal("details not shown after toggle")
	}
	if _, ok := s.PendingTransition(); ok {
		t.Error("toggle should not start a transition")
	}

	dispatch(t, s, navigation.Next{})
	if s.Plan().Highlight.Tooltip.Details != nil {
		t.Error("details should collapse on Next")
	}
}

func TestSession_SelectOutOfRange(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())
	if _, err := s.Dispatch(navigation.Select{Index: 3}); !errors.Is(err, navigation.ErrIndexOutOfRange) {
		t.Errorf("error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSession_PendingTransition(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())
	dispatch(t, s, navigation.Select{Index: 2})

	tr, ok := s.PendingTransition()
	if !ok {
		t.Fatal("PendingTransition() ok = false")
	}
	if tr.Index != 2 || tr.Seq != s.State().PendingSeq {
		t.Errorf("PendingTransition() = %+v", tr)
	}
}

func TestSession_EmptyDirectory(t *testing.T) {
	s := New("s1", directory.New(lines.Default(), nil, nil), Config{TransitionTimeout: 10 * time.Millisecond}, testLogger())
	defer s.Close()

	for _, ev := range []navigation.Event{navigation.Next{}, navigation.Previous{}, navigation.ToggleDetails{}} {
		dispatch(t, s, ev)
	}
	if s.Plan().Highlight != nil {
		t.Error("empty directory should never have a highlight")
	}
	if _, ok := s.PendingTransition(); ok {
		t.Error("empty directory should never transition")
	}
}

func TestSession_CloseEndsSubscriptions(t *testing.T) {
	s := New("s1", testDirectory(), Config{}, testLogger())
	updates, cancel := s.Subscribe()
	s.Close()
	cancel() // after Close must not panic

	if _, ok := <-updates; ok {
		t.Error("channel should be closed")
	}

	late, _ := s.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscription on closed session should be closed")
	}
}
