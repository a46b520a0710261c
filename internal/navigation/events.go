package navigation

// Event is an input to a Machine.
type Event interface {
	event()
}

// Next focuses the following station, wrapping at the end.
type Next struct{}

// Previous focuses the preceding station, wrapping at the start.
type Previous struct{}

// Select focuses a station directly, e.g. after a marker click.
type Select struct {
	Index int
}

// ToggleDetails shows or hides the extended tooltip.
type ToggleDetails struct{}

// TransitionCompleted reports that the map finished the pan numbered Seq.
type TransitionCompleted struct {
	Seq uint64
}

// TransitionAbandoned reports that no completion arrived for Seq in time.
type TransitionAbandoned struct {
	Seq uint64
}

func (Next) event()                {}
func (Previous) event()            {}
func (Select) event()              {}
func (ToggleDetails) event()       {}
func (TransitionCompleted) event() {}
func (TransitionAbandoned) event() {}

// EventForKey maps a DOM KeyboardEvent.key value to an event.
func EventForKey(key string) (Event, bool) {
	switch key {
	case "ArrowRight", "ArrowDown":
		return Next{}, true
	case "ArrowLeft", "ArrowUp":
		return Previous{}, true
	case "Enter":
		return ToggleDetails{}, true
	}
	return nil, false
}
