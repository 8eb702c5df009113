package form

// State is the state of a filter surface.
type State int

const (
	StateIdle State = iota
	StatePending
	StateLoading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Event drives the filter surface state machine.
type Event int

const (
	// EventInputChanged is any input on a field of the bound form.
	EventInputChanged Event = iota

	// EventDebounceElapsed fires when no input arrived for the debounce window.
	EventDebounceElapsed

	// EventFetchSettled fires when no render started by the surface is in
	// flight anymore.
	EventFetchSettled
)

func (e Event) String() string {
	switch e {
	case EventInputChanged:
		return "input-changed"
	case EventDebounceElapsed:
		return "debounce-elapsed"
	case EventFetchSettled:
		return "fetch-settled"
	default:
		return "unknown"
	}
}

// Transition returns the state after e. It reports false when e is not
// accepted in s, leaving the state unchanged.
func Transition(s State, e Event) (State, bool) {
	switch {
	case e == EventInputChanged:
		return StatePending, true
	case s == StatePending && e == EventDebounceElapsed:
		return StateLoading, true
	case s == StateLoading && e == EventFetchSettled:
		return StateIdle, true
	default:
		return s, false
	}
}
