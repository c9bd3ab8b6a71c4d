// Package viewstate holds the per-page state machines behind the formula
// screens. Each page owns one controller; controllers never share state.
package viewstate

import (
	"errors"
	"fmt"
	"sync"
)

// State is a page's position in its lifecycle.
type State int

const (
	Loading State = iota
	Loaded
	// Empty is the Loaded sub-state of a list with no records.
	Empty
	Error
	Submitting
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Error:
		return "error"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrInvalidTransition is returned when an action is not allowed from the
	// page's current state.
	ErrInvalidTransition = errors.New("viewstate: invalid transition")
	// ErrInFlight rejects a submit or confirm while another one is pending.
	ErrInFlight = errors.New("viewstate: request already in flight")
	// ErrNotConfirmed rejects a delete that was never requested.
	ErrNotConfirmed = errors.New("viewstate: delete not confirmed")
	// ErrIncomplete rejects a create submission missing title or content.
	ErrIncomplete = errors.New("viewstate: title and content are required")
)

var transitions = map[State][]State{
	Loading:    {Loaded, Empty, Error},
	Loaded:     {Submitting},
	Error:      {Submitting},
	Submitting: {Loaded, Error},
}

// CanTransition reports whether the table allows moving from one state to
// another.
func CanTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// machine is embedded by every controller. Callers hold mu around every
// method.
type machine struct {
	mu      sync.Mutex
	state   State
	message string
}

func (m *machine) moveTo(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

func (m *machine) fail(message string) {
	m.state = Error
	m.message = message
}

// beginSubmit moves into Submitting, reporting ErrInFlight when a request is
// already pending.
func (m *machine) beginSubmit() error {
	if m.state == Submitting {
		return ErrInFlight
	}
	if err := m.moveTo(Submitting); err != nil {
		return err
	}
	m.message = ""
	return nil
}
