// Package emergency implements the SOS confirmation flow: a panel the user
// opens, a cancellable countdown, and a one-shot alert when it runs out.
package emergency

import (
	"errors"
	"fmt"
)

// CountdownSeconds is the default length of the confirmation window.
const CountdownSeconds = 5

// ErrInvalidTransition is matched by every *InvalidTransitionError.
var ErrInvalidTransition = errors.New("emergency: invalid transition")

// State is a machine state.
type State int

const (
	StateIdle State = iota
	StatePanelOpen
	StateConfirming
	StateSent
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StatePanelOpen:  "panel_open",
	StateConfirming: "confirming",
	StateSent:       "sent",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("emergency: unknown state %q", b)
}

// Event is an input to the machine.
type Event int

const (
	EventOpenPanel Event = iota
	EventClosePanel
	EventStartConfirmation
	EventTick
	EventCancel
)

var eventNames = [...]string{
	EventOpenPanel:         "open_panel",
	EventClosePanel:        "close_panel",
	EventStartConfirmation: "start_confirmation",
	EventTick:              "tick",
	EventCancel:            "cancel",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// Effect is a set of side effects the host must perform after a transition.
type Effect uint8

const (
	EffectStartTimer Effect = 1 << iota
	EffectStopTimer
	EffectSendAlert

	EffectNone Effect = 0
)

// Has reports whether e includes flag.
func (e Effect) Has(flag Effect) bool {
	return e&flag != 0
}

// InvalidTransitionError reports an event that is not allowed in the
// machine's current state. The machine is left unchanged.
type InvalidTransitionError struct {
	State State
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("emergency: cannot %s while %s", e.Event, e.State)
}

// Is makes errors.Is(err, ErrInvalidTransition) true.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Machine is the confirmation state machine. It is a plain value and is not
// safe for concurrent use; Session serializes access to it.
type Machine struct {
	state     State
	remaining int
	countdown int
}

// NewMachine returns an idle machine whose countdown starts at seconds.
// Non-positive values use CountdownSeconds.
func NewMachine(seconds int) Machine {
	if seconds <= 0 {
		seconds = CountdownSeconds
	}
	return Machine{state: StateIdle, remaining: seconds, countdown: seconds}
}

// State returns the current state.
func (m Machine) State() State { return m.state }

// Remaining returns the seconds left before the alert is sent. Outside a
// countdown it is the full countdown length, and 0 once sent.
func (m Machine) Remaining() int { return m.remaining }

// Countdown returns the configured countdown length.
func (m Machine) Countdown() int { return m.countdown }

// Fire applies ev and returns the effects the host must run. An event that
// is not valid in the current state returns *InvalidTransitionError.
func (m *Machine) Fire(ev Event) (Effect, error) {
	if m.countdown <= 0 {
		*m = NewMachine(0)
	}

	switch {
	case m.state == StateIdle && ev == EventOpenPanel:
		m.state = StatePanelOpen
		return EffectNone, nil

	case m.state == StatePanelOpen && ev == EventClosePanel:
		m.state = StateIdle
		return EffectNone, nil

	case m.state == StatePanelOpen && ev == EventStartConfirmation:
		m.state = StateConfirming
		m.remaining = m.countdown
		return EffectStartTimer, nil

	case m.state == StateConfirming && ev == EventTick:
		m.remaining--
		if m.remaining > 0 {
			return EffectNone, nil
		}
		m.remaining = 0
		m.state = StateSent
		return EffectStopTimer | EffectSendAlert, nil

	case m.state == StateConfirming && ev == EventCancel:
		m.state = StatePanelOpen
		m.remaining = m.countdown
		return EffectStopTimer, nil

	case m.state == StateSent && ev == EventClosePanel:
		m.state = StateIdle
		m.remaining = m.countdown
		return EffectNone, nil
	}

	return EffectNone, &InvalidTransitionError{State: m.state, Event: ev}
}
