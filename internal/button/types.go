// Package button turns raw samples of a single push button into tap,
// double-tap and long-press actions.
// This package has NO hardware dependencies. Time is always injectable.
package button

import "time"

// State is the press state machine state.
type State int

const (
	Idle State = iota
	FirstPress
	WaitingSecond
	SecondPress
	LongPressActive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case FirstPress:
		return "FIRST_PRESS"
	case WaitingSecond:
		return "WAITING_SECOND"
	case SecondPress:
		return "SECOND_PRESS"
	case LongPressActive:
		return "LONG_PRESS_ACTIVE"
	}
	return "UNKNOWN"
}

// Action is what a completed gesture asks the controller to do.
type Action int

const (
	ActionNone Action = iota
	ActionSingleTap
	ActionDoubleTap
	ActionLongPress
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionSingleTap:
		return "SINGLE_TAP"
	case ActionDoubleTap:
		return "DOUBLE_TAP"
	case ActionLongPress:
		return "LONG_PRESS"
	}
	return "UNKNOWN"
}

// Config holds the gesture timings.
type Config struct {
	// Debounce is how long a raw reading must be stable before it is used.
	Debounce time.Duration
	// DoubleTapWindow is how long after a release a second press still counts.
	DoubleTapWindow time.Duration
	// LongPress is how long a press must be held to arm the reset sequence.
	LongPress time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		Debounce:        50 * time.Millisecond,
		DoubleTapWindow: 400 * time.Millisecond,
		LongPress:       5 * time.Second,
	}
}
