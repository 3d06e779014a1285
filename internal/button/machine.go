package button

import "time"

// Machine debounces raw samples and tracks the press state machine.
// It is owned by a single polling goroutine and needs no locking.
type Machine struct {
	cfg Config

	state       State
	pressStart  time.Time
	releaseTime time.Time
	// pressed is the debounced reading.
	pressed bool

	lastRaw  bool
	rawSince time.Time
	primed   bool
}

// NewMachine creates an idle Machine.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Pressed returns the debounced reading.
func (m *Machine) Pressed() bool {
	return m.pressed
}

// Process takes one raw sample (true = pressed) and returns the action
// completed by it, if any.
func (m *Machine) Process(raw bool, now time.Time) Action {
	if !m.primed || raw != m.lastRaw {
		// Any change restarts the debounce timer.
		m.lastRaw = raw
		m.rawSince = now
		m.primed = true
	}
	if now.Sub(m.rawSince) >= m.cfg.Debounce {
		m.pressed = m.lastRaw
	}
	return m.step(now)
}

func (m *Machine) step(now time.Time) Action {
	switch m.state {
	case Idle:
		if m.pressed {
			m.state = FirstPress
			m.pressStart = now
		}

	case FirstPress:
		if !m.pressed {
			m.state = WaitingSecond
			m.releaseTime = now
		} else if now.Sub(m.pressStart) >= m.cfg.LongPress {
			m.state = LongPressActive
			return ActionLongPress
		}

	case WaitingSecond:
		if m.pressed {
			m.state = SecondPress
			m.pressStart = now
		} else if now.Sub(m.releaseTime) >= m.cfg.DoubleTapWindow {
			m.state = Idle
			return ActionSingleTap
		}

	case SecondPress:
		if !m.pressed {
			m.state = Idle
			return ActionDoubleTap
		} else if now.Sub(m.pressStart) >= m.cfg.LongPress {
			m.state = LongPressActive
			return ActionLongPress
		}

	case LongPressActive:
		if !m.pressed {
			m.state = Idle
		}
	}
	return ActionNone
}
