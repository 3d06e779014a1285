// Package app runs the controller: the LED frame task, the button task, the
// coordinator command handler and the startup sequence, all sharing one
// guarded light record.
package app

import (
	"time"

	"github.com/nkey/pelarboj/internal/button"
	"github.com/nkey/pelarboj/internal/gpio"
	"github.com/nkey/pelarboj/internal/guard"
	"github.com/nkey/pelarboj/internal/light"
	"github.com/nkey/pelarboj/internal/mqtt"
	"github.com/nkey/pelarboj/internal/pwm"
	"github.com/nkey/pelarboj/internal/status"
)

// Options are the controller's timing and output settings.
type Options struct {
	FrameTimeout  time.Duration // LED task lock wait; on timeout the frame is skipped
	ActionTimeout time.Duration // mutation lock wait; on timeout the action is dropped
	Bits          int

	Button        button.Config
	ConfirmWindow time.Duration
	ConfirmPoll   time.Duration

	SkipSelfTest bool
	ConnectWait  time.Duration
	ConnectStep  time.Duration
}

// DefaultOptions returns the standard timings.
func DefaultOptions() Options {
	return Options{
		FrameTimeout:  5 * time.Millisecond,
		ActionTimeout: 20 * time.Millisecond,
		Bits:          pwm.Bits12,
		Button:        button.DefaultConfig(),
		ConfirmWindow: 5 * time.Second,
		ConfirmPoll:   10 * time.Millisecond,
		ConnectStep:   100 * time.Millisecond,
	}
}

// Deps are the controller's collaborators. Connection, Resetter and
// Restart may be nil.
type Deps struct {
	Record     *light.Record
	Sink       pwm.Sink
	Input      gpio.Reader
	Publisher  mqtt.Publisher
	Connection mqtt.ConnectionStatus
	Resetter   mqtt.Resetter
	Restart    func() error
	Tracker    *status.Tracker

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Controller owns the shared record and the tasks that touch it.
type Controller struct {
	opts Options

	rec     *guard.Guard[*light.Record]
	sink    pwm.Sink
	input   gpio.Reader
	pub     mqtt.Publisher
	conn    mqtt.ConnectionStatus
	reset   mqtt.Resetter
	restart func() error
	tracker *status.Tracker

	// machine and confirm belong to the button task.
	machine *button.Machine
	confirm *button.Confirmer

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Controller.
func New(d Deps, o Options) *Controller {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	if d.Tracker == nil {
		d.Tracker = status.NewTracker(d.Now(), status.Config{})
	}

	c := &Controller{
		opts:    o,
		rec:     guard.New(d.Record),
		sink:    d.Sink,
		input:   d.Input,
		pub:     d.Publisher,
		conn:    d.Connection,
		reset:   d.Resetter,
		restart: d.Restart,
		tracker: d.Tracker,
		machine: button.NewMachine(o.Button),
		now:     d.Now,
		sleep:   d.Sleep,
	}
	c.confirm = &button.Confirmer{
		Reader:   d.Input,
		Window:   o.ConfirmWindow,
		Interval: o.ConfirmPoll,
		Now:      d.Now,
		Sleep:    d.Sleep,
	}
	return c
}

// Tracker returns the status tracker the controller reports to.
func (c *Controller) Tracker() *status.Tracker {
	return c.tracker
}
