package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkey/pelarboj/internal/button"
	"github.com/nkey/pelarboj/internal/light"
	"github.com/nkey/pelarboj/internal/pwm"
)

// Frame runs one LED tick. It reports false if the record was busy and the
// frame was skipped; the previous output then stays on the pins.
func (c *Controller) Frame() bool {
	now := c.now()

	var fr light.Frame
	var snap light.Snapshot
	ok := c.rec.Do(c.opts.FrameTimeout, func(r *light.Record) {
		fr = r.Step(now)
		snap = r.Snapshot(now)
	})
	if !ok {
		c.tracker.FrameSkipped()
		log.Debug().Msg("Shared state busy, frame skipped")
		return false
	}

	// Hardware is written with the lock released.
	out := pwm.Scale(fr.Color, fr.Visible(), c.opts.Bits)
	if err := c.sink.Write(out); err != nil {
		log.Warn().Err(err).Msg("PWM write failed")
	}
	c.tracker.UpdateLight(snap)
	return true
}

// RunLEDLoop renders a frame on every tick until ctx is cancelled.
func (c *Controller) RunLEDLoop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			c.Frame()
		}
	}
}

// PollButton samples the button once and performs the completed action.
// A long press blocks here for the confirmation window.
func (c *Controller) PollButton() button.Action {
	raw, err := c.input.Read()
	if err != nil {
		log.Warn().Err(err).Msg("Button read failed")
		return button.ActionNone
	}

	action := c.machine.Process(raw, c.now())
	c.tracker.SetButton(c.machine.State().String())

	switch action {
	case button.ActionSingleTap:
		c.Toggle()
	case button.ActionDoubleTap:
		c.CycleEffect()
	case button.ActionLongPress:
		c.LongPress()
	}
	return action
}

// RunButtonLoop polls the button on every tick until ctx is cancelled.
func (c *Controller) RunButtonLoop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			c.PollButton()
		}
	}
}
