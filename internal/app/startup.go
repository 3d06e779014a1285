package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkey/pelarboj/internal/colorwheel"
	"github.com/nkey/pelarboj/internal/pwm"
)

const (
	selfTestStep = 200 * time.Millisecond
	hueStep      = 8
)

// Startup runs the power-on sequence before the tasks start: a white flash
// to prove all three channels, then a hue-wheel animation while waiting for
// the coordinator, then the initial attribute push.
func (c *Controller) Startup(ctx context.Context) {
	if !c.opts.SkipSelfTest {
		c.selfTest()
	}
	c.waitForCoordinator(ctx)
	c.write(pwm.Output{})
	c.PushState()
}

func (c *Controller) selfTest() {
	full := pwm.MaxDuty(c.opts.Bits)
	c.write(pwm.Output{R: full, G: full, B: full})
	c.sleep(selfTestStep)
	c.write(pwm.Output{})
	c.sleep(selfTestStep)
}

// waitForCoordinator cycles the hue wheel until the broker connection is up
// or ConnectWait runs out. It reports whether the connection came up.
func (c *Controller) waitForCoordinator(ctx context.Context) bool {
	if c.conn == nil || c.opts.ConnectWait <= 0 {
		return false
	}
	deadline := c.now().Add(c.opts.ConnectWait)
	var hue uint8
	for !c.conn.IsConnected() {
		if ctx.Err() != nil || !c.now().Before(deadline) {
			log.Warn().Dur("waited", c.opts.ConnectWait).Msg("Coordinator not connected, starting anyway")
			return false
		}
		r, g, b := colorwheel.HueToRGB(hue, 255)
		c.write(pwm.FromRGB8(r, g, b, c.opts.Bits))
		hue += hueStep
		c.sleep(c.opts.ConnectStep)
	}
	log.Info().Msg("Coordinator connected")
	return true
}

func (c *Controller) write(o pwm.Output) {
	if err := c.sink.Write(o); err != nil {
		log.Warn().Err(err).Msg("PWM write failed")
	}
}
