package app

import (
	"github.com/rs/zerolog/log"

	"github.com/nkey/pelarboj/internal/effect"
	"github.com/nkey/pelarboj/internal/light"
	"github.com/nkey/pelarboj/internal/mqtt"
)

// endSpecialAttempts bounds how often the end of a reset confirmation is
// retried; giving up would leave the red overlay on.
const endSpecialAttempts = 5

// mutate runs fn on the record with the action timeout. A busy record drops
// the action.
func (c *Controller) mutate(action string, fn func(*light.Record)) bool {
	if c.rec.Do(c.opts.ActionTimeout, fn) {
		return true
	}
	c.tracker.ActionDropped()
	log.Warn().Str("action", action).Dur("timeout", c.opts.ActionTimeout).
		Msg("Shared state busy, action dropped")
	return false
}

// Toggle flips the light on or off and pushes the new attributes.
func (c *Controller) Toggle() bool {
	var target light.Target
	var fx effect.Type
	ok := c.mutate("toggle", func(r *light.Record) {
		target = r.Toggle()
		fx = r.ActiveEffect()
	})
	if !ok {
		return false
	}
	c.tracker.Toggled()
	log.Info().Bool("on", target.On).Msg("Toggled")
	c.publishState(target, fx)
	return true
}

// CycleEffect advances to the next effect and starts the announce blink.
func (c *Controller) CycleEffect() bool {
	now := c.now()
	var next effect.Type
	ok := c.mutate("cycle_effect", func(r *light.Record) {
		next = r.CycleEffect(now)
	})
	if !ok {
		return false
	}
	c.tracker.EffectCycled()
	log.Info().Stringer("effect", next).Int("blinks", next.Index()).Msg("Effect changed")
	return true
}

// LongPress shows the reset overlay and waits for the confirmation window
// with no lock held. If the button stays down the coordinator reset runs
// and the process restarts. It reports whether the reset was triggered.
func (c *Controller) LongPress() bool {
	now := c.now()
	if !c.mutate("reset_confirm", func(r *light.Record) { r.BeginResetConfirm(now) }) {
		return false
	}
	c.tracker.ResetAttempted()
	log.Warn().Dur("window", c.opts.ConfirmWindow).Msg("Long press: keep holding to reset")

	held, err := c.confirm.Held()
	if err != nil {
		log.Warn().Err(err).Msg("Button read failed during reset confirmation, aborting")
	}
	if !held {
		log.Info().Msg("Reset aborted")
		c.endSpecial()
		return false
	}

	log.Warn().Msg("Reset confirmed")
	if c.reset != nil {
		if err := c.reset.FactoryReset(); err != nil {
			log.Error().Err(err).Msg("Coordinator reset failed")
		}
	}
	if c.restart != nil {
		if err := c.restart(); err != nil {
			log.Error().Err(err).Msg("Restart failed")
			c.endSpecial()
		}
	}
	return true
}

func (c *Controller) endSpecial() {
	for i := 0; i < endSpecialAttempts; i++ {
		now := c.now()
		if c.rec.Do(c.opts.ActionTimeout, func(r *light.Record) { r.EndSpecial(now) }) {
			return
		}
	}
	c.tracker.ActionDropped()
	log.Error().Msg("Could not leave reset overlay, shared state busy")
}

// HandleCommand applies a coordinator set command. Missing fields keep
// their current value.
func (c *Controller) HandleCommand(cmd mqtt.Command) {
	now := c.now()
	var target light.Target
	var fx effect.Type
	ok := c.mutate("command", func(r *light.Record) {
		r.SetTarget(cmd.Apply(r.Light.Target))
		if cmd.Effect != nil {
			r.SelectEffect(*cmd.Effect, now)
		}
		target = r.Light.Target
		fx = r.ActiveEffect()
	})
	if !ok {
		return
	}
	c.tracker.CommandApplied()
	log.Info().Bool("on", target.On).Uint8("level", target.Level).Stringer("effect", fx).
		Msg("Command applied")
	c.publishState(target, fx)
}

// HandleIdentify acknowledges an identify request. There is no identify
// animation yet.
func (c *Controller) HandleIdentify(id mqtt.Identify) {
	log.Info().Dur("duration", id.Duration).Msg("Identify requested")
}

// PushState publishes the current target and effect.
func (c *Controller) PushState() bool {
	var target light.Target
	var fx effect.Type
	if !c.mutate("push_state", func(r *light.Record) {
		target = r.Light.Target
		fx = r.ActiveEffect()
	}) {
		return false
	}
	c.publishState(target, fx)
	return true
}

func (c *Controller) publishState(target light.Target, fx effect.Type) {
	if c.pub == nil {
		return
	}
	if err := c.pub.PublishState(mqtt.AttributesFrom(target, fx, c.now())); err != nil {
		log.Warn().Err(err).Msg("State publish failed")
	}
}
