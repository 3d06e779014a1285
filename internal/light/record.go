package light

import (
	"time"

	"github.com/nkey/pelarboj/internal/effect"
)

// ChaseGain is the fraction of the remaining gap to target closed each frame.
const ChaseGain = 0.1

// Record is the shared state record.
type Record struct {
	Light  LightState
	Effect effect.State
	engine *effect.Engine
}

// NewRecord creates a record with the given target and starting effect.
// The base starts dark so the first frames fade in.
func NewRecord(engine *effect.Engine, target Target, fx effect.Type, now time.Time) *Record {
	return &Record{
		Light:  LightState{Target: target},
		Effect: effect.NewState(fx, now),
		engine: engine,
	}
}

// Interpolate moves the base one step towards the target.
func (r *Record) Interpolate() {
	t := r.Light.Target.Color()
	b := &r.Light.Base
	b.R += (t.R - b.R) * ChaseGain
	b.G += (t.G - b.G) * ChaseGain
	b.B += (t.B - b.B) * ChaseGain
	b.Level += (t.Level - b.Level) * ChaseGain
	r.Light.BaseOn = r.Light.Target.On
}

// Render runs the effect engine and the overlay against the current base.
func (r *Record) Render(now time.Time) Frame {
	final := r.engine.Compute(r.Light.Base, now, &r.Effect)
	final, forced := r.overlay(final, now)
	r.Light.Final = final
	return Frame{Color: final, On: r.Light.BaseOn, Forced: forced}
}

// Step is one LED tick: interpolation, effect, overlay.
func (r *Record) Step(now time.Time) Frame {
	r.Interpolate()
	return r.Render(now)
}

// SetTarget replaces the commanded state.
func (r *Record) SetTarget(t Target) {
	r.Light.Target = t
}

// Toggle flips the commanded on/off flag and returns the new target.
func (r *Record) Toggle() Target {
	r.Light.Target.On = !r.Light.Target.On
	return r.Light.Target
}

// ActiveEffect is the effect the user has selected. While an announce blink
// is running that is the saved effect, not the frozen one being rendered.
func (r *Record) ActiveEffect() effect.Type {
	if r.Light.Special.Mode == EffectBlinking {
		return r.Light.Special.SavedEffect
	}
	return r.Effect.Type
}

// SelectEffect switches effect immediately, cancelling an announce blink.
func (r *Record) SelectEffect(fx effect.Type, now time.Time) {
	if r.Light.Special.Mode == EffectBlinking {
		r.Light.Special = Special{}
	}
	r.Effect.Select(fx, now)
}

// CycleEffect advances to the next effect and starts announcing it by
// blinking its 1-based index. The rendered colour is frozen at the value
// shown before the switch.
func (r *Record) CycleEffect(now time.Time) effect.Type {
	next := r.ActiveEffect().Next()

	saved := r.Light.Final
	if r.Light.Special.Mode == EffectBlinking {
		saved = r.Light.Special.SavedColor
	}

	r.Light.Special = Special{
		Mode:        EffectBlinking,
		Start:       now,
		SavedColor:  saved,
		SavedEffect: next,
		BlinkCount:  next.Index(),
	}
	r.Effect.Select(effect.None, now)
	return next
}

// BeginResetConfirm enters the reset confirmation overlay.
func (r *Record) BeginResetConfirm(now time.Time) {
	r.restoreBlinkEffect(now)
	r.Light.Special = Special{Mode: ResetBlinking, Start: now}
}

// EndSpecial returns to normal rendering from any overlay.
func (r *Record) EndSpecial(now time.Time) {
	r.restoreBlinkEffect(now)
	r.Light.Special = Special{}
}

func (r *Record) restoreBlinkEffect(now time.Time) {
	if r.Light.Special.Mode == EffectBlinking {
		r.Effect.Select(r.Light.Special.SavedEffect, now)
	}
}

// Snapshot copies the record.
func (r *Record) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		Light:     r.Light,
		Effect:    r.ActiveEffect(),
		EffectAge: now.Sub(r.Effect.Start),
	}
	if r.Effect.Type == effect.AutoCycle {
		s.AutoSub = r.Effect.Auto.Sub
	}
	return s
}
