package light

import (
	"math"
	"time"

	"github.com/nkey/pelarboj/internal/effect"
)

const (
	resetBlinkHz      = 1.0
	resetMinIntensity = 0.3

	// BlinkPeriod is one announce blink; 2 Hz.
	BlinkPeriod = 500 * time.Millisecond
	// minBlinkLevel keeps the announce visible when the light was dimmed out.
	minBlinkLevel = 64.0
)

// overlay replaces the effect output while a special mode is active and
// reports whether it did so.
func (r *Record) overlay(c effect.Color, now time.Time) (effect.Color, bool) {
	sp := &r.Light.Special
	switch sp.Mode {
	case ResetBlinking:
		t := now.Sub(sp.Start).Seconds()
		wave := 0.5 + 0.5*math.Sin(2*math.Pi*resetBlinkHz*t)
		intensity := resetMinIntensity + (1-resetMinIntensity)*wave
		return effect.Color{R: 255, Level: 255 * intensity}, true

	case EffectBlinking:
		elapsed := now.Sub(sp.Start)
		if int(elapsed/BlinkPeriod) >= sp.BlinkCount {
			r.Effect.Select(sp.SavedEffect, now)
			*sp = Special{}
			return r.engine.Compute(r.Light.Base, now, &r.Effect), false
		}
		frac := float64(elapsed%BlinkPeriod) / float64(BlinkPeriod)
		peak := math.Max(sp.SavedColor.Level, minBlinkLevel)
		out := sp.SavedColor
		out.Level = peak * (0.5 - 0.5*math.Cos(2*math.Pi*frac))
		return out.Clamp(), true
	}
	return c, false
}
