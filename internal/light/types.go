// Package light holds the shared light record: the commanded target, the
// smoothed base, the rendered final values, the special-mode overlay and the
// active effect. A Record is not safe for concurrent use on its own; the
// controller wraps it in a guard.
package light

import (
	"time"

	"github.com/nkey/pelarboj/internal/effect"
)

// Mode is the special-mode overlay state.
type Mode int

const (
	Normal Mode = iota
	ResetBlinking
	EffectBlinking
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "NORMAL"
	case ResetBlinking:
		return "RESET_BLINKING"
	case EffectBlinking:
		return "EFFECT_BLINKING"
	}
	return "UNKNOWN"
}

// Target is the last commanded state.
type Target struct {
	On    bool
	R     uint8
	G     uint8
	B     uint8
	Level uint8
}

// Color returns the target as a floating point colour.
func (t Target) Color() effect.Color {
	return effect.Color{
		R:     float64(t.R),
		G:     float64(t.G),
		B:     float64(t.B),
		Level: float64(t.Level),
	}
}

// Special is the overlay state. Start is when the mode was entered; the
// saved fields are only meaningful for EffectBlinking.
type Special struct {
	Mode        Mode
	Start       time.Time
	SavedColor  effect.Color
	SavedEffect effect.Type
	BlinkCount  int
}

// LightState is the commanded and rendered light.
type LightState struct {
	Target  Target
	BaseOn  bool
	Base    effect.Color
	Final   effect.Color
	Special Special
}

// Frame is what one render step hands to the output stage.
type Frame struct {
	Color effect.Color
	On    bool
	// Forced is set while an overlay is showing; it bypasses the on/off gate.
	Forced bool
}

// Visible reports whether the frame should reach the hardware.
func (f Frame) Visible() bool {
	return f.On || f.Forced
}

// Snapshot is a copy of the record for status consumers.
type Snapshot struct {
	Light     LightState
	Effect    effect.Type
	AutoSub   effect.Type
	EffectAge time.Duration
}
