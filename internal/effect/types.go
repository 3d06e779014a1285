// Package effect computes the procedural lighting effects layered on top of
// the smoothed base colour.
//
// The package has no hardware or network dependencies. Time and randomness
// are always injected so every effect can be replayed deterministically.
package effect

import (
	"strings"
	"time"
)

// Type identifies the active effect.
type Type int

const (
	None Type = iota
	ColorWander
	LevelPulse
	Combo
	SceneChange
	Fireplace
	Rainbow
	ColorSteps
	BrokenElectricity
	Breathing
	AutoCycle
)

// Count is the number of selectable effects, None included.
const Count = int(AutoCycle) + 1

var typeNames = [Count]string{
	"NONE",
	"COLOR_WANDER",
	"LEVEL_PULSE",
	"COMBO",
	"SCENE_CHANGE",
	"FIREPLACE",
	"RAINBOW",
	"COLOR_STEPS",
	"BROKEN_ELECTRICITY",
	"BREATHING",
	"AUTO_CYCLE",
}

func (t Type) String() string {
	if !t.Valid() {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// Valid reports whether t names a known effect.
func (t Type) Valid() bool {
	return t >= None && int(t) < Count
}

// Next returns the effect following t, wrapping back to None.
func (t Type) Next() Type {
	return Type((int(t) + 1) % Count)
}

// Index returns the 1-based position of t in the cycle order.
// It is the number of blinks used to announce the effect.
func (t Type) Index() int {
	return int(t) + 1
}

// ParseType looks up an effect by name, case-insensitively.
func ParseType(s string) (Type, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return Type(i), true
		}
	}
	return None, false
}

// Color is a floating point RGB triplet plus brightness level, 0-255 each.
type Color struct {
	R     float64
	G     float64
	B     float64
	Level float64
}

// Clamp returns c with every component limited to [0,255].
func (c Color) Clamp() Color {
	return Color{
		R:     clamp(c.R, 0, 255),
		G:     clamp(c.G, 0, 255),
		B:     clamp(c.B, 0, 255),
		Level: clamp(c.Level, 0, 255),
	}
}

// Lerp moves c towards to by fraction w (0 = c, 1 = to).
func (c Color) Lerp(to Color, w float64) Color {
	return Color{
		R:     c.R + (to.R-c.R)*w,
		G:     c.G + (to.G-c.G)*w,
		B:     c.B + (to.B-c.B)*w,
		Level: c.Level + (to.Level-c.Level)*w,
	}
}

// SceneState is the scene sub-state. SceneChange, ColorSteps and
// BrokenElectricity each give the fields their own meaning, so it must be
// cleared whenever the active effect changes.
type SceneState struct {
	Current       Color
	Target        Color
	ChangeTime    time.Time
	HoldUntil     time.Time
	TransitionEnd time.Time
	Transitioning bool
}

// AutoCycleState is only used while Type == AutoCycle.
type AutoCycleState struct {
	Sub             Type
	Duration        time.Duration
	Start           time.Time
	NeedsReset      bool
	Transitioning   bool
	TransitionStart time.Time
	// Snapshot is the last output of the outgoing sub-effect.
	Snapshot Color
}

// State is the active effect and its private animation memory.
type State struct {
	Type  Type
	Start time.Time
	// Phase accumulators; each effect owns their interpretation.
	Phase [3]float64
	Scene SceneState
	Auto  AutoCycleState
}

// NewState returns a State running effect t from now.
func NewState(t Type, now time.Time) State {
	var s State
	s.Select(t, now)
	return s
}

// Select switches to effect t and clears all effect-private state.
func (s *State) Select(t Type, now time.Time) {
	if !t.Valid() {
		t = None
	}
	s.Type = t
	s.Start = now
	s.resetPrivate()
	s.Auto = AutoCycleState{}
}

func (s *State) resetPrivate() {
	s.Phase = [3]float64{}
	s.Scene = SceneState{}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// smoothstep is the cubic ease 3p²−2p³ with p limited to [0,1].
func smoothstep(p float64) float64 {
	p = clamp(p, 0, 1)
	return p * p * (3 - 2*p)
}
