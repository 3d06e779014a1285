package effect

import (
	"math"
	"time"

	"github.com/nkey/pelarboj/internal/colorwheel"
)

const twoPi = 2 * math.Pi

// Phase increments are per frame at the nominal 50 Hz frame rate.
const (
	wanderSpeed     = 0.02
	wanderAmplitude = 25.0

	pulseSpeed = 0.04
	pulseRange = 0.3

	comboPulseHz    = 0.2
	comboPulseRange = 0.2

	sceneStep       = 50.0
	sceneLevelFloor = 50.0
	sceneChaseGain  = 0.1
	sceneMinFade    = 1 * time.Second
	sceneMaxFade    = 2 * time.Second
	sceneMinHold    = 5 * time.Second
	sceneMaxHold    = 10 * time.Second

	fireplaceFloor = 0.7

	rainbowSpeed  = 0.01
	rainbowSwing  = 120.0
	rainbowWeight = 0.08

	stepsCadence = time.Second
	stepsRange   = 30.0

	outageMinDwell   = 5 * time.Second
	outageMaxDwell   = 20 * time.Second
	blackoutChance   = 0.05
	blackoutDuration = 150 * time.Millisecond
	surgeChance      = 0.10
	surgeGain        = 1.6
	surgeDuration    = 100 * time.Millisecond
	flickerMinLevel  = 0.4
	flickerMaxLevel  = 1.0
	flickerMinTime   = 50 * time.Millisecond
	flickerMaxTime   = 150 * time.Millisecond

	breathSpeed    = twoPi / (5 * 50) // one breath every 5 s
	breathMinLevel = 0.2
	breathWarmth   = 5.0
)

// advance adds delta to phase i and keeps it within one turn.
func (s *State) advance(i int, delta float64) float64 {
	s.Phase[i] = math.Mod(s.Phase[i]+delta, twoPi)
	return s.Phase[i]
}

func colorWander(_ *Engine, f frame, st *State) Color {
	p0 := st.advance(0, wanderSpeed*1.0)
	p1 := st.advance(1, wanderSpeed*1.3)
	p2 := st.advance(2, wanderSpeed*0.7)
	return Color{
		R:     f.base.R + math.Sin(p0)*wanderAmplitude,
		G:     f.base.G + math.Sin(p1)*wanderAmplitude,
		B:     f.base.B + math.Sin(p2)*wanderAmplitude,
		Level: f.base.Level,
	}
}

func levelPulse(_ *Engine, f frame, st *State) Color {
	p := st.advance(0, pulseSpeed)
	out := f.base
	out.Level = f.base.Level * (1 + math.Sin(p)*pulseRange)
	return out
}

// combo drives its level term from wall-clock elapsed time so it does not
// lock step with the wander phases.
func combo(e *Engine, f frame, st *State) Color {
	out := colorWander(e, f, st)
	t := f.elapsed.Seconds()
	out.Level = f.base.Level * (1 + math.Sin(twoPi*comboPulseHz*t)*comboPulseRange)
	return out
}

// sceneChange alternates between a smoothstep-weighted chase towards a
// random nearby colour and a hold at whatever value the chase reached.
// The chase is scaled by sceneChaseGain per frame, so it usually stops short
// of the target when the nominal transition time runs out.
func sceneChange(e *Engine, f frame, st *State) Color {
	sc := &st.Scene
	if sc.ChangeTime.IsZero() {
		sc.Current = f.base
		e.rollScene(f, sc)
	}

	if sc.Transitioning {
		span := sc.TransitionEnd.Sub(sc.ChangeTime)
		p := float64(f.now.Sub(sc.ChangeTime)) / float64(span)
		sc.Current = sc.Current.Lerp(sc.Target, smoothstep(p)*sceneChaseGain)
		if !f.now.Before(sc.TransitionEnd) {
			sc.Transitioning = false
			sc.HoldUntil = f.now.Add(e.between(sceneMinHold, sceneMaxHold))
		}
	} else if !f.now.Before(sc.HoldUntil) {
		e.rollScene(f, sc)
	}

	out := sc.Current
	out.Level = math.Max(out.Level, sceneLevelFloor)
	return out
}

func (e *Engine) rollScene(f frame, sc *SceneState) {
	sc.Target = Color{
		R:     clamp(f.base.R+e.uniform(-sceneStep, sceneStep), 0, 255),
		G:     clamp(f.base.G+e.uniform(-sceneStep, sceneStep), 0, 255),
		B:     clamp(f.base.B+e.uniform(-sceneStep, sceneStep), 0, 255),
		Level: clamp(f.base.Level+e.uniform(-sceneStep, sceneStep), sceneLevelFloor, 255),
	}
	sc.ChangeTime = f.now
	sc.TransitionEnd = f.now.Add(e.between(sceneMinFade, sceneMaxFade))
	sc.Transitioning = true
}

func fireplace(e *Engine, f frame, st *State) Color {
	p0 := st.advance(0, 0.11*e.uniform(0.8, 1.2))
	p1 := st.advance(1, 0.23*e.uniform(0.8, 1.2))
	p2 := st.advance(2, 0.057*e.uniform(0.8, 1.2))

	// flicker stays within [-1, 1]
	flicker := 0.5*math.Sin(p0) + 0.3*math.Sin(p1) + 0.2*math.Sin(p2)
	intensity := 0.85 + 0.15*flicker

	return Color{
		R:     f.base.R*1.15 + 20,
		G:     f.base.G*0.8 + 12*flicker,
		B:     f.base.B * 0.5,
		Level: math.Max(f.base.Level*intensity, f.base.Level*fireplaceFloor),
	}
}

func rainbow(_ *Engine, f frame, st *State) Color {
	p := st.advance(0, rainbowSpeed)
	hue := math.Mod(dominantHue(f.base)+math.Sin(p)*rainbowSwing+360, 360)

	wheel := uint8(math.Min(hue/360*256, 255))
	r, g, b := colorwheel.HueToRGB(wheel, 255)
	spin := Color{R: float64(r), G: float64(g), B: float64(b), Level: f.base.Level}

	return f.base.Lerp(spin, rainbowWeight)
}

// dominantHue approximates the hue of c in degrees. Greys report 0.
func dominantHue(c Color) float64 {
	hi := math.Max(c.R, math.Max(c.G, c.B))
	lo := math.Min(c.R, math.Min(c.G, c.B))
	d := hi - lo
	if d <= 0 {
		return 0
	}

	var h float64
	switch hi {
	case c.R:
		h = 60 * ((c.G - c.B) / d)
	case c.G:
		h = 60 * ((c.B-c.R)/d + 2)
	default:
		h = 60 * ((c.R-c.G)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h
}

// colorSteps jumps to a fresh random offset from base once per cadence and
// holds it verbatim until the next boundary.
func colorSteps(e *Engine, f frame, st *State) Color {
	sc := &st.Scene
	switch {
	case sc.ChangeTime.IsZero():
		sc.ChangeTime = f.now
		e.rollStep(f, sc)
	case f.now.Sub(sc.ChangeTime) >= stepsCadence:
		sc.ChangeTime = sc.ChangeTime.Add(f.now.Sub(sc.ChangeTime).Truncate(stepsCadence))
		e.rollStep(f, sc)
	}

	out := sc.Current
	out.Level = f.base.Level
	return out
}

func (e *Engine) rollStep(f frame, sc *SceneState) {
	sc.Current = Color{
		R: clamp(f.base.R+e.uniform(-stepsRange, stepsRange), 0, 255),
		G: clamp(f.base.G+e.uniform(-stepsRange, stepsRange), 0, 255),
		B: clamp(f.base.B+e.uniform(-stepsRange, stepsRange), 0, 255),
	}
}

// brokenElectricity is a two-state process. While stable the base colour is
// shown. When the dwell expires one outage event is rolled; Target.Level
// holds the event's brightness multiplier until TransitionEnd.
func brokenElectricity(e *Engine, f frame, st *State) Color {
	sc := &st.Scene
	if sc.HoldUntil.IsZero() && !sc.Transitioning {
		sc.HoldUntil = f.now.Add(e.between(outageMinDwell, outageMaxDwell))
	}

	if sc.Transitioning {
		if !f.now.Before(sc.TransitionEnd) {
			sc.Transitioning = false
			sc.HoldUntil = f.now.Add(e.between(outageMinDwell, outageMaxDwell))
		}
	} else if !f.now.Before(sc.HoldUntil) {
		e.rollOutage(f.now, sc)
	}

	out := f.base
	if sc.Transitioning {
		out.Level = f.base.Level * sc.Target.Level
	}
	return out
}

func (e *Engine) rollOutage(now time.Time, sc *SceneState) {
	var gain float64
	var length time.Duration

	roll := e.rng.Float64()
	switch {
	case roll < blackoutChance:
		gain, length = 0, blackoutDuration
	case roll < blackoutChance+surgeChance:
		gain, length = surgeGain, surgeDuration
	default:
		gain = e.uniform(flickerMinLevel, flickerMaxLevel)
		length = e.between(flickerMinTime, flickerMaxTime)
	}

	sc.Target = Color{Level: gain}
	sc.ChangeTime = now
	sc.TransitionEnd = now.Add(length)
	sc.Transitioning = true
}

func breathing(_ *Engine, f frame, st *State) Color {
	wave := math.Sin(st.advance(0, breathSpeed))
	osc := (wave + 1) / 2
	shift := wave * breathWarmth

	return Color{
		R:     f.base.R + shift,
		G:     f.base.G + shift*0.4,
		B:     f.base.B - shift,
		Level: f.base.Level * (breathMinLevel + (1-breathMinLevel)*osc),
	}
}
