package light

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/nkey/pelarboj/internal/effect"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const frameStep = 20 * time.Millisecond

func newTestRecord(target Target, fx effect.Type) *Record {
	e := effect.NewEngine(rand.New(rand.NewPCG(7, 11)))
	return NewRecord(e, target, fx, epoch)
}

func TestInterpolateGeometricConvergence(t *testing.T) {
	targets := []Target{
		{On: true, R: 255, G: 0, B: 128, Level: 200},
		{On: false, R: 0, G: 255, B: 1, Level: 0},
	}
	starts := []effect.Color{
		{},
		{R: 255, G: 255, B: 255, Level: 255},
		{R: 17, G: 200, B: 90, Level: 3},
	}

	for _, tg := range targets {
		for _, b0 := range starts {
			r := newTestRecord(tg, effect.None)
			r.Light.Base = b0
			want := tg.Color()

			for n := 1; n <= 200; n++ {
				r.Interpolate()
				factor := math.Pow(1-ChaseGain, float64(n))
				check := func(name string, got, start, target float64) {
					expected := math.Abs(start-target) * factor
					gap := math.Abs(got - target)
					if math.Abs(gap-expected) > 1e-9 {
						t.Fatalf("%s after %d ticks: gap %v, want %v", name, n, gap, expected)
					}
					if (start <= target && got > target) || (start >= target && got < target) {
						t.Fatalf("%s overshot target %v: %v", name, target, got)
					}
				}
				check("R", r.Light.Base.R, b0.R, want.R)
				check("G", r.Light.Base.G, b0.G, want.G)
				check("B", r.Light.Base.B, b0.B, want.B)
				check("Level", r.Light.Base.Level, b0.Level, want.Level)
			}
			if r.Light.BaseOn != tg.On {
				t.Errorf("BaseOn: got %v, want %v (copied without smoothing)", r.Light.BaseOn, tg.On)
			}
		}
	}
}

func TestBaseOnFollowsTargetImmediately(t *testing.T) {
	r := newTestRecord(Target{On: false, Level: 255}, effect.None)
	r.Step(epoch)
	if r.Light.BaseOn {
		t.Fatal("expected off")
	}
	r.Toggle()
	f := r.Step(epoch.Add(frameStep))
	if !r.Light.BaseOn || !f.On {
		t.Error("expected on/off to take effect on the next tick")
	}
}

func TestToggle(t *testing.T) {
	r := newTestRecord(Target{On: true, R: 1, G: 2, B: 3, Level: 4}, effect.None)
	got := r.Toggle()
	if got.On {
		t.Error("expected toggle to switch off")
	}
	if got.R != 1 || got.G != 2 || got.B != 3 || got.Level != 4 {
		t.Errorf("toggle must not alter colour: %+v", got)
	}
	if !r.Toggle().On {
		t.Error("expected second toggle to switch back on")
	}
}

func TestStepRendersEffectFromBase(t *testing.T) {
	r := newTestRecord(Target{On: true, R: 200, G: 100, B: 50, Level: 255}, effect.None)
	f := r.Step(epoch)
	if f.Color != r.Light.Base {
		t.Errorf("NONE should pass the base through: %+v vs %+v", f.Color, r.Light.Base)
	}
	if r.Light.Final != f.Color {
		t.Error("expected Final to hold the rendered colour")
	}
	if f.Forced {
		t.Error("no overlay active")
	}
}

func TestCycleEffectAnnounces(t *testing.T) {
	r := newTestRecord(Target{On: true, R: 200, G: 100, B: 50, Level: 255}, effect.ColorWander)
	for i := 0; i < 100; i++ {
		r.Step(epoch.Add(time.Duration(i) * frameStep))
	}
	before := r.Light.Final

	now := epoch.Add(2 * time.Second)
	next := r.CycleEffect(now)
	if next != effect.LevelPulse {
		t.Fatalf("expected LEVEL_PULSE after COLOR_WANDER, got %v", next)
	}

	sp := r.Light.Special
	if sp.Mode != EffectBlinking {
		t.Fatalf("mode: got %v", sp.Mode)
	}
	if sp.BlinkCount != 3 {
		t.Errorf("blink count: got %d, want 3", sp.BlinkCount)
	}
	if sp.SavedColor != before {
		t.Errorf("saved colour: got %+v, want %+v", sp.SavedColor, before)
	}
	if sp.SavedEffect != effect.LevelPulse {
		t.Errorf("saved effect: got %v", sp.SavedEffect)
	}
	if r.ActiveEffect() != effect.LevelPulse {
		t.Errorf("active effect: got %v", r.ActiveEffect())
	}
}

func TestEffectBlinkingExit(t *testing.T) {
	for _, fx := range []effect.Type{effect.AutoCycle, effect.None, effect.Fireplace} {
		t.Run(fx.String(), func(t *testing.T) {
			r := newTestRecord(Target{On: true, R: 10, G: 200, B: 30, Level: 180}, fx)
			r.Step(epoch)

			start := epoch.Add(time.Second)
			next := r.CycleEffect(start)
			n := next.Index()

			for i := 0; ; i++ {
				now := start.Add(time.Duration(i) * frameStep)
				elapsed := now.Sub(start)
				f := r.Step(now)

				expectDone := int(elapsed/BlinkPeriod) >= n
				if expectDone {
					if r.Light.Special.Mode != Normal {
						t.Fatalf("still blinking at %v with N=%d", elapsed, n)
					}
					if f.Forced {
						t.Fatal("exit frame must not be forced")
					}
					if r.Effect.Type != next {
						t.Fatalf("restored %v, want %v", r.Effect.Type, next)
					}
					if !r.Effect.Start.Equal(now) {
						t.Errorf("restored effect should start fresh at %v, got %v", now, r.Effect.Start)
					}
					return
				}

				if r.Light.Special.Mode != EffectBlinking || !f.Forced {
					t.Fatalf("blink ended early at %v with N=%d", elapsed, n)
				}
				if f.Color.R != r.Light.Special.SavedColor.R || f.Color.G != r.Light.Special.SavedColor.G {
					t.Fatalf("colour must stay frozen during blink")
				}
			}
		})
	}
}

func TestEffectBlinkingExitFrameRendersRestoredEffect(t *testing.T) {
	// Dark target: the raw base is level 0, SCENE_CHANGE floors it at 50.
	r := newTestRecord(Target{On: true, R: 100, G: 100, B: 100, Level: 0}, effect.Combo)
	r.Step(epoch)

	start := epoch.Add(time.Second)
	next := r.CycleEffect(start)
	if next != effect.SceneChange {
		t.Fatalf("next effect: got %v, want SCENE_CHANGE", next)
	}

	for i := 0; i < 1000; i++ {
		now := start.Add(time.Duration(i) * frameStep)
		f := r.Step(now)
		if r.Light.Special.Mode != Normal {
			continue
		}
		if f.Color.Level < 50 {
			t.Errorf("exit frame should come from SCENE_CHANGE, level %v below its floor", f.Color.Level)
		}
		if r.Light.Final != f.Color {
			t.Errorf("final %+v should match the exit frame %+v", r.Light.Final, f.Color)
		}
		return
	}
	t.Fatal("blink never ended")
}

func TestEffectBlinkingPulses(t *testing.T) {
	r := newTestRecord(Target{On: true, R: 255, Level: 200}, effect.None)
	r.Light.Final = effect.Color{R: 255, Level: 200}
	start := epoch
	r.CycleEffect(start) // -> COLOR_WANDER, 2 blinks

	dark := r.Step(start).Color.Level
	bright := r.Step(start.Add(BlinkPeriod / 2)).Color.Level
	if dark > 1e-9 {
		t.Errorf("each blink should start dark, got %v", dark)
	}
	if math.Abs(bright-200) > 1e-9 {
		t.Errorf("blink peak: got %v, want saved level 200", bright)
	}
}

func TestEffectBlinkingVisibleWhenDimmed(t *testing.T) {
	r := newTestRecord(Target{On: true, R: 255, Level: 0}, effect.None)
	r.Light.Final = effect.Color{R: 255, Level: 0}
	r.CycleEffect(epoch)

	f := r.Step(epoch.Add(BlinkPeriod / 2))
	if f.Color.Level < minBlinkLevel-1e-9 {
		t.Errorf("blink invisible at level %v", f.Color.Level)
	}
}

func TestCycleEffectWhileBlinking(t *testing.T) {
	r := newTestRecord(Target{On: true, Level: 255}, effect.None)
	r.Light.Final = effect.Color{R: 9, Level: 99}
	r.CycleEffect(epoch)
	r.Step(epoch.Add(frameStep))

	next := r.CycleEffect(epoch.Add(100 * time.Millisecond))
	if next != effect.LevelPulse {
		t.Errorf("expected to advance from the announced effect, got %v", next)
	}
	if r.Light.Special.SavedColor != (effect.Color{R: 9, Level: 99}) {
		t.Errorf("expected pre-switch colour to be kept, got %+v", r.Light.Special.SavedColor)
	}
	if r.Light.Special.BlinkCount != 3 {
		t.Errorf("blink count: got %d", r.Light.Special.BlinkCount)
	}
}

func TestSpecialModesBypassOnOffGate(t *testing.T) {
	r := newTestRecord(Target{On: false, R: 100, G: 100, B: 100, Level: 100}, effect.None)
	if f := r.Step(epoch); f.Visible() {
		t.Fatal("light is off and no overlay is active")
	}

	r.BeginResetConfirm(epoch)
	if f := r.Step(epoch.Add(frameStep)); !f.Visible() || !f.Forced {
		t.Error("reset blinking must be visible while off")
	}

	r.EndSpecial(epoch)
	r.CycleEffect(epoch)
	if f := r.Step(epoch.Add(frameStep)); !f.Visible() {
		t.Error("effect blinking must be visible while off")
	}
}

func TestResetBlinking(t *testing.T) {
	r := newTestRecord(Target{On: true, R: 0, G: 255, B: 0, Level: 255}, effect.Rainbow)
	r.BeginResetConfirm(epoch)

	lo, hi := 255.0, 0.0
	for i := 0; i < 100; i++ { // 2 s
		f := r.Step(epoch.Add(time.Duration(i) * frameStep))
		if f.Color.R != 255 || f.Color.G != 0 || f.Color.B != 0 {
			t.Fatalf("frame %d: expected pure red, got %+v", i, f.Color)
		}
		lo = math.Min(lo, f.Color.Level)
		hi = math.Max(hi, f.Color.Level)
	}
	if lo < 255*resetMinIntensity-1e-9 || hi > 255 {
		t.Errorf("intensity range [%v, %v] outside 30-100%%", lo, hi)
	}
	if lo > 255*0.35 || hi < 255*0.95 {
		t.Errorf("expected a full 1 Hz pulse in 2 s, got [%v, %v]", lo, hi)
	}

	r.EndSpecial(epoch.Add(2 * time.Second))
	if r.Light.Special.Mode != Normal {
		t.Error("expected NORMAL after EndSpecial")
	}
	if r.Effect.Type != effect.Rainbow {
		t.Errorf("reset confirmation must not change the effect, got %v", r.Effect.Type)
	}
}

func TestResetConfirmDuringBlinkRestoresEffect(t *testing.T) {
	r := newTestRecord(Target{On: true, Level: 255}, effect.None)
	r.CycleEffect(epoch)
	r.BeginResetConfirm(epoch.Add(frameStep))
	if r.Effect.Type != effect.ColorWander {
		t.Errorf("expected announced effect to be applied, got %v", r.Effect.Type)
	}
}

func TestSelectEffectCancelsBlink(t *testing.T) {
	r := newTestRecord(Target{On: true, Level: 255}, effect.None)
	r.CycleEffect(epoch)
	r.SelectEffect(effect.Breathing, epoch.Add(frameStep))
	if r.Light.Special.Mode != Normal || r.Effect.Type != effect.Breathing {
		t.Errorf("got mode %v effect %v", r.Light.Special.Mode, r.Effect.Type)
	}
}

func TestOutputBoundsWithOverlays(t *testing.T) {
	targets := []Target{
		{On: true},
		{On: true, R: 255, G: 255, B: 255, Level: 255},
		{On: false, R: 255, Level: 0},
	}
	for i := 0; i < effect.Count; i++ {
		fx := effect.Type(i)
		for _, tg := range targets {
			r := newTestRecord(tg, fx)
			for n := 0; n < 1500; n++ {
				now := epoch.Add(time.Duration(n) * frameStep)
				switch n {
				case 300:
					r.CycleEffect(now)
				case 900:
					r.BeginResetConfirm(now)
				case 1200:
					r.EndSpecial(now)
				}
				c := r.Step(now).Color
				for _, v := range []float64{c.R, c.G, c.B, c.Level} {
					if v < 0 || v > 255 {
						t.Fatalf("%v target %+v frame %d: %+v out of range", fx, tg, n, c)
					}
				}
			}
		}
	}
}

func TestSnapshot(t *testing.T) {
	r := newTestRecord(Target{On: true, Level: 255}, effect.AutoCycle)
	r.Step(epoch)
	s := r.Snapshot(epoch.Add(time.Second))
	if s.Effect != effect.AutoCycle {
		t.Errorf("effect: got %v", s.Effect)
	}
	if s.AutoSub == effect.None {
		t.Error("expected the running sub-effect")
	}
	if s.EffectAge != time.Second {
		t.Errorf("age: got %v", s.EffectAge)
	}

	r.Light.Target.R = 42
	if s.Light.Target.R == 42 {
		t.Error("snapshot must be a copy")
	}
}
