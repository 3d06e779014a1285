package effect

import (
	"math"
	"testing"
	"time"
)

func TestPickSubNeverRepeats(t *testing.T) {
	e := newTestEngine()
	prev := e.pickSub(None)
	seen := map[Type]bool{prev: true}
	for i := 0; i < 2000; i++ {
		next := e.pickSub(prev)
		if next == prev {
			t.Fatalf("iteration %d: picked %v twice in a row", i, next)
		}
		if next == None || next == AutoCycle {
			t.Fatalf("iteration %d: picked non-candidate %v", i, next)
		}
		seen[next] = true
		prev = next
	}
	if len(seen) != Count-2 {
		t.Errorf("expected every candidate to be picked, saw %d", len(seen))
	}
}

func TestWithAutoCycleEffects(t *testing.T) {
	e := newTestEngine(WithAutoCycleEffects(Breathing, None, AutoCycle, Type(42), Rainbow, Breathing))
	if len(e.autoEffects) != 2 || e.autoEffects[0] != Breathing || e.autoEffects[1] != Rainbow {
		t.Errorf("unexpected pool %v", e.autoEffects)
	}

	// A pool of one cannot satisfy "always different"; the default is kept.
	e = newTestEngine(WithAutoCycleEffects(Fireplace))
	if len(e.autoEffects) != Count-2 {
		t.Errorf("expected default pool, got %v", e.autoEffects)
	}
}

func TestAutoCycleConsecutiveSubsDiffer(t *testing.T) {
	e := newTestEngine()
	base := Color{R: 120, G: 90, B: 60, Level: 200}
	st := NewState(AutoCycle, epoch)

	step := 100 * time.Millisecond
	var subs []Type
	for i := 0; i < 10*60*60; i++ { // one simulated hour
		e.Compute(base, epoch.Add(time.Duration(i)*step), &st)
		if len(subs) == 0 || subs[len(subs)-1] != st.Auto.Sub {
			subs = append(subs, st.Auto.Sub)
		}
	}

	if len(subs) < 12 {
		t.Fatalf("expected at least a dozen sub-effects in an hour, got %d", len(subs))
	}
	for i := 1; i < len(subs); i++ {
		if subs[i] == subs[i-1] {
			t.Errorf("sub-effect %d repeated %v", i, subs[i])
		}
	}
	if st.Type != AutoCycle {
		t.Errorf("delegation must not change the outer type, got %v", st.Type)
	}
}

func TestAutoCycleWindow(t *testing.T) {
	e := newTestEngine()
	base := Color{R: 120, G: 90, B: 60, Level: 200}
	st := NewState(AutoCycle, epoch)
	e.Compute(base, epoch, &st)

	a := st.Auto
	if a.Duration < autoMinHold || a.Duration > autoMaxHold {
		t.Fatalf("duration %v outside [30s, 300s]", a.Duration)
	}

	// Just before the blend point nothing changes.
	e.Compute(base, epoch.Add(a.Duration-autoBlend-frameStep), &st)
	if st.Auto.Transitioning || st.Auto.Sub != a.Sub {
		t.Fatal("switched before the blend window")
	}

	e.Compute(base, epoch.Add(a.Duration-autoBlend), &st)
	if !st.Auto.Transitioning {
		t.Fatal("expected blend to start autoBlend before expiry")
	}
	if st.Auto.Sub == a.Sub {
		t.Fatal("expected a different sub-effect")
	}

	end := st.Auto.TransitionStart.Add(autoBlend)
	e.Compute(base, end, &st)
	if st.Auto.Transitioning {
		t.Fatal("expected blend to finish after autoBlend")
	}
	if !st.Auto.Start.Equal(end.Add(-autoBlend)) {
		t.Errorf("new window start: got %v", st.Auto.Start)
	}
	if st.Auto.Duration < autoMinHold || st.Auto.Duration > autoMaxHold {
		t.Errorf("fresh duration %v outside range", st.Auto.Duration)
	}
}

func TestAutoCycleResetsPrivateState(t *testing.T) {
	e := newTestEngine(WithAutoCycleEffects(SceneChange, Breathing))
	base := Color{R: 120, G: 90, B: 60, Level: 200}
	st := NewState(AutoCycle, epoch)
	st.Auto = AutoCycleState{Sub: SceneChange, Start: epoch, Duration: 30 * time.Second}

	now := epoch
	for ; now.Before(epoch.Add(28*time.Second - frameStep)); now = now.Add(frameStep) {
		e.Compute(base, now, &st)
	}
	if st.Scene.ChangeTime.IsZero() {
		t.Fatal("expected scene sub-state to be in use")
	}

	e.Compute(base, epoch.Add(28*time.Second), &st)
	if st.Auto.Sub != Breathing {
		t.Fatalf("expected switch to Breathing, got %v", st.Auto.Sub)
	}
	if st.Scene != (SceneState{}) {
		t.Errorf("scene sub-state leaked into the next effect: %+v", st.Scene)
	}
	if st.Phase[0] != breathSpeed || st.Phase[1] != 0 || st.Phase[2] != 0 {
		t.Errorf("expected fresh phases after one Breathing frame, got %v", st.Phase)
	}
}

func maxJump(a, b Color) float64 {
	return math.Max(
		math.Max(math.Abs(a.R-b.R), math.Abs(a.G-b.G)),
		math.Max(math.Abs(a.B-b.B), math.Abs(a.Level-b.Level)),
	)
}

func TestAutoCycleBlendIsContinuous(t *testing.T) {
	// Only smoothly varying sub-effects, so any jump comes from the blend.
	e := newTestEngine(WithAutoCycleEffects(Breathing, ColorWander, LevelPulse))
	base := Color{R: 120, G: 90, B: 60, Level: 200}
	st := NewState(AutoCycle, epoch)
	st.Auto = AutoCycleState{Sub: Breathing, Start: epoch, Duration: 30 * time.Second}

	const epsilon = 5.0

	var prev Color
	var blendStart, blendEnd int
	for i := 0; i < 40*50; i++ { // 40 s
		wasBlending := st.Auto.Transitioning
		c := e.Compute(base, epoch.Add(time.Duration(i)*frameStep), &st)

		if !wasBlending && st.Auto.Transitioning {
			blendStart = i
			if c != st.Auto.Snapshot {
				t.Errorf("blend must start at the snapshot: %+v vs %+v", c, st.Auto.Snapshot)
			}
		}
		if wasBlending && !st.Auto.Transitioning {
			blendEnd = i
		}
		if i > 0 && maxJump(prev, c) > epsilon {
			t.Fatalf("frame %d: jump of %v", i, maxJump(prev, c))
		}
		prev = c
	}

	if blendStart == 0 || blendEnd == 0 {
		t.Fatalf("expected a complete blend, start=%d end=%d", blendStart, blendEnd)
	}
	if got := blendEnd - blendStart; got != int(autoBlend/frameStep) {
		t.Errorf("blend lasted %d frames, want %d", got, int(autoBlend/frameStep))
	}
}
