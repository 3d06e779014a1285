package effect

import "time"

const (
	autoMinHold = 30 * time.Second
	autoMaxHold = 300 * time.Second
	autoBlend   = 2 * time.Second
)

// autoCycle holds one sub-effect for a random window. autoBlend before the
// window ends it freezes the outgoing output, switches to a different
// sub-effect and eases from the frozen colour to the new live output.
func autoCycle(e *Engine, f frame, st *State) Color {
	a := &st.Auto
	if !a.Sub.Valid() || a.Sub == None || a.Sub == AutoCycle {
		a.Sub = e.pickSub(None)
		a.Start = f.now
		a.Duration = e.between(autoMinHold, autoMaxHold)
		a.NeedsReset = true
	}

	if !a.Transitioning && f.now.Sub(a.Start) >= a.Duration-autoBlend {
		a.Snapshot = e.computeAs(a.Sub, rebase(f, a.Start), st)
		a.Sub = e.pickSub(a.Sub)
		a.Transitioning = true
		a.TransitionStart = f.now
		a.NeedsReset = true
	}

	if a.NeedsReset {
		st.resetPrivate()
		a.NeedsReset = false
	}

	if !a.Transitioning {
		return e.computeAs(a.Sub, rebase(f, a.Start), st)
	}

	live := e.computeAs(a.Sub, rebase(f, a.TransitionStart), st)
	p := float64(f.now.Sub(a.TransitionStart)) / float64(autoBlend)
	if p >= 1 {
		a.Transitioning = false
		a.Start = a.TransitionStart
		a.Duration = e.between(autoMinHold, autoMaxHold)
		return live
	}
	return a.Snapshot.Lerp(live, smoothstep(p))
}

// rebase rebases the elapsed time onto the sub-effect's own start.
func rebase(f frame, start time.Time) frame {
	f.elapsed = f.now.Sub(start)
	return f
}

// pickSub returns a random sub-effect different from prev.
func (e *Engine) pickSub(prev Type) Type {
	n := len(e.autoEffects)
	if contains(e.autoEffects, prev) {
		i := e.rng.IntN(n - 1)
		if e.autoEffects[i] == prev {
			return e.autoEffects[n-1]
		}
		return e.autoEffects[i]
	}
	return e.autoEffects[e.rng.IntN(n)]
}
