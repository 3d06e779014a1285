package effect

import (
	"math/rand/v2"
	"time"
)

// frame carries the inputs of one effect evaluation.
type frame struct {
	base    Color
	now     time.Time
	elapsed time.Duration
}

type computeFunc func(e *Engine, f frame, st *State) Color

// variants is the dispatch table, indexed by Type. It is filled in init
// because autoCycle delegates back into it.
var variants [Count]computeFunc

func init() {
	variants = [Count]computeFunc{
		None:              passthrough,
		ColorWander:       colorWander,
		LevelPulse:        levelPulse,
		Combo:             combo,
		SceneChange:       sceneChange,
		Fireplace:         fireplace,
		Rainbow:           rainbow,
		ColorSteps:        colorSteps,
		BrokenElectricity: brokenElectricity,
		Breathing:         breathing,
		AutoCycle:         autoCycle,
	}
}

// Engine evaluates effects. It is not safe for concurrent use; callers
// serialise access together with the State it is applied to.
type Engine struct {
	rng         *rand.Rand
	autoEffects []Type
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoCycleEffects restricts the sub-effects AutoCycle may choose from.
// At least two valid effects are required; None and AutoCycle are ignored.
func WithAutoCycleEffects(types ...Type) Option {
	return func(e *Engine) {
		var pool []Type
		for _, t := range types {
			if t.Valid() && t != None && t != AutoCycle && !contains(pool, t) {
				pool = append(pool, t)
			}
		}
		if len(pool) >= 2 {
			e.autoEffects = pool
		}
	}
}

// NewEngine returns an Engine drawing randomness from rng. A nil rng is
// replaced by a time-seeded source.
func NewEngine(rng *rand.Rand, opts ...Option) *Engine {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}
	e := &Engine{rng: rng}
	for t := ColorWander; t < AutoCycle; t++ {
		e.autoEffects = append(e.autoEffects, t)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns the final colour for the effect held in st, given the
// current base colour. It advances the effect's private state and always
// returns a clamped colour.
func (e *Engine) Compute(base Color, now time.Time, st *State) Color {
	f := frame{base: base, now: now, elapsed: now.Sub(st.Start)}
	return e.computeAs(st.Type, f, st)
}

// computeAs evaluates variant t against st. AutoCycle uses it to delegate to
// its sub-effect without touching st.Type.
func (e *Engine) computeAs(t Type, f frame, st *State) Color {
	if !t.Valid() {
		return f.base.Clamp()
	}
	return variants[t](e, f, st).Clamp()
}

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// between returns a random duration in [lo, hi].
func (e *Engine) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(e.rng.Int64N(int64(hi-lo)+1))
}

func contains(ts []Type, t Type) bool {
	for _, v := range ts {
		if v == t {
			return true
		}
	}
	return false
}

func passthrough(_ *Engine, f frame, _ *State) Color {
	return f.base
}
