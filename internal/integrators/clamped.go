package integrators

import (
	"math"

	"github.com/san-kum/mtsim/internal/sim"
)

// Bounds clamps one state dimension after each step. Muscle states live in
// hard ranges (activation in [0,1], normalized tendon force in [0,5]) and
// an integrator overshoot must not leave them.
type Bounds struct {
	Lo, Hi float64
}

// Clamped wraps an integrator and clamps each state dimension to its
// bounds after every step. Dimensions without bounds pass through.
type Clamped struct {
	inner  sim.Integrator
	bounds []Bounds
}

func NewClamped(inner sim.Integrator, bounds []Bounds) *Clamped {
	return &Clamped{inner: inner, bounds: bounds}
}

// MuscleBounds are the state bounds for [activation, norm tendon force].
func MuscleBounds() []Bounds {
	return []Bounds{{Lo: 0, Hi: 1}, {Lo: 0, Hi: 5}}
}

func (c *Clamped) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t, dt float64) sim.State {
	next := c.inner.Step(dyn, x, u, t, dt)
	for i := range next {
		if i >= len(c.bounds) {
			break
		}
		next[i] = math.Min(math.Max(next[i], c.bounds[i].Lo), c.bounds[i].Hi)
	}
	return next
}
