package excitation

import (
	"math"

	"github.com/san-kum/mtsim/internal/sim"
)

// Controllers here generate open-loop neural excitation signals in [0,1].
// Values are clamped so a badly tuned signal cannot drive activation
// dynamics outside its domain.

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// Constant holds the excitation at a fixed level.
type Constant struct {
	Level float64
}

func NewConstant(level float64) *Constant {
	return &Constant{Level: level}
}

func (c *Constant) Compute(x sim.State, t float64) sim.Control {
	return sim.Control{clamp01(c.Level)}
}

// Step switches from Before to After at time At.
type Step struct {
	Before float64
	After  float64
	At     float64
}

func NewStep(before, after, at float64) *Step {
	return &Step{Before: before, After: after, At: at}
}

func (s *Step) Compute(x sim.State, t float64) sim.Control {
	if t < s.At {
		return sim.Control{clamp01(s.Before)}
	}
	return sim.Control{clamp01(s.After)}
}

// Ramp rises linearly from Start at t=0, saturating at 1.
type Ramp struct {
	Start float64
	Rate  float64
}

func NewRamp(start, rate float64) *Ramp {
	return &Ramp{Start: start, Rate: rate}
}

func (r *Ramp) Compute(x sim.State, t float64) sim.Control {
	return sim.Control{clamp01(r.Start + r.Rate*t)}
}

// Sine oscillates about a baseline. Useful for cyclic contraction
// protocols.
type Sine struct {
	Baseline  float64
	Amplitude float64
	Frequency float64
}

func NewSine(baseline, amplitude, frequency float64) *Sine {
	return &Sine{Baseline: baseline, Amplitude: amplitude, Frequency: frequency}
}

func (s *Sine) Compute(x sim.State, t float64) sim.Control {
	return sim.Control{clamp01(s.Baseline + s.Amplitude*math.Sin(2*math.Pi*s.Frequency*t))}
}
