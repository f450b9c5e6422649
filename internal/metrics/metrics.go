package metrics

import (
	"math"

	"github.com/san-kum/mtsim/internal/muscle"
	"github.com/san-kum/mtsim/internal/sim"
)

// PeakForce tracks the maximum tendon force over a run. State layout is
// [activation, normalized tendon force]; the path supplies the length at
// each observation time.
type PeakForce struct {
	name string
	m    *muscle.Muscle
	path muscle.Path
	peak float64
}

func NewPeakForce(m *muscle.Muscle, path muscle.Path) *PeakForce {
	return &PeakForce{name: "peak_force", m: m, path: path}
}

func (p *PeakForce) Name() string { return p.name }

func (p *PeakForce) Observe(x sim.State, u sim.Control, t float64) {
	if len(x) < 2 {
		return
	}
	p.m.SetActivation(x[0])
	p.m.SetNormTendonForce(x[1])
	force := p.m.Actuation(p.path.Length(t), p.path.Velocity(t))
	p.peak = math.Max(p.peak, force)
}

func (p *PeakForce) Value() float64 { return p.peak }

func (p *PeakForce) Reset() { p.peak = 0 }

// ActivationEffort accumulates the squared-activation integral, a common
// effort proxy in muscle-driven optimal control.
type ActivationEffort struct {
	name   string
	effort float64
	prevT  float64
	first  bool
}

func NewActivationEffort() *ActivationEffort {
	return &ActivationEffort{name: "activation_effort", first: true}
}

func (a *ActivationEffort) Name() string { return a.name }

func (a *ActivationEffort) Observe(x sim.State, u sim.Control, t float64) {
	if len(x) < 1 {
		return
	}
	if a.first {
		a.prevT = t
		a.first = false
		return
	}
	dt := t - a.prevT
	if dt > 0 {
		a.effort += x[0] * x[0] * dt
	}
	a.prevT = t
}

func (a *ActivationEffort) Value() float64 { return a.effort }

func (a *ActivationEffort) Reset() {
	a.effort = 0
	a.prevT = 0
	a.first = true
}

// FiberWork integrates the mechanical power delivered by the fiber.
// Negative values mean the fiber absorbed work over the run.
type FiberWork struct {
	name  string
	m     *muscle.Muscle
	path  muscle.Path
	work  float64
	prevT float64
	first bool
}

func NewFiberWork(m *muscle.Muscle, path muscle.Path) *FiberWork {
	return &FiberWork{name: "fiber_work", m: m, path: path, first: true}
}

func (f *FiberWork) Name() string { return f.name }

func (f *FiberWork) Observe(x sim.State, u sim.Control, t float64) {
	if len(x) < 2 {
		return
	}
	f.m.SetActivation(x[0])
	f.m.SetNormTendonForce(x[1])
	di := f.m.Evaluate(f.path.Length(t), f.path.Velocity(t))

	if f.first {
		f.prevT = t
		f.first = false
		return
	}
	dt := t - f.prevT
	if dt > 0 {
		f.work += (di.FiberActivePower + di.FiberPassivePower) * dt
	}
	f.prevT = t
}

func (f *FiberWork) Value() float64 { return f.work }

func (f *FiberWork) Reset() {
	f.work = 0
	f.prevT = 0
	f.first = true
}
