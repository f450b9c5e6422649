package muscle

import (
	"errors"
	"math"

	"github.com/san-kum/mtsim/internal/sim"
)

// Mode misuse: querying the contract that is not valid for the configured
// tendon-compliance dynamics mode.
var (
	ErrImplicitMode = errors.New("muscle: implicit tendon dynamics; the derivative is supplied externally, not computed")
	ErrExplicitMode = errors.New("muscle: explicit tendon dynamics; the derivative is computed, not supplied")
)

// ActivationDerivative is the De Groote et al. 2016 first-order activation
// dynamic: a tanh-blended switch between the activation and deactivation
// time constants, smooth in (excitation - activation). Returns zero when
// activation dynamics are ignored.
func (m *Muscle) ActivationDerivative(excitation, activation float64) float64 {
	if m.params.IgnoreActivationDynamics {
		return 0
	}
	const tanhSteepness = 0.1
	f := 0.5 * math.Tanh(tanhSteepness*(excitation-activation))
	factor := 0.5 + 1.5*activation
	rateAct := 1.0 / (m.params.ActivationTimeConstant * factor)
	rateDeact := factor / m.params.DeactivationTimeConstant
	return (rateAct*(f+0.5) + rateDeact*(0.5-f)) * (excitation - activation)
}

// TendonForceDerivative computes the normalized tendon force state
// derivative for explicit mode: the tendon curve derivative times the
// normalized tendon velocity left over after the fiber velocity is
// resolved from the force-velocity inverse. Zero with a rigid tendon;
// ErrImplicitMode when configured implicit.
func (m *Muscle) TendonForceDerivative(mtLength, mtVelocity float64) (float64, error) {
	if m.params.IgnoreTendonCompliance {
		return 0, nil
	}
	if m.params.Mode != ModeExplicit {
		return 0, ErrImplicitMode
	}
	return m.tendonForceDerivative(m.Activation(), m.normTendonForce, mtLength, mtVelocity), nil
}

func (m *Muscle) tendonForceDerivative(activation, normTendonForce, mtLength, mtVelocity float64) float64 {
	li := m.CalcLengthInfo(mtLength, normTendonForce)
	vi := m.CalcVelocityInfo(mtVelocity, activation, li, normTendonForce, 0)
	return m.tendonFL.Derivative(li.NormTendonLength) * vi.NormTendonVelocity
}

// SetSuppliedTendonForceDerivative stores the externally supplied state
// derivative for implicit mode; ErrExplicitMode otherwise.
func (m *Muscle) SetSuppliedTendonForceDerivative(v float64) error {
	if m.params.Mode != ModeImplicit || m.params.IgnoreTendonCompliance {
		return ErrExplicitMode
	}
	m.suppliedTendonForceDeriv = v
	return nil
}

// SuppliedTendonForceDerivative returns the stored implicit-mode
// derivative; zero with a rigid tendon.
func (m *Muscle) SuppliedTendonForceDerivative() float64 {
	if m.params.IgnoreTendonCompliance {
		return 0
	}
	return m.suppliedTendonForceDeriv
}

// ImplicitEnabled reports whether the implicit residual contract is the
// valid one to drive.
func (m *Muscle) ImplicitEnabled() bool {
	return !m.params.IgnoreTendonCompliance && m.params.Mode == ModeImplicit
}

// ImplicitResidual evaluates the equilibrium residual for the current
// state and supplied derivative; the implicit-mode constraint output.
func (m *Muscle) ImplicitResidual(mtLength, mtVelocity float64) (float64, error) {
	if !m.ImplicitEnabled() {
		return 0, ErrExplicitMode
	}
	di, _ := m.evaluate(mtLength, mtVelocity)
	return EquilibriumResidual(di.TendonForce, di.FiberForceAlongTendon), nil
}

// ImplicitOutputs reports the supplied derivative and the resulting
// residual keyed by their stable identifiers, for hosts that bind
// implicit-mode variables by name.
func (m *Muscle) ImplicitOutputs(mtLength, mtVelocity float64) (map[string]float64, error) {
	residual, err := m.ImplicitResidual(mtLength, mtVelocity)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		DerivativeNormTendonForce: m.SuppliedTendonForceDerivative(),
		ResidualNormTendonForce:   residual,
	}, nil
}

// EquilibriumResidualValue evaluates the force-balance residual for the
// current state; available in both modes as a diagnostic.
func (m *Muscle) EquilibriumResidualValue(mtLength, mtVelocity float64) float64 {
	di, _ := m.evaluate(mtLength, mtVelocity)
	return EquilibriumResidual(di.TendonForce, di.FiberForceAlongTendon)
}

// LinearizedResidualDerivativeValue evaluates the linearized equilibrium
// residual derivative for the current state.
func (m *Muscle) LinearizedResidualDerivativeValue(mtLength, mtVelocity float64) float64 {
	di, vi := m.evaluate(mtLength, mtVelocity)
	return LinearizedResidualDerivative(mtVelocity, vi.FiberVelocityAlongTendon,
		di.TendonStiffness, di.FiberStiffnessAlongTendon)
}

// Evaluate computes the full dynamics picture at the muscle's current
// state for the given path kinematics.
func (m *Muscle) Evaluate(mtLength, mtVelocity float64) DynamicsInfo {
	di, _ := m.evaluate(mtLength, mtVelocity)
	return di
}

// evaluate runs the three info stages in dependency order for the current
// state.
func (m *Muscle) evaluate(mtLength, mtVelocity float64) (DynamicsInfo, VelocityInfo) {
	a := m.Activation()
	li := m.CalcLengthInfo(mtLength, m.normTendonForce)
	vi := m.CalcVelocityInfo(mtVelocity, a, li, m.normTendonForce, m.SuppliedTendonForceDerivative())
	di := m.CalcDynamicsInfo(a, mtVelocity, li, vi, m.normTendonForce)
	return di, vi
}

// Path prescribes the muscle-tendon kinematics, standing in for the host
// multibody model.
type Path interface {
	Length(t float64) float64
	Velocity(t float64) float64
}

// ConstantPath holds the muscle-tendon length fixed (isometric).
type ConstantPath struct {
	L float64
}

func (p ConstantPath) Length(t float64) float64   { return p.L }
func (p ConstantPath) Velocity(t float64) float64 { return 0 }

// RampPath lengthens or shortens at a constant rate.
type RampPath struct {
	L0   float64
	Rate float64
}

func (p RampPath) Length(t float64) float64   { return p.L0 + p.Rate*t }
func (p RampPath) Velocity(t float64) float64 { return p.Rate }

// SinePath oscillates about a mean length.
type SinePath struct {
	L0        float64
	Amplitude float64
	Frequency float64
}

func (p SinePath) Length(t float64) float64 {
	return p.L0 + p.Amplitude*math.Sin(2*math.Pi*p.Frequency*t)
}

func (p SinePath) Velocity(t float64) float64 {
	return 2 * math.Pi * p.Frequency * p.Amplitude * math.Cos(2*math.Pi*p.Frequency*t)
}

// Dynamics adapts a muscle on a prescribed path to the simulator's ODE
// interface. State is [activation, normalized tendon force]; control is
// the excitation. Only explicit mode supports time-stepping.
type Dynamics struct {
	m    *Muscle
	path Path
	// Time of the most recent derivative evaluation; fixes the path
	// length for energy queries, which carry no time argument.
	lastT float64
}

func NewDynamics(m *Muscle, path Path) (*Dynamics, error) {
	if m.params.Mode == ModeImplicit && !m.params.IgnoreTendonCompliance {
		return nil, ErrImplicitMode
	}
	return &Dynamics{m: m, path: path}, nil
}

func (d *Dynamics) Muscle() *Muscle { return d.m }
func (d *Dynamics) Path() Path      { return d.path }

func (d *Dynamics) StateDim() int   { return 2 }
func (d *Dynamics) ControlDim() int { return 1 }

// InitialState solves the initial equilibrium at t=0 for the default
// activation.
func (d *Dynamics) InitialState() (sim.State, error) {
	d.m.SetExcitation(d.m.params.DefaultActivation)
	if _, err := d.m.InitEquilibrium(d.path.Length(0), d.path.Velocity(0)); err != nil {
		return nil, err
	}
	return sim.State{d.m.Activation(), d.m.NormTendonForce()}, nil
}

// Energy reports the elastic energy stored in the fiber and tendon for
// the given state, at the path length of the last derivative evaluation.
func (d *Dynamics) Energy(x sim.State) float64 {
	li := d.m.CalcLengthInfo(d.path.Length(d.lastT), x[1])
	return d.m.CalcPotentialEnergyInfo(li).TotalPotentialEnergy
}

func (d *Dynamics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	d.lastT = t
	activation := x[0]
	normTendonForce := x[1]
	excitation := 0.0
	if len(u) > 0 {
		excitation = u[0]
	}

	aDot := d.m.ActivationDerivative(excitation, activation)
	if d.m.params.IgnoreActivationDynamics {
		activation = excitation
	}

	fDot := 0.0
	if !d.m.params.IgnoreTendonCompliance {
		fDot = d.m.tendonForceDerivative(activation, normTendonForce,
			d.path.Length(t), d.path.Velocity(t))
	}

	return sim.State{aDot, fDot}
}
