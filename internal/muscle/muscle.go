package muscle

import (
	"fmt"
	"math"

	"github.com/san-kum/mtsim/internal/curves"
)

// Normalized tendon force state bounds. External solvers bind to these
// when treating the state as a constrained unknown.
const (
	MinNormTendonForce = 0.0
	MaxNormTendonForce = 5.0
)

// Stable identifiers for the state variables and the implicit-mode
// auxiliaries, so external solvers can bind to them by name.
const (
	StateActivation           = "activation"
	StateNormTendonForce      = "normalized_tendon_force"
	DerivativeNormTendonForce = "implicitderiv_normalized_tendon_force"
	ResidualNormTendonForce   = "implicitresidual_normalized_tendon_force"
)

// Muscle is a De Groote-Fregly 2016 muscle-tendon actuator: closed-form
// normalized curves, a fixed-width pennation model, and tendon-compliance
// dynamics with normalized tendon force as the state variable.
type Muscle struct {
	params Params

	activeFL  curves.ActiveForceLength
	fv        curves.ForceVelocity
	passiveFL curves.PassiveForceLength
	tendonFL  curves.TendonForceLength

	// Derived from params; rebuilt on any parameter change.
	fiberWidth             float64
	squareFiberWidth       float64
	maxContractionVelocity float64 // m/s

	// State. Owned by the actuator; the host only orchestrates stepping.
	activation      float64
	normTendonForce float64
	excitation      float64
	// Implicit mode only: the externally supplied state derivative.
	suppliedTendonForceDeriv float64
}

func New(p Params) (*Muscle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Muscle{params: p}
	m.finalize()
	m.activation = p.DefaultActivation
	m.normTendonForce = p.DefaultNormTendonForce
	return m, nil
}

// finalize rebuilds the cached derived constants and curve instances.
func (m *Muscle) finalize() {
	p := m.params
	m.fiberWidth = p.OptimalFiberLength * math.Sin(p.PennationAngleAtOptimal)
	m.squareFiberWidth = m.fiberWidth * m.fiberWidth
	m.maxContractionVelocity = p.MaxContractionVelocity * p.OptimalFiberLength
	m.activeFL = curves.NewActiveForceLength(p.ActiveForceWidthScale)
	m.passiveFL = curves.NewPassiveForceLength(p.PassiveFiberStrainAtOneNormForce, p.IgnorePassiveFiberForce)
	m.tendonFL = curves.NewTendonForceLength(p.TendonStrainAtOneNormForce)
}

func (m *Muscle) Name() string   { return m.params.Name }
func (m *Muscle) Params() Params { return m.params }
func (m *Muscle) Mode() Mode     { return m.params.Mode }

// Curves exposes the four normalized curves for export and diagnostics.
func (m *Muscle) Curves() (curves.ActiveForceLength, curves.ForceVelocity, curves.PassiveForceLength, curves.TendonForceLength) {
	return m.activeFL, m.fv, m.passiveFL, m.tendonFL
}

// Activation returns the excitation instead when activation dynamics are
// ignored; the state variable is bypassed entirely.
func (m *Muscle) Activation() float64 {
	if m.params.IgnoreActivationDynamics {
		return m.excitation
	}
	return m.activation
}

// SetActivation redirects to the excitation channel when activation
// dynamics are ignored.
func (m *Muscle) SetActivation(a float64) {
	if m.params.IgnoreActivationDynamics {
		m.excitation = a
		return
	}
	m.activation = a
}

func (m *Muscle) Excitation() float64     { return m.excitation }
func (m *Muscle) SetExcitation(e float64) { m.excitation = e }

// NormTendonForce returns the normalized tendon force state. Meaningless
// when tendon compliance is ignored; use CalcDynamicsInfo instead.
func (m *Muscle) NormTendonForce() float64 { return m.normTendonForce }

// SetNormTendonForce clamps to the state bounds. A no-op when tendon
// compliance is ignored, since the state variable is unused.
func (m *Muscle) SetNormTendonForce(f float64) {
	if m.params.IgnoreTendonCompliance {
		return
	}
	m.normTendonForce = math.Min(math.Max(f, MinNormTendonForce), MaxNormTendonForce)
}

// LengthInfo holds position-level quantities for one evaluation. Computed
// before VelocityInfo, which feeds DynamicsInfo.
type LengthInfo struct {
	FiberLength            float64
	FiberLengthAlongTendon float64
	NormFiberLength        float64
	TendonLength           float64
	NormTendonLength       float64
	TendonStrain           float64
	PennationAngle         float64
	CosPennationAngle      float64
	SinPennationAngle      float64
	ActiveForceLengthMult  float64
	PassiveForceMult       float64
}

// VelocityInfo holds velocity-level quantities for one evaluation.
type VelocityInfo struct {
	FiberVelocity            float64
	FiberVelocityAlongTendon float64
	NormFiberVelocity        float64
	TendonVelocity           float64
	NormTendonVelocity       float64
	PennationAngularVelocity float64
	ForceVelocityMult        float64
}

// DynamicsInfo holds force-level quantities for one evaluation, including
// the separable force components, the stiffness chain, and the partial
// derivatives consumed by the equilibrium solver.
type DynamicsInfo struct {
	Activation float64

	FiberForce            float64
	FiberForceAlongTendon float64
	NormFiberForce        float64

	ActiveFiberForce               float64
	PassiveElasticForce            float64
	PassiveDampingForce            float64
	ActiveFiberForceAlongTendon    float64
	PassiveElasticForceAlongTendon float64
	PassiveDampingForceAlongTendon float64

	TendonForce     float64
	NormTendonForce float64

	FiberStiffness            float64
	FiberStiffnessAlongTendon float64
	TendonStiffness           float64
	MuscleStiffness           float64

	FiberActivePower  float64
	FiberPassivePower float64
	TendonPower       float64
	MusclePower       float64
}

// PotentialEnergyInfo splits stored elastic energy between fiber and
// tendon, from the closed-form curve integrals.
type PotentialEnergyInfo struct {
	FiberPotentialEnergy  float64
	TendonPotentialEnergy float64
	TotalPotentialEnergy  float64
}

// CalcLengthInfo resolves the position-level state from muscle-tendon
// length. With a compliant tendon, tendon length comes from inverting the
// tendon curve at the given normalized tendon force; with a rigid tendon,
// it is pinned to slack length.
func (m *Muscle) CalcLengthInfo(mtLength, normTendonForce float64) LengthInfo {
	var li LengthInfo
	p := m.params

	if p.IgnoreTendonCompliance {
		li.TendonLength = p.TendonSlackLength
	} else {
		li.TendonLength = p.TendonSlackLength * m.tendonFL.Inverse(normTendonForce)
	}
	li.NormTendonLength = li.TendonLength / p.TendonSlackLength
	li.TendonStrain = li.NormTendonLength - 1.0

	li.FiberLengthAlongTendon = mtLength - li.TendonLength
	li.FiberLength = math.Sqrt(li.FiberLengthAlongTendon*li.FiberLengthAlongTendon + m.squareFiberWidth)
	li.NormFiberLength = li.FiberLength / p.OptimalFiberLength

	li.PennationAngle = math.Asin(m.fiberWidth / li.FiberLength)
	li.CosPennationAngle = li.FiberLengthAlongTendon / li.FiberLength
	li.SinPennationAngle = m.fiberWidth / li.FiberLength

	li.ActiveForceLengthMult = m.activeFL.Value(li.NormFiberLength)
	li.PassiveForceMult = m.passiveFL.Value(li.NormFiberLength)
	return li
}

// CalcVelocityInfo resolves the velocity-level state. With explicit tendon
// dynamics the fiber velocity comes from inverting the force-velocity
// curve at the force balance implied by the tendon force state; otherwise
// (implicit or rigid tendon) the tendon velocity comes from the supplied
// normalized tendon force derivative and the fiber velocity follows from
// the velocity balance.
func (m *Muscle) CalcVelocityInfo(mtVelocity, activation float64, li LengthInfo, normTendonForce, normTendonForceDeriv float64) VelocityInfo {
	var vi VelocityInfo
	p := m.params

	if p.Mode == ModeExplicit && !p.IgnoreTendonCompliance {
		normFiberForce := normTendonForce / li.CosPennationAngle
		vi.ForceVelocityMult = (normFiberForce - li.PassiveForceMult) /
			(activation * li.ActiveForceLengthMult)
		vi.NormFiberVelocity = m.fv.Inverse(vi.ForceVelocityMult)
		vi.FiberVelocity = vi.NormFiberVelocity * m.maxContractionVelocity
		vi.FiberVelocityAlongTendon = vi.FiberVelocity / li.CosPennationAngle
		vi.TendonVelocity = mtVelocity - vi.FiberVelocityAlongTendon
		vi.NormTendonVelocity = vi.TendonVelocity / p.TendonSlackLength
	} else {
		if p.IgnoreTendonCompliance {
			vi.NormTendonVelocity = 0
		} else {
			vi.NormTendonVelocity = m.tendonFL.InverseDerivative(normTendonForceDeriv, li.NormTendonLength)
		}
		vi.TendonVelocity = p.TendonSlackLength * vi.NormTendonVelocity
		vi.FiberVelocityAlongTendon = mtVelocity - vi.TendonVelocity
		vi.FiberVelocity = vi.FiberVelocityAlongTendon * li.CosPennationAngle
		vi.NormFiberVelocity = vi.FiberVelocity / m.maxContractionVelocity
		vi.ForceVelocityMult = m.fv.Value(vi.NormFiberVelocity)
	}

	tanPennationAngle := m.fiberWidth / li.FiberLengthAlongTendon
	vi.PennationAngularVelocity = -vi.FiberVelocity / li.FiberLength * tanPennationAngle
	return vi
}

// CalcDynamicsInfo resolves the force-level state from the prior two info
// stages.
func (m *Muscle) CalcDynamicsInfo(activation, mtVelocity float64, li LengthInfo, vi VelocityInfo, normTendonForce float64) DynamicsInfo {
	var di DynamicsInfo
	p := m.params
	di.Activation = activation

	active, conPassive, nonConPassive, total := m.fiberForceComponents(
		activation, li.ActiveForceLengthMult, vi.ForceVelocityMult,
		li.PassiveForceMult, vi.NormFiberVelocity)

	di.ActiveFiberForce = active
	di.PassiveElasticForce = conPassive
	di.PassiveDampingForce = nonConPassive
	di.FiberForce = total
	di.NormFiberForce = total / p.MaxIsometricForce

	cos := li.CosPennationAngle
	di.FiberForceAlongTendon = total * cos
	di.ActiveFiberForceAlongTendon = active * cos
	di.PassiveElasticForceAlongTendon = conPassive * cos
	di.PassiveDampingForceAlongTendon = nonConPassive * cos

	if p.IgnoreTendonCompliance {
		di.TendonForce = di.FiberForceAlongTendon
		di.NormTendonForce = di.TendonForce / p.MaxIsometricForce
	} else {
		di.NormTendonForce = normTendonForce
		di.TendonForce = p.MaxIsometricForce * normTendonForce
	}

	di.FiberStiffness = m.fiberStiffness(activation, li.NormFiberLength, vi.ForceVelocityMult)
	dPenn := m.partialPennationPartialFiberLength(li.FiberLength)
	dFmAT := m.partialFiberForceATPartialFiberLength(
		di.FiberForce, di.FiberStiffness, li.SinPennationAngle, li.CosPennationAngle, dPenn)
	di.FiberStiffnessAlongTendon = m.fiberStiffnessAlongTendon(
		li.FiberLength, dFmAT, li.SinPennationAngle, li.CosPennationAngle, dPenn)
	di.TendonStiffness = m.tendonStiffness(li.NormTendonLength)
	di.MuscleStiffness = m.muscleStiffness(di.TendonStiffness, di.FiberStiffnessAlongTendon)

	di.FiberActivePower = -di.ActiveFiberForce * vi.FiberVelocity
	di.FiberPassivePower = -di.PassiveDampingForce * vi.FiberVelocity
	di.TendonPower = -di.TendonForce * vi.TendonVelocity
	di.MusclePower = -di.TendonForce * mtVelocity
	return di
}

// CalcPotentialEnergyInfo evaluates the stored elastic energy from the
// curve integrals. The tendon term is zero for a rigid tendon.
func (m *Muscle) CalcPotentialEnergyInfo(li LengthInfo) PotentialEnergyInfo {
	var pe PotentialEnergyInfo
	p := m.params

	fiberIntegral := m.passiveFL.Integral(li.NormFiberLength) -
		m.passiveFL.Integral(curves.MinNormFiberLength)
	pe.FiberPotentialEnergy = fiberIntegral * p.OptimalFiberLength * p.MaxIsometricForce

	if !p.IgnoreTendonCompliance {
		tendonIntegral := m.tendonFL.Integral(li.NormTendonLength) - m.tendonFL.Integral(1.0)
		pe.TendonPotentialEnergy = tendonIntegral * p.TendonSlackLength * p.MaxIsometricForce
	}
	pe.TotalPotentialEnergy = pe.FiberPotentialEnergy + pe.TendonPotentialEnergy
	return pe
}

// Actuation returns the force transmitted to the path (tendon force) for
// the current state and the given kinematics.
func (m *Muscle) Actuation(mtLength, mtVelocity float64) float64 {
	a := m.Activation()
	li := m.CalcLengthInfo(mtLength, m.normTendonForce)
	vi := m.CalcVelocityInfo(mtVelocity, a, li, m.normTendonForce, m.suppliedTendonForceDeriv)
	di := m.CalcDynamicsInfo(a, mtVelocity, li, vi, m.normTendonForce)
	return di.TendonForce
}

// InextensibleTendonActiveFiberForce is the active fiber force along the
// tendon assuming a rigid tendon and the given activation, with fiber
// velocity from the muscle-tendon velocity.
func (m *Muscle) InextensibleTendonActiveFiberForce(activation, mtLength, mtVelocity float64) float64 {
	p := m.params
	fiberLengthAT := mtLength - p.TendonSlackLength
	fiberLength := math.Sqrt(fiberLengthAT*fiberLengthAT + m.squareFiberWidth)
	cos := fiberLengthAT / fiberLength
	normFiberLength := fiberLength / p.OptimalFiberLength
	normFiberVelocity := mtVelocity * cos / m.maxContractionVelocity
	return p.MaxIsometricForce * activation *
		m.activeFL.Value(normFiberLength) * m.fv.Value(normFiberVelocity) * cos
}

// GetParams reports the tunable parameters by name.
func (m *Muscle) GetParams() map[string]float64 {
	p := m.params
	return map[string]float64{
		"optimal_fiber_length":     p.OptimalFiberLength,
		"tendon_slack_length":      p.TendonSlackLength,
		"max_isometric_force":      p.MaxIsometricForce,
		"pennation_angle":          p.PennationAngleAtOptimal,
		"max_contraction_velocity": p.MaxContractionVelocity,
		"activation_time_constant": p.ActivationTimeConstant,
		"deactivation_time_const":  p.DeactivationTimeConstant,
		"active_force_width_scale": p.ActiveForceWidthScale,
		"fiber_damping":            p.FiberDamping,
		"passive_fiber_strain":     p.PassiveFiberStrainAtOneNormForce,
		"tendon_strain":            p.TendonStrainAtOneNormForce,
	}
}

// SetParam updates one parameter, revalidates the full set, and rebuilds
// the derived constants.
func (m *Muscle) SetParam(name string, value float64) error {
	p := m.params
	switch name {
	case "optimal_fiber_length":
		p.OptimalFiberLength = value
	case "tendon_slack_length":
		p.TendonSlackLength = value
	case "max_isometric_force":
		p.MaxIsometricForce = value
	case "pennation_angle":
		p.PennationAngleAtOptimal = value
	case "max_contraction_velocity":
		p.MaxContractionVelocity = value
	case "activation_time_constant":
		p.ActivationTimeConstant = value
	case "deactivation_time_const":
		p.DeactivationTimeConstant = value
	case "active_force_width_scale":
		p.ActiveForceWidthScale = value
	case "fiber_damping":
		p.FiberDamping = value
	case "passive_fiber_strain":
		p.PassiveFiberStrainAtOneNormForce = value
	case "tendon_strain":
		p.TendonStrainAtOneNormForce = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	m.params = p
	m.finalize()
	return nil
}
