package muscle

import (
	"fmt"
	"math"
)

// Mode selects how tendon-compliance dynamics are integrated. Explicit
// exposes a state derivative for forward time-stepping; implicit accepts an
// externally supplied derivative and exposes an equilibrium residual for
// collocation-style solvers. Fixed per muscle at construction.
type Mode string

const (
	ModeExplicit Mode = "explicit"
	ModeImplicit Mode = "implicit"
)

const (
	DefaultActivationTimeConstant   = 0.015
	DefaultDeactivationTimeConstant = 0.060
	DefaultPassiveFiberStrain       = 0.6
	DefaultTendonStrain             = 0.049
	DefaultMaxContractionVelocity   = 10.0 // optimal fiber lengths per second
)

// Params configures one muscle-tendon actuator. Immutable after New except
// through SetParam, which revalidates and rebuilds derived quantities.
type Params struct {
	Name string

	OptimalFiberLength      float64
	TendonSlackLength       float64
	MaxIsometricForce       float64
	PennationAngleAtOptimal float64
	// MaxContractionVelocity is in optimal fiber lengths per second.
	MaxContractionVelocity float64

	ActivationTimeConstant   float64
	DeactivationTimeConstant float64

	ActiveForceWidthScale            float64
	FiberDamping                     float64
	PassiveFiberStrainAtOneNormForce float64
	TendonStrainAtOneNormForce       float64

	IgnoreTendonCompliance   bool
	IgnorePassiveFiberForce  bool
	IgnoreActivationDynamics bool

	Mode Mode

	DefaultActivation      float64
	DefaultNormTendonForce float64
}

func DefaultParams() Params {
	return Params{
		Name:                             "muscle",
		OptimalFiberLength:               0.10,
		TendonSlackLength:                0.20,
		MaxIsometricForce:                1000.0,
		PennationAngleAtOptimal:          0.0,
		MaxContractionVelocity:           DefaultMaxContractionVelocity,
		ActivationTimeConstant:           DefaultActivationTimeConstant,
		DeactivationTimeConstant:         DefaultDeactivationTimeConstant,
		ActiveForceWidthScale:            1.0,
		FiberDamping:                     0.0,
		PassiveFiberStrainAtOneNormForce: DefaultPassiveFiberStrain,
		TendonStrainAtOneNormForce:       DefaultTendonStrain,
		Mode:                             ModeExplicit,
		DefaultActivation:                0.5,
		DefaultNormTendonForce:           0.5,
	}
}

func (p Params) Validate() error {
	if p.OptimalFiberLength <= 0 {
		return fmt.Errorf("optimal fiber length must be positive, got %f", p.OptimalFiberLength)
	}
	if p.TendonSlackLength <= 0 {
		return fmt.Errorf("tendon slack length must be positive, got %f", p.TendonSlackLength)
	}
	if p.MaxIsometricForce <= 0 {
		return fmt.Errorf("max isometric force must be positive, got %f", p.MaxIsometricForce)
	}
	if p.MaxContractionVelocity <= 0 {
		return fmt.Errorf("max contraction velocity must be positive, got %f", p.MaxContractionVelocity)
	}
	if p.PennationAngleAtOptimal < 0 || p.PennationAngleAtOptimal >= math.Pi/2 {
		return fmt.Errorf("pennation angle must be in [0, pi/2), got %f", p.PennationAngleAtOptimal)
	}
	if p.ActivationTimeConstant <= 0 {
		return fmt.Errorf("activation time constant must be positive, got %f", p.ActivationTimeConstant)
	}
	if p.DeactivationTimeConstant <= 0 {
		return fmt.Errorf("deactivation time constant must be positive, got %f", p.DeactivationTimeConstant)
	}
	if p.ActiveForceWidthScale <= 0 {
		return fmt.Errorf("active force width scale must be positive, got %f", p.ActiveForceWidthScale)
	}
	if p.FiberDamping < 0 {
		return fmt.Errorf("fiber damping must be non-negative, got %f", p.FiberDamping)
	}
	if p.PassiveFiberStrainAtOneNormForce <= 0 {
		return fmt.Errorf("passive fiber strain must be positive, got %f", p.PassiveFiberStrainAtOneNormForce)
	}
	if p.TendonStrainAtOneNormForce <= 0 {
		return fmt.Errorf("tendon strain must be positive, got %f", p.TendonStrainAtOneNormForce)
	}
	if p.Mode != ModeExplicit && p.Mode != ModeImplicit {
		return fmt.Errorf("tendon compliance dynamics mode must be %q or %q, got %q", ModeExplicit, ModeImplicit, p.Mode)
	}
	if p.DefaultActivation < 0 {
		return fmt.Errorf("default activation must be non-negative, got %f", p.DefaultActivation)
	}
	if p.DefaultNormTendonForce < MinNormTendonForce || p.DefaultNormTendonForce > MaxNormTendonForce {
		return fmt.Errorf("default normalized tendon force must be in [%g, %g], got %f",
			MinNormTendonForce, MaxNormTendonForce, p.DefaultNormTendonForce)
	}
	return nil
}
