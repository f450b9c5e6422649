package muscle

import (
	"fmt"
	"math"

	"github.com/san-kum/mtsim/internal/curves"
)

type EstimateStatus int

const (
	StatusConverged EstimateStatus = iota
	StatusFiberAtLowerBound
	StatusFiberAtUpperBound
	StatusMaxIterationsReached
)

func (s EstimateStatus) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusFiberAtLowerBound:
		return "fiber at lower bound"
	case StatusFiberAtUpperBound:
		return "fiber at upper bound"
	case StatusMaxIterationsReached:
		return "max iterations reached"
	}
	return "unknown"
}

// Estimate is one fiber-state solve. The status is always reported
// alongside the numeric result; the solver never substitutes a value
// silently.
type Estimate struct {
	Status          EstimateStatus
	Iterations      int
	SolutionError   float64
	FiberLength     float64
	FiberVelocity   float64
	NormTendonForce float64
}

// Failed reports whether the caller must decide on a fallback. Bound
// statuses are warnings: the numeric result is still usable.
func (e Estimate) Failed() bool { return e.Status == StatusMaxIterationsReached }

const (
	DefaultSolveTolerance = 1e-10
	DefaultMaxIterations  = 1000
	boundProximity        = 1e-9
)

// EstimateFiberState finds a fiber length consistent with muscle-tendon
// equilibrium by bounded Newton iteration on fiber length, using the
// equilibrium residual and its analytic fiber-length partial. The fiber
// velocity is back-solved from the supplied normalized tendon force
// derivative (zero for a steady-state/initial solve).
func (m *Muscle) EstimateFiberState(activation, mtLength, mtVelocity, normTendonForceDeriv, tolerance float64, maxIterations int) Estimate {
	p := m.params
	minFiberLength := curves.MinNormFiberLength * p.OptimalFiberLength
	maxFiberLength := curves.MaxNormFiberLength * p.OptimalFiberLength

	clampFiberLength := func(l float64) float64 {
		return math.Min(math.Max(l, minFiberLength), maxFiberLength)
	}

	// Initial guess: tendon at slack length.
	reach := mtLength - p.TendonSlackLength
	fiberLength := clampFiberLength(math.Sqrt(reach*reach + m.squareFiberWidth))

	best := Estimate{
		Status:        StatusMaxIterationsReached,
		SolutionError: math.Inf(1),
		FiberLength:   fiberLength,
	}

	atBound := func(l float64) (EstimateStatus, bool) {
		if l <= minFiberLength+boundProximity {
			return StatusFiberAtLowerBound, true
		}
		if l >= maxFiberLength-boundProximity {
			return StatusFiberAtUpperBound, true
		}
		return StatusConverged, false
	}

	for iter := 0; iter < maxIterations; iter++ {
		// Candidate position-level state for this fiber length.
		var li LengthInfo
		li.FiberLength = fiberLength
		li.FiberLengthAlongTendon = math.Sqrt(fiberLength*fiberLength - m.squareFiberWidth)
		li.NormFiberLength = fiberLength / p.OptimalFiberLength
		li.TendonLength = mtLength - li.FiberLengthAlongTendon
		li.NormTendonLength = li.TendonLength / p.TendonSlackLength
		li.TendonStrain = li.NormTendonLength - 1.0
		li.PennationAngle = math.Asin(m.fiberWidth / fiberLength)
		li.CosPennationAngle = li.FiberLengthAlongTendon / fiberLength
		li.SinPennationAngle = m.fiberWidth / fiberLength
		li.ActiveForceLengthMult = m.activeFL.Value(li.NormFiberLength)
		li.PassiveForceMult = m.passiveFL.Value(li.NormFiberLength)

		normTendonForce := m.tendonFL.Value(li.NormTendonLength)

		// Velocity level: tendon velocity from the tendon force
		// derivative, fiber velocity from the velocity balance.
		vi := m.velocityInfoFromTendonForceDeriv(mtVelocity, li, normTendonForceDeriv)
		di := m.CalcDynamicsInfo(activation, mtVelocity, li, vi, normTendonForce)

		residual := EquilibriumResidual(di.TendonForce, di.FiberForceAlongTendon)

		if math.Abs(residual) < best.SolutionError {
			best = Estimate{
				Iterations:      iter,
				SolutionError:   math.Abs(residual),
				FiberLength:     fiberLength,
				FiberVelocity:   vi.FiberVelocity,
				NormTendonForce: normTendonForce,
			}
			best.Status = StatusMaxIterationsReached
		}

		if math.Abs(residual) < tolerance {
			status, _ := atBound(fiberLength)
			return Estimate{
				Status:          status,
				Iterations:      iter,
				SolutionError:   math.Abs(residual),
				FiberLength:     fiberLength,
				FiberVelocity:   vi.FiberVelocity,
				NormTendonForce: normTendonForce,
			}
		}

		// Newton step on r(lM) = tendonForce(lM) - fiberForceAT(lM).
		dPenn := m.partialPennationPartialFiberLength(fiberLength)
		dFiberForceAT := m.partialFiberForceATPartialFiberLength(
			di.FiberForce, di.FiberStiffness, li.SinPennationAngle, li.CosPennationAngle, dPenn)
		dTendonForce := m.partialTendonForcePartialFiberLength(
			di.TendonStiffness, fiberLength, li.SinPennationAngle, li.CosPennationAngle)
		jacobian := dTendonForce - dFiberForceAT

		next := clampFiberLength(fiberLength - residual/jacobian)
		if next == fiberLength {
			// Clamped to the same bound twice: the target is outside the
			// physiological range.
			if status, ok := atBound(fiberLength); ok {
				return Estimate{
					Status:          status,
					Iterations:      iter + 1,
					SolutionError:   math.Abs(residual),
					FiberLength:     fiberLength,
					FiberVelocity:   vi.FiberVelocity,
					NormTendonForce: normTendonForce,
				}
			}
			// Zero step away from a bound: nothing further to try.
			break
		}
		fiberLength = next
	}

	best.Iterations = maxIterations
	return best
}

// velocityInfoFromTendonForceDeriv forces the velocity-balance branch of
// CalcVelocityInfo regardless of mode, as the estimator requires.
func (m *Muscle) velocityInfoFromTendonForceDeriv(mtVelocity float64, li LengthInfo, normTendonForceDeriv float64) VelocityInfo {
	var vi VelocityInfo
	p := m.params
	vi.NormTendonVelocity = m.tendonFL.InverseDerivative(normTendonForceDeriv, li.NormTendonLength)
	vi.TendonVelocity = p.TendonSlackLength * vi.NormTendonVelocity
	vi.FiberVelocityAlongTendon = mtVelocity - vi.TendonVelocity
	vi.FiberVelocity = vi.FiberVelocityAlongTendon * li.CosPennationAngle
	vi.NormFiberVelocity = vi.FiberVelocity / m.maxContractionVelocity
	vi.ForceVelocityMult = m.fv.Value(vi.NormFiberVelocity)
	tanPennationAngle := m.fiberWidth / li.FiberLengthAlongTendon
	vi.PennationAngularVelocity = -vi.FiberVelocity / li.FiberLength * tanPennationAngle
	return vi
}

// InitEquilibrium solves the initial fiber state assuming a zero tendon
// force derivative and stores the resulting normalized tendon force. Bound
// statuses are reported but still accepted; a failed solve leaves the
// state untouched and returns an error with the last residual.
func (m *Muscle) InitEquilibrium(mtLength, mtVelocity float64) (Estimate, error) {
	if m.params.IgnoreTendonCompliance {
		return Estimate{Status: StatusConverged}, nil
	}
	est := m.EstimateFiberState(m.Activation(), mtLength, mtVelocity, 0,
		DefaultSolveTolerance, DefaultMaxIterations)
	if est.Failed() {
		return est, fmt.Errorf("initial equilibrium for %s did not converge: %d iterations, residual %g",
			m.params.Name, est.Iterations, est.SolutionError)
	}
	m.SetNormTendonForce(est.NormTendonForce)
	return est, nil
}
