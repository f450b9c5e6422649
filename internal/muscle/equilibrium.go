package muscle

import "math"

// EquilibriumResidual is the error in the muscle-tendon force balance:
// tendonForce - fiberForce*cos(pennationAngle). Zero at a valid mechanical
// solution.
func EquilibriumResidual(tendonForce, fiberForceAlongTendon float64) float64 {
	return tendonForce - fiberForceAlongTendon
}

// LinearizedResidualDerivative is the error in the time derivative of the
// linearized equilibrium equation (Millard et al. 2013, eq. A6).
func LinearizedResidualDerivative(mtVelocity, fiberVelocityAlongTendon, tendonStiffness, fiberStiffnessAlongTendon float64) float64 {
	return fiberStiffnessAlongTendon*fiberVelocityAlongTendon -
		tendonStiffness*(mtVelocity-fiberVelocityAlongTendon)
}

// fiberForceComponents splits the fiber force into active, conservative
// passive (elastic), and non-conservative passive (damping) parts.
func (m *Muscle) fiberForceComponents(activation, activeForceLengthMult, forceVelocityMult, passiveForceMult, normFiberVelocity float64) (active, conPassive, nonConPassive, total float64) {
	fmax := m.params.MaxIsometricForce
	active = fmax * activation * activeForceLengthMult * forceVelocityMult
	conPassive = fmax * passiveForceMult
	nonConPassive = fmax * m.params.FiberDamping * normFiberVelocity
	total = active + conPassive + nonConPassive
	return
}

// fiberStiffness is d(fiberForce)/d(fiberLength) through the active and
// passive curve derivatives.
func (m *Muscle) fiberStiffness(activation, normFiberLength, forceVelocityMult float64) float64 {
	dNormLen := 1.0 / m.params.OptimalFiberLength
	dActive := dNormLen * m.activeFL.Derivative(normFiberLength)
	dPassive := dNormLen * m.passiveFL.Derivative(normFiberLength)
	return m.params.MaxIsometricForce * (activation*dActive*forceVelocityMult + dPassive)
}

// tendonStiffness is unbounded when tendon compliance is ignored.
func (m *Muscle) tendonStiffness(normTendonLength float64) float64 {
	if m.params.IgnoreTendonCompliance {
		return math.Inf(1)
	}
	return (m.params.MaxIsometricForce / m.params.TendonSlackLength) *
		m.tendonFL.Derivative(normTendonLength)
}

// muscleStiffness combines fiber and tendon stiffness as springs in
// series.
func (m *Muscle) muscleStiffness(tendonStiffness, fiberStiffnessAlongTendon float64) float64 {
	if m.params.IgnoreTendonCompliance {
		return fiberStiffnessAlongTendon
	}
	return (fiberStiffnessAlongTendon * tendonStiffness) /
		(fiberStiffnessAlongTendon + tendonStiffness)
}

// partialPennationPartialFiberLength differentiates
// asin(fiberWidth/fiberLength) with respect to fiber length.
func (m *Muscle) partialPennationPartialFiberLength(fiberLength float64) float64 {
	ratio := m.fiberWidth / fiberLength
	return (-m.fiberWidth / (fiberLength * fiberLength)) / math.Sqrt(1.0-ratio*ratio)
}

// partialFiberForceATPartialFiberLength is
// d(fiberForce*cosPennation)/d(fiberLength).
func (m *Muscle) partialFiberForceATPartialFiberLength(fiberForce, fiberStiffness, sinPennationAngle, cosPennationAngle, partialPennationPartialFiberLength float64) float64 {
	partialCos := -sinPennationAngle * partialPennationPartialFiberLength
	return fiberStiffness*cosPennationAngle + fiberForce*partialCos
}

// fiberStiffnessAlongTendon converts the fiber-length partial into a
// stiffness along the tendon direction:
// d(fiberForceAT)/d(fiberLengthAT) =
// (d(fiberForceAT)/d(fiberLength)) / (d(fiberLengthAT)/d(fiberLength)).
func (m *Muscle) fiberStiffnessAlongTendon(fiberLength, partialFiberForceATPartialFiberLength, sinPennationAngle, cosPennationAngle, partialPennationPartialFiberLength float64) float64 {
	partialFiberLengthAT := cosPennationAngle -
		fiberLength*sinPennationAngle*partialPennationPartialFiberLength
	return partialFiberForceATPartialFiberLength / partialFiberLengthAT
}

// partialTendonLengthPartialFiberLength follows from
// tendonLength = mtLength - fiberLength*cosPennation at fixed mtLength.
func (m *Muscle) partialTendonLengthPartialFiberLength(fiberLength, sinPennationAngle, cosPennationAngle, partialPennationPartialFiberLength float64) float64 {
	return fiberLength*sinPennationAngle*partialPennationPartialFiberLength - cosPennationAngle
}

// partialTendonForcePartialFiberLength chains tendon stiffness through the
// tendon-length partial; the other Jacobian term of the Newton solve.
func (m *Muscle) partialTendonForcePartialFiberLength(tendonStiffness, fiberLength, sinPennationAngle, cosPennationAngle float64) float64 {
	dPenn := m.partialPennationPartialFiberLength(fiberLength)
	dTendonLength := m.partialTendonLengthPartialFiberLength(fiberLength, sinPennationAngle, cosPennationAngle, dPenn)
	return tendonStiffness * dTendonLength
}
