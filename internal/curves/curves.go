package curves

import "math"

// Shape coefficients for the normalized muscle-tendon curves, following the
// De Groote et al. 2016 formulation. Fixed for all muscles; the only
// user-facing shape knobs are the width scale (active curve) and the strain
// parameters (passive and tendon curves).
const (
	// Active force-length: three Gaussian-like lobes. b11 tuned so the
	// summed curve passes through (1, 1).
	b11 = 0.8150671134243542
	b21 = 1.055033428970575
	b31 = 0.162384573599574
	b41 = 0.063303448465465
	b12 = 0.433004984392647
	b22 = 0.716775413397760
	b32 = -0.029947116970696
	b42 = 0.200356847296188
	b13 = 0.1
	b23 = 1.0
	b33 = 0.353553390593274 // 0.5 * sqrt(0.5)
	b43 = 0.0

	// Passive force-length exponential shape factor.
	kPE = 4.0

	// Tendon force-length. c2 == c3 so the curve is zero at zero strain.
	c1 = 0.200
	c2 = 1.0
	c3 = 0.200

	// Force-velocity. d1 and d4 tuned so the curve passes through (-1, 0)
	// and (0, 1).
	d1 = -0.3211346127989808
	d2 = -8.149
	d3 = -0.374
	d4 = 0.8825327733249912
)

// Valid normalized fiber-length range. The passive curve is pinned to zero
// at the lower bound so it never goes negative in range.
const (
	MinNormFiberLength = 0.2
	MaxNormFiberLength = 1.8
)

// gaussianLike is not a proper Gaussian: the exponent denominator depends
// on x.
func gaussianLike(x, b1, b2, b3, b4 float64) float64 {
	den := b3 + b4*x
	diff := x - b2
	return b1 * math.Exp(-0.5*diff*diff/(den*den))
}

func gaussianLikeDerivative(x, b1, b2, b3, b4 float64) float64 {
	den := b3 + b4*x
	diff := b2 - x
	return (b1 * math.Exp(-diff*diff/(2*den*den)) * diff * (b3 + b2*b4)) /
		(den * den * den)
}

// ActiveForceLength maps normalized fiber length to the active force
// multiplier. WidthScale widens the curve horizontally about its peak at
// normalized length 1, so Value(1) == 1 for any scale.
type ActiveForceLength struct {
	WidthScale float64
}

func NewActiveForceLength(widthScale float64) ActiveForceLength {
	return ActiveForceLength{WidthScale: widthScale}
}

func (c ActiveForceLength) Value(normFiberLength float64) float64 {
	x := (normFiberLength-1.0)/c.WidthScale + 1.0
	return gaussianLike(x, b11, b21, b31, b41) +
		gaussianLike(x, b12, b22, b32, b42) +
		gaussianLike(x, b13, b23, b33, b43)
}

func (c ActiveForceLength) Derivative(normFiberLength float64) float64 {
	x := (normFiberLength-1.0)/c.WidthScale + 1.0
	return (1.0 / c.WidthScale) *
		(gaussianLikeDerivative(x, b11, b21, b31, b41) +
			gaussianLikeDerivative(x, b12, b22, b32, b42) +
			gaussianLikeDerivative(x, b13, b23, b33, b43))
}

// ForceVelocity maps normalized fiber velocity in [-1, 1] to the force
// multiplier in [0, ~1.794]. The curve and its inverse are closed-form.
type ForceVelocity struct{}

func (ForceVelocity) Value(normFiberVelocity float64) float64 {
	v := d2*normFiberVelocity + d3
	return d1*math.Log(v+math.Sqrt(v*v+1.0)) + d4
}

// Inverse returns the normalized fiber velocity producing the given
// multiplier.
func (ForceVelocity) Inverse(multiplier float64) float64 {
	return (math.Sinh((multiplier-d4)/d1) - d3) / d2
}

// PassiveForceLength is an exponential passive fiber curve shifted so it
// crosses zero at the minimum normalized fiber length (0.2) rather than at
// 1.0, keeping passive force non-negative over the valid range. With
// Ignore set, the value, derivative and integral are identically zero.
type PassiveForceLength struct {
	StrainAtOneNormForce float64
	Ignore               bool
}

func NewPassiveForceLength(strainAtOneNormForce float64, ignore bool) PassiveForceLength {
	return PassiveForceLength{StrainAtOneNormForce: strainAtOneNormForce, Ignore: ignore}
}

func (c PassiveForceLength) Value(normFiberLength float64) float64 {
	if c.Ignore {
		return 0
	}
	e0 := c.StrainAtOneNormForce
	offset := math.Exp(kPE * (MinNormFiberLength - 1.0) / e0)
	denom := math.Exp(kPE) - offset
	return (math.Exp(kPE*(normFiberLength-1.0)/e0) - offset) / denom
}

func (c PassiveForceLength) Derivative(normFiberLength float64) float64 {
	if c.Ignore {
		return 0
	}
	e0 := c.StrainAtOneNormForce
	offset := math.Exp(kPE * (MinNormFiberLength - 1.0) / e0)
	return (kPE * math.Exp(kPE*(normFiberLength-1.0)/e0)) /
		(e0 * (math.Exp(kPE) - offset))
}

// Integral is the antiderivative of Value with respect to normalized fiber
// length.
func (c PassiveForceLength) Integral(normFiberLength float64) float64 {
	if c.Ignore {
		return 0
	}
	e0 := c.StrainAtOneNormForce
	temp1 := math.Exp(kPE * MinNormFiberLength / e0)
	denom := math.Exp(kPE*(1.0+1.0/e0)) - temp1
	temp2 := kPE / e0 * normFiberLength
	return (e0/kPE*math.Exp(temp2) - normFiberLength*temp1) / denom
}

// TendonForceLength maps normalized tendon length to normalized tendon
// force. The stiffness parameter kT is derived once from the strain at one
// norm force, so the curve passes through (1 + strain, 1). With c2 == c3
// the curve is also zero at zero strain.
type TendonForceLength struct {
	StrainAtOneNormForce float64
	KT                   float64
}

func NewTendonForceLength(strainAtOneNormForce float64) TendonForceLength {
	// Solve c1*exp(kT*(1+e0-c2)) - c3 = 1 for kT.
	kT := math.Log((1.0+c3)/c1) / (1.0 + strainAtOneNormForce - c2)
	return TendonForceLength{StrainAtOneNormForce: strainAtOneNormForce, KT: kT}
}

func (c TendonForceLength) Value(normTendonLength float64) float64 {
	return c1*math.Exp(c.KT*(normTendonLength-c2)) - c3
}

func (c TendonForceLength) Derivative(normTendonLength float64) float64 {
	return c1 * c.KT * math.Exp(c.KT*(normTendonLength-c2))
}

// Integral is the antiderivative of Value with respect to normalized
// tendon length.
func (c TendonForceLength) Integral(normTendonLength float64) float64 {
	return (c1*math.Exp(-c.KT*(c2-normTendonLength)))/c.KT - c3*normTendonLength
}

// Inverse returns the normalized tendon length at which the curve produces
// the given normalized force.
func (c TendonForceLength) Inverse(normTendonForce float64) float64 {
	return math.Log((1.0/c1)*(normTendonForce+c3))/c.KT + c2
}

// InverseDerivative converts a normalized tendon force rate into a
// normalized tendon velocity, given the current normalized tendon length.
func (c TendonForceLength) InverseDerivative(derivNormTendonForce, normTendonLength float64) float64 {
	return derivNormTendonForce / (c1 * c.KT * math.Exp(c.KT*(normTendonLength-c2)))
}
