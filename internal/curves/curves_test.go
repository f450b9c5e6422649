package curves

import (
	"math"
	"testing"
)

// centralDiff approximates df/dx with a fourth-order central difference.
func centralDiff(f func(float64) float64, x float64) float64 {
	h := 1e-5
	return (-f(x+2*h) + 8*f(x+h) - 8*f(x-h) + f(x-2*h)) / (12 * h)
}

// simpson integrates f over [a, b] with n (even) panels.
func simpson(f func(float64) float64, a, b float64, n int) float64 {
	h := (b - a) / float64(n)
	sum := f(a) + f(b)
	for i := 1; i < n; i++ {
		x := a + float64(i)*h
		if i%2 == 1 {
			sum += 4 * f(x)
		} else {
			sum += 2 * f(x)
		}
	}
	return sum * h / 3
}

func TestActiveForceLengthPeak(t *testing.T) {
	scales := []float64{0.5, 1.0, 1.5, 2.0}
	for _, scale := range scales {
		c := NewActiveForceLength(scale)
		if got := c.Value(1.0); math.Abs(got-1.0) > 1e-10 {
			t.Errorf("scale %.1f: value at 1.0 = %.12f, want 1.0", scale, got)
		}
	}
}

func TestActiveForceLengthDerivative(t *testing.T) {
	for _, scale := range []float64{0.8, 1.0, 1.3} {
		c := NewActiveForceLength(scale)
		for x := MinNormFiberLength; x <= MaxNormFiberLength; x += 0.05 {
			want := centralDiff(c.Value, x)
			got := c.Derivative(x)
			if math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
				t.Errorf("scale %.1f x=%.2f: derivative %.8f, finite diff %.8f", scale, x, got, want)
			}
		}
	}
}

func TestForceVelocityBoundaries(t *testing.T) {
	var c ForceVelocity
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"max shortening", -1.0, 0.0},
		{"isometric", 0.0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Value(tt.v); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("value(%.1f) = %.12f, want %.1f", tt.v, got, tt.want)
			}
		})
	}
}

func TestForceVelocityInverse(t *testing.T) {
	var c ForceVelocity
	for v := -1.0; v <= 1.0; v += 0.1 {
		got := c.Inverse(c.Value(v))
		if math.Abs(got-v) > 1e-9 {
			t.Errorf("inverse round trip at v=%.2f: got %.12f", v, got)
		}
	}
}

func TestPassiveForceLength(t *testing.T) {
	c := NewPassiveForceLength(0.6, false)

	// Pinned to zero at the minimum fiber length, not at 1.0.
	if got := c.Value(MinNormFiberLength); math.Abs(got) > 1e-12 {
		t.Errorf("value at min length = %.12f, want 0", got)
	}
	if got := c.Value(1.6); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("value at 1+e0 = %.12f, want 1", got)
	}

	for x := MinNormFiberLength; x <= MaxNormFiberLength; x += 0.05 {
		want := centralDiff(c.Value, x)
		got := c.Derivative(x)
		if math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
			t.Errorf("x=%.2f: derivative %.8f, finite diff %.8f", x, got, want)
		}
	}
}

func TestPassiveForceLengthIntegral(t *testing.T) {
	c := NewPassiveForceLength(0.6, false)
	a, b := 0.5, 1.7
	want := simpson(c.Value, a, b, 400)
	got := c.Integral(b) - c.Integral(a)
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("integral over [%.1f, %.1f] = %.10f, simpson %.10f", a, b, got, want)
	}
}

func TestPassiveForceLengthIgnored(t *testing.T) {
	c := NewPassiveForceLength(0.6, true)
	for x := 0.0; x <= 2.0; x += 0.1 {
		if c.Value(x) != 0 || c.Derivative(x) != 0 || c.Integral(x) != 0 {
			t.Fatalf("x=%.1f: ignored curve not identically zero", x)
		}
	}
}

func TestTendonForceLength(t *testing.T) {
	c := NewTendonForceLength(0.049)

	// Passes through (1 + strain, 1) and (1, 0).
	if got := c.Value(1.049); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("value at 1+strain = %.12f, want 1", got)
	}
	if got := c.Value(1.0); math.Abs(got) > 1e-12 {
		t.Errorf("value at 1.0 = %.12f, want 0", got)
	}

	for x := 0.95; x <= 1.08; x += 0.005 {
		want := centralDiff(c.Value, x)
		got := c.Derivative(x)
		if math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
			t.Errorf("x=%.3f: derivative %.8f, finite diff %.8f", x, got, want)
		}
		if got <= 0 {
			t.Errorf("x=%.3f: derivative %.8f not strictly positive", x, got)
		}
	}
}

func TestTendonForceLengthIntegral(t *testing.T) {
	c := NewTendonForceLength(0.049)
	a, b := 0.98, 1.06
	want := simpson(c.Value, a, b, 400)
	got := c.Integral(b) - c.Integral(a)
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("integral over [%.2f, %.2f] = %.12f, simpson %.12f", a, b, got, want)
	}
}

func TestTendonForceLengthInverse(t *testing.T) {
	c := NewTendonForceLength(0.049)
	for x := 0.99; x <= 1.07; x += 0.005 {
		got := c.Inverse(c.Value(x))
		if math.Abs(got-x) > 1e-10 {
			t.Errorf("inverse round trip at x=%.3f: got %.12f", x, got)
		}
	}

	// InverseDerivative converts a force rate to a tendon velocity:
	// dF/dt / (dF/dlT) = dlT/dt.
	x := 1.03
	rate := 0.7
	got := c.InverseDerivative(rate, x)
	want := rate / c.Derivative(x)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("inverse derivative = %.12f, want %.12f", got, want)
	}
}
