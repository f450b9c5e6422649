package sim

import (
	"context"
	"math"
	"testing"
)

type testDynamics struct{}

func (t *testDynamics) Derivative(x State, u Control, time float64) State {
	return State{-x[0]}
}

func (t *testDynamics) StateDim() int   { return 1 }
func (t *testDynamics) ControlDim() int { return 0 }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn Dynamics, x State, u Control, time float64, dt float64) State {
	dx := dyn.Derivative(x, u, time)
	return State{x[0] + dt*dx[0]}
}

type testController struct{}

func (t *testController) Compute(x State, time float64) Control {
	return Control{}
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	cfg := Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	x0 := State{1.0}
	result, err := sim.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}

	finalState := result.States[len(result.States)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, Adaptive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), State{1.0}, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, u Control, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Dt: 0.1, Duration: 1.0}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	sim := New(&testDynamics{}, &testIntegrator{}, &testController{})

	cfg := Config{Dt: 0.1, Duration: 10.0}
	calls := 0
	err := sim.RunWithCallback(context.Background(), State{1.0}, cfg, func(x State, u Control, tm float64) bool {
		calls++
		return calls < 5
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 callback calls, got %d", calls)
	}
}

type countingAdaptive struct {
	stepCalls     int
	adaptiveCalls int
}

func (c *countingAdaptive) Step(dyn Dynamics, x State, u Control, time float64, dt float64) State {
	c.stepCalls++
	dx := dyn.Derivative(x, u, time)
	return State{x[0] + dt*dx[0]}
}

func (c *countingAdaptive) StepAdaptive(dyn Dynamics, x State, u Control, time, dt, tol float64) (State, float64, error) {
	c.adaptiveCalls++
	return c.Step(dyn, x, u, time, dt), dt, nil
}

func TestSimulatorAdaptiveUpgradesIntegrator(t *testing.T) {
	integ := &countingAdaptive{}
	s := New(&testDynamics{}, integ, &testController{})

	cfg := Config{Dt: 0.1, Duration: 1.0, Adaptive: true, Tolerance: 1e-6}
	result, err := s.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if integ.adaptiveCalls != result.StepsTaken {
		t.Errorf("adaptive steps %d, want one per step (%d)", integ.adaptiveCalls, result.StepsTaken)
	}

	fixed := &countingAdaptive{}
	s = New(&testDynamics{}, fixed, &testController{})
	if _, err := s.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if fixed.adaptiveCalls != 0 {
		t.Errorf("fixed-step run made %d adaptive calls", fixed.adaptiveCalls)
	}
}

func TestSimulatorAdaptiveFallbackRefines(t *testing.T) {
	s := New(&testDynamics{}, &testIntegrator{}, &testController{})

	cfg := Config{Dt: 0.1, Duration: 1.0, Adaptive: true, Tolerance: 1e-4, MinDt: 1e-6}
	result, err := s.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Step doubling on a fixed-step integrator halves dt until the
	// error estimate clears the tolerance.
	tFinal := result.Times[len(result.Times)-1]
	if tFinal >= 0.5 {
		t.Errorf("final time %f, want refinement well below the nominal dt", tFinal)
	}

	final := result.States[len(result.States)-1][0]
	if math.Abs(final-math.Exp(-tFinal)) > 1e-2 {
		t.Errorf("final state %f, want ~%f", final, math.Exp(-tFinal))
	}
}

type energyDynamics struct {
	testDynamics
}

func (e *energyDynamics) Energy(x State) float64 { return x[0] }

func TestSimulatorEnergyDrift(t *testing.T) {
	s := New(&energyDynamics{}, &testIntegrator{}, &testController{})

	cfg := Config{Dt: 0.1, Duration: 1.0}
	result, err := s.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Euler decay contracts by 0.9 per step; the drift is relative to
	// the initial energy of 1.
	expected := 1.0 - math.Pow(0.9, 10)
	if math.Abs(result.EnergyDrift-expected) > 1e-12 {
		t.Errorf("energy drift %g, want %g", result.EnergyDrift, expected)
	}

	// Dynamics without an energy report leave the drift at zero.
	s = New(&testDynamics{}, &testIntegrator{}, &testController{})
	result, err = s.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.EnergyDrift != 0 {
		t.Errorf("energy drift %g for energy-less dynamics, want 0", result.EnergyDrift)
	}
}
