package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Muscle.Name = "soleus"
	cfg.Muscle.MaxIsometricForce = 3549
	cfg.Excitation.Kind = "step"
	cfg.Excitation.After = 0.9
	cfg.Duration = 2.5

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Muscle.Name != "soleus" || loaded.Muscle.MaxIsometricForce != 3549 {
		t.Errorf("muscle config lost in round trip: %+v", loaded.Muscle)
	}
	if loaded.Excitation.Kind != "step" || loaded.Excitation.After != 0.9 {
		t.Errorf("excitation config lost in round trip: %+v", loaded.Excitation)
	}
	if loaded.Duration != 2.5 {
		t.Errorf("duration %f, want 2.5", loaded.Duration)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadPartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("muscle:\n  name: custom\nduration: 0.25\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Muscle.Name != "custom" {
		t.Errorf("name %q, want custom", cfg.Muscle.Name)
	}
	if cfg.Duration != 0.25 {
		t.Errorf("duration %f, want 0.25", cfg.Duration)
	}
	// Unspecified fields keep defaults.
	if cfg.Integrator != "rk4" {
		t.Errorf("integrator %q, want rk4 default", cfg.Integrator)
	}
}

func TestBuildPieces(t *testing.T) {
	cfg := DefaultConfig()

	if _, err := cfg.BuildMuscle(); err != nil {
		t.Errorf("default muscle should build: %v", err)
	}
	if _, err := cfg.BuildPath(); err != nil {
		t.Errorf("default path should build: %v", err)
	}
	if _, err := cfg.BuildExcitation(); err != nil {
		t.Errorf("default excitation should build: %v", err)
	}
	if _, err := cfg.BuildIntegrator(); err != nil {
		t.Errorf("default integrator should build: %v", err)
	}

	cfg.Path.Kind = "hexagonal"
	if _, err := cfg.BuildPath(); err == nil {
		t.Error("expected error for unknown path kind")
	}
	cfg.Path.Kind = "constant"

	cfg.Excitation.Kind = "telepathy"
	if _, err := cfg.BuildExcitation(); err == nil {
		t.Error("expected error for unknown excitation kind")
	}
	cfg.Excitation.Kind = "constant"

	cfg.Integrator = "leapfrog"
	if _, err := cfg.BuildIntegrator(); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestPresetsBuild(t *testing.T) {
	for name, cfg := range Presets {
		if _, err := cfg.BuildMuscle(); err != nil {
			t.Errorf("preset %s muscle: %v", name, err)
		}
		if _, err := cfg.BuildPath(); err != nil {
			t.Errorf("preset %s path: %v", name, err)
		}
		if _, err := cfg.BuildExcitation(); err != nil {
			t.Errorf("preset %s excitation: %v", name, err)
		}
		if _, err := cfg.BuildIntegrator(); err != nil {
			t.Errorf("preset %s integrator: %v", name, err)
		}
	}
}

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	data := []byte(`name: gait
muscles:
  - name: soleus_r
    type: millard2012equilibrium
    max_isometric_force: 3549
    optimal_fiber_length: 0.05
    tendon_slack_length: 0.25
    pennation_angle: 0.4363
  - name: perry_point
    type: pathactuator
    max_isometric_force: 500
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	mf, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if mf.Name != "gait" || len(mf.Muscles) != 2 {
		t.Fatalf("unexpected model: %+v", mf)
	}

	sources := mf.Sources()
	if sources[0].Name != "soleus_r" || sources[0].MaxIsometricForce != 3549 {
		t.Errorf("source not converted: %+v", sources[0])
	}
	if sources[1].Type != "pathactuator" {
		t.Errorf("source type lost: %+v", sources[1])
	}
}

func TestSimConfigAdaptive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adaptive = true
	cfg.Tolerance = 1e-8

	sc := cfg.SimConfig()
	if !sc.Adaptive {
		t.Error("adaptive flag not carried into sim config")
	}
	if sc.Tolerance != 1e-8 {
		t.Errorf("tolerance %g, want 1e-8", sc.Tolerance)
	}
}
