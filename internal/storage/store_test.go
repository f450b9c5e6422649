package storage

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/mtsim/internal/muscle"
	"github.com/san-kum/mtsim/internal/sim"
)

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := &sim.Result{
		States: []sim.State{
			{0.5, 0.5},
			{0.6, 0.52},
		},
		Controls: []sim.Control{
			{1.0},
			{1.0},
		},
		Times: []float64{0.0, 0.001},
		Metrics: map[string]float64{
			"peak_force": 520.0,
		},
	}

	runID, err := st.Save("soleus", "explicit", 0.001, 1.0, 42, "rk4", "constant", result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Muscle != "soleus" {
		t.Errorf("expected muscle 'soleus', got '%s'", meta.Muscle)
	}
	if meta.Mode != "explicit" {
		t.Errorf("expected mode 'explicit', got '%s'", meta.Mode)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["peak_force"] != 520.0 {
		t.Errorf("expected peak force 520, got %f", meta.Metrics["peak_force"])
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}

	if len(states) != 2 {
		t.Errorf("expected 2 states, got %d", len(states))
	}
	if len(times) != 2 {
		t.Errorf("expected 2 times, got %d", len(times))
	}
	// Controls follow the states in each row.
	if len(states) == 2 && len(states[0]) != 3 {
		t.Errorf("expected 3 values per row, got %d", len(states[0]))
	}
}

func TestStoreHeaderNames(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	result := &sim.Result{
		States:   []sim.State{{0.5, 0.5}},
		Controls: []sim.Control{{1.0}},
		Times:    []float64{0},
	}
	runID, err := st.Save("m", "explicit", 0.001, 1.0, 0, "rk4", "constant", result)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(tmpDir, runID, "states.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("empty states.csv")
	}
	header := scanner.Text()
	if header != "time,activation,normalized_tendon_force,excitation" {
		t.Errorf("unexpected header %q", header)
	}
	if want := "time," + muscle.StateActivation + "," + muscle.StateNormTendonForce + ",excitation"; header != want {
		t.Errorf("header %q not bound to state identifiers %q", header, want)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	result := &sim.Result{
		States:   []sim.State{{0.5, 0.5}},
		Controls: []sim.Control{{1.0}},
		Times:    []float64{0},
	}
	if _, err := st.Save("m1", "explicit", 0.001, 1.0, 0, "rk4", "constant", result); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
	if len(runs) == 1 && !strings.HasPrefix(runs[0].ID, "m1_") {
		t.Errorf("run id %q missing muscle prefix", runs[0].ID)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list on missing dir failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
