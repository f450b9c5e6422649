package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/mtsim/internal/muscle"
	"github.com/san-kum/mtsim/internal/sim"
)

type RunData struct {
	Muscle     string             `json:"muscle"`
	Integrator string             `json:"integrator"`
	Excitation string             `json:"excitation"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Controls   [][]float64        `json:"controls"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewRunData(muscleName, integrator, excitation string, dt, duration float64, result *sim.Result) RunData {
	data := RunData{
		Muscle:     muscleName,
		Integrator: integrator,
		Excitation: excitation,
		Dt:         dt,
		Duration:   duration,
		Steps:      len(result.Times),
		Times:      result.Times,
		States:     make([][]float64, len(result.States)),
		Controls:   make([][]float64, len(result.Controls)),
		Metrics:    result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}
	return data
}

func WriteRunJSON(w io.Writer, data RunData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportRunJSON(path string, data RunData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteRunJSON(file, data)
}

// CurveTable is a sampled characteristic curve ready for plotting or CSV
// output.
type CurveTable struct {
	Name    string
	Columns []string
	X       []float64
	Y       [][]float64
}

func linspace(lo, hi float64, n int) []float64 {
	xs := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	xs[n-1] = hi
	return xs
}

// SampleCurves tabulates all four characteristic curves of a muscle over
// their conventional plotting ranges.
func SampleCurves(m *muscle.Muscle, points int) []CurveTable {
	if points < 2 {
		points = 2
	}
	activeFL, fv, passiveFL, tendonFL := m.Curves()

	tables := make([]CurveTable, 0, 4)

	xs := linspace(0.2, 1.8, points)
	ys := make([][]float64, len(xs))
	for i, x := range xs {
		ys[i] = []float64{activeFL.Value(x), activeFL.Derivative(x)}
	}
	tables = append(tables, CurveTable{
		Name:    "active_force_length",
		Columns: []string{"norm_fiber_length", "multiplier", "derivative"},
		X:       xs, Y: ys,
	})

	xs = linspace(0.2, 1.8, points)
	ys = make([][]float64, len(xs))
	for i, x := range xs {
		ys[i] = []float64{passiveFL.Value(x), passiveFL.Derivative(x)}
	}
	tables = append(tables, CurveTable{
		Name:    "passive_force_length",
		Columns: []string{"norm_fiber_length", "multiplier", "derivative"},
		X:       xs, Y: ys,
	})

	xs = linspace(-1.1, 1.1, points)
	ys = make([][]float64, len(xs))
	for i, x := range xs {
		ys[i] = []float64{fv.Value(x)}
	}
	tables = append(tables, CurveTable{
		Name:    "force_velocity",
		Columns: []string{"norm_fiber_velocity", "multiplier"},
		X:       xs, Y: ys,
	})

	strain := m.Params().TendonStrainAtOneNormForce
	xs = linspace(0.95, 1.0+strain, points)
	ys = make([][]float64, len(xs))
	for i, x := range xs {
		ys[i] = []float64{tendonFL.Value(x), tendonFL.Derivative(x)}
	}
	tables = append(tables, CurveTable{
		Name:    "tendon_force_length",
		Columns: []string{"norm_tendon_length", "multiplier", "derivative"},
		X:       xs, Y: ys,
	})

	return tables
}

func WriteCurveCSV(w io.Writer, table CurveTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	for i, x := range table.X {
		row := make([]string, 0, len(table.Columns))
		row = append(row, fmt.Sprintf("%.10g", x))
		for _, y := range table.Y[i] {
			row = append(row, fmt.Sprintf("%.10g", y))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportCurveCSV(path string, table CurveTable) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCurveCSV(file, table)
}
