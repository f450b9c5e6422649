package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mtsim/internal/config"
	"github.com/san-kum/mtsim/internal/export"
	"github.com/san-kum/mtsim/internal/metrics"
	"github.com/san-kum/mtsim/internal/muscle"
	"github.com/san-kum/mtsim/internal/sim"
	"github.com/san-kum/mtsim/internal/storage"
	"github.com/san-kum/mtsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	adaptive   bool
	// Muscle overrides
	fmax       float64
	lmOpt      float64
	ltSlack    float64
	pennation  float64
	mode       string
	rigid      bool
	// Excitation
	excitationKind string
	level          float64
	// Path
	pathLength float64
	// Equilibrium / curve sampling
	activation float64
	mtVelocity float64
	points     int
	outDir     string
	// Replace
	allowUnsupported bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mtsim",
		Short: "muscle-tendon actuator simulation lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mtsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a muscle simulation",
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	curvesCmd := &cobra.Command{
		Use:   "curves",
		Short: "plot the characteristic curves",
		RunE:  plotCurves,
	}
	curvesCmd.Flags().IntVar(&points, "points", 80, "samples per curve")
	addMuscleFlags(curvesCmd)

	exportCurvesCmd := &cobra.Command{
		Use:   "export-curves",
		Short: "export curve tables to CSV",
		RunE:  exportCurves,
	}
	exportCurvesCmd.Flags().IntVar(&points, "points", 200, "samples per curve")
	exportCurvesCmd.Flags().StringVar(&outDir, "out", "curves", "output directory")
	addMuscleFlags(exportCurvesCmd)

	equilibriumCmd := &cobra.Command{
		Use:   "equilibrium [mt_length]",
		Short: "solve the fiber equilibrium at a muscle-tendon length",
		Args:  cobra.ExactArgs(1),
		RunE:  solveEquilibrium,
	}
	equilibriumCmd.Flags().Float64Var(&activation, "activation", 1.0, "activation level")
	equilibriumCmd.Flags().Float64Var(&mtVelocity, "velocity", 0.0, "muscle-tendon velocity")
	addMuscleFlags(equilibriumCmd)

	replaceCmd := &cobra.Command{
		Use:   "replace [model_file]",
		Short: "convert a model's muscles to this formulation",
		Args:  cobra.ExactArgs(1),
		RunE:  replaceMuscles,
	}
	replaceCmd.Flags().BoolVar(&allowUnsupported, "allow-unsupported", false, "skip unsupported muscle types instead of failing")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMUSCLE\tEXCITATION\tPATH\tDURATION")
			for _, name := range names {
				cfg := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\n",
					name, cfg.Muscle.Name, cfg.Excitation.Kind, cfg.Path.Kind, cfg.Duration)
			}
			return w.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRunJSON,
	}

	rootCmd.AddCommand(runCmd, liveCmd, curvesCmd, exportCurvesCmd, equilibriumCmd,
		replaceCmd, presetsCmd, listCmd, plotCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addMuscleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().Float64Var(&fmax, "fmax", 0, "max isometric force")
	cmd.Flags().Float64Var(&lmOpt, "lm-opt", 0, "optimal fiber length")
	cmd.Flags().Float64Var(&ltSlack, "lt-slack", 0, "tendon slack length")
	cmd.Flags().Float64Var(&pennation, "pennation", 0, "pennation angle at optimal")
	cmd.Flags().StringVar(&mode, "mode", "", "dynamics mode (explicit or implicit)")
	cmd.Flags().BoolVar(&rigid, "rigid", false, "treat the tendon as rigid")
}

func addScenarioFlags(cmd *cobra.Command) {
	addMuscleFlags(cmd)
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "error-controlled step size")
	cmd.Flags().StringVar(&excitationKind, "excitation", "", "excitation kind (constant, step, ramp, sine)")
	cmd.Flags().Float64Var(&level, "level", -1, "constant excitation level")
	cmd.Flags().Float64Var(&pathLength, "length", 0, "muscle-tendon path length")
}

// buildConfig resolves preset, config file, and flag overrides in that
// order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, names)
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if fmax > 0 {
		cfg.Muscle.MaxIsometricForce = fmax
	}
	if lmOpt > 0 {
		cfg.Muscle.OptimalFiberLength = lmOpt
	}
	if ltSlack > 0 {
		cfg.Muscle.TendonSlackLength = ltSlack
	}
	if cmd.Flags().Changed("pennation") {
		cfg.Muscle.PennationAngle = pennation
	}
	if mode != "" {
		cfg.Muscle.Mode = mode
	}
	if rigid {
		cfg.Muscle.IgnoreTendonCompliance = true
	}
	if dt > 0 {
		cfg.Dt = dt
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}
	if adaptive {
		cfg.Adaptive = true
	}
	if excitationKind != "" {
		cfg.Excitation.Kind = excitationKind
	}
	if level >= 0 {
		cfg.Excitation.Kind = "constant"
		cfg.Excitation.Level = level
	}
	if pathLength > 0 {
		cfg.Path.Length = pathLength
	}
	cfg.Seed = seed

	return cfg, nil
}

type scenario struct {
	cfg        *config.Config
	m          *muscle.Muscle
	dyn        *muscle.Dynamics
	path       muscle.Path
	controller sim.Controller
	integ      sim.Integrator
}

func buildScenario(cmd *cobra.Command) (*scenario, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	m, err := cfg.BuildMuscle()
	if err != nil {
		return nil, err
	}
	path, err := cfg.BuildPath()
	if err != nil {
		return nil, err
	}
	dyn, err := muscle.NewDynamics(m, path)
	if err != nil {
		return nil, err
	}
	controller, err := cfg.BuildExcitation()
	if err != nil {
		return nil, err
	}
	integ, err := cfg.BuildIntegrator()
	if err != nil {
		return nil, err
	}

	return &scenario{cfg: cfg, m: m, dyn: dyn, path: path, controller: controller, integ: integ}, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	sc, err := buildScenario(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	x0, err := sc.dyn.InitialState()
	if err != nil {
		return err
	}

	simulator := sim.New(sc.dyn, sc.integ, sc.controller)
	simulator.AddMetric(metrics.NewPeakForce(sc.m, sc.path))
	simulator.AddMetric(metrics.NewActivationEffort())
	simulator.AddMetric(metrics.NewFiberWork(sc.m, sc.path))

	fmt.Printf("running %s (%s mode)...\n", sc.m.Name(), sc.m.Mode())
	start := time.Now()

	result, err := simulator.Run(context.Background(), x0, sc.cfg.SimConfig())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(sc.m.Name(), string(sc.m.Mode()), sc.cfg.Dt, sc.cfg.Duration,
		sc.cfg.Seed, sc.cfg.Integrator, sc.cfg.Excitation.Kind, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(result.States))
	fmt.Printf("elastic energy drift: %.2e\n", result.EnergyDrift)
	if len(result.Errors) > 0 {
		fmt.Printf("errors: %d (first: %v)\n", len(result.Errors), result.Errors[0])
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := buildScenario(cmd)
	if err != nil {
		return err
	}

	model := tui.NewLive(sc.dyn, sc.controller, sc.integ, sc.cfg.Dt, sc.cfg.Duration)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return err
	}
	return model.Err()
}

func plotCurves(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.BuildMuscle()
	if err != nil {
		return err
	}

	for _, table := range export.SampleCurves(m, points) {
		data := make([]float64, len(table.X))
		for i := range table.X {
			data[i] = table.Y[i][0]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s  [%g, %g]", table.Name, table.X[0], table.X[len(table.X)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCurves(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.BuildMuscle()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for _, table := range export.SampleCurves(m, points) {
		path := filepath.Join(outDir, table.Name+".csv")
		if err := export.ExportCurveCSV(path, table); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func solveEquilibrium(cmd *cobra.Command, args []string) error {
	var mtLength float64
	if _, err := fmt.Sscanf(args[0], "%f", &mtLength); err != nil {
		return fmt.Errorf("invalid muscle-tendon length: %s", args[0])
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.BuildMuscle()
	if err != nil {
		return err
	}

	est := m.EstimateFiberState(activation, mtLength, mtVelocity, 0,
		muscle.DefaultSolveTolerance, muscle.DefaultMaxIterations)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "status\t%s\n", est.Status)
	fmt.Fprintf(w, "iterations\t%d\n", est.Iterations)
	fmt.Fprintf(w, "residual\t%.3e\n", est.SolutionError)
	fmt.Fprintf(w, "fiber length\t%.6f\n", est.FiberLength)
	fmt.Fprintf(w, "fiber velocity\t%.6f\n", est.FiberVelocity)
	fmt.Fprintf(w, "norm tendon force\t%.6f\n", est.NormTendonForce)
	fmt.Fprintf(w, "tendon force\t%.3f\n", est.NormTendonForce*m.Params().MaxIsometricForce)
	if err := w.Flush(); err != nil {
		return err
	}

	if est.Failed() {
		return fmt.Errorf("equilibrium solve failed: %s", est.Status)
	}
	return nil
}

func replaceMuscles(cmd *cobra.Command, args []string) error {
	mf, err := config.LoadModel(args[0])
	if err != nil {
		return err
	}

	muscles, skipped, err := muscle.Replace(mf.Sources(), allowUnsupported)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", mf.Name)
	fmt.Printf("converted %d of %d muscles\n\n", len(muscles), len(mf.Muscles))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFMAX\tLM_OPT\tLT_SLACK\tPENNATION\tVMAX")
	for _, m := range muscles {
		p := m.Params()
		fmt.Fprintf(w, "%s\t%.1f\t%.4f\t%.4f\t%.4f\t%.1f\n",
			p.Name, p.MaxIsometricForce, p.OptimalFiberLength,
			p.TendonSlackLength, p.PennationAngleAtOptimal, p.MaxContractionVelocity)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, name := range skipped {
		fmt.Printf("skipped (unsupported type): %s\n", name)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMUSCLE\tMODE\tTIME\tDURATION\tDT\tINTEG\tEXCITATION")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Muscle,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Excitation,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("muscle: %s (%s mode)\n", meta.Muscle, meta.Mode)
	fmt.Printf("samples: %d\n\n", len(states))

	captions := []string{muscle.StateActivation, muscle.StateNormTendonForce, "excitation"}
	numVars := len(states[0])
	if numVars > len(captions) {
		numVars = len(captions)
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = states[i][varIdx]
			}
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[varIdx]),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRunJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		States:  make([]sim.State, len(states)),
		Times:   times,
		Metrics: meta.Metrics,
	}
	for i, s := range states {
		result.States[i] = s
	}

	data := export.NewRunData(meta.Muscle, meta.Integrator, meta.Excitation,
		meta.Dt, meta.Duration, result)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
