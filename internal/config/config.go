package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mtsim/internal/excitation"
	"github.com/san-kum/mtsim/internal/integrators"
	"github.com/san-kum/mtsim/internal/muscle"
	"github.com/san-kum/mtsim/internal/sim"
)

const (
	DefaultDt       = 0.0001
	DefaultDuration = 1.0
)

type Config struct {
	Muscle     MuscleConfig     `yaml:"muscle"`
	Excitation ExcitationConfig `yaml:"excitation"`
	Path       PathConfig       `yaml:"path"`
	Integrator string           `yaml:"integrator"`
	Dt         float64          `yaml:"dt"`
	Duration   float64          `yaml:"duration"`
	Seed       int64            `yaml:"seed"`
	Adaptive   bool             `yaml:"adaptive"`
	Tolerance  float64          `yaml:"tolerance"`
}

type MuscleConfig struct {
	Name                     string  `yaml:"name"`
	MaxIsometricForce        float64 `yaml:"max_isometric_force"`
	OptimalFiberLength       float64 `yaml:"optimal_fiber_length"`
	TendonSlackLength        float64 `yaml:"tendon_slack_length"`
	PennationAngle           float64 `yaml:"pennation_angle"`
	MaxContractionVelocity   float64 `yaml:"max_contraction_velocity"`
	ActivationTimeConstant   float64 `yaml:"activation_time_constant"`
	DeactivationTimeConstant float64 `yaml:"deactivation_time_constant"`
	FiberDamping             float64 `yaml:"fiber_damping"`
	PassiveFiberStrain       float64 `yaml:"passive_fiber_strain"`
	TendonStrain             float64 `yaml:"tendon_strain"`
	ActiveForceWidthScale    float64 `yaml:"active_force_width_scale"`
	Mode                     string  `yaml:"mode"`
	IgnoreTendonCompliance   bool    `yaml:"rigid_tendon"`
	IgnoreActivationDynamics bool    `yaml:"ignore_activation_dynamics"`
	IgnorePassiveFiberForce  bool    `yaml:"ignore_passive_fiber_force"`
	DefaultActivation        float64 `yaml:"default_activation"`
}

type ExcitationConfig struct {
	Kind      string  `yaml:"kind"`
	Level     float64 `yaml:"level"`
	Before    float64 `yaml:"before"`
	After     float64 `yaml:"after"`
	StepTime  float64 `yaml:"step_time"`
	Rate      float64 `yaml:"rate"`
	Baseline  float64 `yaml:"baseline"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

type PathConfig struct {
	Kind      string  `yaml:"kind"`
	Length    float64 `yaml:"length"`
	Rate      float64 `yaml:"rate"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

func DefaultConfig() *Config {
	p := muscle.DefaultParams()
	return &Config{
		Muscle: MuscleConfig{
			Name:                     "generic",
			MaxIsometricForce:        p.MaxIsometricForce,
			OptimalFiberLength:       p.OptimalFiberLength,
			TendonSlackLength:        p.TendonSlackLength,
			MaxContractionVelocity:   p.MaxContractionVelocity,
			ActivationTimeConstant:   p.ActivationTimeConstant,
			DeactivationTimeConstant: p.DeactivationTimeConstant,
			PassiveFiberStrain:       p.PassiveFiberStrainAtOneNormForce,
			TendonStrain:             p.TendonStrainAtOneNormForce,
			ActiveForceWidthScale:    p.ActiveForceWidthScale,
			Mode:                     string(muscle.ModeExplicit),
			DefaultActivation:        p.DefaultActivation,
		},
		Excitation: ExcitationConfig{Kind: "constant", Level: 0.5},
		Path: PathConfig{
			Kind:   "constant",
			Length: p.OptimalFiberLength + p.TendonSlackLength*1.01,
		},
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  1e-6,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildMuscle constructs and validates the configured muscle.
func (c *Config) BuildMuscle() (*muscle.Muscle, error) {
	mc := c.Muscle
	p := muscle.DefaultParams()
	p.Name = mc.Name
	p.MaxIsometricForce = mc.MaxIsometricForce
	p.OptimalFiberLength = mc.OptimalFiberLength
	p.TendonSlackLength = mc.TendonSlackLength
	p.PennationAngleAtOptimal = mc.PennationAngle
	if mc.MaxContractionVelocity > 0 {
		p.MaxContractionVelocity = mc.MaxContractionVelocity
	}
	if mc.ActivationTimeConstant > 0 {
		p.ActivationTimeConstant = mc.ActivationTimeConstant
	}
	if mc.DeactivationTimeConstant > 0 {
		p.DeactivationTimeConstant = mc.DeactivationTimeConstant
	}
	p.FiberDamping = mc.FiberDamping
	if mc.PassiveFiberStrain > 0 {
		p.PassiveFiberStrainAtOneNormForce = mc.PassiveFiberStrain
	}
	if mc.TendonStrain > 0 {
		p.TendonStrainAtOneNormForce = mc.TendonStrain
	}
	if mc.ActiveForceWidthScale > 0 {
		p.ActiveForceWidthScale = mc.ActiveForceWidthScale
	}
	if mc.Mode != "" {
		p.Mode = muscle.Mode(mc.Mode)
	}
	p.IgnoreTendonCompliance = mc.IgnoreTendonCompliance
	p.IgnoreActivationDynamics = mc.IgnoreActivationDynamics
	p.IgnorePassiveFiberForce = mc.IgnorePassiveFiberForce
	if mc.DefaultActivation > 0 {
		p.DefaultActivation = mc.DefaultActivation
	}
	return muscle.New(p)
}

func (c *Config) BuildPath() (muscle.Path, error) {
	pc := c.Path
	switch pc.Kind {
	case "", "constant":
		return muscle.ConstantPath{L: pc.Length}, nil
	case "ramp":
		return muscle.RampPath{L0: pc.Length, Rate: pc.Rate}, nil
	case "sine":
		return muscle.SinePath{L0: pc.Length, Amplitude: pc.Amplitude, Frequency: pc.Frequency}, nil
	default:
		return nil, fmt.Errorf("unknown path kind: %s", pc.Kind)
	}
}

func (c *Config) BuildExcitation() (sim.Controller, error) {
	ec := c.Excitation
	switch ec.Kind {
	case "", "constant":
		return excitation.NewConstant(ec.Level), nil
	case "step":
		return excitation.NewStep(ec.Before, ec.After, ec.StepTime), nil
	case "ramp":
		return excitation.NewRamp(ec.Level, ec.Rate), nil
	case "sine":
		return excitation.NewSine(ec.Baseline, ec.Amplitude, ec.Frequency), nil
	default:
		return nil, fmt.Errorf("unknown excitation kind: %s", ec.Kind)
	}
}

func (c *Config) BuildIntegrator() (sim.Integrator, error) {
	var inner sim.Integrator
	switch c.Integrator {
	case "", "rk4":
		inner = integrators.NewRK4()
	case "rk45":
		inner = integrators.NewRK45()
	case "euler":
		inner = integrators.NewEuler()
	default:
		return nil, fmt.Errorf("unknown integrator: %s", c.Integrator)
	}
	return integrators.NewClamped(inner, integrators.MuscleBounds()), nil
}

func (c *Config) SimConfig() sim.Config {
	sc := sim.DefaultConfig()
	if c.Dt > 0 {
		sc.Dt = c.Dt
	}
	if c.Duration > 0 {
		sc.Duration = c.Duration
	}
	sc.Seed = c.Seed
	sc.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		sc.Tolerance = c.Tolerance
	}
	return sc
}
