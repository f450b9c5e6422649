package config

// Presets are named muscle scenarios with parameters drawn from common
// lower-limb models. Lengths are in meters, forces in newtons, angles in
// radians.
var Presets = map[string]*Config{
	"isometric": {
		Muscle: MuscleConfig{
			Name: "generic", MaxIsometricForce: 1000, OptimalFiberLength: 0.10,
			TendonSlackLength: 0.20,
		},
		Excitation: ExcitationConfig{Kind: "constant", Level: 1.0},
		Path:       PathConfig{Kind: "constant", Length: 0.302},
		Integrator: "rk4", Dt: 0.0001, Duration: 0.5,
	},
	"soleus": {
		Muscle: MuscleConfig{
			Name: "soleus", MaxIsometricForce: 3549, OptimalFiberLength: 0.05,
			TendonSlackLength: 0.25, PennationAngle: 0.4363,
			MaxContractionVelocity: 15,
		},
		Excitation: ExcitationConfig{Kind: "step", Before: 0.05, After: 0.9, StepTime: 0.1},
		Path:       PathConfig{Kind: "constant", Length: 0.297},
		Integrator: "rk4", Dt: 0.0001, Duration: 0.5,
	},
	"tib_ant": {
		Muscle: MuscleConfig{
			Name: "tib_ant", MaxIsometricForce: 905, OptimalFiberLength: 0.098,
			TendonSlackLength: 0.223, PennationAngle: 0.0873,
		},
		Excitation: ExcitationConfig{Kind: "sine", Baseline: 0.4, Amplitude: 0.3, Frequency: 2.0},
		Path:       PathConfig{Kind: "sine", Length: 0.323, Amplitude: 0.005, Frequency: 2.0},
		Integrator: "rk4", Dt: 0.0001, Duration: 1.0,
	},
	"med_gas": {
		Muscle: MuscleConfig{
			Name: "med_gas", MaxIsometricForce: 1558, OptimalFiberLength: 0.06,
			TendonSlackLength: 0.39, PennationAngle: 0.2967,
		},
		Excitation: ExcitationConfig{Kind: "ramp", Level: 0.05, Rate: 0.9},
		Path:       PathConfig{Kind: "ramp", Length: 0.452, Rate: 0.005},
		Integrator: "rk4", Dt: 0.0001, Duration: 1.0,
	},
	"rigid": {
		Muscle: MuscleConfig{
			Name: "rigid", MaxIsometricForce: 1000, OptimalFiberLength: 0.10,
			TendonSlackLength: 0.20, IgnoreTendonCompliance: true,
		},
		Excitation: ExcitationConfig{Kind: "step", Before: 0.1, After: 1.0, StepTime: 0.1},
		Path:       PathConfig{Kind: "constant", Length: 0.30},
		Integrator: "rk4", Dt: 0.0001, Duration: 0.5,
	},
}
