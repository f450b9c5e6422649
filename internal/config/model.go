package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mtsim/internal/muscle"
)

// ModelFile lists the muscles of a host model whose actuators are to be
// replaced with this muscle model.
type ModelFile struct {
	Name    string         `yaml:"name"`
	Muscles []ModelActuator `yaml:"muscles"`
}

type ModelActuator struct {
	Name                   string  `yaml:"name"`
	Type                   string  `yaml:"type"`
	MaxIsometricForce      float64 `yaml:"max_isometric_force"`
	OptimalFiberLength     float64 `yaml:"optimal_fiber_length"`
	TendonSlackLength      float64 `yaml:"tendon_slack_length"`
	PennationAngle         float64 `yaml:"pennation_angle"`
	MaxContractionVelocity float64 `yaml:"max_contraction_velocity"`
}

func LoadModel(path string) (*ModelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mf ModelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, err
	}
	return &mf, nil
}

// Sources converts the file entries to replacement inputs.
func (mf *ModelFile) Sources() []muscle.SourceActuator {
	sources := make([]muscle.SourceActuator, len(mf.Muscles))
	for i, m := range mf.Muscles {
		sources[i] = muscle.SourceActuator{
			Name:                   m.Name,
			Type:                   m.Type,
			OptimalFiberLength:     m.OptimalFiberLength,
			TendonSlackLength:      m.TendonSlackLength,
			PennationAngle:         m.PennationAngle,
			MaxIsometricForce:      m.MaxIsometricForce,
			MaxContractionVelocity: m.MaxContractionVelocity,
		}
	}
	return sources
}
