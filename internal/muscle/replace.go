package muscle

import "fmt"

// SourceActuator describes a muscle of another model family whose shared
// geometric and force parameters can be copied into this model. The
// source's default fiber length is deliberately not carried over: tendon
// compliance here uses normalized tendon force as the state, not fiber
// length.
type SourceActuator struct {
	Name                   string
	Type                   string
	OptimalFiberLength     float64
	TendonSlackLength      float64
	PennationAngle         float64
	MaxIsometricForce      float64
	MaxContractionVelocity float64
}

var supportedSourceTypes = map[string]bool{
	"degroote2016":           true,
	"millard2012equilibrium": true,
	"thelen2003":             true,
}

// Replace converts the supported source actuators into muscles of this
// model, copying the shared parameters onto defaults. An unsupported
// source type is an error unless allowUnsupported is set, in which case it
// is skipped and reported in the second return value.
func Replace(sources []SourceActuator, allowUnsupported bool) ([]*Muscle, []string, error) {
	muscles := make([]*Muscle, 0, len(sources))
	skipped := make([]string, 0)

	for _, src := range sources {
		if !supportedSourceTypes[src.Type] {
			if !allowUnsupported {
				return nil, nil, fmt.Errorf("muscle %q has unsupported type %q", src.Name, src.Type)
			}
			skipped = append(skipped, src.Name)
			continue
		}

		p := DefaultParams()
		p.Name = src.Name
		p.OptimalFiberLength = src.OptimalFiberLength
		p.TendonSlackLength = src.TendonSlackLength
		p.PennationAngleAtOptimal = src.PennationAngle
		p.MaxIsometricForce = src.MaxIsometricForce
		if src.MaxContractionVelocity > 0 {
			p.MaxContractionVelocity = src.MaxContractionVelocity
		}

		m, err := New(p)
		if err != nil {
			return nil, nil, fmt.Errorf("replacing muscle %q: %w", src.Name, err)
		}
		muscles = append(muscles, m)
	}

	return muscles, skipped, nil
}
