package integrator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/scene"
)

// Integrator estimates the radiance arriving along a camera ray
type Integrator interface {
	// Li returns one sample of the radiance along ray. Implementations are safe for
	// concurrent use as long as each goroutine has its own sampler.
	Li(scene *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3
}

// Preprocessor is implemented by integrators that need a pass over the scene before
// the first pixel sample. Preprocess is called exactly once.
type Preprocessor interface {
	Preprocess(scene *scene.Scene) error
}

var (
	// ErrUnknownIntegrator is returned by New for an unregistered name
	ErrUnknownIntegrator = errors.New("unknown integrator")
	// ErrNoMedium is returned when a volumetric integrator renders a scene without a medium
	ErrNoMedium = errors.New("scene has no participating medium")
)

// Config holds the tunable parameters of every integrator
type Config struct {
	PhotonCount  int         // Photons emitted in the photon mapping pre-pass
	PhotonRadius float64     // Gather radius; 0 derives it from the scene bounds
	PhotonIndex  string      // Photon index backend: "kdtree" or "rtree"
	Workers      int         // Goroutines for the photon pre-pass; 0 uses all CPUs
	Seed         int64       // Base seed for pre-pass samplers
	AVLength     float64     // Visibility ray length for the average visibility integrator
	Logger       core.Logger // Progress output for pre-passes
}

// DefaultConfig returns the default integrator configuration
func DefaultConfig() Config {
	return Config{
		PhotonCount:  1000000,
		PhotonRadius: 0,
		PhotonIndex:  "kdtree",
		Workers:      0,
		Seed:         1,
		AVLength:     1.0,
		Logger:       core.NopLogger{},
	}
}

var registry = map[string]func(Config) Integrator{
	"direct":       func(Config) Integrator { return NewDirectIntegrator() },
	"direct_ems":   func(Config) Integrator { return NewDirectEMSIntegrator() },
	"direct_mats":  func(Config) Integrator { return NewDirectMATSIntegrator() },
	"direct_mis":   func(Config) Integrator { return NewDirectMISIntegrator() },
	"path_mats":    func(Config) Integrator { return NewPathMATSIntegrator() },
	"path_mis":     func(Config) Integrator { return NewPathMISIntegrator() },
	"vol_path":     func(Config) Integrator { return NewVolumetricPathIntegrator() },
	"photonmapper": func(c Config) Integrator { return NewPhotonMapperIntegrator(c) },
	"av":           func(c Config) Integrator { return NewAverageVisibilityIntegrator(c.AVLength) },
	"env":          func(Config) Integrator { return NewEnvironmentIntegrator() },
}

// New creates the integrator registered under name
func New(name string, config Config) (Integrator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
	if config.Logger == nil {
		config.Logger = core.NopLogger{}
	}
	return factory(config), nil
}

// Names returns the registered integrator names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
