package integrator

import (
	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/scene"
)

// EnvironmentIntegrator looks up the environment emitter along the camera ray and
// ignores all geometry. Useful for checking environment maps and their orientation.
type EnvironmentIntegrator struct{}

// NewEnvironmentIntegrator creates an environment lookup integrator
func NewEnvironmentIntegrator() *EnvironmentIntegrator {
	return &EnvironmentIntegrator{}
}

// Li returns the environment radiance in the ray direction, or black without an environment
func (e *EnvironmentIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	return environmentRadiance(s, ray)
}
