package integrator

import (
	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/scene"
)

// AverageVisibilityIntegrator returns 1 when a random hemisphere ray of a fixed length
// leaves the hit point unoccluded, 0 otherwise. Misses are fully visible.
type AverageVisibilityIntegrator struct {
	Length float64
}

// NewAverageVisibilityIntegrator creates an average visibility integrator with the given ray length
func NewAverageVisibilityIntegrator(length float64) *AverageVisibilityIntegrator {
	return &AverageVisibilityIntegrator{Length: length}
}

// Li returns 1 if a hemisphere ray from the first hit is unoccluded within Length
func (av *AverageVisibilityIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	its, hit := s.RayIntersect(ray)
	if !hit {
		return core.NewVec3(1, 1, 1)
	}

	direction := its.ToWorld(core.SquareToUniformHemisphere(sampler.Get2D()))
	if s.Occluded(core.NewRaySegment(its.Point, direction, core.Epsilon, av.Length)) {
		return core.Vec3{}
	}
	return core.NewVec3(1, 1, 1)
}
