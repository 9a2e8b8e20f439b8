package integrator

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/scene"
)

// DirectIntegrator sums one light sample from every light in the scene
type DirectIntegrator struct{}

// NewDirectIntegrator creates a direct lighting integrator that visits all lights
func NewDirectIntegrator() *DirectIntegrator {
	return &DirectIntegrator{}
}

// Li adds surface emission and one light sample from every light in the scene
func (d *DirectIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	its, hit := s.RayIntersect(ray)
	if !hit {
		return environmentRadiance(s, ray)
	}

	result := emittedRadiance(&its, ray)
	wi := its.ToLocal(ray.Direction.Negate())
	bsdf := its.BSDF()

	for _, emitter := range s.GetLights() {
		q := lights.NewSampleQuery(its.Point)
		value := emitter.Sample(&q, sampler.Get2D())
		if value.IsZero() {
			continue
		}

		wo := its.ToLocal(q.Wi)
		f := bsdf.Eval(evalQuery(&its, wi, wo))
		if f.IsZero() || s.Occluded(q.ShadowRay) {
			continue
		}
		result = result.Add(f.MultiplyVec(value).Multiply(math.Abs(core.CosTheta(wo))))
	}
	return result
}

// DirectEMSIntegrator estimates direct lighting by sampling one light per hit
type DirectEMSIntegrator struct{}

// NewDirectEMSIntegrator creates a light-sampling direct lighting integrator
func NewDirectEMSIntegrator() *DirectEMSIntegrator {
	return &DirectEMSIntegrator{}
}

// Li estimates direct lighting at the first hit by sampling one light
func (d *DirectEMSIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	its, hit := s.RayIntersect(ray)
	if !hit {
		return environmentRadiance(s, ray)
	}

	result := emittedRadiance(&its, ray)
	if ls, ok := sampleLight(s, sampler, &its, its.ToLocal(ray.Direction.Negate())); ok {
		result = result.Add(ls.Contribution)
	}
	return result
}

// DirectMATSIntegrator estimates direct lighting by sampling the BSDF and looking for emitters
type DirectMATSIntegrator struct{}

// NewDirectMATSIntegrator creates a BSDF-sampling direct lighting integrator
func NewDirectMATSIntegrator() *DirectMATSIntegrator {
	return &DirectMATSIntegrator{}
}

// Li estimates direct lighting at the first hit by sampling the BSDF and looking for emitters
func (d *DirectMATSIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	its, hit := s.RayIntersect(ray)
	if !hit {
		return environmentRadiance(s, ray)
	}

	result := emittedRadiance(&its, ray)

	bq := sampleQuery(&its, its.ToLocal(ray.Direction.Negate()))
	f := its.BSDF().Sample(&bq, sampler.Get2D())
	if f.IsZero() {
		return result
	}

	next := core.NewRay(its.Point, its.ToWorld(bq.Wo))
	nextIts, nextHit := s.RayIntersect(next)
	if nextHit {
		return result.Add(f.MultiplyVec(emittedRadiance(&nextIts, next)))
	}
	return result.Add(f.MultiplyVec(environmentRadiance(s, next)))
}

// DirectMISIntegrator combines light and BSDF sampling with the balance heuristic
type DirectMISIntegrator struct{}

// NewDirectMISIntegrator creates a multiple importance sampling direct lighting integrator
func NewDirectMISIntegrator() *DirectMISIntegrator {
	return &DirectMISIntegrator{}
}

// Li combines one light sample and one BSDF sample with the balance heuristic
func (d *DirectMISIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	its, hit := s.RayIntersect(ray)
	if !hit {
		return environmentRadiance(s, ray)
	}

	result := emittedRadiance(&its, ray)
	wi := its.ToLocal(ray.Direction.Negate())
	bsdf := its.BSDF()

	// Light sampling
	if ls, ok := sampleLight(s, sampler, &its, wi); ok {
		result = result.Add(ls.Contribution.Multiply(ls.Weight()))
	}

	// BSDF sampling
	bq := sampleQuery(&its, wi)
	f := bsdf.Sample(&bq, sampler.Get2D())
	if f.IsZero() {
		return result
	}

	next := core.NewRay(its.Point, its.ToWorld(bq.Wo))
	nextIts, nextHit := s.RayIntersect(next)

	var emitted core.Vec3
	if nextHit {
		emitted = emittedRadiance(&nextIts, next)
	} else {
		emitted = environmentRadiance(s, next)
	}
	if emitted.IsZero() {
		return result
	}

	weight := materialWeight(s, bq, bsdf.PDF(bq), next, &nextIts, nextHit)
	return result.Add(f.MultiplyVec(emitted).Multiply(weight))
}
