package integrator

import (
	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/scene"
)

// PathMATSIntegrator is a path tracer that only samples BSDFs; light is found when a
// path happens to hit an emitter
type PathMATSIntegrator struct{}

// NewPathMATSIntegrator creates a BSDF-sampling path tracer
func NewPathMATSIntegrator() *PathMATSIntegrator {
	return &PathMATSIntegrator{}
}

// Li traces a path by BSDF sampling only, collecting emission where the path hits it
func (p *PathMATSIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	result := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for {
		its, hit := s.RayIntersect(ray)
		if !hit {
			return result.Add(throughput.MultiplyVec(environmentRadiance(s, ray)))
		}
		result = result.Add(throughput.MultiplyVec(emittedRadiance(&its, ray)))

		survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), pathRouletteCap)
		if !survive {
			return result
		}
		throughput = throughput.Multiply(scale)

		bq := sampleQuery(&its, its.ToLocal(ray.Direction.Negate()))
		f := its.BSDF().Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			return result
		}
		throughput = throughput.MultiplyVec(f)
		ray = core.NewRay(its.Point, its.ToWorld(bq.Wo))
	}
}

// PathMISIntegrator is a path tracer that samples a light and the BSDF at every vertex
// and combines both with the balance heuristic. Paths end by Russian roulette only.
type PathMISIntegrator struct{}

// NewPathMISIntegrator creates a multiple importance sampling path tracer
func NewPathMISIntegrator() *PathMISIntegrator {
	return &PathMISIntegrator{}
}

// Li traces a path with light sampling at every vertex, weighting emission found by
// BSDF sampling against it
func (p *PathMISIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	result := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	// Weight of emission found by the BSDF sample that produced ray; camera rays are not MIS'd
	matWeight := 1.0
	its, hit := s.RayIntersect(ray)

	for {
		if !hit {
			return result.Add(throughput.MultiplyVec(environmentRadiance(s, ray)).Multiply(matWeight))
		}
		result = result.Add(throughput.MultiplyVec(emittedRadiance(&its, ray)).Multiply(matWeight))

		survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), core.RouletteCap)
		if !survive {
			return result
		}
		throughput = throughput.Multiply(scale)

		wi := its.ToLocal(ray.Direction.Negate())
		bsdf := its.BSDF()

		if ls, ok := sampleLight(s, sampler, &its, wi); ok {
			result = result.Add(throughput.MultiplyVec(ls.Contribution).Multiply(ls.Weight()))
		}

		bq := sampleQuery(&its, wi)
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			return result
		}
		throughput = throughput.MultiplyVec(f)
		ray = core.NewRay(its.Point, its.ToWorld(bq.Wo))

		// Look ahead: the next intersection decides this sample's MIS weight and is
		// reused as the next vertex
		next, nextHit := s.RayIntersect(ray)
		matWeight = materialWeight(s, bq, bsdf.PDF(bq), ray, &next, nextHit)
		its, hit = next, nextHit
	}
}
