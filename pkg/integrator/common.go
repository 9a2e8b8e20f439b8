package integrator

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
	"github.com/df07/go-light-transport/pkg/scene"
)

// pathRouletteCap is the survival cap of the BSDF-sampling-only estimators
const pathRouletteCap = 0.999

// lightSample is the result of one light-sampling step at a surface or medium vertex
type lightSample struct {
	Contribution core.Vec3 // f·Le·cos/pdf, already scaled by the light count
	Point        core.Vec3 // sampled point on the light (unused for environments)
	Infinite     bool      // the light is an environment at infinity
	LightPDF     float64   // solid angle density including the 1/n light selection
	ScatterPDF   float64   // density of the BSDF or phase function for the same direction
	Delta        bool      // the light cannot be hit by BSDF sampling
}

// Weight returns the balance-heuristic weight of the light-sampling strategy
func (ls lightSample) Weight() float64 {
	if ls.Delta {
		return 1
	}
	return core.BalanceHeuristic(1, ls.LightPDF, 1, ls.ScatterPDF)
}

// emitterSample picks one light uniformly and samples it from ref. The returned value is
// Le/pdf scaled by the number of lights; zero means sampling failed or the sample is occluded.
func emitterSample(s *scene.Scene, sampler core.Sampler, ref core.Vec3) (lights.Emitter, lights.EmitterQuery, core.Vec3, bool) {
	n := len(s.GetLights())
	if n == 0 {
		return nil, lights.EmitterQuery{}, core.Vec3{}, false
	}

	emitter := s.GetRandomEmitter(sampler.Get1D())
	q := lights.NewSampleQuery(ref)
	value := emitter.Sample(&q, sampler.Get2D())
	if value.IsZero() || !value.IsValid() {
		return nil, q, core.Vec3{}, false
	}
	if s.Occluded(q.ShadowRay) {
		return nil, q, core.Vec3{}, false
	}
	return emitter, q, value.Multiply(float64(n)), true
}

// sampleLight performs one light-sampling step at a surface: choose a light uniformly,
// sample it, evaluate the BSDF toward it and test visibility
func sampleLight(s *scene.Scene, sampler core.Sampler, its *scene.Intersection, wi core.Vec3) (lightSample, bool) {
	emitter, q, value, ok := emitterSample(s, sampler, its.Point)
	if !ok {
		return lightSample{}, false
	}

	wo := its.ToLocal(q.Wi)
	bq := evalQuery(its, wi, wo)
	f := its.BSDF().Eval(bq)
	if f.IsZero() {
		return lightSample{}, false
	}

	n := float64(len(s.GetLights()))
	return lightSample{
		Contribution: f.MultiplyVec(value).Multiply(math.Abs(core.CosTheta(wo))),
		Point:        q.Point,
		Infinite:     emitter.Type() == lights.LightTypeInfinite,
		LightPDF:     emitter.PDF(q) / n,
		ScatterPDF:   its.BSDF().PDF(bq),
		Delta:        lights.IsDelta(emitter),
	}, true
}

// evalQuery builds a solid angle BSDF query at a surface hit
func evalQuery(its *scene.Intersection, wi, wo core.Vec3) material.BSDFQuery {
	bq := material.NewEvalQuery(wi, wo, material.MeasureSolidAngle)
	bq.UV = its.UV
	bq.Point = its.Point
	return bq
}

// sampleQuery builds a BSDF query whose outgoing direction will be sampled
func sampleQuery(its *scene.Intersection, wi core.Vec3) material.BSDFQuery {
	bq := material.NewSampleQuery(wi)
	bq.UV = its.UV
	bq.Point = its.Point
	return bq
}

// emittedRadiance returns the radiance an emissive surface sends back along ray
func emittedRadiance(its *scene.Intersection, ray core.Ray) core.Vec3 {
	emitter := its.Emitter()
	if emitter == nil {
		return core.Vec3{}
	}
	return emitter.Eval(lights.NewEvalQuery(ray.Origin, its.Point, its.GeoFrame.N))
}

// environmentRadiance returns the environment emission seen along ray, or zero
func environmentRadiance(s *scene.Scene, ray core.Ray) core.Vec3 {
	env := s.GetEnvEmitter()
	if env == nil {
		return core.Vec3{}
	}
	return env.Eval(lights.NewDirectionQuery(ray.Origin, ray.Direction))
}

// emitterPDF returns the light-sampling density, including the 1/n selection, of reaching
// the found surface (or the environment when hit is false) along ray. Zero when nothing emits there.
func emitterPDF(s *scene.Scene, ray core.Ray, its *scene.Intersection, hit bool) float64 {
	n := float64(len(s.GetLights()))
	if n == 0 {
		return 0
	}
	if !hit {
		env := s.GetEnvEmitter()
		if env == nil {
			return 0
		}
		return env.PDF(lights.NewDirectionQuery(ray.Origin, ray.Direction)) / n
	}
	emitter := its.Emitter()
	if emitter == nil {
		return 0
	}
	return emitter.PDF(lights.NewEvalQuery(ray.Origin, its.Point, its.GeoFrame.N)) / n
}

// materialWeight is the balance-heuristic weight of a BSDF-sampled direction that
// reaches the next vertex. Discrete samples cannot be produced by light sampling.
func materialWeight(s *scene.Scene, bq material.BSDFQuery, scatterPDF float64, ray core.Ray, next *scene.Intersection, hit bool) float64 {
	if bq.Measure == material.MeasureDiscrete {
		return 1
	}
	return core.BalanceHeuristic(1, scatterPDF, 1, emitterPDF(s, ray, next, hit))
}
