package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/medium"
	"github.com/df07/go-light-transport/pkg/scene"
)

// VolumetricPathIntegrator is a path tracer through a scene filled with a homogeneous
// medium. Free-flight sampling decides between scattering in the medium and reaching
// the next surface; both vertices sample a light and combine it with the phase
// function or BSDF sample by multiple importance sampling.
type VolumetricPathIntegrator struct{}

// NewVolumetricPathIntegrator creates a volumetric path tracer
func NewVolumetricPathIntegrator() *VolumetricPathIntegrator {
	return &VolumetricPathIntegrator{}
}

// Preprocess rejects scenes without a medium
func (v *VolumetricPathIntegrator) Preprocess(s *scene.Scene) error {
	if s.GetMedium() == nil {
		return fmt.Errorf("vol_path: %w", ErrNoMedium)
	}
	return nil
}

// Li traces a path through the medium, sampling lights at scattering and surface vertices
func (v *VolumetricPathIntegrator) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	m := s.GetMedium()
	if m == nil {
		panic(ErrNoMedium)
	}

	result := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)
	matWeight := 1.0
	its, hit := s.RayIntersect(ray)

	for {
		tMax := math.Inf(1)
		if hit {
			tMax = its.T
		}

		// A vacuum never scatters and consumes no sample
		distance, weight, scattered := tMax, core.NewVec3(1, 1, 1), false
		if !m.IsVacuum() {
			distance, weight, scattered = m.SampleDistance(sampler.Get1D(), tMax)
		}
		throughput = throughput.MultiplyVec(weight)

		if scattered {
			point := ray.At(distance)

			survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), core.RouletteCap)
			if !survive {
				return result
			}
			throughput = throughput.Multiply(scale)

			if ls, ok := sampleLightInMedium(s, m, sampler, point); ok {
				result = result.Add(throughput.MultiplyVec(ls.Contribution).Multiply(ls.Weight()))
			}

			// The isotropic phase function is sampled exactly, so the weight is 1
			ray = core.NewRay(point, m.SamplePhase(sampler.Get2D()))
			next, nextHit := s.RayIntersect(ray)
			matWeight = core.BalanceHeuristic(1, m.PhasePDF(), 1, emitterPDF(s, ray, &next, nextHit))
			its, hit = next, nextHit
			continue
		}

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
			tr := lightTransmittance(m, its.Point, ls)
			result = result.Add(throughput.MultiplyVec(ls.Contribution).MultiplyVec(tr).Multiply(ls.Weight()))
		}

		bq := sampleQuery(&its, wi)
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			return result
		}
		throughput = throughput.MultiplyVec(f)
		ray = core.NewRay(its.Point, its.ToWorld(bq.Wo))

		next, nextHit := s.RayIntersect(ray)
		matWeight = materialWeight(s, bq, bsdf.PDF(bq), ray, &next, nextHit)
		its, hit = next, nextHit
	}
}

// sampleLightInMedium is the light-sampling step at a scattering vertex: the phase
// function replaces the BSDF and the medium attenuates the light
func sampleLightInMedium(s *scene.Scene, m *medium.Homogeneous, sampler core.Sampler, point core.Vec3) (lightSample, bool) {
	emitter, q, value, ok := emitterSample(s, sampler, point)
	if !ok {
		return lightSample{}, false
	}

	ls := lightSample{
		Point:      q.Point,
		Infinite:   emitter.Type() == lights.LightTypeInfinite,
		LightPDF:   emitter.PDF(q) / float64(len(s.GetLights())),
		ScatterPDF: m.PhasePDF(),
		Delta:      lights.IsDelta(emitter),
	}
	tr := lightTransmittance(m, point, ls)
	if tr.IsZero() {
		return lightSample{}, false
	}
	ls.Contribution = value.MultiplyVec(tr).Multiply(m.Phase())
	return ls, true
}

// lightTransmittance attenuates a light sample by the medium between from and the light
func lightTransmittance(m *medium.Homogeneous, from core.Vec3, ls lightSample) core.Vec3 {
	if ls.Infinite {
		return m.TransmittanceDistance(math.Inf(1))
	}
	return m.Transmittance(from, ls.Point)
}
