package material

import (
	"github.com/df07/go-light-transport/pkg/core"
)

// MultiLayered composes a rough dielectric coating with a base BSDF.
// The coating reflects through a Beckmann microfacet lobe weighted by the
// dielectric Fresnel term; the remainder is transmitted to the base and
// attenuated by the Fresnel transmittance at both the entry and the exit.
type MultiLayered struct {
	Alpha  float64 // coating roughness
	IntIOR float64
	ExtIOR float64
	Base   BSDF
}

// NewMultiLayered creates a rough coating over base
func NewMultiLayered(base BSDF, alpha, intIOR, extIOR float64) *MultiLayered {
	return &MultiLayered{Alpha: alpha, IntIOR: intIOR, ExtIOR: extIOR, Base: base}
}

// NewRoughPlastic creates a rough dielectric coating over a Lambertian base
func NewRoughPlastic(kd core.Vec3, alpha float64) *MultiLayered {
	return NewMultiLayered(NewDiffuse(kd), alpha, DefaultIntIOR, DefaultExtIOR)
}

// coatProbability is the chance of sampling the coating lobe for a given wi
func (m *MultiLayered) coatProbability(cosThetaI float64) float64 {
	return FresnelDielectric(cosThetaI, m.ExtIOR, m.IntIOR)
}

// Eval returns the coating lobe plus the Fresnel-attenuated base lobe
func (m *MultiLayered) Eval(q BSDFQuery) core.Vec3 {
	cosI := core.CosTheta(q.Wi)
	cosO := core.CosTheta(q.Wo)
	if q.Measure != MeasureSolidAngle || cosI <= 0 || cosO <= 0 {
		return core.Vec3{}
	}

	wh := q.Wi.Add(q.Wo).Normalize()
	d := beckmannD(wh, m.Alpha)
	g := smithG1(q.Wi, wh, m.Alpha) * smithG1(q.Wo, wh, m.Alpha)
	f := FresnelDielectric(wh.Dot(q.Wi), m.ExtIOR, m.IntIOR)
	coat := d * g * f / (4.0 * cosI * cosO)

	ti := 1 - FresnelDielectric(cosI, m.ExtIOR, m.IntIOR)
	to := 1 - FresnelDielectric(cosO, m.ExtIOR, m.IntIOR)
	base := m.Base.Eval(q).Multiply(ti * to)

	return base.Add(core.NewVec3(coat, coat, coat))
}

// PDF mixes the coating and base densities by the lobe selection probability
func (m *MultiLayered) PDF(q BSDFQuery) float64 {
	cosI := core.CosTheta(q.Wi)
	if q.Measure != MeasureSolidAngle || cosI <= 0 || core.CosTheta(q.Wo) <= 0 {
		return 0
	}

	ps := m.coatProbability(cosI)
	return ps*microfacetReflectionPDF(q.Wi, q.Wo, m.Alpha) + (1-ps)*m.Base.PDF(q)
}

// Sample picks the coating lobe with probability F(wi), otherwise samples the base
func (m *MultiLayered) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	cosI := core.CosTheta(q.Wi)
	if cosI <= 0 {
		return core.Vec3{}
	}

	ps := m.coatProbability(cosI)
	q.Eta = 1.0

	if sample.X < ps {
		rescaled := core.NewVec2(sample.X/ps, sample.Y)
		wh := core.SquareToBeckmann(rescaled, m.Alpha)
		q.Wo = reflectAbout(q.Wi, wh)
		q.Measure = MeasureSolidAngle
	} else {
		rescaled := core.NewVec2((sample.X-ps)/(1-ps), sample.Y)
		bq := *q
		weight := m.Base.Sample(&bq, rescaled)
		if weight.IsZero() || core.CosTheta(bq.Wo) <= 0 {
			return core.Vec3{}
		}
		q.Wo = bq.Wo
		q.Measure = bq.Measure

		if bq.Measure == MeasureDiscrete {
			// Selection probability (1-ps) cancels the entry transmittance
			to := 1 - FresnelDielectric(core.CosTheta(q.Wo), m.ExtIOR, m.IntIOR)
			return weight.Multiply(to)
		}
	}

	cosO := core.CosTheta(q.Wo)
	if cosO <= 0 {
		return core.Vec3{}
	}
	pdf := m.PDF(*q)
	if pdf <= 0 {
		return core.Vec3{}
	}
	return m.Eval(*q).Multiply(cosO / pdf)
}

// IsDiffuse returns false since the coating is glossy
func (m *MultiLayered) IsDiffuse() bool {
	return false
}
