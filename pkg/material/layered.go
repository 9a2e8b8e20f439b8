package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// Layered is a smooth dielectric coating over an absorbing slab over a base BSDF.
// Light either reflects specularly off the coating (with the Fresnel probability)
// or refracts into the slab, scatters off the base and refracts back out.
type Layered struct {
	IntIOR    float64   // index of the coating
	ExtIOR    float64   // index of the surrounding medium
	Thickness float64   // slab thickness
	SigmaA    core.Vec3 // slab absorption coefficient
	Base      BSDF
}

// NewLayered creates a coated BSDF over base
func NewLayered(base BSDF, intIOR, extIOR, thickness float64, sigmaA core.Vec3) *Layered {
	return &Layered{IntIOR: intIOR, ExtIOR: extIOR, Thickness: thickness, SigmaA: sigmaA, Base: base}
}

// eta is the ratio of the outer to the inner index
func (l *Layered) eta() float64 {
	return l.ExtIOR / l.IntIOR
}

// toInside maps an outside direction to the upward-facing direction inside the slab
func (l *Layered) toInside(w core.Vec3) core.Vec3 {
	eta := l.eta()
	cosT := math.Sqrt(math.Max(0, 1.0-eta*eta*core.SinTheta2(w)))
	return core.NewVec3(eta*w.X, eta*w.Y, cosT)
}

// toOutside maps an upward direction inside the slab back out; false on total internal reflection
func (l *Layered) toOutside(t core.Vec3) (core.Vec3, bool) {
	invEta := 1.0 / l.eta()
	cos2 := 1.0 - invEta*invEta*core.SinTheta2(t)
	if cos2 <= 0 {
		return core.Vec3{}, false
	}
	return core.NewVec3(invEta*t.X, invEta*t.Y, math.Sqrt(cos2)), true
}

// absorption returns the Beer-Lambert attenuation of a trip through the slab and back
func (l *Layered) absorption(ti, to core.Vec3) core.Vec3 {
	if l.Thickness == 0 || ti.Z <= 0 || to.Z <= 0 {
		return core.NewVec3(1, 1, 1)
	}
	pathLength := l.Thickness * (1.0/ti.Z + 1.0/to.Z)
	return l.SigmaA.Multiply(-pathLength).Exp()
}

func (l *Layered) baseQuery(q BSDFQuery, ti, to core.Vec3) BSDFQuery {
	bq := NewEvalQuery(ti, to, MeasureSolidAngle)
	bq.UV = q.UV
	bq.Point = q.Point
	return bq
}

// Eval returns the continuous part: the base lobe seen through the coating
func (l *Layered) Eval(q BSDFQuery) core.Vec3 {
	cosI := core.CosTheta(q.Wi)
	cosO := core.CosTheta(q.Wo)
	if q.Measure != MeasureSolidAngle || cosI <= 0 || cosO <= 0 {
		return core.Vec3{}
	}

	ti := l.toInside(q.Wi)
	to := l.toInside(q.Wo)
	fBase := l.Base.Eval(l.baseQuery(q, ti, to))
	if fBase.IsZero() {
		return core.Vec3{}
	}

	fi := FresnelDielectric(cosI, l.ExtIOR, l.IntIOR)
	fo := FresnelDielectric(cosO, l.ExtIOR, l.IntIOR)
	eta := l.eta()

	return fBase.MultiplyVec(l.absorption(ti, to)).Multiply((1 - fi) * (1 - fo) * eta * eta)
}

// PDF returns the density of the refracted base lobe, including the change of
// measure between directions inside and outside the slab
func (l *Layered) PDF(q BSDFQuery) float64 {
	cosI := core.CosTheta(q.Wi)
	cosO := core.CosTheta(q.Wo)
	if q.Measure != MeasureSolidAngle || cosI <= 0 || cosO <= 0 {
		return 0
	}

	ti := l.toInside(q.Wi)
	to := l.toInside(q.Wo)
	if to.Z <= 0 {
		return 0
	}

	fi := FresnelDielectric(cosI, l.ExtIOR, l.IntIOR)
	eta := l.eta()
	return (1 - fi) * l.Base.PDF(l.baseQuery(q, ti, to)) * eta * eta * cosO / to.Z
}

// Sample picks the specular coat reflection with probability F(wi), otherwise samples the base
func (l *Layered) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	cosI := core.CosTheta(q.Wi)
	if cosI <= 0 {
		return core.Vec3{}
	}

	fi := FresnelDielectric(cosI, l.ExtIOR, l.IntIOR)
	q.Eta = 1.0

	if sample.X < fi {
		q.Wo = reflect(q.Wi)
		q.Measure = MeasureDiscrete
		return core.NewVec3(1, 1, 1)
	}

	// Reuse the sample for the base lobe
	rescaled := core.NewVec2((sample.X-fi)/(1-fi), sample.Y)

	ti := l.toInside(q.Wi)
	bq := NewSampleQuery(ti)
	bq.UV = q.UV
	bq.Point = q.Point
	weight := l.Base.Sample(&bq, rescaled)
	if weight.IsZero() || bq.Wo.Z <= 0 {
		return core.Vec3{}
	}

	wo, ok := l.toOutside(bq.Wo)
	if !ok {
		return core.Vec3{}
	}

	q.Wo = wo
	q.Measure = bq.Measure

	fo := FresnelDielectric(wo.Z, l.ExtIOR, l.IntIOR)
	return weight.MultiplyVec(l.absorption(ti, bq.Wo)).Multiply(1 - fo)
}

// IsDiffuse returns false since the coating is specular
func (l *Layered) IsDiffuse() bool {
	return false
}
