package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// beckmannD evaluates the Beckmann distribution of normals for a local half vector
func beckmannD(wh core.Vec3, alpha float64) float64 {
	cosTheta := core.CosTheta(wh)
	if cosTheta <= 0 {
		return 0
	}
	cos2 := cosTheta * cosTheta
	tan2 := (1.0 - cos2) / cos2
	return math.Exp(-tan2/(alpha*alpha)) / (math.Pi * alpha * alpha * cos2 * cos2)
}

// smithG1 is the rational approximation of the Smith shadowing term for the Beckmann distribution
func smithG1(wv, wh core.Vec3, alpha float64) float64 {
	cosTheta := core.CosTheta(wv)
	if cosTheta == 0 || wv.Dot(wh)/cosTheta <= 0 {
		return 0
	}

	tanTheta := math.Abs(core.TanTheta(wv))
	if tanTheta == 0 {
		return 1
	}

	b := 1.0 / (alpha * tanTheta)
	if b >= 1.6 {
		return 1
	}
	b2 := b * b
	return (3.535*b + 2.181*b2) / (1.0 + 2.276*b + 2.577*b2)
}

// microfacetReflectionPDF is the density of reflecting wi about a Beckmann-sampled half vector into wo
func microfacetReflectionPDF(wi, wo core.Vec3, alpha float64) float64 {
	wh := wi.Add(wo).Normalize()
	denom := 4.0 * math.Abs(wh.Dot(wo))
	if denom == 0 {
		return 0
	}
	return beckmannD(wh, alpha) * core.CosTheta(wh) / denom
}

// RoughConductor is a Beckmann microfacet conductor
type RoughConductor struct {
	Alpha float64
	Eta   core.Vec3
	K     core.Vec3
}

// NewRoughConductor creates a rough conductor with roughness alpha
func NewRoughConductor(alpha float64, eta, k core.Vec3) *RoughConductor {
	return &RoughConductor{Alpha: alpha, Eta: eta, K: k}
}

// Eval returns D·F·G / (4 cos(wi) cos(wo))
func (r *RoughConductor) Eval(q BSDFQuery) core.Vec3 {
	cosI := core.CosTheta(q.Wi)
	cosO := core.CosTheta(q.Wo)
	if q.Measure != MeasureSolidAngle || cosI <= 0 || cosO <= 0 {
		return core.Vec3{}
	}

	wh := q.Wi.Add(q.Wo).Normalize()
	d := beckmannD(wh, r.Alpha)
	g := smithG1(q.Wi, wh, r.Alpha) * smithG1(q.Wo, wh, r.Alpha)
	f := FresnelConductor(wh.Dot(q.Wo), r.Eta, r.K)

	return f.Multiply(d * g / (4.0 * cosI * cosO))
}

// PDF returns the density of the half-vector sampling strategy
func (r *RoughConductor) PDF(q BSDFQuery) float64 {
	if q.Measure != MeasureSolidAngle || core.CosTheta(q.Wi) <= 0 || core.CosTheta(q.Wo) <= 0 {
		return 0
	}
	return microfacetReflectionPDF(q.Wi, q.Wo, r.Alpha)
}

// Sample draws a Beckmann half vector and reflects wi about it
func (r *RoughConductor) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	if core.CosTheta(q.Wi) <= 0 {
		return core.Vec3{}
	}

	wh := core.SquareToBeckmann(sample, r.Alpha)
	q.Wo = reflectAbout(q.Wi, wh)
	q.Measure = MeasureSolidAngle
	q.Eta = 1.0

	if core.CosTheta(q.Wo) <= 0 {
		return core.Vec3{}
	}

	pdf := r.PDF(*q)
	if pdf <= 0 {
		return core.Vec3{}
	}
	return r.Eval(*q).Multiply(core.CosTheta(q.Wo) / pdf)
}

// IsDiffuse returns false
func (r *RoughConductor) IsDiffuse() bool {
	return false
}
