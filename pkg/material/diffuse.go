package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// Diffuse is an ideal Lambertian reflector
type Diffuse struct {
	Albedo ColorSource
}

// NewDiffuse creates a Lambertian BSDF with a constant albedo
func NewDiffuse(albedo core.Vec3) *Diffuse {
	return &Diffuse{Albedo: NewSolidColor(albedo)}
}

// NewTexturedDiffuse creates a Lambertian BSDF whose albedo varies over the surface
func NewTexturedDiffuse(albedo ColorSource) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

// Eval returns albedo/pi when both directions lie above the surface
func (d *Diffuse) Eval(q BSDFQuery) core.Vec3 {
	if q.Measure != MeasureSolidAngle || core.CosTheta(q.Wi) <= 0 || core.CosTheta(q.Wo) <= 0 {
		return core.Vec3{}
	}
	return d.Albedo.Evaluate(q.UV, q.Point).Multiply(1.0 / math.Pi)
}

// PDF returns the cosine-weighted hemisphere density
func (d *Diffuse) PDF(q BSDFQuery) float64 {
	if q.Measure != MeasureSolidAngle || core.CosTheta(q.Wi) <= 0 || core.CosTheta(q.Wo) <= 0 {
		return 0
	}
	return core.SquareToCosineHemispherePDF(q.Wo)
}

// Sample draws a cosine-weighted direction; the returned weight is the albedo
func (d *Diffuse) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	if core.CosTheta(q.Wi) <= 0 {
		return core.Vec3{}
	}

	q.Measure = MeasureSolidAngle
	q.Wo = core.SquareToCosineHemisphere(sample)
	q.Eta = 1.0

	// eval * cos / pdf = (albedo/pi) * cos / (cos/pi)
	return d.Albedo.Evaluate(q.UV, q.Point)
}

// IsDiffuse returns true
func (d *Diffuse) IsDiffuse() bool {
	return true
}
