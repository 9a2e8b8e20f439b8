package material

import (
	"github.com/df07/go-light-transport/pkg/core"
)

// Measure identifies the measure a BSDF density is expressed in
type Measure int

const (
	MeasureUnknown    Measure = iota // not yet determined (before sampling)
	MeasureSolidAngle                // continuous density over directions
	MeasureDiscrete                  // Dirac delta (mirror, ideal refraction)
)

// String returns a readable name for the measure
func (m Measure) String() string {
	switch m {
	case MeasureSolidAngle:
		return "solid-angle"
	case MeasureDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// BSDFQuery carries the directions of a BSDF evaluation or sample.
// All vectors are in the local shading frame where the normal is +Z.
// Wi points toward the viewer (the previous path vertex), Wo toward the next one.
type BSDFQuery struct {
	Wi      core.Vec3
	Wo      core.Vec3
	Measure Measure
	UV      core.Vec2
	Point   core.Vec3 // world-space position, for procedural textures
	Eta     float64   // relative index of refraction along the sampled direction
}

// NewSampleQuery prepares a query whose outgoing direction will be sampled
func NewSampleQuery(wi core.Vec3) BSDFQuery {
	return BSDFQuery{Wi: wi, Measure: MeasureUnknown, Eta: 1.0}
}

// NewEvalQuery prepares a query for evaluating a known pair of directions
func NewEvalQuery(wi, wo core.Vec3, measure Measure) BSDFQuery {
	return BSDFQuery{Wi: wi, Wo: wo, Measure: measure, Eta: 1.0}
}

// BSDF is a bidirectional scattering distribution function in the local shading frame
type BSDF interface {
	// Eval returns f(wi, wo) without the cosine foreshortening term.
	// Discrete components evaluate to zero.
	Eval(q BSDFQuery) core.Vec3

	// Sample chooses q.Wo, sets q.Measure and q.Eta, and returns f·cos/pdf.
	// A zero return value means the sample failed and the path should end.
	Sample(q *BSDFQuery, sample core.Vec2) core.Vec3

	// PDF returns the solid angle density with which Sample generates q.Wo
	PDF(q BSDFQuery) float64

	// IsDiffuse reports whether photons may be stored on surfaces with this BSDF
	IsDiffuse() bool
}

// reflect mirrors a local direction about the +Z normal
func reflect(wi core.Vec3) core.Vec3 {
	return core.NewVec3(-wi.X, -wi.Y, wi.Z)
}

// reflectAbout mirrors wi about an arbitrary unit vector m
func reflectAbout(wi, m core.Vec3) core.Vec3 {
	return m.Multiply(2.0 * wi.Dot(m)).Subtract(wi)
}
