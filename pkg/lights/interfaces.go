package lights

import (
	"errors"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
)

type LightType string

const (
	LightTypeArea     LightType = "area"
	LightTypePoint    LightType = "point"
	LightTypeSpot     LightType = "spot"
	LightTypeInfinite LightType = "infinite"
)

// ErrNoShape is raised when an area light is used before a shape is attached to it
var ErrNoShape = errors.New("area light has no attached shape")

// EmitterQuery carries the data exchanged with an emitter.
// Wi points from Ref toward the light.
type EmitterQuery struct {
	Ref       core.Vec3 // Reference point being lit
	Point     core.Vec3 // Point on the light
	Normal    core.Vec3 // Light surface normal at Point
	Wi        core.Vec3 // Unit direction from Ref to Point
	ShadowRay core.Ray  // Segment from Ref to Point for the visibility test
}

// NewSampleQuery prepares a query for Emitter.Sample; the light fills in the rest
func NewSampleQuery(ref core.Vec3) EmitterQuery {
	return EmitterQuery{Ref: ref}
}

// NewEvalQuery describes a known point on a light seen from ref
func NewEvalQuery(ref, point, normal core.Vec3) EmitterQuery {
	toLight := point.Subtract(ref)
	distance := toLight.Length()
	wi := toLight.Normalize()
	return EmitterQuery{
		Ref:       ref,
		Point:     point,
		Normal:    normal,
		Wi:        wi,
		ShadowRay: core.NewRaySegment(ref, wi, core.Epsilon, distance-core.Epsilon),
	}
}

// NewDirectionQuery describes a direction toward an environment emitter
func NewDirectionQuery(ref, wi core.Vec3) EmitterQuery {
	wi = wi.Normalize()
	return EmitterQuery{
		Ref:       ref,
		Wi:        wi,
		ShadowRay: core.NewRay(ref, wi),
	}
}

// Emitter is a source of light that can be evaluated, sampled, and used to emit photons
type Emitter interface {
	Type() LightType

	// Eval returns the emitted quantity for a fully specified query
	Eval(q EmitterQuery) core.Vec3

	// Sample chooses a point on the light as seen from q.Ref, fills in q, and
	// returns Eval/PDF. A zero return means sampling failed.
	Sample(q *EmitterQuery, sample core.Vec2) core.Vec3

	// PDF returns the solid angle density of Sample producing q. Delta lights return 1.
	PDF(q EmitterQuery) float64

	// SamplePhoton returns a photon ray leaving the light and the power it carries
	SamplePhoton(samplePoint, sampleDirection core.Vec2) (core.Ray, core.Vec3)
}

// IsDelta reports whether the emitter is a point-like light that no BSDF sample can hit
func IsDelta(e Emitter) bool {
	t := e.Type()
	return t == LightTypePoint || t == LightTypeSpot
}

// ShapeAttacher is implemented by lights that take their geometry from the primitive they are attached to
type ShapeAttacher interface {
	AttachShape(shape geometry.Shape)
	Shape() geometry.Shape
}

// Preprocessor is implemented by lights that need the scene bounds before rendering
type Preprocessor interface {
	Preprocess(worldCenter core.Vec3, worldRadius float64) error
}
