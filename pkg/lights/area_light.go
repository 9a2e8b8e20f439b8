package lights

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
)

// AreaLight emits constant radiance from the front side of a shape
type AreaLight struct {
	Radiance core.Vec3
	shape    geometry.Shape
}

// NewAreaLight creates an area light. The shape is attached when the light is added to a scene primitive.
func NewAreaLight(radiance core.Vec3) *AreaLight {
	return &AreaLight{Radiance: radiance}
}

func (al *AreaLight) Type() LightType {
	return LightTypeArea
}

// AttachShape binds the light to the geometry it emits from
func (al *AreaLight) AttachShape(shape geometry.Shape) {
	al.shape = shape
}

// Shape returns the attached shape, or nil
func (al *AreaLight) Shape() geometry.Shape {
	return al.shape
}

func (al *AreaLight) mustShape() geometry.Shape {
	if al.shape == nil {
		panic(ErrNoShape)
	}
	return al.shape
}

// Eval returns the radiance leaving q.Point toward q.Ref, zero from the back side
func (al *AreaLight) Eval(q EmitterQuery) core.Vec3 {
	al.mustShape()
	if q.Normal.Dot(q.Wi.Negate()) > 0 {
		return al.Radiance
	}
	return core.Vec3{}
}

// Sample picks a point uniformly by area on the shape
func (al *AreaLight) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	s := al.mustShape().SampleSurface(sample)
	*q = NewEvalQuery(q.Ref, s.Point, s.Normal)

	pdf := al.PDF(*q)
	if pdf == 0 {
		return core.Vec3{}
	}
	return al.Eval(*q).Multiply(1.0 / pdf)
}

// PDF converts the shape's area density to solid angle at q.Ref
func (al *AreaLight) PDF(q EmitterQuery) float64 {
	shape := al.mustShape()
	cosTheta := q.Normal.Dot(q.Wi.Negate())
	if cosTheta <= 0 {
		return 0
	}
	distanceSquared := q.Point.Subtract(q.Ref).LengthSquared()
	return shape.PDFSurface(q.Point) * distanceSquared / cosTheta
}

// SamplePhoton emits from a uniform surface point in a cosine-weighted direction.
// The power is the light's share of flux, Radiance * pi / areaPDF.
func (al *AreaLight) SamplePhoton(samplePoint, sampleDirection core.Vec2) (core.Ray, core.Vec3) {
	s := al.mustShape().SampleSurface(samplePoint)
	if s.PDF == 0 {
		return core.Ray{}, core.Vec3{}
	}
	direction := core.NewFrame(s.Normal).ToWorld(core.SquareToCosineHemisphere(sampleDirection))
	return core.NewRay(s.Point, direction), al.Radiance.Multiply(math.Pi / s.PDF)
}
