package geometry

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// Quad represents a parallelogram defined by a corner and two edge vectors.
// The outward normal is U × V.
type Quad struct {
	Corner core.Vec3 // One corner of the quad
	U      core.Vec3 // First edge vector
	V      core.Vec3 // Second edge vector
	Normal core.Vec3 // Unit normal (U × V normalized)
	D      float64   // Plane equation constant: normal · x = D
	W      core.Vec3 // Cached cross product for planar coordinates
	area   float64
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()

	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Normal: normal,
		D:      normal.Dot(corner),
		W:      cross.Multiply(1.0 / cross.Dot(cross)),
		area:   cross.Length(),
	}
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(q.Normal)

	// Ray is parallel to the quad's plane
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hitPoint := ray.At(t)
	hitVector := hitPoint.Subtract(q.Corner)

	// Planar coordinates of the hit point along U and V
	alpha := q.W.Dot(hitVector.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(hitVector))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}

	return &HitRecord{
		T:             t,
		Point:         hitPoint,
		Normal:        q.Normal,
		ShadingNormal: q.Normal,
		UV:            core.NewVec2(alpha, beta),
	}, true
}

// BoundingBox returns the bounding box, padded along flat axes
func (q *Quad) BoundingBox() core.AABB {
	box := core.NewAABBFromPoints(q.Corner, q.Corner.Add(q.U), q.Corner.Add(q.V), q.Corner.Add(q.U).Add(q.V))

	const padding = 1e-4
	size := box.Size()
	pad := core.NewVec3(
		math.Max(0, padding-size.X),
		math.Max(0, padding-size.Y),
		math.Max(0, padding-size.Z),
	)
	return core.NewAABB(box.Min.Subtract(pad), box.Max.Add(pad))
}

// SampleSurface draws a point uniformly over the quad
func (q *Quad) SampleSurface(sample core.Vec2) SurfaceSample {
	return SurfaceSample{
		Point:  q.Corner.Add(q.U.Multiply(sample.X)).Add(q.V.Multiply(sample.Y)),
		Normal: q.Normal,
		PDF:    1.0 / q.area,
	}
}

// PDFSurface returns the uniform area density
func (q *Quad) PDFSurface(point core.Vec3) float64 {
	return 1.0 / q.area
}

// Area returns the surface area
func (q *Quad) Area() float64 {
	return q.area
}
