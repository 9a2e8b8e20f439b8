package geometry

import "github.com/df07/go-light-transport/pkg/core"

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point         core.Vec3 // Point of intersection
	Normal        core.Vec3 // Outward geometric normal
	ShadingNormal core.Vec3 // Interpolated normal (equals Normal for analytic shapes)
	UV            core.Vec2 // Surface parameterization
	T             float64   // Parameter t along the ray
	Index         int       // Index of the shape in the slice the enclosing BVH was built from
}

// FrontFace reports whether the ray arrived on the side the normal points to
func (h *HitRecord) FrontFace(ray core.Ray) bool {
	return ray.Direction.Dot(h.Normal) < 0
}

// SurfaceSample is a point drawn on a shape's surface
type SurfaceSample struct {
	Point  core.Vec3
	Normal core.Vec3
	PDF    float64 // area density
}

// Shape interface for objects that can be hit by rays and sampled by area
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool)
	BoundingBox() core.AABB

	// SampleSurface draws a point uniformly by area
	SampleSurface(sample core.Vec2) SurfaceSample
	// PDFSurface returns the area density of SampleSurface at point
	PDFSurface(point core.Vec3) float64
	Area() float64
}
