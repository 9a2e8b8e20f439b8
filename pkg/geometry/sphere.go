package geometry

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return nil, false
		}
	}

	point := ray.At(root)
	normal := point.Subtract(s.Center).Multiply(1.0 / s.Radius)

	return &HitRecord{
		T:             root,
		Point:         point,
		Normal:        normal,
		ShadingNormal: normal,
		UV:            sphereUV(normal),
	}, true
}

// sphereUV maps an outward unit normal to longitude/latitude coordinates
func sphereUV(n core.Vec3) core.Vec2 {
	phi := math.Atan2(n.Z, n.X) + math.Pi
	theta := math.Acos(math.Max(-1, math.Min(1, n.Y)))
	return core.NewVec2(phi/(2*math.Pi), 1.0-theta/math.Pi)
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}

// SampleSurface draws a point uniformly over the sphere
func (s *Sphere) SampleSurface(sample core.Vec2) SurfaceSample {
	n := core.SquareToUniformSphere(sample)
	return SurfaceSample{
		Point:  s.Center.Add(n.Multiply(s.Radius)),
		Normal: n,
		PDF:    1.0 / s.Area(),
	}
}

// PDFSurface returns the uniform area density
func (s *Sphere) PDFSurface(point core.Vec3) float64 {
	return 1.0 / s.Area()
}

// Area returns the surface area
func (s *Sphere) Area() float64 {
	return 4.0 * math.Pi * s.Radius * s.Radius
}
