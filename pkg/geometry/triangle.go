package geometry

import (
	"github.com/df07/go-light-transport/pkg/core"
)

// Triangle is one face of a TriangleMesh
type Triangle struct {
	mesh *TriangleMesh
	face int
	bbox core.AABB
}

func newTriangle(mesh *TriangleMesh, face int) *Triangle {
	t := &Triangle{mesh: mesh, face: face}
	v0, v1, v2 := t.Vertices()
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)
	return t
}

// Vertices returns the three corner positions
func (t *Triangle) Vertices() (core.Vec3, core.Vec3, core.Vec3) {
	i := t.face * 3
	idx := t.mesh.Indices
	return t.mesh.Positions[idx[i]], t.mesh.Positions[idx[i+1]], t.mesh.Positions[idx[i+2]]
}

// GeometricNormal returns the winding-order normal
func (t *Triangle) GeometricNormal() core.Vec3 {
	v0, v1, v2 := t.Vertices()
	return v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
}

// interpolate fills normals and UVs from barycentric coordinates (b1, b2) of v1 and v2
func (t *Triangle) interpolate(b1, b2 float64, geometric core.Vec3) (core.Vec3, core.Vec2) {
	b0 := 1.0 - b1 - b2
	i := t.face * 3
	idx := t.mesh.Indices

	shading := geometric
	if len(t.mesh.Normals) > 0 {
		n := t.mesh.Normals[idx[i]].Multiply(b0).
			Add(t.mesh.Normals[idx[i+1]].Multiply(b1)).
			Add(t.mesh.Normals[idx[i+2]].Multiply(b2)).
			Normalize()
		if !n.IsZero() {
			shading = n
		}
	}

	uv := core.NewVec2(b1, b2)
	if len(t.mesh.UVs) > 0 {
		uv0, uv1, uv2 := t.mesh.UVs[idx[i]], t.mesh.UVs[idx[i+1]], t.mesh.UVs[idx[i+2]]
		uv = core.NewVec2(
			b0*uv0.X+b1*uv1.X+b2*uv2.X,
			b0*uv0.Y+b1*uv1.Y+b2*uv2.Y,
		)
	}
	return shading, uv
}

// Hit tests if a ray intersects with the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	const epsilon = 1e-12

	v0, v1, v2 := t.Vertices()
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return nil, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return nil, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return nil, false
	}

	tHit := f * edge2.Dot(q)
	if tHit < tMin || tHit > tMax {
		return nil, false
	}

	normal := edge1.Cross(edge2).Normalize()
	shading, uv := t.interpolate(u, v, normal)

	return &HitRecord{
		T:             tHit,
		Point:         ray.At(tHit),
		Normal:        normal,
		ShadingNormal: shading,
		UV:            uv,
	}, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Area returns the triangle's surface area
func (t *Triangle) Area() float64 {
	v0, v1, v2 := t.Vertices()
	return 0.5 * v1.Subtract(v0).Cross(v2.Subtract(v0)).Length()
}

// SampleSurface draws a point uniformly over the triangle
func (t *Triangle) SampleSurface(sample core.Vec2) SurfaceSample {
	v0, v1, v2 := t.Vertices()
	b := core.SquareToUniformTriangle(sample)
	b1, b2 := b.Y, 1.0-b.X-b.Y
	point := v0.Multiply(b.X).Add(v1.Multiply(b1)).Add(v2.Multiply(b2))
	normal, _ := t.interpolate(b1, b2, t.GeometricNormal())
	return SurfaceSample{Point: point, Normal: normal, PDF: 1.0 / t.Area()}
}

// PDFSurface returns the uniform area density
func (t *Triangle) PDFSurface(point core.Vec3) float64 {
	return 1.0 / t.Area()
}
