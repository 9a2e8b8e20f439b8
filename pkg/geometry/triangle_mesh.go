package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-light-transport/pkg/core"
)

// TriangleMesh represents a collection of triangles with efficient ray intersection
// It uses an internal BVH (Bounding Volume Hierarchy) for fast intersection tests
type TriangleMesh struct {
	Positions []core.Vec3
	Normals   []core.Vec3 // optional, one per vertex
	UVs       []core.Vec2 // optional, one per vertex
	Indices   []int       // three per triangle

	triangles []Shape
	bvh       *BVH
	bbox      core.AABB
	areaCDF   []float64 // cumulative triangle areas, for area sampling
	area      float64
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Normals   []core.Vec3 // Optional per-vertex normals
	UVs       []core.Vec2 // Optional per-vertex texture coordinates
	Scale     float64     // Optional uniform scale (0 means 1)
	Rotation  *core.Vec3  // Optional rotation (radians around X, Y, Z) to apply to vertices
	Center    *core.Vec3  // Optional center point for rotation
	Translate *core.Vec3  // Optional offset applied last
}

// NewTriangleMesh creates a new triangle mesh from vertices and face indices
// vertices: array of 3D points
// faces: array of triangle indices (each group of 3 indices forms a triangle)
// options: optional parameters (can be nil for basic mesh)
func NewTriangleMesh(vertices []core.Vec3, faces []int, options *TriangleMeshOptions) *TriangleMesh {
	if len(faces)%3 != 0 {
		panic("Face indices must be a multiple of 3")
	}
	for _, index := range faces {
		if index < 0 || index >= len(vertices) {
			panic("Face index out of bounds")
		}
	}

	mesh := &TriangleMesh{
		Positions: transformVertices(vertices, options),
		Indices:   faces,
	}

	if options != nil {
		if options.Normals != nil {
			if len(options.Normals) != len(vertices) {
				panic("Number of normals must match number of vertices")
			}
			mesh.Normals = transformNormals(options.Normals, options)
		}
		if options.UVs != nil {
			if len(options.UVs) != len(vertices) {
				panic("Number of UVs must match number of vertices")
			}
			mesh.UVs = options.UVs
		}
	}

	numTriangles := len(faces) / 3
	mesh.triangles = make([]Shape, numTriangles)
	mesh.areaCDF = make([]float64, numTriangles)
	mesh.bbox = core.EmptyAABB()

	for i := 0; i < numTriangles; i++ {
		triangle := newTriangle(mesh, i)
		mesh.triangles[i] = triangle
		mesh.area += triangle.Area()
		mesh.areaCDF[i] = mesh.area
		mesh.bbox = mesh.bbox.Union(triangle.BoundingBox())
	}

	mesh.bvh = NewBVH(mesh.triangles)
	return mesh
}

// transformVertices applies scale, rotation and translation from the options
func transformVertices(vertices []core.Vec3, options *TriangleMeshOptions) []core.Vec3 {
	result := make([]core.Vec3, len(vertices))
	for i, vertex := range vertices {
		if options != nil {
			if options.Scale != 0 {
				vertex = vertex.Multiply(options.Scale)
			}
			if options.Rotation != nil {
				// Translate to center, rotate, then translate back
				if options.Center != nil {
					vertex = vertex.Subtract(*options.Center)
				}
				vertex = rotateVertex(vertex, *options.Rotation)
				if options.Center != nil {
					vertex = vertex.Add(*options.Center)
				}
			}
			if options.Translate != nil {
				vertex = vertex.Add(*options.Translate)
			}
		}
		result[i] = vertex
	}
	return result
}

// transformNormals rotates normals along with their vertices
func transformNormals(normals []core.Vec3, options *TriangleMeshOptions) []core.Vec3 {
	result := make([]core.Vec3, len(normals))
	for i, normal := range normals {
		if options.Rotation != nil {
			normal = rotateVertex(normal, *options.Rotation)
		}
		result[i] = normal.Normalize()
	}
	return result
}

// Hit tests if a ray intersects with any triangle in the mesh
func (tm *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	return tm.bvh.Hit(ray, tMin, tMax)
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (tm *TriangleMesh) BoundingBox() core.AABB {
	return tm.bbox
}

// Area returns the total surface area
func (tm *TriangleMesh) Area() float64 {
	return tm.area
}

// SampleSurface picks a triangle proportionally to its area, then a point uniformly on it
func (tm *TriangleMesh) SampleSurface(sample core.Vec2) SurfaceSample {
	if len(tm.triangles) == 0 {
		return SurfaceSample{}
	}

	target := sample.X * tm.area
	index := sort.SearchFloat64s(tm.areaCDF, target)
	if index >= len(tm.triangles) {
		index = len(tm.triangles) - 1
	}

	// Rescale the consumed sample dimension back to [0,1)
	lower := 0.0
	if index > 0 {
		lower = tm.areaCDF[index-1]
	}
	width := tm.areaCDF[index] - lower
	reused := 0.0
	if width > 0 {
		reused = math.Min((target-lower)/width, math.Nextafter(1, 0))
	}

	s := tm.triangles[index].SampleSurface(core.NewVec2(reused, sample.Y))
	s.PDF = 1.0 / tm.area
	return s
}

// PDFSurface returns the uniform area density over the whole mesh
func (tm *TriangleMesh) PDFSurface(point core.Vec3) float64 {
	if tm.area == 0 {
		return 0
	}
	return 1.0 / tm.area
}

// GetTriangleCount returns the number of triangles in this mesh
func (tm *TriangleMesh) GetTriangleCount() int {
	return len(tm.triangles)
}

// rotateVertex applies rotation around X, Y, Z axes (in that order)
func rotateVertex(vertex, rotation core.Vec3) core.Vec3 {
	if rotation.X != 0 {
		cos := math.Cos(rotation.X)
		sin := math.Sin(rotation.X)
		y := vertex.Y*cos - vertex.Z*sin
		z := vertex.Y*sin + vertex.Z*cos
		vertex = core.NewVec3(vertex.X, y, z)
	}

	if rotation.Y != 0 {
		cos := math.Cos(rotation.Y)
		sin := math.Sin(rotation.Y)
		x := vertex.X*cos + vertex.Z*sin
		z := -vertex.X*sin + vertex.Z*cos
		vertex = core.NewVec3(x, vertex.Y, z)
	}

	if rotation.Z != 0 {
		cos := math.Cos(rotation.Z)
		sin := math.Sin(rotation.Z)
		x := vertex.X*cos - vertex.Y*sin
		y := vertex.X*sin + vertex.Y*cos
		vertex = core.NewVec3(x, y, vertex.Z)
	}

	return vertex
}
