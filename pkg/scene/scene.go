package scene

import (
	"fmt"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
	"github.com/df07/go-light-transport/pkg/medium"
)

// Primitive binds a shape to its surface BSDF and optional emitter
type Primitive struct {
	Shape   geometry.Shape
	BSDF    material.BSDF
	Emitter lights.Emitter // nil for non-emissive surfaces
}

// IsEmitter reports whether the primitive emits light
func (p *Primitive) IsEmitter() bool {
	return p.Emitter != nil
}

// Intersection describes the closest surface hit along a ray
type Intersection struct {
	Point     core.Vec3
	T         float64
	UV        core.Vec2
	ShFrame   core.Frame // shading frame, N is the interpolated normal
	GeoFrame  core.Frame // geometric frame, N is the outward face normal
	Primitive *Primitive
}

// ToLocal converts a world direction into the shading frame
func (its *Intersection) ToLocal(v core.Vec3) core.Vec3 {
	return its.ShFrame.ToLocal(v)
}

// ToWorld converts a shading-frame direction into world space
func (its *Intersection) ToWorld(v core.Vec3) core.Vec3 {
	return its.ShFrame.ToWorld(v)
}

// BSDF returns the hit surface's BSDF
func (its *Intersection) BSDF() material.BSDF {
	return its.Primitive.BSDF
}

// Emitter returns the hit surface's emitter, or nil
func (its *Intersection) Emitter() lights.Emitter {
	return its.Primitive.Emitter
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int    // Image width
	Height          int    // Image height
	SamplesPerPixel int    // Number of samples per pixel
	Integrator      string // Preferred integrator for this scene
}

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	SamplingConfig SamplingConfig
	Primitives     []*Primitive
	Lights         []lights.Emitter
	BVH            *geometry.BVH // Acceleration structure for ray-object intersection

	envEmitter lights.Emitter
	medium     *medium.Homogeneous
}

// NewScene creates an empty scene viewed through the given camera
func NewScene(cameraConfig geometry.CameraConfig, samplingConfig SamplingConfig) *Scene {
	return &Scene{
		CameraConfig:   cameraConfig,
		SamplingConfig: samplingConfig,
	}
}

// AddPrimitive adds a surface. A nil BSDF defaults to a 50% grey diffuse; a non-nil
// emitter is attached to the shape and registered as a light.
func (s *Scene) AddPrimitive(shape geometry.Shape, bsdf material.BSDF, emitter lights.Emitter) *Primitive {
	if bsdf == nil {
		bsdf = material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5))
	}
	primitive := &Primitive{Shape: shape, BSDF: bsdf, Emitter: emitter}
	s.Primitives = append(s.Primitives, primitive)

	if emitter != nil {
		if attacher, ok := emitter.(lights.ShapeAttacher); ok {
			attacher.AttachShape(shape)
		}
		s.Lights = append(s.Lights, emitter)
	}
	return primitive
}

// AddLight adds an emitter with no scene geometry (point, spot, environment)
func (s *Scene) AddLight(emitter lights.Emitter) {
	if emitter.Type() == lights.LightTypeInfinite {
		s.envEmitter = emitter
	}
	s.Lights = append(s.Lights, emitter)
}

// SetMedium fills the whole scene with a participating medium
func (s *Scene) SetMedium(m *medium.Homogeneous) {
	s.medium = m
}

// Preprocess prepares the scene for rendering: validates lights, builds the BVH,
// hands world bounds to lights that need them, and creates the camera
func (s *Scene) Preprocess() error {
	for i, light := range s.Lights {
		if attacher, ok := light.(lights.ShapeAttacher); ok && attacher.Shape() == nil {
			return fmt.Errorf("light %d: %w", i, lights.ErrNoShape)
		}
	}

	shapes := make([]geometry.Shape, len(s.Primitives))
	for i, primitive := range s.Primitives {
		shapes[i] = primitive.Shape
	}
	s.BVH = geometry.NewBVH(shapes)

	for _, light := range s.Lights {
		if preprocessor, ok := light.(lights.Preprocessor); ok {
			if err := preprocessor.Preprocess(s.BVH.Center, s.BVH.Radius); err != nil {
				return fmt.Errorf("preprocessing light: %w", err)
			}
		}
	}

	if s.Camera == nil {
		s.Camera = geometry.NewCamera(s.CameraConfig)
	}
	return nil
}

// RayIntersect finds the closest surface along the ray within [ray.TMin, ray.TMax]
func (s *Scene) RayIntersect(ray core.Ray) (Intersection, bool) {
	hit, ok := s.BVH.Hit(ray, ray.TMin, ray.TMax)
	if !ok {
		return Intersection{}, false
	}
	return Intersection{
		Point:     hit.Point,
		T:         hit.T,
		UV:        hit.UV,
		ShFrame:   core.NewFrame(hit.ShadingNormal),
		GeoFrame:  core.NewFrame(hit.Normal),
		Primitive: s.Primitives[hit.Index],
	}, true
}

// Occluded reports whether anything blocks the ray segment
func (s *Scene) Occluded(ray core.Ray) bool {
	return s.BVH.HitAny(ray, ray.TMin, ray.TMax)
}

// GetLights returns every emitter in the scene
func (s *Scene) GetLights() []lights.Emitter {
	return s.Lights
}

// GetRandomEmitter picks an emitter uniformly; callers scale the result by the light count
func (s *Scene) GetRandomEmitter(u float64) lights.Emitter {
	n := len(s.Lights)
	if n == 0 {
		return nil
	}
	index := int(u * float64(n))
	if index >= n {
		index = n - 1
	}
	return s.Lights[index]
}

// GetEnvEmitter returns the environment emitter, or nil
func (s *Scene) GetEnvEmitter() lights.Emitter {
	return s.envEmitter
}

// GetMedium returns the scene medium, or nil
func (s *Scene) GetMedium() *medium.Homogeneous {
	return s.medium
}

// GetBoundingBox returns the bounds of all scene geometry
func (s *Scene) GetBoundingBox() core.AABB {
	if s.BVH == nil {
		box := core.EmptyAABB()
		for _, primitive := range s.Primitives {
			box = box.Union(primitive.Shape.BoundingBox())
		}
		return box
	}
	return s.BVH.BoundingBox()
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for _, primitive := range s.Primitives {
		switch obj := primitive.Shape.(type) {
		case *geometry.TriangleMesh:
			// Triangle meshes contain multiple triangles
			count += obj.GetTriangleCount()
		default:
			count++
		}
	}
	return count
}
