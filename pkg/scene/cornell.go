package scene

import (
	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
	"github.com/df07/go-light-transport/pkg/medium"
)

// Cornell box dimensions (standard 555x555x555 units)
const cornellSize = 555.0

func cornellCamera() geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:      core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:      core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 1.0,  // Square aspect ratio for Cornell box
		VFov:        40.0, // Field of view
	}
}

// addCornellBox adds the five walls, all facing into the box, and the ceiling light
func addCornellBox(s *Scene, radiance core.Vec3) {
	white := material.NewDiffuse(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewDiffuse(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewDiffuse(core.NewVec3(0.12, 0.45, 0.15))

	size := cornellSize

	// Floor - XZ plane at y=0, facing up
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, size), core.NewVec3(size, 0, 0)), white, nil)
	// Ceiling - XZ plane at y=size, facing down
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, size, 0), core.NewVec3(size, 0, 0), core.NewVec3(0, 0, size)), white, nil)
	// Back wall - XY plane at z=size, facing the camera
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, 0, size), core.NewVec3(0, size, 0), core.NewVec3(size, 0, 0)), white, nil)
	// Red wall at x=size (image left), facing -X
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(size, 0, 0), core.NewVec3(0, 0, size), core.NewVec3(0, size, 0)), red, nil)
	// Green wall at x=0 (image right), facing +X
	s.AddPrimitive(geometry.NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, size, 0), core.NewVec3(0, 0, size)), green, nil)

	// Ceiling light, slightly below the ceiling and facing down
	light := geometry.NewQuad(core.NewVec3(213, size-1, 227), core.NewVec3(130, 0, 0), core.NewVec3(0, 0, 105))
	s.AddPrimitive(light, material.NewDiffuse(core.NewVec3(0, 0, 0)), lights.NewAreaLight(radiance))
}

// NewCornellScene creates a classic Cornell box scene with a metal and a glass sphere
func NewCornellScene() *Scene {
	s := NewScene(cornellCamera(), SamplingConfig{SamplesPerPixel: 64, Integrator: "path_mis"})
	addCornellBox(s, core.NewVec3(15, 15, 15))

	chrome := mustConductor("Cr")
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(370, 90, 351), 90), chrome, nil)
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5), material.NewGlass(), nil)
	return s
}

// NewCornellFogScene fills the Cornell box with a scattering medium
func NewCornellFogScene() *Scene {
	s := NewScene(cornellCamera(), SamplingConfig{SamplesPerPixel: 64, Integrator: "vol_path"})
	addCornellBox(s, core.NewVec3(15, 15, 15))

	s.AddPrimitive(geometry.NewSphere(core.NewVec3(370, 90, 351), 90), material.NewDiffuse(core.NewVec3(0.8, 0.8, 0.8)), nil)
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5), material.NewGlass(), nil)

	// Mean free path of roughly 400 units, slightly blue-tinted extinction
	s.SetMedium(medium.NewHomogeneous(core.NewVec3(0.0004, 0.0004, 0.0005), core.NewVec3(0.002, 0.002, 0.0022)))
	return s
}

// NewCausticScene places a glass sphere in the Cornell box, for photon mapping
func NewCausticScene() *Scene {
	s := NewScene(cornellCamera(), SamplingConfig{SamplesPerPixel: 16, Integrator: "photonmapper"})
	addCornellBox(s, core.NewVec3(15, 15, 15))

	s.AddPrimitive(geometry.NewSphere(core.NewVec3(278, 120, 278), 120), material.NewGlass(), nil)
	return s
}

func mustConductor(name string) *material.Conductor {
	conductor, err := material.NewConductorPreset(name)
	if err != nil {
		panic(err)
	}
	return conductor
}
