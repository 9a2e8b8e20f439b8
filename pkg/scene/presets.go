package scene

import (
	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
)

// NewMaterialsScene lines up one sphere per BSDF family on a checkered floor,
// lit by a sky environment and a small spherical lamp
func NewMaterialsScene() *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, 2.2, -9),
		LookAt:      core.NewVec3(0, 0.8, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       600,
		AspectRatio: 16.0 / 9.0,
		VFov:        35.0,
	}
	s := NewScene(cameraConfig, SamplingConfig{SamplesPerPixel: 64, Integrator: "path_mis"})

	// Ground plane, large enough to fill the frame
	checker := material.NewChecker(core.NewVec3(0.8, 0.8, 0.8), core.NewVec3(0.2, 0.2, 0.25), 20)
	s.AddPrimitive(
		geometry.NewQuad(core.NewVec3(-50, 0, -50), core.NewVec3(0, 0, 100), core.NewVec3(100, 0, 0)),
		material.NewTexturedDiffuse(checker), nil)

	gold := mustConductor("Au")
	copper := mustConductor("Cu")
	roughCopper := material.NewRoughConductor(0.25, copper.Eta, copper.K)
	coatedRed := material.NewLayered(material.NewDiffuse(core.NewVec3(0.7, 0.1, 0.1)),
		material.DefaultIntIOR, material.DefaultExtIOR, 0.1, core.NewVec3(0.2, 0.2, 0.2))
	plastic := material.NewRoughPlastic(core.NewVec3(0.1, 0.3, 0.7), 0.15)
	mixed := material.NewMix(material.NewDiffuse(core.NewVec3(0.9, 0.9, 0.9)), gold, 0.5)

	bsdfs := []material.BSDF{gold, roughCopper, coatedRed, plastic, mixed}
	radius := 0.8
	spacing := 2.0
	start := -spacing * float64(len(bsdfs)-1) / 2
	for i, bsdf := range bsdfs {
		center := core.NewVec3(start+spacing*float64(i), radius, 0)
		s.AddPrimitive(geometry.NewSphere(center, radius), bsdf, nil)
	}

	// Small warm lamp above and behind the camera
	s.AddPrimitive(geometry.NewSphere(core.NewVec3(3, 6, -4), 0.5), material.NewDiffuse(core.Vec3{}),
		lights.NewAreaLight(core.NewVec3(40, 36, 30)))
	s.AddLight(lights.NewConstantEnvironment(core.NewVec3(0.4, 0.5, 0.7)))
	return s
}

// NewPointPlaneScene is a single point light at the given height over an infinite-looking
// diffuse plane; the irradiance directly below the light has a closed form
func NewPointPlaneScene(power core.Vec3, distance float64, albedo core.Vec3) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, distance*0.5, -distance*2),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       256,
		AspectRatio: 1.0,
		VFov:        60.0,
	}
	s := NewScene(cameraConfig, SamplingConfig{SamplesPerPixel: 16, Integrator: "direct_ems"})

	extent := distance * 1000
	s.AddPrimitive(
		geometry.NewQuad(core.NewVec3(-extent, 0, -extent), core.NewVec3(0, 0, 2*extent), core.NewVec3(2*extent, 0, 0)),
		material.NewDiffuse(albedo), nil)
	s.AddLight(lights.NewPointLight(core.NewVec3(0, distance, 0), power))
	return s
}
