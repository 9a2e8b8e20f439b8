package loaders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
	"github.com/df07/go-light-transport/pkg/integrator"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
	"github.com/df07/go-light-transport/pkg/medium"
	"github.com/df07/go-light-transport/pkg/scene"
)

// SceneFile is a scene loaded from a JSON description together with its integrator settings
type SceneFile struct {
	Scene      *scene.Scene
	Integrator IntegratorSettings
}

// IntegratorSettings selects and tunes the integrator a scene file was authored for
type IntegratorSettings struct {
	Name     string  `json:"name"`
	Photons  int     `json:"photons,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
	Index    string  `json:"index,omitempty"`
	AVLength float64 `json:"avLength,omitempty"`
}

// Apply overrides the fields of config that the scene file sets
func (s IntegratorSettings) Apply(config integrator.Config) integrator.Config {
	if s.Photons > 0 {
		config.PhotonCount = s.Photons
	}
	if s.Radius > 0 {
		config.PhotonRadius = s.Radius
	}
	if s.Index != "" {
		config.PhotonIndex = s.Index
	}
	if s.AVLength > 0 {
		config.AVLength = s.AVLength
	}
	return config
}

// vec is a JSON [x, y, z] triple
type vec [3]float64

func (v vec) toVec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// vecOr returns v, or def when v is absent
func vecOr(v *vec, def core.Vec3) core.Vec3 {
	if v == nil {
		return def
	}
	return v.toVec3()
}

type sceneDesc struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Group       string               `json:"group"`
	Camera      cameraDesc           `json:"camera"`
	Sampling    samplingDesc         `json:"sampling"`
	Integrator  IntegratorSettings   `json:"integrator"`
	Medium      *mediumDesc          `json:"medium"`
	BSDFs       map[string]*bsdfDesc `json:"bsdfs"`
	Shapes      []shapeDesc          `json:"shapes"`
	Lights      []lightDesc          `json:"lights"`
}

type cameraDesc struct {
	Center        vec     `json:"center"`
	LookAt        vec     `json:"lookAt"`
	Up            *vec    `json:"up"`
	Width         int     `json:"width"`
	AspectRatio   float64 `json:"aspectRatio"`
	VFov          float64 `json:"vfov"`
	Aperture      float64 `json:"aperture"`
	FocusDistance float64 `json:"focusDistance"`
}

type samplingDesc struct {
	SamplesPerPixel int `json:"samplesPerPixel"`
}

type mediumDesc struct {
	SigmaA vec `json:"sigmaA"`
	SigmaS vec `json:"sigmaS"`
}

// bsdfDesc is either an inline BSDF object or the name of an entry in "bsdfs"
type bsdfDesc struct {
	Ref string `json:"-"`

	Type      string    `json:"type"`
	Albedo    *vec      `json:"albedo"`
	Texture   string    `json:"texture"`
	Checker   *checker  `json:"checker"`
	Material  string    `json:"material"` // conductor preset: Au, Cu, Cr
	Eta       *vec      `json:"eta"`
	K         *vec      `json:"k"`
	Alpha     float64   `json:"alpha"`
	IntIOR    float64   `json:"intIOR"`
	ExtIOR    float64   `json:"extIOR"`
	Thickness float64   `json:"thickness"`
	SigmaA    *vec      `json:"sigmaA"`
	Base      *bsdfDesc `json:"base"`
	A         *bsdfDesc `json:"a"`
	B         *bsdfDesc `json:"b"`
	Ratio     float64   `json:"ratio"`
}

type checker struct {
	Even  vec     `json:"even"`
	Odd   vec     `json:"odd"`
	Scale float64 `json:"scale"`
}

// UnmarshalJSON accepts a BSDF object or a string naming one
func (d *bsdfDesc) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(data, &d.Ref)
	}
	type plain bsdfDesc
	return json.Unmarshal(data, (*plain)(d))
}

type shapeDesc struct {
	Type      string    `json:"type"`
	Center    vec       `json:"center"`
	Radius    float64   `json:"radius"`
	Corner    vec       `json:"corner"`
	U         vec       `json:"u"`
	V         vec       `json:"v"`
	File      string    `json:"file"`
	Scale     float64   `json:"scale"`
	Rotate    *vec      `json:"rotate"` // degrees around X, Y, Z
	Translate *vec      `json:"translate"`
	BSDF      *bsdfDesc `json:"bsdf"`
	Emitter   *areaDesc `json:"emitter"`
}

type areaDesc struct {
	Radiance vec `json:"radiance"`
}

type lightDesc struct {
	Type     string  `json:"type"`
	Position vec     `json:"position"`
	Target   vec     `json:"target"`
	Power    vec     `json:"power"`
	Radiance vec     `json:"radiance"`
	Cone     float64 `json:"cone"`    // spot cutoff angle in degrees
	Falloff  float64 `json:"falloff"` // spot falloff start in degrees
	File     string  `json:"file"`
	Scale    float64 `json:"scale"`
}

// sceneLoader resolves file references relative to the scene file and shares named BSDFs
type sceneLoader struct {
	dir   string
	named map[string]*bsdfDesc
	built map[string]material.BSDF
}

// LoadSceneFile reads a JSON scene description
func LoadSceneFile(filename string) (*SceneFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}

	var desc sceneDesc
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	l := &sceneLoader{
		dir:   filepath.Dir(filename),
		named: desc.BSDFs,
		built: make(map[string]material.BSDF),
	}
	s, err := l.buildScene(&desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &SceneFile{Scene: s, Integrator: desc.Integrator}, nil
}

func (l *sceneLoader) buildScene(desc *sceneDesc) (*scene.Scene, error) {
	cameraConfig := geometry.CameraConfig{
		Center:        desc.Camera.Center.toVec3(),
		LookAt:        desc.Camera.LookAt.toVec3(),
		Up:            vecOr(desc.Camera.Up, core.NewVec3(0, 1, 0)),
		Width:         desc.Camera.Width,
		AspectRatio:   desc.Camera.AspectRatio,
		VFov:          desc.Camera.VFov,
		Aperture:      desc.Camera.Aperture,
		FocusDistance: desc.Camera.FocusDistance,
	}
	if cameraConfig.Width <= 0 {
		cameraConfig.Width = 400
	}
	if cameraConfig.VFov <= 0 {
		cameraConfig.VFov = 40
	}
	if cameraConfig.Center == cameraConfig.LookAt {
		return nil, fmt.Errorf("camera center and lookAt coincide")
	}

	s := scene.NewScene(cameraConfig, scene.SamplingConfig{
		Width:           cameraConfig.Width,
		SamplesPerPixel: desc.Sampling.SamplesPerPixel,
		Integrator:      desc.Integrator.Name,
	})

	for i := range desc.Shapes {
		if err := l.addShape(s, &desc.Shapes[i]); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}
	for i := range desc.Lights {
		emitter, err := l.buildLight(&desc.Lights[i])
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		s.AddLight(emitter)
	}
	if desc.Medium != nil {
		s.SetMedium(medium.NewHomogeneous(desc.Medium.SigmaA.toVec3(), desc.Medium.SigmaS.toVec3()))
	}
	return s, nil
}

func (l *sceneLoader) addShape(s *scene.Scene, d *shapeDesc) error {
	var shape geometry.Shape
	switch d.Type {
	case "sphere":
		if d.Radius <= 0 {
			return fmt.Errorf("sphere radius must be positive, got %g", d.Radius)
		}
		shape = geometry.NewSphere(d.Center.toVec3(), d.Radius)
	case "quad":
		shape = geometry.NewQuad(d.Corner.toVec3(), d.U.toVec3(), d.V.toVec3())
	case "mesh":
		options := &geometry.TriangleMeshOptions{Scale: d.Scale}
		if d.Rotate != nil {
			rotation := d.Rotate.toVec3().Multiply(math.Pi / 180)
			options.Rotation = &rotation
		}
		if d.Translate != nil {
			translate := d.Translate.toVec3()
			options.Translate = &translate
		}
		mesh, err := LoadGLTFMesh(l.resolve(d.File), options)
		if err != nil {
			return err
		}
		shape = mesh
	default:
		return fmt.Errorf("shape type %q: %w", d.Type, ErrUnsupported)
	}

	var bsdf material.BSDF
	if d.BSDF != nil {
		var err error
		if bsdf, err = l.buildBSDF(d.BSDF); err != nil {
			return err
		}
	}

	var emitter lights.Emitter
	if d.Emitter != nil {
		emitter = lights.NewAreaLight(d.Emitter.Radiance.toVec3())
		if bsdf == nil {
			bsdf = material.NewDiffuse(core.Vec3{})
		}
	}

	s.AddPrimitive(shape, bsdf, emitter)
	return nil
}

func (l *sceneLoader) resolve(file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(l.dir, file)
}

func (l *sceneLoader) buildBSDF(d *bsdfDesc) (material.BSDF, error) {
	if d.Ref != "" {
		if bsdf, ok := l.built[d.Ref]; ok {
			return bsdf, nil
		}
		named, ok := l.named[d.Ref]
		if !ok || named == nil || named.Ref != "" {
			return nil, fmt.Errorf("unknown bsdf %q", d.Ref)
		}
		bsdf, err := l.buildBSDF(named)
		if err != nil {
			return nil, fmt.Errorf("bsdf %q: %w", d.Ref, err)
		}
		l.built[d.Ref] = bsdf
		return bsdf, nil
	}

	intIOR, extIOR := d.IntIOR, d.ExtIOR
	if intIOR <= 0 {
		intIOR = material.DefaultIntIOR
	}
	if extIOR <= 0 {
		extIOR = material.DefaultExtIOR
	}

	switch d.Type {
	case "diffuse":
		switch {
		case d.Texture != "":
			img, err := LoadImage(l.resolve(d.Texture))
			if err != nil {
				return nil, err
			}
			return material.NewTexturedDiffuse(img.Texture()), nil
		case d.Checker != nil:
			return material.NewTexturedDiffuse(material.NewChecker(d.Checker.Even.toVec3(), d.Checker.Odd.toVec3(), d.Checker.Scale)), nil
		default:
			return material.NewDiffuse(vecOr(d.Albedo, core.NewVec3(0.5, 0.5, 0.5))), nil
		}

	case "conductor", "roughconductor":
		eta, k, err := conductorIOR(d)
		if err != nil {
			return nil, err
		}
		if d.Type == "roughconductor" {
			if d.Alpha <= 0 {
				return nil, fmt.Errorf("roughconductor alpha must be positive, got %g", d.Alpha)
			}
			return material.NewRoughConductor(d.Alpha, eta, k), nil
		}
		return material.NewConductor(eta, k), nil

	case "dielectric":
		return material.NewDielectric(intIOR, extIOR), nil

	case "layered":
		base, err := l.buildChild(d.Base, "base")
		if err != nil {
			return nil, err
		}
		return material.NewLayered(base, intIOR, extIOR, d.Thickness, vecOr(d.SigmaA, core.Vec3{})), nil

	case "multilayered":
		base, err := l.buildChild(d.Base, "base")
		if err != nil {
			return nil, err
		}
		return material.NewMultiLayered(base, d.Alpha, intIOR, extIOR), nil

	case "roughplastic":
		return material.NewRoughPlastic(vecOr(d.Albedo, core.NewVec3(0.5, 0.5, 0.5)), d.Alpha), nil

	case "mix":
		a, err := l.buildChild(d.A, "a")
		if err != nil {
			return nil, err
		}
		b, err := l.buildChild(d.B, "b")
		if err != nil {
			return nil, err
		}
		return material.NewMix(a, b, d.Ratio), nil
	}
	return nil, fmt.Errorf("bsdf type %q: %w", d.Type, ErrUnsupported)
}

func (l *sceneLoader) buildChild(d *bsdfDesc, field string) (material.BSDF, error) {
	if d == nil {
		return nil, fmt.Errorf("missing %q bsdf", field)
	}
	return l.buildBSDF(d)
}

// conductorIOR returns the complex index of a named metal or of explicit eta/k values
func conductorIOR(d *bsdfDesc) (core.Vec3, core.Vec3, error) {
	if d.Material != "" {
		preset, err := material.NewConductorPreset(d.Material)
		if err != nil {
			return core.Vec3{}, core.Vec3{}, err
		}
		return preset.Eta, preset.K, nil
	}
	if d.Eta == nil || d.K == nil {
		return core.Vec3{}, core.Vec3{}, fmt.Errorf("conductor needs a material preset or eta and k")
	}
	return d.Eta.toVec3(), d.K.toVec3(), nil
}

func (l *sceneLoader) buildLight(d *lightDesc) (lights.Emitter, error) {
	switch d.Type {
	case "point":
		return lights.NewPointLight(d.Position.toVec3(), d.Power.toVec3()), nil
	case "spot":
		if d.Cone <= 0 || d.Falloff > d.Cone {
			return nil, fmt.Errorf("spot light needs 0 < falloff <= cone, got %g and %g", d.Falloff, d.Cone)
		}
		return lights.NewSpotLight(d.Position.toVec3(), d.Target.toVec3(), d.Power.toVec3(), d.Cone, d.Falloff), nil
	case "constant":
		return lights.NewConstantEnvironment(d.Radiance.toVec3()), nil
	case "envmap":
		img, err := LoadImage(l.resolve(d.File))
		if err != nil {
			return nil, err
		}
		scale := d.Scale
		if scale <= 0 {
			scale = 1
		}
		return img.EnvironmentMap(scale), nil
	}
	return nil, fmt.Errorf("light type %q: %w", d.Type, ErrUnsupported)
}
