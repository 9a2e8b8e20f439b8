package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/integrator"
	"github.com/df07/go-light-transport/pkg/material"
	"github.com/df07/go-light-transport/pkg/scene"
)

const testSceneJSON = `{
  "name": "Test Box",
  "description": "A sphere, a mesh and a light over a floor",
  "group": "Tests",
  "camera": {"center": [0, 1, -4], "lookAt": [0, 0.5, 0], "width": 64, "aspectRatio": 1.5, "vfov": 35},
  "sampling": {"samplesPerPixel": 8},
  "integrator": {"name": "photonmapper", "photons": 5000, "radius": 0.2, "index": "rtree"},
  "medium": {"sigmaA": [0.01, 0.01, 0.01], "sigmaS": [0.02, 0.02, 0.02]},
  "bsdfs": {
    "floor": {"type": "diffuse", "checker": {"even": [0.8, 0.8, 0.8], "odd": [0.2, 0.2, 0.2], "scale": 4}},
    "gold": {"type": "conductor", "material": "Au"}
  },
  "shapes": [
    {"type": "quad", "corner": [-5, 0, -5], "u": [0, 0, 10], "v": [10, 0, 0], "bsdf": "floor"},
    {"type": "sphere", "center": [0, 0.5, 0], "radius": 0.5, "bsdf": "gold"},
    {"type": "sphere", "center": [1.5, 0.5, 0], "radius": 0.5,
     "bsdf": {"type": "mix", "ratio": 0.3,
              "a": {"type": "roughconductor", "material": "Cu", "alpha": 0.2},
              "b": {"type": "layered", "base": {"type": "diffuse", "albedo": [0.7, 0.1, 0.1]}, "thickness": 0.1}}},
    {"type": "mesh", "file": "quad.glb", "scale": 0.5, "translate": [-2, 0.01, 0], "bsdf": {"type": "roughplastic", "albedo": [0.2, 0.4, 0.8], "alpha": 0.1}},
    {"type": "quad", "corner": [-0.5, 3, -0.5], "u": [1, 0, 0], "v": [0, 0, 1], "emitter": {"radiance": [10, 10, 10]}}
  ],
  "lights": [
    {"type": "point", "position": [0, 4, 0], "power": [50, 50, 50]},
    {"type": "spot", "position": [2, 4, 0], "target": [2, 0, 0], "power": [30, 30, 30], "cone": 30, "falloff": 20},
    {"type": "constant", "radiance": [0.1, 0.1, 0.2]}
  ]
}`

// writeSceneDir writes the test scene and its glTF mesh into a temp directory
func writeSceneDir(t *testing.T, content string) string {
	t.Helper()
	glb := writeQuadGLB(t, true)
	dir := filepath.Dir(glb)
	path := filepath.Join(dir, "box.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return path
}

func TestLoadSceneFile(t *testing.T) {
	path := writeSceneDir(t, testSceneJSON)
	file, err := LoadSceneFile(path)
	if err != nil {
		t.Fatalf("LoadSceneFile failed: %v", err)
	}
	s := file.Scene

	if got := len(s.Primitives); got != 5 {
		t.Errorf("Expected 5 primitives, got %d", got)
	}
	// The glTF quad counts as its two triangles
	if got := s.GetPrimitiveCount(); got != 6 {
		t.Errorf("Expected a primitive count of 6, got %d", got)
	}
	// Area light plus point, spot and environment
	if got := len(s.GetLights()); got != 4 {
		t.Errorf("Expected 4 lights, got %d", got)
	}
	if s.GetEnvEmitter() == nil {
		t.Error("Expected an environment emitter")
	}
	if s.GetMedium() == nil {
		t.Error("Expected a medium")
	}
	if s.SamplingConfig.SamplesPerPixel != 8 || s.SamplingConfig.Integrator != "photonmapper" {
		t.Errorf("Unexpected sampling config %+v", s.SamplingConfig)
	}

	// Named BSDFs are shared and resolved to the right type
	if _, ok := s.Primitives[0].BSDF.(*material.Diffuse); !ok {
		t.Errorf("Expected a diffuse floor, got %T", s.Primitives[0].BSDF)
	}
	if _, ok := s.Primitives[1].BSDF.(*material.Conductor); !ok {
		t.Errorf("Expected a conductor sphere, got %T", s.Primitives[1].BSDF)
	}
	if _, ok := s.Primitives[2].BSDF.(*material.Mix); !ok {
		t.Errorf("Expected a mix BSDF, got %T", s.Primitives[2].BSDF)
	}
	if !s.Primitives[4].IsEmitter() {
		t.Error("Expected the last quad to be an emitter")
	}

	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if w, h := s.Camera.Resolution(); w != 64 || h != 43 {
		t.Errorf("Expected 64x43, got %dx%d", w, h)
	}

	// Mesh sits on the floor at x in [-2, -1.5]
	its, hit := s.RayIntersect(core.NewRay(core.NewVec3(-1.75, 1, 0.25), core.NewVec3(0, -1, 0)))
	if !hit || its.Primitive != s.Primitives[3] {
		t.Errorf("Expected to hit the mesh, got hit=%v", hit)
	}
}

func TestIntegratorSettingsApply(t *testing.T) {
	file, err := LoadSceneFile(writeSceneDir(t, testSceneJSON))
	if err != nil {
		t.Fatalf("LoadSceneFile failed: %v", err)
	}

	config := file.Integrator.Apply(integrator.DefaultConfig())
	if config.PhotonCount != 5000 || config.PhotonRadius != 0.2 || config.PhotonIndex != "rtree" {
		t.Errorf("Unexpected config %+v", config)
	}
	if config.AVLength != integrator.DefaultConfig().AVLength {
		t.Errorf("Expected default AV length, got %f", config.AVLength)
	}
}

// The metadata reader used for scene discovery understands the same file
func TestLoadSceneFile_Metadata(t *testing.T) {
	info, err := scene.ParseSceneMetadata(writeSceneDir(t, testSceneJSON))
	if err != nil {
		t.Fatalf("ParseSceneMetadata failed: %v", err)
	}
	if info.Name != "Test Box" || info.Group != "Tests" || info.Integrator != "photonmapper" {
		t.Errorf("Unexpected metadata %+v", info)
	}
}

func TestLoadSceneFile_Errors(t *testing.T) {
	camera := `"camera": {"center": [0, 0, -1], "lookAt": [0, 0, 0]}`
	tests := []struct {
		name        string
		content     string
		unsupported bool
		contains    string
	}{
		{"InvalidJSON", `{"camera": `, false, "parsing"},
		{"UnknownShape", `{` + camera + `, "shapes": [{"type": "torus"}]}`, true, "torus"},
		{"UnknownLight", `{` + camera + `, "lights": [{"type": "laser"}]}`, true, "laser"},
		{"UnknownBSDFType", `{` + camera + `, "shapes": [{"type": "sphere", "radius": 1, "bsdf": {"type": "velvet"}}]}`, true, "velvet"},
		{"UnknownBSDFName", `{` + camera + `, "shapes": [{"type": "sphere", "radius": 1, "bsdf": "missing"}]}`, false, "missing"},
		{"BadSphere", `{` + camera + `, "shapes": [{"type": "sphere", "radius": 0}]}`, false, "radius"},
		{"ConductorWithoutIOR", `{` + camera + `, "shapes": [{"type": "sphere", "radius": 1, "bsdf": {"type": "conductor"}}]}`, false, "eta"},
		{"UnknownPreset", `{` + camera + `, "shapes": [{"type": "sphere", "radius": 1, "bsdf": {"type": "conductor", "material": "Pb"}}]}`, false, "Pb"},
		{"MixWithoutChild", `{` + camera + `, "shapes": [{"type": "sphere", "radius": 1, "bsdf": {"type": "mix", "a": {"type": "diffuse"}}}]}`, false, "\"b\""},
		{"BadSpot", `{` + camera + `, "lights": [{"type": "spot", "cone": 10, "falloff": 20}]}`, false, "falloff"},
		{"MissingMesh", `{` + camera + `, "shapes": [{"type": "mesh", "file": "nope.glb"}]}`, false, "gltf"},
		{"DegenerateCamera", `{"camera": {"center": [1, 1, 1], "lookAt": [1, 1, 1]}}`, false, "camera"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSceneFile(writeSceneDir(t, tt.content))
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if tt.unsupported && !errors.Is(err, ErrUnsupported) {
				t.Errorf("Expected ErrUnsupported, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error mentioning %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestLoadSceneFile_Missing(t *testing.T) {
	if _, err := LoadSceneFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file, got nil")
	}
}
