package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/integrator"
	"github.com/df07/go-light-transport/pkg/scene"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
		check       func(t *testing.T, opts options)
	}{
		{"defaults", nil, false, func(t *testing.T, opts options) {
			if opts.Scene != "cornell" || opts.Supersample != 1 || opts.Seed != 1 || opts.Exposure != 1 {
				t.Errorf("Unexpected defaults %+v", opts)
			}
		}},
		{"overrides", []string{"-scene", "caustic", "-integrator", "photonmapper", "-photons", "5000", "-radius", "2.5", "-index", "rtree", "-spp", "4"}, false, func(t *testing.T, opts options) {
			if opts.Scene != "caustic" || opts.Integrator != "photonmapper" || opts.Photons != 5000 ||
				opts.Radius != 2.5 || opts.Index != "rtree" || opts.SPP != 4 {
				t.Errorf("Unexpected options %+v", opts)
			}
		}},
		{"zero supersample", []string{"-supersample", "0"}, true, nil},
		{"negative width", []string{"-width", "-5"}, true, nil},
		{"unknown flag", []string{"-bogus"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, err := parseFlags(tt.args, &bytes.Buffer{})
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for args %v, but got none", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for args %v: %v", tt.args, err)
			}
			tt.check(t, opts)
		})
	}
}

const testSceneJSON = `{
  "name": "Lamp",
  "camera": {"center": [0, 1, -3], "lookAt": [0, 0, 0], "width": 40, "aspectRatio": 1, "vfov": 45},
  "sampling": {"samplesPerPixel": 2},
  "integrator": {"name": "direct_mis"},
  "shapes": [
    {"type": "quad", "corner": [-2, 0, -2], "u": [0, 0, 4], "v": [4, 0, 0]},
    {"type": "sphere", "center": [0, 1.5, 0], "radius": 0.25, "emitter": {"radiance": [20, 20, 20]}}
  ]
}`

func writeTestScene(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lamp.json"), []byte(testSceneJSON), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}
	return dir
}

func TestCreateScene(t *testing.T) {
	dir := writeTestScene(t)

	tests := []struct {
		name               string
		opts               options
		expectError        bool
		expectedIntegrator string
	}{
		{"cornell scene", options{Scene: "cornell"}, false, "path_mis"},
		{"fog scene", options{Scene: "cornell-fog"}, false, "vol_path"},
		{"caustic scene", options{Scene: "caustic"}, false, "photonmapper"},
		{"scene file by name", options{Scene: "file:lamp", ScenesDir: dir}, false, "direct_mis"},
		{"scene file by path", options{SceneFile: filepath.Join(dir, "lamp.json")}, false, "direct_mis"},
		{"unknown scene", options{Scene: "nonexistent"}, true, ""},
		{"missing scene file", options{SceneFile: filepath.Join(dir, "nope.json")}, true, ""},
		{"empty scene name", options{Scene: ""}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, settings, err := createScene(tt.opts)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %+v, but got none", tt.opts)
				}
				if s != nil {
					t.Errorf("Expected nil scene, got %T", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.CameraConfig.Width <= 0 {
				t.Errorf("Scene camera width should be positive, got %d", s.CameraConfig.Width)
			}
			if settings.Name != tt.expectedIntegrator {
				t.Errorf("Expected integrator %q, got %q", tt.expectedIntegrator, settings.Name)
			}
		})
	}

	if _, _, err := createScene(options{Scene: "nonexistent"}); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestConfigureCamera(t *testing.T) {
	tests := []struct {
		name                          string
		opts                          options
		expectedWidth, expectedHeight int
		renderWidth, renderHeight     int
	}{
		{"scene default", options{Supersample: 1}, 400, 400, 400, 400},
		{"width only", options{Width: 64, Supersample: 1}, 64, 64, 64, 64},
		{"width and height", options{Width: 64, Height: 48, Supersample: 1}, 64, 48, 64, 48},
		{"supersampled", options{Width: 30, Height: 20, Supersample: 3}, 30, 20, 90, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.NewCornellScene()
			width, height := configureCamera(s, tt.opts)
			if width != tt.expectedWidth || height != tt.expectedHeight {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expectedWidth, tt.expectedHeight, width, height)
			}
			if err := s.Preprocess(); err != nil {
				t.Fatalf("Preprocess failed: %v", err)
			}
			if w, h := s.Camera.Resolution(); w != tt.renderWidth || h != tt.renderHeight {
				t.Errorf("Expected render size %dx%d, got %dx%d", tt.renderWidth, tt.renderHeight, w, h)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := writeTestScene(t)

	tests := []struct {
		name string
		opts options
	}{
		{"scene file integrator", options{SceneFile: filepath.Join(dir, "lamp.json"), Width: 16}},
		{"photon mapper", options{Scene: "file:lamp", ScenesDir: dir, Integrator: "photonmapper", Photons: 2000, Index: "rtree", Width: 12, Height: 8}},
		{"supersampled", options{SceneFile: filepath.Join(dir, "lamp.json"), Integrator: "path_mis", Width: 10, Height: 10, Supersample: 2, SPP: 1}},
		{"average visibility", options{Scene: "point-plane", Integrator: "av", Width: 8, SPP: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.Supersample == 0 {
				opts.Supersample = 1
			}
			opts.Exposure = 1
			opts.Workers = 2
			opts.Seed = 1
			opts.Out = filepath.Join(t.TempDir(), "out", "render.png")

			path, err := run(context.Background(), opts, core.NopLogger{})
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if path != opts.Out {
				t.Errorf("Expected output %s, got %s", opts.Out, path)
			}

			f, err := os.Open(path)
			if err != nil {
				t.Fatalf("Failed to open render: %v", err)
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				t.Fatalf("Failed to decode render: %v", err)
			}

			expectedHeight := opts.Height
			if expectedHeight == 0 {
				expectedHeight = opts.Width
			}
			if img.Bounds().Dx() != opts.Width || img.Bounds().Dy() != expectedHeight {
				t.Errorf("Expected %dx%d image, got %v", opts.Width, expectedHeight, img.Bounds())
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     options
		expected error
	}{
		{"unknown integrator", options{Scene: "cornell", Integrator: "bdpt", Supersample: 1}, integrator.ErrUnknownIntegrator},
		{"vol_path without medium", options{Scene: "cornell", Integrator: "vol_path", Width: 4, Supersample: 1}, integrator.ErrNoMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Out = filepath.Join(t.TempDir(), "render.png")
			if _, err := run(context.Background(), opts, core.NopLogger{}); !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestListScenes(t *testing.T) {
	var buf bytes.Buffer
	if err := listScenes(&buf, writeTestScene(t)); err != nil {
		t.Fatalf("listScenes failed: %v", err)
	}
	out := buf.String()
	for _, expected := range []string{"Built-in Scenes:", "cornell", "file:lamp", "direct_mis"} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected listing to contain %q, got:\n%s", expected, out)
		}
	}
}
