package integrator

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
	"github.com/df07/go-light-transport/pkg/lights"
	"github.com/df07/go-light-transport/pkg/material"
	"github.com/df07/go-light-transport/pkg/medium"
	"github.com/df07/go-light-transport/pkg/scene"
)

// newTestScene creates an empty scene with a camera looking down at the origin
func newTestScene() *scene.Scene {
	return scene.NewScene(geometry.CameraConfig{
		Center:      core.NewVec3(0, 3, -3),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       32,
		AspectRatio: 1,
		VFov:        40,
	}, scene.SamplingConfig{})
}

// addGroundPlane adds a large diffuse quad at y=0 facing up
func addGroundPlane(s *scene.Scene, albedo core.Vec3) {
	s.AddPrimitive(
		geometry.NewQuad(core.NewVec3(-1000, 0, -1000), core.NewVec3(0, 0, 2000), core.NewVec3(2000, 0, 0)),
		material.NewDiffuse(albedo), nil)
}

// newAreaLightScene is a diffuse plane under a downward-facing 1x1 area light at height 1
func newAreaLightScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := newTestScene()
	addGroundPlane(s, core.NewVec3(0.5, 0.5, 0.5))
	light := geometry.NewQuad(core.NewVec3(-0.5, 1, -0.5), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1))
	s.AddPrimitive(light, material.NewDiffuse(core.Vec3{}), lights.NewAreaLight(core.NewVec3(10, 10, 10)))
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return s
}

func mustIntegrator(t *testing.T, name string, config Config) Integrator {
	t.Helper()
	integrator, err := New(name, config)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}
	return integrator
}

// estimate averages n samples of Li along ray with a fixed seed
func estimate(integrator Integrator, s *scene.Scene, ray core.Ray, n int, seed int64) core.Vec3 {
	sampler := core.NewSeededSampler(seed)
	sum := core.Vec3{}
	for i := 0; i < n; i++ {
		sum = sum.Add(integrator.Li(s, sampler, ray))
	}
	return sum.Multiply(1.0 / float64(n))
}

func relativeClose(a, b core.Vec3, tolerance float64) bool {
	for axis := 0; axis < 3; axis++ {
		x, y := a.Axis(axis), b.Axis(axis)
		scale := math.Max(math.Abs(x), math.Abs(y))
		if scale == 0 {
			continue
		}
		if math.Abs(x-y)/scale > tolerance {
			return false
		}
	}
	return true
}

// A point light of power P at height d over a Lambertian plane of albedo rho gives
// rho/pi * P/(4 pi d^2) directly below it
func TestPointLightOverPlane_ClosedForm(t *testing.T) {
	power := core.NewVec3(100, 50, 25)
	distance := 2.0
	albedo := core.NewVec3(0.5, 0.8, 0.2)

	s := scene.NewPointPlaneScene(power, distance, albedo)
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	expected := albedo.Multiply(1 / math.Pi).MultiplyVec(power.Multiply(1 / (4 * math.Pi * distance * distance)))
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))

	tests := []struct {
		name      string
		samples   int
		tolerance float64
	}{
		{"direct", 1, 1e-9},
		{"direct_ems", 1, 1e-9},
		{"direct_mis", 1, 1e-9},
		{"path_mis", 20000, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integrator := mustIntegrator(t, tt.name, DefaultConfig())
			got := estimate(integrator, s, ray, tt.samples, 7)
			if !relativeClose(got, expected, tt.tolerance) {
				t.Errorf("Expected %v, got %v", expected, got)
			}
		})
	}

	// BSDF sampling can never find a point light
	mats := mustIntegrator(t, "direct_mats", DefaultConfig())
	if got := estimate(mats, s, ray, 100, 1); !got.IsZero() {
		t.Errorf("Expected BSDF sampling to miss the point light, got %v", got)
	}
}

// Light sampling, BSDF sampling and their combination estimate the same integral
func TestDirectStrategies_Agree(t *testing.T) {
	s := newAreaLightScene(t)
	ray := core.NewRay(core.NewVec3(0.3, 0.5, -2), core.NewVec3(-0.3, -0.5, 2).Normalize())

	const n = 200000
	ems := estimate(mustIntegrator(t, "direct_ems", DefaultConfig()), s, ray, n, 1)
	mats := estimate(mustIntegrator(t, "direct_mats", DefaultConfig()), s, ray, n, 2)
	mis := estimate(mustIntegrator(t, "direct_mis", DefaultConfig()), s, ray, n, 3)
	all := estimate(mustIntegrator(t, "direct", DefaultConfig()), s, ray, n, 4)

	if ems.IsZero() {
		t.Fatal("Expected a lit plane")
	}
	for _, tc := range []struct {
		name string
		got  core.Vec3
	}{{"direct_mats", mats}, {"direct_mis", mis}, {"direct", all}} {
		if !relativeClose(ems, tc.got, 0.03) {
			t.Errorf("%s: expected %v (light sampling), got %v", tc.name, ems, tc.got)
		}
	}
}

// Looking straight at the light returns its radiance from every estimator
func TestEstimators_SeeEmitterDirectly(t *testing.T) {
	s := newAreaLightScene(t)
	ray := core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, 1, 0))

	for _, name := range []string{"direct", "direct_ems", "direct_mats", "direct_mis", "path_mats", "path_mis"} {
		t.Run(name, func(t *testing.T) {
			got := estimate(mustIntegrator(t, name, DefaultConfig()), s, ray, 2000, 5)
			// The light's own BSDF is black, so only emission is seen, up to roulette noise
			if !relativeClose(got, core.NewVec3(10, 10, 10), 0.02) {
				t.Errorf("Expected radiance 10, got %v", got)
			}
		})
	}

	// The back of the light is dark
	back := core.NewRay(core.NewVec3(0, 2, 0), core.NewVec3(0, -1, 0))
	if got := estimate(mustIntegrator(t, "direct_mats", DefaultConfig()), s, back, 10, 1); got.X != 0 {
		t.Errorf("Expected the back of the light to be dark, got %v", got)
	}
}

// Under a constant environment L a Lambertian plane reflects rho*L
func TestEnvironment_DiffusePlane(t *testing.T) {
	radiance := core.NewVec3(0.5, 1, 2)
	albedo := core.NewVec3(0.6, 0.6, 0.6)

	s := newTestScene()
	addGroundPlane(s, albedo)
	s.AddLight(lights.NewConstantEnvironment(radiance))
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	expected := radiance.MultiplyVec(albedo)
	ray := core.NewRay(core.NewVec3(0, 1, -1), core.NewVec3(0, -1, 1).Normalize())

	tests := []struct {
		name      string
		samples   int
		tolerance float64
	}{
		{"direct_mats", 1, 1e-9},
		{"direct_ems", 100000, 0.02},
		{"direct_mis", 100000, 0.02},
		{"path_mis", 100000, 0.02},
		{"path_mats", 100000, 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimate(mustIntegrator(t, tt.name, DefaultConfig()), s, ray, tt.samples, 11)
			if !relativeClose(got, expected, tt.tolerance) {
				t.Errorf("Expected %v, got %v", expected, got)
			}
		})
	}

	// Camera rays that miss see the environment
	sky := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0))
	for _, name := range Names() {
		if name == "photonmapper" || name == "vol_path" || name == "av" {
			continue
		}
		got := estimate(mustIntegrator(t, name, DefaultConfig()), s, sky, 1, 1)
		if got != radiance {
			t.Errorf("%s: expected sky radiance %v, got %v", name, radiance, got)
		}
	}
}

func TestPathMIS_CornellIsFinite(t *testing.T) {
	s := scene.NewCornellScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	integrator := mustIntegrator(t, "path_mis", DefaultConfig())
	sampler := core.NewSeededSampler(3)

	sum := core.Vec3{}
	for i := 0; i < 2000; i++ {
		ray := s.Camera.GetRay(100+i%200, 150+i%100, sampler)
		li := integrator.Li(s, sampler, ray)
		if !li.IsValid() || li.X < 0 || li.Y < 0 || li.Z < 0 {
			t.Fatalf("Expected finite non-negative radiance, got %v", li)
		}
		sum = sum.Add(li)
	}
	if sum.IsZero() {
		t.Error("Expected some light in the Cornell box")
	}
}

// Interreflections between the walls: light sampling with MIS and pure BSDF sampling
// converge to the same radiance at a floor point
func TestPathMIS_MatchesPathMATSInCornell(t *testing.T) {
	s := scene.NewCornellScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	// From the camera to a floor point clear of both spheres
	origin := core.NewVec3(278, 278, -800)
	ray := core.NewRay(origin, core.NewVec3(300, 0, 150).Subtract(origin).Normalize())
	if its, hit := s.RayIntersect(ray); !hit || math.Abs(its.Point.Y) > 1e-6 {
		t.Fatalf("Expected the ray to land on the floor, got hit=%v at %v", hit, its.Point)
	}

	mis := estimate(mustIntegrator(t, "path_mis", DefaultConfig()), s, ray, 100000, 31)
	mats := estimate(mustIntegrator(t, "path_mats", DefaultConfig()), s, ray, 400000, 32)

	direct := estimate(mustIntegrator(t, "direct_mis", DefaultConfig()), s, ray, 100000, 33)
	if mis.X <= direct.X {
		t.Errorf("Expected indirect light to add to %v, got %v", direct, mis)
	}
	if !relativeClose(mis, mats, 0.05) {
		t.Errorf("Expected %v (BSDF sampling), got %v", mats, mis)
	}
}

// With a vacuum medium the volumetric path tracer consumes samples exactly like the
// surface path tracer and returns identical estimates
func TestVolPath_VacuumMatchesPathMIS(t *testing.T) {
	s := scene.NewCornellScene()
	s.SetMedium(medium.NewHomogeneous(core.Vec3{}, core.Vec3{}))
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	vol := NewVolumetricPathIntegrator()
	if err := vol.Preprocess(s); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	path := NewPathMISIntegrator()

	cameraSampler := core.NewSeededSampler(1)
	for i := 0; i < 200; i++ {
		ray := s.Camera.GetRay(i%400, (i*7)%400, cameraSampler)
		a := path.Li(s, core.NewSeededSampler(int64(i)), ray)
		b := vol.Li(s, core.NewSeededSampler(int64(i)), ray)
		if !relativeClose(a, b, 1e-9) {
			t.Fatalf("Ray %d: expected %v, got %v", i, a, b)
		}
	}
}

// A purely absorbing medium attenuates both the light and the view segment
func TestVolPath_AbsorbingMedium(t *testing.T) {
	sigma := 0.5
	power := core.NewVec3(100, 100, 100)
	albedo := core.NewVec3(0.5, 0.5, 0.5)

	s := scene.NewPointPlaneScene(power, 2, albedo)
	s.SetMedium(medium.NewHomogeneous(core.NewVec3(sigma, sigma, sigma), core.Vec3{}))
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	vol := NewVolumetricPathIntegrator()
	if err := vol.Preprocess(s); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	direct := albedo.Multiply(1 / math.Pi).MultiplyVec(power.Multiply(1 / (4 * math.Pi * 4)))
	expected := direct.Multiply(math.Exp(-sigma*2) * math.Exp(-sigma*1))

	got := estimate(vol, s, ray, 200000, 9)
	if !relativeClose(got, expected, 0.02) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

// freeFlightEstimate is a reference estimator for a scattering medium that only samples
// free flights, the phase function and the BSDF, and counts light only when it is hit
func freeFlightEstimate(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	m := s.GetMedium()
	result := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for {
		its, hit := s.RayIntersect(ray)
		tMax := math.Inf(1)
		if hit {
			tMax = its.T
		}

		distance, weight, scattered := m.SampleDistance(sampler.Get1D(), tMax)
		throughput = throughput.MultiplyVec(weight)

		if scattered {
			survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), core.RouletteCap)
			if !survive {
				return result
			}
			throughput = throughput.Multiply(scale)
			ray = core.NewRay(ray.At(distance), m.SamplePhase(sampler.Get2D()))
			continue
		}
		if !hit {
			return result
		}
		result = result.Add(throughput.MultiplyVec(emittedRadiance(&its, ray)))

		survive, scale := core.RussianRoulette(throughput, sampler.Get1D(), core.RouletteCap)
		if !survive {
			return result
		}
		throughput = throughput.Multiply(scale)

		bq := sampleQuery(&its, its.ToLocal(ray.Direction.Negate()))
		f := its.BSDF().Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			return result
		}
		throughput = throughput.MultiplyVec(f)
		ray = core.NewRay(its.Point, its.ToWorld(bq.Wo))
	}
}

// Light sampling from scattering vertices, attenuated and MIS-weighted against the
// phase function, converges to the same radiance as pure free-flight tracing
func TestVolPath_ScatteringMatchesFreeFlight(t *testing.T) {
	s := newTestScene()
	addGroundPlane(s, core.NewVec3(0.5, 0.5, 0.5))
	light := geometry.NewQuad(core.NewVec3(-0.5, 1, -0.5), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1))
	s.AddPrimitive(light, material.NewDiffuse(core.Vec3{}), lights.NewAreaLight(core.NewVec3(10, 10, 10)))
	// Chromatic medium: red scatters most, blue absorbs most
	s.SetMedium(medium.NewHomogeneous(core.NewVec3(0.05, 0.1, 0.2), core.NewVec3(0.4, 0.3, 0.2)))
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	vol := NewVolumetricPathIntegrator()
	if err := vol.Preprocess(s); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	ray := core.NewRay(core.NewVec3(0.3, 0.5, -2), core.NewVec3(-0.3, -0.5, 2).Normalize())
	got := estimate(vol, s, ray, 200000, 21)

	sampler := core.NewSeededSampler(22)
	const n = 400000
	reference := core.Vec3{}
	for i := 0; i < n; i++ {
		reference = reference.Add(freeFlightEstimate(s, sampler, ray))
	}
	reference = reference.Multiply(1.0 / n)

	if reference.IsZero() {
		t.Fatal("Expected light to reach the camera through the medium")
	}
	if !relativeClose(got, reference, 0.05) {
		t.Errorf("Expected %v (free flight), got %v", reference, got)
	}
}

func TestVolPath_RequiresMedium(t *testing.T) {
	s := newAreaLightScene(t)
	vol := NewVolumetricPathIntegrator()

	if err := vol.Preprocess(s); !errors.Is(err, ErrNoMedium) {
		t.Errorf("Expected ErrNoMedium, got %v", err)
	}

	defer func() {
		if r := recover(); r != ErrNoMedium {
			t.Errorf("Expected panic with ErrNoMedium, got %v", r)
		}
	}()
	vol.Li(s, core.NewSeededSampler(1), core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, -1, 0)))
}

func TestVolPath_FogSceneIsFinite(t *testing.T) {
	s := scene.NewCornellFogScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	vol := NewVolumetricPathIntegrator()
	if err := vol.Preprocess(s); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	sampler := core.NewSeededSampler(5)
	for i := 0; i < 1000; i++ {
		ray := s.Camera.GetRay(200, 200, sampler)
		li := vol.Li(s, sampler, ray)
		if !li.IsValid() || li.X < 0 || li.Y < 0 || li.Z < 0 {
			t.Fatalf("Expected finite non-negative radiance, got %v", li)
		}
	}
}

func TestAverageVisibility(t *testing.T) {
	s := newTestScene()
	addGroundPlane(s, core.NewVec3(0.5, 0.5, 0.5))
	// Enclosing sphere, so every hemisphere direction is blocked within its radius
	s.AddPrimitive(geometry.NewSphere(core.Vec3{}, 5), nil, nil)
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	ray := core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, -1, 0))
	tests := []struct {
		length   float64
		expected float64
	}{
		{0.01, 1},
		{6, 0},
		{1e6, 0},
	}
	for _, tt := range tests {
		got := estimate(NewAverageVisibilityIntegrator(tt.length), s, ray, 100, 1)
		if got.X != tt.expected {
			t.Errorf("Length %g: expected visibility %f, got %f", tt.length, tt.expected, got.X)
		}
	}

	// Misses are visible
	up := newTestScene()
	addGroundPlane(up, core.NewVec3(0.5, 0.5, 0.5))
	if err := up.Preprocess(); err != nil {
		t.Fatal(err)
	}
	if got := NewAverageVisibilityIntegrator(1).Li(up, core.NewSeededSampler(1), core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0))); got.X != 1 {
		t.Errorf("Expected a miss to be visible, got %v", got)
	}
}

func TestEnvironmentIntegrator(t *testing.T) {
	radiance := core.NewVec3(0.2, 0.4, 0.8)
	s := newTestScene()
	addGroundPlane(s, core.NewVec3(0.5, 0.5, 0.5))
	s.AddLight(lights.NewConstantEnvironment(radiance))
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	env := mustIntegrator(t, "env", DefaultConfig())
	// Geometry is ignored, so the ground does not block the lookup
	down := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	if got := env.Li(s, core.NewSeededSampler(1), down); got != radiance {
		t.Errorf("Expected %v, got %v", radiance, got)
	}

	if got := env.Li(newAreaLightScene(t), core.NewSeededSampler(1), down); !got.IsZero() {
		t.Errorf("Expected black without an environment, got %v", got)
	}
}

func TestNew_Registry(t *testing.T) {
	expected := []string{"av", "direct", "direct_ems", "direct_mats", "direct_mis", "env", "path_mats", "path_mis", "photonmapper", "vol_path"}
	names := Names()
	if len(names) != len(expected) {
		t.Fatalf("Expected %d integrators, got %v", len(expected), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected %q at %d, got %q", name, i, names[i])
		}
		if _, err := New(name, Config{}); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}

	if _, err := New("bdpt", DefaultConfig()); !errors.Is(err, ErrUnknownIntegrator) {
		t.Errorf("Expected ErrUnknownIntegrator, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.PhotonCount != 1000000 {
		t.Errorf("Expected 1000000 photons, got %d", config.PhotonCount)
	}
	if config.PhotonRadius != 0 {
		t.Errorf("Expected automatic photon radius, got %f", config.PhotonRadius)
	}
	if config.PhotonIndex != "kdtree" {
		t.Errorf("Expected kdtree index, got %q", config.PhotonIndex)
	}
}

func TestLightSampleWeight(t *testing.T) {
	tests := []struct {
		name     string
		sample   lightSample
		expected float64
	}{
		{"delta light", lightSample{Delta: true, LightPDF: 1, ScatterPDF: 5}, 1},
		{"balanced", lightSample{LightPDF: 1, ScatterPDF: 3}, 0.25},
		{"discrete bsdf", lightSample{LightPDF: 2, ScatterPDF: 0}, 1},
		{"both zero", lightSample{}, 0},
	}
	for _, tt := range tests {
		if got := tt.sample.Weight(); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.expected, got)
		}
	}
}
