package lights

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-light-transport/pkg/core"
	"github.com/df07/go-light-transport/pkg/geometry"
)

// downwardQuadLight is a 2x2 quad at y=4 facing -Y
func downwardQuadLight(radiance core.Vec3) *AreaLight {
	light := NewAreaLight(radiance)
	light.AttachShape(geometry.NewQuad(core.NewVec3(-1, 4, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2)))
	return light
}

func TestAreaLight_WithoutShapePanics(t *testing.T) {
	light := NewAreaLight(core.NewVec3(1, 1, 1))
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoShape) {
			t.Errorf("Expected panic with ErrNoShape, got %v", r)
		}
	}()
	q := NewSampleQuery(core.Vec3{})
	light.Sample(&q, core.NewVec2(0.5, 0.5))
}

func TestAreaLight_QuadFacesDown(t *testing.T) {
	light := downwardQuadLight(core.NewVec3(1, 1, 1))
	quad := light.Shape().(*geometry.Quad)
	if quad.Normal.Y >= 0 {
		t.Fatalf("Expected downward normal, got %v", quad.Normal)
	}
}

func TestAreaLight_SampleMatchesEvalOverPDF(t *testing.T) {
	light := downwardQuadLight(core.NewVec3(3, 2, 1))
	sampler := core.NewSeededSampler(42)

	for i := 0; i < 200; i++ {
		q := NewSampleQuery(core.NewVec3(0.3, 0, -0.2))
		weight := light.Sample(&q, sampler.Get2D())
		pdf := light.PDF(q)
		if pdf <= 0 {
			t.Fatalf("Expected positive pdf for a visible sample, got %f", pdf)
		}
		expected := light.Eval(q).Multiply(1.0 / pdf)
		if !closeVec(weight, expected, 1e-9) {
			t.Fatalf("Expected weight %v, got %v", expected, weight)
		}
		if q.ShadowRay.TMax >= q.Point.Subtract(q.Ref).Length() {
			t.Errorf("Shadow ray must stop short of the light, TMax=%f", q.ShadowRay.TMax)
		}
	}
}

func TestAreaLight_BackSideIsDark(t *testing.T) {
	light := downwardQuadLight(core.NewVec3(1, 1, 1))
	q := NewSampleQuery(core.NewVec3(0, 8, 0)) // above the light
	if weight := light.Sample(&q, core.NewVec2(0.5, 0.5)); !weight.IsZero() {
		t.Errorf("Expected zero from the back side, got %v", weight)
	}
	if pdf := light.PDF(q); pdf != 0 {
		t.Errorf("Expected zero pdf from the back side, got %f", pdf)
	}
}

// Light sampling and uniform direction sampling must agree on the light's solid angle
func TestAreaLight_SolidAngleConsistency(t *testing.T) {
	light := downwardQuadLight(core.NewVec3(1, 1, 1))
	quad := light.Shape()
	ref := core.NewVec3(0.5, 0, 0.5)
	sampler := core.NewSeededSampler(9)

	const n = 200000
	lightEstimate := 0.0
	for i := 0; i < n; i++ {
		q := NewSampleQuery(ref)
		light.Sample(&q, sampler.Get2D())
		if pdf := light.PDF(q); pdf > 0 {
			lightEstimate += 1.0 / pdf
		}
	}
	lightEstimate /= n

	const directions = 1000000
	directionEstimate := 0.0
	for i := 0; i < directions; i++ {
		dir := core.SquareToUniformSphere(sampler.Get2D())
		if _, hit := quad.Hit(core.NewRay(ref, dir), core.Epsilon, math.Inf(1)); hit {
			directionEstimate += 4 * math.Pi
		}
	}
	directionEstimate /= directions

	if math.Abs(lightEstimate-directionEstimate) > 0.03*lightEstimate {
		t.Errorf("Solid angle mismatch: light sampling %f, direction sampling %f", lightEstimate, directionEstimate)
	}
}

func TestAreaLight_SamplePhoton(t *testing.T) {
	radiance := core.NewVec3(2, 2, 2)
	light := downwardQuadLight(radiance)
	sampler := core.NewSeededSampler(5)

	expectedPower := radiance.Multiply(math.Pi * 4) // pi * area * L
	for i := 0; i < 100; i++ {
		ray, power := light.SamplePhoton(sampler.Get2D(), sampler.Get2D())
		if ray.Direction.Y >= 0 {
			t.Fatalf("Photon should leave the front side, got direction %v", ray.Direction)
		}
		if !closeVec(power, expectedPower, 1e-9) {
			t.Fatalf("Expected power %v, got %v", expectedPower, power)
		}
	}
}

func TestPointLight_Sample(t *testing.T) {
	power := core.NewVec3(100, 50, 25)
	light := NewPointLight(core.NewVec3(0, 2, 0), power)

	if !IsDelta(light) {
		t.Error("Point light should be a delta light")
	}

	q := NewSampleQuery(core.NewVec3(0, 0, 0))
	weight := light.Sample(&q, core.NewVec2(0.1, 0.9))
	expected := power.Multiply(1.0 / (4 * math.Pi * 4))
	if !closeVec(weight, expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, weight)
	}
	if !closeVec(q.Wi, core.NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("Expected wi (0,1,0), got %v", q.Wi)
	}
	if light.PDF(q) != 1 {
		t.Errorf("Expected pdf 1, got %f", light.PDF(q))
	}
}

func TestPointLight_SamplePhoton(t *testing.T) {
	power := core.NewVec3(10, 10, 10)
	light := NewPointLight(core.NewVec3(1, 2, 3), power)
	sampler := core.NewSeededSampler(1)

	for i := 0; i < 50; i++ {
		ray, photonPower := light.SamplePhoton(sampler.Get2D(), sampler.Get2D())
		if ray.Origin != light.Position {
			t.Fatalf("Photon should start at the light, got %v", ray.Origin)
		}
		if !closeVec(photonPower, power, 1e-12) {
			t.Fatalf("Expected power %v, got %v", power, photonPower)
		}
	}
}

func TestSpotLight_Cone(t *testing.T) {
	light := NewSpotLight(core.NewVec3(0, 5, 0), core.NewVec3(0, 0, 0), core.NewVec3(100, 100, 100), 30, 20)

	tests := []struct {
		name      string
		ref       core.Vec3
		expectLit bool
	}{
		{"directly below", core.NewVec3(0, 0, 0), true},
		{"inside falloff band", core.NewVec3(2.3, 0, 0), true},
		{"outside cone", core.NewVec3(5, 0, 0), false},
		{"behind", core.NewVec3(0, 10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewSampleQuery(tt.ref)
			weight := light.Sample(&q, core.NewVec2(0.5, 0.5))
			if weight.IsZero() == tt.expectLit {
				t.Errorf("Expected lit=%t, got weight %v", tt.expectLit, weight)
			}
		})
	}

	// Falloff band is dimmer than the center at the same distance
	center := NewSampleQuery(core.NewVec3(0, 0, 0))
	centerWeight := light.Sample(&center, core.Vec2{})
	band := NewSampleQuery(core.NewVec3(0, 5, 0).Add(core.NewVec3(math.Sin(0.45), -math.Cos(0.45), 0).Multiply(5)))
	bandWeight := light.Sample(&band, core.Vec2{})
	if bandWeight.X >= centerWeight.X {
		t.Errorf("Expected falloff: band %v should be below center %v", bandWeight, centerWeight)
	}
}

func TestSpotLight_PhotonFlux(t *testing.T) {
	// Without a falloff band the emitted flux is exactly the configured power
	power := core.NewVec3(40, 40, 40)
	light := NewSpotLight(core.NewVec3(0, 0, 0), core.NewVec3(0, -1, 0), power, 25, 25)
	sampler := core.NewSeededSampler(3)

	for i := 0; i < 100; i++ {
		ray, photonPower := light.SamplePhoton(sampler.Get2D(), sampler.Get2D())
		if ray.Direction.Dot(light.Direction) < math.Cos(25*math.Pi/180)-1e-9 {
			t.Fatalf("Photon left the cone: %v", ray.Direction)
		}
		if !closeVec(photonPower, power, 1e-9) {
			t.Fatalf("Expected power %v, got %v", power, photonPower)
		}
	}
}

func TestConstantEnvironment(t *testing.T) {
	radiance := core.NewVec3(0.5, 0.7, 0.9)
	env := NewConstantEnvironment(radiance)
	if err := env.Preprocess(core.NewVec3(0, 0, 0), 10); err != nil {
		t.Fatal(err)
	}

	q := NewSampleQuery(core.Vec3{})
	weight := env.Sample(&q, core.NewVec2(0.3, 0.6))
	if !closeVec(weight.Multiply(env.PDF(q)), radiance, 1e-12) {
		t.Errorf("Expected weight*pdf = %v, got %v", radiance, weight.Multiply(env.PDF(q)))
	}
	if !math.IsInf(q.ShadowRay.TMax, 1) {
		t.Errorf("Environment shadow ray should be unbounded, got TMax=%f", q.ShadowRay.TMax)
	}

	ray, _ := env.SamplePhoton(core.NewVec2(0.5, 0.5), core.NewVec2(0.2, 0.2))
	if math.Abs(ray.Origin.Length()-10) > 1e-9 {
		t.Errorf("Photon from disk center should start on the bounding sphere, got |o|=%f", ray.Origin.Length())
	}
	if ray.Direction.Dot(ray.Origin) >= 0 {
		t.Error("Environment photons must travel into the scene")
	}
}

// testEnvMap has a bright band in the upper hemisphere
func testEnvMap() *EnvironmentMap {
	width, height := 16, 8
	pixels := make([]core.Vec3, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			value := 0.1
			if row == 2 && col >= 4 && col < 8 {
				value = 20
			}
			pixels[row*width+col] = core.NewVec3(value, value, value)
		}
	}
	return NewEnvironmentMap(width, height, pixels, 1)
}

func TestEnvironmentMap_PDFIntegratesToOne(t *testing.T) {
	env := testEnvMap()
	sampler := core.NewSeededSampler(21)

	const n = 1000000
	sum := 0.0
	for i := 0; i < n; i++ {
		q := NewDirectionQuery(core.Vec3{}, core.SquareToUniformSphere(sampler.Get2D()))
		sum += env.PDF(q) * 4 * math.Pi
	}
	if got := sum / n; math.Abs(got-1) > 0.02 {
		t.Errorf("Expected pdf to integrate to 1, got %f", got)
	}
}

func TestEnvironmentMap_SampleEstimatesTotalRadiance(t *testing.T) {
	env := testEnvMap()
	sampler := core.NewSeededSampler(8)

	// Exact integral of the piecewise-constant map over the sphere
	expected := 0.0
	for row := 0; row < env.Height; row++ {
		theta0 := math.Pi * float64(row) / float64(env.Height)
		theta1 := math.Pi * float64(row+1) / float64(env.Height)
		cellSolidAngle := 2 * math.Pi / float64(env.Width) * (math.Cos(theta0) - math.Cos(theta1))
		for col := 0; col < env.Width; col++ {
			expected += env.Pixels[row*env.Width+col].X * cellSolidAngle
		}
	}

	const n = 200000
	sum := 0.0
	for i := 0; i < n; i++ {
		q := NewSampleQuery(core.Vec3{})
		sum += env.Sample(&q, sampler.Get2D()).X
	}
	if got := sum / n; math.Abs(got-expected) > 0.02*expected {
		t.Errorf("Expected integral %f, got %f", expected, got)
	}
}

func TestEnvironmentMap_DirectionRoundTrip(t *testing.T) {
	sampler := core.NewSeededSampler(4)
	for i := 0; i < 100; i++ {
		d := core.SquareToUniformSphere(sampler.Get2D())
		uv, _ := directionToUV(d)
		back, _ := uvToDirection(uv)
		if !closeVec(d, back, 1e-9) {
			t.Fatalf("Round trip failed: %v -> %v -> %v", d, uv, back)
		}
	}
}

func closeVec(a, b core.Vec3, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance && math.Abs(a.Y-b.Y) <= tolerance && math.Abs(a.Z-b.Z) <= tolerance
}
