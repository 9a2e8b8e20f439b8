package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates an independent sampler with a fixed seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// SampleCosineHemisphere generates a cosine-weighted direction in the hemisphere around a world-space normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	return NewFrame(normal).ToWorld(SquareToCosineHemisphere(sample))
}

// SampleCone samples a direction uniformly within a cone around a world-space axis
func SampleCone(direction Vec3, cosTotalWidth float64, sample Vec2) Vec3 {
	return NewFrame(direction).ToWorld(SquareToUniformSphereCap(sample, cosTotalWidth))
}

// SquareToUniformDisk maps the unit square to the unit disk (z = 0) using the concentric mapping
func SquareToUniformDisk(sample Vec2) Vec3 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	uOffset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec3(0, 0, 0)
	}

	var theta, r float64
	if math.Abs(uOffset.X) > math.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math.Pi/2 - math.Pi/4*(uOffset.X/uOffset.Y)
	}

	return NewVec3(r*math.Cos(theta), r*math.Sin(theta), 0)
}

// SquareToUniformDiskPDF is the area density of SquareToUniformDisk
func SquareToUniformDiskPDF(p Vec3) float64 {
	if p.X*p.X+p.Y*p.Y > 1 {
		return 0
	}
	return 1.0 / math.Pi
}

// SquareToUniformSphere maps the unit square to a uniformly distributed unit direction
func SquareToUniformSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SquareToUniformSpherePDF is the solid angle density of SquareToUniformSphere
func SquareToUniformSpherePDF(v Vec3) float64 {
	return 1.0 / (4.0 * math.Pi)
}

// SquareToUniformHemisphere maps the unit square to the +Z hemisphere uniformly
func SquareToUniformHemisphere(sample Vec2) Vec3 {
	z := sample.X
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SquareToUniformHemispherePDF is the solid angle density of SquareToUniformHemisphere
func SquareToUniformHemispherePDF(v Vec3) float64 {
	if v.Z < 0 {
		return 0
	}
	return 1.0 / (2.0 * math.Pi)
}

// SquareToCosineHemisphere maps the unit square to the +Z hemisphere with density cos(theta)/pi
func SquareToCosineHemisphere(sample Vec2) Vec3 {
	d := SquareToUniformDisk(sample)
	z := math.Sqrt(math.Max(0, 1.0-d.X*d.X-d.Y*d.Y))
	return NewVec3(d.X, d.Y, z)
}

// SquareToCosineHemispherePDF is the solid angle density of SquareToCosineHemisphere
func SquareToCosineHemispherePDF(v Vec3) float64 {
	if v.Z <= 0 {
		return 0
	}
	return v.Z / math.Pi
}

// SquareToUniformSphereCap samples directions within cosThetaMax of +Z uniformly
func SquareToUniformSphereCap(sample Vec2, cosThetaMax float64) Vec3 {
	cosTheta := 1.0 - sample.X*(1.0-cosThetaMax)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// SquareToUniformSphereCapPDF is the solid angle density of SquareToUniformSphereCap
func SquareToUniformSphereCapPDF(v Vec3, cosThetaMax float64) float64 {
	if v.Z < cosThetaMax || cosThetaMax >= 1 {
		return 0
	}
	return 1.0 / (2.0 * math.Pi * (1.0 - cosThetaMax))
}

// SquareToBeckmann samples a microfacet normal from the Beckmann distribution with roughness alpha
func SquareToBeckmann(sample Vec2, alpha float64) Vec3 {
	tan2Theta := -alpha * alpha * math.Log(1.0-sample.X)
	cosTheta := 1.0 / math.Sqrt(1.0+tan2Theta)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// SquareToBeckmannPDF is the solid angle density of SquareToBeckmann, D(m)·cos(theta_m)
func SquareToBeckmannPDF(m Vec3, alpha float64) float64 {
	if m.Z <= 0 {
		return 0
	}
	cos2Theta := m.Z * m.Z
	tan2Theta := (1.0 - cos2Theta) / cos2Theta
	return math.Exp(-tan2Theta/(alpha*alpha)) / (math.Pi * alpha * alpha * cos2Theta * m.Z)
}

// SquareToUniformTriangle returns barycentric coordinates (b0, b1) uniformly distributed over a triangle
func SquareToUniformTriangle(sample Vec2) Vec2 {
	su := math.Sqrt(sample.X)
	return NewVec2(1.0-su, sample.Y*su)
}
