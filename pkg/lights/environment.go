package lights

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// environmentBounds holds the finite scene bounds that photon emission from infinity is aimed at
type environmentBounds struct {
	worldCenter core.Vec3
	worldRadius float64
}

// Preprocess implements the Preprocessor interface - sets world bounds from scene
func (eb *environmentBounds) Preprocess(worldCenter core.Vec3, worldRadius float64) error {
	eb.worldCenter = worldCenter
	eb.worldRadius = worldRadius
	return nil
}

// photonRay starts a parallel ray on a disk facing the scene, placed on the bounding sphere
// in direction toEnv. It returns the ray and the disk area density.
func (eb *environmentBounds) photonRay(toEnv core.Vec3, samplePoint core.Vec2) (core.Ray, float64) {
	if eb.worldRadius <= 0 {
		return core.Ray{}, 0
	}
	frame := core.NewFrame(toEnv)
	disk := core.SquareToUniformDisk(samplePoint)
	origin := eb.worldCenter.
		Add(toEnv.Multiply(eb.worldRadius)).
		Add(frame.S.Multiply(disk.X * eb.worldRadius)).
		Add(frame.T.Multiply(disk.Y * eb.worldRadius))
	return core.NewRay(origin, toEnv.Negate()), 1.0 / (math.Pi * eb.worldRadius * eb.worldRadius)
}

// ConstantEnvironment surrounds the scene with uniform radiance
type ConstantEnvironment struct {
	environmentBounds
	Radiance core.Vec3
}

// NewConstantEnvironment creates a uniform environment emitter
func NewConstantEnvironment(radiance core.Vec3) *ConstantEnvironment {
	return &ConstantEnvironment{Radiance: radiance}
}

func (ce *ConstantEnvironment) Type() LightType {
	return LightTypeInfinite
}

// Eval returns the constant radiance for any direction
func (ce *ConstantEnvironment) Eval(q EmitterQuery) core.Vec3 {
	return ce.Radiance
}

// Sample picks a uniform direction on the sphere
func (ce *ConstantEnvironment) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	*q = NewDirectionQuery(q.Ref, core.SquareToUniformSphere(sample))
	return ce.Radiance.Multiply(4 * math.Pi)
}

// PDF is the uniform sphere density
func (ce *ConstantEnvironment) PDF(q EmitterQuery) float64 {
	return 1.0 / (4 * math.Pi)
}

// SamplePhoton emits parallel rays into the scene from a uniform direction
func (ce *ConstantEnvironment) SamplePhoton(samplePoint, sampleDirection core.Vec2) (core.Ray, core.Vec3) {
	toEnv := core.SquareToUniformSphere(sampleDirection)
	ray, areaPDF := ce.photonRay(toEnv, samplePoint)
	if areaPDF == 0 {
		return core.Ray{}, core.Vec3{}
	}
	return ray, ce.Radiance.Multiply(4 * math.Pi / areaPDF)
}

// EnvironmentMap is a latitude-longitude radiance image around the scene, +Y up.
// Directions are importance sampled by luminance.
type EnvironmentMap struct {
	environmentBounds
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major, row 0 looks straight up
	Scale  float64

	distribution *core.Distribution2D
}

// NewEnvironmentMap builds the sampling distribution for a width×height image
func NewEnvironmentMap(width, height int, pixels []core.Vec3, scale float64) *EnvironmentMap {
	weights := make([]float64, width*height)
	for row := 0; row < height; row++ {
		sinTheta := math.Sin(math.Pi * (float64(row) + 0.5) / float64(height))
		for col := 0; col < width; col++ {
			weights[row*width+col] = math.Max(0, pixels[row*width+col].Luminance()) * sinTheta
		}
	}
	return &EnvironmentMap{
		Width:        width,
		Height:       height,
		Pixels:       pixels,
		Scale:        scale,
		distribution: core.NewDistribution2D(weights, width, height),
	}
}

func (em *EnvironmentMap) Type() LightType {
	return LightTypeInfinite
}

// directionToUV maps a unit direction to (u along longitude, v from the north pole)
func directionToUV(d core.Vec3) (core.Vec2, float64) {
	theta := math.Acos(math.Max(-1, math.Min(1, d.Y)))
	phi := math.Atan2(d.Z, d.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return core.NewVec2(phi/(2*math.Pi), theta/math.Pi), math.Sin(theta)
}

// uvToDirection is the inverse of directionToUV
func uvToDirection(uv core.Vec2) (core.Vec3, float64) {
	theta := uv.Y * math.Pi
	phi := uv.X * 2 * math.Pi
	sinTheta := math.Sin(theta)
	return core.NewVec3(sinTheta*math.Cos(phi), math.Cos(theta), sinTheta*math.Sin(phi)), sinTheta
}

func (em *EnvironmentMap) lookup(uv core.Vec2) core.Vec3 {
	col := int(uv.X * float64(em.Width))
	row := int(uv.Y * float64(em.Height))
	col = min(max(col, 0), em.Width-1)
	row = min(max(row, 0), em.Height-1)
	return em.Pixels[row*em.Width+col].Multiply(em.Scale)
}

// Eval returns the radiance arriving from direction q.Wi
func (em *EnvironmentMap) Eval(q EmitterQuery) core.Vec3 {
	uv, _ := directionToUV(q.Wi)
	return em.lookup(uv)
}

// Sample picks a direction proportionally to pixel luminance
func (em *EnvironmentMap) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	uv, pdfUV := em.distribution.SampleContinuous(sample)
	direction, sinTheta := uvToDirection(uv)
	if pdfUV == 0 || sinTheta == 0 {
		return core.Vec3{}
	}
	*q = NewDirectionQuery(q.Ref, direction)
	pdf := pdfUV / (2 * math.Pi * math.Pi * sinTheta)
	return em.lookup(uv).Multiply(1.0 / pdf)
}

// PDF converts the image-space density to solid angle
func (em *EnvironmentMap) PDF(q EmitterQuery) float64 {
	uv, sinTheta := directionToUV(q.Wi)
	if sinTheta == 0 {
		return 0
	}
	return em.distribution.PDF(uv) / (2 * math.Pi * math.Pi * sinTheta)
}

// SamplePhoton emits parallel rays from an importance-sampled direction
func (em *EnvironmentMap) SamplePhoton(samplePoint, sampleDirection core.Vec2) (core.Ray, core.Vec3) {
	var q EmitterQuery
	weight := em.Sample(&q, sampleDirection)
	if weight.IsZero() {
		return core.Ray{}, core.Vec3{}
	}
	ray, areaPDF := em.photonRay(q.Wi, samplePoint)
	if areaPDF == 0 {
		return core.Ray{}, core.Vec3{}
	}
	return ray, weight.Multiply(1.0 / areaPDF)
}
