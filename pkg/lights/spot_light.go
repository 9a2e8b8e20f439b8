package lights

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// SpotLight is a point light restricted to a cone, with a quartic falloff
// between the inner (falloff) and outer (cone) angles
type SpotLight struct {
	Position   core.Vec3
	Direction  core.Vec3
	Power      core.Vec3
	cosCone    float64
	cosFalloff float64
}

// NewSpotLight creates a spot light aimed at target. coneDegrees is the outer half-angle,
// falloffDegrees the half-angle of full intensity.
func NewSpotLight(position, target, power core.Vec3, coneDegrees, falloffDegrees float64) *SpotLight {
	if falloffDegrees > coneDegrees {
		falloffDegrees = coneDegrees
	}
	return &SpotLight{
		Position:   position,
		Direction:  target.Subtract(position).Normalize(),
		Power:      power,
		cosCone:    math.Cos(coneDegrees * math.Pi / 180),
		cosFalloff: math.Cos(falloffDegrees * math.Pi / 180),
	}
}

func (sl *SpotLight) Type() LightType {
	return LightTypeSpot
}

// falloff returns the angular attenuation for an emission direction
func (sl *SpotLight) falloff(direction core.Vec3) float64 {
	cosTheta := direction.Normalize().Dot(sl.Direction)
	if cosTheta < sl.cosCone {
		return 0
	}
	if cosTheta >= sl.cosFalloff {
		return 1
	}
	delta := (cosTheta - sl.cosCone) / (sl.cosFalloff - sl.cosCone)
	return delta * delta * delta * delta
}

// intensity is the radiant intensity toward direction
func (sl *SpotLight) intensity(direction core.Vec3) core.Vec3 {
	norm := 2 * math.Pi * (1 - 0.5*(sl.cosFalloff+sl.cosCone))
	if norm <= 0 {
		return core.Vec3{}
	}
	return sl.Power.Multiply(sl.falloff(direction) / norm)
}

// Eval returns intensity / d^2 toward q.Ref
func (sl *SpotLight) Eval(q EmitterQuery) core.Vec3 {
	toRef := q.Ref.Subtract(sl.Position)
	distanceSquared := toRef.LengthSquared()
	if distanceSquared == 0 {
		return core.Vec3{}
	}
	return sl.intensity(toRef).Multiply(1.0 / distanceSquared)
}

// Sample always returns the light position
func (sl *SpotLight) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	*q = NewEvalQuery(q.Ref, sl.Position, sl.Direction)
	return sl.Eval(*q)
}

// PDF is 1: the position is chosen deterministically
func (sl *SpotLight) PDF(q EmitterQuery) float64 {
	return 1
}

// SamplePhoton emits uniformly within the outer cone
func (sl *SpotLight) SamplePhoton(samplePoint, sampleDirection core.Vec2) (core.Ray, core.Vec3) {
	local := core.SquareToUniformSphereCap(sampleDirection, sl.cosCone)
	pdf := core.SquareToUniformSphereCapPDF(local, sl.cosCone)
	if pdf == 0 {
		return core.Ray{}, core.Vec3{}
	}
	direction := core.NewFrame(sl.Direction).ToWorld(local)
	return core.NewRay(sl.Position, direction), sl.intensity(direction).Multiply(1.0 / pdf)
}
