package lights

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// PointLight radiates power uniformly in all directions from a single point
type PointLight struct {
	Position core.Vec3
	Power    core.Vec3
}

// NewPointLight creates a point light with total emitted power
func NewPointLight(position, power core.Vec3) *PointLight {
	return &PointLight{Position: position, Power: power}
}

func (pl *PointLight) Type() LightType {
	return LightTypePoint
}

// Eval returns the irradiance-like term Power / (4 pi d^2) seen from q.Ref
func (pl *PointLight) Eval(q EmitterQuery) core.Vec3 {
	distanceSquared := pl.Position.Subtract(q.Ref).LengthSquared()
	if distanceSquared == 0 {
		return core.Vec3{}
	}
	return pl.Power.Multiply(1.0 / (4 * math.Pi * distanceSquared))
}

// Sample always returns the light position
func (pl *PointLight) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	*q = NewEvalQuery(q.Ref, pl.Position, core.Vec3{})
	return pl.Eval(*q)
}

// PDF is 1: the position is chosen deterministically
func (pl *PointLight) PDF(q EmitterQuery) float64 {
	return 1
}

// SamplePhoton emits in a uniform direction carrying the full power
func (pl *PointLight) SamplePhoton(samplePoint, sampleDirection core.Vec2) (core.Ray, core.Vec3) {
	direction := core.SquareToUniformSphere(sampleDirection)
	return core.NewRay(pl.Position, direction), pl.Power
}
