package material

import (
	"github.com/df07/go-light-transport/pkg/core"
)

// Default indices of refraction for dielectrics (BK7 glass in air)
const (
	DefaultIntIOR = 1.5046
	DefaultExtIOR = 1.000277
)

// Dielectric is a smooth interface between two transparent media, like glass
type Dielectric struct {
	IntIOR float64 // index of refraction on the normal's back side
	ExtIOR float64 // index of refraction on the normal's front side
}

// NewDielectric creates a dielectric interface with the given indices
func NewDielectric(intIOR, extIOR float64) *Dielectric {
	return &Dielectric{IntIOR: intIOR, ExtIOR: extIOR}
}

// NewGlass creates a dielectric with the default glass-in-air indices
func NewGlass() *Dielectric {
	return NewDielectric(DefaultIntIOR, DefaultExtIOR)
}

// Eval is zero: both lobes are Dirac deltas
func (d *Dielectric) Eval(q BSDFQuery) core.Vec3 {
	return core.Vec3{}
}

// PDF is zero for the same reason
func (d *Dielectric) PDF(q BSDFQuery) float64 {
	return 0
}

// Sample chooses reflection with the Fresnel probability and refraction otherwise.
// Either way the weight is one since the selection probability cancels the Fresnel term.
func (d *Dielectric) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	cosThetaI := core.CosTheta(q.Wi)
	fresnel := FresnelDielectric(cosThetaI, d.ExtIOR, d.IntIOR)

	q.Measure = MeasureDiscrete

	if sample.X < fresnel {
		q.Wo = reflect(q.Wi)
		q.Eta = 1.0
		return core.NewVec3(1, 1, 1)
	}

	eta := d.IntIOR / d.ExtIOR
	wo, ok := refract(q.Wi, eta)
	if !ok {
		// Unreachable in exact arithmetic since TIR implies fresnel == 1
		q.Wo = reflect(q.Wi)
		q.Eta = 1.0
		return core.NewVec3(1, 1, 1)
	}

	q.Wo = wo
	if cosThetaI >= 0 {
		q.Eta = eta
	} else {
		q.Eta = 1.0 / eta
	}
	return core.NewVec3(1, 1, 1)
}

// IsDiffuse returns false
func (d *Dielectric) IsDiffuse() bool {
	return false
}
