package material

import (
	"fmt"

	"github.com/df07/go-light-transport/pkg/core"
)

// Conductor is an ideal mirror with a complex index of refraction
type Conductor struct {
	Eta core.Vec3 // real part of the index of refraction, per channel
	K   core.Vec3 // absorption coefficient, per channel
}

// conductorPresets holds measured RGB indices for common metals
var conductorPresets = map[string]Conductor{
	"Au": {
		Eta: core.NewVec3(0.1431189557, 0.3749570432, 1.4424785571),
		K:   core.NewVec3(3.9831604247, 2.3857207478, 1.6032152899),
	},
	"Cu": {
		Eta: core.NewVec3(0.2004376970, 0.9240334304, 1.1022119527),
		K:   core.NewVec3(3.9129485033, 2.4528477015, 2.1421879552),
	},
	"Cr": {
		Eta: core.NewVec3(4.3696828663, 2.9167024892, 1.6547005413),
		K:   core.NewVec3(5.2064337956, 4.2313645277, 3.7549467933),
	},
}

// NewConductor creates a smooth conductor from its complex index of refraction
func NewConductor(eta, k core.Vec3) *Conductor {
	return &Conductor{Eta: eta, K: k}
}

// NewConductorPreset creates a smooth conductor from a named metal ("Au", "Cu", "Cr")
func NewConductorPreset(name string) (*Conductor, error) {
	preset, ok := conductorPresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown conductor preset %q", name)
	}
	return &Conductor{Eta: preset.Eta, K: preset.K}, nil
}

// Eval is zero: the mirror lobe is a Dirac delta
func (c *Conductor) Eval(q BSDFQuery) core.Vec3 {
	return core.Vec3{}
}

// PDF is zero for the same reason
func (c *Conductor) PDF(q BSDFQuery) float64 {
	return 0
}

// Sample reflects wi about the normal and returns the Fresnel reflectance
func (c *Conductor) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	cosThetaI := core.CosTheta(q.Wi)
	if cosThetaI <= 0 {
		return core.Vec3{}
	}

	q.Wo = reflect(q.Wi)
	q.Measure = MeasureDiscrete
	q.Eta = 1.0

	return FresnelConductor(cosThetaI, c.Eta, c.K)
}

// IsDiffuse returns false
func (c *Conductor) IsDiffuse() bool {
	return false
}
