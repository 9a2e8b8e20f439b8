package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// Mix blends two BSDFs: f = (1-ratio)·f1 + ratio·f2
type Mix struct {
	BSDF1 BSDF
	BSDF2 BSDF
	Ratio float64 // 0.0 = all BSDF1, 1.0 = all BSDF2
}

// NewMix creates a new mix BSDF
func NewMix(bsdf1, bsdf2 BSDF, ratio float64) *Mix {
	// Clamp ratio to valid range
	ratio = math.Max(0.0, math.Min(ratio, 1.0))

	return &Mix{BSDF1: bsdf1, BSDF2: bsdf2, Ratio: ratio}
}

// Eval blends the component BSDFs
func (m *Mix) Eval(q BSDFQuery) core.Vec3 {
	f1 := m.BSDF1.Eval(q)
	f2 := m.BSDF2.Eval(q)
	return f1.Multiply(1.0 - m.Ratio).Add(f2.Multiply(m.Ratio))
}

// PDF blends the component densities with the selection probabilities
func (m *Mix) PDF(q BSDFQuery) float64 {
	return m.BSDF1.PDF(q)*(1.0-m.Ratio) + m.BSDF2.PDF(q)*m.Ratio
}

// Sample chooses a component by ratio, then weights against the blended density
func (m *Mix) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	var weight core.Vec3
	if sample.X < m.Ratio {
		weight = m.BSDF2.Sample(q, core.NewVec2(sample.X/m.Ratio, sample.Y))
	} else {
		weight = m.BSDF1.Sample(q, core.NewVec2((sample.X-m.Ratio)/(1.0-m.Ratio), sample.Y))
	}

	if weight.IsZero() {
		return core.Vec3{}
	}

	// A discrete lobe is only reachable through its own component: the
	// selection probability cancels the blend factor
	if q.Measure == MeasureDiscrete {
		return weight
	}

	cosO := core.CosTheta(q.Wo)
	pdf := m.PDF(*q)
	if pdf <= 0 || cosO <= 0 {
		return core.Vec3{}
	}
	return m.Eval(*q).Multiply(cosO / pdf)
}

// IsDiffuse reports whether both components are diffuse
func (m *Mix) IsDiffuse() bool {
	return m.BSDF1.IsDiffuse() && m.BSDF2.IsDiffuse()
}
