package medium

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// Homogeneous is a participating medium with constant coefficients and an isotropic phase function
type Homogeneous struct {
	SigmaA core.Vec3 // absorption
	SigmaS core.Vec3 // scattering
	SigmaT core.Vec3 // extinction, SigmaA + SigmaS
	Albedo core.Vec3 // SigmaS / SigmaT, zero where SigmaT is zero
}

// NewHomogeneous creates a medium from per-channel absorption and scattering coefficients
func NewHomogeneous(absorption, scattering core.Vec3) *Homogeneous {
	sigmaT := absorption.Add(scattering)
	return &Homogeneous{
		SigmaA: absorption,
		SigmaS: scattering,
		SigmaT: sigmaT,
		Albedo: scattering.DivideVec(sigmaT),
	}
}

// IsVacuum reports whether the medium never interacts with light
func (m *Homogeneous) IsVacuum() bool {
	return m.SigmaT.IsZero()
}

// Transmittance returns the Beer-Lambert attenuation between two points
func (m *Homogeneous) Transmittance(a, b core.Vec3) core.Vec3 {
	return m.TransmittanceDistance(b.Subtract(a).Length())
}

// TransmittanceDistance returns exp(-SigmaT * distance) per channel; an infinite
// distance gives 0 except in channels with no extinction
func (m *Homogeneous) TransmittanceDistance(distance float64) core.Vec3 {
	return core.NewVec3(
		channelTransmittance(m.SigmaT.X, distance),
		channelTransmittance(m.SigmaT.Y, distance),
		channelTransmittance(m.SigmaT.Z, distance),
	)
}

func channelTransmittance(sigmaT, distance float64) float64 {
	if sigmaT == 0 {
		return 1
	}
	return math.Exp(-sigmaT * distance)
}

// SampleDistance samples a free-flight distance along a ray whose next surface is at tMax.
// A channel is chosen uniformly and its extinction drives the exponential; the density is
// the average over channels. It returns the distance, the throughput weight and whether
// the event is a scattering in the medium. The weight is SigmaS*Tr/pdf for a scattering
// and Tr/P(no scattering) when the ray reaches tMax; both equal the albedo and 1
// respectively in grey media.
func (m *Homogeneous) SampleDistance(u, tMax float64) (float64, core.Vec3, bool) {
	if m.IsVacuum() {
		return tMax, core.NewVec3(1, 1, 1), false
	}

	// Reuse u for the channel choice and the distance
	scaled := u * 3
	channel := int(scaled)
	if channel > 2 {
		channel = 2
	}
	u = scaled - float64(channel)

	t := math.Inf(1)
	if sigma := m.SigmaT.Axis(channel); sigma > 0 {
		t = -math.Log(1-u) / sigma
	}

	if t < tMax {
		tr := m.TransmittanceDistance(t)
		pdf := m.SigmaT.MultiplyVec(tr).Average()
		if pdf == 0 {
			return t, core.Vec3{}, true
		}
		return t, m.SigmaS.MultiplyVec(tr).Multiply(1.0 / pdf), true
	}

	tr := m.TransmittanceDistance(tMax)
	probability := tr.Average()
	if probability == 0 {
		return tMax, core.Vec3{}, false
	}
	return tMax, tr.Multiply(1.0 / probability), false
}

// SamplePhase draws a direction from the isotropic phase function
func (m *Homogeneous) SamplePhase(sample core.Vec2) core.Vec3 {
	return core.SquareToUniformSphere(sample)
}

// Phase evaluates the isotropic phase function
func (m *Homogeneous) Phase() float64 {
	return 1.0 / (4 * math.Pi)
}

// PhasePDF is the solid angle density of SamplePhase
func (m *Homogeneous) PhasePDF() float64 {
	return 1.0 / (4 * math.Pi)
}
