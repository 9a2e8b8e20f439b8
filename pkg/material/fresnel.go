package material

import (
	"math"

	"github.com/df07/go-light-transport/pkg/core"
)

// FresnelDielectric returns the unpolarized Fresnel reflectance at a dielectric
// interface. A negative cosThetaI means the ray arrives from the interior side.
func FresnelDielectric(cosThetaI, extIOR, intIOR float64) float64 {
	etaI, etaT := extIOR, intIOR
	if extIOR == intIOR {
		return 0
	}

	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}

	eta := etaI / etaT
	sinThetaTSqr := eta * eta * (1 - cosThetaI*cosThetaI)

	// Total internal reflection
	if sinThetaTSqr > 1.0 {
		return 1.0
	}

	cosThetaT := math.Sqrt(1.0 - sinThetaTSqr)

	rs := (etaI*cosThetaI - etaT*cosThetaT) / (etaI*cosThetaI + etaT*cosThetaT)
	rp := (etaT*cosThetaI - etaI*cosThetaT) / (etaT*cosThetaI + etaI*cosThetaT)

	return (rs*rs + rp*rp) / 2.0
}

// FresnelConductor returns the per-channel Fresnel reflectance of a conductor
// with complex index eta + i·k, for light arriving at cosThetaI
func FresnelConductor(cosThetaI float64, eta, k core.Vec3) core.Vec3 {
	return core.NewVec3(
		fresnelConductorChannel(cosThetaI, eta.X, k.X),
		fresnelConductorChannel(cosThetaI, eta.Y, k.Y),
		fresnelConductorChannel(cosThetaI, eta.Z, k.Z),
	)
}

func fresnelConductorChannel(cosThetaI, eta, k float64) float64 {
	cosThetaI = math.Min(math.Abs(cosThetaI), 1.0)
	cos2 := cosThetaI * cosThetaI
	sin2 := 1.0 - cos2

	temp1 := eta*eta - k*k - sin2
	a2pb2 := math.Sqrt(math.Max(0, temp1*temp1+4*k*k*eta*eta))
	a := math.Sqrt(math.Max(0, 0.5*(a2pb2+temp1)))

	term1 := a2pb2 + cos2
	term2 := 2 * a * cosThetaI
	rs := (term1 - term2) / (term1 + term2)

	term3 := a2pb2*cos2 + sin2*sin2
	term4 := term2 * sin2
	rp := rs * (term3 - term4) / (term3 + term4)

	return 0.5 * (rs + rp)
}

// refract computes the refracted counterpart of wi through the +Z interface.
// eta is intIOR/extIOR; the result points to the opposite side of wi.
// Returns false on total internal reflection.
func refract(wi core.Vec3, eta float64) (core.Vec3, bool) {
	etaRatio := 1.0 / eta // n_i / n_t when entering
	if wi.Z < 0 {
		etaRatio = eta
	}

	sin2ThetaT := etaRatio * etaRatio * core.SinTheta2(wi)
	if sin2ThetaT >= 1.0 {
		return core.Vec3{}, false
	}

	cosThetaT := math.Sqrt(1.0 - sin2ThetaT)
	if wi.Z > 0 {
		cosThetaT = -cosThetaT
	}
	return core.NewVec3(-etaRatio*wi.X, -etaRatio*wi.Y, cosThetaT), true
}
