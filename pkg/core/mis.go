package core

import "math"

// BalanceHeuristic computes the balance heuristic weight for strategy f
// against strategy g: nf·pdf_f / (nf·pdf_f + ng·pdf_g), or 0 when both vanish
func BalanceHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	if f+g == 0 {
		return 0
	}
	return f / (f + g)
}

// RouletteCap bounds the survival probability of path continuation
const RouletteCap = 0.99

// RussianRoulette decides whether a path with the given throughput survives.
// The survival probability is min(max channel, limit); a surviving path must be
// scaled by the returned factor 1/p to stay unbiased. Zero throughput always dies.
func RussianRoulette(throughput Vec3, u, limit float64) (bool, float64) {
	p := math.Min(throughput.MaxComponent(), limit)
	if p <= 0 || u >= p {
		return false, 0
	}
	return true, 1.0 / p
}
