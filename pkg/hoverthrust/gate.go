package hoverthrust

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// GateForConfidence returns the innovation gate (in standard deviations) that
// accepts a consistent measurement with probability p.
//
// The normalized innovation squared of a scalar measurement is chi-square
// distributed with one degree of freedom, so the gate is the square root of
// its p-quantile. p outside (0, 1) returns NaN.
//
// Example:
//
//	est.SetAccelInnovGate(hoverthrust.GateForConfidence(0.997)) // ~3 sigma
func GateForConfidence(p float64) float64 {
	if !(p > 0 && p < 1) {
		return math.NaN()
	}
	return math.Sqrt(distuv.ChiSquared{K: 1}.Quantile(p))
}

// ConfidenceForGate is the inverse of GateForConfidence.
func ConfidenceForGate(gate float64) float64 {
	if !(gate > 0) {
		return 0
	}
	return distuv.ChiSquared{K: 1}.CDF(gate * gate)
}
