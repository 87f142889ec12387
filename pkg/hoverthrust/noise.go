package hoverthrust

import "math"

// updateMeasurementNoise learns the acceleration variance from an accepted
// innovation.
//
// The part of the squared innovation not explained by the prior state
// uncertainty is an instantaneous sample of R. It is floored at
// MinAccelNoiseVar and blended into R with a first order low-pass filter
// of time constant NoiseLearningTimeConstant, discretized with the last dt.
func (e *Estimator) updateMeasurementNoise(innov, H, pPrior float64) {
	alpha := noiseLearningGain(e.dt)
	contribution := math.Max(innov*innov-H*H*pPrior, MinAccelNoiseVar)

	e.r = constrain((1-alpha)*e.r+alpha*contribution, MinAccelNoiseVar, MaxAccelNoiseVar)
}

// noiseLearningGain returns the blend weight dt/(tau+dt).
func noiseLearningGain(dt float64) float64 {
	return dt / (NoiseLearningTimeConstant + dt)
}
