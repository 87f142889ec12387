package hoverthrust

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseLearningGain(t *testing.T) {
	assert.Equal(t, 0.0, noiseLearningGain(0))
	assert.InDelta(t, 0.02/0.52, noiseLearningGain(0.02), 1e-15)
	assert.InDelta(t, 0.5, noiseLearningGain(NoiseLearningTimeConstant), 1e-15)
}

func TestUpdateMeasurementNoise_FasterWithLargerDt(t *testing.T) {
	slow := New(DefaultConfig())
	fast := New(DefaultConfig())

	slow.Predict(0.005)
	fast.Predict(0.1)
	slow.FuseAccZ(0, 0.5)
	fast.FuseAccZ(0, 0.5)

	assert.Less(t, fast.AccelNoiseVariance(), slow.AccelNoiseVariance(),
		"larger dt should move R further towards the instantaneous estimate")
}

func TestUpdateMeasurementNoise_ExactBlend(t *testing.T) {
	e := New(DefaultConfig())
	e.Predict(0.02)

	H := MeasurementJacobian(0.6, 0.5)
	pPrior := e.HoverThrustVariance()
	r := e.AccelNoiseVariance()
	innov := -PredictedAccZ(0.6, 0.5)

	status := e.FuseAccZ(0, 0.6)
	require.True(t, status.Accepted())

	alpha := 0.02 / (NoiseLearningTimeConstant + 0.02)
	contribution := math.Max(innov*innov-H*H*pPrior, MinAccelNoiseVar)
	assert.InDelta(t, (1-alpha)*r+alpha*contribution, status.AccelNoiseVar, 1e-12)
}

func TestUpdateMeasurementNoise_FloorAndCeiling(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 2000; i++ {
		e.Predict(0.02)
		e.FuseAccZ(0, 0.5)
	}
	assert.InDelta(t, MinAccelNoiseVar, e.AccelNoiseVariance(), 1e-6)
	assert.GreaterOrEqual(t, e.AccelNoiseVariance(), MinAccelNoiseVar)

	e.SetAccelInnovGate(1e9)
	e.SetHoverThrustStdDev(0)
	for i := 0; i < 2000; i++ {
		e.Predict(0.1)
		sign := 1.0
		if i%2 == 0 {
			sign = -1
		}
		e.FuseAccZ(sign*50, 0.5)
	}
	assert.LessOrEqual(t, e.AccelNoiseVariance(), MaxAccelNoiseVar)
	assert.Greater(t, e.AccelNoiseVariance(), 100.0)
}

func TestUpdateMeasurementNoise_ZeroDtFreezesNoise(t *testing.T) {
	e := New(DefaultConfig())
	e.Predict(0)
	r := e.AccelNoiseVariance()

	status := e.FuseAccZ(1, 0.5)

	require.True(t, status.Accepted())
	assert.Equal(t, r, e.AccelNoiseVariance())
}
