package hoverthrust

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	e := New(DefaultConfig())

	assert.Equal(t, 0.5, e.HoverThrustEstimate())
	assert.InDelta(t, 0.01, e.HoverThrustVariance(), 1e-15)
	assert.InDelta(t, 0.25e-6, e.ProcessNoiseVariance(), 1e-18)
	assert.InDelta(t, 5.0, e.AccelNoiseVariance(), 1e-12)
	assert.Equal(t, 3.0, e.AccelInnovGate())
	assert.Equal(t, 0.02, e.Dt())
}

func TestNew_ReplacesInvalidFields(t *testing.T) {
	e := New(Config{})

	assert.Equal(t, 0.5, e.HoverThrustEstimate())
	assert.Equal(t, 3.0, e.AccelInnovGate())
	assert.InDelta(t, 5.0, e.AccelNoiseVariance(), 1e-12)
}

func TestPredict_AddsScaledProcessNoise(t *testing.T) {
	e := New(DefaultConfig())

	e.Predict(0.02)

	assert.InDelta(t, 0.0100000001, e.HoverThrustVariance(), 1e-13)
	assert.Equal(t, 0.5, e.HoverThrustEstimate(), "prediction must not move the state")
	assert.Equal(t, 0.02, e.Dt())
}

func TestPredict_NeverLowersVariance(t *testing.T) {
	e := New(DefaultConfig())
	e.SetHoverThrustStdDev(2)

	e.Predict(0.02)

	assert.InDelta(t, 4+e.ProcessNoiseVariance()*0.02*0.02, e.HoverThrustVariance(), 1e-15)

	// The update brings it back under the cap.
	e.FuseAccZ(0, 0.5)
	assert.LessOrEqual(t, e.HoverThrustVariance(), MaxStateVariance)
	assert.GreaterOrEqual(t, e.HoverThrustVariance(), 0.0)
}

func TestPredict_LongerGapAddsMoreVariance(t *testing.T) {
	short := New(DefaultConfig())
	long := New(DefaultConfig())
	short.SetProcessNoiseStdDev(0.1)
	long.SetProcessNoiseStdDev(0.1)

	short.Predict(0.01)
	long.Predict(0.1)

	assert.Greater(t, long.HoverThrustVariance(), short.HoverThrustVariance())
}

func TestPredict_ZeroDtIsIdempotent(t *testing.T) {
	e := New(DefaultConfig())

	e.Predict(0.02)
	before := e.HoverThrustVariance()
	e.Predict(0)

	assert.Equal(t, before, e.HoverThrustVariance())
}

func TestPredict_IgnoresInvalidDt(t *testing.T) {
	for _, dt := range []float64{-0.01, math.NaN(), math.Inf(1), math.Inf(-1)} {
		e := New(DefaultConfig())
		e.Predict(0.02)
		p := e.HoverThrustVariance()

		e.Predict(dt)

		assert.Equal(t, p, e.HoverThrustVariance(), "dt=%v", dt)
		assert.Equal(t, 0.02, e.Dt(), "dt=%v", dt)
	}
}

func TestFuseAccZ_DefaultScenarioAtTrueHover(t *testing.T) {
	e := New(DefaultConfig())
	e.Predict(0.02)

	status := e.FuseAccZ(0, 0.5)

	assert.InDelta(t, 0, status.Innov, 1e-12)
	assert.InDelta(t, 0, status.InnovTestRatio, 1e-12)
	assert.True(t, status.Accepted())
	assert.InDelta(t, 0.5, status.HoverThrust, 1e-9)
	assert.InDelta(t, 0.5, e.HoverThrustEstimate(), 1e-9)
	assert.Less(t, status.HoverThrustVar, 0.0100000001, "an accepted fusion shrinks the variance")
}

func TestFuseAccZ_InnovationVariance(t *testing.T) {
	e := New(DefaultConfig())

	status := e.FuseAccZ(0, 0.6)

	H := MeasurementJacobian(0.6, 0.5)
	assert.InDelta(t, H*H*0.01+5, status.InnovVar, 1e-9)
	assert.InDelta(t, -PredictedAccZ(0.6, 0.5), status.Innov, 1e-12)
	assert.InDelta(t, status.Innov*status.Innov/(9*status.InnovVar), status.InnovTestRatio, 1e-12)
}

func TestFuseAccZ_RejectsSpike(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 50; i++ {
		e.Predict(0.02)
		e.FuseAccZ(0, 0.5)
	}

	e.Predict(0.02)
	before := e.Snapshot()
	status := e.FuseAccZ(50, 0.5)

	assert.Greater(t, status.InnovTestRatio, 1.0)
	assert.False(t, status.Accepted())
	assert.InDelta(t, 50, status.Innov, 1e-9, "rejected innovation is still reported")
	assert.Equal(t, before.HoverThrust, e.HoverThrustEstimate())
	assert.Equal(t, before.HoverThrustVar, e.HoverThrustVariance())
	assert.Equal(t, before.AccelNoiseVar, e.AccelNoiseVariance(), "noise is not learned from rejected samples")
}

func TestFuseAccZ_ConvergesToTrueHoverThrust(t *testing.T) {
	tests := []struct {
		name      string
		trueHover float64
	}{
		{"heavier", 0.62},
		{"lighter", 0.35},
		{"at default", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(DefaultConfig())
			const dt = 0.02

			for i := 0; i < 2000; i++ {
				thrust := tt.trueHover + 0.05*math.Sin(float64(i)*dt*2*math.Pi)
				e.Predict(dt)
				e.FuseAccZ(PredictedAccZ(thrust, tt.trueHover), thrust)
			}

			assert.InDelta(t, tt.trueHover, e.HoverThrustEstimate(), 5e-3)
		})
	}
}

func TestFuseAccZ_ConvergesWithNoisyAccelerometer(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := New(DefaultConfig())
	const (
		dt        = 0.02
		trueHover = 0.42
		noiseStd  = 1.0
	)

	rejected := 0
	for i := 0; i < 5000; i++ {
		thrust := trueHover + 0.03*math.Sin(float64(i)*dt)
		accZ := PredictedAccZ(thrust, trueHover) + noiseStd*rng.NormFloat64()
		e.Predict(dt)
		if !e.FuseAccZ(accZ, thrust).Accepted() {
			rejected++
		}
	}

	assert.InDelta(t, trueHover, e.HoverThrustEstimate(), 0.02)
	assert.Less(t, rejected, 250, "3 sigma gate should reject only a few percent")
	assert.GreaterOrEqual(t, e.AccelNoiseVariance(), MinAccelNoiseVar)
	assert.Less(t, e.AccelNoiseVariance(), ResetAccelNoiseVar, "noise learned down from the reset value")
}

func TestVarianceStaysNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := New(AgileConfig())

	for i := 0; i < 10000; i++ {
		if rng.Intn(3) == 0 {
			e.Predict(rng.Float64() * 0.1)
		}
		thrust := rng.Float64()*1.2 - 0.1
		accZ := rng.NormFloat64() * 20
		status := e.FuseAccZ(accZ, thrust)

		require.GreaterOrEqual(t, e.HoverThrustVariance(), 0.0, "step %d", i)
		require.GreaterOrEqual(t, status.HoverThrustVar, 0.0, "step %d", i)
		require.False(t, math.IsNaN(e.HoverThrustEstimate()), "step %d", i)
	}
}

func TestHoverThrustStaysInsideBounds(t *testing.T) {
	e := New(DefaultConfig())
	e.SetAccelInnovGate(1e6)

	for i := 0; i < 500; i++ {
		e.Predict(0.02)
		e.FuseAccZ(60, 0.5) // Equilibrium would be Th=0.07, below the floor
	}
	assert.InDelta(t, 0.1, e.HoverThrustEstimate(), 1e-12)

	for i := 0; i < 500; i++ {
		e.Predict(0.02)
		e.FuseAccZ(-9, 0.5) // Falling: Th pushed up
	}
	assert.LessOrEqual(t, e.HoverThrustEstimate(), 0.9)
	assert.Greater(t, e.HoverThrustEstimate(), 0.1)
}

func TestFuseAccZ_DegenerateInputs(t *testing.T) {
	t.Run("zero thrust", func(t *testing.T) {
		e := New(DefaultConfig())
		status := e.FuseAccZ(0, 0)

		assert.False(t, math.IsNaN(status.InnovTestRatio))
		assert.InDelta(t, Gravity, status.Innov, 1e-12)
		assert.Equal(t, 0.5, e.HoverThrustEstimate())
	})

	t.Run("NaN acceleration is rejected", func(t *testing.T) {
		e := New(DefaultConfig())
		status := e.FuseAccZ(math.NaN(), 0.5)

		assert.False(t, status.Accepted())
		assert.Equal(t, 0.5, e.HoverThrustEstimate())
		assert.InDelta(t, 0.01, e.HoverThrustVariance(), 1e-15)
	})

	t.Run("NaN thrust is rejected", func(t *testing.T) {
		e := New(DefaultConfig())
		status := e.FuseAccZ(0, math.NaN())

		assert.False(t, status.Accepted())
		assert.Equal(t, 0.5, e.HoverThrustEstimate())
	})
}

func TestResetAccelNoise(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 200; i++ {
		e.Predict(0.02)
		e.FuseAccZ(0, 0.5)
	}
	require.Less(t, e.AccelNoiseVariance(), 5.0)

	e.ResetAccelNoise()

	assert.Equal(t, 5.0, e.Status().AccelNoiseVar)
}

func TestSetters_StoreSquares(t *testing.T) {
	e := New(DefaultConfig())

	e.SetHoverThrustStdDev(0.2)
	assert.InDelta(t, 0.04, e.HoverThrustVariance(), 1e-15)
	assert.InDelta(t, 0.04, e.Status().HoverThrustVar, 1e-15)

	e.SetProcessNoiseStdDev(0.01)
	assert.InDelta(t, 1e-4, e.ProcessNoiseVariance(), 1e-18)

	e.SetMeasurementNoiseStdDev(3)
	assert.Equal(t, 9.0, e.AccelNoiseVariance())

	e.SetAccelInnovGate(2.5)
	assert.Equal(t, 2.5, e.AccelInnovGate(), "gate is stored as is")
}

func TestSetHoverThrust_Clamps(t *testing.T) {
	e := New(DefaultConfig())

	e.SetHoverThrust(0)
	assert.Equal(t, 0.1, e.HoverThrustEstimate())

	e.SetHoverThrust(2)
	assert.Equal(t, 0.9, e.HoverThrustEstimate())

	e.SetHoverThrust(0.33)
	assert.Equal(t, 0.33, e.HoverThrustEstimate())

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		e.SetHoverThrust(bad)
		assert.Equal(t, 0.33, e.HoverThrustEstimate(), "hover=%v", bad)
	}
}

func TestMeasurementModel(t *testing.T) {
	assert.InDelta(t, 0, PredictedAccZ(0.4, 0.4), 1e-12)
	assert.Greater(t, PredictedAccZ(0.5, 0.4), 0.0, "above hover thrust accelerates up")
	assert.InDelta(t, -Gravity, PredictedAccZ(0, 0.4), 1e-12, "no thrust is free fall")

	// Jacobian matches a central difference of the model.
	const h = 1e-6
	thrust, hover := 0.55, 0.45
	numeric := (PredictedAccZ(thrust, hover+h) - PredictedAccZ(thrust, hover-h)) / (2 * h)
	assert.InDelta(t, numeric, MeasurementJacobian(thrust, hover), 1e-5)
}
