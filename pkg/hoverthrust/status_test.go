package hoverthrust

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_FieldOrder(t *testing.T) {
	s := Status{
		HoverThrust:    1,
		HoverThrustVar: 2,
		Innov:          3,
		InnovVar:       4,
		InnovTestRatio: 5,
		AccelNoiseVar:  6,
	}

	assert.Equal(t, [6]float64{1, 2, 3, 4, 5, 6}, s.Values())
	assert.Equal(t, []string{
		"hover_thrust", "hover_thrust_var", "innov", "innov_var", "innov_test_ratio", "accel_noise_var",
	}, StatusFields)
}

func TestStatus_Accepted(t *testing.T) {
	assert.True(t, Status{InnovTestRatio: 0}.Accepted())
	assert.True(t, Status{InnovTestRatio: 1}.Accepted(), "boundary is inclusive")
	assert.False(t, Status{InnovTestRatio: 1.0001}.Accepted())
}

func TestStatus_ReadDoesNotFuse(t *testing.T) {
	e := New(DefaultConfig())
	e.Predict(0.02)
	fused := e.FuseAccZ(0.3, 0.5)

	read := e.Status()

	assert.Equal(t, fused, read)
	assert.Equal(t, read, e.Status())
}

func TestStatus_String(t *testing.T) {
	s := New(DefaultConfig()).Status()
	assert.Contains(t, s.String(), "hover: 0.5000")
}

func TestSnapshotRestore(t *testing.T) {
	src := New(DefaultConfig())
	for i := 0; i < 300; i++ {
		thrust := 0.45 + 0.02*float64(i%10)
		src.Predict(0.02)
		src.FuseAccZ(PredictedAccZ(thrust, 0.4), thrust)
	}
	snap := src.Snapshot()

	dst := New(DefaultConfig())
	dst.Restore(snap)

	assert.Equal(t, snap, dst.Snapshot())
	assert.InDelta(t, 0.4, dst.HoverThrustEstimate(), 0.01)
}

func TestRestore_ClampsOutOfRange(t *testing.T) {
	e := New(DefaultConfig())

	e.Restore(State{HoverThrust: 5, HoverThrustVar: 3, AccelNoiseVar: 1e6})

	require.Equal(t, 0.9, e.HoverThrustEstimate())
	assert.Equal(t, MaxStateVariance, e.HoverThrustVariance())
	assert.Equal(t, MaxAccelNoiseVar, e.AccelNoiseVariance())

	// Invalid variances leave the current values untouched.
	e.Restore(State{HoverThrust: 0.4, HoverThrustVar: -1, AccelNoiseVar: 0})
	assert.Equal(t, 0.4, e.HoverThrustEstimate())
	assert.Equal(t, MaxStateVariance, e.HoverThrustVariance())
	assert.Equal(t, MaxAccelNoiseVar, e.AccelNoiseVariance())
}

func TestRestore_IgnoresNonFiniteHoverThrust(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		e := New(DefaultConfig())
		e.Restore(State{HoverThrust: bad, HoverThrustVar: 1e-3, AccelNoiseVar: 2})

		require.Equal(t, 0.5, e.HoverThrustEstimate(), "hover=%v", bad)
		assert.Equal(t, 1e-3, e.HoverThrustVariance())
		assert.Equal(t, 2.0, e.AccelNoiseVariance())

		// The estimator keeps working after the bad checkpoint.
		e.Predict(0.02)
		status := e.FuseAccZ(0, 0.5)
		assert.True(t, status.Accepted(), "hover=%v", bad)
		assert.False(t, math.IsNaN(status.HoverThrust))
		assert.InDelta(t, 0.5, status.HoverThrust, 1e-9)
	}
}
