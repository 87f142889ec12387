package hoverthrust

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid hover thrust estimator config")

// Config holds hover thrust estimator configuration.
//
// Noise settings are standard deviations, the estimator stores their squares.
type Config struct {
	// InitialHoverThrust is the starting estimate (normalized thrust).
	// Default: 0.5
	InitialHoverThrust float64

	// HoverThrustStdDev is the initial uncertainty of the estimate.
	// Default: 0.1 (variance 0.01)
	HoverThrustStdDev float64

	// ProcessNoiseStdDev is how fast the true hover thrust can drift (thrust/s).
	// Higher values track mass changes faster but make the estimate noisier.
	// Default: 5e-4 (variance 0.25e-6)
	ProcessNoiseStdDev float64

	// MeasurementNoiseStdDev is the initial accelerometer noise (m/s^2). It is
	// learned online afterwards.
	// Default: sqrt(5)
	MeasurementNoiseStdDev float64

	// AccelInnovGate is the innovation gate in standard deviations.
	// Default: 3.0
	AccelInnovGate float64

	// HoverThrustMin and HoverThrustMax bound the estimate. The lower bound
	// keeps the measurement model away from its singularity at zero.
	// Default: 0.1, 0.9
	HoverThrustMin float64
	HoverThrustMax float64

	// NominalDt is the time step assumed before the first Predict call (s).
	// Default: 0.02
	NominalDt float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		InitialHoverThrust:     0.5,
		HoverThrustStdDev:      0.1,
		ProcessNoiseStdDev:     5e-4,
		MeasurementNoiseStdDev: math.Sqrt(ResetAccelNoiseVar),
		AccelInnovGate:         3.0,
		HoverThrustMin:         0.1,
		HoverThrustMax:         0.9,
		NominalDt:              0.02,
	}
}

// AgileConfig returns a tuning that re-converges quickly, e.g. for vehicles
// that drop or pick up payload in flight.
func AgileConfig() Config {
	cfg := DefaultConfig()
	cfg.HoverThrustStdDev = 0.2    // Wide prior
	cfg.ProcessNoiseStdDev = 0.005 // Mass may change abruptly
	cfg.AccelInnovGate = 4.0       // Accept larger innovations while re-learning
	return cfg
}

// ConservativeConfig returns a tuning for airframes with heavy vibration,
// where the accelerometer is trusted less and spikes are gated harder.
func ConservativeConfig() Config {
	cfg := DefaultConfig()
	cfg.ProcessNoiseStdDev = 2e-4
	cfg.MeasurementNoiseStdDev = 4.0
	cfg.AccelInnovGate = 2.5
	return cfg
}

// Validate checks that cfg describes a usable estimator.
func (c Config) Validate() error {
	switch {
	case !(c.HoverThrustMin > 0):
		return fmt.Errorf("%w: hover thrust min must be positive, got %v", ErrInvalidConfig, c.HoverThrustMin)
	case !(c.HoverThrustMax > c.HoverThrustMin) || c.HoverThrustMax > 1:
		return fmt.Errorf("%w: hover thrust max must be in (min, 1], got %v", ErrInvalidConfig, c.HoverThrustMax)
	case c.InitialHoverThrust < c.HoverThrustMin || c.InitialHoverThrust > c.HoverThrustMax:
		return fmt.Errorf("%w: initial hover thrust %v outside [%v, %v]", ErrInvalidConfig,
			c.InitialHoverThrust, c.HoverThrustMin, c.HoverThrustMax)
	case !(c.HoverThrustStdDev >= 0):
		return fmt.Errorf("%w: hover thrust std dev must be >= 0, got %v", ErrInvalidConfig, c.HoverThrustStdDev)
	case !(c.ProcessNoiseStdDev >= 0):
		return fmt.Errorf("%w: process noise std dev must be >= 0, got %v", ErrInvalidConfig, c.ProcessNoiseStdDev)
	case !(c.MeasurementNoiseStdDev > 0):
		return fmt.Errorf("%w: measurement noise std dev must be positive, got %v", ErrInvalidConfig, c.MeasurementNoiseStdDev)
	case !(c.AccelInnovGate > 0):
		return fmt.Errorf("%w: innovation gate must be positive, got %v", ErrInvalidConfig, c.AccelInnovGate)
	case !(c.NominalDt > 0):
		return fmt.Errorf("%w: nominal dt must be positive, got %v", ErrInvalidConfig, c.NominalDt)
	}
	return nil
}

// WithDefaults replaces unusable fields with their default value and clamps
// InitialHoverThrust into [HoverThrustMin, HoverThrustMax]. It returns the
// configuration New actually runs with.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if !(c.HoverThrustMin > 0) {
		c.HoverThrustMin = def.HoverThrustMin
	}
	if !(c.HoverThrustMax > c.HoverThrustMin) || c.HoverThrustMax > 1 {
		c.HoverThrustMax = math.Max(def.HoverThrustMax, c.HoverThrustMin)
	}
	if !(c.InitialHoverThrust > 0) || math.IsInf(c.InitialHoverThrust, 1) {
		c.InitialHoverThrust = def.InitialHoverThrust
	}
	c.InitialHoverThrust = constrain(c.InitialHoverThrust, c.HoverThrustMin, c.HoverThrustMax)
	if !(c.HoverThrustStdDev >= 0) {
		c.HoverThrustStdDev = def.HoverThrustStdDev
	}
	if !(c.ProcessNoiseStdDev >= 0) {
		c.ProcessNoiseStdDev = def.ProcessNoiseStdDev
	}
	if !(c.MeasurementNoiseStdDev > 0) {
		c.MeasurementNoiseStdDev = def.MeasurementNoiseStdDev
	}
	if !(c.AccelInnovGate > 0) {
		c.AccelInnovGate = def.AccelInnovGate
	}
	if !(c.NominalDt > 0) {
		c.NominalDt = def.NominalDt
	}
	return c
}
