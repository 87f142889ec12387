package replay

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/orneryd/hoverthrust/pkg/hover"
	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// SimConfig describes a synthetic hover flight.
type SimConfig struct {
	// HoverThrust is the true hover thrust of the simulated vehicle.
	// Default: 0.42
	HoverThrust float64

	// Duration and Dt of the log, including the landed phase.
	// Default: 60s, 20ms
	Duration time.Duration
	Dt       time.Duration

	// NoiseStdDev of the accelerometer (m/s^2).
	// Default: 1.5
	NoiseStdDev float64

	// ThrustAmplitude and ThrustPeriod shape a sinusoidal thrust excitation
	// around hover, as altitude hold corrections would produce.
	// Default: 0.05, 4s
	ThrustAmplitude float64
	ThrustPeriod    time.Duration

	// LandedFor is the time spent on the ground before takeoff.
	// Default: 2s
	LandedFor time.Duration

	// Spikes is the number of single-sample accelerometer spikes of
	// SpikeMagnitude injected at random airborne samples.
	// Default: 0, 40 m/s^2
	Spikes         int
	SpikeMagnitude float64

	// PayloadDropAt, when positive, switches the true hover thrust to
	// HoverThrustAfterDrop at that time.
	PayloadDropAt        time.Duration
	HoverThrustAfterDrop float64

	// Seed of the noise generator. Equal seeds give equal logs.
	Seed int64
}

// DefaultSimConfig returns a one minute hover with moderate vibration.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		HoverThrust:     0.42,
		Duration:        60 * time.Second,
		Dt:              20 * time.Millisecond,
		NoiseStdDev:     1.5,
		ThrustAmplitude: 0.05,
		ThrustPeriod:    4 * time.Second,
		LandedFor:       2 * time.Second,
		SpikeMagnitude:  40,
		Seed:            1,
	}
}

// Validate checks that cfg can be simulated.
func (c SimConfig) Validate() error {
	switch {
	case !(c.HoverThrust > 0 && c.HoverThrust < 1):
		return fmt.Errorf("hover thrust must be in (0,1), got %v", c.HoverThrust)
	case c.Dt <= 0:
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	case c.Duration < c.Dt:
		return fmt.Errorf("duration %v shorter than dt %v", c.Duration, c.Dt)
	case c.NoiseStdDev < 0:
		return fmt.Errorf("noise std dev must be >= 0, got %v", c.NoiseStdDev)
	case c.Spikes < 0:
		return fmt.Errorf("spikes must be >= 0, got %d", c.Spikes)
	case c.PayloadDropAt > 0 && !(c.HoverThrustAfterDrop > 0 && c.HoverThrustAfterDrop < 1):
		return fmt.Errorf("hover thrust after drop must be in (0,1), got %v", c.HoverThrustAfterDrop)
	}
	return nil
}

// Simulate generates a flight log for cfg.
func Simulate(cfg SimConfig) ([]hover.Sample, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	n := int(cfg.Duration / cfg.Dt)
	samples := make([]hover.Sample, n)
	var airborne []int

	for i := range samples {
		elapsed := time.Duration(i) * cfg.Dt
		noise := cfg.NoiseStdDev * rng.NormFloat64()
		s := hover.Sample{Time: Epoch.Add(elapsed)}

		if elapsed < cfg.LandedFor {
			// Motors idle, ground reaction cancels gravity.
			s.Landed = true
			s.AccZ = noise
		} else {
			trueHover := cfg.HoverThrust
			if cfg.PayloadDropAt > 0 && elapsed >= cfg.PayloadDropAt {
				trueHover = cfg.HoverThrustAfterDrop
			}
			s.Thrust = trueHover
			if cfg.ThrustPeriod > 0 {
				phase := 2 * math.Pi * elapsed.Seconds() / cfg.ThrustPeriod.Seconds()
				s.Thrust += cfg.ThrustAmplitude * math.Sin(phase)
			}
			s.AccZ = hoverthrust.PredictedAccZ(s.Thrust, trueHover) + noise
			airborne = append(airborne, i)
		}
		samples[i] = s
	}

	spikes := min(cfg.Spikes, len(airborne))
	for _, j := range rng.Perm(len(airborne))[:spikes] {
		sign := 1.0
		if rng.Intn(2) == 0 {
			sign = -1
		}
		samples[airborne[j]].AccZ += sign * cfg.SpikeMagnitude
	}

	return samples, nil
}
