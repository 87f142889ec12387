// Package hover hosts a hover thrust estimator inside a control loop.
//
// The Tracker turns timestamped samples into Predict/FuseAccZ calls the way a
// flight stack would: it derives and bounds dt, skips fusion on the ground and
// at near-zero thrust, resets the learned accelerometer noise on takeoff, and
// decides with hysteresis whether the estimate is good enough to be used.
//
// Example Usage:
//
//	tr := hover.NewTracker(hover.DefaultOptions())
//	for s := range samples {
//		rec := tr.Update(s)
//		if rec.Valid {
//			controller.SetHoverThrust(rec.Status.HoverThrust)
//		}
//	}
//
//	// Or let the tracker pick between estimate and fallback:
//	thr := tr.HoverThrust().Estimate
//
// ELI12 (Explain Like I'm 12):
//
// The estimator is a player learning how hard to push to float in place.
// The tracker is the coach who only scores the player while the drone is
// actually flying, gives them a fresh start after every takeoff, and waits
// until the player has been right for two whole seconds before letting
// them fly the drone.
//
// A Tracker is safe for concurrent use: one goroutine calls Update while
// others read Stats, Valid or HoverThrust.
package hover

import (
	"log"
	"sync"
	"time"

	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// Options configures a Tracker.
type Options struct {
	// Estimator tuning
	Estimator hoverthrust.Config

	// Enabled runs the estimator. When false HoverThrust reports
	// Estimator.InitialHoverThrust and Update never fuses.
	// DefaultOptions sets it; the zero Options leave the estimator disabled.
	Enabled bool

	// Frame of incoming AccZ and Thrust.
	// Default: FrameUp
	Frame Frame

	// MinDt and MaxDt bound the step derived from sample timestamps.
	// Default: 2ms, 200ms
	MinDt time.Duration
	MaxDt time.Duration

	// MinThrust below which samples are not fused (motors idle, free fall).
	// Default: 0.05
	MinThrust float64

	// ValidVarianceThreshold is the variance below which the estimate may
	// become valid.
	// Default: 1e-3
	ValidVarianceThreshold float64

	// ValidHysteresis is how long the validity conditions must hold before
	// the estimate is declared valid. Invalidation is immediate.
	// Default: 2s
	ValidHysteresis time.Duration

	// Debug enables per-event logging.
	Debug bool
}

// DefaultOptions returns the standard tracker configuration.
func DefaultOptions() Options {
	return Options{
		Estimator:              hoverthrust.DefaultConfig(),
		Enabled:                true,
		Frame:                  FrameUp,
		MinDt:                  2 * time.Millisecond,
		MaxDt:                  200 * time.Millisecond,
		MinThrust:              0.05,
		ValidVarianceThreshold: 1e-3,
		ValidHysteresis:        2 * time.Second,
	}
}

// Result is the hover thrust a controller should use right now.
type Result struct {
	Raw          float64 // configured fallback hover thrust
	Estimate     float64 // estimate when WasEstimated, Raw otherwise
	WasEstimated bool
}

// Stats is a snapshot of tracker counters.
type Stats struct {
	Samples     int
	Accepted    int
	Rejected    int
	Skipped     int // landed, low thrust, disabled or clock seeding
	NoiseResets int
	Estimate    float64
	Variance    float64
	Valid       bool
}

// Tracker drives one estimator from a stream of samples.
type Tracker struct {
	mu sync.RWMutex

	opts Options
	est  *hoverthrust.Estimator

	last    time.Time
	started bool
	landed  bool

	valid       bool
	pending     bool // validity conditions hold, waiting out the hysteresis
	pendingFrom time.Time

	stats Stats
}

// NewTracker creates a Tracker. Zero dt bounds and unusable estimator
// fields fall back to the defaults.
func NewTracker(opts Options) *Tracker {
	def := DefaultOptions()
	opts.Estimator = opts.Estimator.WithDefaults()
	if opts.MinDt <= 0 {
		opts.MinDt = def.MinDt
	}
	if opts.MaxDt < opts.MinDt {
		opts.MaxDt = max(def.MaxDt, opts.MinDt)
	}
	if opts.ValidVarianceThreshold <= 0 {
		opts.ValidVarianceThreshold = def.ValidVarianceThreshold
	}

	return &Tracker{
		opts:   opts,
		est:    hoverthrust.New(opts.Estimator),
		landed: true,
	}
}

// Update processes one sample and returns what the estimator reported.
//
// The first sample only seeds the clock. Out of order timestamps are treated
// as the shortest allowed step.
func (t *Tracker) Update(s Sample) Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Samples++
	rec := Record{Time: s.Time, Landed: s.Landed}

	if !t.opts.Enabled {
		t.stats.Skipped++
		rec.Status = t.est.Status()
		return rec
	}

	if !t.started {
		t.started = true
		t.last = s.Time
		t.landed = s.Landed
		t.stats.Skipped++
		rec.Status = t.est.Status()
		t.updateValidity(s.Time, false)
		return rec
	}

	dt := min(max(s.Time.Sub(t.last), t.opts.MinDt), t.opts.MaxDt)
	t.last = s.Time
	t.est.Predict(dt.Seconds())

	if t.landed && !s.Landed {
		t.est.ResetAccelNoise()
		t.stats.NoiseResets++
		if t.opts.Debug {
			log.Printf("[hover] takeoff at %s: accel noise reset to %.1f", s.Time.Format(time.RFC3339Nano), hoverthrust.ResetAccelNoiseVar)
		}
	}
	t.landed = s.Landed

	accZ, thrust := s.AccZ, s.Thrust
	if t.opts.Frame == FrameNED {
		accZ, thrust = -accZ, -thrust
	}

	switch {
	case s.Landed:
		t.stats.Skipped++
		rec.Status = t.est.Status()
		t.updateValidity(s.Time, false)

	case !(thrust >= t.opts.MinThrust):
		t.stats.Skipped++
		rec.Status = t.est.Status()
		// Last innovation still describes how well the model fits.
		t.updateValidity(s.Time, t.conditionsHold(rec.Status))

	default:
		rec.Status = t.est.FuseAccZ(accZ, thrust)
		rec.Fused = true
		if rec.Status.Accepted() {
			t.stats.Accepted++
		} else {
			t.stats.Rejected++
		}
		t.updateValidity(s.Time, t.conditionsHold(rec.Status))
	}

	rec.Valid = t.valid
	return rec
}

func (t *Tracker) conditionsHold(s hoverthrust.Status) bool {
	return s.HoverThrustVar < t.opts.ValidVarianceThreshold && s.Accepted()
}

// updateValidity applies the rising-edge hysteresis.
func (t *Tracker) updateValidity(now time.Time, ok bool) {
	if !ok {
		if t.valid && t.opts.Debug {
			log.Printf("[hover] estimate invalid at %s", now.Format(time.RFC3339Nano))
		}
		t.valid = false
		t.pending = false
		return
	}
	if t.valid {
		return
	}
	if !t.pending {
		t.pending = true
		t.pendingFrom = now
	}
	if now.Sub(t.pendingFrom) >= t.opts.ValidHysteresis {
		t.valid = true
		t.pending = false
		if t.opts.Debug {
			log.Printf("[hover] estimate valid at %s: %.4f", now.Format(time.RFC3339Nano), t.est.HoverThrustEstimate())
		}
	}
}

// HoverThrust returns the estimate when it is enabled and valid, and the
// configured fallback otherwise.
func (t *Tracker) HoverThrust() Result {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := Result{Raw: t.opts.Estimator.InitialHoverThrust}
	if t.opts.Enabled && t.valid {
		result.Estimate = t.est.HoverThrustEstimate()
		result.WasEstimated = true
	} else {
		result.Estimate = result.Raw
	}
	return result
}

// Estimate returns the current hover thrust estimate, valid or not.
func (t *Tracker) Estimate() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.est.HoverThrustEstimate()
}

// Valid reports whether the estimate passed the validity hysteresis.
func (t *Tracker) Valid() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.valid
}

// Status returns the estimator status without fusing.
func (t *Tracker) Status() hoverthrust.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.est.Status()
}

// Stats returns a snapshot of the tracker counters.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := t.stats
	stats.Estimate = t.est.HoverThrustEstimate()
	stats.Variance = t.est.HoverThrustVariance()
	stats.Valid = t.valid
	return stats
}

// Options returns the options the tracker was built with.
func (t *Tracker) Options() Options {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.opts
}

// Checkpoint returns the learned estimator state.
func (t *Tracker) Checkpoint() hoverthrust.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.est.Snapshot()
}

// Restore loads a previously learned state. Validity is not restored: the
// estimate has to prove itself again in flight.
func (t *Tracker) Restore(s hoverthrust.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.est.Restore(s)
	t.valid = false
	t.pending = false
}

// Reset discards everything learned and restarts the clock.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.est = hoverthrust.New(t.opts.Estimator)
	t.started = false
	t.landed = true
	t.valid = false
	t.pending = false
	t.stats = Stats{}
}
