// Package hoverthrust provides a single-state hover thrust estimator for multirotors.
//
// The hover thrust is the normalized (0-1) collective thrust command that produces
// zero net vertical acceleration. It drifts with vehicle mass, air density and
// motor/propeller wear, so the vertical controller needs a continuously updated
// estimate to map a desired vertical acceleration onto a thrust command.
//
// The estimator is a zero-order-hold EKF:
//
//	state:       Th (hover thrust)
//	process:     Th[k+1] = Th[k] + v,  v ~ N(0, Q*dt^2)
//	measurement: a_z[k]  = g*T[k]/Th[k] - g + w,  w ~ N(0, R)
//	jacobian:    H[k]    = -g*T[k]/Th[k]^2
//
// Measurements are gated on their normalized innovation squared and the
// measurement noise R is learned online from the accepted innovations.
//
// Example Usage:
//
//	est := hoverthrust.New(hoverthrust.DefaultConfig())
//
//	// Once per control cycle
//	est.Predict(dt)
//	status := est.FuseAccZ(accUp, thrustUp)
//	if !status.Accepted() {
//		// spike rejected, status still carries the innovation
//	}
//	hover := est.HoverThrustEstimate()
//
// ELI12 (Explain Like I'm 12):
//
// Imagine holding a helium balloon with a string. You want to know how hard to
// pull so it stays exactly still. If you pull a bit harder and it goes down, you
// learn you were pulling too hard before. The estimator watches how much the
// drone speeds up or slows down for the thrust it is given and keeps nudging its
// guess of "just enough thrust". If a sudden bump shakes the sensor, it notices
// the reading makes no sense and ignores it.
//
// Concurrency: an Estimator is not safe for concurrent use. It is meant to be
// owned by a single control loop; see pkg/hover for a locked wrapper.
package hoverthrust

import "math"

const (
	// Gravity is standard gravity in m/s^2.
	Gravity = 9.80665

	// NoiseLearningTimeConstant is the time constant (s) of the low-pass filter
	// used to learn the acceleration measurement noise.
	NoiseLearningTimeConstant = 0.5

	// ResetAccelNoiseVar is the acceleration variance (m^2/s^4) applied by
	// ResetAccelNoise.
	ResetAccelNoiseVar = 5.0

	// MinAccelNoiseVar bounds the learned acceleration variance from below so the
	// filter never becomes overconfident in the accelerometer.
	MinAccelNoiseVar = 1.0

	// MaxAccelNoiseVar bounds the learned acceleration variance from above.
	MaxAccelNoiseVar = 400.0

	// MaxStateVariance caps the hover thrust variance (thrust^2).
	MaxStateVariance = 1.0
)

// Estimator is the zero-order hover thrust EKF.
//
// The zero value is not usable, create one with New.
type Estimator struct {
	hoverThr float64 // Hover thrust estimate (Th)
	p        float64 // Hover thrust variance (thrust^2)
	q        float64 // Process noise variance (thrust^2/s^2)
	r        float64 // Acceleration noise variance (m^2/s^4)
	gateSize float64 // Innovation gate in standard deviations
	dt       float64 // Last prediction step (s)

	// Hover thrust is kept inside [minHoverThr, maxHoverThr] so the
	// measurement jacobian never diverges.
	minHoverThr float64
	maxHoverThr float64

	// Last fusion diagnostics, reported by Status().
	innov          float64
	innovVar       float64
	innovTestRatio float64
}

// New creates an estimator from cfg.
//
// Invalid fields are replaced by their DefaultConfig() value; use
// Config.Validate to reject them instead.
func New(cfg Config) *Estimator {
	cfg = cfg.WithDefaults()

	e := &Estimator{
		minHoverThr: cfg.HoverThrustMin,
		maxHoverThr: cfg.HoverThrustMax,
		dt:          cfg.NominalDt,
	}
	e.hoverThr = e.constrainHoverThrust(cfg.InitialHoverThrust)
	e.SetHoverThrustStdDev(cfg.HoverThrustStdDev)
	e.SetProcessNoiseStdDev(cfg.ProcessNoiseStdDev)
	e.SetMeasurementNoiseStdDev(cfg.MeasurementNoiseStdDev)
	e.SetAccelInnovGate(cfg.AccelInnovGate)
	return e
}

// Predict advances the process model by dt seconds.
//
// The state is a random walk (transition = 1) so only the variance grows, by
// Q*dt^2. dt is remembered for the noise learning rate of the next fusion.
// A negative, infinite or NaN dt is ignored. MaxStateVariance is only
// enforced by the measurement update, never here.
func (e *Estimator) Predict(dt float64) {
	if !(dt >= 0) || math.IsInf(dt, 1) {
		return
	}
	e.p += e.q * dt * dt
	e.dt = dt
}

// FuseAccZ fuses a vertical acceleration measurement (m/s^2, up positive,
// gravity removed) taken while the normalized collective thrust (up positive)
// was applied.
//
// A measurement failing the innovation gate leaves the state untouched; the
// returned Status is filled either way.
func (e *Estimator) FuseAccZ(accZ, thrust float64) Status {
	H := e.computeH(thrust)
	innovVar := e.computeInnovVar(H)
	innov := e.computeInnov(accZ, thrust)
	innovTestRatio := e.computeInnovTestRatio(innov, innovVar)

	if isTestRatioPassing(innovTestRatio) {
		K := computeKalmanGain(e.p, H, innovVar)
		pPrior := e.p

		e.updateState(K, innov)
		e.updateStateCovariance(K, H)
		e.updateMeasurementNoise(innov, H, pPrior)
	}

	e.innov = innov
	e.innovVar = innovVar
	e.innovTestRatio = innovTestRatio

	return e.packStatus()
}

// ResetAccelNoise resets the learned acceleration variance to a large value so
// that the filter distrusts the accelerometer again, e.g. right after takeoff.
func (e *Estimator) ResetAccelNoise() {
	e.r = ResetAccelNoiseVar
}

// SetProcessNoiseStdDev sets the hover thrust process noise (thrust/s).
func (e *Estimator) SetProcessNoiseStdDev(processNoise float64) {
	e.q = processNoise * processNoise
}

// SetMeasurementNoiseStdDev sets the acceleration measurement noise (m/s^2).
func (e *Estimator) SetMeasurementNoiseStdDev(measurementNoise float64) {
	e.r = measurementNoise * measurementNoise
}

// SetHoverThrustStdDev sets the hover thrust uncertainty (thrust).
func (e *Estimator) SetHoverThrustStdDev(hoverThrustNoise float64) {
	e.p = hoverThrustNoise * hoverThrustNoise
}

// SetAccelInnovGate sets the innovation gate size in standard deviations.
func (e *Estimator) SetAccelInnovGate(gateSize float64) {
	e.gateSize = gateSize
}

// SetHoverThrust overrides the current estimate, clamped to the valid range.
// Non-finite values are ignored.
func (e *Estimator) SetHoverThrust(hoverThrust float64) {
	if !isFinite(hoverThrust) {
		return
	}
	e.hoverThr = e.constrainHoverThrust(hoverThrust)
}

// HoverThrustEstimate returns the current hover thrust estimate.
func (e *Estimator) HoverThrustEstimate() float64 {
	return e.hoverThr
}

// HoverThrustVariance returns the variance of the hover thrust estimate.
func (e *Estimator) HoverThrustVariance() float64 {
	return e.p
}

// AccelNoiseVariance returns the current acceleration measurement variance.
func (e *Estimator) AccelNoiseVariance() float64 {
	return e.r
}

// ProcessNoiseVariance returns Q.
func (e *Estimator) ProcessNoiseVariance() float64 {
	return e.q
}

// AccelInnovGate returns the gate size in standard deviations.
func (e *Estimator) AccelInnovGate() float64 {
	return e.gateSize
}

// Dt returns the time step of the last Predict call.
func (e *Estimator) Dt() float64 {
	return e.dt
}

// Status returns the current state together with the diagnostics of the last
// fusion, without fusing anything.
func (e *Estimator) Status() Status {
	return e.packStatus()
}

func (e *Estimator) computeH(thrust float64) float64 {
	return MeasurementJacobian(thrust, e.hoverThr)
}

func (e *Estimator) computeInnovVar(H float64) float64 {
	return H*H*e.p + e.r
}

func (e *Estimator) computePredictedAccZ(thrust float64) float64 {
	return PredictedAccZ(thrust, e.hoverThr)
}

func (e *Estimator) computeInnov(accZ, thrust float64) float64 {
	return accZ - e.computePredictedAccZ(thrust)
}

func computeKalmanGain(p, H, innovVar float64) float64 {
	return p * H / innovVar
}

// computeInnovTestRatio returns the ratio between the normalized innovation
// squared and its gate. Values above 1 fail the gate.
func (e *Estimator) computeInnovTestRatio(innov, innovVar float64) float64 {
	return innov * innov / (e.gateSize * e.gateSize * innovVar)
}

// isTestRatioPassing is false for NaN ratios.
func isTestRatioPassing(innovTestRatio float64) bool {
	return innovTestRatio <= 1
}

func (e *Estimator) updateState(K, innov float64) {
	e.hoverThr = e.constrainHoverThrust(e.hoverThr + K*innov)
}

func (e *Estimator) updateStateCovariance(K, H float64) {
	e.p = constrain((1-K*H)*e.p, 0, MaxStateVariance)
}

func (e *Estimator) constrainHoverThrust(hoverThr float64) float64 {
	return constrain(hoverThr, e.minHoverThr, e.maxHoverThr)
}

// PredictedAccZ is the measurement model: the vertical acceleration (up
// positive) expected for thrust when hoverThrust is the true hover thrust.
func PredictedAccZ(thrust, hoverThrust float64) float64 {
	return Gravity*thrust/hoverThrust - Gravity
}

// MeasurementJacobian is the derivative of PredictedAccZ with respect to the
// hover thrust.
func MeasurementJacobian(thrust, hoverThrust float64) float64 {
	return -Gravity * thrust / (hoverThrust * hoverThrust)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func constrain(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
