package hoverthrust

// State is a serializable snapshot of the learned estimator state.
//
// It is what a vehicle persists between power cycles so that the next flight
// starts from the previously learned hover thrust instead of the default.
type State struct {
	HoverThrust    float64
	HoverThrustVar float64
	AccelNoiseVar  float64
}

// Snapshot returns the learned state.
func (e *Estimator) Snapshot() State {
	return State{
		HoverThrust:    e.hoverThr,
		HoverThrustVar: e.p,
		AccelNoiseVar:  e.r,
	}
}

// Restore loads a snapshot taken with Snapshot.
//
// The hover thrust is clamped to the configured range and the variances to
// their valid ranges. Non-finite or negative fields keep the current value.
// Tuning (Q, gate) is left untouched.
func (e *Estimator) Restore(s State) {
	if isFinite(s.HoverThrust) {
		e.hoverThr = e.constrainHoverThrust(s.HoverThrust)
	}
	if s.HoverThrustVar >= 0 {
		e.p = constrain(s.HoverThrustVar, 0, MaxStateVariance)
	}
	if s.AccelNoiseVar > 0 {
		e.r = constrain(s.AccelNoiseVar, MinAccelNoiseVar, MaxAccelNoiseVar)
	}
}
