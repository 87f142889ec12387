package hoverthrust

import "fmt"

// Status is a snapshot of the estimator taken after a fusion.
//
// The field order is shared with logging and telemetry consumers and must not
// change.
type Status struct {
	HoverThrust    float64 `json:"hover_thrust"`
	HoverThrustVar float64 `json:"hover_thrust_var"`
	Innov          float64 `json:"innov"`
	InnovVar       float64 `json:"innov_var"`
	InnovTestRatio float64 `json:"innov_test_ratio"`
	AccelNoiseVar  float64 `json:"accel_noise_var"`
}

// StatusFields lists the Status field names in wire order.
var StatusFields = []string{
	"hover_thrust",
	"hover_thrust_var",
	"innov",
	"innov_var",
	"innov_test_ratio",
	"accel_noise_var",
}

// Accepted reports whether the measurement passed the innovation gate.
func (s Status) Accepted() bool {
	return isTestRatioPassing(s.InnovTestRatio)
}

// Values returns the fields in wire order.
func (s Status) Values() [6]float64 {
	return [6]float64{
		s.HoverThrust,
		s.HoverThrustVar,
		s.Innov,
		s.InnovVar,
		s.InnovTestRatio,
		s.AccelNoiseVar,
	}
}

// String returns a compact representation for logging.
func (s Status) String() string {
	return fmt.Sprintf("Status{hover: %.4f, var: %.3g, innov: %.3f, innov_var: %.3f, ratio: %.3f, accel_var: %.3f}",
		s.HoverThrust, s.HoverThrustVar, s.Innov, s.InnovVar, s.InnovTestRatio, s.AccelNoiseVar)
}

func (e *Estimator) packStatus() Status {
	return Status{
		HoverThrust:    e.hoverThr,
		HoverThrustVar: e.p,
		Innov:          e.innov,
		InnovVar:       e.innovVar,
		InnovTestRatio: e.innovTestRatio,
		AccelNoiseVar:  e.r,
	}
}
