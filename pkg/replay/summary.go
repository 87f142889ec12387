package replay

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/orneryd/hoverthrust/pkg/hover"
)

// NISConfidence is the two-sided confidence of the NIS consistency bounds.
const NISConfidence = 0.95

// Summary condenses a replay into the numbers worth looking at.
type Summary struct {
	Samples  int
	Fused    int
	Accepted int
	Rejected int
	Skipped  int

	FinalHoverThrust   float64
	FinalVariance      float64
	FinalAccelNoiseVar float64
	FinalValid         bool

	// TimeToValid is the time from the first sample until the estimate first
	// became valid, -1 if it never did.
	TimeToValid time.Duration

	MeanTestRatio float64
	MaxTestRatio  float64
	MeanAbsInnov  float64
	MaxAbsInnov   float64

	// MeanNIS is the mean normalized innovation squared over accepted
	// fusions. For a consistent filter it lies inside [NISLower, NISUpper].
	MeanNIS    float64
	NISLower   float64
	NISUpper   float64
	Consistent bool
}

// Summarize computes a Summary. Test ratio and innovation statistics cover
// every fused record; NIS covers accepted ones only, since gated outliers are
// by definition not explained by the model.
func Summarize(records []hover.Record) Summary {
	s := Summary{
		Samples:     len(records),
		TimeToValid: -1,
	}
	if len(records) == 0 {
		return s
	}

	start := records[0].Time
	ratios := make([]float64, 0, len(records))
	innovs := make([]float64, 0, len(records))
	var acceptedInnov, acceptedVar []float64

	for _, rec := range records {
		if rec.Valid && s.TimeToValid < 0 {
			s.TimeToValid = rec.Time.Sub(start)
		}
		if !rec.Fused {
			s.Skipped++
			continue
		}

		s.Fused++
		st := rec.Status
		if math.IsNaN(st.InnovTestRatio) || math.IsInf(st.InnovTestRatio, 0) {
			s.Rejected++
			continue
		}
		ratios = append(ratios, st.InnovTestRatio)
		innovs = append(innovs, st.Innov)

		if st.Accepted() {
			s.Accepted++
			if st.InnovVar > 0 {
				acceptedInnov = append(acceptedInnov, st.Innov)
				acceptedVar = append(acceptedVar, st.InnovVar)
			}
		} else {
			s.Rejected++
		}
	}

	last := records[len(records)-1]
	s.FinalHoverThrust = last.Status.HoverThrust
	s.FinalVariance = last.Status.HoverThrustVar
	s.FinalAccelNoiseVar = last.Status.AccelNoiseVar
	s.FinalValid = last.Valid

	if len(ratios) > 0 {
		s.MeanTestRatio = vek.Mean(ratios)
		s.MaxTestRatio = vek.Max(ratios)
		abs := vek.Abs(innovs)
		s.MeanAbsInnov = vek.Mean(abs)
		s.MaxAbsInnov = vek.Max(abs)
	}

	if n := len(acceptedInnov); n > 0 {
		nis := vek.Div(vek.Mul(acceptedInnov, acceptedInnov), acceptedVar)
		s.MeanNIS = vek.Mean(nis)
		s.NISLower, s.NISUpper = NISBounds(n, NISConfidence)
		s.Consistent = s.MeanNIS >= s.NISLower && s.MeanNIS <= s.NISUpper
	}

	return s
}

// NISBounds returns the two-sided confidence interval of the mean of n
// independent chi-square(1) variables, i.e. chi2(n)/n.
func NISBounds(n int, confidence float64) (lower, upper float64) {
	if n <= 0 || !(confidence > 0 && confidence < 1) {
		return math.NaN(), math.NaN()
	}
	chi := distuv.ChiSquared{K: float64(n)}
	tail := (1 - confidence) / 2
	return chi.Quantile(tail) / float64(n), chi.Quantile(1-tail) / float64(n)
}

// String renders the summary for terminal output.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "samples:        %d (fused %d, accepted %d, rejected %d, skipped %d)\n",
		s.Samples, s.Fused, s.Accepted, s.Rejected, s.Skipped)
	fmt.Fprintf(&b, "hover thrust:   %.4f (var %.2e)\n", s.FinalHoverThrust, s.FinalVariance)
	fmt.Fprintf(&b, "accel noise:    %.3f (m/s^2)^2\n", s.FinalAccelNoiseVar)
	if s.TimeToValid >= 0 {
		fmt.Fprintf(&b, "valid:          %v (first after %s)\n", s.FinalValid, s.TimeToValid)
	} else {
		fmt.Fprintf(&b, "valid:          never\n")
	}
	fmt.Fprintf(&b, "test ratio:     mean %.3f, max %.3f\n", s.MeanTestRatio, s.MaxTestRatio)
	fmt.Fprintf(&b, "|innovation|:   mean %.3f, max %.3f m/s^2\n", s.MeanAbsInnov, s.MaxAbsInnov)
	if s.Accepted > 0 && !math.IsNaN(s.NISLower) {
		verdict := "consistent"
		if !s.Consistent {
			verdict = "inconsistent"
		}
		fmt.Fprintf(&b, "mean NIS:       %.3f in [%.3f, %.3f] at %.0f%%: %s\n",
			s.MeanNIS, s.NISLower, s.NISUpper, NISConfidence*100, verdict)
	}
	return b.String()
}
