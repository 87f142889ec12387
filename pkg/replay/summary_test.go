package replay

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/hoverthrust/pkg/hover"
	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// fusedRecords returns accepted records whose NIS is exactly nis.
func fusedRecords(n int, nis float64) []hover.Record {
	recs := make([]hover.Record, n)
	for i := range recs {
		sign := 1.0
		if i%2 == 1 {
			sign = -1
		}
		innovVar := 4.0
		innov := sign * math.Sqrt(nis*innovVar)
		recs[i] = hover.Record{
			Time:  Epoch.Add(time.Duration(i) * 20 * time.Millisecond),
			Fused: true,
			Status: hoverthrust.Status{
				HoverThrust:    0.4,
				HoverThrustVar: 1e-4,
				Innov:          innov,
				InnovVar:       innovVar,
				InnovTestRatio: innov * innov / (9 * innovVar),
				AccelNoiseVar:  3.9,
			},
		}
	}
	return recs
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Samples)
	assert.Equal(t, time.Duration(-1), s.TimeToValid)
	assert.Contains(t, s.String(), "valid:          never")
}

func TestSummarize_Statistics(t *testing.T) {
	recs := fusedRecords(4, 1)
	recs[1].Status.Innov = 3
	recs[1].Status.InnovTestRatio = 9.0 / 36
	recs[3].Status.Innov = 12
	recs[3].Status.InnovTestRatio = 4 // rejected
	recs = append([]hover.Record{{Time: Epoch.Add(-20 * time.Millisecond), Landed: true}}, recs...)
	recs[3].Valid = true
	recs[4].Valid = true

	s := Summarize(recs)

	assert.Equal(t, 5, s.Samples)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 4, s.Fused)
	assert.Equal(t, 3, s.Accepted)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 60*time.Millisecond, s.TimeToValid)
	assert.True(t, s.FinalValid)
	assert.Equal(t, 0.4, s.FinalHoverThrust)
	assert.Equal(t, 3.9, s.FinalAccelNoiseVar)

	assert.Equal(t, 4.0, s.MaxTestRatio)
	assert.InDelta(t, (1.0/9+0.25+1.0/9+4)/4, s.MeanTestRatio, 1e-12)
	assert.Equal(t, 12.0, s.MaxAbsInnov)
	assert.InDelta(t, (2+3+2+12)/4.0, s.MeanAbsInnov, 1e-12)
	assert.InDelta(t, (1+9.0/4+1)/3, s.MeanNIS, 1e-12, "rejected records are left out of NIS")
}

func TestSummarize_NISConsistency(t *testing.T) {
	consistent := Summarize(fusedRecords(500, 1))
	assert.InDelta(t, 1, consistent.MeanNIS, 1e-12)
	assert.True(t, consistent.Consistent)
	assert.Less(t, consistent.NISLower, 1.0)
	assert.Greater(t, consistent.NISUpper, 1.0)
	assert.Contains(t, consistent.String(), ": consistent")

	overconfident := Summarize(fusedRecords(500, 2))
	assert.False(t, overconfident.Consistent)
	assert.Contains(t, overconfident.String(), "inconsistent")

	underconfident := Summarize(fusedRecords(500, 0.5))
	assert.False(t, underconfident.Consistent)
}

func TestSummarize_NaNRatioCountsAsRejected(t *testing.T) {
	recs := fusedRecords(3, 1)
	recs[2].Status.InnovTestRatio = math.NaN()
	recs[2].Status.Innov = math.NaN()

	s := Summarize(recs)

	assert.Equal(t, 2, s.Accepted)
	assert.Equal(t, 1, s.Rejected)
	assert.False(t, math.IsNaN(s.MeanAbsInnov))
}

func TestNISBounds(t *testing.T) {
	lo, hi := NISBounds(1, 0.95)
	assert.InDelta(t, 0.000982, lo, 1e-5)
	assert.InDelta(t, 5.0239, hi, 1e-3)

	lo, hi = NISBounds(100, 0.95)
	assert.InDelta(t, 0.7422, lo, 1e-3)
	assert.InDelta(t, 1.2956, hi, 1e-3)

	lo, hi = NISBounds(0, 0.95)
	require.True(t, math.IsNaN(lo))
	require.True(t, math.IsNaN(hi))

	lo, _ = NISBounds(10, 1)
	assert.True(t, math.IsNaN(lo))
}
