package biquad

import (
	"math"
	"testing"
)

var testCoeffs = Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.3, A2: 0.1}

func TestProcessBlockToMatchesProcessSample(t *testing.T) {
	in := []float64{1, 0.5, -0.25, 0, 0.75, -1, 0.1, 0.2}

	ref := NewSection(testCoeffs)
	want := make([]float64, len(in))

	for i, x := range in {
		want[i] = ref.ProcessSample(x)
	}

	dst := make([]float64, len(in))
	to := NewSection(testCoeffs)
	to.ProcessBlockTo(dst, in)

	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-15 {
			t.Fatalf("ProcessBlockTo index %d: got %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestResetClearsDelayLine(t *testing.T) {
	s := NewSection(testCoeffs)
	s.ProcessSample(1)
	s.Reset()

	fresh := NewSection(testCoeffs)
	for i, x := range []float64{0.5, -0.25, 0} {
		if got, want := s.ProcessSample(x), fresh.ProcessSample(x); got != want {
			t.Fatalf("sample %d after reset: got %v, want %v", i, got, want)
		}
	}
}

func TestResponseDC(t *testing.T) {
	c := Coefficients{B0: 1}
	if db := c.MagnitudeDB(1000, 48000); math.Abs(db) > 1e-12 {
		t.Fatalf("identity magnitude = %v dB, want 0", db)
	}
}
