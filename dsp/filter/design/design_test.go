package design

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-graph/dsp/filter/biquad"
)

const sr = 48000.0

func TestBandpassPeakAtCenter(t *testing.T) {
	c := Bandpass(1000, 2, sr)

	if db := c.MagnitudeDB(1000, sr); math.Abs(db) > 1e-6 {
		t.Fatalf("center gain = %v dB, want 0", db)
	}

	if db := c.MagnitudeDB(100, sr); db > -15 {
		t.Fatalf("gain two decades below = %v dB, expected strong attenuation", db)
	}
}

func TestLowHighpass(t *testing.T) {
	lp := Lowpass(1000, defaultQ, sr)
	hp := Highpass(1000, defaultQ, sr)

	if db := lp.MagnitudeDB(20, sr); math.Abs(db) > 0.01 {
		t.Fatalf("lowpass DC gain = %v dB", db)
	}

	if db := hp.MagnitudeDB(20000, sr); math.Abs(db) > 0.1 {
		t.Fatalf("highpass HF gain = %v dB", db)
	}

	if db := lp.MagnitudeDB(1000, sr); math.Abs(db+3.0103) > 0.01 {
		t.Fatalf("lowpass cutoff gain = %v dB, want -3", db)
	}
}

func TestNotchAndAllpass(t *testing.T) {
	n := Notch(2000, 1, sr)
	if db := n.MagnitudeDB(2000, sr); db > -60 {
		t.Fatalf("notch depth = %v dB", db)
	}

	a := Allpass(2000, 1, sr)
	for _, f := range []float64{50, 2000, 15000} {
		if db := a.MagnitudeDB(f, sr); math.Abs(db) > 1e-9 {
			t.Fatalf("allpass gain at %v = %v dB", f, db)
		}
	}
}

func TestByTypeAndClamping(t *testing.T) {
	if got, want := ByType(TypeBandpass, 500, 3, sr), Bandpass(500, 3, sr); got != want {
		t.Fatalf("ByType bandpass = %+v, want %+v", got, want)
	}

	if got := ByType(Type(99), 500, 3, sr); got != (biquad.Coefficients{B0: 1}) {
		t.Fatalf("unknown type = %+v, want identity", got)
	}

	over := Lowpass(sr, 1, sr)
	if over == (biquad.Coefficients{}) {
		t.Fatal("expected clamped design above nyquist")
	}

	if bad := Lowpass(1000, 1, 0); bad != (biquad.Coefficients{}) {
		t.Fatalf("expected zero coefficients for invalid sample rate, got %+v", bad)
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, want := range []Type{TypeLowpass, TypeHighpass, TypeBandpass, TypeNotch, TypeAllpass} {
		got, err := ParseType(" " + want.String() + " ")
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %v, %v", want.String(), got, err)
		}
	}

	if _, err := ParseType("comb"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
