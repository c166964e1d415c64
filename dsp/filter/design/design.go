package design

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-graph/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// Type selects the response of a second-order design.
type Type int

const (
	TypeLowpass Type = iota
	TypeHighpass
	TypeBandpass
	TypeNotch
	TypeAllpass
)

// String returns the lower-case name of t.
func (t Type) String() string {
	switch t {
	case TypeLowpass:
		return "lowpass"
	case TypeHighpass:
		return "highpass"
	case TypeBandpass:
		return "bandpass"
	case TypeNotch:
		return "notch"
	case TypeAllpass:
		return "allpass"
	default:
		return fmt.Sprintf("filter(%d)", int(t))
	}
}

// ParseType resolves a filter type name as printed by Type.String.
func ParseType(name string) (Type, error) {
	for t := TypeLowpass; t <= TypeAllpass; t++ {
		if t.String() == strings.ToLower(strings.TrimSpace(name)) {
			return t, nil
		}
	}

	return 0, fmt.Errorf("design: unknown filter type %q", name)
}

// ByType designs a biquad of the given type. Unknown types return identity
// coefficients.
func ByType(t Type, freq, q, sampleRate float64) biquad.Coefficients {
	switch t {
	case TypeLowpass:
		return Lowpass(freq, q, sampleRate)
	case TypeHighpass:
		return Highpass(freq, q, sampleRate)
	case TypeBandpass:
		return Bandpass(freq, q, sampleRate)
	case TypeNotch:
		return Notch(freq, q, sampleRate)
	case TypeAllpass:
		return Allpass(freq, q, sampleRate)
	default:
		return biquad.Coefficients{B0: 1}
	}
}

// Lowpass designs an RBJ lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b1 := 1 - cw

	return normalizeBiquad(b1/2, b1, b1/2, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs an RBJ highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b1 := 1 + cw

	return normalizeBiquad(b1/2, -b1, b1/2, 1+alpha, -2*cw, 1-alpha)
}

// Bandpass designs a constant 0 dB peak-gain bandpass biquad.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalizeBiquad(alpha, 0, -alpha, 1+alpha, -2*cw, 1-alpha)
}

// Notch designs a notch biquad centered at freq (Hz).
func Notch(freq, q, sampleRate float64) biquad.Coefficients {
	cw, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalizeBiquad(1, -2*cw, 1, 1+alpha, -2*cw, 1-alpha)
}

// Allpass designs an allpass biquad centered at freq (Hz).
func Allpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalizeBiquad(1-alpha, -2*cw, 1+alpha, 1+alpha, -2*cw, 1-alpha)
}

// prewarp returns cos(w0) and the RBJ alpha term. Frequencies are clamped
// into (0, nyquist) so swept parameters never produce an unstable section.
func prewarp(freq, q, sampleRate float64) (cw, alpha float64, ok bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, 0, false
	}

	if math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, 0, false
	}

	nyquist := sampleRate / 2
	freq = math.Max(1, math.Min(freq, nyquist*0.999))

	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		q = defaultQ
	}

	w0 := 2 * math.Pi * freq / sampleRate

	return math.Cos(w0), math.Sin(w0) / (2 * q), true
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
