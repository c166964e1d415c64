package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function usable for spectral framing.
type Type int

const (
	TypeRectangular Type = iota
	TypeHamming
	TypeHann
	TypeBartlett
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeBlackmanHarris7Term
	TypeTukey
	TypeHalfSine
)

const defaultTukeyAlpha = 0.66

var (
	hammingCoeffs         = []float64{0.54, 0.46}
	hannCoeffs            = []float64{0.5, 0.5}
	blackmanCoeffs        = []float64{0.42, 0.5, 0.08}
	blackmanHarris4Coeffs = []float64{0.35875, 0.48829, 0.14128, 0.01168}
	blackmanHarris7Coeffs = []float64{
		0.27105140069342, 0.43329793923448, 0.21812299954311,
		0.06592544638803, 0.01081174209837, 0.00077658482522, 0.00001388721735,
	}
)

var typeNames = map[Type]string{
	TypeRectangular:         "rectangular",
	TypeHamming:             "hamming",
	TypeHann:                "hann",
	TypeBartlett:            "bartlett",
	TypeBlackman:            "blackman",
	TypeBlackmanHarris4Term: "blackman-harris-4t",
	TypeBlackmanHarris7Term: "blackman-harris-7t",
	TypeTukey:               "tukey",
	TypeHalfSine:            "half-sine",
}

// Types returns every supported window type in declaration order.
func Types() []Type {
	return []Type{
		TypeRectangular, TypeHamming, TypeHann, TypeBartlett, TypeBlackman,
		TypeBlackmanHarris4Term, TypeBlackmanHarris7Term, TypeTukey, TypeHalfSine,
	}
}

// String returns the canonical lower-case name of t.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("window(%d)", int(t))
}

// Valid reports whether t is a known window type.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType resolves a window name. "hanning" is accepted as an alias of "hann"
// and "sine" as an alias of "half-sine".
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	switch key {
	case "hanning":
		return TypeHann, nil
	case "sine", "halfsine":
		return TypeHalfSine, nil
	case "triangle":
		return TypeBartlett, nil
	}

	for t, n := range typeNames {
		if n == key {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownType, name)
}

// Option configures window generation.
type Option func(*config)

type config struct {
	alpha    float64
	periodic bool
}

func defaultConfig() config {
	return config{alpha: defaultTukeyAlpha}
}

// WithAlpha sets the taper ratio of the Tukey window. Values outside [0, 1]
// are ignored.
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v >= 0 && v <= 1 {
			c.alpha = v
		}
	}
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic), cfg)
	}

	return out
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	coeffs := Generate(t, len(buf), opts...)
	vecmath.MulBlockInPlace(buf, coeffs)
}

// ApplyCoefficientsInPlace multiplies samples with precomputed coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func evalWindow(t Type, x float64, cfg config) float64 {
	x = math.Max(0, math.Min(1, x))

	switch t {
	case TypeRectangular:
		return 1
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeBartlett:
		return 1 - math.Abs(2*x-1)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeBlackmanHarris4Term:
		return cosineFromCoeffs(x, blackmanHarris4Coeffs)
	case TypeBlackmanHarris7Term:
		return cosineFromCoeffs(x, blackmanHarris7Coeffs)
	case TypeTukey:
		return tukeyAt(x, cfg.alpha)
	case TypeHalfSine:
		return math.Sin(math.Pi * x)
	default:
		return 1
	}
}

// cosineFromCoeffs evaluates the alternating-sign cosine sum
// c0 - c1*cos(2πx) + c2*cos(4πx) - ...
func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	sign := 1.0

	for k, c := range coeffs {
		sum += sign * c * math.Cos(float64(k)*phase)
		sign = -sign
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0.5
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}

func tukeyAt(x, alpha float64) float64 {
	if alpha <= 0 {
		return 1
	}

	if alpha >= 1 {
		return cosineFromCoeffs(x, hannCoeffs)
	}

	a := alpha / 2

	switch {
	case x < a:
		return 0.5 * (1 + math.Cos(math.Pi*(2*x/alpha-1)))
	case x <= 1-a:
		return 1
	default:
		return 0.5 * (1 + math.Cos(math.Pi*(2*x/alpha-2/alpha+1)))
	}
}
