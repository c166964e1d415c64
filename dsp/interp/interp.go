package interp

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects an interpolation algorithm.
type Mode int

const (
	// ModeNone truncates to the previous sample.
	ModeNone Mode = iota
	// ModeLinear interpolates between the two neighbouring samples.
	ModeLinear
	// ModeCubic uses 4-point Hermite interpolation.
	ModeCubic
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeLinear:
		return "linear"
	case ModeCubic:
		return "cubic"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return ModeNone, nil
	case "linear":
		return ModeLinear, nil
	case "cubic", "hermite":
		return ModeCubic, nil
	default:
		return 0, fmt.Errorf("interp: unknown mode %q", name)
	}
}

// Linear2 interpolates from x0 to x1.
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation from x0 to x1 using the
// neighbour points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

// Table reads table at fractional index pos, wrapping indices modulo the
// table length. An empty table reads as silence.
func Table(table []float64, pos float64, mode Mode) float64 {
	n := len(table)
	if n == 0 {
		return 0
	}

	ip := math.Floor(pos)
	t := pos - ip
	i := int(ip)

	at := func(k int) float64 {
		return table[((k%n)+n)%n]
	}

	switch mode {
	case ModeLinear:
		return Linear2(t, at(i), at(i+1))
	case ModeCubic:
		return Hermite4(t, at(i-1), at(i), at(i+1), at(i+2))
	default:
		return at(i)
	}
}
