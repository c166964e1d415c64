// Package dither quantizes rendered graph output to an integer bit depth
// with optional dither noise and error-feedback noise shaping.
package dither

import (
	"fmt"
	"strings"
)

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// None rounds without added noise.
	None Type = iota
	// Rectangular adds uniform noise of one LSB peak-to-peak.
	Rectangular
	// Triangular adds TPDF noise, the sum of two uniform draws.
	Triangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rect", "tpdf"}

// String returns the short name used on the command line.
func (t Type) String() string {
	if t >= 0 && t < typeCount {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known dither type.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// ParseType maps a name as returned by [Type.String] to its Type.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}

	return None, fmt.Errorf("dither: unknown dither type %q", name)
}
