package dither

import (
	"fmt"
	"strings"
)

// Preset identifies a predefined FIR noise-shaping coefficient set.
type Preset int

const (
	PresetNone Preset = iota // no shaping
	PresetEFB                // simple error feedback, 1st order
	Preset2SC                // simple 2nd-order highpass
	Preset3FC                // F-weighted, 3rd order
	Preset9FC                // F-weighted, 9th order

	presetCount
)

var presetNames = [presetCount]string{"none", "efb", "2sc", "3fc", "9fc"}

var presetCoeffs = [presetCount][]float64{
	PresetNone: nil,
	PresetEFB:  {1},
	Preset2SC:  {1.0, -0.5},
	Preset3FC:  {1.623, -0.982, 0.109},
	Preset9FC: {
		2.412, -3.370, 3.937, -4.174, 3.353,
		-2.205, 1.281, -0.569, 0.0847,
	},
}

// String returns the short name of the preset.
func (p Preset) String() string {
	if p >= 0 && p < presetCount {
		return presetNames[p]
	}

	return fmt.Sprintf("Preset(%d)", p)
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	return p >= 0 && p < presetCount
}

// Coefficients returns a copy of the preset's error-feedback coefficients,
// nil for PresetNone.
func (p Preset) Coefficients() []float64 {
	if !p.Valid() || len(presetCoeffs[p]) == 0 {
		return nil
	}

	return append([]float64(nil), presetCoeffs[p]...)
}

// ParsePreset maps a name as returned by [Preset.String] to its Preset.
func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range presetNames {
		if n == name {
			return Preset(i), nil
		}
	}

	return PresetNone, fmt.Errorf("dither: unknown noise-shaping preset %q", name)
}
