package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

var (
	errEmpty          = errors.New("signal must not be empty")
	errRaggedChannels = errors.New("channels must have equal length")
)

// Peak returns the largest absolute sample over all channels.
func Peak(channels [][]float64) float64 {
	peak := 0.0

	for _, ch := range channels {
		if len(ch) > 0 {
			peak = max(peak, vecmath.MaxAbs(ch))
		}
	}

	return peak
}

// Normalize scales every channel in place by the same factor so the
// overall peak equals targetPeak. Silent input is left unchanged.
func Normalize(channels [][]float64, targetPeak float64) error {
	if targetPeak < 0 {
		return fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}

	if len(channels) == 0 {
		return errEmpty
	}

	peak := Peak(channels)
	if peak == 0 {
		return nil
	}

	scale := targetPeak / peak
	for _, ch := range channels {
		vecmath.ScaleBlockInPlace(ch, scale)
	}

	return nil
}

// Interleave returns frames of one sample per channel.
func Interleave(channels [][]float64) ([]float64, error) {
	if len(channels) == 0 {
		return nil, errEmpty
	}

	n := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) != n {
			return nil, errRaggedChannels
		}
	}

	out := make([]float64, 0, n*len(channels))
	for i := range n {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}

	return out, nil
}

// Quantize converts samples in [-1, 1] to signed integers of the given bit
// depth, clipping out-of-range values.
func Quantize(samples []float64, bitDepth int) ([]int, error) {
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("bit depth must be in [8, 32]: %d", bitDepth)
	}

	full := float64(int64(1)<<(bitDepth-1)) - 1

	out := make([]int, len(samples))
	for i, v := range samples {
		v = math.Max(-1, math.Min(1, v))
		out[i] = int(math.Round(v * full))
	}

	return out, nil
}
