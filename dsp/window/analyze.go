package window

import "fmt"

// CoherentGain returns sum(w[n]) / N, the DC response of the window.
func CoherentGain(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoefficients
	}

	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}

	return sum / float64(len(coeffs)), nil
}

// OverlapAddGain returns the mean reconstruction gain of analysing and
// resynthesising with window t on both sides, when overlaps frames of the
// given size are staggered by size*j/overlaps samples. A constant-overlap-add
// pairing yields a flat gain equal to this value; dividing the summed output
// by it restores unity.
func OverlapAddGain(t Type, size, overlaps int, opts ...Option) (float64, error) {
	sums, err := overlapSums(t, size, overlaps, opts...)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, s := range sums {
		total += s
	}

	return total / float64(len(sums)), nil
}

// OverlapAddRipple returns (max-min)/mean of the summed squared window over
// one frame period. It is zero for an exact constant-overlap-add pairing.
func OverlapAddRipple(t Type, size, overlaps int, opts ...Option) (float64, error) {
	sums, err := overlapSums(t, size, overlaps, opts...)
	if err != nil {
		return 0, err
	}

	lo, hi, total := sums[0], sums[0], 0.0
	for _, s := range sums {
		lo = min(lo, s)
		hi = max(hi, s)
		total += s
	}

	mean := total / float64(len(sums))
	if mean == 0 {
		return 0, nil
	}

	return (hi - lo) / mean, nil
}

func overlapSums(t Type, size, overlaps int, opts ...Option) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be > 0: %d", size)
	}

	if overlaps < 1 || overlaps > size {
		return nil, fmt.Errorf("%w: %d", errInvalidOverlaps, overlaps)
	}

	coeffs := Generate(t, size, append(opts, WithPeriodic())...)
	sums := make([]float64, size)

	for j := range overlaps {
		hop := size * j / overlaps
		for m := range size {
			w := coeffs[(m+hop)%size]
			sums[m] += w * w
		}
	}

	return sums, nil
}
