package dither

// FIRShaper is an error-feedback shaper over a ring of past errors.
type FIRShaper struct {
	coeffs  []float64
	history []float64
	pos     int
}

// NewFIRShaper copies coeffs. An empty slice passes input through.
func NewFIRShaper(coeffs []float64) *FIRShaper {
	return &FIRShaper{
		coeffs:  append([]float64(nil), coeffs...),
		history: make([]float64, len(coeffs)),
	}
}

// Shape subtracts the weighted error history from input. history[pos-1]
// holds the newest error.
func (s *FIRShaper) Shape(input float64) float64 {
	order := len(s.coeffs)
	for i, c := range s.coeffs {
		input -= c * s.history[(s.pos-1-i+2*order)%order]
	}

	return input
}

// RecordError pushes the error of the sample last passed to Shape.
func (s *FIRShaper) RecordError(quantizationError float64) {
	if len(s.history) == 0 {
		return
	}

	s.history[s.pos] = quantizationError
	s.pos = (s.pos + 1) % len(s.history)
}

// Reset clears the error history.
func (s *FIRShaper) Reset() {
	clear(s.history)
	s.pos = 0
}
