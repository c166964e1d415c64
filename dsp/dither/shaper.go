package dither

// NoiseShaper filters quantization error back into the signal. Per sample:
//  1. shaped := shaper.Shape(scaled)
//  2. q := round(shaped + noise)
//  3. shaper.RecordError(q - shaped)
type NoiseShaper interface {
	Shape(input float64) float64
	RecordError(quantizationError float64)
	Reset()
}
