package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	minBitDepth = 8
	maxBitDepth = 32
)

type config struct {
	typ    Type
	amp    float64
	shaper NoiseShaper
	seed   uint64
	seeded bool
}

// Option configures a [Quantizer].
type Option func(*config) error

// WithType sets the dither distribution (default [Triangular]).
func WithType(t Type) Option {
	return func(cfg *config) error {
		if !t.Valid() {
			return fmt.Errorf("dither: invalid dither type: %d", t)
		}

		cfg.typ = t

		return nil
	}
}

// WithAmplitude scales the dither noise in LSBs (default 1).
func WithAmplitude(amp float64) Option {
	return func(cfg *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
		}

		cfg.amp = amp

		return nil
	}
}

// WithPreset shapes quantization noise with a FIR preset.
func WithPreset(p Preset) Option {
	return func(cfg *config) error {
		if !p.Valid() {
			return fmt.Errorf("dither: invalid preset: %d", p)
		}

		cfg.shaper = NewFIRShaper(p.Coefficients())

		return nil
	}
}

// WithShaper installs a custom noise shaper.
func WithShaper(ns NoiseShaper) Option {
	return func(cfg *config) error {
		cfg.shaper = ns
		return nil
	}
}

// WithSeed makes the dither noise reproducible.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		cfg.seeded = true

		return nil
	}
}

// Quantizer reduces samples in [-1, 1] to the grid of a signed integer
// format. Output values are exact multiples of one LSB, so a later
// round-to-nearest conversion at the same depth is lossless.
type Quantizer struct {
	bits   int
	full   float64
	typ    Type
	amp    float64
	shaper NoiseShaper
	rng    *rand.Rand
}

// NewQuantizer returns a quantizer for bits in [8, 32]. Without options it
// applies TPDF dither and no noise shaping.
func NewQuantizer(bits int, opts ...Option) (*Quantizer, error) {
	if bits < minBitDepth || bits > maxBitDepth {
		return nil, fmt.Errorf("dither: bit depth must be in [%d, %d]: %d", minBitDepth, maxBitDepth, bits)
	}

	cfg := config{typ: Triangular, amp: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.shaper == nil {
		cfg.shaper = NewFIRShaper(nil)
	}

	seed := cfg.seed
	if !cfg.seeded {
		seed = rand.Uint64()
	}

	return &Quantizer{
		bits:   bits,
		full:   float64(int64(1)<<(bits-1)) - 1,
		typ:    cfg.typ,
		amp:    cfg.amp,
		shaper: cfg.shaper,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// ProcessInteger returns the integer code for input.
func (q *Quantizer) ProcessInteger(input float64) int {
	shaped := q.shaper.Shape(q.full * input)
	code := math.Round(shaped + q.noise())
	code = math.Max(-q.full, math.Min(q.full, code))
	q.shaper.RecordError(code - shaped)

	return int(code)
}

// ProcessSample returns input moved onto the integer grid.
func (q *Quantizer) ProcessSample(input float64) float64 {
	return float64(q.ProcessInteger(input)) / q.full
}

// ProcessInPlace quantizes buf sample by sample.
func (q *Quantizer) ProcessInPlace(buf []float64) {
	for i, v := range buf {
		buf[i] = q.ProcessSample(v)
	}
}

// Reset clears the noise shaper history.
func (q *Quantizer) Reset() {
	q.shaper.Reset()
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bits }

// Type returns the dither distribution.
func (q *Quantizer) Type() Type { return q.typ }

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.amp * (q.rng.Float64() - 0.5)
	case Triangular:
		return q.amp * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}

// Channels quantizes every channel in place with an independent
// quantizer per channel. Channel i is seeded with seed+i. A shaper passed
// through WithShaper is shared by all channels; prefer WithPreset.
func Channels(channels [][]float64, bits int, seed uint64, opts ...Option) error {
	for i, ch := range channels {
		chOpts := append(append([]Option(nil), opts...), WithSeed(seed+uint64(i)))

		q, err := NewQuantizer(bits, chOpts...)
		if err != nil {
			return err
		}

		q.ProcessInPlace(ch)
	}

	return nil
}
