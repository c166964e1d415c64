// Package delay provides a circular delay line with fractional reads.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/interp"
)

// Line is a circular delay line.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line holding size samples.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay writes ago, with delay 1 being the
// most recent one.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := ((d.writePos-delay)%size + size) % size

	return d.buffer[readPos]
}

// ReadFractional reads a fractional delay in samples, clamped to
// [1, Len()-2], with cubic Hermite interpolation.
func (d *Line) ReadFractional(delay float64) float64 {
	maxDelay := float64(len(d.buffer) - 2)
	delay = math.Max(1, math.Min(delay, maxDelay))

	p := int(math.Floor(delay))
	t := delay - float64(p)

	return interp.Hermite4(t, d.Read(p-1), d.Read(p), d.Read(p+1), d.Read(p+2))
}

// Reset clears the line.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
