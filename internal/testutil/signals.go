package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse generates a unit impulse at pos.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC generates a constant signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Processor is a block-based multichannel processor driven like an audio
// callback.
type Processor interface {
	Process(in, out [][]float64)
}

// Buffers allocates channels buffers of frames samples each.
func Buffers(channels, frames int) [][]float64 {
	out := make([][]float64, channels)
	for i := range out {
		out[i] = make([]float64, frames)
	}

	return out
}

// Render calls p blocks times with silent input and returns the
// concatenated output per channel.
func Render(p Processor, channels, blockSize, blocks int) [][]float64 {
	return RenderInput(p, nil, channels, blockSize, blocks)
}

// RenderInput is like Render but feeds in, split into blocks, as hardware
// input. Input channels shorter than the render are padded with silence.
func RenderInput(p Processor, in [][]float64, channels, blockSize, blocks int) [][]float64 {
	out := Buffers(channels, blockSize)
	blockIn := Buffers(len(in), blockSize)

	rendered := make([][]float64, channels)
	for ch := range rendered {
		rendered[ch] = make([]float64, 0, blockSize*blocks)
	}

	for b := range blocks {
		start := b * blockSize

		for ch, src := range in {
			for i := range blockSize {
				blockIn[ch][i] = 0
				if start+i < len(src) {
					blockIn[ch][i] = src[start+i]
				}
			}
		}

		p.Process(blockIn, out)

		for ch := range out {
			rendered[ch] = append(rendered[ch], out[ch]...)
		}
	}

	return rendered
}
