package spectral

import (
	"fmt"

	"github.com/cwbudde/algo-graph/dsp/core"
	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/window"
)

const (
	defaultFrameSize = 1024
	defaultOverlaps  = 4
	minFrameSize     = 8
)

// Config describes the framing shared by an FFT and the IFFT resynthesising
// its output.
type Config struct {
	// FrameSize is the FFT length, a power of two >= 8.
	FrameSize int
	// Overlaps is the number of staggered frames per frame period, in
	// [1, FrameSize].
	Overlaps int
	// Window is applied before analysis and after resynthesis.
	Window window.Type
}

// DefaultConfig returns 1024-sample Hann frames with 4 overlaps.
func DefaultConfig() Config {
	return Config{
		FrameSize: defaultFrameSize,
		Overlaps:  defaultOverlaps,
		Window:    window.TypeHann,
	}
}

// Format returns the stream tag for cfg.
func (c Config) Format() graph.SpectralFormat {
	return graph.SpectralFormat{FrameSize: c.FrameSize, Overlaps: c.Overlaps}
}

// Validate checks cfg.
func (c Config) Validate() error {
	if err := validateSize(c.FrameSize, c.Overlaps); err != nil {
		return err
	}

	if !c.Window.Valid() {
		return fmt.Errorf("%w: unknown window %s", graph.ErrConfiguration, c.Window)
	}

	return nil
}

func validateSize(frameSize, overlaps int) error {
	if frameSize < minFrameSize || !core.IsPowerOfTwo(frameSize) {
		return fmt.Errorf("%w: frame size must be a power of two >= %d: %d",
			graph.ErrConfiguration, minFrameSize, frameSize)
	}

	if overlaps < 1 || overlaps > frameSize {
		return fmt.Errorf("%w: overlaps must be in [1, %d]: %d", graph.ErrConfiguration, frameSize, overlaps)
	}

	return nil
}

// Latency returns the delay in samples between an FFT input and the
// output of the IFFT resynthesising it: one frame to fill the analysis
// buffer and one to stream the bins.
func Latency(frameSize int) int {
	return 2 * frameSize
}

// OverlapGain returns the constant the mixed IFFT output must be divided by
// to restore unity gain, for analysis and resynthesis with cfg.Window.
func OverlapGain(cfg Config) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	return window.OverlapAddGain(cfg.Window, cfg.FrameSize, cfg.Overlaps)
}

// hopOffset returns the start delay of helper f out of helpers. Helpers are
// laid out overlap-major, so f / (helpers/overlaps) is its overlap index.
func hopOffset(frameSize, overlaps, f, helpers int) int {
	perOverlap := helpers / overlaps
	if perOverlap <= 0 {
		return 0
	}

	return frameSize * (f / perOverlap) / overlaps
}
