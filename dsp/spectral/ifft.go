package spectral

import (
	"fmt"

	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/window"
)

// IFFT resynthesises time-domain frames from streamed real and imag bins.
// It has one slot per (channel, overlap) pair; fold them with Mix(channels).
type IFFT struct {
	*graph.Node

	fr     *framing
	synths []*synthesizer
}

// NewIFFT builds a resynthesis node. real and imag are paired slot by slot
// and must come from an FFT with the same frame size and overlap count.
// Their broadcast length must be a multiple of cfg.Overlaps.
func NewIFFT(e *graph.Engine, realIn, imagIn graph.Stream, cfg Config) (*IFFT, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ifft: %w", err)
	}

	if realIn == nil || imagIn == nil {
		return nil, fmt.Errorf("ifft: %w: missing real or imag input", graph.ErrConfiguration)
	}

	want := cfg.Format()

	for i, s := range []graph.Stream{realIn, imagIn} {
		if got, ok := graph.FormatOf(s); ok && got != want {
			return nil, fmt.Errorf("ifft: %w: %s input has format %s, want %s",
				graph.ErrConfiguration, [...]string{"real", "imag"}[i], got, want)
		}
	}

	reP, imP := graph.Each(realIn), graph.Each(imagIn)

	_, count, err := graph.Normalize(reP, imP)
	if err != nil {
		return nil, fmt.Errorf("ifft: %w", err)
	}

	if count%cfg.Overlaps != 0 {
		return nil, fmt.Errorf("ifft: %w: %d inputs do not divide into %d overlaps",
			graph.ErrConfiguration, count, cfg.Overlaps)
	}

	fr, err := newFraming(cfg)
	if err != nil {
		return nil, fmt.Errorf("ifft: %w", err)
	}

	f := &IFFT{fr: fr, synths: make([]*synthesizer, count)}

	n, err := e.Build(graph.Spec{
		Kind:   graph.KindIFFT,
		Params: []graph.Param{reP, imP},
		Kernel: func(i int) (graph.Kernel, error) {
			s := newSynthesizer(fr,
				e.NewInput(graph.Resolve(reP, i)),
				e.NewInput(graph.Resolve(imP, i)),
				hopOffset(fr.size, fr.overlaps, i, count))
			f.synths[i] = s

			return s, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ifft: %w", err)
	}

	f.Node = n

	return f, nil
}

// Config returns the current framing.
func (f *IFFT) Config() Config {
	return Config{FrameSize: f.fr.size, Overlaps: f.fr.overlaps, Window: f.fr.kind}
}

// HopOffsets returns the start delay of every slot in samples.
func (f *IFFT) HopOffsets() []int {
	hops := make([]int, len(f.synths))
	for i, s := range f.synths {
		hops[i] = s.hop
	}

	return hops
}

// SetSize changes the frame size and recomputes every hop offset from the
// slot's overlap index.
func (f *IFFT) SetSize(frameSize int) error {
	if err := f.fr.resize(frameSize); err != nil {
		return fmt.Errorf("ifft: %w", err)
	}

	for i, s := range f.synths {
		s.reset(hopOffset(f.fr.size, f.fr.overlaps, i, len(f.synths)))
	}

	return nil
}

// SetWindow changes the resynthesis window.
func (f *IFFT) SetWindow(kind window.Type) error {
	if err := f.fr.setWindow(kind); err != nil {
		return fmt.Errorf("ifft: %w", err)
	}

	return nil
}
