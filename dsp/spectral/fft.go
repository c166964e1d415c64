package spectral

import (
	"fmt"

	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/window"
)

// View keys exposed by FFT nodes.
const (
	ViewReal = "real"
	ViewImag = "imag"
	ViewBin  = "bin"
)

const (
	partReal = iota
	partImag
	partBin
)

// FFT is an overlapped short-time analysis node. Its slots are laid out
// as interleaved real/imag pairs, one per helper, followed by one bin-index
// slot per helper.
type FFT struct {
	*graph.Node

	fr        *framing
	fader     *graph.InputFader
	analyzers []*analyzer
}

// readerKernel exposes one output of an analysis helper.
type readerKernel struct {
	src  *graph.Slot
	a    *analyzer
	part int
}

func (k *readerKernel) Process(b *graph.Block, out []float64) {
	re := k.src.Read(b)

	switch k.part {
	case partReal:
		copy(out, re)
	case partImag:
		copy(out, k.a.imag)
	default:
		copy(out, k.a.bin)
	}
}

// NewFFT builds an analysis node over every slot of in. The input is read
// through an owned InputFader so SetInput can crossfade to a new source.
func NewFFT(e *graph.Engine, in graph.Stream, cfg Config) (*FFT, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fft: %w", err)
	}

	fr, err := newFraming(cfg)
	if err != nil {
		return nil, fmt.Errorf("fft: %w", err)
	}

	fader, err := e.NewInputFader(in)
	if err != nil {
		return nil, fmt.Errorf("fft: %w", err)
	}

	channels := fader.Len()
	count := cfg.Overlaps * channels
	inputs := fader.Slots()

	f := &FFT{fr: fr, fader: fader, analyzers: make([]*analyzer, count)}

	helpers := []*graph.Node{fader.Node}
	sources := make([]*graph.Slot, count)

	for i := range count {
		a := newAnalyzer(fr, e.NewInput(graph.Elem{Stream: inputs[i%channels]}), hopOffset(fr.size, fr.overlaps, i, count), e.BlockSize())

		h, err := e.Build(graph.Spec{
			Kind:   graph.KindFFTAnalyzer,
			Length: 1,
			Inputs: []graph.Stream{fader},
			Kernel: func(int) (graph.Kernel, error) { return a, nil },
		})
		if err != nil {
			closeReverse(helpers)
			return nil, fmt.Errorf("fft: %w", err)
		}

		helpers = append(helpers, h)
		f.analyzers[i] = a
		sources[i] = h.Slots()[0]
	}

	n, err := e.Build(graph.Spec{
		Kind:    graph.KindFFT,
		Length:  3 * count,
		Helpers: helpers,
		Kernel: func(i int) (graph.Kernel, error) {
			h, part := i/2, i%2
			if i >= 2*count {
				h, part = i-2*count, partBin
			}

			return &readerKernel{src: sources[h], a: f.analyzers[h], part: part}, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fft: %w", err)
	}

	f.Node = n

	views := map[string]graph.Selection{
		ViewReal: {Offset: 0, Step: 2, Count: count},
		ViewImag: {Offset: 1, Step: 2, Count: count},
		ViewBin:  {Offset: 2 * count, Step: 1, Count: count},
	}

	for _, key := range []string{ViewReal, ViewImag, ViewBin} {
		if err := n.DefineView(key, views[key]); err != nil {
			n.Close()
			return nil, fmt.Errorf("fft: %w", err)
		}
	}

	n.SetSpectralFormat(fr.format())

	return f, nil
}

func closeReverse(nodes []*graph.Node) {
	for i := len(nodes) - 1; i >= 0; i-- {
		nodes[i].Close()
	}
}

// Real returns the real parts of the streamed bins, one slot per helper.
func (f *FFT) Real() *graph.View { return f.MustView(ViewReal) }

// Imag returns the imaginary parts of the streamed bins, one slot per
// helper.
func (f *FFT) Imag() *graph.View { return f.MustView(ViewImag) }

// Bin returns the index of the bin streamed at each sample, one slot per
// helper.
func (f *FFT) Bin() *graph.View { return f.MustView(ViewBin) }

// Config returns the current framing.
func (f *FFT) Config() Config {
	return Config{FrameSize: f.fr.size, Overlaps: f.fr.overlaps, Window: f.fr.kind}
}

// Channels returns the number of analysed input channels.
func (f *FFT) Channels() int { return f.fader.Len() }

// HopOffsets returns the start delay of every helper in samples.
func (f *FFT) HopOffsets() []int {
	hops := make([]int, len(f.analyzers))
	for i, a := range f.analyzers {
		hops[i] = a.hop
	}

	return hops
}

// SetSize changes the frame size. Every helper's hop offset is recomputed
// from its overlap index and its frame restarts empty.
func (f *FFT) SetSize(frameSize int) error {
	if err := f.fr.resize(frameSize); err != nil {
		return fmt.Errorf("fft: %w", err)
	}

	for i, a := range f.analyzers {
		a.reset(hopOffset(f.fr.size, f.fr.overlaps, i, len(f.analyzers)))
	}

	f.SetSpectralFormat(f.fr.format())

	return nil
}

// SetWindow changes the analysis window.
func (f *FFT) SetWindow(kind window.Type) error {
	if err := f.fr.setWindow(kind); err != nil {
		return fmt.Errorf("fft: %w", err)
	}

	return nil
}

// SetInput crossfades the analysed signal to in over fadeSeconds.
func (f *FFT) SetInput(in graph.Stream, fadeSeconds float64) error {
	if err := f.fader.SetInput(in, fadeSeconds); err != nil {
		return fmt.Errorf("fft: %w", err)
	}

	return nil
}
