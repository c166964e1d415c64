package spectral

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-graph/dsp/core"
	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/window"
)

// framing holds the state every helper of one FFT or IFFT shares.
type framing struct {
	size     int
	overlaps int
	kind     window.Type
	window   []float64
	plan     *algofft.Plan[complex128]
}

func newFraming(cfg Config) (*framing, error) {
	f := &framing{overlaps: cfg.Overlaps, kind: cfg.Window}
	if err := f.resize(cfg.FrameSize); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *framing) resize(size int) error {
	if err := validateSize(size, f.overlaps); err != nil {
		return err
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("spectral: plan of size %d: %w", size, err)
	}

	f.size = size
	f.plan = plan
	f.window = window.Generate(f.kind, size, window.WithPeriodic())

	return nil
}

func (f *framing) setWindow(kind window.Type) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown window %s", graph.ErrConfiguration, kind)
	}

	f.kind = kind
	f.window = window.Generate(kind, f.size, window.WithPeriodic())

	return nil
}

func (f *framing) format() graph.SpectralFormat {
	return graph.SpectralFormat{FrameSize: f.size, Overlaps: f.overlaps}
}

// position returns the frame position of engine sample t for a helper
// delayed by hop, or false before the helper's first frame.
func position(t int64, hop, size int) (int, bool) {
	pos := t - int64(hop)
	if pos < 0 {
		return 0, false
	}

	return int(pos % int64(size)), true
}

// analyzer collects one frame of input and streams the spectrum of the
// previous frame, one bin per sample. Its slot outputs the real part; imag
// and bin are read by the FFT node's slots after the analyzer has run.
type analyzer struct {
	fr  *framing
	in  *graph.Input
	hop int

	inframe  []float64
	windowed []float64
	spectrum []complex128

	imag, bin []float64
}

func newAnalyzer(fr *framing, in *graph.Input, hop, blockSize int) *analyzer {
	a := &analyzer{
		fr:   fr,
		in:   in,
		imag: make([]float64, blockSize),
		bin:  make([]float64, blockSize),
	}
	a.reset(hop)

	return a
}

func (a *analyzer) reset(hop int) {
	n := a.fr.size
	a.hop = hop
	a.inframe = make([]float64, n)
	a.windowed = make([]float64, n)
	a.spectrum = make([]complex128, n)
}

func (a *analyzer) Process(b *graph.Block, out []float64) {
	x := a.in.Read(b)
	size := a.fr.size
	half := size / 2

	for i := range out {
		c, ok := position(b.Time+int64(i), a.hop, size)
		if !ok {
			out[i], a.imag[i], a.bin[i] = 0, 0, 0
			continue
		}

		a.inframe[c] = x[i]

		switch {
		case c < half:
			out[i] = real(a.spectrum[c])
			a.imag[i] = imag(a.spectrum[c])
		case c == half:
			out[i] = real(a.spectrum[c])
			a.imag[i] = 0
		default:
			out[i], a.imag[i] = 0, 0
		}

		a.bin[i] = float64(c)

		if c == size-1 {
			a.analyze()
		}
	}
}

func (a *analyzer) analyze() {
	vecmath.MulBlock(a.windowed, a.inframe, a.fr.window)

	for i, v := range a.windowed {
		a.spectrum[i] = complex(v, 0)
	}

	// Sizes are fixed by the plan; a failing transform streams a silent frame.
	if err := a.fr.plan.Forward(a.spectrum, a.spectrum); err != nil {
		clear(a.spectrum)
	}

	a.spectrum[0] = complex(real(a.spectrum[0]), 0)
}

// synthesizer collects the bins of one frame and streams the windowed
// inverse transform of the previous frame.
type synthesizer struct {
	fr     *framing
	re, im *graph.Input
	hop    int

	spectrum []complex128
	frame    []complex128
	outframe []float64
}

func newSynthesizer(fr *framing, re, im *graph.Input, hop int) *synthesizer {
	s := &synthesizer{fr: fr, re: re, im: im}
	s.reset(hop)

	return s
}

func (s *synthesizer) reset(hop int) {
	n := s.fr.size
	s.hop = hop
	s.spectrum = make([]complex128, n)
	s.frame = make([]complex128, n)
	s.outframe = make([]float64, n)
}

func (s *synthesizer) Process(b *graph.Block, out []float64) {
	re := s.re.Read(b)
	im := s.im.Read(b)
	size := s.fr.size
	half := size / 2

	for i := range out {
		c, ok := position(b.Time+int64(i), s.hop, size)
		if !ok {
			out[i] = 0
			continue
		}

		out[i] = s.outframe[c] * s.fr.window[c]

		switch {
		case c == 0 || c == half:
			s.spectrum[c] = complex(re[i], 0)
		case c < half:
			s.spectrum[c] = complex(re[i], im[i])
		}

		if c == size-1 {
			s.synthesize()
		}
	}
}

func (s *synthesizer) synthesize() {
	size := s.fr.size
	half := size / 2

	for k := 1; k < half; k++ {
		v := s.spectrum[k]
		s.spectrum[size-k] = complex(real(v), -imag(v))
	}

	if err := s.fr.plan.Inverse(s.frame, s.spectrum); err != nil {
		core.Zero(s.outframe)
		return
	}

	for i, v := range s.frame {
		s.outframe[i] = real(v)
	}
}
