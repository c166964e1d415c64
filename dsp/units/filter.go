package units

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/filter/biquad"
	"github.com/cwbudde/algo-graph/dsp/filter/design"
	"github.com/cwbudde/algo-graph/dsp/graph"
)

// BiquadArgs configures Biquad.
type BiquadArgs struct {
	// Input is filtered slot by slot.
	Input graph.Stream
	// Freq is the cutoff or centre frequency in Hz. Default 1000.
	Freq graph.Param
	// Q is the quality factor. Default 1.
	Q graph.Param
	// Type selects the response. The zero value is a lowpass.
	Type     design.Type
	Mul, Add graph.Param
}

// biquadKernel filters its input and redesigns its coefficients once per
// buffer when the control-rate frequency or q change.
type biquadKernel struct {
	in, freq, q *graph.Input
	typ         design.Type
	sampleRate  float64
	section     *biquad.Section

	lastFreq, lastQ float64
}

func newBiquadKernel(in, freq, q *graph.Input, typ design.Type, sampleRate float64) *biquadKernel {
	return &biquadKernel{
		in:         in,
		freq:       freq,
		q:          q,
		typ:        typ,
		sampleRate: sampleRate,
		section:    biquad.NewSection(biquad.Coefficients{B0: 1}),
		lastFreq:   math.NaN(),
		lastQ:      math.NaN(),
	}
}

func (k *biquadKernel) Process(b *graph.Block, out []float64) {
	f, q := k.freq.Value(b), k.q.Value(b)
	if f != k.lastFreq || q != k.lastQ {
		k.section.SetCoefficients(design.ByType(k.typ, f, q, k.sampleRate))
		k.lastFreq, k.lastQ = f, q
	}

	k.section.ProcessBlockTo(out, k.in.Read(b))
}

func (k *biquadKernel) Start() {
	k.section.Reset()
}

func (k *biquadKernel) SetParameter(name string, in *graph.Input) error {
	switch name {
	case "type":
		if !in.IsConstant() {
			return fmt.Errorf("%w: filter type must be a constant", graph.ErrConfiguration)
		}

		k.typ = design.Type(in.Value(nil))
		k.lastFreq = math.NaN()

		return nil
	default:
		return setInput(name, in, map[string]**graph.Input{"freq": &k.freq, "q": &k.q})
	}
}

// Biquad returns a second-order filter applied to every slot of Input.
// Frequency and q are read once per buffer.
func Biquad(e *graph.Engine, a BiquadArgs) (*graph.Node, error) {
	in, err := streamInput(graph.KindBiquad, a.Input)
	if err != nil {
		return nil, err
	}

	freq := a.Freq.Or(graph.Const(1000))
	q := a.Q.Or(graph.Const(1))

	return e.Build(graph.Spec{
		Kind:   graph.KindBiquad,
		Params: []graph.Param{in, freq, q},
		Mul:    a.Mul,
		Add:    a.Add,
		Kernel: func(i int) (graph.Kernel, error) {
			return newBiquadKernel(input(e, in, i), input(e, freq, i), input(e, q, i), a.Type, e.SampleRate()), nil
		},
	})
}

// BandSplitArgs configures BandSplit.
type BandSplitArgs struct {
	// Input is split slot by slot.
	Input graph.Stream
	// Num is the number of bands. Default 6.
	Num int
	// Min and Max bound the band centre frequencies in Hz. Defaults 70
	// and 7000.
	Min, Max float64
	// Q is the quality factor, wrapped by band. Default 1.
	Q        graph.Param
	Mul, Add graph.Param
}

// BandCenters returns num centre frequencies spaced geometrically from
// lo to hi inclusive.
func BandCenters(num int, lo, hi float64) []float64 {
	out := make([]float64, num)
	if num == 1 {
		out[0] = math.Sqrt(lo * hi)
		return out
	}

	ratio := hi / lo
	for i := range out {
		out[i] = lo * math.Pow(ratio, float64(i)/float64(num-1))
	}

	return out
}

// BandSplit splits every input slot into Num bandpass bands. Output slot
// ch*Num+band carries band of input slot ch; Q, Mul and Add are indexed by
// output slot and wrap.
func BandSplit(e *graph.Engine, a BandSplitArgs) (*graph.Node, error) {
	in, err := streamInput(graph.KindBandSplit, a.Input)
	if err != nil {
		return nil, err
	}

	num := a.Num
	if num == 0 {
		num = 6
	}

	lo, hi := a.Min, a.Max
	if lo == 0 {
		lo = 70
	}

	if hi == 0 {
		hi = 7000
	}

	nyquist := e.SampleRate() / 2

	switch {
	case num < 0:
		return nil, fmt.Errorf("%s: %w: %d bands", graph.KindBandSplit, graph.ErrConfiguration, num)
	case lo <= 0 || hi <= lo || hi >= nyquist:
		return nil, fmt.Errorf("%s: %w: band range [%g, %g] Hz outside (0, %g)", graph.KindBandSplit, graph.ErrConfiguration, lo, hi, nyquist)
	}

	q := a.Q.Or(graph.Const(1))
	centers := BandCenters(num, lo, hi)

	return e.Build(graph.Spec{
		Kind:   graph.KindBandSplit,
		Params: []graph.Param{in, q},
		Mul:    a.Mul,
		Add:    a.Add,
		Length: len(in) * num,
		Kernel: func(i int) (graph.Kernel, error) {
			ch, band := i/num, i%num
			k := newBiquadKernel(input(e, in, ch), input(e, q, i), input(e, q, i), design.TypeBandpass, e.SampleRate())
			k.freq = e.NewConstInput(centers[band])

			return k, nil
		},
	})
}
