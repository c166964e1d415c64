package spectral

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

type polarKernel struct {
	re, im *graph.Input
	power  bool
}

func (k *polarKernel) Process(b *graph.Block, out []float64) {
	re := k.re.Read(b)
	im := k.im.Read(b)

	if k.power {
		vecmath.Power(out, re, im)
		return
	}

	vecmath.Magnitude(out, re, im)
}

// Magnitude returns a node streaming |X| for every streamed bin of real
// and imag. The result keeps their spectral format so it can feed an IFFT
// as a zero-phase spectrum.
func Magnitude(realIn, imagIn graph.Stream) (*graph.Node, error) {
	return polar(graph.KindMagnitude, realIn, imagIn)
}

// Power returns a node streaming |X|^2 for every streamed bin of real and
// imag.
func Power(realIn, imagIn graph.Stream) (*graph.Node, error) {
	return polar(graph.KindPower, realIn, imagIn)
}

func polar(kind graph.Kind, realIn, imagIn graph.Stream) (*graph.Node, error) {
	if realIn == nil || imagIn == nil || len(realIn.Slots()) == 0 || len(imagIn.Slots()) == 0 {
		return nil, fmt.Errorf("%s: %w: missing real or imag input", kind, graph.ErrConfiguration)
	}

	rf, rok := graph.FormatOf(realIn)
	imf, iok := graph.FormatOf(imagIn)

	if rok && iok && rf != imf {
		return nil, fmt.Errorf("%s: %w: real format %s does not match imag format %s", kind, graph.ErrConfiguration, rf, imf)
	}

	e := realIn.Slots()[0].Owner().Engine()
	reP, imP := graph.Each(realIn), graph.Each(imagIn)

	n, err := e.Build(graph.Spec{
		Kind:   kind,
		Params: []graph.Param{reP, imP},
		Armed:  true,
		Kernel: func(i int) (graph.Kernel, error) {
			return &polarKernel{
				re:    e.NewInput(graph.Resolve(reP, i)),
				im:    e.NewInput(graph.Resolve(imP, i)),
				power: kind == graph.KindPower,
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if rok {
		n.SetSpectralFormat(rf)
	}

	return n, nil
}
