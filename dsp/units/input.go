package units

import (
	"github.com/cwbudde/algo-graph/dsp/core"
	"github.com/cwbudde/algo-graph/dsp/graph"
)

// InputArgs configures Input.
type InputArgs struct {
	// Channel is the hardware input channel read by each slot, as a
	// scalar. Default 0.
	Channel  []int
	Mul, Add graph.Param
}

type inputKernel struct {
	channel int
}

func (k *inputKernel) Process(b *graph.Block, out []float64) {
	if in := b.Input(k.channel); in != nil {
		copy(out, in)
		return
	}

	core.Zero(out)
}

// Input reads hardware input channels. Missing channels read as silence.
func Input(e *graph.Engine, a InputArgs) (*graph.Node, error) {
	chans := a.Channel
	if len(chans) == 0 {
		chans = []int{0}
	}

	return e.Build(graph.Spec{
		Kind:   graph.KindInput,
		Mul:    a.Mul,
		Add:    a.Add,
		Length: longest(len(chans), a.Mul, a.Add),
		Kernel: func(i int) (graph.Kernel, error) {
			return &inputKernel{channel: graph.Wrap(chans, i)}, nil
		},
	})
}
