package units

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/delay"
	"github.com/cwbudde/algo-graph/dsp/graph"
)

// DelayArgs configures Delay.
type DelayArgs struct {
	// Input is delayed slot by slot.
	Input graph.Stream
	// Delay is the delay time in seconds, read every sample. Default 0.25.
	Delay graph.Param
	// Feedback is the amount of output fed back into the line. Default 0.
	Feedback graph.Param
	// MaxDelay is the longest delay in seconds. Default 1.
	MaxDelay float64
	Mul, Add graph.Param
}

type delayKernel struct {
	in, delay, feedback *graph.Input
	line                *delay.Line
	sampleRate          float64
}

func (k *delayKernel) Process(b *graph.Block, out []float64) {
	x := k.in.Read(b)
	d := k.delay.Read(b)
	fb := k.feedback.Read(b)

	for i := range out {
		y := k.line.ReadFractional(d[i] * k.sampleRate)
		k.line.Write(x[i] + y*fb[i])
		out[i] = y
	}
}

func (k *delayKernel) Start() {
	k.line.Reset()
}

func (k *delayKernel) SetParameter(name string, in *graph.Input) error {
	return setInput(name, in, map[string]**graph.Input{"delay": &k.delay, "feedback": &k.feedback})
}

// Delay returns a fractional feedback delay line. Delay times are clamped
// to between one sample and MaxDelay.
func Delay(e *graph.Engine, a DelayArgs) (*graph.Node, error) {
	in, err := streamInput(graph.KindDelay, a.Input)
	if err != nil {
		return nil, err
	}

	maxDelay := a.MaxDelay
	if maxDelay == 0 {
		maxDelay = 1
	}

	if maxDelay < 0 || math.IsNaN(maxDelay) || math.IsInf(maxDelay, 0) {
		return nil, fmt.Errorf("%s: %w: max delay %g", graph.KindDelay, graph.ErrConfiguration, maxDelay)
	}

	d := a.Delay.Or(graph.Const(0.25))
	fb := a.Feedback.Or(graph.Const(0))
	size := int(math.Ceil(maxDelay*e.SampleRate())) + 3

	return e.Build(graph.Spec{
		Kind:   graph.KindDelay,
		Params: []graph.Param{in, d, fb},
		Mul:    a.Mul,
		Add:    a.Add,
		Kernel: func(i int) (graph.Kernel, error) {
			line, err := delay.New(size)
			if err != nil {
				return nil, err
			}

			return &delayKernel{
				in:         input(e, in, i),
				delay:      input(e, d, i),
				feedback:   input(e, fb, i),
				line:       line,
				sampleRate: e.SampleRate(),
			}, nil
		},
	})
}
