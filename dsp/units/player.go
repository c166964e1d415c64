package units

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/interp"
)

// PlayerArgs configures Player.
type PlayerArgs struct {
	// Tables hold one channel each. The node has one slot per table unless
	// a parameter broadcasts further, in which case tables wrap.
	Tables [][]float64
	// SampleRate is the rate the tables were recorded at. Zero means the
	// engine rate.
	SampleRate float64
	// Speed is the playback rate factor. Default 1.
	Speed graph.Param
	// Loop restarts playback at the end of the table.
	Loop bool
	// Interp selects the read interpolation. The zero value reads the
	// nearest lower sample.
	Interp   interp.Mode
	Mul, Add graph.Param
}

type playerKernel struct {
	table []float64
	speed *graph.Input
	ratio float64
	loop  bool
	mode  interp.Mode
	pos   float64
	ended bool
}

func (k *playerKernel) Process(b *graph.Block, out []float64) {
	speed := k.speed.Read(b)
	n := float64(len(k.table))

	for i := range out {
		if k.ended || n == 0 {
			out[i] = 0
			continue
		}

		if k.loop {
			k.pos -= n * math.Floor(k.pos/n)
		} else if k.pos < 0 || k.pos > n-1 {
			k.ended = true
			out[i] = 0

			continue
		}

		out[i] = interp.Table(k.table, k.pos, k.mode)
		k.pos += speed[i] * k.ratio
	}
}

func (k *playerKernel) Start() {
	k.pos = 0
	k.ended = false
}

func (k *playerKernel) SetParameter(name string, in *graph.Input) error {
	return setInput(name, in, map[string]**graph.Input{"speed": &k.speed})
}

// Player streams sample tables. Without Loop a slot outputs silence once
// its table is exhausted; playing it again restarts from the beginning.
func Player(e *graph.Engine, a PlayerArgs) (*graph.Node, error) {
	if len(a.Tables) == 0 {
		return nil, fmt.Errorf("%s: %w: no tables", graph.KindPlayer, graph.ErrConfiguration)
	}

	if a.SampleRate < 0 {
		return nil, fmt.Errorf("%s: %w: negative sample rate %g", graph.KindPlayer, graph.ErrConfiguration, a.SampleRate)
	}

	rate := a.SampleRate
	if rate == 0 {
		rate = e.SampleRate()
	}

	speed := a.Speed.Or(graph.Const(1))

	return e.Build(graph.Spec{
		Kind:   graph.KindPlayer,
		Params: []graph.Param{speed},
		Mul:    a.Mul,
		Add:    a.Add,
		Length: longest(len(a.Tables), speed, a.Mul, a.Add),
		Kernel: func(i int) (graph.Kernel, error) {
			return &playerKernel{
				table: graph.Wrap(a.Tables, i),
				speed: input(e, speed, i),
				ratio: rate / e.SampleRate(),
				loop:  a.Loop,
				mode:  a.Interp,
			}, nil
		},
	})
}
