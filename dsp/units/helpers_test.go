package units

import (
	"testing"

	"github.com/cwbudde/algo-graph/dsp/core"
	"github.com/cwbudde/algo-graph/dsp/graph"
)

func newEngine(t *testing.T, opts ...core.ProcessorOption) *graph.Engine {
	t.Helper()

	cfg := core.ApplyProcessorOptions(append([]core.ProcessorOption{
		core.WithBlockSize(8),
		core.WithSampleRate(1000),
	}, opts...)...)

	e, err := graph.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	return e
}

// render processes blocks buffers and returns the concatenated output of
// every slot of s.
func render(e *graph.Engine, s graph.Stream, in [][]float64, blocks int) [][]float64 {
	slots := s.Slots()
	got := make([][]float64, len(slots))

	out := make([][]float64, e.Channels())
	for i := range out {
		out[i] = make([]float64, e.BlockSize())
	}

	for range blocks {
		e.Process(in, out)

		for i, sl := range slots {
			got[i] = append(got[i], sl.Buffer()...)
		}
	}

	return got
}

// mustNode fails t on a construction error: mustNode(t)(Sine(e, args)).
func mustNode(t *testing.T) func(*graph.Node, error) *graph.Node {
	t.Helper()

	return func(n *graph.Node, err error) *graph.Node {
		t.Helper()

		if err != nil {
			t.Fatalf("build: %v", err)
		}

		return n
	}
}
