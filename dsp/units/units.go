package units

import (
	"fmt"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

// input resolves broadcast position i of p into a kernel input.
func input(e *graph.Engine, p graph.Param, i int) *graph.Input {
	return e.NewInput(graph.Resolve(p, i))
}

// streamInput expands a required audio input slot by slot.
func streamInput(kind graph.Kind, s graph.Stream) (graph.Param, error) {
	if s == nil || len(s.Slots()) == 0 {
		return nil, fmt.Errorf("%s: %w: missing input stream", kind, graph.ErrConfiguration)
	}

	return graph.Each(s), nil
}

// setInput stores in into *dst when name matches one of the kernel's
// parameter names.
func setInput(name string, in *graph.Input, params map[string]**graph.Input) error {
	dst, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q", graph.ErrConfiguration, name)
	}

	*dst = in

	return nil
}

// longest returns the length of the longest sequence, at least min.
func longest(minimum int, params ...graph.Param) int {
	n := minimum
	for _, p := range params {
		n = max(n, len(p))
	}

	return n
}
