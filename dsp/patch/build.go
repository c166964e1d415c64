package patch

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/units"
)

// Graph is a built patch: its nodes by id in build order.
type Graph struct {
	nodes map[string]*graph.Node
	order []string
}

// Build constructs every node of p in e using reg, then plays or routes
// them as the patch asks. On error every node built so far is closed.
func Build(e *graph.Engine, p *Patch, reg *units.Registry) (*Graph, error) {
	order, err := p.Order()
	if err != nil {
		return nil, err
	}

	defs := make(map[string]Node, len(p.Nodes))
	for _, n := range p.Nodes {
		defs[n.ID] = n
	}

	g := &Graph{nodes: make(map[string]*graph.Node, len(order))}

	err = e.Edit(func() error {
		for _, id := range order {
			if err := g.build(e, defs[id], reg); err != nil {
				return fmt.Errorf("node %q: %w", id, err)
			}
		}

		return nil
	})
	if err != nil {
		g.Close()
		return nil, err
	}

	e.Logger().Debug("patch built", "nodes", len(g.order))

	return g, nil
}

func (g *Graph) build(e *graph.Engine, def Node, reg *units.Registry) error {
	kind, err := graph.ParseKind(def.Kind)
	if err != nil {
		return err
	}

	args := units.Args{
		Params:  make(map[string]graph.Param, len(def.Params)),
		Streams: make(map[string]graph.Stream),
		Str:     def.Options,
		Names:   def.Addresses,
	}

	for name, v := range def.Params {
		p, s, err := g.resolve(v)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}

		args.Params[name] = p
		if s != nil {
			args.Streams[name] = s
		}
	}

	n, err := reg.Build(e, kind, args)
	if err != nil {
		return err
	}

	g.nodes[def.ID] = n
	g.order = append(g.order, def.ID)

	switch {
	case len(def.Out) > 0:
		inc := 1
		if len(def.Out) == 2 {
			inc = def.Out[1]
		}

		n.Out(def.Out[0], inc)
	case def.Play:
		n.Play()
	}

	return nil
}

// resolve converts a patch value to a parameter. References expand slot by
// slot; a value that is a single reference also returns its stream.
func (g *Graph) resolve(v Value) (graph.Param, graph.Stream, error) {
	var (
		out    graph.Param
		single graph.Stream
	)

	for _, it := range v {
		if !it.IsRef() {
			out = append(out, graph.Elem{Value: it.Num})
			continue
		}

		s, err := g.lookup(it.Ref)
		if err != nil {
			return nil, nil, err
		}

		if len(v) == 1 {
			single = s
		}

		out = append(out, graph.Each(s)...)
	}

	return out, single, nil
}

// lookup resolves "id", "id.view" or "id.N".
func (g *Graph) lookup(ref string) (graph.Stream, error) {
	id, rest, dotted := strings.Cut(ref, ".")

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown node %q", ErrInvalid, id)
	}

	if !dotted {
		return n, nil
	}

	if i, err := strconv.Atoi(rest); err == nil {
		return n.Index(i)
	}

	return n.View(rest)
}

// Node returns the node built for id.
func (g *Graph) Node(id string) (*graph.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Order returns the node ids in build order.
func (g *Graph) Order() []string {
	return slices.Clone(g.order)
}

// Close closes every node in reverse build order.
func (g *Graph) Close() {
	for i := len(g.order) - 1; i >= 0; i-- {
		g.nodes[g.order[i]].Close()
	}

	g.order = nil
}
