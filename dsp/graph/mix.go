package graph

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-graph/dsp/core"
)

type mixKernel struct {
	ins []*Input
}

func (k *mixKernel) Process(b *Block, out []float64) {
	core.Zero(out)

	for _, in := range k.ins {
		vecmath.AddBlockInPlace(out, in.Read(b))
	}
}

// Mix folds the slots of s into clamp(voices, 1, len(s)) slots. Input slot
// i is summed into output slot i mod voices. The result is a new node that
// starts armed.
func Mix(s Stream, voices int) (*Node, error) {
	slots := s.Slots()
	if len(slots) == 0 || slots[0].owner == nil {
		return nil, fmt.Errorf("mix: %w: stream has no slots", ErrConfiguration)
	}

	e := slots[0].owner.engine
	voices = core.ClampInt(voices, 1, len(slots))

	groups := make([][]*Slot, voices)
	for i, sl := range slots {
		groups[i%voices] = append(groups[i%voices], sl)
	}

	return e.Build(Spec{
		Kind:   KindMix,
		Length: voices,
		Inputs: []Stream{s},
		Armed:  true,
		Kernel: func(i int) (Kernel, error) {
			k := &mixKernel{ins: make([]*Input, len(groups[i]))}
			for j, sl := range groups[i] {
				k.ins[j] = &Input{slot: sl}
			}

			return k, nil
		},
	})
}

// Mix folds n into voices slots; see Mix.
func (n *Node) Mix(voices int) (*Node, error) {
	if n.destroyed {
		return nil, fmt.Errorf("mix %s: %w", n.kind, ErrClosed)
	}

	return Mix(n, voices)
}
