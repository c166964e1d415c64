package graph

import "fmt"

// Stream is anything that exposes an ordered list of slots: a *Node, a
// *View over one, or a single *Slot.
type Stream interface {
	Slots() []*Slot
}

// Elem is one broadcast position of a Param: either a scalar Value or a
// Stream. A Stream element is atomic; it is never expanded slot by slot.
type Elem struct {
	Value  float64
	Stream Stream
}

// IsStream reports whether e references a stream.
func (e Elem) IsStream() bool {
	return e.Stream != nil
}

// Slot returns the slot that feeds this element into a single broadcast
// position. For a stream element that is its slot 0; any further channels of
// a multi-channel stream are ignored. Scalar elements return nil.
func (e Elem) Slot() *Slot {
	if e.Stream == nil {
		return nil
	}

	if s, ok := e.Stream.(*Slot); ok {
		return s
	}

	slots := e.Stream.Slots()
	if len(slots) == 0 {
		return nil
	}

	return slots[0]
}

// Param is a parameter sequence. A bare scalar is a sequence of length one.
type Param []Elem

// Const returns a single scalar parameter.
func Const(v float64) Param {
	return Param{{Value: v}}
}

// List returns a scalar sequence parameter.
func List(values ...float64) Param {
	p := make(Param, len(values))
	for i, v := range values {
		p[i] = Elem{Value: v}
	}

	return p
}

// Ref returns a parameter holding s as one atomic element.
func Ref(s Stream) Param {
	return Param{{Stream: s}}
}

// Each returns a parameter with one element per slot of s, so that s is
// paired with another sequence slot by slot.
func Each(s Stream) Param {
	slots := s.Slots()

	p := make(Param, len(slots))
	for i, sl := range slots {
		p[i] = Elem{Stream: sl}
	}

	return p
}

// Seq concatenates parameters into one sequence.
func Seq(parts ...Param) Param {
	n := 0
	for _, p := range parts {
		n += len(p)
	}

	out := make(Param, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// Or returns p, or def when p is empty. Constructors use it for optional
// arguments.
func (p Param) Or(def Param) Param {
	if len(p) == 0 {
		return def
	}

	return p
}

// Normalize aligns parameter sequences and returns them together with the
// broadcast length, the maximum of their lengths. Zero arguments or any
// empty sequence is a configuration error.
func Normalize(args ...Param) ([]Param, int, error) {
	if len(args) == 0 {
		return nil, 0, fmt.Errorf("%w: no parameters to broadcast", ErrConfiguration)
	}

	n := 0

	for i, p := range args {
		if len(p) == 0 {
			return nil, 0, fmt.Errorf("%w: parameter %d is an empty sequence", ErrConfiguration, i)
		}

		n = max(n, len(p))
	}

	return args, n, nil
}

// Resolve returns the element at broadcast position i, wrapping with
// modulo. A stream element is collapsed to its slot 0.
func Resolve(p Param, i int) Elem {
	el := Wrap(p, i)
	if el.Stream != nil {
		if s := el.Slot(); s != nil {
			return Elem{Stream: s}
		}
	}

	return el
}

// Wrap returns seq[i mod len(seq)]. It panics on an empty sequence, which
// Normalize rules out at construction.
func Wrap[T any](seq []T, i int) T {
	n := len(seq)

	return seq[((i%n)+n)%n]
}

// owners returns the distinct nodes that own the slots referenced by p.
func (p Param) owners() []*Node {
	var out []*Node

	seen := map[*Node]struct{}{}

	for _, el := range p {
		if el.Stream == nil {
			continue
		}

		for _, s := range el.Stream.Slots() {
			if s.owner == nil {
				continue
			}

			if _, ok := seen[s.owner]; ok {
				continue
			}

			seen[s.owner] = struct{}{}
			out = append(out, s.owner)
		}
	}

	return out
}
