package graph

import (
	"fmt"
	"slices"
)

// Spec describes a node to Build.
type Spec struct {
	Kind Kind
	// Params are the broadcast arguments; the node gets one slot per
	// broadcast position. Stream elements are retained as inputs.
	Params []Param
	// Mul and Add are the multiplicative and additive control inputs,
	// broadcast with Params. Empty means 1 and 0.
	Mul, Add Param
	// Length overrides the broadcast length when > 0. Params then only
	// wrap over the fixed slot count.
	Length int
	// Kernel builds the kernel of slot i.
	Kernel func(i int) (Kernel, error)
	// Helpers are internal nodes the new node takes ownership of. They are
	// destroyed if Build fails.
	Helpers []*Node
	// Inputs are streams read by the node that are not part of Params.
	Inputs []Stream
	// Armed starts the slots armed instead of idle. Composite nodes use it
	// so they compute whenever their operands do.
	Armed bool
}

// Node is an ordered, append-only collection of slots representing one
// declared signal-processing unit, plus the helper nodes it owns.
//
// Node is not safe for concurrent use; see Engine.Edit.
type Node struct {
	engine *Engine
	handle Handle
	kind   Kind

	slots   []*Slot
	helpers []*Node
	parent  *Node

	// refs are upstream nodes this node reads, keyed by the argument that
	// introduced them so replaced arguments release their references.
	refs map[string][]*Node
	// trace keeps composites derived from this node tied to its lifetime.
	trace []*Node
	// readers counts nodes that hold a reference to this node.
	readers int

	rules     map[string]Selection
	addresses []string
	views     map[string]*View
	format    *SpectralFormat

	cleanups  []func()
	closing   bool
	destroyed bool
}

// Build constructs a node from spec and registers it in the arena. On error
// nothing is registered and spec.Helpers are destroyed.
func (e *Engine) Build(spec Spec) (*Node, error) {
	n, err := e.build(spec)
	if err != nil {
		for i := len(spec.Helpers) - 1; i >= 0; i-- {
			spec.Helpers[i].destroy()
		}

		return nil, fmt.Errorf("build %s: %w", spec.Kind, err)
	}

	return n, nil
}

func (e *Engine) build(spec Spec) (*Node, error) {
	if spec.Kernel == nil {
		return nil, fmt.Errorf("%w: missing kernel constructor", ErrConfiguration)
	}

	args := slices.Clone(spec.Params)
	if len(spec.Mul) > 0 {
		args = append(args, spec.Mul)
	}

	if len(spec.Add) > 0 {
		args = append(args, spec.Add)
	}

	length := spec.Length
	if len(args) > 0 {
		_, broadcast, err := Normalize(args...)
		if err != nil {
			return nil, err
		}

		if length <= 0 {
			length = broadcast
		}
	}

	if length <= 0 {
		return nil, fmt.Errorf("%w: node needs at least one slot", ErrConfiguration)
	}

	for _, h := range spec.Helpers {
		if h.parent != nil || h.destroyed {
			return nil, fmt.Errorf("%w: helper %s already owned", ErrConfiguration, h.kind)
		}
	}

	n := &Node{
		engine: e,
		kind:   spec.Kind,
		refs:   make(map[string][]*Node),
	}

	n.slots = make([]*Slot, length)
	for i := range length {
		k, err := spec.Kernel(i)
		if err != nil {
			return nil, err
		}

		if k == nil {
			return nil, fmt.Errorf("%w: nil kernel for slot %d", ErrConfiguration, i)
		}

		s := newSlot(n, i, k, e.cfg.BlockSize)
		if len(spec.Mul) > 0 {
			s.mul = e.NewInput(Resolve(spec.Mul, i))
		}

		if len(spec.Add) > 0 {
			s.add = e.NewInput(Resolve(spec.Add, i))
		}

		if spec.Armed {
			s.state = StateArmed
		}

		n.slots[i] = s
	}

	for _, h := range spec.Helpers {
		h.parent = n
	}

	n.helpers = spec.Helpers

	var upstream []*Node
	for _, p := range spec.Params {
		upstream = append(upstream, p.owners()...)
	}

	for _, s := range spec.Inputs {
		upstream = append(upstream, Ref(s).owners()...)
	}

	n.retain("inputs", upstream)
	n.retain("control:mul", spec.Mul.owners())
	n.retain("control:add", spec.Add.owners())
	e.register(n)

	e.log.Debug("node built", "kind", n.kind, "handle", n.handle, "slots", len(n.slots), "helpers", len(n.helpers))

	return n, nil
}

// Engine returns the engine the node lives in.
func (n *Node) Engine() *Engine { return n.engine }

// Handle returns the node's arena handle.
func (n *Node) Handle() Handle { return n.handle }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Len returns the number of slots.
func (n *Node) Len() int { return len(n.slots) }

// Slots returns a copy of the node's slot list.
func (n *Node) Slots() []*Slot { return slices.Clone(n.slots) }

// Helpers returns the internal nodes owned by n.
func (n *Node) Helpers() []*Node { return slices.Clone(n.helpers) }

// Parent returns the node owning n as a helper, or nil.
func (n *Node) Parent() *Node { return n.parent }

// Readers returns the number of nodes holding a reference to n.
func (n *Node) Readers() int { return n.readers }

// Closed reports whether n has been destroyed.
func (n *Node) Closed() bool { return n.destroyed }

// Index returns slot i.
func (n *Node) Index(i int) (*Slot, error) {
	if i < 0 || i >= len(n.slots) {
		return nil, fmt.Errorf("%w: slot %d of %s with %d slots", ErrBounds, i, n.kind, len(n.slots))
	}

	return n.slots[i], nil
}

// Play arms every slot: they are computed each buffer but not routed to
// hardware. It is idempotent and returns n.
func (n *Node) Play() *Node {
	for _, h := range n.helpers {
		h.Play()
	}

	for _, s := range n.slots {
		s.start(StateArmed)
		s.channel = -1
	}

	return n
}

// Out activates every slot and binds slot i to hardware channel
// channelOffset + i*channelIncrement, wrapped by the engine channel count.
// A negative channelOffset assigns channels from 0 and randomly permutes
// which slot lands on which channel.
func (n *Node) Out(channelOffset, channelIncrement int) *Node {
	for _, h := range n.helpers {
		h.Play()
	}

	chans := n.engine.cfg.Channels

	var perm []int
	if channelOffset < 0 {
		perm = n.engine.rng.Perm(len(n.slots))
		channelOffset = 0
	}

	for i, s := range n.slots {
		pos := i
		if perm != nil {
			pos = perm[i]
		}

		s.start(StateActive)

		if !s.destroyed {
			s.channel = mod(channelOffset+pos*channelIncrement, chans)
		}
	}

	return n
}

// Stop idles every slot at the next buffer boundary, or starts the release
// phase of envelope kernels. It returns n.
func (n *Node) Stop() *Node {
	for _, s := range n.slots {
		s.stop()
	}

	for _, h := range n.helpers {
		h.Stop()
	}

	return n
}

// Set re-broadcasts parameter name over the node's slots. "mul" and "add"
// address the control inputs; other names go to the kernels.
func (n *Node) Set(name string, p Param) error {
	switch name {
	case "mul":
		_, err := n.ScaleInPlace(p)
		return err
	case "add":
		_, err := n.AddInPlace(p)
		return err
	}

	if n.destroyed {
		return ErrClosed
	}

	if _, _, err := Normalize(p); err != nil {
		return fmt.Errorf("set %s.%s: %w", n.kind, name, err)
	}

	for i, s := range n.slots {
		setter, ok := s.kernel.(ParameterSetter)
		if !ok {
			return fmt.Errorf("%w: %s has no parameter %q", ErrConfiguration, n.kind, name)
		}

		if err := setter.SetParameter(name, n.engine.NewInput(Resolve(p, i))); err != nil {
			return fmt.Errorf("set %s.%s: %w", n.kind, name, err)
		}
	}

	n.retain("param:"+name, p.owners())

	return nil
}

// OnDestroy registers fn to run when n is destroyed, after its slots and
// helpers are torn down and before upstream references are released.
func (n *Node) OnDestroy(fn func()) {
	n.cleanups = append(n.cleanups, fn)
}

// Close destroys n once no other node reads it. Composites derived from n
// are closed first. Slots and helpers are torn down in reverse construction
// order before upstream references are released.
func (n *Node) Close() {
	if n.closing || n.destroyed {
		return
	}

	n.closing = true

	for i := len(n.trace) - 1; i >= 0; i-- {
		n.trace[i].Close()
	}

	n.trace = nil

	if n.readers <= 0 {
		n.destroy()
	}
}

func (n *Node) destroy() {
	if n.destroyed {
		return
	}

	n.destroyed = true
	n.closing = true

	for i := len(n.slots) - 1; i >= 0; i-- {
		n.slots[i].destroy()
	}

	for i := len(n.helpers) - 1; i >= 0; i-- {
		n.helpers[i].destroy()
	}

	for i := len(n.cleanups) - 1; i >= 0; i-- {
		n.cleanups[i]()
	}

	keys := make([]string, 0, len(n.refs))
	for k := range n.refs {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		n.release(k)
	}

	n.engine.forget(n)
	n.engine.log.Debug("node destroyed", "kind", n.kind, "handle", n.handle)
}

// retain replaces the references held under key with upstream.
func (n *Node) retain(key string, upstream []*Node) {
	var kept []*Node

	for _, u := range upstream {
		if u == n || u.destroyed || slices.Contains(kept, u) {
			continue
		}

		u.readers++
		kept = append(kept, u)
	}

	n.release(key)

	if len(kept) > 0 {
		n.refs[key] = kept
	}
}

func (n *Node) release(key string) {
	old := n.refs[key]
	delete(n.refs, key)

	for i := len(old) - 1; i >= 0; i-- {
		u := old[i]

		u.readers--
		if u.readers <= 0 && u.closing {
			u.destroy()
		}
	}
}

func (n *Node) addTrace(derived *Node) {
	n.trace = append(n.trace, derived)
}

func mod(a, m int) int {
	if m <= 0 {
		return 0
	}

	return ((a % m) + m) % m
}
