package graph

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-graph/dsp/core"
)

// State is the lifecycle state of a Slot.
type State int

const (
	// StateIdle slots output silence and are not computed.
	StateIdle State = iota
	// StateArmed slots are computed every buffer but not routed to hardware.
	StateArmed
	// StateActive slots are computed and summed into their output channel.
	StateActive
	// StateReleasing slots run an envelope release before returning to idle.
	StateReleasing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateActive:
		return "active"
	case StateReleasing:
		return "releasing"
	default:
		return "invalid"
	}
}

// Block describes the buffer being computed.
type Block struct {
	// Tick increments once per Process call, starting at 1.
	Tick uint64
	// Time is the engine sample index of the first frame of the buffer.
	Time       int64
	Size       int
	SampleRate float64

	in [][]float64
}

// Input returns hardware input channel ch for the buffer, or nil if the
// driver did not supply it.
func (b *Block) Input(ch int) []float64 {
	if ch < 0 || ch >= len(b.in) {
		return nil
	}

	return b.in[ch]
}

// Kernel computes one mono stream. Process must fill out completely and must
// not fail or block.
type Kernel interface {
	Process(b *Block, out []float64)
}

// Starter is implemented by kernels that reset state when their slot leaves
// the idle state.
type Starter interface {
	Start()
}

// Releaser is implemented by envelope kernels. Stop calls Release instead of
// idling the slot; the slot returns to idle at the end of the first buffer
// after Released reports true.
type Releaser interface {
	Release()
	Released() bool
}

// ParameterSetter is implemented by kernels whose parameters can be changed
// after construction.
type ParameterSetter interface {
	SetParameter(name string, in *Input) error
}

// Destroyer is implemented by kernels that hold resources to free when their
// slot is destroyed.
type Destroyer interface {
	Destroy()
}

// Slot is one mono audio-rate computation unit, owned by exactly one Node.
type Slot struct {
	owner  *Node
	index  int
	kernel Kernel
	state  State
	// channel is the bound hardware channel, or -1.
	channel int

	buf, work []float64
	tick      uint64
	busy      bool

	mul, add       *Input
	divide, negate bool

	self      []*Slot
	destroyed bool
	warned    bool
}

func newSlot(owner *Node, index int, k Kernel, blockSize int) *Slot {
	s := &Slot{
		owner:   owner,
		index:   index,
		kernel:  k,
		channel: -1,
		buf:     make([]float64, blockSize),
		work:    make([]float64, blockSize),
	}
	s.self = []*Slot{s}

	return s
}

// Slots returns the slot itself, so a single Slot is usable as a Stream.
func (s *Slot) Slots() []*Slot {
	return s.self
}

// Owner returns the node that owns the slot.
func (s *Slot) Owner() *Node { return s.owner }

// Index returns the slot position within its owner.
func (s *Slot) Index() int { return s.index }

// Kernel returns the kernel computing the slot.
func (s *Slot) Kernel() Kernel { return s.kernel }

// State returns the lifecycle state.
func (s *Slot) State() State { return s.state }

// Channel returns the bound hardware channel, or -1 when unbound.
func (s *Slot) Channel() int { return s.channel }

// Destroyed reports whether the slot's owner has torn it down.
func (s *Slot) Destroyed() bool { return s.destroyed }

// Value returns the last sample of the most recently computed buffer.
func (s *Slot) Value() float64 {
	if len(s.buf) == 0 {
		return 0
	}

	return s.buf[len(s.buf)-1]
}

// Buffer returns the most recently computed buffer. It is read-only.
func (s *Slot) Buffer() []float64 {
	return s.buf
}

// Read returns the slot's output for buffer b, computing it on first use.
// A slot that is read while it is being computed (a feedback loop) returns
// its previous buffer, which delays the loop by one buffer.
func (s *Slot) Read(b *Block) []float64 {
	if s.tick == b.Tick || s.busy {
		return s.buf
	}

	s.busy = true
	out := s.work

	if s.state == StateIdle || s.destroyed {
		core.Zero(out)
	} else {
		s.kernel.Process(b, out)
		s.applyControls(b, out)
	}

	s.buf, s.work = out, s.buf
	s.tick = b.Tick
	s.busy = false

	return s.buf
}

func (s *Slot) applyControls(b *Block, out []float64) {
	if s.mul != nil && !s.mul.Is(1) {
		m := s.mul.Read(b)
		if s.divide {
			for i := range out {
				out[i] = safeDiv(out[i], m[i])
			}
		} else {
			mulInPlace(out, m)
		}
	}

	if s.add != nil && !s.add.Is(0) {
		a := s.add.Read(b)
		if s.negate {
			for i := range out {
				out[i] -= a[i]
			}
		} else {
			vecmath.AddBlockInPlace(out, a)
		}
	}
}

// start moves the slot out of idle or release into state.
func (s *Slot) start(state State) {
	if s.destroyed {
		return
	}

	if s.state == StateIdle || s.state == StateReleasing {
		if st, ok := s.kernel.(Starter); ok {
			st.Start()
		}
	}

	s.state = state
}

func (s *Slot) stop() {
	if s.destroyed {
		return
	}

	switch s.state {
	case StateArmed, StateActive:
		if r, ok := s.kernel.(Releaser); ok {
			r.Release()
			s.state = StateReleasing

			return
		}

		s.state = StateIdle
		s.channel = -1
	case StateIdle, StateReleasing:
	}
}

func (s *Slot) destroy() {
	if s.destroyed {
		return
	}

	s.destroyed = true
	s.state = StateIdle
	s.channel = -1

	if d, ok := s.kernel.(Destroyer); ok {
		d.Destroy()
	}

	core.Zero(s.buf)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}

	return a / b
}
