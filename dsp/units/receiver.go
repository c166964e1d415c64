package units

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

// ReceiverArgs configures NewReceiver.
type ReceiverArgs struct {
	// Addresses name the values the receiver listens to. Each address
	// also names a view over its slots.
	Addresses []string
	// Init is the initial value, broadcast over the slots. Default 0.
	Init graph.Param
	// Port is a smoothing time constant in seconds. Zero jumps to new
	// values immediately.
	Port     float64
	Mul, Add graph.Param
}

// Receiver turns control messages into signals. Slot i listens to address
// i modulo the number of addresses.
type Receiver struct {
	*graph.Node

	addresses []string
	targets   []atomic.Uint64
}

type receiverKernel struct {
	target  *atomic.Uint64
	coeff   float64
	current float64
}

func (k *receiverKernel) Process(_ *graph.Block, out []float64) {
	target := math.Float64frombits(k.target.Load())

	for i := range out {
		k.current = target + k.coeff*(k.current-target)
		out[i] = k.current
	}
}

// NewReceiver returns a receiver with one slot per address, or more when
// Init, Mul or Add broadcast further.
func NewReceiver(e *graph.Engine, a ReceiverArgs) (*Receiver, error) {
	if len(a.Addresses) == 0 {
		return nil, fmt.Errorf("%s: %w: no addresses", graph.KindReceiver, graph.ErrConfiguration)
	}

	if a.Port < 0 || math.IsNaN(a.Port) || math.IsInf(a.Port, 0) {
		return nil, fmt.Errorf("%s: %w: port time %g", graph.KindReceiver, graph.ErrConfiguration, a.Port)
	}

	initial := a.Init.Or(graph.Const(0))
	for _, el := range initial {
		if el.IsStream() {
			return nil, fmt.Errorf("%s: %w: initial values must be scalars", graph.KindReceiver, graph.ErrConfiguration)
		}
	}

	coeff := 0.0
	if a.Port > 0 {
		coeff = math.Exp(-1 / (a.Port * e.SampleRate()))
	}

	length := longest(len(a.Addresses), initial, a.Mul, a.Add)
	r := &Receiver{
		addresses: slices.Clone(a.Addresses),
		targets:   make([]atomic.Uint64, length),
	}

	n, err := e.Build(graph.Spec{
		Kind:   graph.KindReceiver,
		Mul:    a.Mul,
		Add:    a.Add,
		Length: length,
		Kernel: func(i int) (graph.Kernel, error) {
			v := graph.Wrap(initial, i).Value
			r.targets[i].Store(math.Float64bits(v))

			return &receiverKernel{target: &r.targets[i], coeff: coeff, current: v}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if err := n.SetAddresses(a.Addresses); err != nil {
		n.Close()
		return nil, err
	}

	r.Node = n

	return r, nil
}

// Send sets the value of every slot listening to addr. It is safe to call
// while the engine is processing; the new value is picked up at the next
// buffer.
func (r *Receiver) Send(addr string, v float64) error {
	i := slices.Index(r.addresses, addr)
	if i < 0 {
		return fmt.Errorf("%w: receiver has no address %q", graph.ErrConfiguration, addr)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: non-finite value for %q", graph.ErrConfiguration, addr)
	}

	for k := i; k < len(r.targets); k += len(r.addresses) {
		r.targets[k].Store(math.Float64bits(v))
	}

	return nil
}

// Get returns the last value sent to addr.
func (r *Receiver) Get(addr string) (float64, error) {
	i := slices.Index(r.addresses, addr)
	if i < 0 {
		return 0, fmt.Errorf("%w: receiver has no address %q", graph.ErrConfiguration, addr)
	}

	return math.Float64frombits(r.targets[i].Load()), nil
}
