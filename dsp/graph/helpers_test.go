package graph

import (
	"testing"

	"github.com/cwbudde/algo-graph/dsp/core"
)

func newTestEngine(t *testing.T, opts ...core.ProcessorOption) *Engine {
	t.Helper()

	cfg := core.ApplyProcessorOptions(append([]core.ProcessorOption{
		core.WithBlockSize(8),
		core.WithSampleRate(1000),
	}, opts...)...)

	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	return e
}

// constKernel outputs a fixed value.
type constKernel struct{ v float64 }

func (k *constKernel) Process(_ *Block, out []float64) { core.Fill(out, k.v) }

func (k *constKernel) SetParameter(name string, in *Input) error {
	if name != "value" {
		return ErrConfiguration
	}

	k.v = in.Value(nil)

	return nil
}

// rampKernel outputs the engine sample index.
type rampKernel struct{}

func (rampKernel) Process(b *Block, out []float64) {
	for i := range out {
		out[i] = float64(b.Time + int64(i))
	}
}

// passKernel copies its input.
type passKernel struct{ in *Input }

func (k *passKernel) Process(b *Block, out []float64) { copy(out, k.in.Read(b)) }

// releaseKernel outputs 1 and takes a fixed number of buffers to release.
type releaseKernel struct {
	buffers  int
	left     int
	starts   int
	released bool
}

func (k *releaseKernel) Process(_ *Block, out []float64) {
	if k.released {
		k.left--
	}

	core.Fill(out, 1)
}

func (k *releaseKernel) Start() {
	k.starts++
	k.released = false
}

func (k *releaseKernel) Release() {
	k.released = true
	k.left = k.buffers
}

func (k *releaseKernel) Released() bool { return k.released && k.left <= 0 }

// destroyKernel records its destruction order.
type destroyKernel struct {
	name string
	log  *[]string
}

func (k *destroyKernel) Process(_ *Block, out []float64) { core.Zero(out) }

func (k *destroyKernel) Destroy() { *k.log = append(*k.log, k.name) }

func buildConst(t *testing.T, e *Engine, values ...float64) *Node {
	t.Helper()

	n, err := e.Build(Spec{
		Kind:   KindSig,
		Params: []Param{List(values...)},
		Kernel: func(i int) (Kernel, error) { return &constKernel{v: values[i]}, nil },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	return n
}

func buildRamp(t *testing.T, e *Engine, slots int) *Node {
	t.Helper()

	n, err := e.Build(Spec{
		Kind:   KindSig,
		Length: slots,
		Kernel: func(int) (Kernel, error) { return rampKernel{}, nil },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	return n
}

func process(e *Engine) [][]float64 {
	out := make([][]float64, e.Channels())
	for i := range out {
		out[i] = make([]float64, e.BlockSize())
	}

	e.Process(nil, out)

	return out
}

func slotValues(t *testing.T, e *Engine, s Stream) []float64 {
	t.Helper()

	b := &e.block

	vals := make([]float64, 0, len(s.Slots()))
	for _, sl := range s.Slots() {
		if sl.tick != b.Tick {
			t.Fatalf("slot %d of %s was not computed this buffer", sl.index, sl.owner.kind)
		}

		vals = append(vals, sl.Value())
	}

	return vals
}
