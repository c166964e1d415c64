package graph

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-graph/dsp/core"
)

func TestBuildBroadcastsParams(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	var seen []float64

	n, err := e.Build(Spec{
		Kind:   KindSine,
		Params: []Param{List(100, 200, 300), Const(0)},
		Kernel: func(i int) (Kernel, error) {
			seen = append(seen, float64(i))
			return &constKernel{}, nil
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if n.Len() != 3 || len(seen) != 3 {
		t.Fatalf("slots = %d, kernels = %d, want 3", n.Len(), len(seen))
	}

	if got, ok := e.Lookup(n.Handle()); !ok || got != n {
		t.Fatal("node not registered in arena")
	}
}

func TestBuildFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	helper := buildConst(t, e, 1)
	before := e.Len()

	_, err := e.Build(Spec{
		Kind:    KindFFT,
		Params:  []Param{Const(1)},
		Helpers: []*Node{helper},
		Kernel:  func(int) (Kernel, error) { return nil, ErrConfiguration },
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}

	if !helper.Closed() {
		t.Fatal("helper not destroyed after failed build")
	}

	if e.Len() != before-1 {
		t.Fatalf("arena size = %d, want %d", e.Len(), before-1)
	}

	if _, err := e.Build(Spec{Kind: KindSig, Params: []Param{{}}, Kernel: func(int) (Kernel, error) {
		return &constKernel{}, nil
	}}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("empty param err = %v, want ErrConfiguration", err)
	}
}

func TestIndexBounds(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	n := buildConst(t, e, 1, 2)

	if s, err := n.Index(1); err != nil || s.Index() != 1 {
		t.Fatalf("Index(1) = %v, %v", s, err)
	}

	for _, i := range []int{2, -1} {
		if _, err := n.Index(i); !errors.Is(err, ErrBounds) {
			t.Fatalf("Index(%d) err = %v, want ErrBounds", i, err)
		}
	}
}

func TestLifecycleStates(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	n := buildConst(t, e, 0.5, 0.25)

	out := process(e)
	if out[0][0] != 0 {
		t.Fatalf("idle node produced output %v", out[0][0])
	}

	if n.Play() != n {
		t.Fatal("Play must return the receiver")
	}

	for _, s := range n.Slots() {
		if s.State() != StateArmed || s.Channel() != -1 {
			t.Fatalf("after Play: state %s channel %d", s.State(), s.Channel())
		}
	}

	out = process(e)
	if out[0][0] != 0 || n.slots[0].Value() != 0.5 {
		t.Fatalf("armed node: out %v, value %v", out[0][0], n.slots[0].Value())
	}

	n.Out(0, 1).Out(0, 1)

	out = process(e)
	if out[0][3] != 0.5 || out[1][3] != 0.25 {
		t.Fatalf("active outputs = %v, %v", out[0][3], out[1][3])
	}

	n.Stop()

	for _, s := range n.Slots() {
		if s.State() != StateIdle {
			t.Fatalf("after Stop: state %s", s.State())
		}
	}

	out = process(e)
	if out[0][0] != 0 || n.slots[0].Value() != 0.5 {
		t.Fatal("stopped node must not be computed or routed")
	}
}

func TestOutChannelMapping(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, core.WithChannels(2))
	n := buildConst(t, e, 1, 2, 4)
	n.Out(1, 1)

	want := []int{1, 0, 1}
	for i, s := range n.Slots() {
		if s.Channel() != want[i] {
			t.Fatalf("slot %d channel = %d, want %d", i, s.Channel(), want[i])
		}
	}

	out := process(e)
	if out[0][0] != 2 || out[1][0] != 5 {
		t.Fatalf("channel sums = %v, %v, want 2, 5", out[0][0], out[1][0])
	}
}

func TestOutNegativeOffsetPermutes(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, core.WithChannels(4))
	n := buildConst(t, e, 1, 2, 3, 4)
	n.Out(-1, 1)

	var chans []int
	for _, s := range n.Slots() {
		chans = append(chans, s.Channel())
	}

	slices.Sort(chans)

	if !slices.Equal(chans, []int{0, 1, 2, 3}) {
		t.Fatalf("channels = %v, want a permutation of 0..3", chans)
	}
}

func TestStopReleasesEnvelope(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	k := &releaseKernel{buffers: 2}

	n, err := e.Build(Spec{Kind: KindFader, Length: 1, Kernel: func(int) (Kernel, error) { return k, nil }})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	n.Out(0, 1)

	if k.starts != 1 {
		t.Fatalf("starts = %d, want 1", k.starts)
	}

	process(e)
	n.Stop()

	s := n.slots[0]
	if s.State() != StateReleasing {
		t.Fatalf("state = %s, want releasing", s.State())
	}

	if out := process(e); out[0][0] != 1 {
		t.Fatal("releasing slot must still be routed")
	}

	if s.State() != StateReleasing {
		t.Fatalf("state after 1 buffer = %s", s.State())
	}

	process(e)

	if s.State() != StateIdle || s.Channel() != -1 {
		t.Fatalf("state after release = %s channel %d", s.State(), s.Channel())
	}
}

func TestSetParameter(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	n := buildConst(t, e, 1, 1, 1).Play()

	if err := n.Set("value", List(3, 4)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	process(e)

	if got := slotValues(t, e, n); !slices.Equal(got, []float64{3, 4, 3}) {
		t.Fatalf("values = %v", got)
	}

	if err := n.Set("missing", Const(1)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("unknown parameter err = %v", err)
	}

	if err := n.Set("value", Param{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("empty parameter err = %v", err)
	}
}

func TestCloseIsDeferredWhileRead(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	src := buildConst(t, e, 1)

	reader, err := e.Build(Spec{
		Kind:   KindSig,
		Params: []Param{Ref(src)},
		Kernel: func(int) (Kernel, error) { return &passKernel{in: e.NewInput(Ref(src)[0])}, nil },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if src.Readers() != 1 {
		t.Fatalf("readers = %d, want 1", src.Readers())
	}

	src.Close()

	if src.Closed() {
		t.Fatal("source destroyed while still read")
	}

	reader.Close()

	if !reader.Closed() || !src.Closed() {
		t.Fatal("closing the last reader must destroy the source")
	}

	if e.Len() != 0 {
		t.Fatalf("arena size = %d, want 0", e.Len())
	}
}

func TestDestroyOrder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	var log []string

	mk := func(prefix string, n int) func(int) (Kernel, error) {
		return func(i int) (Kernel, error) {
			return &destroyKernel{name: prefix + string(rune('0'+i)), log: &log}, nil
		}
	}

	helper, err := e.Build(Spec{Kind: KindFFTAnalyzer, Length: 2, Kernel: mk("h", 2)})
	if err != nil {
		t.Fatalf("Build helper: %v", err)
	}

	parent, err := e.Build(Spec{Kind: KindFFT, Length: 2, Helpers: []*Node{helper}, Kernel: mk("s", 2)})
	if err != nil {
		t.Fatalf("Build parent: %v", err)
	}

	if helper.Parent() != parent {
		t.Fatal("helper not owned by parent")
	}

	var cleaned bool

	parent.OnDestroy(func() { cleaned = true })
	parent.Close()

	if want := []string{"s1", "s0", "h1", "h0"}; !slices.Equal(log, want) {
		t.Fatalf("destroy order = %v, want %v", log, want)
	}

	if !cleaned || e.Len() != 0 {
		t.Fatalf("cleaned = %v, arena = %d", cleaned, e.Len())
	}

	if err := parent.Set("value", Const(1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close err = %v", err)
	}
}

func TestFeedbackLoopDelaysOneBuffer(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	loop := &addOneKernel{}

	a, err := e.Build(Spec{Kind: KindSig, Length: 1, Kernel: func(int) (Kernel, error) { return loop, nil }})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	b, err := e.Build(Spec{
		Kind:   KindSig,
		Params: []Param{Ref(a)},
		Kernel: func(int) (Kernel, error) { return &passKernel{in: e.NewInput(Ref(a)[0])}, nil },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	loop.in = e.NewInput(Ref(b)[0])

	a.Play()
	b.Play()

	for range 3 {
		process(e)
	}

	if got := a.slots[0].Value(); got != 3 {
		t.Fatalf("loop value = %v, want 3", got)
	}

	if got := b.slots[0].Value(); got != 2 {
		t.Fatalf("delayed value = %v, want 2", got)
	}
}

type addOneKernel struct{ in *Input }

func (k *addOneKernel) Process(b *Block, out []float64) {
	in := k.in.Read(b)
	for i := range out {
		out[i] = in[i] + 1
	}
}

func TestNonFiniteSamplesAreDropped(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	buildConst(t, e, math.NaN()).Out(0, 1)
	buildConst(t, e, 0.5).Out(0, 1)

	out := process(e)

	for i, v := range out[0] {
		if v != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5", i, v)
		}
	}

	if err := e.Health(); !errors.Is(err, ErrRuntimeAudio) {
		t.Fatalf("Health = %v, want ErrRuntimeAudio", err)
	}

	if err := e.Health(); err != nil {
		t.Fatalf("Health after reset = %v", err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	bad := []core.ProcessorConfig{
		{SampleRate: 0, BlockSize: 8, Channels: 2},
		{SampleRate: 48000, BlockSize: 0, Channels: 2},
		{SampleRate: 48000, BlockSize: 8, Channels: 0},
		{SampleRate: 48000, BlockSize: 8, Channels: 2, InputChannels: -1},
	}

	for _, cfg := range bad {
		if _, err := NewEngine(cfg); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("NewEngine(%+v) err = %v", cfg, err)
		}
	}
}

func TestEditAndTime(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	var n *Node

	err := e.Edit(func() error {
		n = buildRamp(t, e, 1).Play()
		return nil
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	process(e)
	process(e)

	if e.Time() != 16 {
		t.Fatalf("time = %d, want 16", e.Time())
	}

	if got := n.slots[0].Value(); got != 15 {
		t.Fatalf("ramp value = %v, want 15", got)
	}
}
