package graph

import (
	"errors"
	"slices"
	"testing"

	"github.com/cwbudde/algo-graph/dsp/core"
)

func TestTimesCommutes(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := buildConst(t, e, 1, 2, 3).Play()
	b := buildConst(t, e, 4, 5).Play()

	ab, err := Times(a, Each(b))
	if err != nil {
		t.Fatalf("Times: %v", err)
	}

	ba, err := Times(b, Each(a))
	if err != nil {
		t.Fatalf("Times: %v", err)
	}

	process(e)

	want := []float64{4, 10, 12}
	if got := slotValues(t, e, ab); !slices.Equal(got, want) {
		t.Fatalf("a*b = %v, want %v", got, want)
	}

	if got := slotValues(t, e, ba); !slices.Equal(got, want) {
		t.Fatalf("b*a = %v, want %v", got, want)
	}
}

func TestArithmeticOps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(a Stream) (*Node, error)
		want []float64
	}{
		{"plus", func(a Stream) (*Node, error) { return Plus(a, Const(1)) }, []float64{3, 5}},
		{"minus", func(a Stream) (*Node, error) { return Minus(a, List(1, 2)) }, []float64{1, 2}},
		{"times", func(a Stream) (*Node, error) { return Times(a, Const(0.5)) }, []float64{1, 2}},
		{"div", func(a Stream) (*Node, error) { return Div(a, List(2, 0)) }, []float64{1, 0}},
		{"minus from", func(a Stream) (*Node, error) { return MinusFrom(Const(10), a) }, []float64{8, 6}},
		{"div from", func(a Stream) (*Node, error) { return DivFrom(Const(8), a) }, []float64{4, 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEngine(t)
			a := buildConst(t, e, 2, 4).Play()

			n, err := tc.fn(a)
			if err != nil {
				t.Fatalf("op: %v", err)
			}

			if n == a || n.Kind() != KindArith {
				t.Fatal("out-of-place op must return a new composite")
			}

			process(e)

			if got := slotValues(t, e, n); !slices.Equal(got, tc.want) {
				t.Fatalf("values = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInPlaceKeepsIdentity(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := buildConst(t, e, 2, 4).Play()

	got, err := a.ScaleInPlace(Const(3))
	if err != nil || got != a {
		t.Fatalf("ScaleInPlace = %p, %v; want receiver", got, err)
	}

	// A second scale replaces the first one.
	if _, err := a.ScaleInPlace(List(0.5, 2)); err != nil {
		t.Fatalf("ScaleInPlace: %v", err)
	}

	if _, err := a.AddInPlace(Const(1)); err != nil {
		t.Fatalf("AddInPlace: %v", err)
	}

	process(e)

	if got := slotValues(t, e, a); !slices.Equal(got, []float64{2, 9}) {
		t.Fatalf("values = %v, want [2 9]", got)
	}

	if _, err := a.DivInPlace(List(0, 2)); err != nil {
		t.Fatalf("DivInPlace: %v", err)
	}

	if _, err := a.SubInPlace(Const(1)); err != nil {
		t.Fatalf("SubInPlace: %v", err)
	}

	process(e)

	if got := slotValues(t, e, a); !slices.Equal(got, []float64{-1, 1}) {
		t.Fatalf("values = %v, want [-1 1]", got)
	}

	if err := a.Set("mul", Const(1)); err != nil {
		t.Fatalf("Set mul: %v", err)
	}

	if _, err := a.AddInPlace(Param{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("empty control err = %v", err)
	}
}

func TestControlFromStream(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := buildConst(t, e, 2).Play()
	lfo := buildConst(t, e, 0.25).Play()

	if _, err := a.ScaleInPlace(Ref(lfo)); err != nil {
		t.Fatalf("ScaleInPlace: %v", err)
	}

	if lfo.Readers() != 1 {
		t.Fatalf("readers = %d, want 1", lfo.Readers())
	}

	process(e)

	if got := a.slots[0].Value(); got != 0.5 {
		t.Fatalf("value = %v, want 0.5", got)
	}

	if _, err := a.ScaleInPlace(Const(1)); err != nil {
		t.Fatalf("ScaleInPlace: %v", err)
	}

	if lfo.Readers() != 0 {
		t.Fatalf("replaced control still referenced: %d", lfo.Readers())
	}
}

func TestCompositeFollowsOperand(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a := buildConst(t, e, 1)
	a.SetSpectralFormat(SpectralFormat{FrameSize: 64, Overlaps: 4})

	c, err := Times(a, Const(2))
	if err != nil {
		t.Fatalf("Times: %v", err)
	}

	if f, ok := c.SpectralFormat(); !ok || f.FrameSize != 64 {
		t.Fatalf("format = %v, %v", f, ok)
	}

	a.Close()

	if !c.Closed() || !a.Closed() {
		t.Fatal("closing the operand must close its composites")
	}

	if _, err := Times(a, Const(2)); !errors.Is(err, ErrClosed) {
		t.Fatalf("op on closed node err = %v", err)
	}
}

func TestBlockSumsCoverWholeBuffer(t *testing.T) {
	t.Parallel()

	// 13 is not a multiple of any vector width.
	e := newTestEngine(t, core.WithBlockSize(13))
	r := buildRamp(t, e, 3).Play()

	mixed, err := r.Mix(1)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}

	sum, err := Plus(r, Each(r))
	if err != nil {
		t.Fatalf("Plus: %v", err)
	}

	c := buildRamp(t, e, 1).Play()
	if _, err := c.AddInPlace(Ref(r)); err != nil {
		t.Fatalf("AddInPlace: %v", err)
	}

	for range 2 {
		base := float64(e.Time())
		process(e)

		for i := range 13 {
			x := base + float64(i)

			if got := mixed.Slots()[0].Buffer()[i]; got != 3*x {
				t.Fatalf("mix[%d] = %v, want %v", i, got, 3*x)
			}

			for k, sl := range sum.Slots() {
				if got := sl.Buffer()[i]; got != 2*x {
					t.Fatalf("plus slot %d [%d] = %v, want %v", k, i, got, 2*x)
				}
			}

			if got := c.Slots()[0].Buffer()[i]; got != 2*x {
				t.Fatalf("add control [%d] = %v, want %v", i, got, 2*x)
			}
		}
	}
}
