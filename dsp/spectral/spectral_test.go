package spectral

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-graph/dsp/core"
	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/window"
	"github.com/cwbudde/algo-graph/internal/testutil"
)

type tableKernel struct{ data []float64 }

func (k *tableKernel) Process(b *graph.Block, out []float64) {
	for i := range out {
		out[i] = 0
		if t := int(b.Time) + i; t < len(k.data) {
			out[i] = k.data[t]
		}
	}
}

func newEngine(t *testing.T, opts ...core.ProcessorOption) *graph.Engine {
	t.Helper()

	e, err := graph.NewEngine(core.ApplyProcessorOptions(opts...))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	return e
}

func newSource(t *testing.T, e *graph.Engine, channels ...[]float64) *graph.Node {
	t.Helper()

	n, err := e.Build(graph.Spec{
		Kind:   graph.KindPlayer,
		Length: len(channels),
		Kernel: func(i int) (graph.Kernel, error) { return &tableKernel{data: channels[i]}, nil },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	return n.Play()
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"smallest", Config{FrameSize: 8, Overlaps: 8, Window: window.TypeRectangular}, true},
		{"size four", Config{FrameSize: 4, Overlaps: 1}, false},
		{"not power of two", Config{FrameSize: 1000, Overlaps: 4}, false},
		{"zero size", Config{FrameSize: 0, Overlaps: 4}, false},
		{"zero overlaps", Config{FrameSize: 1024, Overlaps: 0}, false},
		{"negative overlaps", Config{FrameSize: 1024, Overlaps: -2}, false},
		{"too many overlaps", Config{FrameSize: 8, Overlaps: 16}, false},
		{"unknown window", Config{FrameSize: 1024, Overlaps: 4, Window: window.Type(99)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !tc.ok && !errors.Is(err, graph.ErrConfiguration) {
				t.Fatalf("err = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestHopOffsets(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	src := newSource(t, e, make([]float64, 16), make([]float64, 16))

	cfg := Config{FrameSize: 1024, Overlaps: 4, Window: window.TypeHann}

	fft, err := NewFFT(e, src, cfg)
	if err != nil {
		t.Fatalf("NewFFT: %v", err)
	}

	if want := []int{0, 0, 256, 256, 512, 512, 768, 768}; !slices.Equal(fft.HopOffsets(), want) {
		t.Fatalf("hops = %v, want %v", fft.HopOffsets(), want)
	}

	ifft, err := NewIFFT(e, fft.Real(), fft.Imag(), cfg)
	if err != nil {
		t.Fatalf("NewIFFT: %v", err)
	}

	if !slices.Equal(ifft.HopOffsets(), fft.HopOffsets()) {
		t.Fatalf("ifft hops = %v, want %v", ifft.HopOffsets(), fft.HopOffsets())
	}

	if err := fft.SetSize(512); err != nil {
		t.Fatalf("SetSize: %v", err)
	}

	if want := []int{0, 0, 128, 128, 256, 256, 384, 384}; !slices.Equal(fft.HopOffsets(), want) {
		t.Fatalf("hops after SetSize = %v, want %v", fft.HopOffsets(), want)
	}

	if f, _ := fft.SpectralFormat(); f.FrameSize != 512 {
		t.Fatalf("format after SetSize = %v", f)
	}

	if err := ifft.SetSize(512); err != nil {
		t.Fatalf("IFFT SetSize: %v", err)
	}

	if !slices.Equal(ifft.HopOffsets(), fft.HopOffsets()) {
		t.Fatalf("ifft hops after SetSize = %v", ifft.HopOffsets())
	}

	if err := fft.SetSize(100); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("SetSize(100) err = %v", err)
	}

	if fft.Config().FrameSize != 512 {
		t.Fatal("failed SetSize changed the frame size")
	}
}

func TestViewsPairHelpers(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	src := newSource(t, e, make([]float64, 16), make([]float64, 16))

	fft, err := NewFFT(e, src, DefaultConfig())
	if err != nil {
		t.Fatalf("NewFFT: %v", err)
	}

	re, im, bin := fft.Real(), fft.Imag(), fft.Bin()
	if re.Len() != 8 || im.Len() != 8 || bin.Len() != 8 {
		t.Fatalf("view sizes = %d/%d/%d, want 8", re.Len(), im.Len(), bin.Len())
	}

	if fft.Real() != re {
		t.Fatal("views must be memoized")
	}

	if fft.Len() != 24 || fft.Channels() != 2 {
		t.Fatalf("slots = %d, channels = %d", fft.Len(), fft.Channels())
	}

	for k := range re.Len() {
		rs, _ := re.Index(k)
		is, _ := im.Index(k)
		bs, _ := bin.Index(k)

		ra := rs.Kernel().(*readerKernel).a
		if is.Kernel().(*readerKernel).a != ra || bs.Kernel().(*readerKernel).a != ra {
			t.Fatalf("outputs %d come from different helpers", k)
		}
	}

	if len(fft.Helpers()) != 9 {
		t.Fatalf("helpers = %d, want fader + 8 analyzers", len(fft.Helpers()))
	}
}

func TestBinStream(t *testing.T) {
	t.Parallel()

	e := newEngine(t, core.WithBlockSize(256), core.WithChannels(1))
	src := newSource(t, e, make([]float64, 1024))

	fft, err := NewFFT(e, src, Config{FrameSize: 1024, Overlaps: 4, Window: window.TypeHann})
	if err != nil {
		t.Fatalf("NewFFT: %v", err)
	}

	fft.Play()
	testutil.Render(e, 1, 256, 2)

	// Second buffer covers samples 256..511.
	first, _ := fft.Bin().Index(0)
	second, _ := fft.Bin().Index(1)

	for i, v := range first.Buffer() {
		if v != float64(256+i) {
			t.Fatalf("bin[0][%d] = %v, want %d", i, v, 256+i)
		}
	}

	for i, v := range second.Buffer() {
		if v != float64(i) {
			t.Fatalf("bin[1][%d] = %v, want %d", i, v, i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, kind := range []window.Type{window.TypeRectangular, window.TypeHann} {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()

			const (
				blockSize = 256
				blocks    = 64
			)

			e := newEngine(t, core.WithBlockSize(blockSize), core.WithChannels(2))
			left := testutil.DeterministicNoise(7, 0.5, blockSize*blocks)
			right := testutil.DeterministicSine(440, 48000, 0.8, blockSize*blocks)
			src := newSource(t, e, left, right)

			cfg := Config{FrameSize: 1024, Overlaps: 4, Window: kind}

			fft, err := NewFFT(e, src, cfg)
			if err != nil {
				t.Fatalf("NewFFT: %v", err)
			}

			ifft, err := NewIFFT(e, fft.Real(), fft.Imag(), cfg)
			if err != nil {
				t.Fatalf("NewIFFT: %v", err)
			}

			mixed, err := ifft.Mix(2)
			if err != nil {
				t.Fatalf("Mix: %v", err)
			}

			fft.Play()
			ifft.Play()
			mixed.Out(0, 1)

			gain, err := OverlapGain(cfg)
			if err != nil {
				t.Fatalf("OverlapGain: %v", err)
			}

			out := testutil.Render(e, 2, blockSize, blocks)
			lat := Latency(cfg.FrameSize)

			for ch, in := range [][]float64{left, right} {
				for g := lat + cfg.FrameSize; g < len(out[ch]); g++ {
					want := gain * in[g-lat]
					if math.Abs(out[ch][g]-want) > 1e-9 {
						t.Fatalf("ch %d sample %d = %v, want %v", ch, g, out[ch][g], want)
					}
				}
			}

			if err := e.Health(); err != nil {
				t.Fatalf("Health: %v", err)
			}
		})
	}
}

func TestOverlapGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     window.Type
		overlaps int
		want     float64
	}{
		{window.TypeRectangular, 4, 4},
		{window.TypeHann, 4, 1.5},
		{window.TypeHann, 2, 0.75},
	}

	for _, tc := range tests {
		got, err := OverlapGain(Config{FrameSize: 1024, Overlaps: tc.overlaps, Window: tc.kind})
		if err != nil {
			t.Fatalf("OverlapGain: %v", err)
		}

		testutil.RequireNearly(t, tc.kind.String(), got, tc.want, 1e-9)
	}

	if Latency(512) != 1024 {
		t.Fatalf("Latency(512) = %d", Latency(512))
	}
}

func TestIFFTRejectsMismatch(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	src := newSource(t, e, make([]float64, 16))

	fft, err := NewFFT(e, src, DefaultConfig())
	if err != nil {
		t.Fatalf("NewFFT: %v", err)
	}

	other := DefaultConfig()
	other.FrameSize = 512

	if _, err := NewIFFT(e, fft.Real(), fft.Imag(), other); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("size mismatch err = %v", err)
	}

	other = DefaultConfig()
	other.Overlaps = 2

	if _, err := NewIFFT(e, fft.Real(), fft.Imag(), other); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("overlap mismatch err = %v", err)
	}

	// A derived composite keeps the tag.
	scaled, err := graph.Times(fft.Real(), graph.Const(0.5))
	if err != nil {
		t.Fatalf("Times: %v", err)
	}

	if _, err := NewIFFT(e, scaled, fft.Imag(), other); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("composite mismatch err = %v", err)
	}

	if _, err := NewIFFT(e, scaled, fft.Imag(), DefaultConfig()); err != nil {
		t.Fatalf("matching composite: %v", err)
	}

	three := newSource(t, e, nil, nil, nil)
	if _, err := NewIFFT(e, three, three, DefaultConfig()); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("indivisible input err = %v", err)
	}
}

func TestFFTSetWindowAndInput(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	a := newSource(t, e, make([]float64, 16))
	b := newSource(t, e, make([]float64, 16))

	fft, err := NewFFT(e, a, DefaultConfig())
	if err != nil {
		t.Fatalf("NewFFT: %v", err)
	}

	if err := fft.SetWindow(window.TypeBlackman); err != nil {
		t.Fatalf("SetWindow: %v", err)
	}

	if fft.Config().Window != window.TypeBlackman {
		t.Fatalf("window = %s", fft.Config().Window)
	}

	if err := fft.SetWindow(window.Type(42)); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("bad window err = %v", err)
	}

	if err := fft.SetInput(b, -1); !errors.Is(err, graph.ErrConfiguration) {
		t.Fatalf("negative fade err = %v", err)
	}

	if err := fft.SetInput(b, 0); err != nil {
		t.Fatalf("SetInput: %v", err)
	}

	if a.Readers() != 0 || b.Readers() != 1 {
		t.Fatalf("readers a=%d b=%d", a.Readers(), b.Readers())
	}

	fft.Close()

	if e.Len() != 2 {
		t.Fatalf("arena size after Close = %d, want the two sources", e.Len())
	}
}

func TestMagnitudeOfDC(t *testing.T) {
	t.Parallel()

	e := newEngine(t, core.WithBlockSize(8), core.WithChannels(1))
	src := newSource(t, e, testutil.DC(1, 64))
	cfg := Config{FrameSize: 8, Overlaps: 1, Window: window.TypeRectangular}

	fft, err := NewFFT(e, src, cfg)
	if err != nil {
		t.Fatalf("NewFFT: %v", err)
	}

	mag, err := Magnitude(fft.Real(), fft.Imag())
	if err != nil {
		t.Fatalf("Magnitude: %v", err)
	}

	pow, err := Power(fft.Real(), fft.Imag())
	if err != nil {
		t.Fatalf("Power: %v", err)
	}

	if f, ok := mag.SpectralFormat(); !ok || f != cfg.Format() {
		t.Fatalf("magnitude format = %v, %v", f, ok)
	}

	fft.Play()
	testutil.Render(e, 1, 8, 2)

	wantMag := []float64{8, 0, 0, 0, 0, 0, 0, 0}
	testutil.RequireSliceNearlyEqual(t, mag.Slots()[0].Buffer(), wantMag, 1e-12)

	wantPow := []float64{64, 0, 0, 0, 0, 0, 0, 0}
	testutil.RequireSliceNearlyEqual(t, pow.Slots()[0].Buffer(), wantPow, 1e-9)
}
