package units

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-graph/dsp/filter/design"
	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/interp"
	"github.com/cwbudde/algo-graph/dsp/spectral"
	"github.com/cwbudde/algo-graph/dsp/window"
)

// Factory builds one node from untyped arguments.
type Factory func(e *graph.Engine, a Args) (*graph.Node, error)

// ParamSpec describes one argument of a kind for listings and patch
// authors.
type ParamSpec struct {
	Name    string
	Default string
	Doc     string
}

// Registry maps node kinds to their factories and argument metadata.
type Registry struct {
	factories map[graph.Kind]Factory
	params    map[graph.Kind][]ParamSpec
}

var errDuplicateKind = errors.New("duplicate node kind")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[graph.Kind]Factory),
		params:    make(map[graph.Kind][]ParamSpec),
	}
}

// Register adds a factory for kind together with the arguments it reads.
func (r *Registry) Register(kind graph.Kind, factory Factory, params ...ParamSpec) error {
	if kind == graph.KindUnknown {
		return errors.New("unknown node kind")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", errDuplicateKind, kind)
	}

	r.factories[kind] = factory
	r.params[kind] = params

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind graph.Kind, factory Factory, params ...ParamSpec) {
	if err := r.Register(kind, factory, params...); err != nil {
		panic("units registry: " + err.Error())
	}
}

// Lookup returns the factory for kind, or nil.
func (r *Registry) Lookup(kind graph.Kind) Factory {
	return r.factories[kind]
}

// Params returns the argument metadata registered for kind.
func (r *Registry) Params(kind graph.Kind) []ParamSpec {
	return slices.Clone(r.params[kind])
}

// Kinds returns the registered kinds in declaration order.
func (r *Registry) Kinds() []graph.Kind {
	out := make([]graph.Kind, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}

// Build looks up kind and runs its factory.
func (r *Registry) Build(e *graph.Engine, kind graph.Kind, a Args) (*graph.Node, error) {
	f := r.factories[kind]
	if f == nil {
		return nil, fmt.Errorf("%w: no factory for %s", graph.ErrConfiguration, kind)
	}

	return f(e, a)
}

type registryConfig struct {
	loader func(path string) (Sound, error)
}

// RegistryOption configures the default registry.
type RegistryOption func(*registryConfig)

// WithSoundLoader replaces LoadSound for player nodes.
func WithSoundLoader(fn func(path string) (Sound, error)) RegistryOption {
	return func(c *registryConfig) { c.loader = fn }
}

// DefaultRegistry returns a Registry holding every buildable kind.
//
//nolint:funlen
func DefaultRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{loader: LoadSound}
	for _, opt := range opts {
		opt(cfg)
	}

	r := NewRegistry()
	reg := func(kind graph.Kind, f Factory) { r.MustRegister(kind, f, kindParams[kind]...) }

	reg(graph.KindSig, func(e *graph.Engine, a Args) (*graph.Node, error) {
		return Sig(e, SigArgs{Value: a.Param("value"), Mul: a.Param("mul"), Add: a.Param("add")})
	})
	reg(graph.KindSine, func(e *graph.Engine, a Args) (*graph.Node, error) {
		return Sine(e, SineArgs{
			Freq:  a.Param("freq"),
			Phase: a.Param("phase"),
			Mul:   a.Param("mul"),
			Add:   a.Param("add"),
		})
	})
	reg(graph.KindNoise, func(e *graph.Engine, a Args) (*graph.Node, error) {
		return Noise(e, NoiseArgs{Seed: uint32(a.GetInt("seed", 0)), Mul: a.Param("mul"), Add: a.Param("add")})
	})
	reg(graph.KindPlayer, func(e *graph.Engine, a Args) (*graph.Node, error) {
		path := a.GetStr("path", "")
		if path == "" {
			return nil, fmt.Errorf("%w: player needs a path", graph.ErrConfiguration)
		}

		mode, err := interp.ParseMode(a.GetStr("interp", "cubic"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", graph.ErrConfiguration, err)
		}

		snd, err := cfg.loader(path)
		if err != nil {
			return nil, err
		}

		pa := snd.PlayerArgs()
		pa.Speed = a.Param("speed")
		pa.Loop = a.GetNum("loop", 0) != 0
		pa.Interp = mode
		pa.Mul = a.Param("mul")
		pa.Add = a.Param("add")

		return Player(e, pa)
	})
	reg(graph.KindInput, func(e *graph.Engine, a Args) (*graph.Node, error) {
		chans, err := a.GetInts("channel")
		if err != nil {
			return nil, err
		}

		return Input(e, InputArgs{Channel: chans, Mul: a.Param("mul"), Add: a.Param("add")})
	})
	reg(graph.KindBiquad, func(e *graph.Engine, a Args) (*graph.Node, error) {
		in, err := a.Stream("input")
		if err != nil {
			return nil, err
		}

		typ, err := design.ParseType(a.GetStr("type", "lowpass"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", graph.ErrConfiguration, err)
		}

		return Biquad(e, BiquadArgs{
			Input: in,
			Freq:  a.Param("freq"),
			Q:     a.Param("q"),
			Type:  typ,
			Mul:   a.Param("mul"),
			Add:   a.Param("add"),
		})
	})
	reg(graph.KindBandSplit, func(e *graph.Engine, a Args) (*graph.Node, error) {
		in, err := a.Stream("input")
		if err != nil {
			return nil, err
		}

		return BandSplit(e, BandSplitArgs{
			Input: in,
			Num:   a.GetInt("num", 0),
			Min:   a.GetNum("min", 0),
			Max:   a.GetNum("max", 0),
			Q:     a.Param("q"),
			Mul:   a.Param("mul"),
			Add:   a.Param("add"),
		})
	})
	reg(graph.KindFader, func(e *graph.Engine, a Args) (*graph.Node, error) {
		fa := FaderArgs{
			FadeIn:  a.GetNum("fadein", 0),
			FadeOut: a.GetNum("fadeout", 0),
			Dur:     a.GetNum("dur", 0),
			Mul:     a.Param("mul"),
			Add:     a.Param("add"),
		}

		switch shape := a.GetStr("shape", "linear"); shape {
		case "linear":
		case "cosine":
			fa.Shape = CosineShape
		case "exp":
			fa.Shape = ExpShape(a.GetNum("curve", 4))
		default:
			return nil, fmt.Errorf("%w: unknown fader shape %q", graph.ErrConfiguration, shape)
		}

		return Fader(e, fa)
	})
	reg(graph.KindDelay, func(e *graph.Engine, a Args) (*graph.Node, error) {
		in, err := a.Stream("input")
		if err != nil {
			return nil, err
		}

		return Delay(e, DelayArgs{
			Input:    in,
			Delay:    a.Param("delay"),
			Feedback: a.Param("feedback"),
			MaxDelay: a.GetNum("maxdelay", 0),
			Mul:      a.Param("mul"),
			Add:      a.Param("add"),
		})
	})
	reg(graph.KindReceiver, func(e *graph.Engine, a Args) (*graph.Node, error) {
		rc, err := NewReceiver(e, ReceiverArgs{
			Addresses: a.Names,
			Init:      a.Param("init"),
			Port:      a.GetNum("port", 0),
			Mul:       a.Param("mul"),
			Add:       a.Param("add"),
		})
		if err != nil {
			return nil, err
		}

		return rc.Node, nil
	})
	reg(graph.KindNotes, func(e *graph.Engine, a Args) (*graph.Node, error) {
		scale := ScaleMIDI

		switch s := a.GetStr("scale", "midi"); s {
		case "midi":
		case "hz":
			scale = ScaleHz
		default:
			return nil, fmt.Errorf("%w: unknown note scale %q", graph.ErrConfiguration, s)
		}

		last := a.GetInt("last", 127)

		ns, err := NewNotes(e, NotesArgs{
			Poly:  a.GetInt("poly", 0),
			Scale: scale,
			First: a.GetInt("first", 0),
			Last:  &last,
		})
		if err != nil {
			return nil, err
		}

		return ns.Node, nil
	})
	reg(graph.KindMix, func(e *graph.Engine, a Args) (*graph.Node, error) {
		in, err := a.Stream("input")
		if err != nil {
			return nil, err
		}

		n, err := graph.Mix(in, a.GetInt("voices", 1))
		if err != nil {
			return nil, err
		}

		return withControls(n, a)
	})
	reg(graph.KindInputFader, func(e *graph.Engine, a Args) (*graph.Node, error) {
		in, err := a.Stream("input")
		if err != nil {
			return nil, err
		}

		f, err := e.NewInputFader(in)
		if err != nil {
			return nil, err
		}

		return withControls(f.Node, a)
	})
	reg(graph.KindFFT, func(e *graph.Engine, a Args) (*graph.Node, error) {
		in, err := a.Stream("input")
		if err != nil {
			return nil, err
		}

		sc, err := spectralConfig(a)
		if err != nil {
			return nil, err
		}

		f, err := spectral.NewFFT(e, in, sc)
		if err != nil {
			return nil, err
		}

		return f.Node, nil
	})
	reg(graph.KindIFFT, func(e *graph.Engine, a Args) (*graph.Node, error) {
		re, im, err := spectrumArgs(a)
		if err != nil {
			return nil, err
		}

		sc, err := spectralConfig(a)
		if err != nil {
			return nil, err
		}

		f, err := spectral.NewIFFT(e, re, im, sc)
		if err != nil {
			return nil, err
		}

		return withControls(f.Node, a)
	})
	reg(graph.KindMagnitude, func(_ *graph.Engine, a Args) (*graph.Node, error) {
		re, im, err := spectrumArgs(a)
		if err != nil {
			return nil, err
		}

		n, err := spectral.Magnitude(re, im)
		if err != nil {
			return nil, err
		}

		return withControls(n, a)
	})
	reg(graph.KindPower, func(_ *graph.Engine, a Args) (*graph.Node, error) {
		re, im, err := spectrumArgs(a)
		if err != nil {
			return nil, err
		}

		n, err := spectral.Power(re, im)
		if err != nil {
			return nil, err
		}

		return withControls(n, a)
	})

	return r
}

var controls = []ParamSpec{
	{Name: "mul", Default: "1", Doc: "multiplicative control"},
	{Name: "add", Default: "0", Doc: "additive control"},
}

func withControlSpecs(specs ...ParamSpec) []ParamSpec {
	return append(specs, controls...)
}

var kindParams = map[graph.Kind][]ParamSpec{
	graph.KindSig: withControlSpecs(
		ParamSpec{Name: "value", Default: "0", Doc: "output value"},
	),
	graph.KindSine: withControlSpecs(
		ParamSpec{Name: "freq", Default: "1000", Doc: "frequency in Hz"},
		ParamSpec{Name: "phase", Default: "0", Doc: "phase offset in cycles"},
	),
	graph.KindNoise: withControlSpecs(
		ParamSpec{Name: "seed", Default: "0", Doc: "random sequence seed"},
	),
	graph.KindPlayer: withControlSpecs(
		ParamSpec{Name: "path", Doc: "WAV or MP3 file"},
		ParamSpec{Name: "speed", Default: "1", Doc: "playback rate factor"},
		ParamSpec{Name: "loop", Default: "0", Doc: "non-zero loops the file"},
		ParamSpec{Name: "interp", Default: "cubic", Doc: "none, linear or cubic"},
	),
	graph.KindInput: withControlSpecs(
		ParamSpec{Name: "channel", Default: "0", Doc: "hardware input channels"},
	),
	graph.KindBiquad: withControlSpecs(
		ParamSpec{Name: "input", Doc: "stream to filter"},
		ParamSpec{Name: "freq", Default: "1000", Doc: "cutoff or centre frequency in Hz"},
		ParamSpec{Name: "q", Default: "1", Doc: "quality factor"},
		ParamSpec{Name: "type", Default: "lowpass", Doc: "lowpass, highpass, bandpass, notch or allpass"},
	),
	graph.KindBandSplit: withControlSpecs(
		ParamSpec{Name: "input", Doc: "stream to split"},
		ParamSpec{Name: "num", Default: "6", Doc: "number of bands"},
		ParamSpec{Name: "min", Default: "70", Doc: "lowest centre frequency in Hz"},
		ParamSpec{Name: "max", Default: "7000", Doc: "highest centre frequency in Hz"},
		ParamSpec{Name: "q", Default: "1", Doc: "quality factor, wrapped by band"},
	),
	graph.KindFader: withControlSpecs(
		ParamSpec{Name: "fadein", Default: "0.01", Doc: "attack in seconds"},
		ParamSpec{Name: "fadeout", Default: "0.1", Doc: "release in seconds"},
		ParamSpec{Name: "dur", Default: "0", Doc: "total duration in seconds, 0 sustains"},
		ParamSpec{Name: "shape", Default: "linear", Doc: "linear, cosine or exp"},
		ParamSpec{Name: "curve", Default: "4", Doc: "curvature of the exp shape"},
	),
	graph.KindDelay: withControlSpecs(
		ParamSpec{Name: "input", Doc: "stream to delay"},
		ParamSpec{Name: "delay", Default: "0.25", Doc: "delay time in seconds"},
		ParamSpec{Name: "feedback", Default: "0", Doc: "feedback amount"},
		ParamSpec{Name: "maxdelay", Default: "1", Doc: "longest delay in seconds"},
	),
	graph.KindReceiver: withControlSpecs(
		ParamSpec{Name: "addresses", Doc: "address names"},
		ParamSpec{Name: "init", Default: "0", Doc: "initial values"},
		ParamSpec{Name: "port", Default: "0", Doc: "smoothing time in seconds"},
	),
	graph.KindNotes: {
		{Name: "poly", Default: "10", Doc: "number of voices"},
		{Name: "scale", Default: "midi", Doc: "midi or hz"},
		{Name: "first", Default: "0", Doc: "lowest accepted note"},
		{Name: "last", Default: "127", Doc: "highest accepted note"},
	},
	graph.KindMix: withControlSpecs(
		ParamSpec{Name: "input", Doc: "stream to mix down"},
		ParamSpec{Name: "voices", Default: "1", Doc: "number of output slots"},
	),
	graph.KindInputFader: withControlSpecs(
		ParamSpec{Name: "input", Doc: "initial source"},
	),
	graph.KindFFT: {
		{Name: "input", Doc: "stream to analyse"},
		{Name: "size", Default: "1024", Doc: "frame size, a power of two"},
		{Name: "overlaps", Default: "4", Doc: "frames per frame length"},
		{Name: "window", Default: "hann", Doc: "analysis window"},
	},
	graph.KindIFFT: withControlSpecs(
		ParamSpec{Name: "real", Doc: "real parts"},
		ParamSpec{Name: "imag", Doc: "imaginary parts"},
		ParamSpec{Name: "size", Default: "1024", Doc: "frame size of the producer"},
		ParamSpec{Name: "overlaps", Default: "4", Doc: "overlaps of the producer"},
		ParamSpec{Name: "window", Default: "hann", Doc: "synthesis window"},
	),
	graph.KindMagnitude: withControlSpecs(
		ParamSpec{Name: "real", Doc: "real parts"},
		ParamSpec{Name: "imag", Doc: "imaginary parts"},
	),
	graph.KindPower: withControlSpecs(
		ParamSpec{Name: "real", Doc: "real parts"},
		ParamSpec{Name: "imag", Doc: "imaginary parts"},
	),
}

// withControls applies the "mul" and "add" arguments to kinds whose
// constructors take none. On error n is closed.
func withControls(n *graph.Node, a Args) (*graph.Node, error) {
	for _, name := range []string{"mul", "add"} {
		p := a.Param(name)
		if len(p) == 0 {
			continue
		}

		if err := n.Set(name, p); err != nil {
			n.Close()
			return nil, err
		}
	}

	return n, nil
}

func spectralConfig(a Args) (spectral.Config, error) {
	cfg := spectral.DefaultConfig()
	cfg.FrameSize = a.GetInt("size", cfg.FrameSize)
	cfg.Overlaps = a.GetInt("overlaps", cfg.Overlaps)

	if name := a.GetStr("window", ""); name != "" {
		w, err := window.ParseType(name)
		if err != nil {
			return spectral.Config{}, fmt.Errorf("%w: %w", graph.ErrConfiguration, err)
		}

		cfg.Window = w
	}

	return cfg, cfg.Validate()
}

func spectrumArgs(a Args) (re, im graph.Stream, err error) {
	re, err = a.Stream("real")
	if err != nil {
		return nil, nil, err
	}

	im, err = a.Stream("imag")
	if err != nil {
		return nil, nil, err
	}

	return re, im, nil
}
