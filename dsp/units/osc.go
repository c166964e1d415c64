package units

import (
	"math"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

// SigArgs configures Sig.
type SigArgs struct {
	// Value is the output value. Default 0.
	Value    graph.Param
	Mul, Add graph.Param
}

type sigKernel struct {
	value *graph.Input
}

func (k *sigKernel) Process(b *graph.Block, out []float64) {
	copy(out, k.value.Read(b))
}

func (k *sigKernel) SetParameter(name string, in *graph.Input) error {
	return setInput(name, in, map[string]**graph.Input{"value": &k.value})
}

// Sig converts values or streams into signals. The "value" parameter can be
// changed with Set.
func Sig(e *graph.Engine, a SigArgs) (*graph.Node, error) {
	value := a.Value.Or(graph.Const(0))

	return e.Build(graph.Spec{
		Kind:   graph.KindSig,
		Params: []graph.Param{value},
		Mul:    a.Mul,
		Add:    a.Add,
		Kernel: func(i int) (graph.Kernel, error) {
			return &sigKernel{value: input(e, value, i)}, nil
		},
	})
}

// SineArgs configures Sine.
type SineArgs struct {
	// Freq is the frequency in Hz. Default 1000.
	Freq graph.Param
	// Phase is a phase offset in cycles, read every sample. Default 0.
	Phase    graph.Param
	Mul, Add graph.Param
}

type sineKernel struct {
	freq, phase *graph.Input
	sampleRate  float64
	pointer     float64
}

func (k *sineKernel) Process(b *graph.Block, out []float64) {
	freq := k.freq.Read(b)
	phase := k.phase.Read(b)
	inc := 1 / k.sampleRate

	for i := range out {
		out[i] = math.Sin(2 * math.Pi * (k.pointer + phase[i]))

		k.pointer += freq[i] * inc
		k.pointer -= math.Floor(k.pointer)
	}
}

func (k *sineKernel) Start() {
	k.pointer = 0
}

func (k *sineKernel) SetParameter(name string, in *graph.Input) error {
	return setInput(name, in, map[string]**graph.Input{"freq": &k.freq, "phase": &k.phase})
}

// Sine returns a sine oscillator. Each slot restarts at phase zero when it
// is played.
func Sine(e *graph.Engine, a SineArgs) (*graph.Node, error) {
	freq := a.Freq.Or(graph.Const(1000))
	phase := a.Phase.Or(graph.Const(0))

	return e.Build(graph.Spec{
		Kind:   graph.KindSine,
		Params: []graph.Param{freq, phase},
		Mul:    a.Mul,
		Add:    a.Add,
		Kernel: func(i int) (graph.Kernel, error) {
			return &sineKernel{
				freq:       input(e, freq, i),
				phase:      input(e, phase, i),
				sampleRate: e.SampleRate(),
			}, nil
		},
	})
}

// NoiseArgs configures Noise.
type NoiseArgs struct {
	// Seed selects the sequence. Slot 0 uses Seed, further slots derive
	// their own seed from it.
	Seed     uint32
	Mul, Add graph.Param
}

type noiseKernel struct {
	seed, state uint32
}

func (k *noiseKernel) Process(_ *graph.Block, out []float64) {
	for i := range out {
		k.state ^= k.state << 13
		k.state ^= k.state >> 17
		k.state ^= k.state << 5
		out[i] = 2*float64(k.state)/float64(math.MaxUint32) - 1
	}
}

func (k *noiseKernel) Start() {
	k.state = k.seed
}

func newNoiseKernel(seed uint32) *noiseKernel {
	// xorshift32 locks up on zero.
	if seed == 0 {
		seed = 1
	}

	return &noiseKernel{seed: seed, state: seed}
}

// Noise returns deterministic white noise in [-1, 1]. It has one slot unless
// Mul or Add broadcast to more.
func Noise(e *graph.Engine, a NoiseArgs) (*graph.Node, error) {
	length := 0
	if len(a.Mul) == 0 && len(a.Add) == 0 {
		length = 1
	}

	return e.Build(graph.Spec{
		Kind:   graph.KindNoise,
		Mul:    a.Mul,
		Add:    a.Add,
		Length: length,
		Kernel: func(i int) (graph.Kernel, error) {
			return newNoiseKernel(a.Seed + uint32(i)*2654435761), nil
		},
	})
}
