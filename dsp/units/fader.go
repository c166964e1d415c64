package units

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

// FaderArgs configures Fader.
type FaderArgs struct {
	// FadeIn and FadeOut are the ramp durations in seconds. Defaults 0.01
	// and 0.1.
	FadeIn, FadeOut float64
	// Dur is the total duration in seconds including both ramps. Zero
	// sustains until Stop.
	Dur float64
	// Shape maps ramp progress in [0, 1] to gain. Nil is linear.
	Shape    func(x float64) float64
	Mul, Add graph.Param
}

type envStage int

const (
	stageAttack envStage = iota
	stageSustain
	stageRelease
	stageDone
)

// faderKernel produces an attack, sustain and release envelope. The slot
// goes idle once the release ramp has finished.
type faderKernel struct {
	// Durations in samples. hold counts until an automatic release and is
	// -1 when the envelope sustains.
	attack, release, hold float64
	shape                 func(float64) float64

	stage    envStage
	n        float64
	level    float64
	relLevel float64
}

func (k *faderKernel) Process(_ *graph.Block, out []float64) {
	for i := range out {
		switch k.stage {
		case stageAttack:
			if k.attack <= 0 || k.n >= k.attack {
				k.stage = stageSustain
				k.level = 1
			} else {
				k.level = k.shape(k.n / k.attack)
			}
		case stageRelease:
			if k.release <= 0 || k.n >= k.release {
				k.stage = stageDone
				k.level = 0
			} else {
				k.level = k.relLevel * (1 - k.shape(k.n/k.release))
			}
		case stageDone:
			k.level = 0
		}

		if k.stage == stageSustain {
			k.level = 1
		}

		out[i] = k.level
		k.n++

		if k.hold >= 0 && k.stage < stageRelease && k.n >= k.hold {
			k.Release()
		}
	}
}

func (k *faderKernel) Start() {
	k.stage = stageAttack
	k.n = 0
	k.level = 0
}

func (k *faderKernel) Release() {
	if k.stage >= stageRelease {
		return
	}

	k.stage = stageRelease
	k.relLevel = k.level
	k.n = 0
}

func (k *faderKernel) Released() bool {
	return k.stage == stageDone
}

// Fader returns an envelope that ramps to one when played and back to zero
// when stopped or after Dur. It has one slot unless Mul or Add broadcast to
// more.
func Fader(e *graph.Engine, a FaderArgs) (*graph.Node, error) {
	fadeIn, fadeOut := a.FadeIn, a.FadeOut
	if fadeIn == 0 {
		fadeIn = 0.01
	}

	if fadeOut == 0 {
		fadeOut = 0.1
	}

	for _, v := range []float64{fadeIn, fadeOut, a.Dur} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s: %w: invalid duration %g", graph.KindFader, graph.ErrConfiguration, v)
		}
	}

	shape := a.Shape
	if shape == nil {
		shape = func(x float64) float64 { return x }
	}

	sr := e.SampleRate()
	hold := -1.0
	if a.Dur > 0 {
		hold = math.Round(math.Max(0, a.Dur-fadeOut) * sr)
	}

	length := 0
	if len(a.Mul) == 0 && len(a.Add) == 0 {
		length = 1
	}

	return e.Build(graph.Spec{
		Kind:   graph.KindFader,
		Mul:    a.Mul,
		Add:    a.Add,
		Length: length,
		Kernel: func(int) (graph.Kernel, error) {
			return &faderKernel{
				attack:  math.Round(fadeIn * sr),
				release: math.Round(fadeOut * sr),
				hold:    hold,
				shape:   shape,
				stage:   stageDone,
			}, nil
		},
	})
}

// CosineShape is a raised-cosine ramp.
func CosineShape(x float64) float64 {
	return 0.5 - 0.5*math.Cos(math.Pi*x)
}

// ExpShape returns an exponential ramp of curvature c. Zero is linear.
func ExpShape(c float64) func(float64) float64 {
	if c == 0 {
		return func(x float64) float64 { return x }
	}

	return func(x float64) float64 {
		return (math.Exp(c*x) - 1) / (math.Exp(c) - 1)
	}
}
