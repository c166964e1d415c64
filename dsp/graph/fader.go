package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/core"
)

// DefaultFadeTime is the crossfade duration used by SetInput callers that
// have no preference, in seconds.
const DefaultFadeTime = 0.05

// FadeGains returns the old and new source gains t seconds into a
// crossfade lasting fadeSeconds. The gains sum to one and move linearly.
// A fade of zero length is already complete.
func FadeGains(t, fadeSeconds float64) (oldGain, newGain float64) {
	if fadeSeconds <= 0 {
		return 0, 1
	}

	newGain = core.Clamp(t/fadeSeconds, 0, 1)

	return 1 - newGain, newGain
}

// InputFader passes an upstream stream through and lets it be replaced
// while running by crossfading to the new source.
type InputFader struct {
	*Node

	cur, old []*Input
	source   Stream

	fading      bool
	start       int64
	fadeSamples float64
}

type faderKernel struct {
	f   *InputFader
	idx int
}

func (k *faderKernel) Process(b *Block, out []float64) {
	f := k.f

	cur := f.cur[k.idx].Read(b)
	if !f.fading {
		copy(out, cur)
		return
	}

	old := f.old[k.idx].Read(b)

	for i := range out {
		t := float64(b.Time + int64(i) - f.start)
		o, n := FadeGains(t, f.fadeSamples)
		out[i] = o*old[i] + n*cur[i]
	}
}

// NewInputFader returns a fader with one slot per slot of upstream.
func (e *Engine) NewInputFader(upstream Stream) (*InputFader, error) {
	if upstream == nil || len(upstream.Slots()) == 0 {
		return nil, fmt.Errorf("input fader: %w: upstream has no slots", ErrConfiguration)
	}

	f := &InputFader{source: upstream}
	f.cur = f.inputs(e, upstream, len(upstream.Slots()))

	n, err := e.Build(Spec{
		Kind:   KindInputFader,
		Length: len(f.cur),
		Inputs: []Stream{upstream},
		Kernel: func(i int) (Kernel, error) {
			return &faderKernel{f: f, idx: i}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	f.Node = n

	e.addTicker(f)
	n.OnDestroy(func() { e.removeTicker(f) })

	return f, nil
}

func (f *InputFader) inputs(e *Engine, s Stream, count int) []*Input {
	p := Each(s)

	ins := make([]*Input, count)
	for i := range ins {
		ins[i] = e.NewInput(Resolve(p, i))
	}

	return ins
}

// Input returns the current upstream stream.
func (f *InputFader) Input() Stream { return f.source }

// Fading reports whether a crossfade is in progress.
func (f *InputFader) Fading() bool { return f.fading }

// SetInput replaces the upstream with s, crossfading over fadeSeconds
// starting at the next buffer. Zero switches immediately. A crossfade still
// in progress is completed first. The previous upstream is released once
// the fade finishes.
func (f *InputFader) SetInput(s Stream, fadeSeconds float64) error {
	if f.destroyed {
		return fmt.Errorf("input fader: %w", ErrClosed)
	}

	if fadeSeconds < 0 || math.IsNaN(fadeSeconds) || math.IsInf(fadeSeconds, 0) {
		return fmt.Errorf("input fader: %w: fade time must be finite and >= 0: %f", ErrConfiguration, fadeSeconds)
	}

	if s == nil || len(s.Slots()) == 0 {
		return fmt.Errorf("input fader: %w: upstream has no slots", ErrConfiguration)
	}

	if f.fading {
		f.finish()
	}

	e := f.engine
	next := f.inputs(e, s, len(f.slots))
	samples := fadeSeconds * e.cfg.SampleRate

	if samples >= 1 {
		f.retain("fade:old", Ref(f.source).owners())
		f.old = f.cur
		f.fading = true
		f.start = e.time
		f.fadeSamples = samples
	}

	f.cur = next
	f.source = s
	f.retain("inputs", Each(s).owners())

	e.log.Debug("input fader switched", "handle", f.handle, "fade", fadeSeconds, "fading", f.fading)

	return nil
}

func (f *InputFader) finish() {
	f.fading = false
	f.old = nil
	f.release("fade:old")
}

func (f *InputFader) endBlock(next int64) {
	if f.fading && float64(next-f.start) >= f.fadeSamples {
		f.finish()
	}
}
