package units

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

// Scale selects the unit of the pitch streams of Notes.
type Scale int

const (
	// ScaleMIDI streams MIDI note numbers.
	ScaleMIDI Scale = iota
	// ScaleHz streams frequencies in Hz, A4 = 440.
	ScaleHz
)

// MIDIToHz converts a MIDI note number to Hz.
func MIDIToHz(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// NotesArgs configures NewNotes.
type NotesArgs struct {
	// Poly is the number of voices. Default 10.
	Poly int
	// Scale selects the pitch unit.
	Scale Scale
	// First is the lowest accepted MIDI note. Default 0.
	First int
	// Last is the highest accepted MIDI note; nil means 127.
	Last *int
}

// Notes allocates incoming notes to a fixed number of voices. Its slots
// interleave pitch and velocity per voice and are exposed as the views
// "pitch" and "velocity". Velocities are scaled to [0, 1].
type Notes struct {
	*graph.Node

	scale       Scale
	first, last int
	values      []atomic.Uint64

	mu    sync.Mutex
	notes []int
	ages  []uint64
	clock uint64
}

type notesKernel struct {
	value *atomic.Uint64
}

func (k *notesKernel) Process(_ *graph.Block, out []float64) {
	v := math.Float64frombits(k.value.Load())
	for i := range out {
		out[i] = v
	}
}

// NewNotes returns a voice allocator.
func NewNotes(e *graph.Engine, a NotesArgs) (*Notes, error) {
	poly := a.Poly
	if poly == 0 {
		poly = 10
	}

	last := 127
	if a.Last != nil {
		last = *a.Last
	}

	switch {
	case poly < 0:
		return nil, fmt.Errorf("%s: %w: %d voices", graph.KindNotes, graph.ErrConfiguration, poly)
	case a.First < 0 || last > 127 || a.First > last:
		return nil, fmt.Errorf("%s: %w: note range [%d, %d]", graph.KindNotes, graph.ErrConfiguration, a.First, last)
	}

	ns := &Notes{
		scale:  a.Scale,
		first:  a.First,
		last:   last,
		values: make([]atomic.Uint64, 2*poly),
		notes:  make([]int, poly),
		ages:   make([]uint64, poly),
	}

	for i := range ns.notes {
		ns.notes[i] = -1
	}

	n, err := e.Build(graph.Spec{
		Kind:   graph.KindNotes,
		Length: 2 * poly,
		Kernel: func(i int) (graph.Kernel, error) {
			return &notesKernel{value: &ns.values[i]}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	err = n.DefineView("pitch", graph.Selection{Offset: 0, Step: 2, Count: poly})
	if err == nil {
		err = n.DefineView("velocity", graph.Selection{Offset: 1, Step: 2, Count: poly})
	}

	if err != nil {
		n.Close()
		return nil, err
	}

	ns.Node = n

	return ns, nil
}

// Poly returns the number of voices.
func (ns *Notes) Poly() int {
	return len(ns.notes)
}

// NoteOn assigns note to a free voice, or steals the oldest one. A
// velocity of zero releases the note. Notes outside the accepted range are
// ignored. It returns the voice used, or -1.
func (ns *Notes) NoteOn(note, velocity int) (int, error) {
	if velocity < 0 || velocity > 127 {
		return -1, fmt.Errorf("%w: velocity %d", graph.ErrBounds, velocity)
	}

	if velocity == 0 {
		return ns.NoteOff(note), nil
	}

	if note < ns.first || note > ns.last {
		return -1, nil
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	voice := -1

	for i, held := range ns.notes {
		if held == note {
			voice = i
			break
		}

		if held < 0 && voice < 0 {
			voice = i
		}
	}

	if voice < 0 {
		voice = 0
		for i, age := range ns.ages {
			if age < ns.ages[voice] {
				voice = i
			}
		}
	}

	ns.clock++
	ns.notes[voice] = note
	ns.ages[voice] = ns.clock

	pitch := float64(note)
	if ns.scale == ScaleHz {
		pitch = MIDIToHz(pitch)
	}

	ns.values[2*voice].Store(math.Float64bits(pitch))
	ns.values[2*voice+1].Store(math.Float64bits(float64(velocity) / 127))

	return voice, nil
}

// NoteOff releases note and returns the voice it held, or -1. The pitch
// stream keeps its last value so release envelopes stay in tune.
func (ns *Notes) NoteOff(note int) int {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	for i, held := range ns.notes {
		if held == note {
			ns.notes[i] = -1
			ns.values[2*i+1].Store(0)

			return i
		}
	}

	return -1
}
