package units

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-graph/dsp/graph"
)

// Args holds the untyped arguments of one node as read from a patch.
type Args struct {
	// Params are numeric or stream arguments by name.
	Params map[string]graph.Param
	// Streams holds arguments that name exactly one stream. Stream prefers
	// them over Params so views keep their identity.
	Streams map[string]graph.Stream
	// Str are string arguments by name.
	Str map[string]string
	// Names lists receiver addresses.
	Names []string
}

// Param returns the named parameter, or nil.
func (a Args) Param(key string) graph.Param {
	return a.Params[key]
}

// GetNum returns the first scalar of the named parameter, or def when it
// is missing, a stream or not finite.
func (a Args) GetNum(key string, def float64) float64 {
	p := a.Params[key]
	if len(p) == 0 || p[0].IsStream() {
		return def
	}

	v := p[0].Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetInt is GetNum rounded to an int.
func (a Args) GetInt(key string, def int) int {
	return int(math.Round(a.GetNum(key, float64(def))))
}

// GetInts returns every scalar of the named parameter rounded to ints.
func (a Args) GetInts(key string) ([]int, error) {
	p := a.Params[key]

	out := make([]int, 0, len(p))
	for _, el := range p {
		if el.IsStream() {
			return nil, fmt.Errorf("%w: %q must be numeric", graph.ErrConfiguration, key)
		}

		out = append(out, int(math.Round(el.Value)))
	}

	return out, nil
}

// GetStr returns the named string argument, or def.
func (a Args) GetStr(key, def string) string {
	if v, ok := a.Str[key]; ok && v != "" {
		return v
	}

	return def
}

// Stream returns the named parameter as a stream. A single reference is
// returned as is; several references are concatenated slot by slot.
func (a Args) Stream(key string) (graph.Stream, error) {
	if s, ok := a.Streams[key]; ok && s != nil {
		return s, nil
	}

	p := a.Params[key]
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: missing stream argument %q", graph.ErrConfiguration, key)
	}

	if len(p) == 1 && p[0].IsStream() {
		return p[0].Stream, nil
	}

	var slots slotList

	for _, el := range p {
		if !el.IsStream() {
			return nil, fmt.Errorf("%w: %q mixes streams and numbers", graph.ErrConfiguration, key)
		}

		slots = append(slots, el.Stream.Slots()...)
	}

	return slots, nil
}

// slotList is an ad hoc stream over slots of any owners.
type slotList []*graph.Slot

func (l slotList) Slots() []*graph.Slot { return l }
