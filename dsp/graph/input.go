package graph

import "github.com/cwbudde/algo-graph/dsp/core"

// Input is one resolved broadcast position as seen by a kernel: either a
// constant or an upstream slot. Kernels must treat the buffers returned by
// Read as read-only.
type Input struct {
	slot     *Slot
	value    float64
	constant []float64
}

// NewInput resolves el into an Input. Stream elements feed their slot 0.
func (e *Engine) NewInput(el Elem) *Input {
	if s := el.Slot(); s != nil {
		return &Input{slot: s}
	}

	buf := make([]float64, e.cfg.BlockSize)
	core.Fill(buf, el.Value)

	return &Input{value: el.Value, constant: buf}
}

// NewConstInput returns a constant Input.
func (e *Engine) NewConstInput(v float64) *Input {
	return e.NewInput(Elem{Value: v})
}

// Read returns the input's samples for the current buffer.
func (in *Input) Read(b *Block) []float64 {
	if in.slot != nil {
		return in.slot.Read(b)
	}

	return in.constant
}

// Value returns a control-rate view of the input: the constant, or the first
// sample of the upstream slot for the current buffer.
func (in *Input) Value(b *Block) float64 {
	if in.slot == nil {
		return in.value
	}

	buf := in.slot.Read(b)
	if len(buf) == 0 {
		return 0
	}

	return buf[0]
}

// IsConstant reports whether the input is a scalar.
func (in *Input) IsConstant() bool {
	return in.slot == nil
}

// Is reports whether the input is the constant v.
func (in *Input) Is(v float64) bool {
	return in.slot == nil && in.value == v
}

// Slot returns the upstream slot, or nil for a constant.
func (in *Input) Slot() *Slot {
	return in.slot
}
