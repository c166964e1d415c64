package graph

import "errors"

var (
	// ErrConfiguration reports an invalid construction-time argument: an empty
	// parameter sequence, a bad frame size, a negative fade time or an
	// unknown view key.
	ErrConfiguration = errors.New("graph: configuration error")
	// ErrBounds reports an out-of-range slot or view index.
	ErrBounds = errors.New("graph: index out of range")
	// ErrRuntimeAudio reports non-finite samples that were dropped while
	// processing buffers.
	ErrRuntimeAudio = errors.New("graph: non-finite audio")
	// ErrClosed reports an operation on a destroyed node.
	ErrClosed = errors.New("graph: node closed")
)
