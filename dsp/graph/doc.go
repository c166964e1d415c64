// Package graph is the runtime core of the audio graph: it turns declarative
// node construction into per-buffer computations driven by an external
// real-time callback.
//
// A [Node] is an ordered, append-only list of [Slot]s. Each Slot is one mono
// stream computed by a [Kernel]. Parameters are [Param] sequences that are
// broadcast over a node's slots with modulo wraparound, so four frequencies
// and one shared Q build four filter instances.
//
// # Driving the graph
//
// The [Engine] owns no thread. The audio driver calls [Engine.Process] once
// per buffer; every non-idle slot is computed exactly once per buffer, even
// when several readers share it. Graph edits made while a driver is running
// must go through [Engine.Edit] so they land on a buffer boundary.
//
// # Composition
//
// [Times], [Plus], [Minus], [Div] and the reverse forms build new composite
// nodes. The in-place forms ([Node.ScaleInPlace], [Node.AddInPlace], ...)
// replace the receiver's own multiplicative or additive control input and
// return the same node.
//
// # Named outputs
//
// Multi-output nodes expose [View]s selected by a stride rule or by an
// address table. A View is a [Stream] and can be used wherever a node is
// expected.
//
// Construction errors wrap [ErrConfiguration] or [ErrBounds]. Per-buffer
// computation never fails; non-finite output samples are dropped and
// reported through [Engine.Health] as [ErrRuntimeAudio].
package graph
