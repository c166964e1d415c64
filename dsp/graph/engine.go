package graph

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"

	"github.com/cwbudde/algo-graph/dsp/core"
)

// Handle is a stable identifier of a node within its engine.
type Handle uint64

// ticker is advanced once at the end of every buffer.
type ticker interface {
	endBlock(next int64)
}

// Engine owns the arena of live nodes and computes them once per buffer.
//
// Engine does not start threads. Process is called by the audio driver;
// graph edits that race with a running driver must be wrapped in Edit.
type Engine struct {
	mu sync.Mutex

	cfg core.ProcessorConfig
	log *slog.Logger
	rng *rand.Rand

	nodes      map[Handle]*Node
	slots      []*Slot
	tickers    []ticker
	nextHandle Handle

	block Block
	time  int64

	nonFinite int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSeed seeds the random channel permutation used by Out with a
// negative offset.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// NewEngine validates cfg and returns an empty engine.
func NewEngine(cfg core.ProcessorConfig, opts ...Option) (*Engine, error) {
	if cfg.SampleRate <= 0 || !core.IsFinite(cfg.SampleRate) {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %f", ErrConfiguration, cfg.SampleRate)
	}

	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be > 0: %d", ErrConfiguration, cfg.BlockSize)
	}

	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("%w: channel count must be > 0: %d", ErrConfiguration, cfg.Channels)
	}

	if cfg.InputChannels < 0 {
		return nil, fmt.Errorf("%w: input channel count must be >= 0: %d", ErrConfiguration, cfg.InputChannels)
	}

	e := &Engine{
		cfg:   cfg,
		log:   slog.New(slog.DiscardHandler),
		rng:   rand.New(rand.NewSource(1)),
		nodes: make(map[Handle]*Node),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.block = Block{Size: cfg.BlockSize, SampleRate: cfg.SampleRate}

	return e, nil
}

// Config returns the processing configuration.
func (e *Engine) Config() core.ProcessorConfig { return e.cfg }

// SampleRate returns the sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.cfg.SampleRate }

// BlockSize returns the number of frames per buffer.
func (e *Engine) BlockSize() int { return e.cfg.BlockSize }

// Channels returns the hardware output channel count.
func (e *Engine) Channels() int { return e.cfg.Channels }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.log }

// Time returns the sample index of the next buffer's first frame.
func (e *Engine) Time() int64 { return e.time }

// Len returns the number of live nodes.
func (e *Engine) Len() int { return len(e.nodes) }

// Lookup returns the live node with handle h.
func (e *Engine) Lookup(h Handle) (*Node, bool) {
	n, ok := e.nodes[h]
	return n, ok
}

// Edit runs fn while holding the engine lock, so its graph changes take
// effect at a buffer boundary.
func (e *Engine) Edit(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return fn()
}

// Health reports ErrRuntimeAudio if non-finite samples were dropped since
// the previous call, and resets the counter.
func (e *Engine) Health() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.nonFinite
	e.nonFinite = 0

	if n > 0 {
		return fmt.Errorf("%w: %d samples dropped", ErrRuntimeAudio, n)
	}

	return nil
}

// Process computes one buffer. in holds the hardware input channels and may
// be nil; out holds the hardware output channels and is overwritten. Every
// non-idle slot is computed exactly once; active slots are summed into their
// bound channel. Process never fails.
func (e *Engine) Process(in, out [][]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range out {
		core.Zero(ch)
	}

	b := &e.block
	b.Tick++
	b.Time = e.time
	b.in = in

	for _, s := range e.slots {
		if s.state == StateIdle {
			continue
		}

		buf := s.Read(b)

		if s.channel < 0 || s.channel >= len(out) || s.state == StateArmed {
			continue
		}

		e.route(s, buf, out[s.channel])
	}

	e.time += int64(b.Size)

	for _, s := range e.slots {
		if s.state != StateReleasing {
			continue
		}

		if r, ok := s.kernel.(Releaser); ok && r.Released() {
			s.state = StateIdle
			s.channel = -1
		}
	}

	// Tickers may destroy nodes, which edits e.tickers.
	for _, t := range slices.Clone(e.tickers) {
		t.endBlock(e.time)
	}

	b.in = nil
}

func (e *Engine) route(s *Slot, buf, dst []float64) {
	n := min(len(buf), len(dst))
	bad := 0

	for i := range n {
		v := buf[i]
		if !core.IsFinite(v) {
			bad++
			continue
		}

		dst[i] += v
	}

	if bad == 0 {
		return
	}

	e.nonFinite += bad

	if !s.warned {
		s.warned = true
		e.log.Warn("dropping non-finite samples",
			"kind", s.owner.kind, "handle", s.owner.handle, "slot", s.index, "count", bad)
	}
}

func (e *Engine) register(n *Node) {
	e.nextHandle++
	n.handle = e.nextHandle
	e.nodes[n.handle] = n
	e.slots = append(e.slots, n.slots...)
}

func (e *Engine) forget(n *Node) {
	delete(e.nodes, n.handle)

	e.slots = slices.DeleteFunc(e.slots, func(s *Slot) bool { return s.owner == n })
}

func (e *Engine) addTicker(t ticker) {
	e.tickers = append(e.tickers, t)
}

func (e *Engine) removeTicker(t ticker) {
	e.tickers = slices.DeleteFunc(e.tickers, func(x ticker) bool { return x == t })
}
