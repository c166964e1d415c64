package patch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-graph/dsp/core"
	"github.com/cwbudde/algo-graph/dsp/graph"
)

// ErrInvalid is returned for patches that cannot be built.
var ErrInvalid = errors.New("invalid patch")

// Patch is a parsed patch file.
type Patch struct {
	SampleRate    float64 `yaml:"sampleRate"`
	BlockSize     int     `yaml:"blockSize"`
	Channels      int     `yaml:"channels"`
	InputChannels int     `yaml:"inputChannels"`
	// Duration is the render length in seconds.
	Duration float64 `yaml:"duration"`
	Nodes    []Node  `yaml:"nodes"`
}

// Node is one node definition.
type Node struct {
	ID      string            `yaml:"id"`
	Kind    string            `yaml:"kind"`
	Params  map[string]Value  `yaml:"params"`
	Options map[string]string `yaml:"options"`
	// Addresses are the receiver address names.
	Addresses []string `yaml:"addresses"`
	// Play arms the node without routing it.
	Play bool `yaml:"play"`
	// Out routes the node to hardware: [offset] or [offset, increment].
	Out []int `yaml:"out"`
}

// Parse decodes and validates a patch.
func Parse(data []byte) (*Patch, error) {
	var p Patch

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Load reads and parses the patch at path. A leading ~ expands to the home
// directory, and relative "path" options resolve against the patch's
// directory.
func Load(path string) (*Patch, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("load patch %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("load patch %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load patch %s: %w", path, err)
	}

	dir := filepath.Dir(expanded)

	for i := range p.Nodes {
		file, ok := p.Nodes[i].Options["path"]
		if !ok || file == "" || filepath.IsAbs(file) || strings.HasPrefix(file, "~") {
			continue
		}

		p.Nodes[i].Options["path"] = filepath.Join(dir, file)
	}

	return p, nil
}

// Validate checks ids, kinds and routing.
func (p *Patch) Validate() error {
	if p.SampleRate < 0 || p.BlockSize < 0 || p.Channels < 0 || p.InputChannels < 0 || p.Duration < 0 {
		return fmt.Errorf("%w: negative engine setting", ErrInvalid)
	}

	if len(p.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalid)
	}

	seen := make(map[string]struct{}, len(p.Nodes))

	for i, n := range p.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalid, i)
		}

		if strings.Contains(n.ID, ".") {
			return fmt.Errorf("%w: node id %q contains a dot", ErrInvalid, n.ID)
		}

		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalid, n.ID)
		}

		seen[n.ID] = struct{}{}

		if _, err := graph.ParseKind(n.Kind); err != nil {
			return fmt.Errorf("%w: node %q: %w", ErrInvalid, n.ID, err)
		}

		if len(n.Out) > 2 {
			return fmt.Errorf("%w: node %q: out takes an offset and an increment", ErrInvalid, n.ID)
		}
	}

	return nil
}

// Config returns the engine configuration of the patch. Unset fields keep
// the core defaults.
func (p *Patch) Config() core.ProcessorConfig {
	return core.ApplyProcessorOptions(
		core.WithSampleRate(p.SampleRate),
		core.WithBlockSize(p.BlockSize),
		core.WithChannels(p.Channels),
		core.WithInputChannels(p.InputChannels),
	)
}

// Frames returns the render length in sample frames.
func (p *Patch) Frames() int {
	return int(p.Duration * p.Config().SampleRate)
}
