package core

// ProcessorConfig defines the processing settings shared by a graph and the
// driver that calls into it.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	// Channels is the number of hardware output channels.
	Channels int
	// InputChannels is the number of hardware input channels.
	InputChannels int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for offline and streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate:    48000,
		BlockSize:     256,
		Channels:      2,
		InputChannels: 2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the hardware output channel count.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithInputChannels sets the hardware input channel count. Zero is allowed
// for output-only drivers.
func WithInputChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels >= 0 {
			cfg.InputChannels = channels
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
