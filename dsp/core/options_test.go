package core

import "testing"

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(
		WithSampleRate(96000),
		WithBlockSize(64),
		WithChannels(8),
		WithInputChannels(0),
	)

	if cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", cfg.SampleRate)
	}

	if cfg.BlockSize != 64 {
		t.Fatalf("block size = %d, want 64", cfg.BlockSize)
	}

	if cfg.Channels != 8 {
		t.Fatalf("channels = %d, want 8", cfg.Channels)
	}

	if cfg.InputChannels != 0 {
		t.Fatalf("input channels = %d, want 0", cfg.InputChannels)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithBlockSize(-1), WithChannels(0), WithInputChannels(-2), nil)

	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}
