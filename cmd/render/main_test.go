package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-graph/dsp/units"
	"github.com/cwbudde/algo-graph/internal/testutil"
)

func TestResolveLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"trace", 0, false},
	}

	for _, tc := range tests {
		got, err := ResolveLogLevel(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%s: got %v, %v", tc.in, got, err)
		}

		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.in)
		}
	}
}

func TestRunRendersPatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := `
sampleRate: 1000
blockSize: 16
channels: 2
duration: 0.1
nodes:
  - id: dc
    kind: sig
    params: {value: [0.25, -0.5]}
    out: [0]
`

	patchPath := filepath.Join(dir, "dc.yaml")
	if err := os.WriteFile(patchPath, []byte(src), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	outPath := filepath.Join(dir, "dc.wav")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-o", outPath, "-log-level", "warn", patchPath}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\n%s", err, stderr.String())
	}

	snd, err := units.LoadSound(outPath)
	if err != nil {
		t.Fatalf("LoadSound: %v", err)
	}

	if len(snd.Channels) != 2 || snd.Frames() != 100 || snd.SampleRate != 1000 {
		t.Fatalf("got %d channels, %d frames at %v Hz", len(snd.Channels), snd.Frames(), snd.SampleRate)
	}

	testutil.RequireNearly(t, "left", snd.Channels[0][50], 0.25, 1e-4)
	testutil.RequireNearly(t, "right", snd.Channels[1][50], -0.5, 1e-4)
}

func TestRunNormalize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := "sampleRate: 1000\nchannels: 1\nnodes:\n  - id: dc\n    kind: sig\n    params: {value: 3}\n    out: [0]\n"

	patchPath := filepath.Join(dir, "loud.yaml")
	if err := os.WriteFile(patchPath, []byte(src), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	outPath := filepath.Join(dir, "loud.wav")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-o", outPath, "-duration", "0.05", "-normalize", "0.5", "-bits", "24", patchPath}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	snd, err := units.LoadSound(outPath)
	if err != nil {
		t.Fatalf("LoadSound: %v", err)
	}

	testutil.RequireNearly(t, "peak", testutil.MaxAbs(snd.Channels[0]), 0.5, 1e-5)
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	noDuration := filepath.Join(dir, "nodur.yaml")
	if err := os.WriteFile(noDuration, []byte("nodes:\n  - id: a\n    kind: sig\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no patch", nil},
		{"missing file", []string{filepath.Join(dir, "missing.yaml")}},
		{"no duration", []string{noDuration}},
		{"bad level", []string{"-log-level", "loud", noDuration}},
		{"bad dither", []string{"-o", filepath.Join(dir, "d.wav"), "-duration", "0.01", "-dither", "gauss", noDuration}},
		{"bad shape", []string{"-o", filepath.Join(dir, "s.wav"), "-duration", "0.01", "-shape", "sbm", noDuration}},
	}

	for _, tc := range tests {
		var stdout, stderr bytes.Buffer
		if err := run(tc.args, &stdout, &stderr); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestRunList(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-list"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"sine", "freq", "bandsplit", "ifft", "overlaps"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing lacks %q:\n%s", want, out)
		}
	}
}
