// Command render builds a YAML patch and renders it offline to a WAV file.
//
// Usage:
//
//	render [flags] patch.yaml
//
// Examples:
//
//	render -o tone.wav examples/tone.yaml
//	render -duration 10 -bits 24 -normalize 0.9 drone.yaml
//	render -bits 16 -dither tpdf -shape 9fc master.yaml
//	render -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/go-homedir"

	"github.com/cwbudde/algo-graph/dsp/dither"
	"github.com/cwbudde/algo-graph/dsp/graph"
	"github.com/cwbudde/algo-graph/dsp/patch"
	"github.com/cwbudde/algo-graph/dsp/signal"
	"github.com/cwbudde/algo-graph/dsp/units"
)

type options struct {
	output    string
	bits      int
	duration  float64
	normalize float64
	dither    string
	shape     string
	seed      uint64
	logLevel  string
	list      bool
	patch     string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	reg := units.DefaultRegistry()

	if opts.list {
		return printKinds(stdout, reg)
	}

	level, err := ResolveLogLevel(opts.logLevel)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	p, err := patch.Load(opts.patch)
	if err != nil {
		return err
	}

	if opts.duration > 0 {
		p.Duration = opts.duration
	}

	if p.Duration <= 0 {
		return errors.New("render: patch has no duration; pass -duration")
	}

	e, err := graph.NewEngine(p.Config(), graph.WithLogger(logger))
	if err != nil {
		return err
	}

	g, err := patch.Build(e, p, reg)
	if err != nil {
		return err
	}
	defer g.Close()

	out := renderEngine(e, p.Frames())

	if err := e.Health(); err != nil {
		logger.Warn("render produced non-finite samples", "err", err)
	}

	peak := signal.Peak(out)
	logger.Info("rendered", "frames", p.Frames(), "channels", len(out), "peak", peak)

	if opts.normalize > 0 && peak > 0 {
		if err := signal.Normalize(out, opts.normalize); err != nil {
			return err
		}
	} else if peak > 1 {
		logger.Warn("output clips; consider -normalize", "peak", peak)
	}

	if err := applyDither(out, opts); err != nil {
		return err
	}

	return writeWAV(opts.output, out, int(e.SampleRate()), opts.bits)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.output, "o", "out.wav", "output WAV file")
	fs.IntVar(&opts.bits, "bits", 16, "output bit depth: 16, 24 or 32")
	fs.Float64Var(&opts.duration, "duration", 0, "render length in seconds, overrides the patch")
	fs.Float64Var(&opts.normalize, "normalize", 0, "normalize to this peak; 0 leaves levels alone")
	fs.StringVar(&opts.dither, "dither", "tpdf", "dither before quantizing: none, rect or tpdf")
	fs.StringVar(&opts.shape, "shape", "none", "noise shaping preset: none, efb, 2sc, 3fc or 9fc")
	fs.Uint64Var(&opts.seed, "seed", 1, "dither noise seed")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVar(&opts.list, "list", false, "list node kinds and their parameters")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: render [flags] patch.yaml\n\n")
		fmt.Fprintf(stderr, "Builds an audio graph patch and renders it to a WAV file.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.list {
		return opts, nil
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("render: expected exactly one patch file")
	}

	opts.patch = fs.Arg(0)

	return opts, nil
}

// ResolveLogLevel maps a level name to a slog level.
func ResolveLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// applyDither moves the output onto the integer grid of the WAV bit depth.
// 32-bit output and "-dither none -shape none" skip the stage.
func applyDither(channels [][]float64, opts options) error {
	typ, err := dither.ParseType(opts.dither)
	if err != nil {
		return err
	}

	preset, err := dither.ParsePreset(opts.shape)
	if err != nil {
		return err
	}

	if opts.bits >= 32 || (typ == dither.None && preset == dither.PresetNone) {
		return nil
	}

	return dither.Channels(channels, opts.bits, opts.seed, dither.WithType(typ), dither.WithPreset(preset))
}

func renderEngine(e *graph.Engine, frames int) [][]float64 {
	out := make([][]float64, e.Channels())
	for ch := range out {
		out[ch] = make([]float64, 0, frames+e.BlockSize())
	}

	buf := make([][]float64, e.Channels())
	for ch := range buf {
		buf[ch] = make([]float64, e.BlockSize())
	}

	for done := 0; done < frames; done += e.BlockSize() {
		e.Process(nil, buf)

		for ch := range buf {
			out[ch] = append(out[ch], buf[ch]...)
		}
	}

	for ch := range out {
		out[ch] = out[ch][:frames]
	}

	return out
}

func writeWAV(path string, channels [][]float64, sampleRate, bits int) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	f, err := os.Create(expanded)
	if err != nil {
		return err
	}

	if err := units.EncodeWAV(f, channels, sampleRate, bits); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func printKinds(w io.Writer, reg *units.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, k := range reg.Kinds() {
		if _, err := fmt.Fprintf(tw, "%s\n", k); err != nil {
			return err
		}

		for _, p := range reg.Params(k) {
			def := p.Default
			if def == "" {
				def = "-"
			}

			if _, err := fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Name, def, p.Doc); err != nil {
				return err
			}
		}
	}

	return tw.Flush()
}
