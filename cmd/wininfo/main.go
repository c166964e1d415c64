// Command wininfo prints the analysis windows available to the spectral
// engine, with their coherent gain and the overlap-add gain an FFT/IFFT
// pair incurs at each overlap count. With -bands it instead prints the
// band layout of a bandsplit node and how much adjacent bands overlap.
//
// Usage:
//
//	wininfo [flags] [window-name ...]
//
// Without arguments it prints info for all known window types.
//
// Examples:
//
//	wininfo hann
//	wininfo -size 2048 -overlaps 2,4,8 blackman
//	wininfo -alpha 0.25 tukey
//	wininfo -list
//	wininfo -bands 6 -band-min 70 -band-max 7000 -q 1
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-graph/dsp/filter/design"
	"github.com/cwbudde/algo-graph/dsp/units"
	"github.com/cwbudde/algo-graph/dsp/window"
)

type bandOptions struct {
	num        int
	lo, hi     float64
	q          float64
	sampleRate float64
}

func main() {
	size := flag.Int("size", 1024, "frame size in samples")
	alpha := flag.Float64("alpha", -1, "taper ratio of the tukey window")
	overlaps := flag.String("overlaps", "1,2,4,8", "comma separated overlap counts")
	list := flag.Bool("list", false, "list available window names")

	var bands bandOptions
	flag.IntVar(&bands.num, "bands", 0, "print the layout of a bandsplit with this many bands")
	flag.Float64Var(&bands.lo, "band-min", 70, "lowest band centre in Hz")
	flag.Float64Var(&bands.hi, "band-max", 7000, "highest band centre in Hz")
	flag.Float64Var(&bands.q, "q", 1, "band Q")
	flag.Float64Var(&bands.sampleRate, "rate", 48000, "sample rate in Hz")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wininfo [flags] [window-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints coherent and overlap-add gains of spectral windows.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for _, t := range window.Types() {
			fmt.Println(t)
		}

		return
	}

	if bands.num > 0 {
		if err := printBands(os.Stdout, bands); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}

		return
	}

	counts, err := parseOverlaps(*overlaps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	types, err := resolveTypes(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	var opts []window.Option
	if *alpha >= 0 {
		opts = append(opts, window.WithAlpha(*alpha))
	}

	if err := printTable(os.Stdout, types, *size, counts, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseOverlaps(s string) ([]int, error) {
	var out []int

	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid overlap count %q", f)
		}

		out = append(out, n)
	}

	return out, nil
}

func resolveTypes(names []string) ([]window.Type, error) {
	if len(names) == 0 {
		return window.Types(), nil
	}

	out := make([]window.Type, 0, len(names))

	for _, name := range names {
		t, err := window.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("%w (use -list to see available)", err)
		}

		out = append(out, t)
	}

	return out, nil
}

func printTable(w io.Writer, types []window.Type, size int, overlaps []int, opts []window.Option) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"Window", "Size", "Coherent Gain"}
	for _, n := range overlaps {
		header = append(header, fmt.Sprintf("OLA x%d", n), fmt.Sprintf("Ripple x%d", n))
	}

	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, t := range types {
		cg, err := window.CoherentGain(window.Generate(t, size, append([]window.Option{window.WithPeriodic()}, opts...)...))
		if err != nil {
			return err
		}

		row := []string{t.String(), strconv.Itoa(size), fmt.Sprintf("%.6f", cg)}

		for _, n := range overlaps {
			gain, err := window.OverlapAddGain(t, size, n, opts...)
			if err != nil {
				row = append(row, "-", "-")
				continue
			}

			ripple, err := window.OverlapAddRipple(t, size, n, opts...)
			if err != nil {
				return err
			}

			row = append(row, fmt.Sprintf("%.4f", gain), fmt.Sprintf("%.2e", ripple))
		}

		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// printBands lists each band centre with its peak gain and its gain at the
// neighbouring centres, the crossover overlap of a bandsplit.
func printBands(w io.Writer, o bandOptions) error {
	if o.num < 1 || o.q <= 0 || o.lo <= 0 || o.hi < o.lo || o.hi >= o.sampleRate/2 {
		return fmt.Errorf("invalid band layout: %d bands over %g..%g Hz, q %g at %g Hz",
			o.num, o.lo, o.hi, o.q, o.sampleRate)
	}

	centers := units.BandCenters(o.num, o.lo, o.hi)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "Band\tCentre Hz\tPeak dB\tAt lower dB\tAt upper dB"); err != nil {
		return err
	}

	for i, fc := range centers {
		c := design.Bandpass(fc, o.q, o.sampleRate)

		lower, upper := "-", "-"
		if i > 0 {
			lower = fmt.Sprintf("%.1f", c.MagnitudeDB(centers[i-1], o.sampleRate))
		}

		if i < len(centers)-1 {
			upper = fmt.Sprintf("%.1f", c.MagnitudeDB(centers[i+1], o.sampleRate))
		}

		peak := c.MagnitudeDB(fc, o.sampleRate)
		if _, err := fmt.Fprintf(tw, "%d\t%.1f\t%.2f\t%s\t%s\n", i, fc, peak, lower, upper); err != nil {
			return err
		}
	}

	return tw.Flush()
}
