// Package spectral implements overlapped short-time analysis and
// resynthesis on top of the graph runtime.
//
// An [FFT] owns overlaps x channels analysis helpers. Helper j within a
// channel starts its frames frameSize*j/overlaps samples late, so the
// helpers' windows are evenly staggered across one frame period. Each
// helper streams its spectrum one bin per sample through the "real",
// "imag" and "bin" views of the FFT node.
//
// An [IFFT] consumes matching real and imag streams and produces one
// time-domain slot per (channel, overlap) pair. The caller folds them back
// with Mix(channels):
//
//	fft, _ := spectral.NewFFT(e, src, spectral.DefaultConfig())
//	ifft, _ := spectral.NewIFFT(e, fft.Real(), fft.Imag(), spectral.DefaultConfig())
//	out, _ := ifft.Mix(channels)
//
// The round trip delays the input by [Latency] samples and scales it by
// [OverlapGain]. Both nodes carry a [graph.SpectralFormat] tag and NewIFFT
// rejects streams produced with a different frame size or overlap count.
package spectral
