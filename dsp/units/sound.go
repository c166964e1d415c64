package units

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mitchellh/go-homedir"

	"github.com/cwbudde/algo-graph/dsp/signal"
)

// ErrUnsupportedFormat is returned for sound files that are neither WAV nor
// MP3.
var ErrUnsupportedFormat = errors.New("units: unsupported sound file format")

// Sound is a decoded sound file: one table per channel with samples in
// [-1, 1].
type Sound struct {
	Channels   [][]float64
	SampleRate float64
}

// Frames returns the length of the sound in sample frames.
func (s Sound) Frames() int {
	if len(s.Channels) == 0 {
		return 0
	}

	return len(s.Channels[0])
}

// PlayerArgs returns player arguments streaming the sound.
func (s Sound) PlayerArgs() PlayerArgs {
	return PlayerArgs{Tables: s.Channels, SampleRate: s.SampleRate}
}

// LoadSound decodes a WAV or MP3 file chosen by extension. A leading ~ in
// path expands to the home directory.
func LoadSound(path string) (Sound, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Sound{}, fmt.Errorf("load %s: %w", path, err)
	}

	f, err := os.Open(expanded)
	if err != nil {
		return Sound{}, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	var s Sound

	switch strings.ToLower(filepath.Ext(expanded)) {
	case ".wav", ".wave":
		s, err = DecodeWAV(f)
	case ".mp3":
		s, err = DecodeMP3(f)
	default:
		err = ErrUnsupportedFormat
	}

	if err != nil {
		return Sound{}, fmt.Errorf("load %s: %w", path, err)
	}

	return s, nil
}

// DecodeWAV decodes a PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (Sound, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Sound{}, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Sound{}, fmt.Errorf("decode wav: %w", err)
	}

	chans := int(d.NumChans)
	depth := int(d.BitDepth)

	if chans <= 0 || depth <= 0 || depth > 32 {
		return Sound{}, fmt.Errorf("%w: %d channels at %d bits", ErrUnsupportedFormat, chans, depth)
	}

	return Sound{
		Channels:   deinterleave(buf, chans, depth),
		SampleRate: float64(d.SampleRate),
	}, nil
}

func deinterleave(buf *audio.IntBuffer, chans, depth int) [][]float64 {
	frames := len(buf.Data) / chans
	scale := 1 / float64(int64(1)<<(depth-1))

	// 8-bit WAV samples are unsigned.
	offset := 0
	if depth == 8 {
		offset = 128
	}

	out := make([][]float64, chans)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}

	for f := range frames {
		for ch := range chans {
			out[ch][f] = float64(buf.Data[f*chans+ch]-offset) * scale
		}
	}

	return out
}

// DecodeMP3 decodes an MP3 stream into two channels.
func DecodeMP3(r io.Reader) (Sound, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return Sound{}, fmt.Errorf("decode mp3: %w", err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return Sound{}, fmt.Errorf("decode mp3: %w", err)
	}

	// The decoder always produces 16-bit little-endian stereo.
	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:2*len(samples)]), binary.LittleEndian, samples); err != nil {
		return Sound{}, fmt.Errorf("decode mp3: %w", err)
	}

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: d.SampleRate()},
		Data:           data,
		SourceBitDepth: 16,
	}

	return Sound{
		Channels:   deinterleave(buf, 2, 16),
		SampleRate: float64(d.SampleRate()),
	}, nil
}

// EncodeWAV writes channels as an interleaved PCM WAV stream of 16, 24 or
// 32 bits. Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, channels [][]float64, sampleRate, bitDepth int) error {
	if len(channels) == 0 {
		return fmt.Errorf("encode wav: %w: no channels", ErrUnsupportedFormat)
	}

	data, err := quantize(channels, bitDepth)
	if err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, len(channels), 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	return nil
}

func quantize(channels [][]float64, bitDepth int) ([]int, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit output", ErrUnsupportedFormat, bitDepth)
	}

	frames, err := signal.Interleave(channels)
	if err != nil {
		return nil, err
	}

	return signal.Quantize(frames, bitDepth)
}
