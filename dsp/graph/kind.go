package graph

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a node. The set is closed: every node the
// runtime can build has one entry here, and builders dispatch on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindSig
	KindSine
	KindNoise
	KindPlayer
	KindInput
	KindBiquad
	KindBandSplit
	KindFader
	KindDelay
	KindReceiver
	KindNotes
	KindArith
	KindMix
	KindInputFader
	KindFFT
	KindFFTAnalyzer
	KindIFFT
	KindMagnitude
	KindPower
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindSig:         "sig",
	KindSine:        "sine",
	KindNoise:       "noise",
	KindPlayer:      "player",
	KindInput:       "input",
	KindBiquad:      "biquad",
	KindBandSplit:   "bandsplit",
	KindFader:       "fader",
	KindDelay:       "delay",
	KindReceiver:    "receiver",
	KindNotes:       "notes",
	KindArith:       "arith",
	KindMix:         "mix",
	KindInputFader:  "inputfader",
	KindFFT:         "fft",
	KindFFTAnalyzer: "fftanalyzer",
	KindIFFT:        "ifft",
	KindMagnitude:   "magnitude",
	KindPower:       "power",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a lower-case kind name as printed by Kind.String.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if k != int(KindUnknown) && n == key {
			return Kind(k), nil
		}
	}

	return KindUnknown, fmt.Errorf("%w: unknown node kind %q", ErrConfiguration, name)
}
