package graph

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	for k := KindSig; k <= KindPower; k++ {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}

	if got, err := ParseKind(" BandSplit "); err != nil || got != KindBandSplit {
		t.Fatalf("case and space folding: got %v, %v", got, err)
	}

	for _, name := range []string{"unknown", "", "osc"} {
		if _, err := ParseKind(name); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("ParseKind(%q): got %v, want ErrConfiguration", name, err)
		}
	}

	if s := Kind(99).String(); s != "kind(99)" {
		t.Fatalf("out-of-range String = %q", s)
	}
}
