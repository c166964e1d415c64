package graph

import (
	"fmt"
	"slices"
)

// SpectralFormat tags streams that carry interleaved spectral frames so a
// consumer can check it matches its producer.
type SpectralFormat struct {
	FrameSize int
	Overlaps  int
}

func (f SpectralFormat) String() string {
	return fmt.Sprintf("%d/%d", f.FrameSize, f.Overlaps)
}

// Formatted is implemented by streams that may carry a spectral format.
type Formatted interface {
	SpectralFormat() (SpectralFormat, bool)
}

// FormatOf returns the spectral format carried by s. Bare slots report
// the format of their owner.
func FormatOf(s Stream) (SpectralFormat, bool) {
	if f, ok := s.(Formatted); ok {
		return f.SpectralFormat()
	}

	slots := s.Slots()
	if len(slots) == 0 || slots[0].owner == nil {
		return SpectralFormat{}, false
	}

	return slots[0].owner.SpectralFormat()
}

// Selection picks Count slots starting at Offset, Step apart.
type Selection struct {
	Offset int
	Step   int
	Count  int
}

// View is a read-only projection over a subset of a node's slots. It is a
// Stream and can be used anywhere a node is expected as input.
type View struct {
	node  *Node
	key   string
	slots []*Slot
}

// Key returns the name the view was requested under.
func (v *View) Key() string { return v.key }

// Node returns the projected node.
func (v *View) Node() *Node { return v.node }

// Slots returns a copy of the selected slots.
func (v *View) Slots() []*Slot { return slices.Clone(v.slots) }

// Len returns the number of selected slots.
func (v *View) Len() int { return len(v.slots) }

// Index returns selected slot i.
func (v *View) Index(i int) (*Slot, error) {
	if i < 0 || i >= len(v.slots) {
		return nil, fmt.Errorf("%w: slot %d of view %q with %d slots", ErrBounds, i, v.key, len(v.slots))
	}

	return v.slots[i], nil
}

// SpectralFormat returns the format of the projected node.
func (v *View) SpectralFormat() (SpectralFormat, bool) {
	return v.node.SpectralFormat()
}

// SpectralFormat returns the node's spectral format tag.
func (n *Node) SpectralFormat() (SpectralFormat, bool) {
	if n.format == nil {
		return SpectralFormat{}, false
	}

	return *n.format, true
}

// SetSpectralFormat tags the node's slots as spectral frames.
func (n *Node) SetSpectralFormat(f SpectralFormat) {
	n.format = &f
}

// DefineView registers a stride selection under key. Redefining a key
// drops the memoized view.
func (n *Node) DefineView(key string, sel Selection) error {
	if sel.Step <= 0 || sel.Count < 0 || sel.Offset < 0 {
		return fmt.Errorf("%w: view %q: invalid selection %+v", ErrConfiguration, key, sel)
	}

	if sel.Count > 0 && sel.Offset+(sel.Count-1)*sel.Step >= len(n.slots) {
		return fmt.Errorf("%w: view %q selects past slot %d", ErrBounds, key, len(n.slots)-1)
	}

	if n.rules == nil {
		n.rules = make(map[string]Selection)
	}

	n.rules[key] = sel
	delete(n.views, key)

	return nil
}

// SetAddresses replaces the ordered address table. Key i of the table
// selects slots i, i+len(addrs), i+2*len(addrs), ... Keys of the previous
// table stop resolving.
func (n *Node) SetAddresses(addrs []string) error {
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			return fmt.Errorf("%w: duplicate address %q", ErrConfiguration, a)
		}

		seen[a] = struct{}{}
	}

	for _, a := range n.addresses {
		delete(n.views, a)
	}

	for _, a := range addrs {
		delete(n.views, a)
	}

	n.addresses = slices.Clone(addrs)

	return nil
}

// Addresses returns the address table.
func (n *Node) Addresses() []string { return slices.Clone(n.addresses) }

// View returns the memoized projection registered under key, either a
// stride selection or an address table entry. Unknown keys are a
// configuration error.
func (n *Node) View(key string) (*View, error) {
	if v, ok := n.views[key]; ok {
		return v, nil
	}

	var slots []*Slot

	if sel, ok := n.rules[key]; ok {
		slots = make([]*Slot, 0, sel.Count)
		for j := range sel.Count {
			slots = append(slots, n.slots[sel.Offset+j*sel.Step])
		}
	} else if i := slices.Index(n.addresses, key); i >= 0 {
		for k := i; k < len(n.slots); k += len(n.addresses) {
			slots = append(slots, n.slots[k])
		}
	} else {
		return nil, fmt.Errorf("%w: %s has no output %q", ErrConfiguration, n.kind, key)
	}

	v := &View{node: n, key: key, slots: slots}

	if n.views == nil {
		n.views = make(map[string]*View)
	}

	n.views[key] = v

	return v, nil
}

// MustView is like View but panics on an unknown key. It is meant for keys
// a constructor defines itself.
func (n *Node) MustView(key string) *View {
	v, err := n.View(key)
	if err != nil {
		panic(err)
	}

	return v
}
