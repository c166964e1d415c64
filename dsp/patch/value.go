package patch

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is one element of a parameter value: a number or a reference.
type Item struct {
	Num float64
	Ref string
}

// IsRef reports whether the item references a node.
func (it Item) IsRef() bool {
	return it.Ref != ""
}

// Value is a parameter as written in a patch: a scalar or a flat list of
// scalars. Strings are references, booleans read as 0 and 1.
type Value []Item

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		it, err := decodeItem(n)
		if err != nil {
			return err
		}

		*v = Value{it}

		return nil
	case yaml.SequenceNode:
		out := make(Value, 0, len(n.Content))

		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: parameter lists must be flat", c.Line)
			}

			it, err := decodeItem(c)
			if err != nil {
				return err
			}

			out = append(out, it)
		}

		if len(out) == 0 {
			return fmt.Errorf("line %d: empty parameter list", n.Line)
		}

		*v = out

		return nil
	default:
		return fmt.Errorf("line %d: parameters must be scalars or lists", n.Line)
	}
}

func decodeItem(n *yaml.Node) (Item, error) {
	switch n.ShortTag() {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)
		if err != nil {
			var i int64
			if err := n.Decode(&i); err != nil {
				return Item{}, fmt.Errorf("line %d: invalid number %q", n.Line, n.Value)
			}

			f = float64(i)
		}

		return Item{Num: f}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Item{}, fmt.Errorf("line %d: %w", n.Line, err)
		}

		if b {
			return Item{Num: 1}, nil
		}

		return Item{}, nil
	case "!!str":
		ref := strings.TrimSpace(n.Value)
		if ref == "" {
			return Item{}, fmt.Errorf("line %d: empty reference", n.Line)
		}

		return Item{Ref: ref}, nil
	default:
		return Item{}, fmt.Errorf("line %d: unsupported value %q", n.Line, n.Value)
	}
}

// Refs returns the node ids referenced by v.
func (v Value) Refs() []string {
	var out []string

	for _, it := range v {
		if it.IsRef() {
			id, _, _ := strings.Cut(it.Ref, ".")
			out = append(out, id)
		}
	}

	return out
}
