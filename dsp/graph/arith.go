package graph

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// Op is a binary arithmetic operation between a stream and a parameter.
type Op int

const (
	// OpAdd computes a + b.
	OpAdd Op = iota
	// OpSub computes a - b.
	OpSub
	// OpMul computes a * b.
	OpMul
	// OpDiv computes a / b, with 0 where b is 0.
	OpDiv
	// OpSubFrom computes b - a.
	OpSubFrom
	// OpDivFrom computes b / a, with 0 where a is 0.
	OpDivFrom
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpSubFrom:
		return "-from"
	case OpDivFrom:
		return "/from"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

type arithKernel struct {
	op   Op
	a, b *Input
}

func (k *arithKernel) Process(bl *Block, out []float64) {
	a := k.a.Read(bl)
	b := k.b.Read(bl)

	switch k.op {
	case OpAdd:
		vecmath.AddBlock(out, a, b)
	case OpSub:
		for i := range out {
			out[i] = a[i] - b[i]
		}
	case OpMul:
		vecmath.MulBlock(out, a, b)
	case OpDiv:
		for i := range out {
			out[i] = safeDiv(a[i], b[i])
		}
	case OpSubFrom:
		for i := range out {
			out[i] = b[i] - a[i]
		}
	case OpDivFrom:
		for i := range out {
			out[i] = safeDiv(b[i], a[i])
		}
	}
}

// Apply builds a composite node whose slot k computes a[k] op b[k], with
// both sides wrapped to the longer length. The result is a new node; a and
// b are unchanged. The composite starts armed and is closed together with
// the node owning a.
func Apply(a Stream, op Op, b Param) (*Node, error) {
	left := Each(a)
	if len(left) == 0 {
		return nil, fmt.Errorf("arith %s: %w: left operand has no slots", op, ErrConfiguration)
	}

	owners := left.owners()
	if len(owners) == 0 {
		return nil, fmt.Errorf("arith %s: %w: left operand has no owner", op, ErrConfiguration)
	}

	e := owners[0].engine

	for _, o := range owners {
		if o.destroyed {
			return nil, fmt.Errorf("arith %s: %w", op, ErrClosed)
		}
	}

	n, err := e.Build(Spec{
		Kind:   KindArith,
		Params: []Param{left, b},
		Armed:  true,
		Kernel: func(i int) (Kernel, error) {
			return &arithKernel{
				op: op,
				a:  e.NewInput(Resolve(left, i)),
				b:  e.NewInput(Resolve(b, i)),
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if f, ok := FormatOf(a); ok {
		n.SetSpectralFormat(f)
	}

	for _, o := range owners {
		o.addTrace(n)
	}

	return n, nil
}

// Plus returns a new node computing a + b.
func Plus(a Stream, b Param) (*Node, error) { return Apply(a, OpAdd, b) }

// Minus returns a new node computing a - b.
func Minus(a Stream, b Param) (*Node, error) { return Apply(a, OpSub, b) }

// Times returns a new node computing a * b.
func Times(a Stream, b Param) (*Node, error) { return Apply(a, OpMul, b) }

// Div returns a new node computing a / b.
func Div(a Stream, b Param) (*Node, error) { return Apply(a, OpDiv, b) }

// MinusFrom returns a new node computing b - a.
func MinusFrom(b Param, a Stream) (*Node, error) { return Apply(a, OpSubFrom, b) }

// DivFrom returns a new node computing b / a.
func DivFrom(b Param, a Stream) (*Node, error) { return Apply(a, OpDivFrom, b) }

// ScaleInPlace replaces the node's multiplicative control with p and
// returns n itself.
func (n *Node) ScaleInPlace(p Param) (*Node, error) {
	return n.setControl("mul", p, false)
}

// DivInPlace replaces the node's multiplicative control with 1/p and
// returns n itself. Samples where p is 0 become 0.
func (n *Node) DivInPlace(p Param) (*Node, error) {
	return n.setControl("mul", p, true)
}

// AddInPlace replaces the node's additive control with p and returns n
// itself.
func (n *Node) AddInPlace(p Param) (*Node, error) {
	return n.setControl("add", p, false)
}

// SubInPlace replaces the node's additive control with -p and returns n
// itself.
func (n *Node) SubInPlace(p Param) (*Node, error) {
	return n.setControl("add", p, true)
}

func (n *Node) setControl(which string, p Param, inverse bool) (*Node, error) {
	if n.destroyed {
		return nil, fmt.Errorf("%s %s: %w", n.kind, which, ErrClosed)
	}

	if _, _, err := Normalize(p); err != nil {
		return nil, fmt.Errorf("%s %s: %w", n.kind, which, err)
	}

	for i, s := range n.slots {
		in := n.engine.NewInput(Resolve(p, i))

		if which == "mul" {
			s.mul, s.divide = in, inverse
		} else {
			s.add, s.negate = in, inverse
		}
	}

	n.retain("control:"+which, p.owners())

	return n, nil
}

func mulInPlace(dst, src []float64) {
	vecmath.MulBlockInPlace(dst, src)
}
