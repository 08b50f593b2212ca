// Package normalize validates a parsed syntax tree and rewrites it into the
// explicit form the engine consumes.
package normalize

import (
	"fmt"
	"strings"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/latex"
)

// Policy decides which symbols may appear inside numeric-only functions.
type Policy int

const (
	// Permissive allows symbols everywhere.
	Permissive Policy = iota
	// Strict rejects free symbols inside floor, ceil and factorial.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "permissive"
}

// ParsePolicy maps "permissive" or "strict" (any case) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	}
	return Permissive, fmt.Errorf("unknown domain policy %q", s)
}

// MaxDerivativeOrder bounds \frac{d^n}{dx^n}.
const MaxDerivativeOrder = 10

// DefaultVariable is bound to an integral written without a differential
// whose integrand has no symbols.
const DefaultVariable = "x"

var numericOnly = map[string]bool{"floor": true, "ceil": true}

// Normalize returns a rewritten copy of tree:
//   - Juxtaposition becomes left-associative BinaryOp("*")
//   - log(x, b) becomes ln(x)/ln(b) and log(x) becomes ln(x)
//   - sqrt(x) and sqrt(x, n) become powers with exponent 1/2 and 1/n
//   - an integral without a differential binds its lexically-first free
//     symbol
//
// Function arity, integral bounds, limit points and derivative orders are
// validated. Failures are *calcerr.Error values of kind KindValidation.
func Normalize(tree latex.Node, policy Policy) (latex.Node, error) {
	n := &normalizer{policy: policy}
	return n.walk(tree, 0)
}

type normalizer struct {
	policy Policy
}

func invalid(format string, args ...any) error {
	return calcerr.New(calcerr.KindValidation, calcerr.StageNormalize, format, args...)
}

func (n *normalizer) walk(node latex.Node, depth int) (latex.Node, error) {
	switch v := node.(type) {
	case *latex.Number, *latex.Symbol, *latex.Constant:
		return v, nil

	case *latex.Juxtaposition:
		if len(v.Factors) < 2 {
			return nil, invalid("implicit product needs two factors, got %d", len(v.Factors))
		}
		out, err := n.walk(v.Factors[0], depth+1)
		if err != nil {
			return nil, err
		}
		for _, f := range v.Factors[1:] {
			r, err := n.walk(f, depth+1)
			if err != nil {
				return nil, err
			}
			out = &latex.BinaryOp{Op: "*", Left: out, Right: r}
		}
		return out, nil

	case *latex.BinaryOp:
		if v.Left == nil || v.Right == nil {
			return nil, invalid("operator %s needs two operands", v.Op)
		}
		if !strings.Contains("+-*/^", v.Op) || len(v.Op) != 1 {
			return nil, invalid("unknown operator %q", v.Op)
		}
		l, err := n.walk(v.Left, depth+1)
		if err != nil {
			return nil, err
		}
		r, err := n.walk(v.Right, depth+1)
		if err != nil {
			return nil, err
		}
		return &latex.BinaryOp{Op: v.Op, Left: l, Right: r}, nil

	case *latex.UnaryOp:
		if v.Operand == nil {
			return nil, invalid("operator %s needs an operand", v.Op)
		}
		x, err := n.walk(v.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		if v.Op == "!" && n.policy == Strict {
			if syms := latex.FreeSymbols(x); len(syms) > 0 {
				return nil, invalid("factorial needs a numeric argument, found %s", strings.Join(syms, ", "))
			}
		}
		return &latex.UnaryOp{Op: v.Op, Operand: x}, nil

	case *latex.Function:
		return n.function(v, depth)

	case *latex.Equation:
		if depth > 0 {
			return nil, invalid("an equation cannot be nested inside an expression")
		}
		l, err := n.walk(v.LHS, depth+1)
		if err != nil {
			return nil, err
		}
		r, err := n.walk(v.RHS, depth+1)
		if err != nil {
			return nil, err
		}
		return &latex.Equation{LHS: l, RHS: r}, nil

	case *latex.Integral:
		return n.integral(v, depth)

	case *latex.Limit:
		if v.Var == "" || v.Point == nil {
			return nil, invalid("limit needs a variable and a point")
		}
		for _, s := range latex.FreeSymbols(v.Point) {
			if s == v.Var {
				return nil, invalid("limit point cannot depend on %s", v.Var)
			}
		}
		if v.Dir != "" && v.Dir != "+" && v.Dir != "-" {
			return nil, invalid("unknown limit direction %q", v.Dir)
		}
		body, err := n.walk(v.Body, depth+1)
		if err != nil {
			return nil, err
		}
		point, err := n.walk(v.Point, depth+1)
		if err != nil {
			return nil, err
		}
		return &latex.Limit{Body: body, Var: v.Var, Point: point, Dir: v.Dir}, nil

	case *latex.Derivative:
		if v.Order < 1 || v.Order > MaxDerivativeOrder {
			return nil, invalid("derivative order must be between 1 and %d, got %d", MaxDerivativeOrder, v.Order)
		}
		body, err := n.walk(v.Body, depth+1)
		if err != nil {
			return nil, err
		}
		return &latex.Derivative{Body: body, Var: v.Var, Order: v.Order}, nil
	}
	return nil, invalid("unsupported node %T", node)
}

func (n *normalizer) function(v *latex.Function, depth int) (latex.Node, error) {
	arity, ok := latex.LookupFunction(v.Name)
	if !ok {
		return nil, invalid("unknown function %s", v.Name)
	}
	if len(v.Args) < arity.Min || len(v.Args) > arity.Max {
		return nil, invalid("%s takes %s, got %d", v.Name, describeArity(arity), len(v.Args))
	}
	args := make([]latex.Node, len(v.Args))
	for i, a := range v.Args {
		x, err := n.walk(a, depth+1)
		if err != nil {
			return nil, err
		}
		args[i] = x
	}
	if numericOnly[v.Name] && n.policy == Strict {
		if syms := latex.FreeSymbols(args[0]); len(syms) > 0 {
			return nil, invalid("%s needs a numeric argument, found %s", v.Name, strings.Join(syms, ", "))
		}
	}
	switch v.Name {
	case "log":
		ln := &latex.Function{Name: "ln", Args: []latex.Node{args[0]}}
		if len(args) == 1 {
			return ln, nil
		}
		return &latex.BinaryOp{Op: "/", Left: ln, Right: &latex.Function{Name: "ln", Args: []latex.Node{args[1]}}}, nil
	case "sqrt":
		var index latex.Node = &latex.Number{Text: "2"}
		if len(args) == 2 {
			index = args[1]
		}
		exp := &latex.BinaryOp{Op: "/", Left: &latex.Number{Text: "1"}, Right: index}
		return &latex.BinaryOp{Op: "^", Left: args[0], Right: exp}, nil
	}
	return &latex.Function{Name: v.Name, Args: args}, nil
}

func (n *normalizer) integral(v *latex.Integral, depth int) (latex.Node, error) {
	if (v.Lower == nil) != (v.Upper == nil) {
		return nil, invalid("a definite integral needs both bounds")
	}
	body, err := n.walk(v.Body, depth+1)
	if err != nil {
		return nil, err
	}
	out := &latex.Integral{Body: body, Var: v.Var}
	if out.Var == "" {
		out.Var = DefaultVariable
		if syms := latex.FreeSymbols(body); len(syms) > 0 {
			out.Var = syms[0]
		}
	}
	if v.Lower != nil {
		if out.Lower, err = n.walk(v.Lower, depth+1); err != nil {
			return nil, err
		}
		if out.Upper, err = n.walk(v.Upper, depth+1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func describeArity(a latex.Arity) string {
	plural := func(k int) string {
		if k == 1 {
			return "1 argument"
		}
		return fmt.Sprintf("%d arguments", k)
	}
	if a.Min == a.Max {
		return "exactly " + plural(a.Min)
	}
	return fmt.Sprintf("%d to %s", a.Min, plural(a.Max))
}
