// Package latex parses LaTeX math fragments into a syntax tree.
//
// The tree is deliberately close to the source text: implicit
// multiplication is kept as Juxtaposition and calculus notation keeps its
// own nodes. The normalizer in internal/normalize turns it into the form the
// engine consumes.
package latex

import (
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Node is one immutable syntax tree node.
type Node interface {
	String() string
	node()
}

// Number is a numeric literal as written, e.g. "2" or "0.25".
type Number struct{ Text string }

// Symbol is a variable: a single letter, a Greek macro name, or a
// subscripted form such as "x_1".
type Symbol struct{ Name string }

// Constant is one of "pi", "e" or "infty".
type Constant struct{ Name string }

// BinaryOp is one of + - * / ^.
type BinaryOp struct {
	Op          string
	Left, Right Node
}

// UnaryOp is negation ("-") or factorial ("!").
type UnaryOp struct {
	Op      string
	Operand Node
}

// Function applies a function table entry. log keeps its base as the second
// argument and sqrt its index.
type Function struct {
	Name string
	Args []Node
}

// Juxtaposition is implicit multiplication, e.g. 2x. Only the parser
// produces it.
type Juxtaposition struct{ Factors []Node }

type Equation struct{ LHS, RHS Node }

// Integral is \int body dVar, definite when Lower and Upper are set.
// Var is empty when no differential was written.
type Integral struct {
	Body         Node
	Var          string
	Lower, Upper Node
}

// Limit is \lim_{Var \to Point} body. Dir is "", "+" or "-".
type Limit struct {
	Body  Node
	Var   string
	Point Node
	Dir   string
}

// Derivative is \frac{d^Order}{dVar^Order} body.
type Derivative struct {
	Body  Node
	Var   string
	Order int
}

func (*Number) node()        {}
func (*Symbol) node()        {}
func (*Constant) node()      {}
func (*BinaryOp) node()      {}
func (*UnaryOp) node()       {}
func (*Function) node()      {}
func (*Juxtaposition) node() {}
func (*Equation) node()      {}
func (*Integral) node()      {}
func (*Limit) node()         {}
func (*Derivative) node()    {}

// ============================================================
// Debug rendering
// ============================================================

func (n *Number) String() string   { return n.Text }
func (n *Symbol) String() string   { return n.Name }
func (n *Constant) String() string { return n.Name }

func (n *BinaryOp) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

func (n *UnaryOp) String() string {
	if n.Op == "!" {
		return "(" + n.Operand.String() + "!)"
	}
	return "(" + n.Op + n.Operand.String() + ")"
}

func (n *Function) String() string { return n.Name + "(" + joinNodes(n.Args, ", ") + ")" }

func (n *Juxtaposition) String() string { return "(" + joinNodes(n.Factors, " ") + ")" }

func (n *Equation) String() string { return n.LHS.String() + " = " + n.RHS.String() }

func (n *Integral) String() string {
	parts := []string{n.Body.String(), n.Var}
	if n.Lower != nil {
		parts = append(parts, n.Lower.String())
	}
	if n.Upper != nil {
		parts = append(parts, n.Upper.String())
	}
	return "int(" + strings.Join(parts, ", ") + ")"
}

func (n *Limit) String() string {
	return "lim(" + n.Body.String() + ", " + n.Var + ", " + n.Point.String() + n.Dir + ")"
}

func (n *Derivative) String() string {
	return "diff(" + n.Body.String() + ", " + n.Var + ", " + strconv.Itoa(n.Order) + ")"
}

func joinNodes(ns []Node, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

// ============================================================
// Traversal
// ============================================================

// Children returns the direct sub-nodes of n in source order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *BinaryOp:
		return []Node{v.Left, v.Right}
	case *UnaryOp:
		return []Node{v.Operand}
	case *Function:
		return v.Args
	case *Juxtaposition:
		return v.Factors
	case *Equation:
		return []Node{v.LHS, v.RHS}
	case *Integral:
		out := []Node{v.Body}
		if v.Lower != nil {
			out = append(out, v.Lower)
		}
		if v.Upper != nil {
			out = append(out, v.Upper)
		}
		return out
	case *Limit:
		return []Node{v.Body, v.Point}
	case *Derivative:
		return []Node{v.Body}
	}
	return nil
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// FreeSymbols returns the sorted names of the symbols n depends on. The
// variable of a limit or a definite integral is bound and not reported.
func FreeSymbols(n Node) []string {
	set := map[string]struct{}{}
	collectFree(n, set)
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func collectFree(n Node, set map[string]struct{}) {
	switch v := n.(type) {
	case *Symbol:
		set[v.Name] = struct{}{}
		return
	case *Limit:
		inner := map[string]struct{}{}
		collectFree(v.Body, inner)
		delete(inner, v.Var)
		for s := range inner {
			set[s] = struct{}{}
		}
		collectFree(v.Point, set)
		return
	case *Integral:
		if v.Lower != nil && v.Upper != nil && v.Var != "" {
			inner := map[string]struct{}{}
			collectFree(v.Body, inner)
			delete(inner, v.Var)
			for s := range inner {
				set[s] = struct{}{}
			}
			collectFree(v.Lower, set)
			collectFree(v.Upper, set)
			return
		}
		if v.Var != "" {
			set[v.Var] = struct{}{}
		}
	case *Derivative:
		set[v.Var] = struct{}{}
	}
	for _, c := range Children(n) {
		collectFree(c, set)
	}
}
