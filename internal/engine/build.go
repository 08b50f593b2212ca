package engine

import (
	"context"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/latex"
	"github.com/njchilds90/latexcalc/symbolic"
)

// ============================================================
// Syntax tree -> kernel expression
// ============================================================

func invalid(format string, args ...any) error {
	return calcerr.New(calcerr.KindValidation, calcerr.StageEngine, format, args...)
}

// reciprocal trig functions the kernel does not carry
var reciprocals = map[string]func(symbolic.Expr) symbolic.Expr{
	"cot": func(x symbolic.Expr) symbolic.Expr { return symbolic.Div(symbolic.CosOf(x), symbolic.SinOf(x)) },
	"sec": func(x symbolic.Expr) symbolic.Expr { return symbolic.Div(symbolic.N(1), symbolic.CosOf(x)) },
	"csc": func(x symbolic.Expr) symbolic.Expr { return symbolic.Div(symbolic.N(1), symbolic.SinOf(x)) },
}

// Build maps a normalized tree onto the kernel. Embedded integrals, limits
// and derivatives are carried out on the spot. Equations are rejected; use
// BuildEquation.
func (a *Adapter) Build(ctx context.Context, node latex.Node) (symbolic.Expr, error) {
	return a.build(ctx, node)
}

// BuildEquation maps an equation onto its two sides. A bare expression is
// read as expr = 0.
func (a *Adapter) BuildEquation(ctx context.Context, node latex.Node) (*symbolic.Equation, error) {
	eq, ok := node.(*latex.Equation)
	if !ok {
		e, err := a.build(ctx, node)
		if err != nil {
			return nil, err
		}
		return symbolic.Eq(e, symbolic.N(0)), nil
	}
	lhs, err := a.build(ctx, eq.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := a.build(ctx, eq.RHS)
	if err != nil {
		return nil, err
	}
	return symbolic.Eq(lhs, rhs), nil
}

func (a *Adapter) build(ctx context.Context, node latex.Node) (symbolic.Expr, error) {
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	switch v := node.(type) {
	case *latex.Number:
		n, err := symbolic.ParseNum(v.Text)
		if err != nil {
			return nil, invalid("bad number %q", v.Text)
		}
		return n, nil

	case *latex.Symbol:
		return symbolic.S(v.Name), nil

	case *latex.Constant:
		switch v.Name {
		case "pi":
			return symbolic.Pi, nil
		case "e":
			return symbolic.E, nil
		case "infty":
			return symbolic.Inf, nil
		}
		return nil, invalid("unknown constant %s", v.Name)

	case *latex.BinaryOp:
		l, err := a.build(ctx, v.Left)
		if err != nil {
			return nil, err
		}
		r, err := a.build(ctx, v.Right)
		if err != nil {
			return nil, err
		}
		switch v.Op {
		case "+":
			return symbolic.AddOf(l, r), nil
		case "-":
			return symbolic.Subtract(l, r), nil
		case "*":
			return symbolic.MulOf(l, r), nil
		case "/":
			return symbolic.Div(l, r), nil
		case "^":
			return symbolic.PowOf(l, r), nil
		}
		return nil, invalid("unknown operator %q", v.Op)

	case *latex.UnaryOp:
		x, err := a.build(ctx, v.Operand)
		if err != nil {
			return nil, err
		}
		if v.Op == "!" {
			return symbolic.FactorialOf(x), nil
		}
		return symbolic.Neg(x), nil

	case *latex.Function:
		if len(v.Args) != 1 {
			return nil, invalid("%s takes exactly 1 argument, got %d", v.Name, len(v.Args))
		}
		x, err := a.build(ctx, v.Args[0])
		if err != nil {
			return nil, err
		}
		if f, ok := reciprocals[v.Name]; ok {
			return f(x), nil
		}
		if !symbolic.IsFunc(v.Name) {
			return nil, invalid("unknown function %s", v.Name)
		}
		return symbolic.Apply(v.Name, x), nil

	case *latex.Equation:
		return nil, invalid("an equation is not a value here")

	case *latex.Integral:
		res, err := a.integrate(ctx, v, "")
		if err != nil {
			return nil, err
		}
		return res.Expr, nil

	case *latex.Limit:
		res, err := a.limit(ctx, v.Body, v.Var, v.Point, directionOf(v.Dir))
		if err != nil {
			return nil, err
		}
		return res.Expr, nil

	case *latex.Derivative:
		body, err := a.build(ctx, v.Body)
		if err != nil {
			return nil, err
		}
		return derive(body, v.Var, v.Order)

	case *latex.Juxtaposition:
		return nil, invalid("implicit product reached the engine unnormalized")
	}
	return nil, invalid("unsupported node %T", node)
}

func directionOf(dir string) symbolic.Direction {
	switch dir {
	case "+":
		return symbolic.FromAbove
	case "-":
		return symbolic.FromBelow
	}
	return symbolic.Bidirectional
}
