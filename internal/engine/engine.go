// Package engine runs calculations on normalized syntax trees. It maps the
// tree onto the symbolic kernel, performs the requested operation, and falls
// back to gonum numerics where the kernel has no closed form and the
// configuration allows it. Every public operation runs under a deadline.
package engine

import (
	"context"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/latex"
	"github.com/njchilds90/latexcalc/symbolic"
)

// Adapter is safe for concurrent use; it holds only read-only settings.
type Adapter struct {
	cfg Config
	log *zap.Logger
}

// New returns an adapter. A nil logger discards output.
func New(cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{cfg: cfg, log: log.Named("engine")}
}

// Config returns the adapter's settings.
func (a *Adapter) Config() Config { return a.cfg }

// ============================================================
// Results
// ============================================================

// Value is the outcome of Evaluate. Exactly one of Expr, Equation and Bool
// is set. Numeric approximates Expr when it is a constant but not a plain
// rational.
type Value struct {
	Expr     symbolic.Expr
	Equation *symbolic.Equation
	Bool     *bool
	Numeric  *float64
}

// Derivative is the outcome of Differentiate.
type Derivative struct {
	Expr    symbolic.Expr
	Var     string
	Order   int
	Binding Binding
}

// Antiderivative is the outcome of Integrate. Constant names the constant
// of integration of an indefinite integral and is empty for a definite one.
type Antiderivative struct {
	Expr         symbolic.Expr
	Var          string
	Constant     string
	Lower, Upper symbolic.Expr
	Numeric      *float64
	Binding      Binding
}

// Definite reports whether the integral had bounds.
func (r Antiderivative) Definite() bool { return r.Lower != nil }

// LimitValue is the outcome of Limit. Approximate is set when the value came
// from numeric probing, even when it was snapped to an exact constant.
type LimitValue struct {
	Expr        symbolic.Expr
	Var         string
	Point       symbolic.Expr
	Direction   symbolic.Direction
	Numeric     *float64
	Approximate bool
}

// ============================================================
// Evaluate
// ============================================================

// Evaluate simplifies node as far as the kernel can. A symbol-free equation
// becomes a boolean.
func (a *Adapter) Evaluate(ctx context.Context, node latex.Node) (Value, error) {
	return guard(ctx, a, "evaluate", func(ctx context.Context) (Value, error) {
		if _, ok := node.(*latex.Equation); ok {
			eq, err := a.BuildEquation(ctx, node)
			if err != nil {
				return Value{}, err
			}
			lhs, rhs := tidy(eq.LHS), tidy(eq.RHS)
			if len(symbolic.FreeSymbols(lhs)) == 0 && len(symbolic.FreeSymbols(rhs)) == 0 {
				holds, decided := symbolic.Eq(lhs, rhs).Holds()
				if !decided {
					return Value{}, invalid("cannot decide whether %s = %s", lhs, rhs)
				}
				return Value{Bool: &holds}, nil
			}
			return Value{Equation: symbolic.Eq(lhs, rhs)}, nil
		}
		e, err := a.build(ctx, node)
		if err != nil {
			return Value{}, err
		}
		e = tidy(e)
		return Value{Expr: e, Numeric: approximate(e)}, nil
	})
}

// tidy returns the shorter of e and its deep simplification.
func tidy(e symbolic.Expr) symbolic.Expr {
	e = e.Simplify()
	d := symbolic.DeepSimplify(e)
	if len(d.String()) <= len(e.String()) {
		return d
	}
	return e
}

// approximate returns a float for symbol-free values that are not already
// plain numbers.
func approximate(e symbolic.Expr) *float64 {
	switch e.(type) {
	case *symbolic.Num, *symbolic.Special:
		return nil
	}
	if len(symbolic.FreeSymbols(e)) > 0 {
		return nil
	}
	v, ok := symbolic.EvalFloat(e, nil)
	if !ok {
		return nil
	}
	return &v
}

// ============================================================
// Differentiate
// ============================================================

// Differentiate returns d/dv of node. A \frac{d^n}{dx^n} node supplies its
// own variable and order. Without a named variable the sole free symbol is
// used.
func (a *Adapter) Differentiate(ctx context.Context, node latex.Node, variable string) (Derivative, error) {
	return guard(ctx, a, "differentiate", func(ctx context.Context) (Derivative, error) {
		order := 1
		if d, ok := node.(*latex.Derivative); ok {
			node, order = d.Body, d.Order
			if variable == "" {
				variable = d.Var
			}
		}
		e, err := a.build(ctx, node)
		if err != nil {
			return Derivative{}, err
		}
		b, err := bind(e, variable, RoleDifferentiation, a.cfg.StrictVariables, "x")
		if err != nil {
			return Derivative{}, err
		}
		v := b.Bound()
		a.log.Debug("differentiate", zap.String("expr", e.String()), zap.String("var", v), zap.Int("order", order))
		d, err := derive(e, v, order)
		if err != nil {
			return Derivative{}, err
		}
		return Derivative{Expr: tidy(d), Var: v, Order: order, Binding: b}, nil
	})
}

// derive differentiates e order times. Functions without a derivative rule,
// such as factorial, yield NaN in the kernel; that is reported as
// KindNoClosedForm.
func derive(e symbolic.Expr, v string, order int) (symbolic.Expr, error) {
	d := symbolic.DiffN(e, v, order)
	if symbolic.HasSpecial(d) && !symbolic.HasSpecial(e) {
		return nil, calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
			"no closed-form derivative of %s with respect to %s", e, v)
	}
	return d, nil
}

// ============================================================
// Integrate
// ============================================================

// Integrate integrates node. When node is itself an \int its differential
// and bounds are used; otherwise node is the integrand of an indefinite
// integral in variable.
func (a *Adapter) Integrate(ctx context.Context, node latex.Node, variable string) (Antiderivative, error) {
	return guard(ctx, a, "integrate", func(ctx context.Context) (Antiderivative, error) {
		in, ok := node.(*latex.Integral)
		if !ok {
			in = &latex.Integral{Body: node}
		}
		return a.integrate(ctx, in, variable)
	})
}

func (a *Adapter) integrate(ctx context.Context, in *latex.Integral, variable string) (Antiderivative, error) {
	body, err := a.build(ctx, in.Body)
	if err != nil {
		return Antiderivative{}, err
	}
	if variable == "" {
		variable = in.Var
	}
	b, err := bind(body, variable, RoleIntegration, a.cfg.StrictVariables, "x")
	if err != nil {
		return Antiderivative{}, err
	}
	v := b.Bound()
	anti, ok := symbolic.Integrate(body, v)

	if in.Lower == nil {
		if !ok {
			return Antiderivative{}, calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
				"no closed-form antiderivative of %s with respect to %s", body, v)
		}
		return Antiderivative{Expr: tidy(anti), Var: v, Constant: constantName(b), Binding: b}, nil
	}

	lo, err := a.build(ctx, in.Lower)
	if err != nil {
		return Antiderivative{}, err
	}
	hi, err := a.build(ctx, in.Upper)
	if err != nil {
		return Antiderivative{}, err
	}
	out := Antiderivative{Var: v, Lower: lo, Upper: hi, Binding: b}
	if ok {
		val, err := a.definite(ctx, body, anti, v, lo, hi)
		if err != nil {
			return Antiderivative{}, err
		}
		if val != nil {
			out.Expr = tidy(val)
			out.Numeric = approximate(out.Expr)
			return out, nil
		}
	}
	if !a.cfg.AllowNumericIntegration {
		return Antiderivative{}, calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
			"no closed-form antiderivative of %s with respect to %s (numeric integration is disabled)", body, v)
	}
	l, lok := symbolic.EvalFloat(lo, nil)
	h, hok := symbolic.EvalFloat(hi, nil)
	if !lok || !hok || len(b.Free()) > 0 {
		return Antiderivative{}, calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
			"numeric integration needs finite numeric bounds and no other symbols")
	}
	poles, err := a.interiorPoles(ctx, body, v, l, h)
	if err != nil {
		return Antiderivative{}, err
	}
	if len(poles) > 0 {
		return Antiderivative{}, calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
			"%s has a pole at %s = %g between the bounds", body, v, poles[0])
	}
	f := symbolic.Lambdify(body, v)
	if poleAtBound(f, l, h) || poleAtBound(f, h, l) {
		return Antiderivative{}, diverges(body, v, lo, hi)
	}
	a.log.Debug("numeric quadrature", zap.String("integrand", body.String()), zap.Float64("lo", l), zap.Float64("hi", h))
	val, qok := quadrature(f, l, h)
	if !qok {
		return Antiderivative{}, calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
			"integral of %s from %s to %s does not converge numerically", body, lo, hi)
	}
	out.Expr = symbolic.NFloat(val)
	out.Numeric = &val
	return out, nil
}

// boundValue evaluates an antiderivative at an integration bound, taking a
// one-sided limit when plain substitution is undefined.
func boundValue(anti symbolic.Expr, v string, at symbolic.Expr, side symbolic.Direction) symbolic.Expr {
	if _, inf := at.(*symbolic.Special); !inf {
		if s := symbolic.Sub(anti, v, at); !symbolic.HasSpecial(s) {
			return s
		}
	}
	r := symbolic.LimitDir(anti, v, at, side)
	if !r.Success {
		return nil
	}
	if s, ok := r.Value.(*symbolic.Special); ok && s.IsNaN() {
		return nil
	}
	return r.Value
}

// ============================================================
// Limit
// ============================================================

// Limit takes the limit of node as variable approaches point. When node is
// itself a \lim its own variable, point and direction are used. A nil point
// means 0.
func (a *Adapter) Limit(ctx context.Context, node latex.Node, variable string, point latex.Node, dir symbolic.Direction) (LimitValue, error) {
	return guard(ctx, a, "limit", func(ctx context.Context) (LimitValue, error) {
		if l, ok := node.(*latex.Limit); ok {
			node = l.Body
			if variable == "" {
				variable = l.Var
			}
			if point == nil {
				point = l.Point
			}
			if dir == symbolic.Bidirectional {
				dir = directionOf(l.Dir)
			}
		}
		return a.limit(ctx, node, variable, point, dir)
	})
}

func (a *Adapter) limit(ctx context.Context, bodyNode latex.Node, variable string, pointNode latex.Node, dir symbolic.Direction) (LimitValue, error) {
	body, err := a.build(ctx, bodyNode)
	if err != nil {
		return LimitValue{}, err
	}
	var point symbolic.Expr = symbolic.N(0)
	if pointNode != nil {
		if point, err = a.build(ctx, pointNode); err != nil {
			return LimitValue{}, err
		}
	}
	b, err := bind(body, variable, RoleLimitPoint, a.cfg.StrictVariables, "x")
	if err != nil {
		return LimitValue{}, err
	}
	v := b.Bound()
	if symbolic.DependsOn(point, v) {
		return LimitValue{}, invalid("limit point %s cannot depend on %s", point, v)
	}
	out := LimitValue{Var: v, Point: point, Direction: dir}

	r := symbolic.LimitDir(body, v, point, dir)
	if r.DoesNotExist {
		return LimitValue{}, doesNotExist(body, v, point)
	}
	if r.Success {
		out.Expr = tidy(r.Value)
		out.Numeric = approximate(out.Expr)
		return out, nil
	}
	a.log.Debug("symbolic limit failed", zap.String("expr", body.String()), zap.String("reason", r.Error))

	if s, ok := point.(*symbolic.Special); ok && s.IsInfinite() {
		if val, ok := a.limitAtInfinity(body, v, s); ok {
			out.Expr = tidy(val)
			out.Numeric = approximate(out.Expr)
			return out, nil
		}
	}

	if err := checkpoint(ctx); err != nil {
		return LimitValue{}, err
	}
	val, approx, err := a.numericLimit(body, v, point, dir)
	if err != nil {
		return LimitValue{}, err
	}
	out.Expr, out.Approximate = val, approx
	out.Numeric = approximate(val)
	return out, nil
}

// limitAtInfinity rewrites x -> ±oo as t -> 0+ with x = ±1/t.
func (a *Adapter) limitAtInfinity(body symbolic.Expr, v string, at *symbolic.Special) (symbolic.Expr, bool) {
	if at != symbolic.Inf && at != symbolic.NegInf {
		return nil, false
	}
	t := freshSymbol(body, "t")
	sign := int64(1)
	if at == symbolic.NegInf {
		sign = -1
	}
	sub := symbolic.Sub(body, v, symbolic.Div(symbolic.N(sign), symbolic.S(t)))
	r := symbolic.LimitDir(sub, t, symbolic.N(0), symbolic.FromAbove)
	if !r.Success {
		return nil, false
	}
	return r.Value, true
}

// numericLimit estimates the limit numerically and snaps it to an exact value
// when a simple one fits. The result is always reported as approximate.
func (a *Adapter) numericLimit(body symbolic.Expr, v string, point symbolic.Expr, dir symbolic.Direction) (symbolic.Expr, bool, error) {
	fail := calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
		"could not determine the limit of %s as %s approaches %s", body, v, point)
	if len(symbolic.FreeSymbols(body)) > 1 {
		return nil, false, fail
	}
	p, ok := pointFloat(point)
	if !ok {
		return nil, false, fail
	}
	f := symbolic.Lambdify(body, v)
	tol := math.Max(a.cfg.Tolerance, 1e-7)

	var val float64
	switch {
	case math.IsInf(p, 0) || dir == symbolic.FromAbove:
		val, ok = approachSide(f, p, 1)
	case dir == symbolic.FromBelow:
		val, ok = approachSide(f, p, -1)
	default:
		above, aok := approachSide(f, p, 1)
		below, bok := approachSide(f, p, -1)
		ok = false
		switch {
		case aok && bok:
			if !sameLimit(above, below) {
				return nil, false, doesNotExist(body, v, point)
			}
			val, ok = above, true
		case aok:
			val, ok = above, true
		case bok:
			val, ok = below, true
		}
	}
	if !ok {
		return nil, false, fail
	}
	a.log.Debug("numeric limit estimate", zap.String("expr", body.String()), zap.Float64("value", val))
	return snap(val, tol), true, nil
}

func sameLimit(x, y float64) bool {
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return x == y
	}
	return math.Abs(x-y) <= 1e-5*math.Max(1, math.Abs(x))
}

func pointFloat(p symbolic.Expr) (float64, bool) {
	if s, ok := p.(*symbolic.Special); ok {
		switch s {
		case symbolic.Inf:
			return math.Inf(1), true
		case symbolic.NegInf:
			return math.Inf(-1), true
		}
		return 0, false
	}
	return symbolic.EvalFloat(p, nil)
}

func doesNotExist(body symbolic.Expr, v string, point symbolic.Expr) error {
	return calcerr.New(calcerr.KindDoesNotExist, calcerr.StageEngine,
		"the one-sided limits of %s as %s approaches %s differ", body, v, point)
}

// freshSymbol returns base, or base with a numeric suffix, not free in e.
func freshSymbol(e symbolic.Expr, base string) string {
	free := symbolic.FreeSymbols(e)
	name := base
	for i := 1; ; i++ {
		if _, taken := free[name]; !taken {
			return name
		}
		name = base + "_" + strconv.Itoa(i)
	}
}
