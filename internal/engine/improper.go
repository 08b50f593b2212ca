package engine

import (
	"context"
	"math"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/symbolic"
)

// ============================================================
// Improper definite integrals
// ============================================================

// poleFactors returns expressions in v whose real zeros are points where e
// is undefined: bases raised to a negative power, the argument of ln and
// cos(u) for tan(u).
func poleFactors(e symbolic.Expr, v string) []symbolic.Expr {
	var out []symbolic.Expr
	var walk func(symbolic.Expr)
	walk = func(e symbolic.Expr) {
		if !symbolic.DependsOn(e, v) {
			return
		}
		switch n := e.(type) {
		case *symbolic.Add:
			for _, t := range n.Terms() {
				walk(t)
			}
		case *symbolic.Mul:
			for _, f := range n.Factors() {
				walk(f)
			}
		case *symbolic.Pow:
			if k, ok := n.ExpExpr().(*symbolic.Num); ok && k.IsNegative() && symbolic.DependsOn(n.Base(), v) {
				out = append(out, n.Base())
			}
			walk(n.Base())
			walk(n.ExpExpr())
		case *symbolic.Func:
			switch n.FuncName() {
			case "ln":
				out = append(out, n.Arg())
			case "tan":
				out = append(out, symbolic.CosOf(n.Arg()))
			}
			walk(n.Arg())
		}
	}
	walk(e)
	return out
}

// interiorPoles finds the poles of body strictly between lo and hi. Infinite
// bounds are clamped to the numeric search range.
func (a *Adapter) interiorPoles(ctx context.Context, body symbolic.Expr, v string, lo, hi float64) ([]float64, error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	r := a.cfg.NumericRange
	lo, hi = math.Max(lo, -r), math.Min(hi, r)
	if !(lo < hi) {
		return nil, nil
	}
	eps := 1e-9 * math.Max(1, hi-lo)

	var poles []float64
	for _, g := range poleFactors(body, v) {
		f := symbolic.Lambdify(g, v)
		df := symbolic.Lambdify(symbolic.Diff(g, v), v)
		roots, err := scanRoots(ctx, f, df, lo, hi, a.cfg.Tolerance, a.cfg.MaxIterations)
		if err != nil {
			return nil, err
		}
		for _, x := range roots {
			if x > lo+eps && x < hi-eps {
				poles = append(poles, x)
			}
		}
	}
	return dedupe(poles), nil
}

// definite evaluates anti between lo and hi, splitting at the poles of body
// inside the interval. A nil result with a nil error means a bound value
// could not be found and the caller may fall back to quadrature. Any piece
// that diverges fails with KindNoClosedForm.
func (a *Adapter) definite(ctx context.Context, body, anti symbolic.Expr, v string, lo, hi symbolic.Expr) (symbolic.Expr, error) {
	points := []symbolic.Expr{lo, hi}
	l, lok := pointFloat(lo)
	h, hok := pointFloat(hi)
	if lok && hok {
		poles, err := a.interiorPoles(ctx, body, v, l, h)
		if err != nil {
			return nil, err
		}
		if l > h {
			for i, j := 0, len(poles)-1; i < j; i, j = i+1, j-1 {
				poles[i], poles[j] = poles[j], poles[i]
			}
		}
		points = points[:1]
		tol := math.Max(a.cfg.Tolerance, 1e-7)
		for _, p := range poles {
			points = append(points, snap(p, tol))
		}
		points = append(points, hi)
	}

	// inner limits are taken from inside each piece
	ascending := !(lok && hok) || l <= h
	into, outOf := symbolic.FromAbove, symbolic.FromBelow
	if !ascending {
		into, outOf = outOf, into
	}

	var total symbolic.Expr = symbolic.N(0)
	for i := 0; i+1 < len(points); i++ {
		start := boundValue(anti, v, points[i], into)
		end := boundValue(anti, v, points[i+1], outOf)
		if start == nil || end == nil {
			if len(points) == 2 {
				return nil, nil
			}
			return nil, diverges(body, v, lo, hi)
		}
		piece := symbolic.Subtract(end, start)
		if symbolic.HasSpecial(piece) {
			return nil, diverges(body, v, lo, hi)
		}
		total = symbolic.AddOf(total, piece)
	}
	return total, nil
}

// poleAtBound reports whether f blows up just inside the bound at, on the
// side facing other.
func poleAtBound(f func(float64) float64, at, other float64) bool {
	step := 1e-9 * math.Max(1, math.Abs(at))
	if other < at {
		step = -step
	}
	y := f(at + step)
	return math.IsInf(y, 0) || math.Abs(y) > 1e8
}

func diverges(body symbolic.Expr, v string, lo, hi symbolic.Expr) error {
	return calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine,
		"the integral of %s with respect to %s from %s to %s diverges", body, v, lo, hi)
}
