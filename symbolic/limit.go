package symbolic

import (
	"fmt"
	"math"
)

// ============================================================
// Limits
// ============================================================

// Direction selects a one-sided or two-sided limit.
type Direction int

const (
	Bidirectional Direction = iota
	FromAbove
	FromBelow
)

func (d Direction) String() string {
	switch d {
	case FromAbove:
		return "+"
	case FromBelow:
		return "-"
	}
	return "+-"
}

// LimitResult holds the result of a limit computation. DoesNotExist is set
// when both one-sided limits were found and they differ.
type LimitResult struct {
	Value        Expr
	Success      bool
	DoesNotExist bool
	Error        string
}

const (
	maxLimitDepth = 24
	taylorOrder   = 6
)

// Limit computes the two-sided limit of expr as varName -> point.
func Limit(expr Expr, varName string, point Expr) LimitResult {
	return LimitDir(expr, varName, point, Bidirectional)
}

// LimitDir computes lim expr as varName -> point from the given side. At oo
// and -oo the side is implied. The method, in order: direct substitution,
// polynomial degree comparison at infinity, Taylor leading terms and
// L'Hôpital on indeterminate quotients, 0*oo and oo-oo rewrites, then
// continuity through powers and functions. Signs of infinite results are
// decided by evaluating next to the point.
func LimitDir(expr Expr, varName string, point Expr, dir Direction) LimitResult {
	expr = expr.Simplify()
	point = point.Simplify()
	if s, ok := point.(*Special); ok {
		switch s.kind {
		case kindInf:
			dir = FromBelow
		case kindNegInf:
			dir = FromAbove
		default:
			return LimitResult{Error: "limit point must be real or a signed infinity, got " + s.String()}
		}
	} else if DependsOn(point, varName) || HasSpecial(point) {
		return LimitResult{Error: "limit point " + point.String() + " depends on " + varName}
	}
	failed := LimitResult{Error: "limit could not be determined: " + expr.String() + " as " + varName + " -> " + point.String()}
	if dir != Bidirectional {
		v, ok := limitAt(expr, varName, point, dir, 0)
		if !ok {
			return failed
		}
		return LimitResult{Value: v, Success: true}
	}
	above, okA := limitAt(expr, varName, point, FromAbove, 0)
	below, okB := limitAt(expr, varName, point, FromBelow, 0)
	if !okA || !okB {
		return failed
	}
	if sameValue(above, below) {
		return LimitResult{Value: above, Success: true}
	}
	return LimitResult{
		DoesNotExist: true,
		Error:        fmt.Sprintf("one-sided limits differ: %s from above, %s from below", above, below),
	}
}

func limitAt(e Expr, x string, p Expr, side Direction, depth int) (Expr, bool) {
	if depth > maxLimitDepth {
		return nil, false
	}
	if !DependsOn(e, x) {
		return finish(e)
	}
	_, atInfinity := p.(*Special)
	if !atInfinity {
		e = resolveJumps(e, x, p, side)
		if !DependsOn(e, x) {
			return finish(e)
		}
	}
	if v := e.Sub(x, p).Simplify(); !HasSpecial(v) || v == Inf || v == NegInf {
		return v, true
	}

	num, den := NumerDenom(e)
	if atInfinity {
		pn, ok1 := ToRatPoly(num, x)
		pd, ok2 := ToRatPoly(den, x)
		if ok1 && ok2 && !pd.IsZero() {
			return rationalAtInfinity(pn, pd, p == Inf), true
		}
	}
	if DependsOn(den, x) {
		if r, ok := limitQuotient(num, den, x, p, side, depth); ok {
			return r, true
		}
	}
	switch v := e.(type) {
	case *Add:
		return limitSum(v, x, p, side, depth)
	case *Mul:
		return limitProduct(v, x, p, side, depth)
	case *Pow:
		return limitPow(v, x, p, side, depth)
	case *Func:
		return limitFunc(v, x, p, side, depth)
	}
	return nil, false
}

func finish(v Expr) (Expr, bool) {
	if s, ok := v.(*Special); ok && s.IsNaN() {
		return nil, false
	}
	return v, true
}

func rationalAtInfinity(pn, pd RatPoly, positive bool) Expr {
	dn, dd := pn.Degree(), pd.Degree()
	if dn < dd {
		return N(0)
	}
	ratio := numDiv(NRat(pn.Lead()), NRat(pd.Lead()))
	if dn == dd {
		return ratio
	}
	neg := ratio.IsNegative()
	if !positive && (dn-dd)%2 == 1 {
		neg = !neg
	}
	if neg {
		return NegInf
	}
	return Inf
}

func isZeroLimit(v Expr) bool { return isZeroValue(v) }

func isInfLimit(v Expr) bool {
	s, ok := v.(*Special)
	return ok && s.IsInfinite()
}

func limitQuotient(num, den Expr, x string, p Expr, side Direction, depth int) (Expr, bool) {
	if _, atInfinity := p.(*Special); atInfinity {
		pn, ok1 := ToRatPoly(num, x)
		pd, ok2 := ToRatPoly(den, x)
		if ok1 && ok2 && !pd.IsZero() {
			return rationalAtInfinity(pn, pd, p == Inf), true
		}
	}
	ln, okN := limitAt(num, x, p, side, depth+1)
	ld, okD := limitAt(den, x, p, side, depth+1)
	if !okN || !okD {
		return nil, false
	}
	nz, dz := isZeroLimit(ln), isZeroLimit(ld)
	ninf, dinf := isInfLimit(ln), isInfLimit(ld)
	switch {
	case !dz && !dinf && !ninf:
		return finish(Div(ln, ld))
	case dz && !nz && !ninf:
		return signedInf(Div(num, den), x, p, side), true
	case dinf && !ninf:
		return N(0), true
	case ninf && !dz && !dinf:
		r := Div(ln, ld)
		if r == Inf || r == NegInf {
			return r, true
		}
		return signedInf(Div(num, den), x, p, side), true
	case ninf && dz:
		return signedInf(Div(num, den), x, p, side), true
	}

	// 0/0 or oo/oo
	if _, atInfinity := p.(*Special); !atInfinity && isSmooth(num) && isSmooth(den) {
		if r, ok := limitByTaylor(num, den, x, p, side); ok {
			return r, true
		}
	}
	ratio := DeepSimplify(Div(Diff(num, x), Diff(den, x)))
	return limitAt(ratio, x, p, side, depth+1)
}

// limitByTaylor compares the leading Taylor terms of num and den at p.
func limitByTaylor(num, den Expr, x string, p Expr, side Direction) (Expr, bool) {
	kn, an := leadingTerm(taylorCoeffs(num, x, p, taylorOrder))
	kd, ad := leadingTerm(taylorCoeffs(den, x, p, taylorOrder))
	if kn < 0 || kd < 0 {
		return nil, false
	}
	switch {
	case kn > kd:
		return N(0), true
	case kn == kd:
		return finish(DeepSimplify(Div(an, ad)))
	}
	c, ok := EvalFloat(Div(an, ad), nil)
	if !ok || c == 0 {
		return nil, false
	}
	neg := c < 0
	if side == FromBelow && (kd-kn)%2 == 1 {
		neg = !neg
	}
	if neg {
		return NegInf, true
	}
	return Inf, true
}

// isSmooth rejects functions whose derivatives jump.
func isSmooth(e Expr) bool {
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if !isSmooth(t) {
				return false
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if !isSmooth(f) {
				return false
			}
		}
	case *Pow:
		return isSmooth(v.base) && isSmooth(v.exp)
	case *Func:
		switch v.name {
		case "abs", "floor", "ceil", "sign":
			return false
		}
		return isSmooth(v.arg)
	}
	return true
}

func limitSum(a *Add, x string, p Expr, side Direction, depth int) (Expr, bool) {
	parts := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		l, ok := limitAt(t, x, p, side, depth+1)
		if !ok {
			return nil, false
		}
		parts[i] = l
	}
	if r, ok := finish(AddOf(parts...)); ok {
		if r == ComplexInf {
			return signedInf(a, x, p, side), true
		}
		return r, true
	}
	// oo - oo
	if len(a.terms) == 2 {
		if r, ok := limitConjugate(a.terms[0], a.terms[1], x, p, side, depth); ok {
			return r, true
		}
	}
	for i, lead := range a.terms {
		if !isInfLimit(parts[i]) {
			continue
		}
		rest := DeepSimplify(Div(Subtract(a, lead), lead))
		r, ok := limitAt(rest, x, p, side, depth+1)
		if !ok || isInfLimit(r) {
			continue
		}
		factor := AddOf(N(1), r)
		if isZeroValue(factor) {
			continue
		}
		if v, ok := finish(MulOf(parts[i], factor)); ok && v != ComplexInf {
			return v, true
		}
	}
	return nil, false
}

// limitConjugate rewrites a + b as (a² - b²)/(a - b) when one side is a
// square root.
func limitConjugate(a, b Expr, x string, p Expr, side Direction, depth int) (Expr, bool) {
	if !hasSqrt(a) && !hasSqrt(b) {
		return nil, false
	}
	num := Expand(Subtract(PowOf(a, N(2)), PowOf(b, N(2))))
	den := Subtract(a, b)
	return limitQuotient(num, den, x, p, side, depth+1)
}

func hasSqrt(e Expr) bool {
	_, rest := splitCoeff(e)
	p, ok := rest.(*Pow)
	return ok && isHalf(p.exp)
}

func limitProduct(m *Mul, x string, p Expr, side Direction, depth int) (Expr, bool) {
	parts := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		l, ok := limitAt(f, x, p, side, depth+1)
		if !ok {
			return nil, false
		}
		parts[i] = l
	}
	if r, ok := finish(MulOf(parts...)); ok {
		if r == ComplexInf {
			return signedInf(m, x, p, side), true
		}
		return r, true
	}
	// 0 * oo: move one group into a denominator.
	var zeros, infs, finite []Expr
	for i, f := range m.factors {
		switch {
		case isZeroLimit(parts[i]):
			zeros = append(zeros, f)
		case isInfLimit(parts[i]):
			infs = append(infs, f)
		default:
			finite = append(finite, parts[i])
		}
	}
	if len(zeros) == 0 || len(infs) == 0 {
		return nil, false
	}
	z, inf := MulOf(zeros...), MulOf(infs...)
	type quotient struct{ num, den Expr }
	tries := []quotient{{z, PowOf(inf, N(-1))}, {inf, PowOf(z, N(-1))}}
	if hasFunc(inf, "ln") {
		tries[0], tries[1] = tries[1], tries[0]
	}
	for _, q := range tries {
		l, ok := limitQuotient(q.num, q.den, x, p, side, depth+1)
		if !ok {
			continue
		}
		r, ok := finish(MulOf(append([]Expr{l}, finite...)...))
		if !ok {
			continue
		}
		if r == ComplexInf {
			return signedInf(m, x, p, side), true
		}
		return r, true
	}
	return nil, false
}

func hasFunc(e Expr, name string) bool {
	switch v := e.(type) {
	case *Func:
		return v.name == name || hasFunc(v.arg, name)
	case *Add:
		for _, t := range v.terms {
			if hasFunc(t, name) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if hasFunc(f, name) {
				return true
			}
		}
	case *Pow:
		return hasFunc(v.base, name) || hasFunc(v.exp, name)
	}
	return false
}

func limitPow(pw *Pow, x string, p Expr, side Direction, depth int) (Expr, bool) {
	if DependsOn(pw.exp, x) {
		// b^g = exp(g ln b)
		inner, ok := limitAt(DeepSimplify(MulOf(pw.exp, LnOf(pw.base))), x, p, side, depth+1)
		if !ok {
			return nil, false
		}
		return finish(ExpOf(inner))
	}
	lb, ok := limitAt(pw.base, x, p, side, depth+1)
	if !ok {
		return nil, false
	}
	r := PowOf(lb, pw.exp)
	if r == ComplexInf {
		return signedInf(pw, x, p, side), true
	}
	return finish(r)
}

func limitFunc(fn *Func, x string, p Expr, side Direction, depth int) (Expr, bool) {
	la, ok := limitAt(fn.arg, x, p, side, depth+1)
	if !ok {
		return nil, false
	}
	if s, isSpecial := la.(*Special); isSpecial {
		return finish(funcAtSpecial(fn.name, s))
	}
	if fn.name == "ln" && isZeroLimit(la) {
		return NegInf, true
	}
	r := funcOf(fn.name, la).Simplify()
	if r == ComplexInf {
		return signedInf(fn, x, p, side), true
	}
	return finish(r)
}

// resolveJumps replaces floor, ceil and sign terms by their constant value
// just beside p.
func resolveJumps(e Expr, x string, p Expr, side Direction) Expr {
	var jumps []*Func
	var walk func(Expr)
	walk = func(n Expr) {
		switch v := n.(type) {
		case *Add:
			for _, t := range v.terms {
				walk(t)
			}
		case *Mul:
			for _, f := range v.factors {
				walk(f)
			}
		case *Pow:
			walk(v.base)
			walk(v.exp)
		case *Func:
			switch v.name {
			case "floor", "ceil", "sign":
				if DependsOn(v.arg, x) {
					jumps = append(jumps, v)
					return
				}
			}
			walk(v.arg)
		}
	}
	walk(e)
	for _, j := range jumps {
		a, ok := sample(j.arg, x, p, side)
		if !ok {
			continue
		}
		var k float64
		switch j.name {
		case "floor":
			k = math.Floor(a)
		case "ceil":
			k = math.Ceil(a)
		default:
			if a > 0 {
				k = 1
			} else if a < 0 {
				k = -1
			}
		}
		if math.Abs(k) > 1<<53 {
			continue
		}
		e = Replace(e, j, N(int64(k)))
	}
	return e
}

// sample evaluates e just beside p, or far out for an infinite p.
func sample(e Expr, x string, p Expr, side Direction) (float64, bool) {
	var points []float64
	switch p {
	case Inf:
		points = []float64{1e6, 1e3, 50}
	case NegInf:
		points = []float64{-1e6, -1e3, -50}
	default:
		pv, ok := EvalFloat(p, nil)
		if !ok {
			return 0, false
		}
		scale := math.Max(1, math.Abs(pv))
		for _, h := range []float64{1e-7, 1e-5, 1e-3} {
			if side == FromBelow {
				points = append(points, pv-h*scale)
			} else {
				points = append(points, pv+h*scale)
			}
		}
	}
	for _, pt := range points {
		if v, ok := EvalFloat(e, map[string]float64{x: pt}); ok {
			return v, true
		}
	}
	return 0, false
}

// signedInf picks oo or -oo from the sign of e beside p, or zoo when the sign
// cannot be observed.
func signedInf(e Expr, x string, p Expr, side Direction) Expr {
	v, ok := sample(e, x, p, side)
	switch {
	case !ok:
		return ComplexInf
	case v > 0:
		return Inf
	case v < 0:
		return NegInf
	}
	return ComplexInf
}

func sameValue(a, b Expr) bool {
	if a.Equal(b) {
		return true
	}
	if HasSpecial(a) || HasSpecial(b) {
		return false
	}
	return isZeroValue(DeepSimplify(Subtract(a, b)))
}
