package symbolic

import (
	"math/big"
	"strconv"
)

// ============================================================
// Integration (rule-based symbolic)
// ============================================================

const maxIntegrateDepth = 6

// Integrate returns an antiderivative of expr with respect to varName, without
// a constant of integration. The rules tried, in order: linearity, the table
// over linear arguments, partial fractions, exponential-trig products,
// substitution, integration by parts and expansion.
func Integrate(expr Expr, varName string) (Expr, bool) {
	r, ok := integrate(expr.Simplify(), varName, 0)
	if !ok || HasSpecial(r) {
		return nil, false
	}
	return r, true
}

func integrate(e Expr, x string, depth int) (Expr, bool) {
	if depth > maxIntegrateDepth || HasSpecial(e) {
		return nil, false
	}
	if !DependsOn(e, x) {
		return MulOf(e, S(x)), true
	}
	if add, ok := e.(*Add); ok {
		terms := make([]Expr, len(add.terms))
		all := true
		for i, t := range add.terms {
			r, ok := integrate(t, x, depth)
			if !ok {
				all = false
				break
			}
			terms[i] = r
		}
		if all {
			return AddOf(terms...), true
		}
	}
	if c, rest := splitConstFactor(e, x); !isNumEqual(c, 1) {
		r, ok := integrate(rest, x, depth)
		if !ok {
			return nil, false
		}
		return MulOf(c, r), true
	}
	if r, ok := integrateTable(e, x); ok {
		return r, true
	}
	if r, ok := integrateRational(e, x); ok {
		return r, true
	}
	if r, ok := integrateExpTrig(e, x); ok {
		return r, true
	}
	if r, ok := integrateSubstitution(e, x, depth); ok {
		return r, true
	}
	if r, ok := integrateByParts(e, x, depth); ok {
		return r, true
	}
	if ex := Expand(e); !ex.Equal(e) {
		return integrate(ex, x, depth+1)
	}
	return nil, false
}

// splitConstFactor separates the factors of e that do not depend on x.
func splitConstFactor(e Expr, x string) (Expr, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return N(1), e
	}
	var c, rest []Expr
	for _, f := range m.factors {
		if DependsOn(f, x) {
			rest = append(rest, f)
		} else {
			c = append(c, f)
		}
	}
	if len(c) == 0 {
		return N(1), e
	}
	return MulOf(c...), MulOf(rest...)
}

// linearIn matches e = a*x + b with a, b free of x and a non-zero.
func linearIn(e Expr, x string) (a, b Expr, ok bool) {
	if !DependsOn(e, x) {
		return nil, nil, false
	}
	if s, isSym := e.(*Sym); isSym && s.name == x {
		return N(1), N(0), true
	}
	coeffs, isPoly := PolyCoeffs(e, x)
	if !isPoly || coeffs.MaxDegree() != 1 {
		return nil, nil, false
	}
	return coeffs.Coeff(1), coeffs.Coeff(0), true
}

// antiderivativeAt gives F(u) for the table function name, where F' = f.
func antiderivativeAt(name string, u Expr) (Expr, bool) {
	switch name {
	case "sin":
		return Neg(CosOf(u)), true
	case "cos":
		return SinOf(u), true
	case "tan":
		return Neg(LnOf(AbsOf(CosOf(u)))), true
	case "exp":
		return ExpOf(u), true
	case "ln":
		return Subtract(MulOf(u, LnOf(u)), u), true
	case "asin":
		return AddOf(MulOf(u, AsinOf(u)), SqrtOf(Subtract(N(1), PowOf(u, N(2))))), true
	case "acos":
		return Subtract(MulOf(u, AcosOf(u)), SqrtOf(Subtract(N(1), PowOf(u, N(2))))), true
	case "atan":
		return Subtract(MulOf(u, AtanOf(u)), MulOf(F(1, 2), LnOf(AddOf(N(1), PowOf(u, N(2)))))), true
	case "sinh":
		return CoshOf(u), true
	case "cosh":
		return SinhOf(u), true
	case "tanh":
		return LnOf(CoshOf(u)), true
	case "abs":
		return MulOf(F(1, 2), u, AbsOf(u)), true
	case "sign":
		return AbsOf(u), true
	}
	return nil, false
}

// integrateTable handles table entries whose argument is linear in x.
func integrateTable(e Expr, x string) (Expr, bool) {
	switch v := e.(type) {
	case *Sym:
		return MulOf(F(1, 2), PowOf(v, N(2))), true
	case *Func:
		a, _, ok := linearIn(v.arg, x)
		if !ok {
			return nil, false
		}
		anti, ok := antiderivativeAt(v.name, v.arg)
		if !ok {
			return nil, false
		}
		return Div(anti, a), true
	case *Pow:
		if !DependsOn(v.exp, x) {
			if a, _, ok := linearIn(v.base, x); ok {
				if isNumEqual(v.exp, -1) {
					return Div(LnOf(AbsOf(v.base)), a), true
				}
				n1 := AddOf(v.exp, N(1))
				return Div(PowOf(v.base, n1), MulOf(n1, a)), true
			}
			if fn, ok := v.base.(*Func); ok {
				if r, ok := integrateTrigPower(fn, v.exp, x); ok {
					return r, true
				}
			}
			if r, ok := integrateInverseSqrt(v, x); ok {
				return r, true
			}
			return nil, false
		}
		if !DependsOn(v.base, x) {
			if a, _, ok := linearIn(v.exp, x); ok {
				return Div(e, MulOf(a, LnOf(v.base))), true
			}
		}
	}
	return nil, false
}

// integrateTrigPower covers sin², cos², tan², sec², csc² and sech² over a
// linear argument.
func integrateTrigPower(fn *Func, exp Expr, x string) (Expr, bool) {
	a, _, ok := linearIn(fn.arg, x)
	if !ok {
		return nil, false
	}
	u := fn.arg
	k, ok := intExp(exp)
	if !ok {
		return nil, false
	}
	var anti Expr
	switch {
	case fn.name == "sin" && k == 2:
		anti = Subtract(MulOf(F(1, 2), u), MulOf(F(1, 4), SinOf(MulOf(N(2), u))))
	case fn.name == "cos" && k == 2:
		anti = AddOf(MulOf(F(1, 2), u), MulOf(F(1, 4), SinOf(MulOf(N(2), u))))
	case fn.name == "cos" && k == -2:
		anti = TanOf(u)
	case fn.name == "sin" && k == -2:
		anti = Neg(Div(CosOf(u), SinOf(u)))
	case fn.name == "tan" && k == 2:
		anti = Subtract(TanOf(u), u)
	case fn.name == "cosh" && k == -2:
		anti = TanhOf(u)
	default:
		return nil, false
	}
	return Div(anti, a), true
}

// integrateInverseSqrt handles (c - d x²)^(-1/2) and (x² + c)^(-1/2).
func integrateInverseSqrt(p *Pow, x string) (Expr, bool) {
	if !p.exp.Equal(F(-1, 2)) {
		return nil, false
	}
	coeffs, ok := PolyCoeffs(p.base, x)
	if !ok || coeffs.MaxDegree() != 2 || !isNumEqual(coeffs.Coeff(1), 0) {
		return nil, false
	}
	d, ok1 := coeffs.Coeff(2).(*Num)
	c, ok2 := coeffs.Coeff(0).(*Num)
	if !ok1 || !ok2 {
		return nil, false
	}
	xs := S(x)
	switch {
	case d.IsNegative() && c.IsPositive():
		// asin(sqrt(-d/c) x) / sqrt(-d)
		k := SqrtOf(numDiv(numNeg(d), c))
		return Div(AsinOf(MulOf(k, xs)), SqrtOf(numNeg(d))), true
	case d.IsPositive():
		// ln|sqrt(d) x + sqrt(d x² + c)| / sqrt(d)
		sd := SqrtOf(d)
		return Div(LnOf(AbsOf(AddOf(MulOf(sd, xs), SqrtOf(p.base)))), sd), true
	}
	return nil, false
}

// integrateRational integrates rational functions with rational
// coefficients through partial fractions.
func integrateRational(e Expr, x string) (Expr, bool) {
	if len(FreeSymbols(e)) != 1 {
		return nil, false
	}
	num, den := NumerDenom(e)
	if !DependsOn(den, x) {
		return nil, false
	}
	ap := Apart(num, den, x)
	if ap.Error != "" {
		return nil, false
	}
	xs := S(x)
	out := make([]Expr, 0, len(ap.Parts))
	for _, pt := range ap.Parts {
		switch {
		case pt.Poly != nil:
			anti := make(RatPoly, len(pt.Poly)+1)
			anti[0] = new(big.Rat)
			for i, c := range pt.Poly {
				anti[i+1] = new(big.Rat).Quo(c, big.NewRat(int64(i+1), 1))
			}
			out = append(out, anti.Expr(x))
		case pt.Coeff != nil:
			base := AddOf(xs, NRat(new(big.Rat).Neg(pt.Root)))
			if pt.Power == 1 {
				out = append(out, MulOf(NRat(pt.Coeff), LnOf(AbsOf(base))))
			} else {
				k := int64(1 - pt.Power)
				out = append(out, MulOf(NRat(pt.Coeff), F(1, k), PowOf(base, N(k))))
			}
		default:
			r, ok := integrateIrreducible(pt.Num, pt.Den, x)
			if !ok {
				return nil, false
			}
			out = append(out, r)
		}
	}
	return AddOf(out...), true
}

// integrateIrreducible integrates num/den where den has no rational roots.
func integrateIrreducible(num, den RatPoly, x string) (Expr, bool) {
	denE := den.Expr(x)
	if den.Degree() == 2 && num.Degree() <= 1 {
		A, B, C := NRat(den.Coeff(2)), NRat(den.Coeff(1)), NRat(den.Coeff(0))
		P, Q := NRat(num.Coeff(1)), NRat(num.Coeff(0))
		D := numSub(numMul(N(4), numMul(A, C)), numMul(B, B))
		var logPart Expr = N(0)
		if !P.IsZero() {
			var lnArg Expr
			switch {
			case D.IsPositive() && A.IsPositive():
				lnArg = denE
			case D.IsPositive():
				lnArg = Neg(denE)
			default:
				lnArg = AbsOf(denE)
			}
			logPart = MulOf(numDiv(P, numMul(N(2), A)), LnOf(lnArg))
		}
		rest := numSub(Q, numDiv(numMul(P, B), numMul(N(2), A)))
		if rest.IsZero() {
			return logPart, true
		}
		lin := AddOf(MulOf(numMul(N(2), A), S(x)), B)
		var inv Expr
		if D.IsPositive() {
			sd := SqrtOf(D)
			inv = MulOf(N(2), Div(AtanOf(Div(lin, sd)), sd))
		} else {
			s := SqrtOf(numNeg(D))
			inv = Div(LnOf(AbsOf(Div(Subtract(lin, s), AddOf(lin, s)))), s)
		}
		return AddOf(logPart, MulOf(rest, inv)), true
	}
	// num = c * den' integrates to c ln|den|.
	d := den.Deriv()
	q, r := num.DivMod(d)
	if r.IsZero() && q.Degree() == 0 {
		return MulOf(NRat(q.Coeff(0)), LnOf(AbsOf(denE))), true
	}
	return nil, false
}

// integrateExpTrig handles exp(a x + b) * sin/cos(p x + q).
func integrateExpTrig(e Expr, x string) (Expr, bool) {
	m, ok := e.(*Mul)
	if !ok || len(m.factors) != 2 {
		return nil, false
	}
	var ex, tr *Func
	for _, f := range m.factors {
		fn, ok := f.(*Func)
		if !ok {
			return nil, false
		}
		switch fn.name {
		case "exp":
			ex = fn
		case "sin", "cos":
			tr = fn
		}
	}
	if ex == nil || tr == nil {
		return nil, false
	}
	a, _, ok1 := linearIn(ex.arg, x)
	p, _, ok2 := linearIn(tr.arg, x)
	if !ok1 || !ok2 {
		return nil, false
	}
	den := AddOf(PowOf(a, N(2)), PowOf(p, N(2)))
	var inner Expr
	if tr.name == "sin" {
		inner = Subtract(MulOf(a, SinOf(tr.arg)), MulOf(p, CosOf(tr.arg)))
	} else {
		inner = AddOf(MulOf(a, CosOf(tr.arg)), MulOf(p, SinOf(tr.arg)))
	}
	return Div(MulOf(ex, inner), den), true
}

// integrateSubstitution tries u = g(x) for each inner expression g of e and
// succeeds when e / g'(x) rewrites as a function of u alone.
func integrateSubstitution(e Expr, x string, depth int) (Expr, bool) {
	u := S("_u" + strconv.Itoa(depth))
	for _, g := range substitutionCandidates(e, x) {
		dg := Diff(g, x)
		if isNumEqual(dg, 0) {
			continue
		}
		ratio := DeepSimplify(Div(e, dg))
		h := Replace(ratio, g, u)
		if DependsOn(h, x) {
			continue
		}
		anti, ok := integrate(h, u.name, depth+1)
		if !ok {
			continue
		}
		return anti.Sub(u.name, g).Simplify(), true
	}
	return nil, false
}

func substitutionCandidates(e Expr, x string) []Expr {
	var out []Expr
	seen := map[string]bool{}
	add := func(g Expr) {
		if s, ok := g.(*Sym); ok && s.name == x {
			return
		}
		if !DependsOn(g, x) || seen[g.String()] {
			return
		}
		seen[g.String()] = true
		out = append(out, g)
	}
	var walk func(Expr, int)
	walk = func(n Expr, level int) {
		if level > 3 {
			return
		}
		switch v := n.(type) {
		case *Mul:
			for _, f := range v.factors {
				walk(f, level+1)
			}
		case *Pow:
			add(v.base)
			if DependsOn(v.exp, x) {
				add(v.exp)
			}
			walk(v.base, level+1)
		case *Func:
			add(v.arg)
			if level > 0 {
				add(v)
			}
			walk(v.arg, level+1)
		}
	}
	walk(e, 0)
	return out
}

// integrateByParts handles P(x)*T(x) with P a polynomial and T one of sin,
// cos, exp, sinh, cosh over a linear argument (tabular method), or one of
// ln, atan, asin, acos (differentiate T).
func integrateByParts(e Expr, x string, depth int) (Expr, bool) {
	m, ok := e.(*Mul)
	if !ok {
		return nil, false
	}
	var polyFactors []Expr
	var other Expr
	for _, f := range m.factors {
		if _, isPoly := ToRatPoly(f, x); isPoly {
			polyFactors = append(polyFactors, f)
			continue
		}
		if other != nil {
			return nil, false
		}
		other = f
	}
	if other == nil || len(polyFactors) == 0 {
		return nil, false
	}
	P := MulOf(polyFactors...)
	fn, isFunc := other.(*Func)
	if !isFunc {
		return nil, false
	}
	switch fn.name {
	case "sin", "cos", "exp", "sinh", "cosh":
		if _, _, ok := linearIn(fn.arg, x); !ok {
			return nil, false
		}
		result := []Expr{}
		sign := int64(1)
		curP := P
		curT, ok := integrateTable(fn, x)
		if !ok {
			return nil, false
		}
		for i := 0; i <= maxPolyDegree && !isNumEqual(curP, 0); i++ {
			result = append(result, MulOf(N(sign), curP, curT))
			curP = Diff(curP, x)
			next, ok := integrate(curT, x, depth+1)
			if !ok {
				return nil, false
			}
			curT = next
			sign = -sign
		}
		return AddOf(result...), true
	case "ln", "atan", "asin", "acos":
		Q, ok := integrate(P, x, depth+1)
		if !ok {
			return nil, false
		}
		rest, ok := integrate(DeepSimplify(MulOf(Q, Diff(fn, x))), x, depth+1)
		if !ok {
			return nil, false
		}
		return Subtract(MulOf(Q, fn), rest), true
	}
	return nil, false
}
