package symbolic

import (
	"math/big"
	"sort"
)

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns the free symbols of e in lexical order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// ============================================================
// Polynomial utilities
// ============================================================

// Degree is the degree of expr in varName, counting only integer powers.
func Degree(expr Expr, varName string) int {
	expr = expr.Simplify()
	switch v := expr.(type) {
	case *Sym:
		if v.name == varName {
			return 1
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if k, ok2 := intExp(v.exp); ok2 {
				return k
			}
		}
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			if d := Degree(t, varName); d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		totalDeg := 0
		for _, f := range v.factors {
			totalDeg += Degree(f, varName)
		}
		return totalDeg
	}
	return 0
}

func intExp(e Expr) (int, bool) {
	n, ok := e.(*Num)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	k, fits := n.Int64()
	if !fits || k > maxPolyDegree || k < -maxPolyDegree {
		return 0, false
	}
	return int(k), true
}

type PolyCoeffsResult map[int]Expr

// PolyCoeffs expands expr and groups its terms by the power of varName. The
// second result is false when expr is not a polynomial in varName (a
// coefficient still depends on varName, or a power is not a non-negative
// integer).
func PolyCoeffs(expr Expr, varName string) (PolyCoeffsResult, bool) {
	result := PolyCoeffsResult{}
	ok := extractCoeffs(Expand(expr), varName, result)
	return result, ok
}

func extractCoeffs(e Expr, varName string, out PolyCoeffsResult) bool {
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if !extractCoeffs(t, varName, out) {
				return false
			}
		}
		return true
	case *Mul:
		deg := 0
		coeffFactors := []Expr{}
		for _, f := range v.factors {
			d, isPower := varPower(f, varName)
			switch {
			case isPower:
				deg += d
			case DependsOn(f, varName):
				return false
			default:
				coeffFactors = append(coeffFactors, f)
			}
		}
		addCoeff(out, deg, MulOf(coeffFactors...))
		return true
	}
	if d, isPower := varPower(e, varName); isPower {
		addCoeff(out, d, N(1))
		return true
	}
	if DependsOn(e, varName) {
		return false
	}
	addCoeff(out, 0, e)
	return true
}

// varPower matches x or x^k for a positive integer k.
func varPower(e Expr, varName string) (int, bool) {
	switch v := e.(type) {
	case *Sym:
		if v.name == varName {
			return 1, true
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if k, ok := intExp(v.exp); ok && k > 0 {
				return k, true
			}
		}
	}
	return 0, false
}

func addCoeff(out PolyCoeffsResult, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = AddOf(existing, val)
	} else {
		out[deg] = val.Simplify()
	}
}

// Coeff returns the coefficient of degree d, or 0.
func (r PolyCoeffsResult) Coeff(d int) Expr {
	if c, ok := r[d]; ok {
		return c
	}
	return N(0)
}

// MaxDegree is the highest degree with a non-zero coefficient.
func (r PolyCoeffsResult) MaxDegree() int {
	maxDeg := -1
	for d, c := range r {
		if isNumEqual(c, 0) {
			continue
		}
		if d > maxDeg {
			maxDeg = d
		}
	}
	return maxDeg
}

// ============================================================
// Rational functions
// ============================================================

// NumerDenom writes e as a single fraction num/den.
func NumerDenom(e Expr) (num, den Expr) {
	switch v := e.(type) {
	case *Num:
		if v.approx || v.IsInteger() {
			return v, N(1)
		}
		return NRat(new(big.Rat).SetInt(v.val.Num())), NRat(new(big.Rat).SetInt(v.val.Denom()))
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsNegative() {
			bn, bd := NumerDenom(v.base)
			pos := numNeg(n)
			return PowOf(bd, pos), PowOf(bn, pos)
		}
	case *Mul:
		nums := make([]Expr, 0, len(v.factors))
		dens := make([]Expr, 0, len(v.factors))
		for _, f := range v.factors {
			n, d := NumerDenom(f)
			nums = append(nums, n)
			dens = append(dens, d)
		}
		return MulOf(nums...), MulOf(dens...)
	case *Add:
		var accNum, accDen Expr = N(0), N(1)
		for _, t := range v.terms {
			n, d := NumerDenom(t)
			if accDen.Equal(d) {
				accNum = AddOf(accNum, n)
				continue
			}
			accNum = AddOf(MulOf(accNum, d), MulOf(n, accDen))
			accDen = MulOf(accDen, d)
		}
		return accNum, accDen
	}
	return e, N(1)
}

// Together combines e into one fraction.
func Together(e Expr) Expr {
	num, den := NumerDenom(e)
	return Div(num, den)
}

// CancelRational cancels the polynomial gcd of numerator and denominator
// when e is a rational function of one variable. Other inputs come back
// unchanged.
func CancelRational(e Expr) Expr {
	vars := SortedSymbols(e)
	if len(vars) != 1 {
		return e
	}
	num, den := NumerDenom(e)
	if isNumEqual(den, 1) {
		return e
	}
	p, ok1 := ToRatPoly(num, vars[0])
	q, ok2 := ToRatPoly(den, vars[0])
	if !ok1 || !ok2 || q.IsZero() {
		return e
	}
	g := p.GCD(q)
	if g.Degree() < 1 && q.Degree() >= 1 {
		return e
	}
	p, _ = p.DivMod(g)
	q, _ = q.DivMod(g)
	lead := new(big.Rat).Set(q.Lead())
	q = q.Scale(new(big.Rat).Inv(lead))
	p = p.Scale(new(big.Rat).Inv(lead))
	if q.Degree() == 0 {
		return p.Expr(vars[0])
	}
	return Div(p.Expr(vars[0]), q.Expr(vars[0]))
}

// ============================================================
// Symbolic Factoring
// ============================================================

// FactorResult holds the result of a factoring attempt.
type FactorResult struct {
	Factors []Expr
	Success bool
}

// Factor splits a polynomial in varName into its rational content, linear
// factors from rational roots (with multiplicity) and a remaining factor
// without rational roots.
func Factor(expr Expr, varName string) FactorResult {
	p, ok := ToRatPoly(expr.Simplify(), varName)
	if !ok || p.Degree() < 1 {
		return FactorResult{Factors: []Expr{expr.Simplify()}, Success: false}
	}
	roots, mult, rest := p.RationalRoots()
	var factors []Expr
	x := S(varName)
	content := new(big.Rat).Set(rest.Lead())
	for i, r := range roots {
		// (q*x - p) keeps integer coefficients.
		lin := AddOf(MulOf(NRat(new(big.Rat).SetInt(r.Denom())), x), NRat(new(big.Rat).Neg(new(big.Rat).SetInt(r.Num()))))
		content.Quo(content, new(big.Rat).SetInt(new(big.Int).Exp(r.Denom(), big.NewInt(int64(mult[i])), nil)))
		factors = append(factors, PowOf(lin, N(int64(mult[i]))))
	}
	if rest.Degree() >= 1 {
		factors = append(factors, rest.Monic().Expr(varName))
	}
	if content.Cmp(big.NewRat(1, 1)) != 0 {
		factors = append([]Expr{NRat(content)}, factors...)
	}
	return FactorResult{Factors: factors, Success: len(factors) > 1 || len(roots) > 0 && mult[0] > 1}
}

// ============================================================
// Partial Fractions
// ============================================================

// ApartTerm is one summand of a partial fraction decomposition.
type ApartTerm struct {
	// Poly is set for the polynomial part.
	Poly RatPoly
	// Coeff/(x - Root)^Power for linear factors.
	Coeff *big.Rat
	Root  *big.Rat
	Power int
	// Num/Den for the part whose denominator has no rational roots.
	Num, Den RatPoly
}

type ApartResult struct {
	Terms []Expr
	Parts []ApartTerm
	Error string
}

// Apart decomposes num/denom into partial fractions over the rationals.
func Apart(num, denom Expr, varName string) ApartResult {
	p, ok1 := ToRatPoly(num.Simplify(), varName)
	q, ok2 := ToRatPoly(denom.Simplify(), varName)
	if !ok1 || !ok2 || q.IsZero() {
		return ApartResult{Error: "not a rational function of " + varName}
	}
	poly, r := p.DivMod(q)
	var parts []ApartTerm
	if !poly.IsZero() {
		parts = append(parts, ApartTerm{Poly: poly})
	}
	if !r.IsZero() {
		roots, mult, rest := q.RationalRoots()
		// q = lead(rest) * rest_monic * prod (x - a)^m, with rest keeping the lead.
		linear := RatPoly{big.NewRat(1, 1)}
		for i, a := range roots {
			linear = linear.Mul(linPow(a, mult[i]))
		}
		sum := RatPoly{}
		for i, a := range roots {
			m := mult[i]
			q1, _ := q.DivMod(linPow(a, m))
			cs := seriesQuotient(r.Shift(a), q1.Shift(a), m)
			for j := 0; j < m; j++ {
				k := m - j
				if cs[j].Sign() == 0 {
					continue
				}
				parts = append(parts, ApartTerm{Coeff: cs[j], Root: a, Power: k})
				qk, _ := q.DivMod(linPow(a, k))
				sum = sum.Add(qk.Scale(cs[j]))
			}
		}
		if rest.Degree() >= 1 {
			nr, _ := r.Sub(sum).DivMod(linear)
			if !nr.IsZero() {
				parts = append(parts, ApartTerm{Num: nr, Den: rest})
			}
		}
	}
	terms := make([]Expr, len(parts))
	for i, pt := range parts {
		terms[i] = pt.Expr(varName)
	}
	return ApartResult{Terms: terms, Parts: parts}
}

func linPow(a *big.Rat, m int) RatPoly {
	lin := RatPoly{new(big.Rat).Neg(a), big.NewRat(1, 1)}
	out := RatPoly{big.NewRat(1, 1)}
	for i := 0; i < m; i++ {
		out = out.Mul(lin)
	}
	return out
}

func (t ApartTerm) Expr(varName string) Expr {
	x := S(varName)
	switch {
	case t.Poly != nil:
		return t.Poly.Expr(varName)
	case t.Coeff != nil:
		base := AddOf(x, NRat(new(big.Rat).Neg(t.Root)))
		return MulOf(NRat(t.Coeff), PowOf(base, N(int64(-t.Power))))
	}
	return Div(t.Num.Expr(varName), t.Den.Expr(varName))
}
