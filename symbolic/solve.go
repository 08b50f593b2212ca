package symbolic

import (
	"math"
	"math/big"
	"sort"
)

// ============================================================
// Solvers
// ============================================================

// SolveResult lists the real solutions found for expr = 0. An empty list with
// no Error means there is no real solution. Residual, when non-empty, is a
// factor of the polynomial whose roots have no closed form here; callers find
// those numerically.
type SolveResult struct {
	Solutions []Expr
	ExactForm bool
	Identity  bool
	Residual  RatPoly
	Error     string
}

const maxSolveDepth = 8

// Solve finds the real values of varName with expr = 0.
func Solve(expr Expr, varName string) SolveResult {
	e := DeepSimplify(expr)
	if HasSpecial(e) {
		return SolveResult{Error: "equation is undefined: " + e.String()}
	}
	if !DependsOn(e, varName) {
		if isZeroValue(e) {
			return SolveResult{Identity: true, ExactForm: true}
		}
		if len(FreeSymbols(e)) == 0 {
			return SolveResult{ExactForm: true}
		}
		return SolveResult{Error: "equation does not contain " + varName}
	}
	num, den := NumerDenom(e)
	res := solveZero(num.Simplify(), varName, 0)
	if res.Error != "" || res.Identity {
		return res
	}
	kept := make([]Expr, 0, len(res.Solutions))
	for _, s := range res.Solutions {
		if checkRoot(e, den, varName, s) {
			kept = append(kept, s)
		}
	}
	res.Solutions = sortSolutions(kept)
	res.ExactForm = true
	for _, s := range res.Solutions {
		if HasApprox(s) {
			res.ExactForm = false
		}
	}
	return res
}

// checkRoot drops candidates that hit a pole or do not satisfy e = 0.
// Candidates that cannot be evaluated (symbolic parameters) are kept.
func checkRoot(e, den Expr, x string, s Expr) bool {
	if d := DeepSimplify(den.Sub(x, s)); isZeroValue(d) || HasSpecial(d) {
		return false
	}
	r := DeepSimplify(e.Sub(x, s))
	if HasSpecial(r) {
		return false
	}
	if len(FreeSymbols(r)) > 0 {
		return true
	}
	v, ok := EvalFloat(r, nil)
	if !ok {
		return false
	}
	scale := 1.0
	if sv, ok := EvalFloat(s, nil); ok {
		scale = math.Max(1, math.Abs(sv))
	}
	return math.Abs(v) <= 1e-9*scale
}

func sortSolutions(sols []Expr) []Expr {
	seen := map[string]bool{}
	out := make([]Expr, 0, len(sols))
	for _, s := range sols {
		k := s.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := EvalFloat(out[i], nil)
		b, okB := EvalFloat(out[j], nil)
		switch {
		case okA && okB && a != b:
			return a < b
		case okA != okB:
			return okA
		}
		return out[i].String() < out[j].String()
	})
	return out
}

func solveZero(e Expr, x string, depth int) SolveResult {
	if depth > maxSolveDepth {
		return SolveResult{Error: "no closed form for " + x}
	}
	if !DependsOn(e, x) {
		if isZeroValue(e) {
			return SolveResult{Identity: true}
		}
		return SolveResult{}
	}
	if p, ok := ToRatPoly(Expand(e), x); ok {
		return solveRatPoly(p)
	}
	switch v := e.(type) {
	case *Mul:
		// A product vanishes when one of its factors does.
		var out SolveResult
		for _, f := range v.factors {
			if !DependsOn(f, x) {
				continue
			}
			r := solveZero(f, x, depth+1)
			if r.Error != "" {
				return r
			}
			out.Solutions = append(out.Solutions, r.Solutions...)
			out.Residual = mergeResidual(out.Residual, r.Residual)
		}
		return out
	case *Pow:
		if en, ok := v.exp.(*Num); ok {
			if en.IsPositive() {
				return solveZero(v.base, x, depth+1)
			}
			return SolveResult{}
		}
	}
	if coeffs, ok := PolyCoeffs(e, x); ok {
		switch coeffs.MaxDegree() {
		case 1:
			return SolveLinear(coeffs.Coeff(1), coeffs.Coeff(0))
		case 2:
			return SolveQuadraticExact(coeffs.Coeff(2), coeffs.Coeff(1), coeffs.Coeff(0))
		}
	}
	if sols, ok := isolate(e, N(0), x, depth); ok {
		return SolveResult{Solutions: sols}
	}
	if sols, ok := solveBySubstitution(e, x, depth); ok {
		return SolveResult{Solutions: sols}
	}
	return SolveResult{Error: "no closed form for " + x}
}

func mergeResidual(a, b RatPoly) RatPoly {
	switch {
	case a.Degree() < 1:
		return b
	case b.Degree() < 1:
		return a
	}
	return a.Mul(b)
}

// solveRatPoly finds rational roots, then closed forms for a remaining
// quadratic or biquadratic factor. Anything else is returned as Residual.
func solveRatPoly(p RatPoly) SolveResult {
	switch p.Degree() {
	case -1:
		return SolveResult{Identity: true}
	case 0:
		return SolveResult{}
	}
	roots, _, rest := p.RationalRoots()
	var sols []Expr
	for _, r := range roots {
		sols = append(sols, NRat(r))
	}
	switch {
	case rest.Degree() == 2:
		sols = append(sols, quadraticRoots(rest.Coeff(2), rest.Coeff(1), rest.Coeff(0))...)
	case rest.Degree() == 4 && rest.Coeff(1).Sign() == 0 && rest.Coeff(3).Sign() == 0:
		for _, y := range quadraticRoots(rest.Coeff(4), rest.Coeff(2), rest.Coeff(0)) {
			if v, ok := EvalFloat(y, nil); ok && v > 0 {
				r := SqrtOf(y)
				sols = append(sols, Neg(r), r)
			}
		}
	case rest.Degree() >= 3:
		return SolveResult{Solutions: sols, Residual: rest}
	}
	return SolveResult{Solutions: sols}
}

// quadraticRoots returns the real roots of a x² + b x + c.
func quadraticRoots(a, b, c *big.Rat) []Expr {
	disc := new(big.Rat).Sub(new(big.Rat).Mul(b, b), new(big.Rat).Mul(big.NewRat(4, 1), new(big.Rat).Mul(a, c)))
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	mid := NRat(new(big.Rat).Quo(new(big.Rat).Neg(b), twoA))
	switch disc.Sign() {
	case -1:
		return nil
	case 0:
		return []Expr{mid}
	}
	off := MulOf(NRat(new(big.Rat).Inv(twoA)), SqrtOf(NRat(disc)))
	return []Expr{AddOf(mid, off), Subtract(mid, off)}
}

// SolveLinear solves a x + b = 0.
func SolveLinear(a, b Expr) SolveResult {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	if aok && bok && !an.approx && !bn.approx {
		if an.IsZero() {
			if bn.IsZero() {
				return SolveResult{Identity: true, ExactForm: true}
			}
			return SolveResult{ExactForm: true}
		}
		return SolveResult{Solutions: []Expr{numDiv(numNeg(bn), an)}, ExactForm: true}
	}
	return SolveResult{Solutions: []Expr{DeepSimplify(Neg(Div(b, a)))}, ExactForm: !HasApprox(a) && !HasApprox(b)}
}

// SolveQuadraticExact solves a x² + b x + c = 0 in closed form. Numeric
// coefficients with a negative discriminant give no real solutions.
func SolveQuadraticExact(a, b, c Expr) SolveResult {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	cn, cok := c.Eval()
	if aok && bok && cok {
		if an.IsZero() {
			return SolveLinear(b, c)
		}
		if !an.approx && !bn.approx && !cn.approx {
			return SolveResult{Solutions: quadraticRoots(an.val, bn.val, cn.val), ExactForm: true}
		}
		af, bf, cf := an.Float64(), bn.Float64(), cn.Float64()
		disc := bf*bf - 4*af*cf
		if disc < 0 {
			return SolveResult{}
		}
		sq := math.Sqrt(disc)
		return SolveResult{Solutions: []Expr{NFloat((-bf - sq) / (2 * af)), NFloat((-bf + sq) / (2 * af))}}
	}
	disc := Subtract(PowOf(b, N(2)), MulOf(N(4), a, c))
	denom := MulOf(N(2), a)
	x1 := Div(Subtract(Neg(b), SqrtOf(disc)), denom)
	x2 := Div(AddOf(Neg(b), SqrtOf(disc)), denom)
	return SolveResult{Solutions: []Expr{DeepSimplify(x1), DeepSimplify(x2)}, ExactForm: true}
}

// ============================================================
// Isolation by inverse functions
// ============================================================

// isolate solves lhs = rhs, with rhs free of x, by peeling operations off lhs.
// Periodic functions contribute their principal solutions only.
func isolate(lhs, rhs Expr, x string, depth int) ([]Expr, bool) {
	if depth > maxSolveDepth {
		return nil, false
	}
	lhs = lhs.Simplify()
	rhs = rhs.Simplify()
	if s, ok := lhs.(*Sym); ok && s.name == x {
		return []Expr{rhs}, true
	}
	if !DependsOn(lhs, x) {
		return nil, false
	}
	rv, known := EvalFloat(rhs, nil)
	switch v := lhs.(type) {
	case *Add:
		var dep, indep []Expr
		for _, t := range v.terms {
			if DependsOn(t, x) {
				dep = append(dep, t)
			} else {
				indep = append(indep, t)
			}
		}
		if len(dep) != 1 {
			return nil, false
		}
		return isolate(dep[0], Subtract(rhs, AddOf(indep...)), x, depth+1)
	case *Mul:
		c, rest := splitConstFactor(v, x)
		if isNumEqual(c, 1) {
			return nil, false
		}
		return isolate(rest, Div(rhs, c), x, depth+1)
	case *Pow:
		return isolatePow(v, rhs, rv, known, x, depth)
	case *Func:
		return isolateFunc(v, rhs, rv, known, x, depth)
	}
	return nil, false
}

func isolatePow(v *Pow, rhs Expr, rv float64, known bool, x string, depth int) ([]Expr, bool) {
	if !DependsOn(v.exp, x) {
		en, isNum := v.exp.(*Num)
		if !isNum {
			return isolate(v.base, PowOf(rhs, PowOf(v.exp, N(-1))), x, depth+1)
		}
		if isNumEqual(rhs, 0) {
			if en.IsPositive() {
				return isolate(v.base, N(0), x, depth+1)
			}
			return nil, true
		}
		inv := numRecip(en)
		evenNum := en.val.Num().Bit(0) == 0
		evenDen := en.val.Denom().Bit(0) == 0
		if evenDen && known && rv < 0 {
			return nil, true
		}
		if !evenNum {
			return isolate(v.base, PowOf(rhs, inv), x, depth+1)
		}
		if known && rv < 0 {
			return nil, true
		}
		r := PowOf(rhs, inv)
		return isolateEach(v.base, []Expr{r, Neg(r)}, x, depth)
	}
	if !DependsOn(v.base, x) {
		if known && rv <= 0 {
			return nil, true
		}
		return isolate(v.exp, Div(LnOf(rhs), LnOf(v.base)), x, depth+1)
	}
	return nil, false
}

func isolateFunc(v *Func, rhs Expr, rv float64, known bool, x string, depth int) ([]Expr, bool) {
	switch v.name {
	case "exp":
		if known && rv <= 0 {
			return nil, true
		}
		return isolate(v.arg, LnOf(rhs), x, depth+1)
	case "ln":
		return isolate(v.arg, ExpOf(rhs), x, depth+1)
	case "sin":
		if known && math.Abs(rv) > 1 {
			return nil, true
		}
		a := AsinOf(rhs)
		return isolateEach(v.arg, []Expr{a, Subtract(Pi, a)}, x, depth)
	case "cos":
		if known && math.Abs(rv) > 1 {
			return nil, true
		}
		a := AcosOf(rhs)
		return isolateEach(v.arg, []Expr{a, Subtract(MulOf(N(2), Pi), a)}, x, depth)
	case "tan":
		return isolate(v.arg, AtanOf(rhs), x, depth+1)
	case "asin":
		if known && math.Abs(rv) > math.Pi/2 {
			return nil, true
		}
		return isolate(v.arg, SinOf(rhs), x, depth+1)
	case "acos":
		if known && (rv < 0 || rv > math.Pi) {
			return nil, true
		}
		return isolate(v.arg, CosOf(rhs), x, depth+1)
	case "atan":
		if known && math.Abs(rv) >= math.Pi/2 {
			return nil, true
		}
		return isolate(v.arg, TanOf(rhs), x, depth+1)
	case "sinh":
		return isolate(v.arg, LnOf(AddOf(rhs, SqrtOf(AddOf(PowOf(rhs, N(2)), N(1))))), x, depth+1)
	case "cosh":
		if known && rv < 1 {
			return nil, true
		}
		r := LnOf(AddOf(rhs, SqrtOf(Subtract(PowOf(rhs, N(2)), N(1)))))
		return isolateEach(v.arg, []Expr{r, Neg(r)}, x, depth)
	case "tanh":
		if known && math.Abs(rv) >= 1 {
			return nil, true
		}
		return isolate(v.arg, MulOf(F(1, 2), LnOf(Div(AddOf(N(1), rhs), Subtract(N(1), rhs)))), x, depth+1)
	case "abs":
		if known && rv < 0 {
			return nil, true
		}
		return isolateEach(v.arg, []Expr{rhs, Neg(rhs)}, x, depth)
	}
	return nil, false
}

func isolateEach(lhs Expr, targets []Expr, x string, depth int) ([]Expr, bool) {
	var out []Expr
	seen := map[string]bool{}
	for _, t := range targets {
		t = t.Simplify()
		if seen[t.String()] {
			continue
		}
		seen[t.String()] = true
		sols, ok := isolate(lhs, t, x, depth+1)
		if !ok {
			return nil, false
		}
		out = append(out, sols...)
	}
	return out, true
}

// solveBySubstitution treats e as a polynomial in some inner expression g,
// solves for u = g, then isolates x from g = u.
func solveBySubstitution(e Expr, x string, depth int) ([]Expr, bool) {
	u := "_s" + string(rune('0'+depth))
	for _, g := range substitutionCandidates(e, x) {
		h := Replace(e, g, S(u))
		if DependsOn(h, x) {
			continue
		}
		inner := solveZero(h, u, depth+1)
		if inner.Error != "" || inner.Identity || inner.Residual.Degree() >= 1 {
			continue
		}
		var out []Expr
		ok := true
		for _, s := range inner.Solutions {
			sols, fine := isolate(g, s, x, depth+1)
			if !fine {
				ok = false
				break
			}
			out = append(out, sols...)
		}
		if ok {
			return out, true
		}
	}
	return nil, false
}
