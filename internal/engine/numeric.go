package engine

import (
	"context"
	"errors"
	"math"
	"math/big"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/njchilds90/latexcalc/symbolic"
)

// ============================================================
// Polynomial roots (companion matrix)
// ============================================================

// polyRealRoots returns the real roots of p, ascending. The eigenvalues of
// the companion matrix seed the roots and a few Newton steps on p polish
// them.
func polyRealRoots(p symbolic.RatPoly, tol float64) ([]float64, error) {
	n := p.Degree()
	if n < 1 {
		return nil, nil
	}
	lead, _ := p.Lead().Float64()
	comp := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		comp.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		c, _ := p.Coeff(i).Float64()
		comp.Set(i, n-1, -c/lead)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return nil, errors.New("eigenvalue decomposition did not converge")
	}
	dp := p.Deriv()
	var roots []float64
	for _, z := range eig.Values(nil) {
		re, im := real(z), imag(z)
		if math.Abs(im) > 1e-7*math.Max(1, math.Abs(re)) {
			continue
		}
		for i := 0; i < 8; i++ {
			d := dp.EvalFloat(re)
			if d == 0 {
				break
			}
			step := p.EvalFloat(re) / d
			re -= step
			if math.Abs(step) < tol {
				break
			}
		}
		roots = append(roots, re)
	}
	return dedupe(roots), nil
}

// ============================================================
// Scalar root finding
// ============================================================

const scanSteps = 4000

// scanRoots looks for roots of f on [lo, hi]: sign changes on a uniform grid
// are bisected and then polished with Newton on df. Local minima of |f| that
// touch zero without a sign change are tried with Newton alone. Candidates
// whose residual is not small are dropped, which filters out poles.
func scanRoots(ctx context.Context, f, df func(float64) float64, lo, hi, tol float64, maxIter int) ([]float64, error) {
	grid := floats.Span(make([]float64, scanSteps+1), lo, hi)
	vals := make([]float64, len(grid))
	for i, x := range grid {
		vals[i] = f(x)
	}
	accept := func(x float64) bool {
		fx := f(x)
		return !math.IsNaN(fx) && math.Abs(fx) <= math.Sqrt(tol)*math.Max(1, math.Abs(x))
	}

	var roots []float64
	for i := 0; i+1 < len(grid); i++ {
		if i%256 == 0 {
			if err := checkpoint(ctx); err != nil {
				return nil, err
			}
		}
		a, b := grid[i], grid[i+1]
		fa, fb := vals[i], vals[i+1]
		if math.IsNaN(fa) || math.IsNaN(fb) || math.IsInf(fa, 0) || math.IsInf(fb, 0) {
			continue
		}
		switch {
		case fa == 0:
			roots = append(roots, a)
		case fa*fb < 0:
			r := bisect(f, a, b, fa, tol, maxIter)
			r = newton(f, df, r, tol, maxIter)
			if r >= a-tol && r <= b+tol && accept(r) {
				roots = append(roots, r)
			}
		case i > 0 && isLocalMin(vals[i-1], fa, fb):
			r := newton(f, df, a, tol, maxIter)
			if math.Abs(r-a) <= (hi-lo)/scanSteps && accept(r) {
				roots = append(roots, r)
			}
		}
	}
	if f(hi) == 0 {
		roots = append(roots, hi)
	}
	return dedupe(roots), nil
}

func isLocalMin(prev, cur, next float64) bool {
	if math.IsNaN(prev) || math.IsNaN(next) {
		return false
	}
	return math.Abs(cur) <= math.Abs(prev) && math.Abs(cur) <= math.Abs(next) && prev*cur > 0 && cur*next > 0
}

func bisect(f func(float64) float64, a, b, fa, tol float64, maxIter int) float64 {
	for i := 0; i < maxIter && b-a > tol; i++ {
		m := a + (b-a)/2
		fm := f(m)
		if fm == 0 {
			return m
		}
		if fa*fm < 0 {
			b = m
		} else {
			a, fa = m, fm
		}
	}
	return a + (b-a)/2
}

// newton refines x0. It returns x0 unchanged when the iteration leaves the
// real line or the derivative vanishes.
func newton(f, df func(float64) float64, x0, tol float64, maxIter int) float64 {
	if df == nil {
		return x0
	}
	x := x0
	for i := 0; i < maxIter; i++ {
		d := df(x)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return x0
		}
		step := f(x) / d
		if math.IsNaN(step) {
			return x0
		}
		x -= step
		if math.Abs(step) <= tol*math.Max(1, math.Abs(x)) {
			return x
		}
	}
	if math.IsNaN(f(x)) {
		return x0
	}
	return x
}

// dedupe sorts xs and merges values that agree to about eight digits.
func dedupe(xs []float64) []float64 {
	if len(xs) == 0 {
		return xs
	}
	sort.Float64s(xs)
	out := xs[:1]
	for _, x := range xs[1:] {
		if !scalar.EqualWithinAbsOrRel(x, out[len(out)-1], 1e-8, 1e-8) {
			out = append(out, x)
		}
	}
	for i, x := range out {
		out[i] = cleanZero(x)
	}
	return out
}

func cleanZero(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 0
	}
	return x
}

// ============================================================
// Systems (Newton with the symbolic Jacobian)
// ============================================================

const systemStarts = 24

// newtonSystem solves residuals = 0 from a fixed set of starting points and
// returns the distinct converged solutions. Each step solves J dx = -F with
// gonum; a non-square system is solved in the least-squares sense.
func newtonSystem(ctx context.Context, residuals []symbolic.Expr, vars []string, tol float64, maxIter int) ([]map[string]float64, error) {
	jac := symbolic.Jacobian(residuals, vars)
	m, n := len(residuals), len(vars)
	rng := rand.New(rand.NewPCG(1, uint64(m*31+n)))

	var found []map[string]float64
	for s := 0; s < systemStarts; s++ {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		x := make([]float64, n)
		for j := range x {
			x[j] = 0.5 + float64(s%4) - 4*rng.Float64()*float64(1+s/8)
		}
		sol, ok := newtonFrom(residuals, jac, vars, x, tol, maxIter)
		if !ok {
			continue
		}
		dup := false
		for _, prev := range found {
			if sameSolution(prev, sol, vars) {
				dup = true
				break
			}
		}
		if !dup {
			found = append(found, sol)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		for _, v := range vars {
			if found[i][v] != found[j][v] {
				return found[i][v] < found[j][v]
			}
		}
		return false
	})
	return found, nil
}

func newtonFrom(residuals []symbolic.Expr, jac *symbolic.Matrix, vars []string, x []float64, tol float64, maxIter int) (map[string]float64, bool) {
	m, n := len(residuals), len(vars)
	env := make(map[string]float64, n)
	fx := make([]float64, m)
	jx := mat.NewDense(m, n, nil)
	eval := func() bool {
		for j, v := range vars {
			env[v] = x[j]
		}
		for i, r := range residuals {
			val, ok := symbolic.EvalFloat(r, env)
			if !ok {
				return false
			}
			fx[i] = val
		}
		return true
	}
	for iter := 0; iter < maxIter; iter++ {
		if !eval() {
			return nil, false
		}
		if floats.Norm(fx, 2) <= tol {
			out := make(map[string]float64, n)
			for j, v := range vars {
				out[v] = cleanZero(x[j])
			}
			return out, true
		}
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				d, ok := symbolic.EvalFloat(jac.Get(i, j), env)
				if !ok {
					return nil, false
				}
				jx.Set(i, j, d)
			}
		}
		rhs := mat.NewVecDense(m, nil)
		for i := range fx {
			rhs.SetVec(i, -fx[i])
		}
		var dx mat.VecDense
		if err := dx.SolveVec(jx, rhs); err != nil {
			return nil, false
		}
		for j := range x {
			x[j] += dx.AtVec(j)
		}
	}
	return nil, false
}

func sameSolution(a, b map[string]float64, vars []string) bool {
	for _, v := range vars {
		if !scalar.EqualWithinAbsOrRel(a[v], b[v], 1e-7, 1e-7) {
			return false
		}
	}
	return true
}

// ============================================================
// Quadrature
// ============================================================

const quadNodes = 128

// quadrature integrates f over [lo, hi] with fixed Gauss-Legendre nodes.
func quadrature(f func(float64) float64, lo, hi float64) (float64, bool) {
	v := quad.Fixed(f, lo, hi, quadNodes, quad.Legendre{}, 0)
	return v, !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ============================================================
// Limit probing
// ============================================================

// approachSide approaches point from one side (sign +1 from above, -1 from
// below) and extrapolates. At an infinite point the side is implied by the
// sign of point. A result of ±Inf means the values grow without bound.
func approachSide(f func(float64) float64, point, sign float64) (float64, bool) {
	xs := make([]float64, 0, 6)
	for k := 2; k <= 7; k++ {
		h := math.Pow(10, -float64(k))
		switch {
		case math.IsInf(point, 1):
			xs = append(xs, 1/h)
		case math.IsInf(point, -1):
			xs = append(xs, -1/h)
		default:
			xs = append(xs, point+sign*h*math.Max(1, math.Abs(point)))
		}
	}
	vals := make([]float64, len(xs))
	for i, x := range xs {
		vals[i] = f(x)
		if math.IsNaN(vals[i]) {
			return 0, false
		}
	}
	last, prev := vals[len(vals)-1], vals[len(vals)-2]
	if math.IsInf(last, 0) {
		return last, true
	}
	if growing(vals) {
		return math.Copysign(math.Inf(1), last), true
	}
	if math.Abs(last-prev) > 1e-3*math.Max(1, math.Abs(last)) {
		return 0, false
	}
	// first-order Richardson step for errors linear in h
	return (10*last - prev) / 9, true
}

func growing(vals []float64) bool {
	n := len(vals)
	if math.Abs(vals[n-1]) < 1e6 {
		return false
	}
	for i := n - 3; i < n-1; i++ {
		if math.Abs(vals[i+1]) < 2*math.Abs(vals[i]) || vals[i+1]*vals[i] <= 0 {
			return false
		}
	}
	return true
}

// ============================================================
// Snapping floats to exact values
// ============================================================

const maxSnapDenominator = 1000

// snap returns an exact expression within tol of x when one of a few simple
// shapes fits: p/q, p/q*pi, p/q*e or sqrt(p/q). Otherwise it returns an
// approximate number.
func snap(x, tol float64) symbolic.Expr {
	if math.IsInf(x, 1) {
		return symbolic.Inf
	}
	if math.IsInf(x, -1) {
		return symbolic.NegInf
	}
	bound := tol * math.Max(1, math.Abs(x))
	if r, ok := rationalNear(x, bound); ok {
		return symbolic.NRat(r)
	}
	if r, ok := rationalNear(x/math.Pi, bound); ok {
		return symbolic.MulOf(symbolic.NRat(r), symbolic.Pi)
	}
	if r, ok := rationalNear(x/math.E, bound); ok {
		return symbolic.MulOf(symbolic.NRat(r), symbolic.E)
	}
	if r, ok := rationalNear(x*x, bound); ok && r.Sign() > 0 {
		root := symbolic.SqrtOf(symbolic.NRat(r))
		if x < 0 {
			return symbolic.Neg(root)
		}
		return root
	}
	return symbolic.NFloat(x)
}

func rationalNear(x, bound float64) (*big.Rat, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > 1e12 {
		return nil, false
	}
	for q := int64(1); q <= maxSnapDenominator; q++ {
		p := math.Round(x * float64(q))
		if math.Abs(p/float64(q)-x) <= bound {
			return big.NewRat(int64(p), q), true
		}
	}
	return nil, false
}
