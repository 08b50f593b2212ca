package symbolic

import (
	"math/big"
)

// ============================================================
// RatPoly: dense univariate polynomial over the rationals
// ============================================================

// RatPoly holds coefficients lowest degree first. The zero polynomial is
// empty.
type RatPoly []*big.Rat

const maxPolyDegree = 256

// ToRatPoly converts e to a polynomial in varName. It fails when e has other
// symbols, functions, or non-integer powers of varName.
func ToRatPoly(e Expr, varName string) (RatPoly, bool) {
	switch v := e.(type) {
	case *Num:
		return RatPoly{v.Rat()}.trim(), true
	case *Sym:
		if v.name != varName {
			return nil, false
		}
		return RatPoly{new(big.Rat), big.NewRat(1, 1)}, true
	case *Add:
		acc := RatPoly{}
		for _, t := range v.terms {
			p, ok := ToRatPoly(t, varName)
			if !ok {
				return nil, false
			}
			acc = acc.Add(p)
		}
		return acc, true
	case *Mul:
		acc := RatPoly{big.NewRat(1, 1)}
		for _, f := range v.factors {
			p, ok := ToRatPoly(f, varName)
			if !ok {
				return nil, false
			}
			acc = acc.Mul(p)
			if acc.Degree() > maxPolyDegree {
				return nil, false
			}
		}
		return acc, true
	case *Pow:
		n, ok := v.exp.(*Num)
		if !ok || !n.IsInteger() || n.IsNegative() {
			return nil, false
		}
		k, fits := n.Int64()
		if !fits {
			return nil, false
		}
		base, ok := ToRatPoly(v.base, varName)
		if !ok || int64(base.Degree())*k > maxPolyDegree {
			return nil, false
		}
		acc := RatPoly{big.NewRat(1, 1)}
		for i := int64(0); i < k; i++ {
			acc = acc.Mul(base)
		}
		return acc, true
	}
	return nil, false
}

func (p RatPoly) trim() RatPoly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

// Degree returns -1 for the zero polynomial.
func (p RatPoly) Degree() int { return len(p.trim()) - 1 }

func (p RatPoly) IsZero() bool { return p.Degree() < 0 }

func (p RatPoly) Coeff(i int) *big.Rat {
	if i < len(p) {
		return p[i]
	}
	return new(big.Rat)
}

func (p RatPoly) Lead() *big.Rat {
	p = p.trim()
	if len(p) == 0 {
		return new(big.Rat)
	}
	return p[len(p)-1]
}

func (p RatPoly) Eval(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

func (p RatPoly) EvalFloat(x float64) float64 {
	acc := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		c, _ := p[i].Float64()
		acc = acc*x + c
	}
	return acc
}

func (p RatPoly) Add(q RatPoly) RatPoly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(RatPoly, n)
	for i := range out {
		out[i] = new(big.Rat).Add(p.Coeff(i), q.Coeff(i))
	}
	return out.trim()
}

func (p RatPoly) Scale(c *big.Rat) RatPoly {
	out := make(RatPoly, len(p))
	for i := range p {
		out[i] = new(big.Rat).Mul(p[i], c)
	}
	return out.trim()
}

func (p RatPoly) Sub(q RatPoly) RatPoly { return p.Add(q.Scale(big.NewRat(-1, 1))) }

func (p RatPoly) Mul(q RatPoly) RatPoly {
	p, q = p.trim(), q.trim()
	if len(p) == 0 || len(q) == 0 {
		return RatPoly{}
	}
	out := make(RatPoly, len(p)+len(q)-1)
	for i := range out {
		out[i] = new(big.Rat)
	}
	t := new(big.Rat)
	for i := range p {
		for j := range q {
			out[i+j].Add(out[i+j], t.Mul(p[i], q[j]))
		}
	}
	return out.trim()
}

// DivMod returns quotient and remainder; d must be non-zero.
func (p RatPoly) DivMod(d RatPoly) (q, r RatPoly) {
	d = d.trim()
	if len(d) == 0 {
		panic("symbolic: polynomial division by zero")
	}
	r = append(RatPoly{}, p.trim()...)
	for i := range r {
		r[i] = new(big.Rat).Set(r[i])
	}
	dd := len(d) - 1
	if len(r)-1 < dd {
		return RatPoly{}, r
	}
	q = make(RatPoly, len(r)-dd)
	for i := range q {
		q[i] = new(big.Rat)
	}
	lead := d[dd]
	for len(r)-1 >= dd && len(r) > 0 {
		k := len(r) - 1 - dd
		c := new(big.Rat).Quo(r[len(r)-1], lead)
		q[k] = c
		t := new(big.Rat)
		for j := 0; j <= dd; j++ {
			r[k+j].Sub(r[k+j], t.Mul(c, d[j]))
		}
		r = r.trim()
	}
	return q.trim(), r
}

func (p RatPoly) Deriv() RatPoly {
	if len(p) <= 1 {
		return RatPoly{}
	}
	out := make(RatPoly, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = new(big.Rat).Mul(p[i], big.NewRat(int64(i), 1))
	}
	return out.trim()
}

// Monic scales p so its leading coefficient is one.
func (p RatPoly) Monic() RatPoly {
	if p.IsZero() {
		return p
	}
	return p.Scale(new(big.Rat).Inv(p.Lead()))
}

// GCD returns the monic greatest common divisor.
func (p RatPoly) GCD(q RatPoly) RatPoly {
	a, b := p.trim(), q.trim()
	for !b.IsZero() {
		_, r := a.DivMod(b)
		a, b = b, r
	}
	return a.Monic()
}

// Shift returns p(x + a).
func (p RatPoly) Shift(a *big.Rat) RatPoly {
	out := RatPoly{}
	lin := RatPoly{new(big.Rat).Set(a), big.NewRat(1, 1)}
	for i := len(p) - 1; i >= 0; i-- {
		out = out.Mul(lin).Add(RatPoly{p[i]})
	}
	return out
}

// integerCoeffs scales p to integer coefficients.
func (p RatPoly) integerCoeffs() []*big.Int {
	l := big.NewInt(1)
	for _, c := range p {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, l, d)
		l.Mul(l, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(p))
	for i, c := range p {
		v := new(big.Rat).Mul(c, new(big.Rat).SetInt(l))
		out[i] = new(big.Int).Set(v.Num())
	}
	return out
}

const maxDivisorSearch = 1_000_000

func divisors(n *big.Int) ([]int64, bool) {
	a := new(big.Int).Abs(n)
	if !a.IsInt64() || a.Int64() > maxDivisorSearch*maxDivisorSearch {
		return nil, false
	}
	v := a.Int64()
	var out []int64
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			out = append(out, d)
			if d*d != v {
				out = append(out, v/d)
			}
		}
	}
	return out, true
}

// RationalRoots finds every rational root with its multiplicity and returns
// the deflated remainder, which has no rational roots.
func (p RatPoly) RationalRoots() (roots []*big.Rat, mult []int, rest RatPoly) {
	rest = p.trim()
	add := func(r *big.Rat) {
		lin := RatPoly{new(big.Rat).Neg(r), big.NewRat(1, 1)}
		m := 0
		for rest.Degree() >= 1 {
			q, rem := rest.DivMod(lin)
			if !rem.IsZero() {
				break
			}
			rest = q
			m++
		}
		if m > 0 {
			roots = append(roots, r)
			mult = append(mult, m)
		}
	}
	if rest.Degree() >= 1 && rest[0].Sign() == 0 {
		add(new(big.Rat))
	}
	if rest.Degree() < 1 {
		return roots, mult, rest
	}
	ic := rest.integerCoeffs()
	ps, ok1 := divisors(ic[0])
	qs, ok2 := divisors(ic[len(ic)-1])
	if !ok1 || !ok2 || len(ps)*len(qs) > 20000 {
		return roots, mult, rest
	}
	seen := map[string]bool{}
	for _, pp := range ps {
		for _, qq := range qs {
			for _, sign := range []int64{1, -1} {
				if rest.Degree() < 1 {
					return roots, mult, rest
				}
				r := big.NewRat(sign*pp, qq)
				key := r.RatString()
				if seen[key] {
					continue
				}
				seen[key] = true
				if rest.Eval(r).Sign() == 0 {
					add(r)
				}
			}
		}
	}
	return roots, mult, rest
}

// Expr renders p as an expression in varName.
func (p RatPoly) Expr(varName string) Expr {
	p = p.trim()
	terms := make([]Expr, 0, len(p))
	x := S(varName)
	for i, c := range p {
		if c.Sign() == 0 {
			continue
		}
		switch i {
		case 0:
			terms = append(terms, NRat(c))
		case 1:
			terms = append(terms, MulOf(NRat(c), x))
		default:
			terms = append(terms, MulOf(NRat(c), PowOf(x, N(int64(i)))))
		}
	}
	if len(terms) == 0 {
		return N(0)
	}
	return AddOf(terms...)
}

// seriesQuotient returns the first n Taylor coefficients at 0 of a/b, where
// b(0) != 0.
func seriesQuotient(a, b RatPoly, n int) []*big.Rat {
	out := make([]*big.Rat, n)
	b0 := b.Coeff(0)
	for k := 0; k < n; k++ {
		s := new(big.Rat).Set(a.Coeff(k))
		t := new(big.Rat)
		for j := 1; j <= k; j++ {
			s.Sub(s, t.Mul(b.Coeff(j), out[k-j]))
		}
		out[k] = s.Quo(s, b0)
	}
	return out
}
