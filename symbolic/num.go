package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ============================================================
// Num: exact rational number
// ============================================================

// Num is a rational number. Numbers parsed from decimal literals, or produced
// by floating-point evaluation, carry the approx flag and render as decimals.
type Num struct {
	val    *big.Rat
	approx bool
}

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}
func NFloat(f float64) *Num {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		return &Num{val: new(big.Rat), approx: true}
	}
	return &Num{val: r, approx: true}
}
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

// ParseNum parses an integer or decimal literal. Decimals are approximate.
func ParseNum(s string) (*Num, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("symbolic: invalid number %q", s)
	}
	return &Num{val: r, approx: strings.ContainsAny(s, ".eE")}, nil
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) IsApprox() bool        { return n.approx }

// Int64 returns the value truncated to an int64, and whether it fit exactly.
func (n *Num) Int64() (int64, bool) {
	if !n.val.IsInt() || !n.val.Num().IsInt64() {
		return 0, false
	}
	return n.val.Num().Int64(), true
}

func (n *Num) String() string {
	if n.approx {
		return formatFloat(n.Float64())
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.approx {
		return latexFloat(formatFloat(n.Float64()))
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "num", "value": n.String()}
	if n.approx {
		m["approx"] = true
	}
	return m
}

// formatFloat renders the shortest decimal that round-trips, always with a
// decimal point or exponent so it reads as inexact.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

func latexFloat(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	exp, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s \\cdot 10^{%d}", s[:i], exp)
}

func mk(r *big.Rat, approx bool) *Num { return &Num{val: r, approx: approx} }

func numAdd(a, b *Num) *Num { return mk(new(big.Rat).Add(a.val, b.val), a.approx || b.approx) }
func numSub(a, b *Num) *Num { return mk(new(big.Rat).Sub(a.val, b.val), a.approx || b.approx) }
func numMul(a, b *Num) *Num { return mk(new(big.Rat).Mul(a.val, b.val), a.approx || b.approx) }
func numNeg(a *Num) *Num    { return mk(new(big.Rat).Neg(a.val), a.approx) }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return mk(new(big.Rat).Inv(a.val), a.approx)
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num    { return mk(new(big.Rat).Abs(a.val), a.approx) }
func numCmp(a, b *Num) int  { return a.val.Cmp(b.val) }

// ratPow raises r to an integer power; r must be non-zero when e < 0.
func ratPow(r *big.Rat, e int64) *big.Rat {
	neg := e < 0
	if neg {
		e = -e
	}
	x := big.NewInt(e)
	num := new(big.Int).Exp(r.Num(), x, nil)
	den := new(big.Int).Exp(r.Denom(), x, nil)
	if neg {
		num, den = den, num
	}
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	return new(big.Rat).SetFrac(num, den)
}

const maxExactBits = 8192

// numPow folds b^e for numeric operands. It returns nil when the result is
// not real or would be unreasonably large.
func numPow(b, e *Num) Expr {
	if b.approx || e.approx {
		f := math.Pow(b.Float64(), e.Float64())
		if b.IsNegative() && !e.IsInteger() {
			if q := e.val.Denom(); q.Bit(0) == 1 {
				f = -math.Pow(-b.Float64(), e.Float64())
				if e.val.Num().Bit(0) == 0 {
					f = -f
				}
			}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return NFloat(f)
	}
	if e.IsInteger() {
		k, ok := e.Int64()
		if !ok || k > 4096 || k < -4096 {
			return nil
		}
		bits := int64(b.val.Num().BitLen() + b.val.Denom().BitLen())
		if abs64(k)*bits > maxExactBits {
			return nil
		}
		return NRat(ratPow(b.val, k))
	}
	p := new(big.Int).Set(e.val.Num())
	q := new(big.Int).Set(e.val.Denom())
	if !q.IsInt64() || q.Int64() > 64 || !p.IsInt64() {
		return nil
	}
	qi, pi := q.Int64(), p.Int64()
	if b.IsNegative() {
		if qi%2 == 0 {
			return nil
		}
		// Odd roots of negatives stay real.
		inner := PowOf(numNeg(b), e)
		if pi%2 == 0 {
			return inner
		}
		return MulOf(N(-1), inner)
	}
	// b^(p/q) = b^a * b^(r/q) with 0 <= r < q.
	a := floorDiv(pi, qi)
	r := pi - a*qi
	whole := NRat(ratPow(b.val, a))
	if r == 0 {
		return whole
	}
	// b^(r/q) = (n^r * d^(q-r))^(1/q) / d
	n, d := b.val.Num(), b.val.Denom()
	m := new(big.Int).Mul(
		new(big.Int).Exp(n, big.NewInt(r), nil),
		new(big.Int).Exp(d, big.NewInt(qi-r), nil),
	)
	if m.BitLen() > 256 {
		return nil
	}
	out, in := extractPower(m, qi)
	coeff := numMul(whole, NRat(new(big.Rat).SetFrac(out, d)))
	if in.Cmp(big.NewInt(1)) == 0 {
		return coeff
	}
	root := &Pow{base: NRat(new(big.Rat).SetInt(in)), exp: F(1, qi)}
	if coeff.IsOne() {
		return root
	}
	return &Mul{factors: []Expr{coeff, root}}
}

// extractPower writes m = out^q * in with in free of q-th powers, trying
// small prime factors only.
func extractPower(m *big.Int, q int64) (out, in *big.Int) {
	out = big.NewInt(1)
	in = new(big.Int).Set(m)
	if r, ok := intRoot(in, q); ok {
		return r, big.NewInt(1)
	}
	for p := int64(2); p < 2000; p++ {
		pk := new(big.Int).Exp(big.NewInt(p), big.NewInt(q), nil)
		if pk.Cmp(in) > 0 {
			break
		}
		mod := new(big.Int)
		for {
			quo, rem := new(big.Int).QuoRem(in, pk, mod)
			if rem.Sign() != 0 {
				break
			}
			in = quo
			out.Mul(out, big.NewInt(p))
		}
	}
	return out, in
}

// intRoot returns the exact k-th root of a non-negative n when one exists.
func intRoot(n *big.Int, k int64) (*big.Int, bool) {
	if n.Sign() < 0 || k < 1 {
		return nil, false
	}
	if n.Sign() == 0 || k == 1 {
		return new(big.Int).Set(n), true
	}
	var x *big.Int
	if k == 2 {
		x = new(big.Int).Sqrt(n)
	} else {
		x = new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen()/int(k)+1))
		km1 := big.NewInt(k - 1)
		kk := big.NewInt(k)
		for {
			y := new(big.Int).Div(n, new(big.Int).Exp(x, km1, nil))
			y.Add(y, new(big.Int).Mul(x, km1))
			y.Div(y, kk)
			if y.Cmp(x) >= 0 {
				break
			}
			x = y
		}
	}
	if new(big.Int).Exp(x, big.NewInt(k), nil).Cmp(n) == 0 {
		return x, true
	}
	return nil, false
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func gcdInt(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
