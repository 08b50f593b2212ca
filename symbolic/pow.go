package symbolic

import (
	"math"
	"strconv"
)

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if r := powSpecial(base, exp); r != nil {
		return r
	}
	en, expNum := exp.(*Num)
	if expNum && en.IsZero() {
		return N(1)
	}
	if expNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		switch {
		case bn.IsZero():
			if expNum {
				if en.IsNegative() {
					return ComplexInf
				}
				return bn
			}
			return &Pow{base: base, exp: exp}
		case bn.IsOne():
			return bn
		}
		if expNum {
			if r := numPow(bn, en); r != nil {
				return r
			}
		}
		return &Pow{base: base, exp: exp}
	}
	if c, ok := base.(*Const); ok && c.name == "E" {
		return funcOf("exp", exp).Simplify()
	}

	switch b := base.(type) {
	case *Pow:
		if !expNum {
			break
		}
		if en.IsInteger() {
			return PowOf(b.base, MulOf(b.exp, en))
		}
		if ie, ok := b.exp.(*Num); ok {
			if k, isInt := ie.Int64(); isInt && k%2 == 0 {
				// (x^2)^(1/2) = |x| over the reals.
				return PowOf(AbsOf(b.base), MulOf(ie, en))
			}
			return PowOf(b.base, MulOf(ie, en))
		}
	case *Mul:
		if !expNum {
			break
		}
		if en.IsInteger() {
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, en)
			}
			return MulOf(fs...)
		}
		if c, rest := splitCoeff(b); c.IsPositive() && !c.IsOne() {
			return MulOf(PowOf(c, en), PowOf(rest, en))
		}
	case *Func:
		if b.name == "exp" {
			return funcOf("exp", MulOf(b.arg, exp)).Simplify()
		}
		if b.name == "abs" && expNum {
			if k, isInt := en.Int64(); isInt && k%2 == 0 {
				return PowOf(b.arg, en)
			}
		}
	}
	return &Pow{base: base, exp: exp}
}

func isHalf(e Expr) bool {
	n, ok := e.(*Num)
	return ok && !n.approx && n.val.Cmp(F(1, 2).val) == 0
}

// unitRoot returns q when e is exactly 1/q for an integer q > 2.
func unitRoot(e Expr) (int64, bool) {
	n, ok := e.(*Num)
	if !ok || n.approx || !n.val.Num().IsInt64() || n.val.Num().Int64() != 1 {
		return 0, false
	}
	q := n.val.Denom()
	if !q.IsInt64() || q.Int64() <= 2 {
		return 0, false
	}
	return q.Int64(), true
}

func powBaseNeedsParens(b Expr) bool {
	switch v := b.(type) {
	case *Add, *Mul, *Pow, *Special:
		return true
	case *Num:
		return v.IsNegative() || !v.IsInteger() || v.approx
	}
	return false
}

func (p *Pow) String() string {
	if en, ok := p.exp.(*Num); ok && en.IsNegative() && !en.approx {
		pos := numNeg(en)
		if pos.IsOne() {
			if powBaseNeedsParens(p.base) {
				return "1/(" + p.base.String() + ")"
			}
			return "1/" + p.base.String()
		}
		return "1/" + (&Pow{base: p.base, exp: pos}).String()
	}
	if isHalf(p.exp) {
		return "sqrt(" + p.base.String() + ")"
	}
	baseStr := p.base.String()
	if powBaseNeedsParens(p.base) {
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	switch v := p.exp.(type) {
	case *Num:
		if !v.IsInteger() || v.IsNegative() || v.approx {
			expStr = "(" + expStr + ")"
		}
	case *Sym, *Const:
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok && en.IsNegative() && !en.approx {
		pos := numNeg(en)
		var inner Expr = p.base
		if !pos.IsOne() {
			inner = &Pow{base: p.base, exp: pos}
		}
		return "\\frac{1}{" + inner.LaTeX() + "}"
	}
	if isHalf(p.exp) {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	if q, ok := unitRoot(p.exp); ok {
		return "\\sqrt[" + strconv.FormatInt(q, 10) + "]{" + p.base.LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	needs := powBaseNeedsParens(p.base)
	if f, ok := p.base.(*Func); ok && f.name != "abs" && f.name != "floor" && f.name != "ceil" {
		needs = true
	}
	if needs {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if !DependsOn(p.exp, varName) {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	if !DependsOn(p.base, varName) {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if b.IsZero() && !e.IsPositive() {
		return nil, false
	}
	if !b.approx && !e.approx {
		if r, ok := numPow(b, e).(*Num); ok {
			return r, true
		}
	}
	f := realPow(b.Float64(), e)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return NFloat(f), true
}

// realPow evaluates b^e on the reals; odd roots of negative bases are real.
func realPow(b float64, e *Num) float64 {
	ef := e.Float64()
	if b >= 0 || e.IsInteger() {
		return math.Pow(b, ef)
	}
	if !e.approx && e.val.Denom().Bit(0) == 1 {
		r := math.Pow(-b, ef)
		if e.val.Num().Bit(0) == 1 {
			return -r
		}
		return r
	}
	return math.NaN()
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }
