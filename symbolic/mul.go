package symbolic

import (
	"sort"
	"strings"
)

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	coeff := N(1)
	var specials []*Special
	others := []Expr{}
	var collect func(f Expr)
	collect = func(f Expr) {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Special:
			specials = append(specials, v)
		case *Mul:
			for _, inner := range v.factors {
				collect(inner)
			}
		default:
			others = append(others, f)
		}
	}
	for _, f := range m.factors {
		collect(f.Simplify())
	}

	// Like bases combine by adding exponents. A combined power may fold to a
	// number or split into a product, so the pass repeats until stable.
	for round := 0; round < 8 && len(specials) == 0; round++ {
		next, changed := combineBases(others)
		if !changed {
			break
		}
		others = others[:0:0]
		for _, f := range next {
			collect(f)
		}
	}
	if len(specials) > 0 {
		return mulSpecials(specials, coeff.val.Sign())
	}
	if coeff.IsZero() || len(others) == 0 {
		return coeff
	}
	if !coeff.IsOne() && len(others) == 1 {
		if add, ok := others[0].(*Add); ok {
			terms := make([]Expr, len(add.terms))
			for i, t := range add.terms {
				terms[i] = MulOf(coeff, t)
			}
			return AddOf(terms...)
		}
	}

	type keyed struct {
		e    Expr
		rank int
		key  string
		full string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		rank, key := factorRank(e)
		ks[i] = keyed{e: e, rank: rank, key: key, full: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].rank != ks[j].rank {
			return ks[i].rank < ks[j].rank
		}
		if ks[i].key != ks[j].key {
			return ks[i].key < ks[j].key
		}
		return ks[i].full < ks[j].full
	})
	sorted := make([]Expr, len(ks))
	for i := range ks {
		sorted[i] = ks[i].e
	}

	if coeff.IsOne() {
		if len(sorted) == 1 {
			return sorted[0]
		}
		return &Mul{factors: sorted}
	}
	return &Mul{factors: append([]Expr{coeff}, sorted...)}
}

// asPower views a factor as base^exp. exp(a) is treated as E^a.
func asPower(e Expr) (base, exp Expr) {
	switch v := e.(type) {
	case *Pow:
		return v.base, v.exp
	case *Func:
		if v.name == "exp" {
			return E, v.arg
		}
	}
	return e, N(1)
}

func combineBases(factors []Expr) ([]Expr, bool) {
	type group struct {
		base Expr
		exps []Expr
		orig Expr
	}
	groups := map[string]*group{}
	order := []string{}
	for _, f := range factors {
		base, exp := asPower(f)
		key := base.String()
		g, ok := groups[key]
		if !ok {
			g = &group{base: base, orig: f}
			groups[key] = g
			order = append(order, key)
		}
		g.exps = append(g.exps, exp)
	}
	if len(order) == len(factors) {
		return factors, false
	}
	out := make([]Expr, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if len(g.exps) == 1 {
			out = append(out, g.orig)
			continue
		}
		out = append(out, PowOf(g.base, AddOf(g.exps...)))
	}
	return out, true
}

// factorRank orders factors: numeric roots, constants, symbols and their
// powers by name, other powers, sums, then function applications.
func factorRank(e Expr) (int, string) {
	switch v := e.(type) {
	case *Const:
		return 1, v.name
	case *Sym:
		return 2, v.name
	case *Pow:
		switch b := v.base.(type) {
		case *Num:
			return 0, b.String()
		case *Const:
			return 1, b.name
		case *Sym:
			return 2, b.name
		}
		return 3, v.base.String()
	case *Add:
		return 4, v.String()
	}
	return 5, e.String()
}

// fraction splits a product into its coefficient, numerator factors and
// denominator factors (negative powers, with the sign flipped).
func (m *Mul) fraction() (coeff *Num, num, den []Expr) {
	coeff = N(1)
	for _, f := range m.factors {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		if p, ok := f.(*Pow); ok {
			if en, ok := p.exp.(*Num); ok && en.IsNegative() && !en.approx {
				pos := numNeg(en)
				if pos.IsOne() {
					den = append(den, p.base)
				} else {
					den = append(den, &Pow{base: p.base, exp: pos})
				}
				continue
			}
		}
		num = append(num, f)
	}
	return coeff, num, den
}

func mulFactorString(f Expr) string {
	switch f.(type) {
	case *Add:
		return "(" + f.String() + ")"
	}
	return f.String()
}

func mulFactorLaTeX(f Expr) string {
	if _, ok := f.(*Add); ok {
		return "\\left(" + f.LaTeX() + "\\right)"
	}
	return f.LaTeX()
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	coeff, num, den := m.fraction()
	sign := ""
	if coeff.IsNegative() {
		sign = "-"
		coeff = numNeg(coeff)
	}
	var numParts, denParts []string
	if coeff.approx {
		if !coeff.IsOne() {
			numParts = append(numParts, coeff.String())
		}
	} else {
		if p := coeff.val.Num(); !p.IsInt64() || p.Int64() != 1 {
			numParts = append(numParts, p.String())
		}
		if q := coeff.val.Denom(); !q.IsInt64() || q.Int64() != 1 {
			denParts = append(denParts, q.String())
		}
	}
	for _, f := range num {
		numParts = append(numParts, mulFactorString(f))
	}
	for _, f := range den {
		s := mulFactorString(f)
		if _, ok := f.(*Mul); ok {
			s = "(" + s + ")"
		}
		denParts = append(denParts, s)
	}
	numStr := "1"
	if len(numParts) > 0 {
		numStr = strings.Join(numParts, "*")
	}
	if len(denParts) == 0 {
		return sign + numStr
	}
	denStr := strings.Join(denParts, "*")
	if len(denParts) > 1 {
		denStr = "(" + denStr + ")"
	}
	return sign + numStr + "/" + denStr
}

// joinLaTeX juxtaposes factors. A leading coefficient abuts the next factor
// ("2x"); digits that would run together are separated by \cdot.
func joinLaTeX(coeff string, factors []string) string {
	parts := factors
	if coeff != "" {
		parts = append([]string{coeff}, factors...)
	}
	if len(parts) == 0 {
		return "1"
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for i := 1; i < len(parts); i++ {
		next := parts[i]
		switch {
		case startsWithDigit(next):
			b.WriteString(" \\cdot ")
		case i == 1 && coeff != "":
		default:
			b.WriteString(" ")
		}
		b.WriteString(next)
	}
	return b.String()
}

func startsWithDigit(s string) bool {
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '.')
}

func (m *Mul) LaTeX() string {
	coeff, num, den := m.fraction()
	sign := ""
	if coeff.IsNegative() {
		sign = "-"
		coeff = numNeg(coeff)
	}
	numCoeff, denCoeff := "", ""
	if coeff.approx {
		if !coeff.IsOne() {
			numCoeff = coeff.LaTeX()
		}
	} else {
		if p := coeff.val.Num(); !p.IsInt64() || p.Int64() != 1 {
			numCoeff = p.String()
		}
		if q := coeff.val.Denom(); !q.IsInt64() || q.Int64() != 1 {
			denCoeff = q.String()
		}
	}
	numParts := make([]string, len(num))
	for i, f := range num {
		numParts[i] = mulFactorLaTeX(f)
	}
	numStr := joinLaTeX(numCoeff, numParts)
	if len(den) == 0 && denCoeff == "" {
		return sign + numStr
	}
	denParts := make([]string, len(den))
	for i, f := range den {
		denParts[i] = mulFactorLaTeX(f)
	}
	return sign + "\\frac{" + numStr + "}{" + joinLaTeX(denCoeff, denParts) + "}"
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

// Diff applies the product rule.
func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }
