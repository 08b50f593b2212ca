package symbolic

import (
	"sort"
	"strings"
)

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds numbers, combines like terms and sorts
// the result: highest degree first, then by name, numeric constant last.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	var specials []*Special
	numAccum := N(0)
	type group struct {
		coeff *Num
		rest  Expr
	}
	groups := map[string]*group{}
	order := []string{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Special:
			specials = append(specials, v)
		case *Num:
			numAccum = numAdd(numAccum, v)
		default:
			coeff, rest := splitCoeff(t)
			key := rest.String()
			g, seen := groups[key]
			if !seen {
				g = &group{coeff: N(0), rest: rest}
				groups[key] = g
				order = append(order, key)
			}
			g.coeff = numAdd(g.coeff, coeff)
		}
	}
	if len(specials) > 0 {
		return addSpecials(specials)
	}

	type keyed struct {
		e   Expr
		key string
		deg float64
	}
	ks := make([]keyed, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if g.coeff.IsZero() {
			continue
		}
		ks = append(ks, keyed{e: scaleTerm(g.coeff, g.rest), key: key, deg: sortDegree(g.rest)})
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].deg != ks[j].deg {
			return ks[i].deg > ks[j].deg
		}
		return ks[i].key < ks[j].key
	})
	result := make([]Expr, 0, len(ks)+1)
	for _, k := range ks {
		result = append(result, k.e)
	}
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return numAccum
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// scaleTerm builds coeff*rest without re-simplifying rest.
func scaleTerm(coeff *Num, rest Expr) Expr {
	if coeff.IsOne() && !coeff.approx {
		return rest
	}
	if m, ok := rest.(*Mul); ok {
		return &Mul{factors: append([]Expr{coeff}, m.factors...)}
	}
	if _, ok := rest.(*Add); ok {
		return MulOf(coeff, rest)
	}
	return &Mul{factors: []Expr{coeff, rest}}
}

// sortDegree is the total polynomial degree used to order terms.
func sortDegree(e Expr) float64 {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if n, ok := v.exp.(*Num); ok {
			return sortDegree(v.base) * n.Float64()
		}
		return sortDegree(v.base)
	case *Mul:
		d := 0.0
		for _, f := range v.factors {
			d += sortDegree(f)
		}
		return d
	case *Add:
		d := 0.0
		for _, t := range v.terms {
			if td := sortDegree(t); td > d {
				d = td
			}
		}
		return d
	}
	return 0
}

// negatedTerm returns -t and true when t carries a negative coefficient.
func negatedTerm(t Expr) (Expr, bool) {
	coeff, rest := splitCoeff(t)
	if !coeff.IsNegative() {
		return nil, false
	}
	if _, isNum := t.(*Num); isNum {
		return numNeg(coeff), true
	}
	return scaleTerm(numNeg(coeff), rest), true
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range a.terms {
		if i > 0 {
			if pos, neg := negatedTerm(t); neg {
				b.WriteString(" - ")
				b.WriteString(pos.String())
				continue
			}
			b.WriteString(" + ")
		}
		b.WriteString(t.String())
	}
	return b.String()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.terms {
		if i > 0 {
			if pos, neg := negatedTerm(t); neg {
				b.WriteString(" - ")
				b.WriteString(pos.LaTeX())
				continue
			}
			b.WriteString(" + ")
		}
		b.WriteString(t.LaTeX())
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }
