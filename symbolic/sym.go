package symbolic

import (
	"math"
	"strings"
)

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) Eval() (*Num, bool) {
	return nil, false
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

// LaTeX renders Greek names as macros and subscripts in braces:
// "alpha" → \alpha, "x_12" → x_{12}.
func (s *Sym) LaTeX() string {
	base, sub, hasSub := strings.Cut(s.name, "_")
	if greekLetters[base] {
		base = "\\" + base
	}
	if !hasSub {
		return base
	}
	return base + "_{" + sub + "}"
}

func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

var greekLetters = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "vartheta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"rho": true, "varrho": true, "sigma": true, "tau": true, "upsilon": true,
	"phi": true, "varphi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true,
	"Pi": true, "Sigma": true, "Upsilon": true, "Phi": true, "Psi": true, "Omega": true,
}

// IsGreek reports whether name is a Greek letter macro name.
func IsGreek(name string) bool { return greekLetters[name] }

// ============================================================
// Const: pi and Euler's number
// ============================================================

type Const struct{ name string }

var (
	Pi = &Const{name: "pi"}
	E  = &Const{name: "E"}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

func (c *Const) LaTeX() string {
	if c == Pi || c.name == "pi" {
		return "\\pi"
	}
	return "e"
}

func (c *Const) Eval() (*Num, bool) {
	if c.name == "pi" {
		return NFloat(math.Pi), true
	}
	return NFloat(math.E), true
}

// ============================================================
// Special: infinities and NaN
// ============================================================

type specialKind int

const (
	kindInf specialKind = iota
	kindNegInf
	kindComplexInf
	kindNaN
)

// Special is one of oo, -oo, zoo (unsigned infinity) or nan.
type Special struct{ kind specialKind }

var (
	Inf        = &Special{kind: kindInf}
	NegInf     = &Special{kind: kindNegInf}
	ComplexInf = &Special{kind: kindComplexInf}
	NaN        = &Special{kind: kindNaN}
)

func (s *Special) Simplify() Expr        { return s }
func (s *Special) Sub(string, Expr) Expr { return s }
func (s *Special) Diff(string) Expr      { return N(0) }
func (s *Special) Eval() (*Num, bool)    { return nil, false }
func (s *Special) Equal(other Expr) bool { o, ok := other.(*Special); return ok && s.kind == o.kind }
func (s *Special) exprType() string      { return "special" }
func (s *Special) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "special", "value": s.String()}
}

func (s *Special) IsNaN() bool      { return s.kind == kindNaN }
func (s *Special) IsInfinite() bool { return s.kind != kindNaN }

func (s *Special) String() string {
	switch s.kind {
	case kindInf:
		return "oo"
	case kindNegInf:
		return "-oo"
	case kindComplexInf:
		return "zoo"
	}
	return "nan"
}

func (s *Special) LaTeX() string {
	switch s.kind {
	case kindInf:
		return "\\infty"
	case kindNegInf:
		return "-\\infty"
	case kindComplexInf:
		return "\\tilde{\\infty}"
	}
	return "\\text{NaN}"
}

// Float64 maps the special onto IEEE values.
func (s *Special) Float64() float64 {
	switch s.kind {
	case kindInf:
		return math.Inf(1)
	case kindNegInf:
		return math.Inf(-1)
	}
	return math.NaN()
}

func specialOf(k specialKind) *Special {
	switch k {
	case kindInf:
		return Inf
	case kindNegInf:
		return NegInf
	case kindComplexInf:
		return ComplexInf
	}
	return NaN
}

// negSpecial flips the sign of a signed infinity.
func negSpecial(s *Special) *Special {
	switch s.kind {
	case kindInf:
		return NegInf
	case kindNegInf:
		return Inf
	}
	return s
}

// addSpecials folds the specials found in a sum.
func addSpecials(ss []*Special) *Special {
	acc := ss[0]
	for _, s := range ss[1:] {
		switch {
		case acc.kind == kindNaN || s.kind == kindNaN:
			return NaN
		case acc.kind == kindComplexInf || s.kind == kindComplexInf:
			return NaN
		case acc.kind != s.kind:
			return NaN
		}
	}
	return acc
}

// mulSpecials folds specials in a product with a numeric coefficient sign
// (-1, 0 or 1). Symbolic factors are treated as positive.
func mulSpecials(ss []*Special, sign int) *Special {
	if sign == 0 {
		return NaN
	}
	neg := sign < 0
	complexInf := false
	for _, s := range ss {
		switch s.kind {
		case kindNaN:
			return NaN
		case kindComplexInf:
			complexInf = true
		case kindNegInf:
			neg = !neg
		}
	}
	if complexInf {
		return ComplexInf
	}
	if neg {
		return NegInf
	}
	return Inf
}

// powSpecial handles base^exp when either side is special. It returns nil
// when the power should stay unevaluated.
func powSpecial(base, exp Expr) Expr {
	if bs, ok := base.(*Special); ok {
		if bs.kind == kindNaN {
			return NaN
		}
		en, ok := exp.(*Num)
		if !ok {
			if es, ok := exp.(*Special); ok {
				if es.kind == kindInf {
					return complexInfOr(bs, Inf)
				}
				if es.kind == kindNegInf {
					return N(0)
				}
			}
			return NaN
		}
		switch {
		case en.IsNegative():
			return N(0)
		case bs.kind == kindComplexInf:
			return ComplexInf
		case bs.kind == kindNegInf:
			if k, ok := en.Int64(); ok {
				if k%2 == 0 {
					return Inf
				}
				return NegInf
			}
			return ComplexInf
		}
		return Inf
	}
	es, ok := exp.(*Special)
	if !ok {
		return nil
	}
	if es.kind == kindNaN || es.kind == kindComplexInf {
		return NaN
	}
	bn, ok := base.(*Num)
	if !ok {
		if _, isConst := base.(*Const); isConst {
			// pi and e are both greater than one.
			bn = N(2)
		} else {
			return nil
		}
	}
	mag := numCmp(numAbs(bn), N(1))
	switch {
	case mag == 0:
		return NaN
	case (mag > 0) == (es.kind == kindInf):
		if bn.IsNegative() {
			return ComplexInf
		}
		return Inf
	}
	return N(0)
}

// complexInfOr returns zoo when s is zoo, otherwise fallback.
func complexInfOr(s *Special, fallback Expr) Expr {
	if s.kind == kindComplexInf {
		return ComplexInf
	}
	return fallback
}
