// Package symbolic provides the deterministic symbolic math kernel used by the
// calculator.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat); decimal input stays flagged
//     as approximate
//   - Canonical, idempotent simplification with stable output ordering
//   - Every node renders both as a display string and as LaTeX
package symbolic

import (
	"sort"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Top-level convenience functions
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

// SubAll substitutes every binding in vals. Keys are applied in sorted order.
func SubAll(expr Expr, vals map[string]Expr) Expr {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		expr = expr.Sub(k, vals[k])
	}
	return expr.Simplify()
}

// ============================================================
// Shared helpers
// ============================================================

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.Cmp(N(v).val) == 0
}

func asNum(e Expr) (*Num, bool) {
	n, ok := e.(*Num)
	return n, ok
}

// splitCoeff separates the leading numeric coefficient from the rest of a
// term. A bare number yields (n, 1).
func splitCoeff(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, N(1)
	case *Mul:
		if len(v.factors) >= 2 {
			if coeff, ok := v.factors[0].(*Num); ok {
				rest := v.factors[1:]
				if len(rest) == 1 {
					return coeff, rest[0]
				}
				return coeff, &Mul{factors: rest}
			}
		}
	}
	return N(1), e
}

// DependsOn reports whether varName occurs free in e.
func DependsOn(e Expr, varName string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == varName
	case *Add:
		for _, t := range v.terms {
			if DependsOn(t, varName) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if DependsOn(f, varName) {
				return true
			}
		}
	case *Pow:
		return DependsOn(v.base, varName) || DependsOn(v.exp, varName)
	case *Func:
		return DependsOn(v.arg, varName)
	}
	return false
}

// HasSpecial reports whether e contains an infinity or NaN node.
func HasSpecial(e Expr) bool {
	switch v := e.(type) {
	case *Special:
		return true
	case *Add:
		for _, t := range v.terms {
			if HasSpecial(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if HasSpecial(f) {
				return true
			}
		}
	case *Pow:
		return HasSpecial(v.base) || HasSpecial(v.exp)
	case *Func:
		return HasSpecial(v.arg)
	}
	return false
}

// HasApprox reports whether e contains an approximate (decimal) number.
func HasApprox(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.approx
	case *Add:
		for _, t := range v.terms {
			if HasApprox(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if HasApprox(f) {
				return true
			}
		}
	case *Pow:
		return HasApprox(v.base) || HasApprox(v.exp)
	case *Func:
		return HasApprox(v.arg)
	}
	return false
}

// Approximate replaces every number in e by its approximate counterpart.
func Approximate(e Expr) Expr {
	return MapNums(e, func(n *Num) Expr {
		return &Num{val: n.Rat(), approx: true}
	})
}

// MapNums rebuilds e with every number replaced by fn(number).
func MapNums(e Expr, fn func(*Num) Expr) Expr {
	switch v := e.(type) {
	case *Num:
		return fn(v)
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = MapNums(t, fn)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = MapNums(f, fn)
		}
		return MulOf(factors...)
	case *Pow:
		// Exponents stay exact so that sqrt(x) keeps rendering as a root.
		return PowOf(MapNums(v.base, fn), v.exp)
	case *Func:
		return funcOf(v.name, MapNums(v.arg, fn)).Simplify()
	}
	return e
}

// Replace substitutes every subtree equal to target with repl.
func Replace(e, target, repl Expr) Expr {
	if e.Equal(target) {
		return repl
	}
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = Replace(t, target, repl)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = Replace(f, target, repl)
		}
		return MulOf(factors...)
	case *Pow:
		return PowOf(Replace(v.base, target, repl), Replace(v.exp, target, repl))
	case *Func:
		return funcOf(v.name, Replace(v.arg, target, repl)).Simplify()
	}
	return e
}

// Neg returns -e.
func Neg(e Expr) Expr { return MulOf(N(-1), e) }

// Subtract returns a - b.
func Subtract(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

// Div returns a / b.
func Div(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }
