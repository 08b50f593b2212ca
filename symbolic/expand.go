package symbolic

// ============================================================
// Differentiation and expansion helpers
// ============================================================

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func Diff2(expr Expr, varName string) Expr {
	return Diff(Diff(expr, varName), varName)
}

func DiffN(expr Expr, varName string, n int) Expr {
	result := expr
	for i := 0; i < n; i++ {
		result = Diff(result, varName)
	}
	return result
}

// Expand distributes products over sums and multiplies out small integer
// powers of sums.
func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

const maxExpandPower = 12

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			if a, ok := f.(*Add); ok {
				rest := make([]Expr, 0, len(expanded)-1)
				for j, ef := range expanded {
					if j != i {
						rest = append(rest, ef)
					}
				}
				terms := make([]Expr, len(a.terms))
				for k, t := range a.terms {
					terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
				}
				return expandExpr(AddOf(terms...))
			}
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			if k, _ := n.Int64(); k >= 2 && k <= maxExpandPower {
				if _, isAdd := base.(*Add); isAdd {
					result := base
					for i := int64(1); i < k; i++ {
						result = distribute(result, base)
					}
					return result
				}
			}
		}
		return PowOf(base, expandExpr(v.exp))
	case *Func:
		return funcOf(v.name, expandExpr(v.arg)).Simplify()
	}
	return e
}

// distribute multiplies two expanded expressions term by term. Building the
// product pairwise keeps equal sums from folding back into a power.
func distribute(a, b Expr) Expr {
	at, bt := []Expr{a}, []Expr{b}
	if add, ok := a.(*Add); ok {
		at = add.terms
	}
	if add, ok := b.(*Add); ok {
		bt = add.terms
	}
	terms := make([]Expr, 0, len(at)*len(bt))
	for _, x := range at {
		for _, y := range bt {
			terms = append(terms, expandExpr(MulOf(x, y)))
		}
	}
	return AddOf(terms...)
}
