package symbolic

// ============================================================
// Taylor / Maclaurin series
// ============================================================

// TaylorSeries expands expr around a through (x-a)^order. The expansion stops
// early at the first derivative that is undefined at a.
func TaylorSeries(expr Expr, varName string, a Expr, order int) Expr {
	shift := Subtract(S(varName), a)
	terms := []Expr{}
	for k, c := range taylorCoeffs(expr, varName, a, order) {
		if c == nil {
			break
		}
		if isNumEqual(c, 0) {
			continue
		}
		terms = append(terms, MulOf(c, PowOf(shift, N(int64(k)))))
	}
	return AddOf(terms...)
}

func MaclaurinSeries(expr Expr, varName string, order int) Expr {
	return TaylorSeries(expr, varName, N(0), order)
}

// taylorCoeffs returns f^(k)(a)/k! for k = 0..order. Entries are nil where
// the derivative has no finite value at a.
func taylorCoeffs(expr Expr, varName string, a Expr, order int) []Expr {
	out := make([]Expr, order+1)
	current := expr.Simplify()
	factorial := N(1)
	for k := 0; k <= order; k++ {
		if k > 0 {
			factorial = numMul(factorial, N(int64(k)))
			current = Diff(current, varName)
		}
		c := DeepSimplify(Div(current.Sub(varName, a), factorial))
		if HasSpecial(c) || DependsOn(c, varName) {
			continue
		}
		out[k] = c
	}
	return out
}

// leadingTerm finds the first non-zero coefficient. It fails when an
// undefined coefficient comes first or every coefficient vanishes.
func leadingTerm(cs []Expr) (int, Expr) {
	for k, c := range cs {
		if c == nil {
			return -1, nil
		}
		if !isZeroValue(c) {
			return k, c
		}
	}
	return -1, nil
}

// isZeroValue reports whether e is zero, exactly or within 1e-12.
func isZeroValue(e Expr) bool {
	if isNumEqual(e, 0) {
		return true
	}
	if len(FreeSymbols(e)) > 0 {
		return false
	}
	v, ok := EvalFloat(e, nil)
	return ok && nearZero(v)
}
