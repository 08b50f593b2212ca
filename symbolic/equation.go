package symbolic

// ============================================================
// Equation
// ============================================================

// Equation is lhs = rhs. It is not an Expr; solvers take its residual.
type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }
func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}
func (e *Equation) LaTeX() string { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// Residual returns lhs - rhs.
func (e *Equation) Residual() Expr {
	return Subtract(e.LHS, e.RHS)
}

// Holds reports whether a symbol-free equation is true, and whether the
// question could be decided.
func (e *Equation) Holds() (holds, decided bool) {
	r := DeepSimplify(e.Residual())
	if len(FreeSymbols(r)) > 0 {
		return false, false
	}
	if s, ok := r.(*Special); ok {
		return false, !s.IsNaN()
	}
	v, ok := r.Eval()
	if !ok {
		return false, false
	}
	if !v.approx {
		return v.IsZero(), true
	}
	return nearZero(v.Float64()), true
}

func nearZero(f float64) bool { return f > -1e-12 && f < 1e-12 }
