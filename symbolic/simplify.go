package symbolic

// ============================================================
// Deep Simplification and Trig Identities
// ============================================================

// TrigSimplify applies sin²+cos²=1 and cosh²-sinh²=1 across sums.
func TrigSimplify(e Expr) Expr {
	return trigSimplifyExpr(e.Simplify()).Simplify()
}

func trigSimplifyExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = trigSimplifyExpr(t)
		}
		return trigFindPythagorean(AddOf(newTerms...))
	case *Mul:
		newFactors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			newFactors[i] = trigSimplifyExpr(f)
		}
		return MulOf(newFactors...)
	case *Pow:
		return PowOf(trigSimplifyExpr(v.base), v.exp)
	case *Func:
		return funcOf(v.name, trigSimplifyExpr(v.arg)).Simplify()
	}
	return e
}

// squaredFunc matches c*f(u)^2 and returns c, f and u's string key.
func squaredFunc(t Expr) (coeff *Num, name, key string, ok bool) {
	coeff, inner := splitCoeff(t)
	p, isPow := inner.(*Pow)
	if !isPow || !isNumEqual(p.exp, 2) {
		return nil, "", "", false
	}
	fn, isFunc := p.base.(*Func)
	if !isFunc {
		return nil, "", "", false
	}
	return coeff, fn.name, fn.arg.String(), true
}

func trigFindPythagorean(e Expr) Expr {
	add, ok := e.(*Add)
	if !ok {
		return e
	}
	type trigTerm struct {
		name  string
		key   string
		coeff *Num
		idx   int
	}
	var found []trigTerm
	for idx, t := range add.terms {
		if c, name, key, ok := squaredFunc(t); ok {
			switch name {
			case "sin", "cos", "sinh", "cosh":
				found = append(found, trigTerm{name, key, c, idx})
			}
		}
	}
	for i := 0; i < len(found); i++ {
		for j := i + 1; j < len(found); j++ {
			ti, tj := found[i], found[j]
			if ti.key != tj.key {
				continue
			}
			var replacement *Num
			switch {
			case (ti.name == "sin" && tj.name == "cos") || (ti.name == "cos" && tj.name == "sin"):
				if numCmp(ti.coeff, tj.coeff) == 0 {
					replacement = ti.coeff
				}
			case ti.name == "cosh" && tj.name == "sinh" && numCmp(ti.coeff, numNeg(tj.coeff)) == 0:
				replacement = ti.coeff
			case ti.name == "sinh" && tj.name == "cosh" && numCmp(tj.coeff, numNeg(ti.coeff)) == 0:
				replacement = tj.coeff
			}
			if replacement == nil {
				continue
			}
			newTerms := []Expr{}
			for idx, t := range add.terms {
				if idx != ti.idx && idx != tj.idx {
					newTerms = append(newTerms, t)
				}
			}
			newTerms = append(newTerms, replacement)
			return trigFindPythagorean(AddOf(newTerms...))
		}
	}
	return e
}

// DeepSimplify applies repeated simplification, trig identities, rational
// cancellation and expansion until the display form stops changing. The
// shorter of the factored and expanded forms wins.
func DeepSimplify(e Expr) Expr {
	prev := ""
	curr := e.Simplify()
	for i := 0; i < 10; i++ {
		str := curr.String()
		if str == prev {
			break
		}
		prev = str
		curr = TrigSimplify(curr)
		curr = CancelRational(curr)
		if HasSpecial(curr) {
			return curr
		}
		if ex := Expand(curr); len(ex.String()) < len(curr.String()) {
			curr = TrigSimplify(ex)
		}
	}
	return curr
}
