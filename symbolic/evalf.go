package symbolic

import "math"

// ============================================================
// Floating-point evaluation
// ============================================================

// EvalFloat evaluates e in float64 arithmetic with env supplying symbol
// values. The second result is false when a symbol is unbound or the value is
// not a finite real.
func EvalFloat(e Expr, env map[string]float64) (float64, bool) {
	v := evalFloat(e, env)
	return v, !math.IsNaN(v) && !math.IsInf(v, 0)
}

func evalFloat(e Expr, env map[string]float64) float64 {
	switch v := e.(type) {
	case *Num:
		return v.Float64()
	case *Sym:
		if x, ok := env[v.name]; ok {
			return x
		}
		return math.NaN()
	case *Const:
		if v.name == "pi" {
			return math.Pi
		}
		return math.E
	case *Special:
		return v.Float64()
	case *Add:
		sum := 0.0
		for _, t := range v.terms {
			sum += evalFloat(t, env)
		}
		return sum
	case *Mul:
		prod := 1.0
		for _, f := range v.factors {
			prod *= evalFloat(f, env)
		}
		return prod
	case *Pow:
		b := evalFloat(v.base, env)
		if en, ok := v.exp.(*Num); ok {
			if b == 0 && !en.IsPositive() {
				return math.NaN()
			}
			return realPow(b, en)
		}
		return math.Pow(b, evalFloat(v.exp, env))
	case *Func:
		a := evalFloat(v.arg, env)
		if math.IsNaN(a) {
			return a
		}
		r, ok := floatFunc(v.name, a)
		if !ok {
			return math.NaN()
		}
		return r
	}
	return math.NaN()
}

// Lambdify compiles e into a float function of varName. Other symbols
// evaluate to NaN.
func Lambdify(e Expr, varName string) func(float64) float64 {
	e = e.Simplify()
	return func(x float64) float64 {
		return evalFloat(e, map[string]float64{varName: x})
	}
}
