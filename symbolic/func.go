package symbolic

import (
	"math"
	"math/big"
)

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

// FuncNames lists the functions the kernel knows.
var FuncNames = []string{
	"sin", "cos", "tan", "asin", "acos", "atan", "sinh", "cosh", "tanh",
	"exp", "ln", "abs", "floor", "ceil", "sign", "factorial",
}

var knownFuncs = func() map[string]bool {
	m := make(map[string]bool, len(FuncNames))
	for _, n := range FuncNames {
		m[n] = true
	}
	return m
}()

// IsFunc reports whether name is a known function.
func IsFunc(name string) bool { return knownFuncs[name] }

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

// Apply builds name(arg). Unknown names panic; callers check IsFunc.
func Apply(name string, arg Expr) Expr {
	if !knownFuncs[name] {
		panic("symbolic: unknown function " + name)
	}
	return funcOf(name, arg).Simplify()
}

func SinOf(arg Expr) Expr       { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr       { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr       { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr       { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr        { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr      { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr       { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr      { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr      { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr      { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr      { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr      { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr      { return funcOf("tanh", arg).Simplify() }
func FloorOf(arg Expr) Expr     { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr      { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr      { return funcOf("sign", arg).Simplify() }
func FactorialOf(arg Expr) Expr { return funcOf("factorial", arg).Simplify() }

var oddFuncs = map[string]bool{"sin": true, "tan": true, "asin": true, "atan": true, "sinh": true, "tanh": true, "sign": true}
var evenFuncs = map[string]bool{"cos": true, "cosh": true, "abs": true}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if s, ok := arg.(*Special); ok {
		return funcAtSpecial(f.name, s)
	}
	if n, ok := arg.(*Num); ok && n.approx {
		if v, ok := floatFunc(f.name, n.Float64()); ok {
			return NFloat(v)
		}
		return NaN
	}

	// Odd and even symmetry on a negative leading coefficient.
	if pos, neg := negatedTerm(arg); neg {
		switch {
		case oddFuncs[f.name]:
			return Neg(funcOf(f.name, pos).Simplify())
		case evenFuncs[f.name]:
			return funcOf(f.name, pos).Simplify()
		}
	}

	switch f.name {
	case "sin", "cos", "tan":
		if r, ok := piMultiple(arg); ok {
			if v := trigAtPiMultiple(f.name, r); v != nil {
				return v
			}
		}
	case "asin", "acos", "atan":
		if v := inverseTrigExact(f.name, arg); v != nil {
			return v
		}
	case "sinh", "tanh":
		if isNumEqual(arg, 0) {
			return N(0)
		}
	case "cosh":
		if isNumEqual(arg, 0) {
			return N(1)
		}
	case "exp":
		if isNumEqual(arg, 0) {
			return N(1)
		}
		if isNumEqual(arg, 1) {
			return E
		}
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
		if c, rest := splitCoeff(arg); !c.IsOne() {
			if inner, ok := rest.(*Func); ok && inner.name == "ln" {
				return PowOf(inner.arg, c)
			}
		}
	case "ln":
		if isNumEqual(arg, 1) {
			return N(0)
		}
		if isNumEqual(arg, 0) {
			return ComplexInf
		}
		if c, ok := arg.(*Const); ok && c.name == "E" {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
		if n, ok := arg.(*Num); ok && n.IsPositive() && !n.IsInteger() && n.val.Num().IsInt64() && n.val.Num().Int64() == 1 {
			return Neg(LnOf(NRat(new(big.Rat).SetInt(n.val.Denom()))))
		}
	case "abs":
		if v := absExact(arg); v != nil {
			return v
		}
	case "floor", "ceil":
		if v := roundExact(f.name, arg); v != nil {
			return v
		}
	case "sign":
		if v, ok := arg.Eval(); ok {
			return N(int64(v.val.Sign()))
		}
	case "factorial":
		if n, ok := arg.(*Num); ok && n.IsInteger() {
			k, fits := n.Int64()
			switch {
			case fits && k < 0:
				return ComplexInf
			case fits && k <= 1000:
				if k < 2 {
					return N(1)
				}
				return NRat(new(big.Rat).SetInt(new(big.Int).MulRange(1, k)))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

// piMultiple reports r when e is exactly r*pi.
func piMultiple(e Expr) (*Num, bool) {
	switch v := e.(type) {
	case *Num:
		if v.IsZero() {
			return N(0), true
		}
	case *Const:
		if v.name == "pi" {
			return N(1), true
		}
	case *Mul:
		if len(v.factors) == 2 {
			c, ok := v.factors[0].(*Num)
			k, ok2 := v.factors[1].(*Const)
			if ok && ok2 && k.name == "pi" && !c.approx {
				return c, true
			}
		}
	}
	return nil, false
}

// sinPi returns sin(r*pi) exactly for denominators 1, 2, 3, 4 and 6.
func sinPi(r *Num) Expr {
	two := N(2)
	// reduce r into [0, 2)
	q := new(big.Rat).Quo(r.val, two.val)
	fl := new(big.Int).Div(q.Num(), q.Denom())
	red := numSub(r, numMul(two, NRat(new(big.Rat).SetInt(fl))))
	sign := int64(1)
	if numCmp(red, N(1)) >= 0 {
		red = numSub(red, N(1))
		sign = -1
	}
	if numCmp(red, F(1, 2)) > 0 {
		red = numSub(N(1), red)
	}
	var v Expr
	switch {
	case red.IsZero():
		return N(0)
	case red.Equal(F(1, 6)):
		v = F(1, 2)
	case red.Equal(F(1, 4)):
		v = MulOf(F(1, 2), SqrtOf(N(2)))
	case red.Equal(F(1, 3)):
		v = MulOf(F(1, 2), SqrtOf(N(3)))
	case red.Equal(F(1, 2)):
		v = N(1)
	default:
		return nil
	}
	return MulOf(N(sign), v)
}

func trigAtPiMultiple(name string, r *Num) Expr {
	switch name {
	case "sin":
		return sinPi(r)
	case "cos":
		return sinPi(numSub(F(1, 2), r))
	}
	s, c := sinPi(r), sinPi(numSub(F(1, 2), r))
	if s == nil || c == nil {
		return nil
	}
	if isNumEqual(c, 0) {
		return ComplexInf
	}
	return Div(s, c)
}

func inverseTrigExact(name string, arg Expr) Expr {
	type entry struct{ val, angle Expr }
	var table []entry
	switch name {
	case "asin", "acos":
		table = []entry{
			{N(0), N(0)},
			{F(1, 2), MulOf(F(1, 6), Pi)},
			{MulOf(F(1, 2), SqrtOf(N(2))), MulOf(F(1, 4), Pi)},
			{MulOf(F(1, 2), SqrtOf(N(3))), MulOf(F(1, 3), Pi)},
			{N(1), MulOf(F(1, 2), Pi)},
		}
	case "atan":
		table = []entry{
			{N(0), N(0)},
			{MulOf(F(1, 3), SqrtOf(N(3))), MulOf(F(1, 6), Pi)},
			{N(1), MulOf(F(1, 4), Pi)},
			{SqrtOf(N(3)), MulOf(F(1, 3), Pi)},
		}
	}
	for _, e := range table {
		if arg.Equal(e.val) {
			if name == "acos" {
				return Subtract(MulOf(F(1, 2), Pi), e.angle)
			}
			return e.angle
		}
	}
	if name == "acos" {
		// acos(-v) = pi - acos(v)
		if pos, neg := negatedTerm(arg); neg {
			if v := inverseTrigExact("acos", pos); v != nil {
				return Subtract(Pi, v)
			}
		}
	}
	if n, ok := arg.(*Num); ok && name != "atan" && numCmp(numAbs(n), N(1)) > 0 {
		return NaN
	}
	return nil
}

func absExact(arg Expr) Expr {
	switch v := arg.(type) {
	case *Num:
		return numAbs(v)
	case *Const:
		return v
	case *Func:
		switch v.name {
		case "abs", "exp", "cosh":
			return v
		}
	case *Pow:
		if en, ok := v.exp.(*Num); ok {
			if k, isInt := en.Int64(); isInt && k%2 == 0 {
				return v
			}
		}
		if b, ok := v.base.(*Num); ok && b.IsPositive() {
			return v
		}
	case *Mul:
		c, rest := splitCoeff(v)
		if !c.IsOne() {
			return MulOf(numAbs(c), AbsOf(rest))
		}
	}
	return nil
}

func roundExact(name string, arg Expr) Expr {
	if n, ok := arg.(*Num); ok && !n.approx {
		q := new(big.Int)
		m := new(big.Int)
		q.DivMod(n.val.Num(), n.val.Denom(), m)
		if name == "ceil" && m.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
		return NRat(new(big.Rat).SetInt(q))
	}
	if len(FreeSymbols(arg)) > 0 {
		return nil
	}
	v, ok := arg.Eval()
	if !ok {
		return nil
	}
	f := v.Float64()
	if name == "floor" {
		f = math.Floor(f)
	} else {
		f = math.Ceil(f)
	}
	if math.Abs(f) > 1<<53 {
		return nil
	}
	return N(int64(f))
}

func funcAtSpecial(name string, s *Special) Expr {
	if s.kind == kindNaN {
		return NaN
	}
	pos := s.kind == kindInf
	neg := s.kind == kindNegInf
	switch name {
	case "exp":
		if pos {
			return Inf
		}
		if neg {
			return N(0)
		}
	case "ln":
		if pos || neg {
			return Inf
		}
	case "atan":
		if pos {
			return MulOf(F(1, 2), Pi)
		}
		if neg {
			return MulOf(F(-1, 2), Pi)
		}
	case "tanh", "sign":
		if pos {
			return N(1)
		}
		if neg {
			return N(-1)
		}
	case "sinh", "floor", "ceil":
		if pos || neg {
			return s
		}
	case "cosh", "abs":
		return Inf
	case "factorial":
		if pos {
			return Inf
		}
	}
	return NaN
}

func floatFunc(name string, v float64) (float64, bool) {
	var r float64
	switch name {
	case "sin":
		r = math.Sin(v)
	case "cos":
		r = math.Cos(v)
	case "tan":
		r = math.Tan(v)
	case "asin":
		r = math.Asin(v)
	case "acos":
		r = math.Acos(v)
	case "atan":
		r = math.Atan(v)
	case "sinh":
		r = math.Sinh(v)
	case "cosh":
		r = math.Cosh(v)
	case "tanh":
		r = math.Tanh(v)
	case "exp":
		r = math.Exp(v)
	case "ln":
		if v <= 0 {
			return 0, false
		}
		r = math.Log(v)
	case "abs":
		r = math.Abs(v)
	case "floor":
		r = math.Floor(v)
	case "ceil":
		r = math.Ceil(v)
	case "sign":
		switch {
		case v > 0:
			r = 1
		case v < 0:
			r = -1
		}
	case "factorial":
		if v < 0 && v == math.Trunc(v) {
			return 0, false
		}
		r = math.Gamma(v + 1)
	default:
		return 0, false
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	a := f.arg.LaTeX()
	switch f.name {
	case "sin", "cos", "tan", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + a + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + a + "\\right)"
	case "acos":
		return "\\arccos\\left(" + a + "\\right)"
	case "atan":
		return "\\arctan\\left(" + a + "\\right)"
	case "exp":
		return "e^{" + a + "}"
	case "abs":
		return "\\left|" + a + "\\right|"
	case "floor":
		return "\\lfloor " + a + " \\rfloor"
	case "ceil":
		return "\\lceil " + a + " \\rceil"
	case "sign":
		return "\\operatorname{sign}\\left(" + a + "\\right)"
	case "factorial":
		switch v := f.arg.(type) {
		case *Sym:
			return a + "!"
		case *Num:
			if v.IsInteger() && !v.IsNegative() {
				return a + "!"
			}
		}
		return "\\left(" + a + "\\right)!"
	}
	return "\\operatorname{" + f.name + "}\\left(" + a + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

// Diff applies the chain rule.
func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	if isNumEqual(du, 0) {
		return N(0)
	}
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = Neg(SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "asin":
		outer = PowOf(Subtract(N(1), PowOf(f.arg, N(2))), F(-1, 2))
	case "acos":
		outer = Neg(PowOf(Subtract(N(1), PowOf(f.arg, N(2))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = Subtract(N(1), PowOf(TanhOf(f.arg), N(2)))
	case "abs":
		outer = SignOf(f.arg)
	case "floor", "ceil", "sign":
		return N(0)
	default:
		return NaN
	}
	return MulOf(outer, du)
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	if !n.approx {
		if r, ok := funcOf(f.name, n).Simplify().(*Num); ok {
			return r, true
		}
	}
	v, ok := floatFunc(f.name, n.Float64())
	if !ok {
		return nil, false
	}
	return NFloat(v), true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }
