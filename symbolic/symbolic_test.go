package symbolic_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/latexcalc/symbolic"
)

var (
	x = symbolic.S("x")
	y = symbolic.S("y")
)

// evalAt evaluates e numerically with x bound to v.
func evalAt(t *testing.T, e symbolic.Expr, v float64) float64 {
	t.Helper()
	f, ok := symbolic.EvalFloat(e, map[string]float64{"x": v})
	if !ok {
		t.Fatalf("cannot evaluate %s at x=%g", e, v)
	}
	return f
}

// sameFunction compares a and b at a few sample points.
func sameFunction(t *testing.T, a, b symbolic.Expr, points ...float64) {
	t.Helper()
	if len(points) == 0 {
		points = []float64{0.3, 0.7, 1.3, 2.1}
	}
	for _, p := range points {
		va, vb := evalAt(t, a, p), evalAt(t, b, p)
		if math.Abs(va-vb) > 1e-9*math.Max(1, math.Abs(vb)) {
			t.Errorf("at x=%g: %s = %g, %s = %g", p, a, va, b, vb)
		}
	}
}

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(2, 6)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
	if n.LaTeX() != `\frac{1}{3}` {
		t.Errorf("want \\frac{1}{3}, got %s", n.LaTeX())
	}
}

func TestNum_NegativeRationalLaTeX(t *testing.T) {
	if got := symbolic.F(-3, 4).LaTeX(); got != `-\frac{3}{4}` {
		t.Errorf("want -\\frac{3}{4}, got %s", got)
	}
}

func TestNum_ParseDecimalIsApprox(t *testing.T) {
	n, err := symbolic.ParseNum("2.5")
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsApprox() {
		t.Error("decimal literal should be approximate")
	}
	if n.String() != "2.5" {
		t.Errorf("want 2.5, got %s", n.String())
	}
	whole, _ := symbolic.ParseNum("3")
	if whole.IsApprox() {
		t.Error("integer literal should be exact")
	}
}

func TestNum_ParseInvalid(t *testing.T) {
	if _, err := symbolic.ParseNum("1..2"); err == nil {
		t.Error("want error for 1..2")
	}
}

func TestNum_ExactArithmetic(t *testing.T) {
	got := symbolic.AddOf(symbolic.F(1, 3), symbolic.F(1, 6))
	if got.String() != "1/2" {
		t.Errorf("want 1/2, got %s", got)
	}
	got = symbolic.MulOf(symbolic.F(2, 3), symbolic.F(3, 4))
	if got.String() != "1/2" {
		t.Errorf("want 1/2, got %s", got)
	}
}

func TestNum_RootExtraction(t *testing.T) {
	if got := symbolic.SqrtOf(symbolic.N(16)); got.String() != "4" {
		t.Errorf("sqrt(16): want 4, got %s", got)
	}
	if got := symbolic.SqrtOf(symbolic.N(8)); got.String() != "2*sqrt(2)" {
		t.Errorf("sqrt(8): want 2*sqrt(2), got %s", got)
	}
	if got := symbolic.PowOf(symbolic.N(-8), symbolic.F(1, 3)); got.String() != "-2" {
		t.Errorf("cbrt(-8): want -2, got %s", got)
	}
}

// ============================================================
// Sym and Const tests
// ============================================================

func TestSym_Sub(t *testing.T) {
	if got := symbolic.Sub(x, "x", symbolic.N(3)); got.String() != "3" {
		t.Errorf("want 3, got %s", got)
	}
	if got := symbolic.Sub(x, "y", symbolic.N(3)); got.String() != "x" {
		t.Errorf("want x, got %s", got)
	}
}

func TestSym_GreekLaTeX(t *testing.T) {
	if got := symbolic.S("alpha").LaTeX(); got != `\alpha` {
		t.Errorf("want \\alpha, got %s", got)
	}
	if got := symbolic.S("x_1").LaTeX(); got != "x_{1}" {
		t.Errorf("want x_{1}, got %s", got)
	}
}

func TestConst_LaTeX(t *testing.T) {
	if symbolic.Pi.LaTeX() != `\pi` {
		t.Errorf("want \\pi, got %s", symbolic.Pi.LaTeX())
	}
	v, ok := symbolic.EvalFloat(symbolic.E, nil)
	if !ok || math.Abs(v-math.E) > 1e-15 {
		t.Errorf("E should evaluate to %g, got %g", math.E, v)
	}
}

// ============================================================
// Add / Mul / Pow canonical forms
// ============================================================

func TestAdd_LikeTerms(t *testing.T) {
	if got := symbolic.AddOf(x, x); got.String() != "2*x" {
		t.Errorf("want 2*x, got %s", got)
	}
	if got := symbolic.Subtract(x, x); got.String() != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestAdd_Order(t *testing.T) {
	e := symbolic.AddOf(symbolic.N(1), x, symbolic.PowOf(x, symbolic.N(2)))
	if e.String() != "x^2 + x + 1" {
		t.Errorf("want x^2 + x + 1, got %s", e)
	}
	if got := symbolic.Subtract(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(4)); got.String() != "x^2 - 4" {
		t.Errorf("want x^2 - 4, got %s", got)
	}
}

func TestMul_CombineBases(t *testing.T) {
	if got := symbolic.MulOf(x, x); got.String() != "x^2" {
		t.Errorf("want x^2, got %s", got)
	}
	if got := symbolic.Div(x, x); got.String() != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestMul_LaTeXJuxtaposition(t *testing.T) {
	if got := symbolic.MulOf(symbolic.N(2), x).LaTeX(); got != "2x" {
		t.Errorf("want 2x, got %s", got)
	}
	if got := symbolic.Div(x, symbolic.N(2)).LaTeX(); got != `\frac{x}{2}` {
		t.Errorf("want \\frac{x}{2}, got %s", got)
	}
}

func TestPow_ZeroBaseNegativeExp(t *testing.T) {
	got := symbolic.Div(symbolic.N(1), symbolic.N(0))
	if got.String() != "zoo" {
		t.Errorf("1/0: want zoo, got %s", got)
	}
	if got.LaTeX() != `\tilde{\infty}` {
		t.Errorf("want \\tilde{\\infty}, got %s", got.LaTeX())
	}
}

func TestPow_StringForms(t *testing.T) {
	if got := symbolic.PowOf(x, symbolic.N(-1)); got.String() != "1/x" {
		t.Errorf("want 1/x, got %s", got)
	}
	if got := symbolic.SqrtOf(x); got.String() != "sqrt(x)" {
		t.Errorf("want sqrt(x), got %s", got)
	}
	if got := symbolic.SqrtOf(x).LaTeX(); got != `\sqrt{x}` {
		t.Errorf("want \\sqrt{x}, got %s", got)
	}
}

func TestSimplify_Idempotent(t *testing.T) {
	exprs := []symbolic.Expr{
		symbolic.AddOf(x, y, x, symbolic.N(3)),
		symbolic.MulOf(symbolic.N(3), symbolic.AddOf(x, symbolic.N(1))),
		symbolic.PowOf(symbolic.MulOf(symbolic.N(2), x), symbolic.N(3)),
		symbolic.SinOf(symbolic.Neg(x)),
	}
	for _, e := range exprs {
		once := e.Simplify()
		twice := once.Simplify()
		if once.String() != twice.String() {
			t.Errorf("Simplify not idempotent: %s then %s", once, twice)
		}
	}
}

// ============================================================
// Functions
// ============================================================

func TestFunc_ExactValues(t *testing.T) {
	cases := []struct {
		got  symbolic.Expr
		want string
	}{
		{symbolic.SinOf(symbolic.N(0)), "0"},
		{symbolic.CosOf(symbolic.N(0)), "1"},
		{symbolic.SinOf(symbolic.Pi), "0"},
		{symbolic.SinOf(symbolic.MulOf(symbolic.F(1, 6), symbolic.Pi)), "1/2"},
		{symbolic.ExpOf(symbolic.N(0)), "1"},
		{symbolic.LnOf(symbolic.N(1)), "0"},
		{symbolic.LnOf(symbolic.E), "1"},
		{symbolic.AbsOf(symbolic.N(-3)), "3"},
		{symbolic.FactorialOf(symbolic.N(5)), "120"},
		{symbolic.AtanOf(symbolic.N(1)), "pi/4"},
		{symbolic.FloorOf(symbolic.F(7, 2)), "3"},
		{symbolic.CeilOf(symbolic.F(7, 2)), "4"},
		{symbolic.FloorOf(symbolic.F(-7, 2)), "-4"},
		{symbolic.CeilOf(symbolic.F(-7, 2)), "-3"},
		{symbolic.CeilOf(symbolic.N(3)), "3"},
	}
	for _, c := range cases {
		if c.got.String() != c.want {
			t.Errorf("want %s, got %s", c.want, c.got)
		}
	}
}

func TestFunc_OddEven(t *testing.T) {
	if got := symbolic.SinOf(symbolic.Neg(x)); got.String() != "-sin(x)" {
		t.Errorf("want -sin(x), got %s", got)
	}
	if got := symbolic.CosOf(symbolic.Neg(x)); got.String() != "cos(x)" {
		t.Errorf("want cos(x), got %s", got)
	}
}

func TestFunc_ApplyUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Apply with an unknown name should panic")
		}
	}()
	symbolic.Apply("gamma", x)
}

func TestFunc_LaTeX(t *testing.T) {
	if got := symbolic.SinOf(x).LaTeX(); got != `\sin\left(x\right)` {
		t.Errorf("got %s", got)
	}
	if got := symbolic.ExpOf(x).LaTeX(); got != "e^{x}" {
		t.Errorf("got %s", got)
	}
	if got := symbolic.AbsOf(x).LaTeX(); got != `\left|x\right|` {
		t.Errorf("got %s", got)
	}
}

// ============================================================
// Simplification helpers
// ============================================================

func TestTrigSimplify_Pythagorean(t *testing.T) {
	e := symbolic.AddOf(symbolic.PowOf(symbolic.SinOf(x), symbolic.N(2)), symbolic.PowOf(symbolic.CosOf(x), symbolic.N(2)))
	if got := symbolic.TrigSimplify(e); got.String() != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestExpand_Square(t *testing.T) {
	e := symbolic.PowOf(symbolic.AddOf(x, symbolic.N(1)), symbolic.N(2))
	if got := symbolic.Expand(e); got.String() != "x^2 + 2*x + 1" {
		t.Errorf("want x^2 + 2*x + 1, got %s", got)
	}
}

func TestCancelRational(t *testing.T) {
	e := symbolic.Div(symbolic.Subtract(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(1)), symbolic.Subtract(x, symbolic.N(1)))
	if got := symbolic.CancelRational(e); got.String() != "x + 1" {
		t.Errorf("want x + 1, got %s", got)
	}
}

func TestFreeSymbols(t *testing.T) {
	e := symbolic.AddOf(symbolic.MulOf(x, y), symbolic.SinOf(symbolic.S("z")))
	got := strings.Join(symbolic.SortedSymbols(e), ",")
	if got != "x,y,z" {
		t.Errorf("want x,y,z, got %s", got)
	}
}

func TestReplace(t *testing.T) {
	e := symbolic.AddOf(symbolic.SinOf(x), symbolic.N(1))
	got := symbolic.Replace(e, symbolic.SinOf(x), y)
	if got.String() != "y + 1" {
		t.Errorf("want y + 1, got %s", got)
	}
}

func TestEquation_Holds(t *testing.T) {
	eq := symbolic.Eq(symbolic.AddOf(symbolic.N(1), symbolic.N(1)), symbolic.N(2))
	holds, decided := eq.Holds()
	if !decided || !holds {
		t.Errorf("1+1=2 should hold, got holds=%v decided=%v", holds, decided)
	}
	eq = symbolic.Eq(x, symbolic.N(2))
	if _, decided := eq.Holds(); decided {
		t.Error("x=2 should be undecided")
	}
}

// ============================================================
// Evaluation and JSON
// ============================================================

func TestEvalFloat_UnboundSymbol(t *testing.T) {
	if _, ok := symbolic.EvalFloat(y, nil); ok {
		t.Error("unbound symbol should not evaluate")
	}
}

func TestLambdify(t *testing.T) {
	f := symbolic.Lambdify(symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(1)), "x")
	if got := f(3); got != 10 {
		t.Errorf("want 10, got %g", got)
	}
}

func TestToJSON(t *testing.T) {
	s, err := symbolic.ToJSON(symbolic.AddOf(x, symbolic.N(1)))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "add" {
		t.Errorf("want type add, got %v", m["type"])
	}
}
