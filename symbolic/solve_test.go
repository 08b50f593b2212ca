package symbolic_test

import (
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/latexcalc/symbolic"
)

func solutionStrings(sols []symbolic.Expr) string {
	parts := make([]string, len(sols))
	for i, s := range sols {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// ============================================================
// Single-variable solving
// ============================================================

func TestSolve_Exact(t *testing.T) {
	sq := func(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(2)) }
	cases := []struct {
		name string
		expr symbolic.Expr
		want string
	}{
		{"quadratic", symbolic.Subtract(sq(x), symbolic.N(4)), "-2, 2"},
		{"linear", symbolic.AddOf(symbolic.MulOf(symbolic.N(2), x), symbolic.N(3)), "-3/2"},
		{"surd", symbolic.Subtract(sq(x), symbolic.N(2)), "-sqrt(2), sqrt(2)"},
		{"exp", symbolic.Subtract(symbolic.ExpOf(x), symbolic.N(1)), "0"},
		{"sin", symbolic.Subtract(symbolic.SinOf(x), symbolic.F(1, 2)), "pi/6, 5*pi/6"},
		{"double root", sq(symbolic.Subtract(x, symbolic.N(3))), "3"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := symbolic.Solve(c.expr, "x")
			if r.Error != "" {
				t.Fatalf("unexpected error: %s", r.Error)
			}
			if got := solutionStrings(r.Solutions); got != c.want {
				t.Errorf("want %s, got %s", c.want, got)
			}
			if !r.ExactForm {
				t.Error("want exact form")
			}
		})
	}
}

func TestSolve_NoRealSolution(t *testing.T) {
	r := symbolic.Solve(symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(1)), "x")
	if r.Error != "" || len(r.Solutions) != 0 {
		t.Errorf("want empty solution set, got %+v", r)
	}
}

func TestSolve_Identity(t *testing.T) {
	r := symbolic.Solve(symbolic.Subtract(symbolic.MulOf(symbolic.N(2), x), symbolic.AddOf(x, x)), "x")
	if !r.Identity {
		t.Errorf("want identity, got %+v", r)
	}
}

func TestSolve_Contradiction(t *testing.T) {
	r := symbolic.Solve(symbolic.N(1), "x")
	if r.Identity || len(r.Solutions) != 0 || r.Error != "" {
		t.Errorf("want no solutions, got %+v", r)
	}
}

func TestSolve_MissingVariable(t *testing.T) {
	r := symbolic.Solve(y, "x")
	if r.Error == "" {
		t.Error("want error for equation without x")
	}
}

func TestSolve_DropsPoles(t *testing.T) {
	// (x^2 - 1)/(x - 1) = 0 only at x = -1
	e := symbolic.Div(symbolic.Subtract(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(1)), symbolic.Subtract(x, symbolic.N(1)))
	r := symbolic.Solve(e, "x")
	if got := solutionStrings(r.Solutions); got != "-1" {
		t.Errorf("want -1, got %s", got)
	}
}

func TestSolve_CubicLeavesResidual(t *testing.T) {
	// x^3 - 2x - 5 has no rational roots
	e := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(3)), symbolic.MulOf(symbolic.N(-2), x), symbolic.N(-5))
	r := symbolic.Solve(e, "x")
	if r.Residual.Degree() != 3 {
		t.Errorf("want cubic residual, got degree %d", r.Residual.Degree())
	}
}

func TestSolve_RationalRootsThenResidual(t *testing.T) {
	// (x - 1)(x^3 - 2x - 5)
	cubic := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(3)), symbolic.MulOf(symbolic.N(-2), x), symbolic.N(-5))
	e := symbolic.Expand(symbolic.MulOf(symbolic.Subtract(x, symbolic.N(1)), cubic))
	r := symbolic.Solve(e, "x")
	if got := solutionStrings(r.Solutions); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
	if r.Residual.Degree() != 3 {
		t.Errorf("want cubic residual, got degree %d", r.Residual.Degree())
	}
}

func TestSolve_SolutionsSatisfyEquation(t *testing.T) {
	exprs := []symbolic.Expr{
		symbolic.Subtract(symbolic.LnOf(x), symbolic.N(2)),
		symbolic.Subtract(symbolic.PowOf(x, symbolic.N(4)), symbolic.N(16)),
		symbolic.Subtract(symbolic.AbsOf(symbolic.Subtract(x, symbolic.N(1))), symbolic.N(3)),
		symbolic.Subtract(symbolic.SqrtOf(x), symbolic.N(3)),
	}
	for _, e := range exprs {
		r := symbolic.Solve(e, "x")
		if r.Error != "" || len(r.Solutions) == 0 {
			t.Errorf("solve %s: %+v", e, r)
			continue
		}
		for _, s := range r.Solutions {
			v, ok := symbolic.EvalFloat(symbolic.Sub(e, "x", s), nil)
			if !ok || math.Abs(v) > 1e-9 {
				t.Errorf("solve %s: %s is not a root (residual %g)", e, s, v)
			}
		}
	}
}

func TestSolveQuadraticExact_NegativeDiscriminant(t *testing.T) {
	r := symbolic.SolveQuadraticExact(symbolic.N(1), symbolic.N(0), symbolic.N(1))
	if r.Error != "" || len(r.Solutions) != 0 {
		t.Errorf("want no real roots, got %+v", r)
	}
}

// ============================================================
// Factor and Apart
// ============================================================

func TestFactor(t *testing.T) {
	// 2x^2 - 2 = 2 (x - 1)(x + 1)
	e := symbolic.Subtract(symbolic.MulOf(symbolic.N(2), symbolic.PowOf(x, symbolic.N(2))), symbolic.N(2))
	r := symbolic.Factor(e, "x")
	if !r.Success {
		t.Fatalf("factor failed: %+v", r)
	}
	prod := symbolic.MulOf(r.Factors...)
	if !symbolic.Expand(prod).Equal(symbolic.Expand(e)) {
		t.Errorf("factors %v do not multiply back to %s", r.Factors, e)
	}
	if len(r.Factors) != 3 {
		t.Errorf("want 3 factors, got %d", len(r.Factors))
	}
}

func TestApart(t *testing.T) {
	num := symbolic.N(1)
	den := symbolic.Subtract(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(1))
	r := symbolic.Apart(num, den, "x")
	if r.Error != "" {
		t.Fatal(r.Error)
	}
	if len(r.Terms) != 2 {
		t.Fatalf("want 2 terms, got %d", len(r.Terms))
	}
	sameFunction(t, symbolic.AddOf(r.Terms...), symbolic.Div(num, den), 2, 3, 4.5)
}

// ============================================================
// Systems
// ============================================================

func TestSolveSystem_Linear(t *testing.T) {
	eqs := []symbolic.Expr{
		symbolic.Subtract(symbolic.AddOf(x, y), symbolic.N(2)),
		symbolic.Subtract(x, y),
	}
	r := symbolic.SolveSystem(eqs, []string{"x", "y"})
	if !r.Linear || len(r.Solutions) != 1 {
		t.Fatalf("want one linear solution, got %+v", r)
	}
	s := r.Solutions[0]
	if s["x"].String() != "1" || s["y"].String() != "1" {
		t.Errorf("want x=1 y=1, got x=%s y=%s", s["x"], s["y"])
	}
}

func TestSolveSystem_Inconsistent(t *testing.T) {
	eqs := []symbolic.Expr{
		symbolic.Subtract(symbolic.AddOf(x, y), symbolic.N(1)),
		symbolic.Subtract(symbolic.AddOf(x, y), symbolic.N(2)),
	}
	r := symbolic.SolveSystem(eqs, []string{"x", "y"})
	if !r.Inconsistent {
		t.Errorf("want inconsistent, got %+v", r)
	}
}

func TestSolveSystem_Underdetermined(t *testing.T) {
	eqs := []symbolic.Expr{symbolic.Subtract(symbolic.AddOf(x, y), symbolic.N(2))}
	r := symbolic.SolveSystem(eqs, []string{"x", "y"})
	if !r.Underdetermined {
		t.Fatalf("want underdetermined, got %+v", r)
	}
	if len(r.Free) != 1 || r.Free[0] != "y" {
		t.Errorf("want y free, got %v", r.Free)
	}
	if got := r.Solutions[0]["x"].String(); got != "2 - y" && got != "-y + 2" {
		t.Errorf("want x = 2 - y, got %s", got)
	}
}

func TestSolveSystem_Nonlinear(t *testing.T) {
	// x^2 + y^2 = 25, y = x + 1  ->  (-4, -3) and (3, 4)
	eqs := []symbolic.Expr{
		symbolic.Subtract(symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.PowOf(y, symbolic.N(2))), symbolic.N(25)),
		symbolic.Subtract(y, symbolic.AddOf(x, symbolic.N(1))),
	}
	r := symbolic.SolveSystem(eqs, []string{"x", "y"})
	if r.Error != "" || len(r.Solutions) != 2 {
		t.Fatalf("want two solutions, got %+v", r)
	}
	if r.Solutions[0]["x"].String() != "-4" || r.Solutions[1]["x"].String() != "3" {
		t.Errorf("want x = -4, 3; got %s, %s", r.Solutions[0]["x"], r.Solutions[1]["x"])
	}
	if r.Solutions[1]["y"].String() != "4" {
		t.Errorf("want y = 4, got %s", r.Solutions[1]["y"])
	}
}

func TestJacobian(t *testing.T) {
	j := symbolic.Jacobian([]symbolic.Expr{symbolic.MulOf(x, y), symbolic.AddOf(x, y)}, []string{"x", "y"})
	if j.Rows() != 2 || j.Cols() != 2 {
		t.Fatalf("want 2x2, got %dx%d", j.Rows(), j.Cols())
	}
	if j.Get(0, 0).String() != "y" || j.Get(1, 1).String() != "1" {
		t.Errorf("unexpected jacobian %s", j)
	}
}
