package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/internal/normalize"
	"github.com/njchilds90/latexcalc/latex"
	"github.com/njchilds90/latexcalc/symbolic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tree(t *testing.T, input string) latex.Node {
	t.Helper()
	parsed, err := latex.Parse(input)
	require.NoError(t, err)
	out, err := normalize.Normalize(parsed, normalize.Permissive)
	require.NoError(t, err)
	return out
}

func newAdapter(mod ...func(*Config)) *Adapter {
	cfg := DefaultConfig()
	for _, m := range mod {
		m(&cfg)
	}
	return New(cfg, nil)
}

// ============================================================
// Evaluate
// ============================================================

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2+2", "4"},
		{`\frac{1}{0}`, "zoo"},
		{`\frac{1}{3} + \frac{1}{6}`, "1/2"},
		{`\sin^2 x + \cos^2 x`, "1"},
		{`x + x`, "2*x"},
		{`\sqrt{8}`, "2*sqrt(2)"},
		{`\log_{5}(5)`, "1"},
		{`5!`, "120"},
		{`\frac{d}{dx} x^3`, "3*x^2"},
		{`\int_0^1 2x \, dx`, "1"},
		{`\lim_{x \to 0} \frac{\sin x}{x}`, "1"},
		{`\sec(0)`, "1"},
	}
	a := newAdapter()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := a.Evaluate(context.Background(), tree(t, tt.input))
			require.NoError(t, err)
			require.NotNil(t, v.Expr)
			assert.Equal(t, tt.want, v.Expr.String())
		})
	}
}

func TestEvaluateNumericCompanion(t *testing.T) {
	a := newAdapter()
	v, err := a.Evaluate(context.Background(), tree(t, `\pi`))
	require.NoError(t, err)
	require.NotNil(t, v.Numeric)
	assert.InDelta(t, math.Pi, *v.Numeric, 1e-12)

	v, err = a.Evaluate(context.Background(), tree(t, "3/4"))
	require.NoError(t, err)
	assert.Nil(t, v.Numeric, "plain rationals carry no approximation")
}

func TestEvaluateEquations(t *testing.T) {
	a := newAdapter()
	v, err := a.Evaluate(context.Background(), tree(t, "1 + 1 = 2"))
	require.NoError(t, err)
	require.NotNil(t, v.Bool)
	assert.True(t, *v.Bool)

	v, err = a.Evaluate(context.Background(), tree(t, "1 = 2"))
	require.NoError(t, err)
	require.NotNil(t, v.Bool)
	assert.False(t, *v.Bool)

	v, err = a.Evaluate(context.Background(), tree(t, "x + x = 4"))
	require.NoError(t, err)
	require.NotNil(t, v.Equation)
	assert.Equal(t, "2*x = 4", v.Equation.String())
}

func TestEvaluateRejectsUnknownFunction(t *testing.T) {
	a := newAdapter()
	_, err := a.Evaluate(context.Background(), &latex.Function{Name: "gamma", Args: []latex.Node{&latex.Number{Text: "1"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrValidation))
}

// ============================================================
// Differentiate
// ============================================================

func TestDifferentiate(t *testing.T) {
	tests := []struct {
		input    string
		variable string
		want     string
		wantVar  string
	}{
		{"x^2", "", "2*x", "x"},
		{`\sin x`, "", "cos(x)", "x"},
		{"x y", "y", "x", "y"},
		{"5", "", "0", "x"},
		{`\frac{d^2}{dx^2} x^3`, "", "6*x", "x"},
		{`t^3`, "", "3*t^2", "t"},
	}
	a := newAdapter()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := a.Differentiate(context.Background(), tree(t, tt.input), tt.variable)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Expr.String())
			assert.Equal(t, tt.wantVar, d.Var)
		})
	}
}

func TestDifferentiateAmbiguous(t *testing.T) {
	_, err := newAdapter().Differentiate(context.Background(), tree(t, "x y"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrAmbiguousVariable))
	assert.Contains(t, err.Error(), "x, y")
}

func TestDifferentiateStrictVariable(t *testing.T) {
	a := newAdapter(func(c *Config) { c.StrictVariables = true })
	_, err := a.Differentiate(context.Background(), tree(t, "x^2"), "z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrValidation))
}

func TestDifferentiateWithoutRule(t *testing.T) {
	a := newAdapter()
	for _, input := range []string{`x!`, `\frac{d}{dx} x!`} {
		_, err := a.Differentiate(context.Background(), tree(t, input), "")
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, calcerr.ErrNoClosedForm), "%s: %v", input, err)
	}
	_, err := a.Evaluate(context.Background(), tree(t, `\frac{d}{dx} x! + 1`))
	assert.True(t, errors.Is(err, calcerr.ErrNoClosedForm), "%v", err)
}

// ============================================================
// Integrate
// ============================================================

func TestIntegrateIndefinite(t *testing.T) {
	a := newAdapter()
	r, err := a.Integrate(context.Background(), tree(t, "2x"), "x")
	require.NoError(t, err)
	assert.Equal(t, "x^2", r.Expr.String())
	assert.Equal(t, "C", r.Constant)
	assert.False(t, r.Definite())

	r, err = a.Integrate(context.Background(), tree(t, `\int \cos t \, dt`), "")
	require.NoError(t, err)
	assert.Equal(t, "sin(t)", r.Expr.String())
	assert.Equal(t, "t", r.Var)
}

func TestIntegrateRenamesTakenConstant(t *testing.T) {
	r, err := newAdapter().Integrate(context.Background(), tree(t, "C x"), "x")
	require.NoError(t, err)
	assert.Equal(t, "C_1", r.Constant)
}

func TestIntegrateDefinite(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`\int_0^{\pi} \sin x \, dx`, "2"},
		{`\int_1^{\infty} \frac{1}{x^2} dx`, "1"},
		{`\int_0^2 x^2 dx`, "8/3"},
	}
	a := newAdapter()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := a.Integrate(context.Background(), tree(t, tt.input), "")
			require.NoError(t, err)
			assert.True(t, r.Definite())
			assert.Empty(t, r.Constant)
			assert.Equal(t, tt.want, r.Expr.String())
		})
	}
}

func TestIntegrateDefiniteReversedBounds(t *testing.T) {
	r, err := newAdapter().Integrate(context.Background(), tree(t, `\int_1^0 2x \, dx`), "")
	require.NoError(t, err)
	assert.Equal(t, "-1", r.Expr.String())
}

func TestIntegrateDivergent(t *testing.T) {
	inputs := []string{
		`\int_{-1}^{1} \frac{1}{x^2} dx`,
		`\int_{-1}^{1} \frac{1}{x} dx`,
		`\int_{0}^{\pi} \tan x dx`,
		`\int_{1}^{\infty} \frac{1}{x} dx`,
		`\int_{0}^{1} \frac{1}{x} dx`,
	}
	for _, numeric := range []bool{false, true} {
		a := newAdapter(func(c *Config) { c.AllowNumericIntegration = numeric })
		for _, input := range inputs {
			t.Run(input, func(t *testing.T) {
				r, err := a.Integrate(context.Background(), tree(t, input), "")
				require.Error(t, err, "got %v", r.Expr)
				assert.True(t, errors.Is(err, calcerr.ErrNoClosedForm), "%v", err)
			})
		}
	}
}

func TestPoleFactors(t *testing.T) {
	x := symbolic.S("x")
	body := symbolic.AddOf(
		symbolic.Div(symbolic.N(1), symbolic.Subtract(symbolic.PowOf(x, symbolic.N(2)), symbolic.N(1))),
		symbolic.TanOf(x),
		symbolic.LnOf(x),
		symbolic.PowOf(symbolic.S("y"), symbolic.N(-1)),
	)
	got := map[string]bool{}
	for _, g := range poleFactors(body, "x") {
		got[g.String()] = true
	}
	assert.Len(t, got, 3)
	assert.True(t, got["x"], "ln argument")
	assert.True(t, got["cos(x)"], "tan pole")
	assert.NotContains(t, got, "y")
}

func TestInteriorPoles(t *testing.T) {
	a := newAdapter()
	x := symbolic.S("x")

	poles, err := a.interiorPoles(context.Background(), symbolic.TanOf(x), "x", 0, math.Pi)
	require.NoError(t, err)
	require.Len(t, poles, 1)
	assert.InDelta(t, math.Pi/2, poles[0], 1e-9)

	poles, err = a.interiorPoles(context.Background(), symbolic.PowOf(x, symbolic.N(-2)), "x", 1, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, poles)

	poles, err = a.interiorPoles(context.Background(), symbolic.PowOf(x, symbolic.N(-1)), "x", 0, 1)
	require.NoError(t, err)
	assert.Empty(t, poles, "a pole on a bound is not interior")
}

func TestPoleAtBound(t *testing.T) {
	inv := func(x float64) float64 { return 1 / x }
	assert.True(t, poleAtBound(inv, 0, 1))
	assert.True(t, poleAtBound(inv, 0, -1))
	assert.False(t, poleAtBound(inv, 1, 0))
	invSqrt := func(x float64) float64 { return 1 / math.Sqrt(x) }
	assert.False(t, poleAtBound(invSqrt, 0, 1), "integrable singularities stay")
}

func TestIntegrateNoClosedForm(t *testing.T) {
	a := newAdapter()
	_, err := a.Integrate(context.Background(), tree(t, `e^{x^2}`), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrNoClosedForm))

	_, err = a.Integrate(context.Background(), tree(t, `\int_0^1 e^{x^2} dx`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric integration is disabled")
}

func TestIntegrateNumericWhenAllowed(t *testing.T) {
	a := newAdapter(func(c *Config) { c.AllowNumericIntegration = true })
	r, err := a.Integrate(context.Background(), tree(t, `\int_0^1 e^{x^2} dx`), "")
	require.NoError(t, err)
	require.NotNil(t, r.Numeric)
	assert.InDelta(t, 1.4626517459071816, *r.Numeric, 1e-9)
}

// ============================================================
// Limit
// ============================================================

func TestLimit(t *testing.T) {
	inf := &latex.Constant{Name: "infty"}
	tests := []struct {
		name  string
		input string
		point latex.Node
		dir   symbolic.Direction
		want  string
	}{
		{"sinc", `\frac{\sin x}{x}`, &latex.Number{Text: "0"}, symbolic.Bidirectional, "1"},
		{"default point", "x + 1", nil, symbolic.Bidirectional, "1"},
		{"at infinity", `\frac{2x^2 + 1}{x^2}`, inf, symbolic.Bidirectional, "2"},
		{"one sided", `\frac{1}{x}`, nil, symbolic.FromAbove, "oo"},
		{"from below", `\frac{1}{x}`, nil, symbolic.FromBelow, "-oo"},
		{"compound interest", `(1 + \frac{1}{n})^n`, inf, symbolic.Bidirectional, "E"},
	}
	a := newAdapter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := a.Limit(context.Background(), tree(t, tt.input), "", tt.point, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Expr.String())
			assert.False(t, r.Approximate)
		})
	}
}

func TestLimitNodeSuppliesItsOwnArguments(t *testing.T) {
	r, err := newAdapter().Limit(context.Background(), tree(t, `\lim_{x \to 0^+} \frac{1}{x}`), "", nil, symbolic.Bidirectional)
	require.NoError(t, err)
	assert.Equal(t, "oo", r.Expr.String())
	assert.Equal(t, symbolic.FromAbove, r.Direction)
}

func TestLimitOscillatingHasNoValue(t *testing.T) {
	inputs := []string{
		`\sin(\frac{1}{x})`,
		`\cos(\frac{1}{x})`,
		`\frac{1}{x}\sin(\frac{1}{x})`,
	}
	a := newAdapter()
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			for _, dir := range []symbolic.Direction{symbolic.Bidirectional, symbolic.FromAbove, symbolic.FromBelow} {
				r, err := a.Limit(context.Background(), tree(t, input), "x", &latex.Number{Text: "0"}, dir)
				require.Error(t, err, "got %v", r.Expr)
				assert.True(t, errors.Is(err, calcerr.ErrNoClosedForm) || errors.Is(err, calcerr.ErrDoesNotExist), "%s: %v", dir, err)
			}
		})
	}
}

func TestNumericLimitIsApproximate(t *testing.T) {
	x := symbolic.S("x")
	val, approx, err := newAdapter().numericLimit(symbolic.Div(symbolic.SinOf(x), x), "x", symbolic.N(0), symbolic.Bidirectional)
	require.NoError(t, err)
	assert.Equal(t, "1", val.String())
	assert.True(t, approx, "a snapped numeric value is still an estimate")
}

func TestLimitDoesNotExist(t *testing.T) {
	_, err := newAdapter().Limit(context.Background(), tree(t, `\frac{1}{x}`), "x", &latex.Number{Text: "0"}, symbolic.Bidirectional)
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrDoesNotExist))
}

func TestLimitPointMayNotDependOnVariable(t *testing.T) {
	_, err := newAdapter().Limit(context.Background(), tree(t, "x"), "x", &latex.Symbol{Name: "x"}, symbolic.Bidirectional)
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrValidation))
}

// ============================================================
// Solve
// ============================================================

func solutionStrings(s SolutionSet) []string {
	out := []string{}
	for _, sol := range s.Solutions {
		out = append(out, sol[s.Vars[0]].String())
	}
	return out
}

func TestSolve(t *testing.T) {
	a := newAdapter()
	s, err := a.Solve(context.Background(), tree(t, "x^2 - 4 = 0"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"-2", "2"}, solutionStrings(s))
	assert.Empty(t, s.Numeric)

	s, err = a.Solve(context.Background(), tree(t, "x^2 = 2"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"-sqrt(2)", "sqrt(2)"}, solutionStrings(s))
	require.Len(t, s.Numeric, 2)
	assert.InDelta(t, -math.Sqrt2, s.Numeric[0]["x"], 1e-12)
	assert.InDelta(t, math.Sqrt2, s.Numeric[1]["x"], 1e-12)
}

func TestSolveCubicUsesEigenvalues(t *testing.T) {
	s, err := newAdapter().Solve(context.Background(), tree(t, "x^3 - 2x - 5 = 0"), "")
	require.NoError(t, err)
	assert.Empty(t, s.Solutions)
	require.Len(t, s.Numeric, 1)
	assert.InDelta(t, 2.0945514815423265, s.Numeric[0]["x"], 1e-9)
}

func TestSolveTranscendentalNumerically(t *testing.T) {
	s, err := newAdapter().Solve(context.Background(), tree(t, `\cos x = x`), "")
	require.NoError(t, err)
	require.Len(t, s.Numeric, 1)
	assert.InDelta(t, 0.7390851332151607, s.Numeric[0]["x"], 1e-9)

	_, err = newAdapter(func(c *Config) { c.NumericSolve = false }).Solve(context.Background(), tree(t, `\cos x = x`), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrNoClosedForm))
}

func TestSolveEdgeCases(t *testing.T) {
	a := newAdapter()
	s, err := a.Solve(context.Background(), tree(t, "x^2 + 1 = 0"), "")
	require.NoError(t, err)
	assert.True(t, s.Empty())

	s, err = a.Solve(context.Background(), tree(t, "x + 1 = 1 + x"), "")
	require.NoError(t, err)
	assert.True(t, s.Identity)
	assert.Equal(t, []string{"x"}, s.Free)

	s, err = a.Solve(context.Background(), tree(t, "y + 1 = 1 + y"), "")
	require.NoError(t, err)
	assert.True(t, s.Identity)
	assert.Equal(t, []string{"y"}, s.Free, "a symbol that cancels is still the unknown")

	s, err = a.Solve(context.Background(), tree(t, "1 = 2"), "")
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Empty(t, s.Vars)

	s, err = a.Solve(context.Background(), tree(t, "1 = 1"), "")
	require.NoError(t, err)
	assert.True(t, s.Identity)
	assert.Empty(t, s.Vars)
	assert.Empty(t, s.Free)

	s, err = a.Solve(context.Background(), tree(t, "a x - 2 = 0"), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"2/a"}, solutionStrings(s))
}

// ============================================================
// Systems
// ============================================================

func trees(t *testing.T, inputs ...string) []latex.Node {
	out := make([]latex.Node, len(inputs))
	for i, in := range inputs {
		out[i] = tree(t, in)
	}
	return out
}

func TestSolveSystem(t *testing.T) {
	s, err := newAdapter().SolveSystem(context.Background(), trees(t, "x + y = 2", "x - y = 0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, s.Vars)
	require.Len(t, s.Solutions, 1)
	assert.Equal(t, "1", s.Solutions[0]["x"].String())
	assert.Equal(t, "1", s.Solutions[0]["y"].String())
	assert.Empty(t, s.Free)
}

func TestSolveSystemInconsistent(t *testing.T) {
	_, err := newAdapter().SolveSystem(context.Background(), trees(t, "x + y = 1", "x + y = 2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrInconsistentSystem))
}

func TestSolveSystemFamily(t *testing.T) {
	s, err := newAdapter().SolveSystem(context.Background(), trees(t, "x + y = 2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, s.Free)
	require.Len(t, s.Solutions, 1)
	x := s.Solutions[0]["x"]
	v, ok := symbolic.EvalFloat(x, map[string]float64{"y": 0.5})
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-12)
}

func TestSolveSystemNumericFallback(t *testing.T) {
	s, err := newAdapter().SolveSystem(context.Background(), trees(t, `x = \cos y`, `y = \sin x`))
	require.NoError(t, err)
	require.NotEmpty(t, s.Numeric)
	for _, sol := range s.Numeric {
		assert.InDelta(t, math.Cos(sol["y"]), sol["x"], 1e-8)
		assert.InDelta(t, math.Sin(sol["x"]), sol["y"], 1e-8)
	}
}

func TestSolveSystemNeedsUnknowns(t *testing.T) {
	_, err := newAdapter().SolveSystem(context.Background(), trees(t, "1 = 1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrValidation))
}

// ============================================================
// Guard
// ============================================================

func TestGuardTimesOut(t *testing.T) {
	a := newAdapter(func(c *Config) { c.Timeout = 20 * time.Millisecond })
	_, err := guard(context.Background(), a, "slow", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrTimeout))
	assert.Contains(t, err.Error(), "did not finish within 20ms")
}

func TestGuardHonorsCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newAdapter().Evaluate(ctx, tree(t, "1+1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGuardRecoversPanics(t *testing.T) {
	_, err := guard(context.Background(), newAdapter(), "boom", func(context.Context) (int, error) {
		panic("division by zero")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrValidation))
	assert.Contains(t, err.Error(), "division by zero")
}

func TestGuardPassesResults(t *testing.T) {
	v, err := guard(context.Background(), newAdapter(), "ok", func(context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}
