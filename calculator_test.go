package latexcalc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

// ============================================================
// Scenarios
// ============================================================

func TestCalculate(t *testing.T) {
	c := New()
	res, err := c.Calculate(context.Background(), "2+2")
	require.NoError(t, err)
	if diff := cmp.Diff(CalculationResult{Result: "4", LaTeXResult: ptr("4")}, res); diff != "" {
		t.Errorf("Calculate(2+2) mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateDivisionByZero(t *testing.T) {
	res, err := New().Calculate(context.Background(), `\frac{1}{0}`)
	require.NoError(t, err)
	assert.Equal(t, "zoo", res.Result)
	assert.NotEqual(t, "0", res.Result)
}

func TestCalculateEquation(t *testing.T) {
	res, err := New().Calculate(context.Background(), "1 + 1 = 2")
	require.NoError(t, err)
	assert.Equal(t, "True", res.Result)
	assert.Nil(t, res.LaTeXResult)
}

func TestCalculateNumericCompanion(t *testing.T) {
	res, err := New(WithPrecision(6)).Calculate(context.Background(), `\sqrt{2}`)
	require.NoError(t, err)
	assert.Equal(t, "sqrt(2)", res.Result)
	require.NotNil(t, res.Numeric)
	assert.Equal(t, 1.41421, *res.Numeric)
}

func TestCalculateDerivative(t *testing.T) {
	res, err := New().CalculateDerivative(context.Background(), "x^2", "")
	require.NoError(t, err)
	assert.Equal(t, DerivativeResult{Derivative: "2*x", LaTeXResult: "2x", Variable: "x"}, res)
}

func TestCalculateIntegral(t *testing.T) {
	res, err := New().CalculateIntegral(context.Background(), "2*x", "x")
	require.NoError(t, err)
	assert.Equal(t, "x^2 + C", res.Result)
	assert.Equal(t, "x^{2} + C", res.LaTeXResult)
	assert.Nil(t, res.Numeric)

	res, err = New().CalculateIntegral(context.Background(), `\int_0^1 2x \, dx`, "")
	require.NoError(t, err)
	assert.Equal(t, "1", res.Result)
}

func TestDivergentIntegralIsAnError(t *testing.T) {
	c := New()
	for _, input := range []string{
		`\int_{-1}^{1} \frac{1}{x^2} dx`,
		`\int_{-1}^{1} \frac{1}{x} dx`,
		`\int_{0}^{\pi} \tan x dx`,
	} {
		_, err := c.CalculateIntegral(context.Background(), input, "")
		assert.True(t, errors.Is(err, ErrNoClosedForm), "%s: %v", input, err)

		_, err = c.Calculate(context.Background(), input)
		assert.True(t, errors.Is(err, ErrNoClosedForm), "%s: %v", input, err)
	}
}

func TestDerivativeOfFactorialIsAnError(t *testing.T) {
	res, err := New().CalculateDerivative(context.Background(), "x!", "")
	require.Error(t, err, "got %q", res.Derivative)
	assert.True(t, errors.Is(err, ErrNoClosedForm))
	assert.Equal(t, StageEngine, StageOf(err))
}

func TestCalculateLimit(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		variable string
		point    string
		want     string
	}{
		{"sinc", `\frac{\sin{x}}{x}`, "x", "0", "1"},
		{"default point", "x + 3", "", "", "3"},
		{"infinity word", `\frac{x}{x + 1}`, "x", "oo", "1"},
		{"infty macro", `\frac{x}{x + 1}`, "x", `\infty`, "1"},
		{"negative infinity", `e^{x}`, "x", "-oo", "0"},
		{"from above", `\frac{1}{x}`, "x", "0+", "oo"},
		{"from below", `\frac{1}{x}`, "x", "0^-", "-oo"},
		{"latex point", `x^2`, `x`, `\frac{1}{2}`, "1/4"},
	}
	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.CalculateLimit(context.Background(), tt.expr, tt.variable, tt.point)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Limit)
		})
	}
}

func TestCalculateLimitDoesNotExist(t *testing.T) {
	_, err := New().CalculateLimit(context.Background(), `\frac{1}{x}`, "x", "0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDoesNotExist))
}

func TestCalculateLimitOscillating(t *testing.T) {
	c := New()
	for _, point := range []string{"0", "0+", "0-"} {
		res, err := c.CalculateLimit(context.Background(), `\sin(\frac{1}{x})`, "x", point)
		require.Error(t, err, "at %s got %q", point, res.Limit)
		assert.True(t, errors.Is(err, ErrNoClosedForm) || errors.Is(err, ErrDoesNotExist), "%s: %v", point, err)
	}
}

func TestSolveEquation(t *testing.T) {
	res, err := New().SolveEquation(context.Background(), "x^2 - 4 = 0")
	require.NoError(t, err)
	assert.Equal(t, "[-2, 2]", res.Solutions)
	assert.Empty(t, res.NumericSolutions)
	assert.Equal(t, []string{"x"}, res.Variables)
}

func TestSolveEquationNumericOnly(t *testing.T) {
	res, err := New().SolveEquation(context.Background(), "x^3 - 2x - 5 = 0")
	require.NoError(t, err)
	assert.Empty(t, res.Solutions)
	assert.Nil(t, res.LaTeXResult)
	assert.Equal(t, "[2.09455148154233]", res.NumericSolutions)
}

func TestSolveEquationWithoutSymbols(t *testing.T) {
	c := New()
	res, err := c.SolveEquation(context.Background(), "1 = 2")
	require.NoError(t, err)
	assert.Equal(t, SolutionResult{Solutions: "[]", LaTeXResult: ptr(`\left[\right]`)}, res)

	res, err = c.SolveEquation(context.Background(), "2 = 2")
	require.NoError(t, err)
	assert.Equal(t, "True", res.Solutions)
	assert.Nil(t, res.LaTeXResult)
	assert.Empty(t, res.Variables)
}

func TestSolveEquationFor(t *testing.T) {
	res, err := New().SolveEquationFor(context.Background(), "a x - 2 = 0", "x")
	require.NoError(t, err)
	assert.Equal(t, "[2/a]", res.Solutions)

	res, err = New().SolveEquationFor(context.Background(), `\theta^2 = 9`, `\theta`)
	require.NoError(t, err)
	assert.Equal(t, "[-3, 3]", res.Solutions)
}

func TestSolveEquationNoRealSolution(t *testing.T) {
	res, err := New().SolveEquation(context.Background(), "x^2 + 1 = 0")
	require.NoError(t, err)
	assert.Equal(t, "[]", res.Solutions)
}

func TestSolveSystem(t *testing.T) {
	res, err := New().SolveSystem(context.Background(), []string{"x + y = 2", "x - y = 0"})
	require.NoError(t, err)
	assert.Equal(t, "[{x: 1, y: 1}]", res.Solutions)
	assert.Equal(t, []string{"x", "y"}, res.Variables)
	assert.Empty(t, res.Parameters)
}

func TestSolveSystemFamilyReportsParameters(t *testing.T) {
	res, err := New().SolveSystem(context.Background(), []string{"x + y = 2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, res.Parameters)
	assert.Contains(t, res.Solutions, "where y is free")
}

func TestSolveSystemErrors(t *testing.T) {
	c := New()
	_, err := c.SolveSystem(context.Background(), []string{"x + y = 1", "x + y = 2"})
	assert.True(t, errors.Is(err, ErrInconsistentSystem))

	_, err = c.SolveSystem(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, StageRequest, StageOf(err))
}

// ============================================================
// Errors
// ============================================================

func TestEmptyInputIsParseError(t *testing.T) {
	_, err := New().Calculate(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageParse, ce.Stage)
	assert.Equal(t, OpCalculate, ce.Op)
}

func TestAmbiguousDerivative(t *testing.T) {
	_, err := New().CalculateDerivative(context.Background(), "x y", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousVariable))
	assert.Equal(t, OpDerivative, err.(*Error).Op)
}

func TestBadVariable(t *testing.T) {
	_, err := New().CalculateDerivative(context.Background(), "x^2", "x + 1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().SolveEquation(ctx, `\cos x = x`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

// ============================================================
// Properties
// ============================================================

var corpus = []string{
	"x^2 + 1",
	`\frac{x}{2}`,
	`\sqrt{x}`,
	`\sin x + \cos x`,
	`e^{x}`,
	`\ln x`,
	`\left|x\right|`,
	`\frac{1}{3}`,
	`2\pi`,
	`x y^2`,
	`x^{-1}`,
	`\tan(2x)`,
	`\frac{x + 1}{x - 1}`,
	`3!`,
}

func TestLaTeXRoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()
	for _, in := range corpus {
		t.Run(in, func(t *testing.T) {
			first, err := c.prepare(in)
			require.NoError(t, err)
			e1, err := c.engine.Build(ctx, first)
			require.NoError(t, err)

			second, err := c.prepare(e1.LaTeX())
			require.NoError(t, err, "re-parsing %q", e1.LaTeX())
			e2, err := c.engine.Build(ctx, second)
			require.NoError(t, err)
			assert.Equal(t, e1.String(), e2.String())
		})
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	c := New()
	for _, in := range corpus {
		t.Run(in, func(t *testing.T) {
			once, err := c.Calculate(context.Background(), in)
			require.NoError(t, err)
			require.NotNil(t, once.LaTeXResult)
			twice, err := c.Calculate(context.Background(), *once.LaTeXResult)
			require.NoError(t, err)
			assert.Equal(t, once.Result, twice.Result)
		})
	}
}

func TestDerivativeIsLinear(t *testing.T) {
	c := New()
	ctx := context.Background()
	sum, err := c.CalculateDerivative(ctx, `3x^2 + 5\sin x`, "x")
	require.NoError(t, err)
	f, err := c.CalculateDerivative(ctx, "x^2", "x")
	require.NoError(t, err)
	g, err := c.CalculateDerivative(ctx, `\sin x`, "x")
	require.NoError(t, err)

	combined, err := c.Calculate(ctx, "3 ("+f.LaTeXResult+") + 5 ("+g.LaTeXResult+")")
	require.NoError(t, err)
	direct, err := c.Calculate(ctx, sum.LaTeXResult)
	require.NoError(t, err)
	assert.Equal(t, direct.Result, combined.Result)
}

// ============================================================
// Configuration
// ============================================================

type recorder struct {
	mu   sync.Mutex
	ops  []string
	errs int
}

func (r *recorder) Observe(op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	if err != nil {
		r.errs++
	}
}

func TestObserverSeesEveryCall(t *testing.T) {
	rec := &recorder{}
	c := New(WithObserver(rec))
	_, _ = c.Calculate(context.Background(), "1+1")
	_, _ = c.CalculateIntegral(context.Background(), "", "")
	assert.Equal(t, []string{OpCalculate, OpIntegral}, rec.ops)
	assert.Equal(t, 1, rec.errs)
}

func TestInvalidConfigFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Precision = 99
	cfg.DomainPolicy = "lenient"
	cfg.MaxIterations = -1
	require.Error(t, cfg.Validate())

	c := New(WithConfig(cfg))
	assert.Equal(t, DefaultConfig().Precision, c.Config().Precision)
	res, err := c.Calculate(context.Background(), "2+2")
	require.NoError(t, err)
	assert.Equal(t, "4", res.Result)
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConcurrentUse(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.CalculateDerivative(context.Background(), "x^3", "")
			assert.NoError(t, err)
			assert.Equal(t, "3*x^2", res.Derivative)
		}()
	}
	wg.Wait()
}
