// Package latexcalc evaluates LaTeX math. A string goes through the LaTeX
// parser, the normalizer, the symbolic engine and the renderer, and comes
// back as a display string plus LaTeX.
//
// Operations:
//   - Calculate: simplify or evaluate an expression
//   - SolveEquation, SolveEquationFor: real solutions of one equation
//   - SolveSystem: simultaneous solutions of several equations
//   - CalculateDerivative, CalculateIntegral, CalculateLimit: calculus
//
// Every failure is a *Error carrying a Kind and the Stage it came from.
package latexcalc

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/internal/engine"
	"github.com/njchilds90/latexcalc/internal/normalize"
	"github.com/njchilds90/latexcalc/internal/render"
	"github.com/njchilds90/latexcalc/latex"
	"github.com/njchilds90/latexcalc/symbolic"
)

// Tool names, as used by Execute, the HTTP server and the MCP server.
const (
	OpCalculate     = "calculate"
	OpSolveEquation = "solve_equation"
	OpSolveSystem   = "solve_system"
	OpDerivative    = "calculate_derivative"
	OpIntegral      = "calculate_integral"
	OpLimit         = "calculate_limit"
)

// Calculator is safe for concurrent use. Its configuration is fixed at New.
type Calculator struct {
	cfg    Config
	policy normalize.Policy
	engine *engine.Adapter
	render render.Options
	log    *zap.Logger
	obs    Observer
}

// New builds a calculator. Invalid settings fall back to the defaults for
// the offending field and are logged.
func New(opts ...Option) *Calculator {
	c := &Calculator{cfg: DefaultConfig(), log: zap.NewNop(), obs: nopObserver{}}
	for _, o := range opts {
		o(c)
	}
	def := DefaultConfig()
	if c.cfg.Precision < 1 || c.cfg.Precision > 17 {
		c.log.Warn("precision out of range, using default", zap.Int("precision", c.cfg.Precision))
		c.cfg.Precision = def.Precision
	}
	policy, err := normalize.ParsePolicy(c.cfg.DomainPolicy)
	if err != nil {
		c.log.Warn("unknown domain policy, using permissive", zap.Error(err))
	}
	ec := c.cfg.engineConfig()
	if err := ec.Validate(); err != nil {
		c.log.Warn("invalid engine settings, using defaults", zap.Error(err))
		ec = def.engineConfig()
		ec.Timeout = c.cfg.Timeout
		ec.AllowNumericIntegration = c.cfg.AllowNumericIntegration
		ec.StrictVariables = c.cfg.StrictVariables
		if ec.Timeout < 0 {
			ec.Timeout = def.Timeout
		}
	}
	c.policy = policy
	c.engine = engine.New(ec, c.log)
	c.render = render.Options{Digits: c.cfg.Precision}
	return c
}

// Config returns the settings in effect.
func (c *Calculator) Config() Config { return c.cfg }

// ============================================================
// Results
// ============================================================

// CalculationResult is returned by Calculate. Numeric approximates an
// irrational exact result.
type CalculationResult struct {
	Result      string   `json:"result"`
	LaTeXResult *string  `json:"latex_result,omitempty"`
	Numeric     *float64 `json:"numeric,omitempty"`
}

// SolutionResult is returned by the solvers. Solutions holds the exact
// solutions ("[]" when there is no real solution) and is omitted when only
// numeric roots were found. Parameters lists the free unknowns of an
// infinite family.
type SolutionResult struct {
	Solutions        string   `json:"solutions,omitempty"`
	LaTeXResult      *string  `json:"latex_result,omitempty"`
	NumericSolutions string   `json:"numeric_solutions,omitempty"`
	Variables        []string `json:"variables,omitempty"`
	Parameters       []string `json:"parameters,omitempty"`
}

// DerivativeResult is returned by CalculateDerivative.
type DerivativeResult struct {
	Derivative  string `json:"derivative"`
	LaTeXResult string `json:"latex_result"`
	Variable    string `json:"variable,omitempty"`
}

// IntegralResult is returned by CalculateIntegral. An indefinite result
// includes its constant, as in "x^2 + C".
type IntegralResult struct {
	Result      string   `json:"result"`
	LaTeXResult string   `json:"latex_result"`
	Variable    string   `json:"variable,omitempty"`
	Numeric     *float64 `json:"numeric,omitempty"`
}

// LimitResult is returned by CalculateLimit. Approximate is set when the
// value was estimated numerically.
type LimitResult struct {
	Limit       string   `json:"limit"`
	LaTeXResult string   `json:"latex_result"`
	Numeric     *float64 `json:"numeric,omitempty"`
	Approximate bool     `json:"approximate,omitempty"`
}

// Result is one of the result types above.
type Result interface{ isResult() }

func (CalculationResult) isResult() {}
func (SolutionResult) isResult()    {}
func (DerivativeResult) isResult()  {}
func (IntegralResult) isResult()    {}
func (LimitResult) isResult()       {}

// ============================================================
// Operations
// ============================================================

// Calculate simplifies expr. A symbol-free equation evaluates to True or
// False; 1/0 evaluates to zoo.
func (c *Calculator) Calculate(ctx context.Context, expr string) (res CalculationResult, err error) {
	defer c.finish(OpCalculate, expr, time.Now(), &err)
	node, err := c.prepare(expr)
	if err != nil {
		return res, err
	}
	v, err := c.engine.Evaluate(ctx, node)
	if err != nil {
		return res, err
	}
	r := render.Value(v, c.render)
	return CalculationResult{Result: r.Display, LaTeXResult: r.LaTeX, Numeric: c.round(v.Numeric)}, nil
}

// SolveEquation solves expr for its lexically-first free symbol. An
// expression without "=" is solved for expr = 0.
func (c *Calculator) SolveEquation(ctx context.Context, expr string) (SolutionResult, error) {
	return c.SolveEquationFor(ctx, expr, "")
}

// SolveEquationFor solves expr for variable.
func (c *Calculator) SolveEquationFor(ctx context.Context, expr, variable string) (res SolutionResult, err error) {
	defer c.finish(OpSolveEquation, expr, time.Now(), &err)
	node, err := c.prepare(expr)
	if err != nil {
		return res, err
	}
	v, err := variableName(variable)
	if err != nil {
		return res, err
	}
	set, err := c.engine.Solve(ctx, node, v)
	if err != nil {
		return res, err
	}
	return c.solutionResult(set), nil
}

// SolveSystem solves the equations simultaneously for all their symbols.
func (c *Calculator) SolveSystem(ctx context.Context, exprs []string) (res SolutionResult, err error) {
	defer c.finish(OpSolveSystem, strings.Join(exprs, "; "), time.Now(), &err)
	if len(exprs) == 0 {
		return res, calcerr.New(calcerr.KindValidation, calcerr.StageRequest, "solve_system needs at least one equation")
	}
	nodes := make([]latex.Node, len(exprs))
	for i, e := range exprs {
		if nodes[i], err = c.prepare(e); err != nil {
			return res, err
		}
	}
	set, err := c.engine.SolveSystem(ctx, nodes)
	if err != nil {
		return res, err
	}
	return c.solutionResult(set), nil
}

func (c *Calculator) solutionResult(set engine.SolutionSet) SolutionResult {
	r := render.Solutions(set, c.render)
	out := SolutionResult{
		NumericSolutions: render.NumericSolutions(set, c.render),
		Variables:        set.Vars,
		Parameters:       set.Free,
	}
	if len(set.Solutions) > 0 || out.NumericSolutions == "" {
		out.Solutions = r.Display
		out.LaTeXResult = r.LaTeX
	}
	return out
}

// CalculateDerivative differentiates expr. Without a variable the sole free
// symbol is used.
func (c *Calculator) CalculateDerivative(ctx context.Context, expr, variable string) (res DerivativeResult, err error) {
	defer c.finish(OpDerivative, expr, time.Now(), &err)
	node, err := c.prepare(expr)
	if err != nil {
		return res, err
	}
	v, err := variableName(variable)
	if err != nil {
		return res, err
	}
	d, err := c.engine.Differentiate(ctx, node, v)
	if err != nil {
		return res, err
	}
	r := render.Expr(d.Expr, c.render)
	return DerivativeResult{Derivative: r.Display, LaTeXResult: *r.LaTeX, Variable: d.Var}, nil
}

// CalculateIntegral integrates expr. expr may be an integrand or a complete
// \int, with or without bounds.
func (c *Calculator) CalculateIntegral(ctx context.Context, expr, variable string) (res IntegralResult, err error) {
	defer c.finish(OpIntegral, expr, time.Now(), &err)
	node, err := c.prepare(expr)
	if err != nil {
		return res, err
	}
	v, err := variableName(variable)
	if err != nil {
		return res, err
	}
	a, err := c.engine.Integrate(ctx, node, v)
	if err != nil {
		return res, err
	}
	r := render.Antiderivative(a, c.render)
	return IntegralResult{Result: r.Display, LaTeXResult: *r.LaTeX, Variable: a.Var, Numeric: c.round(a.Numeric)}, nil
}

// CalculateLimit takes the limit of expr as variable approaches point.
// point defaults to 0 and accepts LaTeX, "oo" and "-oo". A trailing "+" or
// "-" on point, as in "0+", picks a one-sided limit.
func (c *Calculator) CalculateLimit(ctx context.Context, expr, variable, point string) (res LimitResult, err error) {
	defer c.finish(OpLimit, expr, time.Now(), &err)
	node, err := c.prepare(expr)
	if err != nil {
		return res, err
	}
	v, err := variableName(variable)
	if err != nil {
		return res, err
	}
	p, dir, err := c.limitPoint(point)
	if err != nil {
		return res, err
	}
	l, err := c.engine.Limit(ctx, node, v, p, dir)
	if err != nil {
		return res, err
	}
	r := render.Expr(l.Expr, c.render)
	return LimitResult{Limit: r.Display, LaTeXResult: *r.LaTeX, Numeric: c.round(l.Numeric), Approximate: l.Approximate}, nil
}

// Parse parses and normalizes expr and returns it as an unsimplified
// symbolic expression. Calculus nodes are evaluated.
func (c *Calculator) Parse(ctx context.Context, expr string) (e symbolic.Expr, err error) {
	defer c.finish("parse", expr, time.Now(), &err)
	node, err := c.prepare(expr)
	if err != nil {
		return nil, err
	}
	return c.engine.Build(ctx, node)
}

// ============================================================
// Pipeline helpers
// ============================================================

func (c *Calculator) prepare(expr string) (latex.Node, error) {
	tree, err := latex.Parse(expr)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(tree, c.policy)
}

func (c *Calculator) round(f *float64) *float64 {
	if f == nil {
		return nil
	}
	r := render.Round(*f, c.render)
	return &r
}

// finish tags *errp with op, logs the call and reports it to the observer.
func (c *Calculator) finish(op, input string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	if *errp != nil {
		*errp = calcerr.WithOp(*errp, op)
		c.log.Debug("calculation failed",
			zap.String("op", op),
			zap.String("input", input),
			zap.Duration("elapsed", elapsed),
			zap.Stringer("kind", calcerr.KindOf(*errp)),
			zap.Error(*errp))
	} else {
		c.log.Debug("calculation done", zap.String("op", op), zap.String("input", input), zap.Duration("elapsed", elapsed))
	}
	c.obs.Observe(op, elapsed, *errp)
}

// variableName accepts "x", `\theta` or "x_{1}" and returns the symbol name.
func variableName(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	tree, err := latex.Parse(v)
	if err == nil {
		if s, ok := tree.(*latex.Symbol); ok {
			return s.Name, nil
		}
	}
	return "", calcerr.New(calcerr.KindValidation, calcerr.StageNormalize, "%q is not a variable", v)
}

var infinityWords = map[string]bool{"oo": true, "inf": true, "infty": true, "infinity": true}

// limitPoint parses the point of a limit and an optional side suffix.
func (c *Calculator) limitPoint(point string) (latex.Node, symbolic.Direction, error) {
	p := strings.TrimSpace(point)
	dir := symbolic.Bidirectional
	if len(p) > 1 && !strings.HasSuffix(p, `\right)`) {
		switch {
		case strings.HasSuffix(p, "^+") || strings.HasSuffix(p, "^-"):
			dir = sideOf(p[len(p)-1])
			p = strings.TrimSpace(p[:len(p)-2])
		case strings.HasSuffix(p, "+") || strings.HasSuffix(p, "-"):
			dir = sideOf(p[len(p)-1])
			p = strings.TrimSpace(p[:len(p)-1])
		}
	}
	if p == "" {
		if dir != symbolic.Bidirectional {
			return nil, dir, calcerr.New(calcerr.KindValidation, calcerr.StageNormalize, "limit point %q has a side but no value", point)
		}
		return nil, dir, nil
	}
	inf := &latex.Constant{Name: "infty"}
	switch {
	case infinityWords[strings.ToLower(strings.TrimPrefix(p, "+"))]:
		return inf, dir, nil
	case strings.HasPrefix(p, "-") && infinityWords[strings.ToLower(p[1:])]:
		return &latex.UnaryOp{Op: "-", Operand: inf}, dir, nil
	}
	node, err := c.prepare(p)
	if err != nil {
		return nil, dir, err
	}
	return node, dir, nil
}

func sideOf(c byte) symbolic.Direction {
	if c == '+' {
		return symbolic.FromAbove
	}
	return symbolic.FromBelow
}
