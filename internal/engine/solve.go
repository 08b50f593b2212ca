package engine

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/latex"
	"github.com/njchilds90/latexcalc/symbolic"
)

// ============================================================
// Solution sets
// ============================================================

// SolutionSet holds every solution found for a set of unknowns. Solutions
// are exact; Numeric lists float approximations of all solutions when any of
// them is irrational or was only found numerically. An empty Solutions with
// an empty Numeric means no real solution was found.
type SolutionSet struct {
	Vars      []string
	Solutions []map[string]symbolic.Expr
	Numeric   []map[string]float64
	// Free lists the unknowns that parameterize an infinite family.
	Free []string
	// Identity is set when every value of the unknowns is a solution.
	Identity bool
}

// Empty reports whether nothing was found.
func (s SolutionSet) Empty() bool { return len(s.Solutions) == 0 && len(s.Numeric) == 0 }

// ============================================================
// Single equations
// ============================================================

// Solve solves node for variable. An expression without "=" is read as
// expr = 0. Without a named variable the lexically-first free symbol is the
// unknown.
func (a *Adapter) Solve(ctx context.Context, node latex.Node, variable string) (SolutionSet, error) {
	return guard(ctx, a, "solve", func(ctx context.Context) (SolutionSet, error) {
		eq, err := a.BuildEquation(ctx, node)
		if err != nil {
			return SolutionSet{}, err
		}
		// symbols that cancel from the residual are still unknowns
		syms := equationSymbols(eq)
		res := eq.Residual()
		b, err := bindSymbols(syms, variable, RoleUnknown, a.cfg.StrictVariables, "x")
		if err != nil {
			return SolutionSet{}, err
		}
		set, err := a.solve(ctx, res, b)
		if err != nil {
			return SolutionSet{}, err
		}
		if variable == "" && len(syms) == 0 {
			set = set.withoutUnknown()
		}
		return set, nil
	})
}

func equationSymbols(eq *symbolic.Equation) []string {
	seen := map[string]struct{}{}
	for _, side := range []symbolic.Expr{eq.LHS, eq.RHS} {
		for name := range symbolic.FreeSymbols(side) {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// withoutUnknown drops the placeholder unknown bound to an equation with no
// symbols. Such an equation is either an identity or has no solution.
func (s SolutionSet) withoutUnknown() SolutionSet {
	return SolutionSet{Solutions: []map[string]symbolic.Expr{}, Identity: s.Identity}
}

func (a *Adapter) solve(ctx context.Context, res symbolic.Expr, b Binding) (SolutionSet, error) {
	v := b.Bound()
	out := SolutionSet{Vars: []string{v}, Solutions: []map[string]symbolic.Expr{}}
	sr := symbolic.Solve(res, v)

	if sr.Identity {
		out.Identity = true
		out.Free = []string{v}
		out.Solutions = append(out.Solutions, map[string]symbolic.Expr{v: symbolic.S(v)})
		return out, nil
	}
	if sr.Error != "" {
		return a.solveNumerically(ctx, res, v, sr.Error)
	}

	numeric := false
	var approx []float64
	for _, s := range sr.Solutions {
		s = tidy(s)
		out.Solutions = append(out.Solutions, map[string]symbolic.Expr{v: s})
		f, ok := symbolic.EvalFloat(s, nil)
		if !ok {
			continue
		}
		approx = append(approx, f)
		if _, exact := s.(*symbolic.Num); !exact {
			numeric = true
		}
	}
	if sr.Residual.Degree() >= 1 {
		roots, err := polyRealRoots(sr.Residual, a.cfg.Tolerance)
		if err != nil {
			a.log.Debug("companion matrix roots failed", zap.Error(err))
		}
		if len(roots) > 0 {
			a.log.Debug("polynomial roots from eigenvalues",
				zap.String("poly", sr.Residual.Expr(v).String()), zap.Float64s("roots", roots))
			approx = append(approx, roots...)
			numeric = true
		}
	}
	if numeric {
		for _, f := range dedupe(approx) {
			out.Numeric = append(out.Numeric, map[string]float64{v: f})
		}
	}
	return out, nil
}

// solveNumerically scans [-NumericRange, NumericRange] for roots when the
// kernel found no closed form.
func (a *Adapter) solveNumerically(ctx context.Context, res symbolic.Expr, v string, reason string) (SolutionSet, error) {
	noClosedForm := calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine, "%s", reason)
	if !a.cfg.NumericSolve {
		return SolutionSet{}, noClosedForm
	}
	for name := range symbolic.FreeSymbols(res) {
		if name != v {
			noClosedForm.Msg += "; numeric solving needs every other symbol to have a value"
			return SolutionSet{}, noClosedForm
		}
	}
	a.log.Debug("numeric root scan", zap.String("residual", res.String()), zap.Float64("range", a.cfg.NumericRange))
	f := symbolic.Lambdify(res, v)
	df := symbolic.Lambdify(symbolic.Diff(res, v), v)
	roots, err := scanRoots(ctx, f, df, -a.cfg.NumericRange, a.cfg.NumericRange, a.cfg.Tolerance, a.cfg.MaxIterations)
	if err != nil {
		return SolutionSet{}, err
	}
	out := SolutionSet{Vars: []string{v}, Solutions: []map[string]symbolic.Expr{}}
	for _, r := range roots {
		out.Numeric = append(out.Numeric, map[string]float64{v: r})
	}
	return out, nil
}

// ============================================================
// Systems
// ============================================================

// SolveSystem solves the equations simultaneously. The unknowns are all free
// symbols, sorted.
func (a *Adapter) SolveSystem(ctx context.Context, nodes []latex.Node) (SolutionSet, error) {
	return guard(ctx, a, "solve_system", func(ctx context.Context) (SolutionSet, error) {
		if len(nodes) == 0 {
			return SolutionSet{}, invalid("a system needs at least one equation")
		}
		residuals := make([]symbolic.Expr, len(nodes))
		seen := map[string]struct{}{}
		for i, n := range nodes {
			eq, err := a.BuildEquation(ctx, n)
			if err != nil {
				return SolutionSet{}, err
			}
			residuals[i] = eq.Residual()
			for s := range symbolic.FreeSymbols(residuals[i]) {
				seen[s] = struct{}{}
			}
		}
		vars := make([]string, 0, len(seen))
		for s := range seen {
			vars = append(vars, s)
		}
		sort.Strings(vars)
		if len(vars) == 0 {
			return SolutionSet{}, invalid("the system has no unknowns")
		}
		return a.solveSystem(ctx, residuals, vars)
	})
}

func (a *Adapter) solveSystem(ctx context.Context, residuals []symbolic.Expr, vars []string) (SolutionSet, error) {
	sr := symbolic.SolveSystem(residuals, vars)
	switch {
	case sr.Inconsistent:
		return SolutionSet{}, calcerr.New(calcerr.KindInconsistentSystem, calcerr.StageEngine,
			"the equations have no common solution")
	case sr.Underdetermined && len(sr.Solutions) == 0:
		return SolutionSet{}, calcerr.New(calcerr.KindUnderdeterminedSystem, calcerr.StageEngine,
			"the system has infinitely many solutions in %d unknowns", len(vars))
	case sr.Error != "":
		return a.solveSystemNumerically(ctx, residuals, vars, sr.Error)
	}

	out := SolutionSet{Vars: vars, Free: sr.Free, Solutions: []map[string]symbolic.Expr{}}
	numeric := false
	var approx []map[string]float64
	for _, sol := range sr.Solutions {
		tidied := make(map[string]symbolic.Expr, len(sol))
		point := make(map[string]float64, len(sol))
		for name, val := range sol {
			val = tidy(val)
			tidied[name] = val
			if f, ok := symbolic.EvalFloat(val, nil); ok {
				point[name] = cleanZero(f)
				if _, exact := val.(*symbolic.Num); !exact {
					numeric = true
				}
			}
		}
		out.Solutions = append(out.Solutions, tidied)
		if len(point) == len(vars) {
			approx = append(approx, point)
		}
	}
	if numeric && len(out.Free) == 0 {
		out.Numeric = approx
	}
	return out, nil
}

func (a *Adapter) solveSystemNumerically(ctx context.Context, residuals []symbolic.Expr, vars []string, reason string) (SolutionSet, error) {
	noClosedForm := calcerr.New(calcerr.KindNoClosedForm, calcerr.StageEngine, "%s", reason)
	if !a.cfg.NumericSolve || len(residuals) < len(vars) {
		return SolutionSet{}, noClosedForm
	}
	a.log.Debug("numeric system solve", zap.Int("equations", len(residuals)), zap.Strings("vars", vars))
	sols, err := newtonSystem(ctx, residuals, vars, math.Max(a.cfg.Tolerance, 1e-12), a.cfg.MaxIterations)
	if err != nil {
		return SolutionSet{}, err
	}
	if len(sols) == 0 {
		return SolutionSet{}, noClosedForm
	}
	return SolutionSet{Vars: vars, Solutions: []map[string]symbolic.Expr{}, Numeric: sols}, nil
}
