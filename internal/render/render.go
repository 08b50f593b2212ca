// Package render turns engine results into the display strings and LaTeX
// returned to callers.
package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/njchilds90/latexcalc/internal/engine"
	"github.com/njchilds90/latexcalc/symbolic"
)

// DefaultDigits matches float64's reliable precision.
const DefaultDigits = 15

// Options control formatting.
type Options struct {
	// Digits is the number of significant digits for approximate values.
	Digits int
}

// DefaultOptions returns Options{Digits: DefaultDigits}.
func DefaultOptions() Options { return Options{Digits: DefaultDigits} }

func (o Options) digits() int {
	if o.Digits <= 0 || o.Digits > 17 {
		return DefaultDigits
	}
	return o.Digits
}

// Rendered is a display string plus LaTeX. LaTeX is nil for values that
// have no LaTeX form, such as booleans.
type Rendered struct {
	Display string
	LaTeX   *string
}

func withLaTeX(display, tex string) Rendered { return Rendered{Display: display, LaTeX: &tex} }

// ============================================================
// Scalars
// ============================================================

// Expr renders an expression. Approximate numbers inside it are rounded to
// opts.Digits significant digits.
func Expr(e symbolic.Expr, opts Options) Rendered {
	e = roundApprox(e, opts.digits())
	return withLaTeX(e.String(), e.LaTeX())
}

// Bool renders a truth value the way the symbolic kernel spells it.
func Bool(b bool) Rendered {
	if b {
		return Rendered{Display: "True"}
	}
	return Rendered{Display: "False"}
}

// Equation renders lhs = rhs.
func Equation(eq *symbolic.Equation, opts Options) Rendered {
	l, r := Expr(eq.LHS, opts), Expr(eq.RHS, opts)
	return withLaTeX(l.Display+" = "+r.Display, *l.LaTeX+" = "+*r.LaTeX)
}

// Value renders whichever field of v is set.
func Value(v engine.Value, opts Options) Rendered {
	switch {
	case v.Bool != nil:
		return Bool(*v.Bool)
	case v.Equation != nil:
		return Equation(v.Equation, opts)
	}
	return Expr(v.Expr, opts)
}

// Float formats f with opts.Digits significant digits, dropping trailing
// zeros.
func Float(f float64, opts Options) string {
	switch {
	case math.IsInf(f, 1):
		return "oo"
	case math.IsInf(f, -1):
		return "-oo"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(roundSig(f, opts.digits()), 'g', -1, 64)
}

// Round rounds f to opts.Digits significant digits.
func Round(f float64, opts Options) float64 { return roundSig(f, opts.digits()) }

func roundSig(f float64, digits int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', digits, 64), 64)
	if err != nil {
		return f
	}
	return r
}

func roundApprox(e symbolic.Expr, digits int) symbolic.Expr {
	if !symbolic.HasApprox(e) {
		return e
	}
	return symbolic.MapNums(e, func(n *symbolic.Num) symbolic.Expr {
		if !n.IsApprox() {
			return n
		}
		return symbolic.NFloat(roundSig(n.Float64(), digits))
	})
}

// ============================================================
// Calculus results
// ============================================================

// Antiderivative renders an indefinite integral with its constant, as in
// "x^2 + C", and a definite one as its value.
func Antiderivative(r engine.Antiderivative, opts Options) Rendered {
	out := Expr(r.Expr, opts)
	if r.Constant == "" {
		return out
	}
	c := symbolic.S(r.Constant)
	return withLaTeX(joinSum(out.Display, c.String()), joinSum(*out.LaTeX, c.LaTeX()))
}

func joinSum(a, b string) string {
	if a == "0" {
		return b
	}
	return a + " + " + b
}

// ============================================================
// Solution sets
// ============================================================

// Solutions renders the exact solutions: "[-2, 2]" for one unknown and
// "[{x: 1, y: 1}]" for several. A family gets a "where y is free" suffix on
// the display string only. LaTeX is nil when there are only numeric
// solutions, and for an identity without unknowns, which renders "True".
func Solutions(s engine.SolutionSet, opts Options) Rendered {
	if s.Identity && len(s.Vars) == 0 {
		return Rendered{Display: "True"}
	}
	if len(s.Solutions) == 0 && len(s.Numeric) > 0 {
		return Rendered{Display: "[]"}
	}
	display := make([]string, len(s.Solutions))
	tex := make([]string, len(s.Solutions))
	for i, sol := range s.Solutions {
		display[i], tex[i] = solution(s.Vars, sol, opts)
	}
	d := "[" + strings.Join(display, ", ") + "]"
	t := `\left[` + strings.Join(tex, ", ") + `\right]`
	if len(s.Free) > 0 {
		free := strings.Join(s.Free, ", ")
		verb := "is"
		if len(s.Free) > 1 {
			verb = "are"
		}
		d += fmt.Sprintf(" where %s %s free", free, verb)
	}
	return withLaTeX(d, t)
}

func solution(vars []string, sol map[string]symbolic.Expr, opts Options) (string, string) {
	if len(vars) == 1 {
		r := Expr(sol[vars[0]], opts)
		return r.Display, *r.LaTeX
	}
	keys := make([]string, 0, len(sol))
	for k := range sol {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	display := make([]string, len(keys))
	tex := make([]string, len(keys))
	for i, k := range keys {
		r := Expr(sol[k], opts)
		display[i] = k + ": " + r.Display
		tex[i] = symbolic.S(k).LaTeX() + " = " + *r.LaTeX
	}
	return "{" + strings.Join(display, ", ") + "}", `\left\{` + strings.Join(tex, ", ") + `\right\}`
}

// NumericSolutions renders the float solutions in the same shapes as
// Solutions. It returns "" when there are none.
func NumericSolutions(s engine.SolutionSet, opts Options) string {
	if len(s.Numeric) == 0 {
		return ""
	}
	parts := make([]string, len(s.Numeric))
	for i, sol := range s.Numeric {
		if len(s.Vars) == 1 {
			parts[i] = Float(sol[s.Vars[0]], opts)
			continue
		}
		kv := make([]string, 0, len(s.Vars))
		for _, v := range s.Vars {
			if f, ok := sol[v]; ok {
				kv = append(kv, v+": "+Float(f, opts))
			}
		}
		parts[i] = "{" + strings.Join(kv, ", ") + "}"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
