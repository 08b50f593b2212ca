package normalize

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/latex"
)

func mustNormalize(t *testing.T, input string, policy Policy) latex.Node {
	t.Helper()
	tree, err := latex.Parse(input)
	require.NoError(t, err)
	out, err := Normalize(tree, policy)
	require.NoError(t, err)
	return out
}

func TestNormalizeRewrites(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2xy", "((2 * x) * y)"},
		{`\frac{a}{b} c`, "((a / b) * c)"},
		{`\log_{2}(8)`, "(ln(8) / ln(2))"},
		{`\log x`, "ln(x)"},
		{`\sqrt{x}`, "(x ^ (1 / 2))"},
		{`\sqrt[3]{x}`, "(x ^ (1 / 3))"},
		{`\sin 2x`, "sin((2 * x))"},
		{`x = 2y`, "x = (2 * y)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, mustNormalize(t, tt.input, Permissive).String())
		})
	}
}

func TestNormalizeRemovesJuxtaposition(t *testing.T) {
	out := mustNormalize(t, `2x \sin(3y) + \int 2t dt`, Permissive)
	latex.Walk(out, func(n latex.Node) bool {
		_, isJux := n.(*latex.Juxtaposition)
		assert.False(t, isJux, "juxtaposition left in %s", out)
		return true
	})
}

func TestNormalizeBindsIntegralVariable(t *testing.T) {
	out := mustNormalize(t, `\int y^2 + z`, Permissive)
	in, ok := out.(*latex.Integral)
	require.True(t, ok)
	assert.Equal(t, "y", in.Var)

	out = mustNormalize(t, `\int 5`, Permissive)
	assert.Equal(t, DefaultVariable, out.(*latex.Integral).Var)
}

func TestNormalizeKeepsInputUntouched(t *testing.T) {
	tree := latex.MustParse("2x")
	before := tree.String()
	_, err := Normalize(tree, Permissive)
	require.NoError(t, err)
	if diff := cmp.Diff(before, tree.String()); diff != "" {
		t.Errorf("input tree changed (-before +after):\n%s", diff)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		tree   latex.Node
		policy Policy
		msg    string
	}{
		{
			"sin arity",
			latex.MustParse(`\operatorname{sin}(x, y)`),
			Permissive, "sin takes exactly 1 argument, got 2",
		},
		{
			"log arity",
			&latex.Function{Name: "log", Args: []latex.Node{&latex.Symbol{Name: "x"}, &latex.Number{Text: "2"}, &latex.Number{Text: "3"}}},
			Permissive, "log takes 1 to 2 arguments",
		},
		{
			"missing operand",
			&latex.BinaryOp{Op: "+", Left: &latex.Number{Text: "1"}},
			Permissive, "needs two operands",
		},
		{
			"unknown function",
			&latex.Function{Name: "gamma", Args: []latex.Node{&latex.Symbol{Name: "x"}}},
			Permissive, "unknown function gamma",
		},
		{
			"half bounded integral",
			&latex.Integral{Body: &latex.Symbol{Name: "x"}, Var: "x", Lower: &latex.Number{Text: "0"}},
			Permissive, "needs both bounds",
		},
		{
			"limit point uses variable",
			latex.MustParse(`\lim_{x \to 2x} x`),
			Permissive, "cannot depend on x",
		},
		{
			"derivative order",
			&latex.Derivative{Body: &latex.Symbol{Name: "x"}, Var: "x", Order: 11},
			Permissive, "derivative order",
		},
		{
			"strict floor",
			latex.MustParse(`\lfloor x \rfloor`),
			Strict, "floor needs a numeric argument, found x",
		},
		{
			"strict factorial",
			latex.MustParse(`n!`),
			Strict, "factorial needs a numeric argument",
		},
		{
			"nested equation",
			&latex.BinaryOp{Op: "+", Left: &latex.Equation{LHS: &latex.Number{Text: "1"}, RHS: &latex.Number{Text: "1"}}, Right: &latex.Number{Text: "1"}},
			Permissive, "cannot be nested",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.tree, tt.policy)
			require.Error(t, err)
			assert.True(t, errors.Is(err, calcerr.ErrValidation))
			assert.Equal(t, calcerr.StageNormalize, calcerr.StageOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestStrictAllowsNumbers(t *testing.T) {
	out := mustNormalize(t, `\lfloor 2.5 \rfloor + 3!`, Strict)
	assert.Equal(t, "(floor(2.5) + (3!))", out.String())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Strict")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Permissive, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}
