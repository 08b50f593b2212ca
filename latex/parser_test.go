package latex

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/latexcalc/internal/calcerr"
)

func num(s string) Node { return &Number{Text: s} }
func sym(s string) Node { return &Symbol{Name: s} }
func cnst(s string) Node { return &Constant{Name: s} }
func bin(op string, l, r Node) Node {
	return &BinaryOp{Op: op, Left: l, Right: r}
}
func neg(x Node) Node { return &UnaryOp{Op: "-", Operand: x} }
func fn(name string, args ...Node) Node { return &Function{Name: name, Args: args} }
func jux(fs ...Node) Node { return &Juxtaposition{Factors: fs} }

func TestParseTrees(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Node
	}{
		{"sum", "2+2", bin("+", num("2"), num("2"))},
		{"left assoc", "a-b-c", bin("-", bin("-", sym("a"), sym("b")), sym("c"))},
		{"precedence", "1+2*3", bin("+", num("1"), bin("*", num("2"), num("3")))},
		{"power right assoc", "2^{3^{2}}", bin("^", num("2"), bin("^", num("3"), num("2")))},
		{"unary minus below power", "-x^2", neg(bin("^", sym("x"), num("2")))},
		{"juxtaposition", "2x", jux(num("2"), sym("x"))},
		{"juxtaposition chain", "2xy", jux(num("2"), sym("x"), sym("y"))},
		{"single token superscript", "x^23", jux(bin("^", sym("x"), num("2")), num("3"))},
		{"frac", `\frac{1}{2}`, bin("/", num("1"), num("2"))},
		{"frac without braces", `\frac12`, bin("/", num("1"), num("2"))},
		{"frac is atomic", `2\frac{x}{y}^2`, jux(num("2"), bin("^", bin("/", sym("x"), sym("y")), num("2")))},
		{"cdot", `3 \cdot x`, bin("*", num("3"), sym("x"))},
		{"div", `6 \div 2`, bin("/", num("6"), num("2"))},
		{"decimal", "0.25x", jux(num("0.25"), sym("x"))},
		{"sqrt", `\sqrt{x}`, fn("sqrt", sym("x"))},
		{"nth root", `\sqrt[3]{8}`, fn("sqrt", num("8"), num("3"))},
		{"sin braces", `\sin{x}`, fn("sin", sym("x"))},
		{"sin bare", `\sin 2x`, fn("sin", jux(num("2"), sym("x")))},
		{"sin stops at next function", `\sin x \cos x`, jux(fn("sin", sym("x")), fn("cos", sym("x")))},
		{"sin squared", `\sin^2 x`, bin("^", fn("sin", sym("x")), num("2"))},
		{"inverse sin", `\sin^{-1} x`, fn("asin", sym("x"))},
		{"paren power", `\sin(x)^2`, bin("^", fn("sin", sym("x")), num("2"))},
		{"log base", `\log_{2}(8)`, fn("log", num("8"), num("2"))},
		{"ln", `\ln x`, fn("ln", sym("x"))},
		{"abs bars", "|x-1|", fn("abs", bin("-", sym("x"), num("1")))},
		{"nested abs", "||x|-1|", fn("abs", bin("-", fn("abs", sym("x")), num("1")))},
		{"left right", `\left(x+1\right)^2`, bin("^", bin("+", sym("x"), num("1")), num("2"))},
		{"left bars", `\left|x\right|`, fn("abs", sym("x"))},
		{"floor", `\lfloor x \rfloor`, fn("floor", sym("x"))},
		{"ceil", `\left\lceil x \right\rceil`, fn("ceil", sym("x"))},
		{"braces as parens", `\{x\}`, sym("x")},
		{"factorial", "n!", &UnaryOp{Op: "!", Operand: sym("n")}},
		{"factorial binds tighter than power", "2^3!", bin("^", num("2"), &UnaryOp{Op: "!", Operand: num("3")})},
		{"constants", `\pi e`, jux(cnst("pi"), cnst("e"))},
		{"infinity", `-\infty`, neg(cnst("infty"))},
		{"greek", `\alpha + \beta`, bin("+", sym("alpha"), sym("beta"))},
		{"subscript", "x_{12} + x_1", bin("+", sym("x_12"), sym("x_1"))},
		{"operatorname", `\operatorname{sgn}(x)`, fn("sign", sym("x"))},
		{"spacing ignored", `x \, y \quad z`, jux(sym("x"), sym("y"), sym("z"))},
		{"dollar delimiters", "$x+1$", bin("+", sym("x"), num("1"))},
		{"display delimiters", `\[x\]`, sym("x")},
		{"equation", "x^2 - 4 = 0", &Equation{LHS: bin("-", bin("^", sym("x"), num("2")), num("4")), RHS: num("0")}},
		{"two args", `\operatorname{sin}(x, y)`, fn("sin", sym("x"), sym("y"))},
		{"x superscript minus", "x^-1", bin("^", sym("x"), neg(num("1")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseCalculus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Node
	}{
		{
			"indefinite integral",
			`\int x^2 dx`,
			&Integral{Body: bin("^", sym("x"), num("2")), Var: "x"},
		},
		{
			"definite integral",
			`\int_0^1 x \, dx`,
			&Integral{Body: sym("x"), Var: "x", Lower: num("0"), Upper: num("1")},
		},
		{
			"integral body is a sum",
			`\int x + 1 dx`,
			&Integral{Body: bin("+", sym("x"), num("1")), Var: "x"},
		},
		{
			"integral ends at the differential",
			`\int_{0}^{\pi} \sin x dx + 1`,
			bin("+", &Integral{Body: fn("sin", sym("x")), Var: "x", Lower: num("0"), Upper: cnst("pi")}, num("1")),
		},
		{
			"integral of dx",
			`\int dt`,
			&Integral{Body: num("1"), Var: "t"},
		},
		{
			"integral without differential",
			`\int x`,
			&Integral{Body: sym("x")},
		},
		{
			"limit",
			`\lim_{x \to 0} \frac{\sin x}{x}`,
			&Limit{Body: bin("/", fn("sin", sym("x")), sym("x")), Var: "x", Point: num("0")},
		},
		{
			"one sided limit",
			`\lim_{x \to 0^{+}} \frac{1}{x}`,
			&Limit{Body: bin("/", num("1"), sym("x")), Var: "x", Point: num("0"), Dir: "+"},
		},
		{
			"limit from below short form",
			`\lim_{x \to 1^-} x`,
			&Limit{Body: sym("x"), Var: "x", Point: num("1"), Dir: "-"},
		},
		{
			"limit at infinity",
			`\lim_{n \to \infty} \frac{1}{n}`,
			&Limit{Body: bin("/", num("1"), sym("n")), Var: "n", Point: cnst("infty")},
		},
		{
			"derivative",
			`\frac{d}{dx} x^2`,
			&Derivative{Body: bin("^", sym("x"), num("2")), Var: "x", Order: 1},
		},
		{
			"second derivative",
			`\frac{d^2}{dx^2} \sin x`,
			&Derivative{Body: fn("sin", sym("x")), Var: "x", Order: 2},
		},
		{
			"derivative in a theta",
			`\frac{d}{d\theta}\left(\cos\theta\right)`,
			&Derivative{Body: fn("cos", sym("theta")), Var: "theta", Order: 1},
		},
		{
			"d over d is a fraction",
			`\frac{d}{e}`,
			bin("/", sym("d"), cnst("e")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int
		msg    string
	}{
		{"empty", "", 0, "empty input"},
		{"blank", "   ", 0, "empty input"},
		{"only delimiters", "$$", 0, "empty input"},
		{"unclosed brace", `\frac{1}{2`, 8, "unbalanced braces"},
		{"stray brace", "x}", 1, "unbalanced braces"},
		{"unclosed paren", "(x+1", 0, "unbalanced delimiters"},
		{"unknown macro", `2 + \foo`, 4, "unknown macro"},
		{"unexpected token", "2 + * 3", 4, "unexpected token"},
		{"dangling operator", "2 +", 3, "unexpected end of input"},
		{"mismatched delimiters", `\left( x \right]`, 15, "mismatched delimiters"},
		{"unknown operatorname", `\operatorname{gamma}(x)`, 0, "unknown function"},
		{"missing argument", `\sin`, 0, "missing its argument"},
		{"bad character", "x # y", 2, "unexpected character"},
		{"limit without subscript", `\lim x`, 0, "needs a subscript"},
		{"limit without arrow", `\lim_{x = 0} x`, 8, `expected \to`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, calcerr.ErrParse))
			var ce *calcerr.Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, calcerr.StageParse, ce.Stage)
			assert.Equal(t, tt.offset, ce.Offset)
			assert.Contains(t, ce.Msg, tt.msg)
		})
	}
}

func TestParseOffsetsSkipDelimiters(t *testing.T) {
	_, err := Parse(`$2 + \foo$`)
	var ce *calcerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 5, ce.Offset)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("{") })
	assert.NotPanics(t, func() { MustParse("x") })
}

func TestFreeSymbols(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"x + y", []string{"x", "y"}},
		{`\int_0^1 x y dx`, []string{"y"}},
		{`\int x y dx`, []string{"x", "y"}},
		{`\lim_{x \to a} x`, []string{"a"}},
		{`\frac{d}{dx} 3`, []string{"x"}},
		{`\pi + 1`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FreeSymbols(MustParse(tt.input)))
		})
	}
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "((2 x) + 1)", MustParse("2x+1").String())
	assert.Equal(t, "int((x ^ 2), x)", MustParse(`\int x^2 dx`).String())
	assert.Equal(t, "lim((1 / x), x, 0+)", MustParse(`\lim_{x\to 0^+} \frac1x`).String())
}

func TestWalkVisitsEveryNode(t *testing.T) {
	count := 0
	Walk(MustParse(`\sin(x) + 2y`), func(Node) bool {
		count++
		return true
	})
	// +, sin, x, jux, 2, y
	assert.Equal(t, 6, count)
}
