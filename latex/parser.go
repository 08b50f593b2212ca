package latex

import (
	"strconv"
	"strings"

	"github.com/njchilds90/latexcalc/internal/calcerr"
)

// ============================================================
// Entry points
// ============================================================

// Parse parses a LaTeX math fragment, with or without $...$, \(...\) or
// \[...\] delimiters. Failures are *calcerr.Error values of kind
// KindParse carrying the byte offset into input.
//
// Precedence, tightest first: postfix !, ^ (right associative), unary
// minus, juxtaposition with * / \cdot \times \div, + -, and finally =.
// A superscript or \frac argument without braces is a single token, so
// x^23 is x^2 * 3.
func Parse(input string) (Node, error) {
	body, base := stripDelimiters(input)
	toks, err := tokenize(body, base)
	if err != nil {
		return nil, err
	}
	if len(toks) == 1 {
		return nil, calcerr.Parse(0, "empty input")
	}
	p := &parser{toks: toks}
	n, err := p.parseEquation()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		switch {
		case t.is(tokPunct, "}"):
			return nil, calcerr.Parse(t.off, "unbalanced braces: unexpected }")
		case t.is(tokPunct, ")"), t.is(tokPunct, "]"), t.is(tokMacro, "right"):
			return nil, calcerr.Parse(t.off, "unbalanced delimiters: unexpected %s", t.display())
		}
		return nil, p.unexpected(t)
	}
	return n, nil
}

// MustParse is Parse for inputs known to be valid. It panics on error.
func MustParse(input string) Node {
	n, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return n
}

// ============================================================
// Parser state
// ============================================================

type parser struct {
	toks []token
	pos  int
	// absDepth > 0 while inside |...|, where a bar closes instead of opening.
	absDepth int
	// integral > 0 while parsing an integrand, where "d x" ends the body.
	integral int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(k int) token {
	if p.pos+k < len(p.toks) {
		return p.toks[p.pos+k]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// enterNested clears the context flags for a bracketed sub-expression and
// returns the function that restores them.
func (p *parser) enterNested() func() {
	abs, integral := p.absDepth, p.integral
	p.absDepth, p.integral = 0, 0
	return func() { p.absDepth, p.integral = abs, integral }
}

func (p *parser) unexpected(t token) error {
	if t.kind == tokEOF {
		return calcerr.Parse(t.off, "unexpected end of input")
	}
	return calcerr.Parse(t.off, "unexpected token %q", t.display())
}

// closeWith consumes the closing token for open.
func (p *parser) closeWith(open token, kind tokenKind, text string) error {
	t := p.peek()
	if t.is(kind, text) {
		p.next()
		return nil
	}
	if t.kind == tokEOF {
		if open.is(tokPunct, "{") {
			return calcerr.Parse(open.off, "unbalanced braces: { is never closed")
		}
		return calcerr.Parse(open.off, "unbalanced delimiters: %s is never closed", open.display())
	}
	return p.unexpected(t)
}

// ============================================================
// Precedence levels
// ============================================================

func (p *parser) parseEquation() (Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.peek().is(tokPunct, "=") {
		return lhs, nil
	}
	p.next()
	rhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &Equation{LHS: lhs, RHS: rhs}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.is(tokPunct, "+") && !t.is(tokPunct, "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: t.text, Left: left, Right: right}
	}
}

func mulOp(t token) (string, bool) {
	switch {
	case t.is(tokPunct, "*"), t.is(tokMacro, "cdot"), t.is(tokMacro, "times"):
		return "*", true
	case t.is(tokPunct, "/"), t.is(tokMacro, "div"):
		return "/", true
	}
	return "", false
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	var jux *Juxtaposition
	for {
		if op, ok := mulOp(p.peek()); ok {
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{Op: op, Left: left, Right: right}
			jux = nil
			continue
		}
		if !p.startsAtom() || p.atDifferential() {
			return left, nil
		}
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		if jux != nil {
			jux.Factors = append(jux.Factors, right)
			continue
		}
		jux = &Juxtaposition{Factors: []Node{left, right}}
		left = jux
	}
}

func (p *parser) parseUnary() (Node, error) {
	t := p.peek()
	switch {
	case t.is(tokPunct, "-"):
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "-", Operand: x}, nil
	case t.is(tokPunct, "+"):
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	var exps []Node
	for p.peek().is(tokPunct, "^") {
		p.next()
		braced := p.peek().is(tokPunct, "{")
		e, err := p.parseScriptArg(true)
		if err != nil {
			return nil, err
		}
		// 2^3! is 2^(3!); after a braced exponent the ! applies to the power.
		for !braced && p.peek().is(tokPunct, "!") {
			p.next()
			e = &UnaryOp{Op: "!", Operand: e}
		}
		exps = append(exps, e)
	}
	if len(exps) > 0 && p.peek().is(tokPunct, "!") {
		var n Node = &BinaryOp{Op: "^", Left: base, Right: foldPowers(exps)}
		for p.peek().is(tokPunct, "!") {
			p.next()
			n = &UnaryOp{Op: "!", Operand: n}
		}
		return n, nil
	}
	if len(exps) == 0 {
		return base, nil
	}
	return &BinaryOp{Op: "^", Left: base, Right: foldPowers(exps)}, nil
}

// foldPowers nests a chain of exponents to the right.
func foldPowers(exps []Node) Node {
	exp := exps[len(exps)-1]
	for i := len(exps) - 2; i >= 0; i-- {
		exp = &BinaryOp{Op: "^", Left: exps[i], Right: exp}
	}
	return exp
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().is(tokPunct, "!") {
		p.next()
		n = &UnaryOp{Op: "!", Operand: n}
	}
	return n, nil
}

// startsAtom reports whether the next token can begin an implicit factor.
func (p *parser) startsAtom() bool {
	t := p.peek()
	switch t.kind {
	case tokNumber, tokLetter:
		return true
	case tokPunct:
		switch t.text {
		case "(", "[", "{":
			return true
		case "|":
			return p.absDepth == 0
		}
	case tokMacro:
		switch t.text {
		case "right", "cdot", "times", "div", "to", "rightarrow", "rfloor", "rceil", "}":
			return false
		}
		return true
	}
	return false
}

func (p *parser) startsFunction() bool {
	t := p.peek()
	if t.kind != tokMacro {
		return false
	}
	return functionMacros[t.text] != "" || t.text == "operatorname" || t.text == "int" || t.text == "lim"
}

// atDifferential reports a "d x" pair that ends the current integrand.
func (p *parser) atDifferential() bool {
	if p.integral == 0 || !p.peek().is(tokLetter, "d") {
		return false
	}
	n := p.peekAt(1)
	return n.kind == tokLetter || n.kind == tokMacro && greekMacros[n.text]
}

// ============================================================
// Atoms
// ============================================================

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		return &Number{Text: t.text}, nil
	case tokLetter:
		p.next()
		if t.text == "e" && !p.peek().is(tokPunct, "_") {
			return &Constant{Name: "e"}, nil
		}
		name, err := p.symbolName(t)
		if err != nil {
			return nil, err
		}
		return &Symbol{Name: name}, nil
	case tokMacro:
		return p.parseMacro()
	case tokPunct:
		switch t.text {
		case "(":
			return p.parseDelimited(")")
		case "[":
			return p.parseDelimited("]")
		case "{":
			return p.parseGroup()
		case "|":
			return p.parseBars()
		}
	}
	return nil, p.unexpected(t)
}

// parseScriptArg reads the argument of ^, _ or a brace-less macro: a braced
// group or one single token. signed allows a leading minus, as in x^-1.
func (p *parser) parseScriptArg(signed bool) (Node, error) {
	t := p.peek()
	switch {
	case t.is(tokPunct, "{"):
		return p.parseGroup()
	case signed && t.is(tokPunct, "-"):
		p.next()
		x, err := p.parseScriptArg(false)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "-", Operand: x}, nil
	case t.kind == tokNumber:
		return p.singleDigit(), nil
	case t.kind == tokLetter, t.kind == tokMacro:
		return p.parsePrimary()
	}
	return nil, p.unexpected(t)
}

// singleDigit takes the first digit of the current number token and leaves
// the rest in place.
func (p *parser) singleDigit() Node {
	t := &p.toks[p.pos]
	if len(t.text) == 1 || t.text[0] == '.' {
		p.pos++
		return &Number{Text: t.text}
	}
	d := t.text[:1]
	t.text = t.text[1:]
	t.off++
	return &Number{Text: d}
}

func (p *parser) parseGroup() (Node, error) {
	open := p.next()
	restore := p.enterNested()
	defer restore()
	if p.peek().is(tokPunct, "}") {
		return nil, calcerr.Parse(open.off, "empty group")
	}
	n, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if err := p.closeWith(open, tokPunct, "}"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseDelimited(close string) (Node, error) {
	open := p.next()
	restore := p.enterNested()
	defer restore()
	n, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if err := p.closeWith(open, tokPunct, close); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseBars() (Node, error) {
	open := p.next()
	restore := p.enterNested()
	defer restore()
	p.absDepth = 1
	n, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if err := p.closeWith(open, tokPunct, "|"); err != nil {
		return nil, err
	}
	return &Function{Name: "abs", Args: []Node{n}}, nil
}

// symbolName completes a symbol whose head token t was consumed, reading an
// optional subscript: x_1, x_{12}, \alpha_{i}.
func (p *parser) symbolName(t token) (string, error) {
	name := t.text
	if !p.peek().is(tokPunct, "_") {
		return name, nil
	}
	p.next()
	s := p.peek()
	switch {
	case s.is(tokPunct, "{"):
		p.next()
		var sb strings.Builder
		for p.peek().kind == tokLetter || p.peek().kind == tokNumber {
			sb.WriteString(p.next().text)
		}
		if sb.Len() == 0 {
			return "", calcerr.Parse(s.off, "unsupported subscript on %s", name)
		}
		if err := p.closeWith(s, tokPunct, "}"); err != nil {
			return "", err
		}
		return name + "_" + sb.String(), nil
	case s.kind == tokNumber:
		return name + "_" + p.singleDigit().(*Number).Text, nil
	case s.kind == tokLetter:
		p.next()
		return name + "_" + s.text, nil
	}
	return "", calcerr.Parse(s.off, "unsupported subscript on %s", name)
}

// ============================================================
// Macros
// ============================================================

func (p *parser) parseMacro() (Node, error) {
	t := p.peek()
	switch name := t.text; {
	case name == "frac" || name == "dfrac" || name == "tfrac":
		return p.parseFrac()
	case name == "sqrt":
		return p.parseSqrt()
	case name == "left":
		return p.parseLeftRight()
	case name == "lfloor":
		return p.parseBracketed("floor", "rfloor")
	case name == "lceil":
		return p.parseBracketed("ceil", "rceil")
	case name == "{":
		return p.parseBracketed("", "}")
	case name == "pi":
		p.next()
		return &Constant{Name: "pi"}, nil
	case name == "infty":
		p.next()
		return &Constant{Name: "infty"}, nil
	case greekMacros[name]:
		p.next()
		sym, err := p.symbolName(t)
		if err != nil {
			return nil, err
		}
		return &Symbol{Name: sym}, nil
	case functionMacros[name] != "":
		p.next()
		return p.parseApplied(functionMacros[name], t)
	case name == "operatorname":
		return p.parseOperatorName()
	case name == "int":
		return p.parseIntegral()
	case name == "lim":
		return p.parseLimit()
	}
	return nil, p.unexpected(t)
}

func (p *parser) parseFrac() (Node, error) {
	head := p.next()
	if v, order, ok := p.matchDerivative(); ok {
		if !p.startsAtom() && !p.peek().is(tokPunct, "-") {
			return nil, calcerr.Parse(head.off, "derivative operator has nothing to apply to")
		}
		body, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		return &Derivative{Body: body, Var: v, Order: order}, nil
	}
	num, err := p.parseScriptArg(false)
	if err != nil {
		return nil, err
	}
	den, err := p.parseScriptArg(false)
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: "/", Left: num, Right: den}, nil
}

// matchDerivative recognizes {d}{dx} and {d^n}{dx^n} after \frac and
// consumes them.
func (p *parser) matchDerivative() (string, int, bool) {
	at := func(i int) token {
		if i < len(p.toks) {
			return p.toks[i]
		}
		return p.toks[len(p.toks)-1]
	}
	// order reads an optional ^n or ^{n} at i.
	order := func(i int) (int, int, bool) {
		if !at(i).is(tokPunct, "^") {
			return 1, i, true
		}
		i++
		text := at(i).text
		next := i + 1
		if at(i).is(tokPunct, "{") {
			text = at(i + 1).text
			if at(i+1).kind != tokNumber || !at(i+2).is(tokPunct, "}") {
				return 0, 0, false
			}
			next = i + 3
		} else if at(i).kind != tokNumber || len(text) != 1 {
			return 0, 0, false
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		return n, next, true
	}
	k := p.pos
	if !at(k).is(tokPunct, "{") || !at(k+1).is(tokLetter, "d") {
		return "", 0, false
	}
	n1, k, ok := order(k + 2)
	if !ok || !at(k).is(tokPunct, "}") {
		return "", 0, false
	}
	k++
	if !at(k).is(tokPunct, "{") || !at(k+1).is(tokLetter, "d") {
		return "", 0, false
	}
	v := at(k + 2)
	if v.kind != tokLetter && !(v.kind == tokMacro && greekMacros[v.text]) {
		return "", 0, false
	}
	n2, k, ok := order(k + 3)
	if !ok || n1 != n2 || !at(k).is(tokPunct, "}") {
		return "", 0, false
	}
	p.pos = k + 1
	return v.text, n1, true
}

func (p *parser) parseSqrt() (Node, error) {
	p.next()
	var index Node
	if p.peek().is(tokPunct, "[") {
		open := p.next()
		restore := p.enterNested()
		idx, err := p.parseAdditive()
		restore()
		if err != nil {
			return nil, err
		}
		if err := p.closeWith(open, tokPunct, "]"); err != nil {
			return nil, err
		}
		index = idx
	}
	arg, err := p.parseScriptArg(false)
	if err != nil {
		return nil, err
	}
	args := []Node{arg}
	if index != nil {
		args = append(args, index)
	}
	return &Function{Name: "sqrt", Args: args}, nil
}

func (p *parser) parseLeftRight() (Node, error) {
	left := p.next()
	d := p.next()
	var fn string
	var closeKind tokenKind
	var closeText string
	switch {
	case d.is(tokPunct, "("):
		closeKind, closeText = tokPunct, ")"
	case d.is(tokPunct, "["):
		closeKind, closeText = tokPunct, "]"
	case d.is(tokPunct, "|"):
		closeKind, closeText, fn = tokPunct, "|", "abs"
	case d.is(tokMacro, "{"):
		closeKind, closeText = tokMacro, "}"
	case d.is(tokMacro, "lfloor"):
		closeKind, closeText, fn = tokMacro, "rfloor", "floor"
	case d.is(tokMacro, "lceil"):
		closeKind, closeText, fn = tokMacro, "rceil", "ceil"
	default:
		return nil, calcerr.Parse(d.off, `unsupported delimiter %q after \left`, d.display())
	}
	restore := p.enterNested()
	inner, err := p.parseAdditive()
	restore()
	if err != nil {
		return nil, err
	}
	r := p.peek()
	if !r.is(tokMacro, "right") {
		if r.kind == tokEOF {
			return nil, calcerr.Parse(left.off, `unbalanced delimiters: \left%s is never closed`, d.display())
		}
		return nil, p.unexpected(r)
	}
	p.next()
	c := p.next()
	if !c.is(closeKind, closeText) {
		return nil, calcerr.Parse(c.off, `mismatched delimiters: \left%s closed by \right%s`, d.display(), c.display())
	}
	if fn != "" {
		return &Function{Name: fn, Args: []Node{inner}}, nil
	}
	return inner, nil
}

// parseBracketed reads \lfloor..\rfloor, \lceil..\rceil or \{..\}.
func (p *parser) parseBracketed(fn, close string) (Node, error) {
	open := p.next()
	restore := p.enterNested()
	inner, err := p.parseAdditive()
	restore()
	if err != nil {
		return nil, err
	}
	if err := p.closeWith(open, tokMacro, close); err != nil {
		return nil, err
	}
	if fn == "" {
		return inner, nil
	}
	return &Function{Name: fn, Args: []Node{inner}}, nil
}

func (p *parser) parseOperatorName() (Node, error) {
	head := p.next()
	open := p.peek()
	if !open.is(tokPunct, "{") {
		return nil, p.unexpected(open)
	}
	p.next()
	var sb strings.Builder
	for p.peek().kind == tokLetter {
		sb.WriteString(p.next().text)
	}
	if err := p.closeWith(open, tokPunct, "}"); err != nil {
		return nil, err
	}
	raw := sb.String()
	name, ok := operatorNames[raw]
	if !ok {
		if _, known := functionTable[raw]; !known {
			return nil, calcerr.Parse(head.off, "unknown function %q", raw)
		}
		name = raw
	}
	return p.parseApplied(name, head)
}

// parseApplied reads the optional base and power of a function head, then
// its arguments. \sin^2 x is (\sin x)^2 and \sin^{-1} x is \arcsin x.
func (p *parser) parseApplied(name string, head token) (Node, error) {
	var base, power Node
	for {
		var err error
		switch {
		case name == "log" && base == nil && p.peek().is(tokPunct, "_"):
			p.next()
			base, err = p.parseScriptArg(false)
		case power == nil && p.peek().is(tokPunct, "^"):
			p.next()
			power, err = p.parseScriptArg(true)
		default:
			args, err := p.parseFuncArgs(head)
			if err != nil {
				return nil, err
			}
			if isMinusOne(power) && inverseTrig[name] != "" {
				name, power = inverseTrig[name], nil
			}
			if base != nil {
				args = append(args, base)
			}
			var out Node = &Function{Name: name, Args: args}
			if power != nil {
				out = &BinaryOp{Op: "^", Left: out, Right: power}
			}
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func isMinusOne(n Node) bool {
	u, ok := n.(*UnaryOp)
	if !ok || u.Op != "-" {
		return false
	}
	num, ok := u.Operand.(*Number)
	return ok && num.Text == "1"
}

// parseFuncArgs reads (a, b), a braced or \left-delimited group, or a bare
// run of juxtaposed factors that stops before the next function.
func (p *parser) parseFuncArgs(head token) ([]Node, error) {
	t := p.peek()
	switch {
	case t.is(tokPunct, "("):
		open := p.next()
		restore := p.enterNested()
		defer restore()
		var args []Node
		for {
			a, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.peek().is(tokPunct, ",") {
				break
			}
			p.next()
		}
		if err := p.closeWith(open, tokPunct, ")"); err != nil {
			return nil, err
		}
		return args, nil
	case t.is(tokPunct, "{"), t.is(tokPunct, "["), t.is(tokMacro, "left"):
		a, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return []Node{a}, nil
	}
	if !p.startsAtom() && !t.is(tokPunct, "-") {
		return nil, calcerr.Parse(head.off, "function %s is missing its argument", head.display())
	}
	var factors []Node
	if t.is(tokPunct, "-") {
		p.next()
		x, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		factors = append(factors, &UnaryOp{Op: "-", Operand: x})
	} else {
		x, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		factors = append(factors, x)
	}
	for p.startsAtom() && !p.startsFunction() && !p.atDifferential() {
		x, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		factors = append(factors, x)
	}
	if len(factors) == 1 {
		return factors, nil
	}
	return []Node{&Juxtaposition{Factors: factors}}, nil
}

// ============================================================
// Calculus notation
// ============================================================

func (p *parser) parseIntegral() (Node, error) {
	p.next()
	var lower, upper Node
	for i := 0; i < 2; i++ {
		var err error
		switch {
		case lower == nil && p.peek().is(tokPunct, "_"):
			p.next()
			lower, err = p.parseScriptArg(true)
		case upper == nil && p.peek().is(tokPunct, "^"):
			p.next()
			upper, err = p.parseScriptArg(true)
		}
		if err != nil {
			return nil, err
		}
	}
	p.integral++
	defer func() { p.integral-- }()
	var body Node = &Number{Text: "1"}
	if !p.atDifferential() {
		b, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		body = b
	}
	var v string
	if p.atDifferential() {
		p.next()
		name, err := p.symbolName(p.next())
		if err != nil {
			return nil, err
		}
		v = name
	}
	return &Integral{Body: body, Var: v, Lower: lower, Upper: upper}, nil
}

func (p *parser) parseLimit() (Node, error) {
	head := p.next()
	if !p.peek().is(tokPunct, "_") || !p.peekAt(1).is(tokPunct, "{") {
		return nil, calcerr.Parse(head.off, `\lim needs a subscript such as _{x \to 0}`)
	}
	p.next()
	end := p.matchingBrace(p.pos)
	if end < 0 {
		return nil, calcerr.Parse(p.peek().off, "unbalanced braces: { is never closed")
	}
	dir := p.stripDirection(end)
	open := p.next()
	restore := p.enterNested()
	vt := p.next()
	if vt.kind != tokLetter && !(vt.kind == tokMacro && greekMacros[vt.text]) {
		restore()
		return nil, calcerr.Parse(vt.off, "limit variable expected, got %s", vt.display())
	}
	name, err := p.symbolName(vt)
	if err != nil {
		restore()
		return nil, err
	}
	arrow := p.next()
	if !arrow.is(tokMacro, "to") && !arrow.is(tokMacro, "rightarrow") {
		restore()
		return nil, calcerr.Parse(arrow.off, `expected \to in limit subscript, got %s`, arrow.display())
	}
	point, err := p.parseAdditive()
	restore()
	if err != nil {
		return nil, err
	}
	if err := p.closeWith(open, tokPunct, "}"); err != nil {
		return nil, err
	}
	if !p.startsAtom() && !p.peek().is(tokPunct, "-") {
		return nil, calcerr.Parse(head.off, "limit has nothing to apply to")
	}
	body, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	return &Limit{Body: body, Var: name, Point: point, Dir: dir}, nil
}

// matchingBrace returns the index of the } closing the { at i, or -1.
func (p *parser) matchingBrace(i int) int {
	depth := 0
	for k := i; k < len(p.toks); k++ {
		switch {
		case p.toks[k].is(tokPunct, "{"):
			depth++
		case p.toks[k].is(tokPunct, "}"):
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// stripDirection removes a trailing ^{+}, ^+ or + (and the - forms) before
// the brace at end and returns the direction.
func (p *parser) stripDirection(end int) string {
	sign := func(i int) bool { return p.toks[i].is(tokPunct, "+") || p.toks[i].is(tokPunct, "-") }
	var dir string
	from := -1
	switch {
	case end-4 > p.pos+3 && p.toks[end-4].is(tokPunct, "^") && p.toks[end-3].is(tokPunct, "{") &&
		sign(end-2) && p.toks[end-1].is(tokPunct, "}"):
		dir, from = p.toks[end-2].text, end-4
	case end-2 > p.pos+3 && p.toks[end-2].is(tokPunct, "^") && sign(end-1):
		dir, from = p.toks[end-1].text, end-2
	case end-1 > p.pos+3 && sign(end-1):
		dir, from = p.toks[end-1].text, end-1
	default:
		return ""
	}
	p.toks = append(p.toks[:from], p.toks[end:]...)
	return dir
}
