package latex

import (
	"strings"

	"github.com/njchilds90/latexcalc/internal/calcerr"
)

// ============================================================
// Tokens
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokLetter
	tokMacro // text holds the name without the backslash
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	off  int
}

func (t token) is(kind tokenKind, text string) bool { return t.kind == kind && t.text == text }

func (t token) display() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokMacro:
		return `\` + t.text
	}
	return t.text
}

const punctChars = "+-*/^_=()[]{}|!,."

// ============================================================
// Lexer
// ============================================================

// stripDelimiters removes one pair of $...$, $$...$$, \(...\) or \[...\]
// and returns the inner text with its offset in s.
func stripDelimiters(s string) (string, int) {
	start := len(s) - len(strings.TrimLeft(s, " \t\r\n"))
	body := strings.TrimSpace(s)
	for _, d := range [][2]string{{"$$", "$$"}, {"$", "$"}, {`\(`, `\)`}, {`\[`, `\]`}} {
		if len(body) >= len(d[0])+len(d[1]) && strings.HasPrefix(body, d[0]) && strings.HasSuffix(body, d[1]) {
			return body[len(d[0]) : len(body)-len(d[1])], start + len(d[0])
		}
	}
	return body, start
}

// tokenize splits src into tokens. Offsets are shifted by base so they
// point into the caller's original string.
func tokenize(src string, base int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '~':
			i++
		case isDigit(c) || c == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			seenDot := false
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' && !seenDot && i+1 < len(src) && isDigit(src[i+1])) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			toks = append(toks, token{tokNumber, src[start:i], base + start})
		case isLetter(c):
			toks = append(toks, token{tokLetter, string(c), base + i})
			i++
		case c == '\\':
			start := i
			i++
			if i >= len(src) {
				return nil, calcerr.Parse(base+start, "dangling backslash")
			}
			var name string
			if isLetter(src[i]) {
				for i < len(src) && isLetter(src[i]) {
					i++
				}
				name = src[start+1 : i]
			} else {
				name = src[i : i+1]
				i++
			}
			switch {
			case ignoredMacros[name]:
			case name == "|":
				toks = append(toks, token{tokPunct, "|", base + start})
			case knownMacro(name):
				toks = append(toks, token{tokMacro, name, base + start})
			default:
				return nil, calcerr.Parse(base+start, `unknown macro "\%s"`, name)
			}
		case strings.IndexByte(punctChars, c) >= 0:
			toks = append(toks, token{tokPunct, string(c), base + i})
			i++
		default:
			return nil, calcerr.Parse(base+i, "unexpected character %q", string(c))
		}
	}
	toks = append(toks, token{kind: tokEOF, off: base + len(src)})
	return toks, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
