package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/njchilds90/latexcalc/internal/calcerr"
	"github.com/njchilds90/latexcalc/symbolic"
)

// Role says what an operation does with a symbol.
type Role int

const (
	RoleFree Role = iota
	RoleDifferentiation
	RoleIntegration
	RoleLimitPoint
	RoleUnknown
)

func (r Role) String() string {
	switch r {
	case RoleDifferentiation:
		return "differentiation"
	case RoleIntegration:
		return "integration"
	case RoleLimitPoint:
		return "limit"
	case RoleUnknown:
		return "unknown"
	}
	return "free"
}

// Binding maps every symbol of an expression to its role in one operation.
type Binding map[string]Role

// Bound returns the symbol bound by the operation, or "".
func (b Binding) Bound() string {
	for name, r := range b {
		if r != RoleFree {
			return name
		}
	}
	return ""
}

// Free returns the symbols left free, sorted.
func (b Binding) Free() []string {
	out := []string{}
	for name, r := range b {
		if r == RoleFree {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// bind picks the variable for role. An explicit name wins. Otherwise the
// lexically-first free symbol is used, except that differentiation (and every
// role when strict is set) insists on a single candidate. An expression with
// no symbols binds fallback.
func bind(e symbolic.Expr, explicit string, role Role, strict bool, fallback string) (Binding, error) {
	return bindSymbols(symbolic.SortedSymbols(e), explicit, role, strict, fallback)
}

// bindSymbols is bind over an already collected, sorted symbol list.
func bindSymbols(syms []string, explicit string, role Role, strict bool, fallback string) (Binding, error) {
	b := make(Binding, len(syms)+1)
	for _, s := range syms {
		b[s] = RoleFree
	}
	if explicit != "" {
		if strict && len(syms) > 0 {
			if _, ok := b[explicit]; !ok {
				return nil, calcerr.New(calcerr.KindValidation, calcerr.StageEngine,
					"variable %s does not occur in the expression", explicit)
			}
		}
		b[explicit] = role
		return b, nil
	}
	switch {
	case len(syms) == 0:
		b[fallback] = role
	case len(syms) == 1:
		b[syms[0]] = role
	case role == RoleDifferentiation || strict:
		return nil, calcerr.New(calcerr.KindAmbiguousVariable, calcerr.StageEngine,
			"expression has several variables (%s); name one", strings.Join(syms, ", "))
	default:
		b[syms[0]] = role
	}
	return b, nil
}

// constantName returns C, or C_1, C_2, ... when C is already taken.
func constantName(b Binding) string {
	if _, taken := b["C"]; !taken {
		return "C"
	}
	for i := 1; ; i++ {
		name := "C_" + strconv.Itoa(i)
		if _, taken := b[name]; !taken {
			return name
		}
	}
}
