package latex

// ============================================================
// Function table
// ============================================================

// Arity is the accepted argument count of a function.
type Arity struct{ Min, Max int }

var functionTable = map[string]Arity{
	"sin": {1, 1}, "cos": {1, 1}, "tan": {1, 1},
	"cot": {1, 1}, "sec": {1, 1}, "csc": {1, 1},
	"asin": {1, 1}, "acos": {1, 1}, "atan": {1, 1},
	"sinh": {1, 1}, "cosh": {1, 1}, "tanh": {1, 1},
	"exp": {1, 1}, "ln": {1, 1},
	"log":  {1, 2},
	"sqrt": {1, 2},
	"abs":  {1, 1}, "floor": {1, 1}, "ceil": {1, 1}, "sign": {1, 1},
}

// LookupFunction reports the arity of a function table entry.
func LookupFunction(name string) (Arity, bool) {
	a, ok := functionTable[name]
	return a, ok
}

// functionMacros maps a LaTeX macro (without the backslash) to its table
// name.
var functionMacros = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan",
	"cot": "cot", "sec": "sec", "csc": "csc",
	"arcsin": "asin", "arccos": "acos", "arctan": "atan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"exp": "exp", "ln": "ln", "log": "log",
}

// operatorNames are the names accepted inside \operatorname{...}.
var operatorNames = map[string]string{
	"sgn": "sign", "sign": "sign", "abs": "abs",
	"floor": "floor", "ceil": "ceil",
	"arcsin": "asin", "arccos": "acos", "arctan": "atan",
	"asin": "asin", "acos": "acos", "atan": "atan",
}

var inverseTrig = map[string]string{"sin": "asin", "cos": "acos", "tan": "atan"}

var greekMacros = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "vartheta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"rho": true, "varrho": true, "sigma": true, "tau": true, "upsilon": true,
	"phi": true, "varphi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true,
	"Pi": true, "Sigma": true, "Upsilon": true, "Phi": true, "Psi": true, "Omega": true,
}

// structural macros the parser handles itself.
var structuralMacros = map[string]bool{
	"frac": true, "dfrac": true, "tfrac": true, "sqrt": true,
	"cdot": true, "times": true, "div": true,
	"left": true, "right": true,
	"lfloor": true, "rfloor": true, "lceil": true, "rceil": true,
	"int": true, "lim": true, "to": true, "rightarrow": true,
	"operatorname": true, "pi": true, "infty": true,
}

// ignoredMacros only affect spacing or layout.
var ignoredMacros = map[string]bool{
	",": true, ";": true, ":": true, "!": true, " ": true,
	"quad": true, "qquad": true, "displaystyle": true, "textstyle": true, "limits": true,
}

func knownMacro(name string) bool {
	return structuralMacros[name] || greekMacros[name] || functionMacros[name] != "" || name == "{" || name == "}"
}
