// Command latexcalc evaluates LaTeX math from the command line and serves
// the calculator over HTTP and MCP.
//
//	latexcalc calc '\frac{1}{3} + \frac{1}{6}'
//	latexcalc derivative 'x^2'
//	latexcalc integral '\int_0^1 2x \, dx'
//	latexcalc limit '\frac{\sin x}{x}' --point 0
//	latexcalc solve 'x^2 - 4 = 0'
//	latexcalc system 'x + y = 2' 'x - y = 0'
//	latexcalc serve --port 8080
//	latexcalc mcp --transport stdio
package main

import (
	"fmt"
	"os"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}
