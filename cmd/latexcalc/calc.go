package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/latexcalc"
	"github.com/njchilds90/latexcalc/symbolic"
)

// ============================================================
// Calculator subcommands
// ============================================================

func (a *app) calcCmd() *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "calc <expression>",
		Short: "Evaluate and simplify an expression or check an equation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tree {
				return a.printTree(cmd, args[0])
			}
			return a.run(cmd, latexcalc.CalculateOp{Expr: args[0]})
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "print the parsed expression tree as JSON")
	return cmd
}

func (a *app) solveCmd() *cobra.Command {
	var variable string
	cmd := &cobra.Command{
		Use:   "solve <equation>",
		Short: "Solve an equation for one variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, latexcalc.SolveEquationOp{Expr: args[0], Variable: variable})
		},
	}
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable to solve for")
	return cmd
}

func (a *app) systemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "system <equation>...",
		Short: "Solve a system of equations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, latexcalc.SolveSystemOp{Exprs: args})
		},
	}
}

func (a *app) derivativeCmd() *cobra.Command {
	var variable string
	cmd := &cobra.Command{
		Use:     "derivative <expression>",
		Aliases: []string{"diff"},
		Short:   "Differentiate an expression",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, latexcalc.DerivativeOp{Expr: args[0], Variable: variable})
		},
	}
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable to differentiate with respect to")
	return cmd
}

func (a *app) integralCmd() *cobra.Command {
	var variable string
	cmd := &cobra.Command{
		Use:     "integral <expression>",
		Aliases: []string{"int"},
		Short:   "Integrate an expression, definite or indefinite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, latexcalc.IntegralOp{Expr: args[0], Variable: variable})
		},
	}
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "variable of integration")
	return cmd
}

func (a *app) limitCmd() *cobra.Command {
	var variable, point, direction string
	cmd := &cobra.Command{
		Use:   "limit <expression>",
		Short: "Take the limit of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, latexcalc.LimitOp{Expr: args[0], Variable: variable, Point: point, Direction: direction})
		},
	}
	cmd.Flags().StringVarP(&variable, "variable", "v", "", "limit variable")
	cmd.Flags().StringVarP(&point, "point", "p", "", "limit point (LaTeX, oo or -oo); defaults to 0")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", `one-sided limit direction, "+" or "-"`)
	return cmd
}

// ============================================================
// Output
// ============================================================

func (a *app) run(cmd *cobra.Command, op latexcalc.Operation) error {
	res, err := a.calc.Run(cmd.Context(), op)
	out := cmd.OutOrStdout()
	if a.jsonOut {
		if werr := writeJSON(out, latexcalc.ToolResponse{Result: res, Error: toolError(err)}); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}
	a.printResult(out, res)
	return nil
}

func toolError(err error) *latexcalc.ToolError {
	if err == nil {
		return nil
	}
	return latexcalc.NewToolError(err)
}

func (a *app) printTree(cmd *cobra.Command, expr string) error {
	e, err := a.calc.Parse(cmd.Context(), expr)
	if err != nil {
		return err
	}
	s, err := symbolic.ToJSON(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type field struct{ label, value string }

func resultFields(res latexcalc.Result) []field {
	var fs []field
	add := func(label, value string) {
		if value != "" {
			fs = append(fs, field{label, value})
		}
	}
	latex := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	num := func(f *float64) string {
		if f == nil {
			return ""
		}
		return strconv.FormatFloat(*f, 'g', -1, 64)
	}

	switch r := res.(type) {
	case latexcalc.CalculationResult:
		add("result", r.Result)
		add("latex", latex(r.LaTeXResult))
		add("numeric", num(r.Numeric))
	case latexcalc.SolutionResult:
		add("solutions", r.Solutions)
		add("latex", latex(r.LaTeXResult))
		add("numeric", r.NumericSolutions)
		add("variables", strings.Join(r.Variables, ", "))
		add("free", strings.Join(r.Parameters, ", "))
	case latexcalc.DerivativeResult:
		add("derivative", r.Derivative)
		add("latex", r.LaTeXResult)
		add("variable", r.Variable)
	case latexcalc.IntegralResult:
		add("result", r.Result)
		add("latex", r.LaTeXResult)
		add("variable", r.Variable)
		add("numeric", num(r.Numeric))
	case latexcalc.LimitResult:
		add("limit", r.Limit)
		add("latex", r.LaTeXResult)
		add("numeric", num(r.Numeric))
		if r.Approximate {
			add("approximate", "yes")
		}
	}
	return fs
}

func (a *app) printResult(w io.Writer, res latexcalc.Result) {
	fs := resultFields(res)
	width := 0
	for _, f := range fs {
		width = max(width, len(f.label))
	}
	for _, f := range fs {
		label := fmt.Sprintf("%-*s", width+1, f.label+":")
		if a.plain {
			fmt.Fprintf(w, "%s %s\n", label, f.value)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), valueStyle.Render(f.value))
	}
}
