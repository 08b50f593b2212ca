package latexcalc

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/njchilds90/latexcalc/internal/calcerr"
)

// Operation is one calculator request. The concrete types below map 1:1 to
// the tool names.
type Operation interface {
	Name() string
	run(ctx context.Context, c *Calculator) (Result, error)
}

type CalculateOp struct {
	Expr string `mapstructure:"expression"`
}

type SolveEquationOp struct {
	Expr     string `mapstructure:"equation"`
	Variable string `mapstructure:"variable"`
}

type SolveSystemOp struct {
	Exprs []string `mapstructure:"equations"`
}

type DerivativeOp struct {
	Expr     string `mapstructure:"expression"`
	Variable string `mapstructure:"variable"`
}

type IntegralOp struct {
	Expr     string `mapstructure:"expression"`
	Variable string `mapstructure:"variable"`
}

// LimitOp's Direction is "+", "-" or empty and is appended to Point.
type LimitOp struct {
	Expr      string `mapstructure:"expression"`
	Variable  string `mapstructure:"variable"`
	Point     string `mapstructure:"point"`
	Direction string `mapstructure:"direction"`
}

func (CalculateOp) Name() string     { return OpCalculate }
func (SolveEquationOp) Name() string { return OpSolveEquation }
func (SolveSystemOp) Name() string   { return OpSolveSystem }
func (DerivativeOp) Name() string    { return OpDerivative }
func (IntegralOp) Name() string      { return OpIntegral }
func (LimitOp) Name() string         { return OpLimit }

func (o CalculateOp) run(ctx context.Context, c *Calculator) (Result, error) {
	return c.Calculate(ctx, o.Expr)
}

func (o SolveEquationOp) run(ctx context.Context, c *Calculator) (Result, error) {
	return c.SolveEquationFor(ctx, o.Expr, o.Variable)
}

func (o SolveSystemOp) run(ctx context.Context, c *Calculator) (Result, error) {
	return c.SolveSystem(ctx, o.Exprs)
}

func (o DerivativeOp) run(ctx context.Context, c *Calculator) (Result, error) {
	return c.CalculateDerivative(ctx, o.Expr, o.Variable)
}

func (o IntegralOp) run(ctx context.Context, c *Calculator) (Result, error) {
	return c.CalculateIntegral(ctx, o.Expr, o.Variable)
}

func (o LimitOp) run(ctx context.Context, c *Calculator) (Result, error) {
	switch o.Direction {
	case "", "+", "-":
	default:
		return nil, calcerr.New(calcerr.KindValidation, calcerr.StageRequest,
			"direction must be \"+\", \"-\" or empty, got %q", o.Direction)
	}
	return c.CalculateLimit(ctx, o.Expr, o.Variable, o.Point+o.Direction)
}

// DecodeOperation builds the operation named by tool from loosely typed
// params, as decoded from JSON. Unknown keys are rejected.
func DecodeOperation(tool string, params map[string]any) (Operation, error) {
	var op Operation
	switch tool {
	case OpCalculate:
		op = &CalculateOp{}
	case OpSolveEquation:
		op = &SolveEquationOp{}
	case OpSolveSystem:
		op = &SolveSystemOp{}
	case OpDerivative:
		op = &DerivativeOp{}
	case OpIntegral:
		op = &IntegralOp{}
	case OpLimit:
		op = &LimitOp{}
	default:
		return nil, calcerr.New(calcerr.KindValidation, calcerr.StageRequest, "unknown tool: %s", tool)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           op,
	})
	if err != nil {
		return nil, calcerr.Wrap(calcerr.KindValidation, calcerr.StageRequest, err)
	}
	if err := dec.Decode(params); err != nil {
		return nil, calcerr.New(calcerr.KindValidation, calcerr.StageRequest, "bad params for %s: %v", tool, err)
	}
	if err := checkRequired(tool, params); err != nil {
		return nil, err
	}
	return deref(op), nil
}

func deref(op Operation) Operation {
	switch o := op.(type) {
	case *CalculateOp:
		return *o
	case *SolveEquationOp:
		return *o
	case *SolveSystemOp:
		return *o
	case *DerivativeOp:
		return *o
	case *IntegralOp:
		return *o
	case *LimitOp:
		return *o
	}
	return op
}

func checkRequired(tool string, params map[string]any) error {
	for _, spec := range toolSpecs {
		if spec.Name != tool {
			continue
		}
		for _, key := range spec.Required {
			if _, ok := params[key]; !ok {
				return calcerr.New(calcerr.KindValidation, calcerr.StageRequest, "missing param: %s", key)
			}
		}
	}
	return nil
}

// Run executes op.
func (c *Calculator) Run(ctx context.Context, op Operation) (Result, error) {
	res, err := op.run(ctx, c)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Execute decodes and runs a tool request.
func (c *Calculator) Execute(ctx context.Context, req ToolRequest) (Result, error) {
	op, err := DecodeOperation(req.Tool, req.Params)
	if err != nil {
		return nil, calcerr.WithOp(err, req.Tool)
	}
	return c.Run(ctx, op)
}
