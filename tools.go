package latexcalc

import (
	"context"
	"encoding/json"
	"errors"
)

// ============================================================
// Tool interface
// ============================================================

// ToolRequest names a tool and its parameters, as sent over HTTP or MCP.
type ToolRequest struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

// ToolResponse carries either a result or an error description.
type ToolResponse struct {
	Result Result     `json:"result,omitempty"`
	Error  *ToolError `json:"error,omitempty"`
}

// ToolError is the wire form of *Error.
type ToolError struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
	Offset  *int   `json:"offset,omitempty"`
}

// NewToolError converts err for the wire.
func NewToolError(err error) *ToolError {
	te := &ToolError{Kind: KindOf(err).String(), Stage: string(StageOf(err)), Message: err.Error()}
	var ce *Error
	if errors.As(err, &ce) && ce.Offset >= 0 {
		off := ce.Offset
		te.Offset = &off
	}
	return te
}

// Handle runs req and folds any error into the response.
func (c *Calculator) Handle(ctx context.Context, req ToolRequest) ToolResponse {
	res, err := c.Execute(ctx, req)
	if err != nil {
		return ToolResponse{Error: NewToolError(err)}
	}
	return ToolResponse{Result: res}
}

// ToolSpec describes one tool with a JSON schema for its parameters.
type ToolSpec struct {
	Name        string
	Description string
	Required    []string
	Properties  map[string]ToolParam
}

// ToolParam is one parameter of a tool.
type ToolParam struct {
	Type        string
	Description string
}

var toolSpecs = []ToolSpec{
	ts(OpCalculate, "Evaluate or simplify a LaTeX expression. Equations without variables evaluate to True or False.",
		[]string{"expression"},
		map[string]ToolParam{"expression": {"string", `LaTeX input, e.g. \frac{1}{3}+\frac{1}{6}`}}),
	ts(OpSolveEquation, "Solve one equation for a variable. Without '=' the expression is set to zero.",
		[]string{"equation"},
		map[string]ToolParam{
			"equation": {"string", "LaTeX equation, e.g. x^2-4=0"},
			"variable": {"string", "unknown to solve for; defaults to the first free symbol"},
		}),
	ts(OpSolveSystem, "Solve several equations simultaneously for all their symbols.",
		[]string{"equations"},
		map[string]ToolParam{"equations": {"array", "LaTeX equations"}}),
	ts(OpDerivative, "Differentiate a LaTeX expression.",
		[]string{"expression"},
		map[string]ToolParam{
			"expression": {"string", "LaTeX input or a complete \\frac{d}{dx} derivative"},
			"variable":   {"string", "variable of differentiation; required when there are several symbols"},
		}),
	ts(OpIntegral, "Integrate a LaTeX expression, indefinite or with bounds.",
		[]string{"expression"},
		map[string]ToolParam{
			"expression": {"string", "integrand or a complete \\int with optional bounds"},
			"variable":   {"string", "variable of integration"},
		}),
	ts(OpLimit, "Take the limit of a LaTeX expression.",
		[]string{"expression"},
		map[string]ToolParam{
			"expression": {"string", "LaTeX input or a complete \\lim"},
			"variable":   {"string", "variable approaching the point"},
			"point":      {"string", "LaTeX point, 'oo' or '-oo'; defaults to 0"},
			"direction":  {"string", "'+', '-' or empty for a two-sided limit"},
		}),
}

func ts(name, description string, required []string, props map[string]ToolParam) ToolSpec {
	return ToolSpec{Name: name, Description: description, Required: required, Properties: props}
}

// Tools lists every tool Execute accepts.
func Tools() []ToolSpec {
	out := make([]ToolSpec, len(toolSpecs))
	copy(out, toolSpecs)
	return out
}

// InputSchema returns the JSON schema of the tool's parameters.
func (s ToolSpec) InputSchema() map[string]any {
	properties := map[string]any{}
	for k, p := range s.Properties {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if p.Type == "array" {
			prop["items"] = map[string]any{"type": "string"}
		}
		properties[k] = prop
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// MarshalJSON emits {"name", "description", "inputSchema"}.
func (s ToolSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"inputSchema": s.InputSchema(),
	})
}

// ToolSchema returns {"tools": [...]} as indented JSON.
func ToolSchema() string {
	b, _ := json.MarshalIndent(map[string]any{"tools": Tools()}, "", "  ")
	return string(b)
}
