package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/njchilds90/latexcalc"
	"github.com/njchilds90/latexcalc/internal/config"
	"github.com/njchilds90/latexcalc/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type response struct {
	Result map[string]any       `json:"result"`
	Error  *latexcalc.ToolError `json:"error"`
}

func newServer(mod ...func(*config.ServerConfig)) (*Server, *metrics.Metrics) {
	cfg := config.Default().Server
	cfg.RateLimit = 0
	for _, m := range mod {
		m(&cfg)
	}
	m := metrics.New()
	calc := latexcalc.New(latexcalc.WithObserver(m), latexcalc.WithTimeout(2*time.Second))
	return New(calc, cfg, nil, m), m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// ============================================================
// /tool
// ============================================================

func TestToolCalls(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		want  any
	}{
		{"calculate", `{"tool": "calculate", "params": {"expression": "2+2"}}`, "result", "4"},
		{"derivative", `{"tool": "calculate_derivative", "params": {"expression": "x^2"}}`, "latex_result", "2x"},
		{"integral", `{"tool": "calculate_integral", "params": {"expression": "2*x", "variable": "x"}}`, "result", "x^2 + C"},
		{"limit", `{"tool": "calculate_limit", "params": {"expression": "\\frac{\\sin{x}}{x}", "variable": "x", "point": "0"}}`, "limit", "1"},
		{"solve", `{"tool": "solve_equation", "params": {"equation": "x^2 - 4 = 0"}}`, "solutions", "[-2, 2]"},
		{"system", `{"tool": "solve_system", "params": {"equations": ["x + y = 2", "x - y = 0"]}}`, "solutions", "[{x: 1, y: 1}]"},
		{"weakly typed point", `{"tool": "calculate_limit", "params": {"expression": "x + 1", "point": 2}}`, "limit", "3"},
	}
	s, _ := newServer()
	h := s.Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/tool", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			out := decodeResponse(t, rec)
			assert.Nil(t, out.Error)
			assert.Equal(t, tt.want, out.Result[tt.field])
		})
	}
}

func TestToolErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"parse error", `{"tool": "calculate", "params": {"expression": ""}}`, http.StatusUnprocessableEntity, "parse_error"},
		{"ambiguous", `{"tool": "calculate_derivative", "params": {"expression": "x y"}}`, http.StatusUnprocessableEntity, "ambiguous_variable"},
		{"unknown tool", `{"tool": "factor", "params": {}}`, http.StatusUnprocessableEntity, "validation_error"},
		{"missing param", `{"tool": "calculate", "params": {}}`, http.StatusUnprocessableEntity, "validation_error"},
		{"unknown param", `{"tool": "calculate", "params": {"expression": "1", "mode": "fast"}}`, http.StatusUnprocessableEntity, "validation_error"},
		{"bad direction", `{"tool": "calculate_limit", "params": {"expression": "x", "direction": "up"}}`, http.StatusUnprocessableEntity, "validation_error"},
		{"malformed JSON", `{"tool": `, http.StatusBadRequest, "bad_request"},
		{"unknown field", `{"tool": "calculate", "params": {}, "extra": 1}`, http.StatusBadRequest, "bad_request"},
		{"trailing data", `{"tool": "calculate", "params": {"expression": "1"}} {}`, http.StatusBadRequest, "bad_request"},
	}
	s, _ := newServer()
	h := s.Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/tool", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			out := decodeResponse(t, rec)
			require.NotNil(t, out.Error)
			assert.Equal(t, tt.kind, out.Error.Kind)
			assert.Nil(t, out.Result)
		})
	}
}

func TestParseErrorCarriesOffset(t *testing.T) {
	s, _ := newServer()
	rec := do(t, s.Handler(), http.MethodPost, "/tool", `{"tool": "calculate", "params": {"expression": "2 + * 3"}}`)
	out := decodeResponse(t, rec)
	require.NotNil(t, out.Error)
	assert.Equal(t, "parse", out.Error.Stage)
	require.NotNil(t, out.Error.Offset)
	assert.Equal(t, 4, *out.Error.Offset)
}

func TestBodyLimit(t *testing.T) {
	s, _ := newServer(func(c *config.ServerConfig) { c.MaxBodyBytes = 16 })
	rec := do(t, s.Handler(), http.MethodPost, "/tool", `{"tool": "calculate", "params": {"expression": "1+1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newServer()
	rec := do(t, s.Handler(), http.MethodGet, "/tool", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ============================================================
// /batch
// ============================================================

func TestBatchKeepsOrder(t *testing.T) {
	s, _ := newServer(func(c *config.ServerConfig) { c.BatchConcurrency = 2 })
	body := `[
		{"tool": "calculate", "params": {"expression": "1+1"}},
		{"tool": "calculate", "params": {"expression": ""}},
		{"tool": "calculate_derivative", "params": {"expression": "x^3"}}
	]`
	rec := do(t, s.Handler(), http.MethodPost, "/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out []response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "2", out[0].Result["result"])
	require.NotNil(t, out[1].Error)
	assert.Equal(t, "parse_error", out[1].Error.Kind)
	assert.Equal(t, "3*x^2", out[2].Result["derivative"])
}

func TestBatchLimits(t *testing.T) {
	s, _ := newServer(func(c *config.ServerConfig) { c.MaxBatch = 1 })
	h := s.Handler()
	rec := do(t, h, http.MethodPost, "/batch", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	two := `[{"tool": "calculate", "params": {"expression": "1"}}, {"tool": "calculate", "params": {"expression": "2"}}]`
	rec = do(t, h, http.MethodPost, "/batch", two)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================
// Middleware and metadata routes
// ============================================================

func TestRateLimit(t *testing.T) {
	s, _ := newServer(func(c *config.ServerConfig) {
		c.RateLimit = 0.001
		c.Burst = 1
	})
	h := s.Handler()
	body := `{"tool": "calculate", "params": {"expression": "1"}}`
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/tool", body).Code)
	rec := do(t, h, http.MethodPost, "/tool", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code, "metadata routes are not limited")
}

func TestRequestID(t *testing.T) {
	s, _ := newServer()
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "8f14e45f-ceea-467f-a0e6-1f2d3c4b5a69")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "8f14e45f-ceea-467f-a0e6-1f2d3c4b5a69", rec.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "not a uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid", rec.Header().Get(HeaderRequestID))
}

func TestSchema(t *testing.T) {
	s, _ := newServer()
	rec := do(t, s.Handler(), http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var spec struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	names := make([]string, len(spec.Tools))
	for i, tool := range spec.Tools {
		names[i] = tool.Name
		assert.Equal(t, "object", tool.InputSchema["type"])
	}
	assert.Equal(t, []string{
		"calculate", "solve_equation", "solve_system",
		"calculate_derivative", "calculate_integral", "calculate_limit",
	}, names)
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newServer()
	h := s.Handler()
	do(t, h, http.MethodPost, "/tool", `{"tool": "calculate", "params": {"expression": "1+1"}}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `latexcalc_calls_total{op="calculate",outcome="ok"} 1`)
	assert.Contains(t, body, `latexcalc_http_requests_total{method="POST",route="/tool",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusRequestTimeout, statusFor(latexcalc.ErrTimeout))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(latexcalc.ErrNoClosedForm))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
