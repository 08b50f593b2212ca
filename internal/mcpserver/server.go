// Package mcpserver exposes the calculator tools to MCP clients over stdio
// or SSE.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc"
)

// Name is the server name announced to clients.
const Name = "latexcalc"

// Server wraps a Calculator as an MCP server.
type Server struct {
	calc      *latexcalc.Calculator
	log       *zap.Logger
	mcpServer *server.MCPServer
}

// New registers one MCP tool per calculator operation.
func New(calc *latexcalc.Calculator, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		calc: calc,
		log:  log.Named("mcp"),
		mcpServer: server.NewMCPServer(Name, strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions("Evaluate, solve, differentiate, integrate and take limits of LaTeX math. Inputs are LaTeX strings."),
		),
	}
	for _, spec := range latexcalc.Tools() {
		s.mcpServer.AddTool(toolFor(spec), s.handler(spec.Name))
	}
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcpServer }

func toolFor(spec latexcalc.ToolSpec) mcp.Tool {
	required := map[string]bool{}
	for _, r := range spec.Required {
		required[r] = true
	}
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for name, p := range spec.Properties {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if required[name] {
			popts = append(popts, mcp.Required())
		}
		if p.Type == "array" {
			opts = append(opts, mcp.WithArray(name, append(popts, mcp.WithStringItems())...))
			continue
		}
		opts = append(opts, mcp.WithString(name, popts...))
	}
	return mcp.NewTool(spec.Name, opts...)
}

// handler runs one tool call. Calculator failures become tool errors so
// that the client sees the message; the protocol-level error is reserved
// for encoding failures.
func (s *Server) handler(tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.NewString()
		start := time.Now()
		resp := s.calc.Handle(ctx, latexcalc.ToolRequest{Tool: tool, Params: req.GetArguments()})
		s.log.Debug("tool call",
			zap.String("request_id", id),
			zap.String("tool", tool),
			zap.Duration("elapsed", time.Since(start)),
			zap.Bool("failed", resp.Error != nil))

		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Error.Kind, resp.Error.Message)), nil
		}
		text, err := json.Marshal(resp.Result)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", tool, err)
		}
		return mcp.NewToolResultStructured(resp.Result, string(text)), nil
	}
}

// ServeStdio serves newline-delimited JSON-RPC on in and out until ctx is
// cancelled or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("serving MCP on stdio")
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	return stdio.Listen(ctx, in, out)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	r := chi.NewRouter()
	r.Handle("/sse", sse.SSEHandler())
	r.Handle("/message", sse.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("serving MCP over SSE", zap.String("addr", addr))
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sse.Shutdown(shutdownCtx)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}
