package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/njchilds90/latexcalc/internal/mcpserver"
	"github.com/njchilds90/latexcalc/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Server
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return server.New(a.calc, cfg, a.log, a.metrics).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	var transport, addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the calculator tools to MCP clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.MCP
			if transport != "" {
				cfg.Transport = transport
			}
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			s := mcpserver.New(a.calc, version, a.log)
			switch cfg.Transport {
			case "stdio":
				return s.ServeStdio(ctx, os.Stdin, cmd.OutOrStdout())
			case "sse":
				return s.ServeSSE(ctx, cfg.Addr)
			default:
				return fmt.Errorf("unknown MCP transport %q", cfg.Transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", "stdio or sse (overrides config)")
	cmd.Flags().StringVar(&addr, "addr", "", "SSE listen address (overrides config)")
	return cmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
