package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	gkmcp "github.com/UNI-BIG-CAT/gatekeeper/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes token verification,
session introspection and revocation, and the admin directory as tools.

In stdio mode the server speaks JSON-RPC over stdin/stdout, for clients that launch
it as a subprocess. In http mode it serves Streamable HTTP on --addr.`,
		Example: `  gatekeeper mcp                              # stdio
  gatekeeper mcp --transport http --addr :3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), transport, addr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default: mcp.addr from config)")

	return cmd
}

func runMCP(ctx context.Context, transport, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout carries the protocol in stdio mode, so logs go to stderr only.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := gkmcp.NewMCPServer(a.sessions, a.store, versionString(), logger)

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "http":
		if addr == "" {
			addr = cfg.MCP.Addr
		}
		return srv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
