package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/calendarbot/internal/cli"
	"github.com/aretw0/calendarbot/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the bot as MCP tools so an AI agent can chat with it.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Console = true
		opts.Token, _ = cmd.Flags().GetString("token")
		if opts.Token == "" {
			opts.Token = os.Getenv(EnvToken)
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		app, err := cli.Build(cfg, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Bot, app.Logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			app.Logger.Info("Starting calbot MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			keys := cfg.HTTP.Keys()
			if len(keys) == 0 {
				return cli.ErrNoAPIKeys
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			addr := fmt.Sprintf(":%d", port)
			return srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port), keys...)
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("token", "", "Graph access token (default $"+EnvToken+")")
}
