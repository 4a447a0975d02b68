package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/calendarbot/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	Long: `Serves the bot over HTTP: POST /api/messages for chat turns, server-sent
events per conversation, the OAuth sign-in callback and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Addr, _ = cmd.Flags().GetString("addr")

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		app, err := cli.Build(cfg, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Serve(ctx, app)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
