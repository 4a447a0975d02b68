package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/calendarbot/internal/cli"
	"github.com/aretw0/calendarbot/internal/presentation/tui"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/runner"
	"github.com/spf13/cobra"
)

// EnvToken supplies the Graph token for chat when --token is not given.
const EnvToken = "CALBOT_TOKEN"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Runs one conversation against stdin and stdout. Sign-in is replaced by a
Graph access token passed with --token or the CALBOT_TOKEN variable; a token
can be copied from Graph Explorer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Console = true
		opts.Token, _ = cmd.Flags().GetString("token")
		if opts.Token == "" {
			opts.Token = os.Getenv(EnvToken)
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		conversation, _ := cmd.Flags().GetString("conversation")
		user, _ := cmd.Flags().GetString("user")

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

		interactive := !jsonMode && tui.IsTerminal(os.Stdout)
		return cli.RunChat(ctx, app, cli.ChatOptions{
			In:       os.Stdin,
			Out:      os.Stdout,
			JSON:     jsonMode,
			Key:      domain.SessionKey{ConversationID: conversation, UserID: user},
			Banner:   interactive,
			Markdown: interactive,
			Width:    tui.Width(os.Stdout),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("token", "", "Graph access token (default $"+EnvToken+")")
	chatCmd.Flags().Bool("json", false, "Read JSON strings and write JSON message arrays")
	chatCmd.Flags().String("conversation", runner.DefaultSessionKey.ConversationID, "Conversation id of the session")
	chatCmd.Flags().String("user", runner.DefaultSessionKey.UserID, "User id of the session")
}
