package main

import (
	"fmt"
	"os"

	"github.com/aretw0/calendarbot/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "calbot",
	Short: "calbot is a chat bot for Microsoft Graph calendars",
	Long: `calbot lets chat users sign in with their Microsoft account, look at their
profile and upcoming events, and schedule new meetings in plain language.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default calbot.yaml if present)")
	rootCmd.PersistentFlags().String("store", "", "Session store driver: memory, file or redis")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// options collects the persistent flags shared by every command.
func options(cmd *cobra.Command) cli.Options {
	path, _ := cmd.Flags().GetString("config")
	store, _ := cmd.Flags().GetString("store")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{ConfigPath: path, Store: store, Debug: debug}
}
