package main

import (
	"github.com/aretw0/calendarbot/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted conversations",
	Long:  `List, inspect, and remove sessions in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer storage.Close()
		return cli.ListSessions(cmd.Context(), storage.Sessions, cmd.OutOrStdout())
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer storage.Close()
		reveal, _ := cmd.Flags().GetBool("reveal")
		return cli.InspectSession(cmd.Context(), cli.AdminStore(storage, reveal), args[0], cmd.OutOrStdout())
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id...]",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return cmd.Usage()
		}
		storage, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer storage.Close()
		return cli.RemoveSessions(cmd.Context(), storage.Sessions, args, all, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("reveal", false, "Show attendees and tokens instead of masking them")
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")
}

func openStorage(cmd *cobra.Command) (*cli.Storage, error) {
	opts := options(cmd)
	cfg, err := cli.LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.Log, nil)
	if err != nil {
		return nil, err
	}
	return cli.OpenStorage(cfg.Store, logger)
}
