package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/calendarbot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of calbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "calbot version %s\n", strings.TrimSpace(calendarbot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
