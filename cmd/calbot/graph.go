package main

import (
	"fmt"

	"github.com/aretw0/calendarbot/internal/cli"
	"github.com/aretw0/calendarbot/internal/flows"
	"github.com/aretw0/calendarbot/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dialog flow visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the registered dialog sequences.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Console = true

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		app, err := cli.Build(cfg, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Bot.Inspect(), flows.MainSequence, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
