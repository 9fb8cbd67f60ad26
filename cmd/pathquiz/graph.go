package main

import (
	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the quiz as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) of the steps and the decision rules. With --session, the session's progress is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")

		app, err := cli.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunGraph(cmd.Context(), app, sessionID, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Session to highlight")
}
