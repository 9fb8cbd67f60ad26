package main

import (
	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold an editable quiz project",
	Long: `Writes the built-in quiz as YAML, a seeded SQLite course catalog and a .env that points
at both. Run pathquiz from that directory to play or serve the edited quiz.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		return cli.RunInit(cmd.Context(), dir, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
