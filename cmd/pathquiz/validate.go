package main

import (
	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [definition.yaml]",
	Short: "Check a quiz definition for consistency",
	Long:  `Loads a quiz definition and reports missing results, out of range rules or malformed steps.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("definition")
		if len(args) > 0 {
			path = args[0]
		}
		return cli.RunValidate(cmd.Context(), path, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
