package main

import (
	"fmt"

	"github.com/aretw0/pathquiz"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pathquiz",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pathquiz version %s\n", pathquiz.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
