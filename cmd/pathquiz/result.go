package main

import (
	"os"

	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/aretw0/pathquiz/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Print the recommendation for a full answer sequence",
	Example: `  pathquiz result --answers 0,3,0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetString("answers")
		answers, err := cli.ParseAnswers(raw)
		if err != nil {
			return err
		}

		app, err := cli.Build(cmd.Context(), cfg, cli.WithLogger(cli.NewLogger(cfg.Debug)))
		if err != nil {
			return err
		}
		defer app.Close()

		var opts []tui.PresenterOption
		if tui.IsInteractive(os.Stdout) {
			opts = append(opts, tui.WithMarkdownRenderer(tui.NewRenderer()), tui.WithProfile(termenv.EnvColorProfile()))
		}
		return cli.RunResult(cmd.Context(), app, answers, tui.NewPresenter(cmd.OutOrStdout(), opts...))
	},
}

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.Flags().String("answers", "", "Comma separated 0-based option indexes, one per step")
	_ = resultCmd.MarkFlagRequired("answers")
}
