package main

import (
	"os"

	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/aretw0/pathquiz/internal/config"
	"github.com/aretw0/pathquiz/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the quiz in the terminal",
	Long: `Plays the quiz interactively. Type an option number to answer, b to go back,
r to restart and q to quit.

With --session the progress is kept in the file store (unless another store is configured)
and resumed on the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		if sessionID != "" && !cmd.Flags().Changed("store") && cfg.Store == config.StoreMemory {
			cfg.Store = config.StoreFile
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.RunPlay(sigCtx, cfg, cli.PlayOptions{
			In:          os.Stdin,
			Out:         cmd.OutOrStdout(),
			SessionID:   sessionID,
			Interactive: tui.IsInteractive(os.Stdout),
			JSON:        jsonMode,
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringP("session", "s", "", "Named session to resume or create")
	playCmd.Flags().Bool("json", false, "Run in JSON mode (JSON lines output, plain or JSON string commands)")

	rootCmd.RunE = playCmd.RunE
	rootCmd.Flags().AddFlagSet(playCmd.Flags())
}
