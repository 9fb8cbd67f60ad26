package main

import (
	"github.com/aretw0/pathquiz"
	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves quiz sessions as a JSON API with server-sent events and Prometheus metrics.
Stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.Build(sigCtx, cfg, cli.WithLogger(cli.NewServerLogger(cfg.Debug)))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.ListenAndServe(sigCtx, app, pathquiz.Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default 8080)")
}
