package main

import (
	"github.com/aretw0/pathquiz"
	"github.com/aretw0/pathquiz/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes quiz sessions as MCP tools so AI agents can play the quiz.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP on the configured port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Logs go to stderr so they don't corrupt JSON-RPC on stdout.
		app, err := cli.Build(sigCtx, cfg, cli.WithLogger(cli.NewServerLogger(cfg.Debug)))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.ServeMCP(sigCtx, app, transport, pathquiz.Version)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().StringP("port", "p", "", "Port to listen on (only for SSE)")
}
