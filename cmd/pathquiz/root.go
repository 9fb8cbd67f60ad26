package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pathquiz/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pathquiz",
	Short: "pathquiz recommends a learning path through a short quiz",
	Long: `pathquiz asks a few single-choice questions and recommends a learning path with courses.
Play it in the terminal, or serve it over HTTP or MCP.

Configuration comes from PATHQUIZ_* environment variables (optionally from a .env file);
flags override them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("env-file", ".env", "Optional dotenv file to load before reading the environment")
	f.String("definition", "", "Quiz definition YAML (default: built-in learning path quiz)")
	f.String("store", "", "Session store: memory, file or redis")
	f.String("session-dir", "", "Directory of the file store (default .pathquiz/sessions)")
	f.String("catalog-db", "", "SQLite course catalog, seeded when empty (default: in-memory catalog)")
	f.Bool("debug", false, "Enable debug logging on stderr")
}

// loadConfig reads the environment and applies the flags explicitly set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("definition") {
		cfg.Definition, _ = flags.GetString("definition")
	}
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if flags.Changed("session-dir") {
		cfg.SessionDir, _ = flags.GetString("session-dir")
	}
	if flags.Changed("catalog-db") {
		cfg.CatalogDB, _ = flags.GetString("catalog-db")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Port, _ = flags.GetString("port")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
