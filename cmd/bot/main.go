package main

import (
	"fmt"
	"os"

	"kind-match/internal/config"
	"kind-match/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const app = "kind-match"

// Actual version can be specified in build command.
var version = "unknown"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "kind-match pairs workers with job listings over Telegram and HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app, err)
		os.Exit(1)
	}
}

// setup loads and validates the configuration and builds the logger every
// subcommand shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, log, nil
}
