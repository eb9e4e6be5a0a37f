package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mhpenta/nailgen/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nailgen",
	Short: "Nail art image generation with provider fallback",
	Long: `nailgen turns a nail design description and a skin tone into an image.
Backends are tried in order until one succeeds; when all of them fail a
local placeholder image is returned instead.`,
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
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
}

// loadConfig reads the configuration named by --config and installs its logger
// as the slog default.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
