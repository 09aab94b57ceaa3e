// Package cmd holds the roadrunner command line: the HTTP server and its
// maintenance commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/roadrunner/api-go/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "roadrunner",
	Short: "Roadrunner travel planning API",
	Long: `Roadrunner serves the travel planning REST API: cities and places with
ratings, comments and visits, and trips with packing checklists and documents.

Configuration is read from defaults, then an optional YAML file, then .env,
then the process environment.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (default $CONFIG_FILE)")
}

// loadConfig reads the configuration and builds the logger that fits its environment.
func loadConfig() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
