// Package main provides the articleclassifier CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath  string
	logLevel    string
	humanOutput bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "articleclassifier",
	Short: "Fetch, classify and chart the articles of a journal",
	Long: `articleclassifier downloads the articles of one journal from Scopus,
labels each abstract with one of your topics using a generative model,
and reports the result as a per-year timeline, an HTML chart and word clouds.

Typical flow:
  articleclassifier fetch --issn 0167-2789 --output physica.csv
  articleclassifier classify --input physica.csv --topics "Chaos, Solitons, Turbulence"
  articleclassifier chart --input physica.csv --open

Results are printed as JSON unless --human is given. API keys may be kept in
a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config (defaults to $ARTICLE_CLASSIFIER_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// loadConfig reads the config and applies the command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, &configError{err: err}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// withApp builds the application for one command and releases it afterwards.
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app.Application) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level, nil)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	return run(cmd.Context(), a)
}

func closeApp(a *app.Application, logger *slog.Logger) {
	if err := a.Close(); err != nil {
		logger.Warn("shutdown", "error", err)
	}
}
