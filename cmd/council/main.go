// Command council convenes multi-persona deliberations from the terminal
// and serves them over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coreason/council/council"
	"github.com/coreason/council/observability"
)

var (
	cfgPath string
	verbose bool
	cfg     *council.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "council",
	Short: "Multi-persona deliberation engine",
	Long: `council convenes a panel of personas on a topic, runs debate rounds
until their positions converge, and reports the verdict with its
confidence score and any dissent.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		if cfgPath == "" {
			defaults := council.DefaultConfig()
			cfg = &defaults
			return nil
		}

		loaded, err := council.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to council config JSON file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging to stderr")

	rootCmd.AddCommand(conveneCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(personasCmd)
}

// setupLogging builds the stderr logger and rebinds the shared "slog"
// observer to it. The observer registry captures slog.Default at package
// init, before the --verbose flag is known.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
