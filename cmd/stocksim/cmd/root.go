package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stocksim",
	Short: "A stock trading game driven by a GJR-GARCH price simulator",
	Long: `Stocksim is a single-player stock trading game over the WSE equity universe.

It provides tools for:
  - Serving the game as a REST API
  - Playing a headless game from the command line
  - Querying finished games from the history journal
  - Generating and validating configuration files

Prices move one trading day at a time, simulated from each symbol's daily
history with a GJR-GARCH(1,1) model and occasional random market events.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON), defaults when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
