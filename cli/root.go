package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"projectboard/config"
	"projectboard/logging"
)

var rootCmd = &cobra.Command{
	Use:   "projectboard",
	Short: "Project board API",
	Long: `projectboard serves the project dashboard API: projects, members,
tasks and live project updates.

Running it without a subcommand starts the server.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.LogFile, cfg.LogLevel)
	return cfg, nil
}
