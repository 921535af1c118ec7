package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Oldhoon/accessible-journeys/pkg/logger"
)

var log *slog.Logger

var rootCmd = &cobra.Command{
	Use:          "accessctl",
	Short:        "Operator tooling for accessible-journeys",
	Long:         "Summarizes exported report sets, rehearses the emergency countdown, and lists the accessibility feature catalogue.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		log = logger.NewText(level, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
