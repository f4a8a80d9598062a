package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autosentience/vigil/internal/logging"
)

const Version = "0.1.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - AI-driven vehicle predictive maintenance",
	Long: `Vigil ingests vehicle telemetry, detects threshold violations with a
rule engine, and drives a multi-agent AI workflow that diagnoses faults,
notifies users, schedules service and audits its own behavior.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(simulateCmd)
}

// HandleError prints the error and exits.
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
