package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "sandnet-ctl",
	Short: "Local simulated-network environment controller",
	Long: `sandnet-ctl manages local validator environments for protocol development.

Each environment is a named configuration for one validator process:
  - Fresh network, fork of a live network, or custom genesis
  - Dedicated control and event ports plus a ledger directory
  - Deterministic clock control (advance, warp)
  - Snapshot capture and restore for repeatable scenarios

At most one environment runs at a time.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)
