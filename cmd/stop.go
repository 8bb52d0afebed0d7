package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active environment",
	Long: `stop terminates the active validator: graceful signal first, then a
forced kill after the grace period. Stopping is also how an errored
environment is cleared.`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	name := registry().Active()

	if err := coordinator().Stop(context.Background()); err != nil {
		return err
	}

	if name != "" {
		_ = trail().Append(audit.Entry{Type: "stopped", Environment: name})
		logSuccess("Environment %s stopped", name)
	} else {
		logSuccess("Stopped")
	}
	return nil
}
