package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
)

var logsCmd = &cobra.Command{
	Use:   "logs [name]",
	Short: "Show an environment's lifecycle history",
	Long: `logs prints the audit trail for an environment: starts, stops,
crashes, clock moves, snapshots, and restores, in chronological order.
Without a name, the active environment's trail is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

var logsTail int

func init() {
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "Show only the last N entries")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	var name string
	switch {
	case len(args) == 1:
		name = args[0]
	case registry().Active() != "":
		name = registry().Active()
	default:
		return errors.InvalidArgument("no active environment; name one explicitly")
	}

	if len(args) == 1 && !registry().Exists(name) {
		return errors.EnvNotFound(name)
	}

	entries, err := trail().Entries(name)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No history for environment %s.\n", name)
		return nil
	}

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	for _, entry := range entries {
		line := fmt.Sprintf("%s  %-12s", entry.Timestamp.Local().Format("2006-01-02 15:04:05"), entry.Type)
		if entry.Slot > 0 {
			line += fmt.Sprintf("  slot=%d", entry.Slot)
		}
		if entry.SnapshotID != "" {
			line += fmt.Sprintf("  snapshot=%.12s", entry.SnapshotID)
		}
		if entry.ExitCode != 0 {
			line += fmt.Sprintf("  exit=%d", entry.ExitCode)
		}
		if entry.Details != "" {
			line += "  " + entry.Details
		}
		fmt.Println(line)
	}
	return nil
}
