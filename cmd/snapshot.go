package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
	"github.com/firefly-engineering/sandnet-ctl/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture and restore validator state",
	Long: `snapshot captures the active validator's full state (accounts,
programs, clock position) as one consistent record. Restoring a snapshot
rebuilds the environment's process and seeds the captured state into it,
which is the only way to move the clock backward.`,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Capture the active environment's state",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotCreate,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore an environment from a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotRestore,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotDelete,
}

var snapshotLabel string

func init() {
	snapshotCreateCmd.Flags().StringVarP(&snapshotLabel, "label", "l", "", "Human-readable snapshot label")

	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotListCmd, snapshotRestoreCmd, snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	snap, err := coordinator().Snapshot(context.Background(), snapshotLabel)
	if err != nil {
		return err
	}

	_ = trail().Append(audit.Entry{
		Type: "snapshotted", Environment: snap.Environment,
		Slot: snap.Slot, SnapshotID: snap.ID,
	})

	logSuccess("Snapshot %s captured", snap.ShortID())
	fmt.Printf("  Environment: %s\n", snap.Environment)
	fmt.Printf("  Slot: %d\n", snap.Slot)
	fmt.Printf("  Accounts: %d | Programs: %d\n", len(snap.Accounts), len(snap.Programs))
	if snap.Label != "" {
		fmt.Printf("  Label: %s\n", snap.Label)
	}
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	snaps, err := coordinator().Snapshots().List()
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots.")
		fmt.Println("Capture one with: sandnet-ctl snapshot create")
		return nil
	}

	fmt.Printf("%-14s %-16s %10s %20s  %s\n", "ID", "ENVIRONMENT", "SLOT", "CREATED", "LABEL")
	for _, snap := range snaps {
		fmt.Printf("%-14s %-16s %10d %20s  %s\n",
			snap.ShortID(), snap.Environment, snap.Slot,
			snap.CreatedAt.Local().Format("2006-01-02 15:04:05"), snap.Label)
	}
	return nil
}

func runSnapshotRestore(cmd *cobra.Command, args []string) error {
	snap, err := coordinator().Restore(context.Background(), args[0])
	if err != nil {
		return err
	}

	_ = trail().Append(audit.Entry{
		Type: "restored", Environment: snap.Environment,
		Slot: snap.Slot, SnapshotID: snap.ID,
	})

	logSuccess("Environment %s restored from %s", snap.Environment, snap.ShortID())
	fmt.Printf("  Slot: %d\n", snap.Slot)
	return nil
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	snap, err := snapshot.Resolve(coordinator().Snapshots(), args[0])
	if err != nil {
		return err
	}

	if err := coordinator().Snapshots().Delete(snap.ID); err != nil {
		return err
	}

	logSuccess("Snapshot %s deleted", snap.ShortID())
	return nil
}
