package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Control the active environment's clock",
	Long: `clock moves the validator's clock deterministically. The clock only
moves forward; rewinding requires restoring a snapshot.`,
}

var clockAdvanceCmd = &cobra.Command{
	Use:   "advance <delta>",
	Short: "Advance the clock by a number of slots",
	Args:  cobra.ExactArgs(1),
	RunE:  runClockAdvance,
}

var clockWarpCmd = &cobra.Command{
	Use:   "warp <slot>",
	Short: "Warp the clock to an absolute slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runClockWarp,
}

func init() {
	clockCmd.AddCommand(clockAdvanceCmd, clockWarpCmd)
	rootCmd.AddCommand(clockCmd)
}

func runClockAdvance(cmd *cobra.Command, args []string) error {
	delta, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return errors.InvalidArgument("delta must be a positive integer: " + args[0])
	}

	slot, err := coordinator().Advance(context.Background(), delta)
	if err != nil {
		return err
	}

	logSuccess("Clock advanced by %d to slot %d", delta, slot)
	return nil
}

func runClockWarp(cmd *cobra.Command, args []string) error {
	target, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return errors.InvalidArgument("target slot must be a non-negative integer: " + args[0])
	}

	slot, err := coordinator().Warp(context.Background(), target)
	if err != nil {
		if errors.Is(err, errors.ErrCannotRewind) {
			logWarning("%v", err)
			logInfo("Rewind via: sandnet-ctl snapshot restore <id>")
		}
		return err
	}

	logSuccess("Clock warped to slot %d", slot)
	return nil
}
