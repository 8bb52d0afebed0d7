package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/monitor"
	"github.com/firefly-engineering/sandnet-ctl/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the active environment live",
	Long: `watch renders a live view of the coordinator: lifecycle state, clock
position, recent events, and validator output. A background monitor polls
health while the view is open, so crashes surface immediately.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := settings().Monitor.Interval.Duration
	if interval <= 0 {
		interval = config.DefaultMonitorTick
	}
	mon := monitor.New(interval, coordinator(), monitor.WithAuditTrail(trail()))
	go func() { _ = mon.Run(ctx) }()

	trail().Record(ctx, coordinator().Events())

	return tui.RunWatch(ctx, coordinator(), nil)
}
