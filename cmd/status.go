package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/control"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active environment's status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	st := coordinator().Status(context.Background())

	fmt.Printf("State: %s\n", st.State)

	if st.Environment == nil {
		if st.State == control.StateStopped {
			fmt.Println("No active environment.")
			fmt.Println("Start one with: sandnet-ctl start <name>")
		}
		return nil
	}

	fmt.Printf("Environment: %s\n", st.Environment.Label())
	fmt.Printf("Kind: %s\n", st.Environment.Kind)
	fmt.Printf("Control port: %d\n", st.Environment.ControlPort)
	fmt.Printf("Event port: %d\n", st.Environment.EventPort)

	if st.Pid > 0 {
		fmt.Printf("Pid: %d\n", st.Pid)
	}
	if !st.StartedAt.IsZero() {
		fmt.Printf("Uptime: %s\n", time.Since(st.StartedAt).Truncate(time.Second))
	}
	if st.SlotKnown {
		fmt.Printf("Slot: %d\n", st.Slot)
	}
	if st.Health != "" {
		fmt.Printf("Health: %s\n", st.Health)
	}
	if st.LastError != "" {
		logError("Last error: %s", st.LastError)
		fmt.Println("Clear with: sandnet-ctl stop")
	}
	return nil
}
