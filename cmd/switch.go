package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
	"github.com/firefly-engineering/sandnet-ctl/internal/control"
)

var switchCmd = &cobra.Command{
	Use:   "switch [name]",
	Short: "Switch the active environment",
	Long: `switch stops the active environment and starts another in one
operation. By default the outgoing environment's state is captured first;
if that capture fails the switch is aborted and the outgoing environment
keeps running. Use --discard to skip the capture.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitch,
}

var switchDiscard bool

func init() {
	switchCmd.Flags().BoolVar(&switchDiscard, "discard", false, "Do not snapshot the outgoing environment")
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	target, err := resolveEnvArg(args)
	if err != nil || target == "" {
		return err
	}

	from := registry().Active()
	policy := control.SwitchSaveSnapshot
	if switchDiscard {
		policy = control.SwitchDiscard
	}

	logInfo("Switching to environment %s...", target)
	if err := coordinator().Switch(context.Background(), target, policy); err != nil {
		return err
	}

	_ = trail().Append(audit.Entry{Type: "switched", Environment: target, Details: "from " + from})

	logSuccess("Switched from %s to %s", from, target)
	if !switchDiscard {
		fmt.Printf("  Outgoing state captured: sandnet-ctl snapshot list\n")
	}
	return nil
}
