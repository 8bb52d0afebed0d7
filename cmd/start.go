package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/port"
	"github.com/firefly-engineering/sandnet-ctl/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [name]",
	Short: "Start an environment's validator",
	Long: `start spawns the validator for the named environment and waits for it
to answer health checks. Without a name, an interactive picker is shown.

Only one environment can run at a time; stop or switch first if another
is active.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	name, err := resolveEnvArg(args)
	if err != nil || name == "" {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := loadEnvironment(name)
	if err != nil {
		return err
	}

	logInfo("Starting environment %s...", env.Label())
	logging.Debug("starting environment", "name", name, "kind", env.Kind)

	if err := coordinator().Start(ctx, name); err != nil {
		if errors.Is(err, errors.ErrPortConflict) {
			if free, ferr := port.NextFree(env.ControlPort, env.EventPort); ferr == nil {
				logInfo("Next free port: %d (sandnet-ctl env create --control-port)", free)
			}
		}
		// A failed spawn leaves the environment errored until stopped.
		if !errors.Is(err, errors.ErrInvalidState) && !errors.Is(err, errors.ErrBusy) {
			logInfo("Clear the failed start with: sandnet-ctl stop")
		}
		return err
	}

	_ = trail().Append(audit.Entry{Type: "started", Environment: name})

	st := coordinator().Status(ctx)
	logSuccess("Environment %s running", env.Label())
	fmt.Printf("  Control: http://127.0.0.1:%d\n", env.ControlPort)
	fmt.Printf("  Events: ws://127.0.0.1:%d\n", env.EventPort)
	if st.SlotKnown {
		fmt.Printf("  Slot: %d\n", st.Slot)
	}
	fmt.Printf("  Watch: sandnet-ctl watch\n")
	return nil
}

// resolveEnvArg returns the environment name from args, falling back to
// the interactive picker when none was given.
func resolveEnvArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	envs, err := listEnvironments()
	if err != nil {
		return "", err
	}
	if len(envs) == 0 {
		return "", errors.New(errors.KindEnvNotFound, errors.ExitEnvNotFound,
			"no environments defined (create one with: sandnet-ctl env create)")
	}

	return tui.RunPicker(envs, registry().Active())
}
