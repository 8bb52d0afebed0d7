package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/port"
	"github.com/firefly-engineering/sandnet-ctl/internal/supervisor"
	"github.com/firefly-engineering/sandnet-ctl/internal/tui"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage environment definitions",
}

var envCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Define a new environment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnvCreate,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List defined environments",
	Args:  cobra.NoArgs,
	RunE:  runEnvList,
}

var envShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an environment definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvShow,
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an environment definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvDelete,
}

var (
	envSpecFile    string
	envKind        string
	envControlPort int
	envEventPort   int
	envWorkDir     string
	envRemote      string
	envForkSlot    uint64
	envGenesis     string
	envDeleteTrail bool
)

func init() {
	envCreateCmd.Flags().StringVarP(&envSpecFile, "file", "f", "", "Environment spec file (YAML)")
	envCreateCmd.Flags().StringVarP(&envKind, "kind", "k", "fresh", "Environment kind: fresh, fork, or custom")
	envCreateCmd.Flags().IntVar(&envControlPort, "control-port", 0, "Control port (default: next free)")
	envCreateCmd.Flags().IntVar(&envEventPort, "event-port", 0, "Event port (default: next free)")
	envCreateCmd.Flags().StringVar(&envWorkDir, "ledger", "", "Ledger directory (default: under the state directory)")
	envCreateCmd.Flags().StringVar(&envRemote, "remote", "", "Remote RPC endpoint (fork only)")
	envCreateCmd.Flags().Uint64Var(&envForkSlot, "fork-slot", 0, "Slot to fork from (fork only, default: latest)")
	envCreateCmd.Flags().StringVar(&envGenesis, "genesis", "", "Genesis spec file (custom only)")

	envDeleteCmd.Flags().BoolVar(&envDeleteTrail, "purge-audit", false, "Also delete the environment's audit trail")

	envCmd.AddCommand(envCreateCmd, envListCmd, envShowCmd, envDeleteCmd)
	rootCmd.AddCommand(envCmd)
}

func runEnvCreate(cmd *cobra.Command, args []string) error {
	var env *environment.Environment

	if envSpecFile != "" {
		loaded, err := environment.LoadSpec(envSpecFile)
		if err != nil {
			return errors.ConfigError("invalid environment spec", err)
		}
		env = loaded
		if len(args) == 1 {
			env.Name = args[0]
		}
	} else {
		if len(args) != 1 {
			return errors.InvalidArgument("environment name required (or use -f <spec.yaml>)")
		}
		env = &environment.Environment{
			Name:           args[0],
			Kind:           environment.Kind(envKind),
			ControlPort:    envControlPort,
			EventPort:      envEventPort,
			WorkDir:        envWorkDir,
			RemoteEndpoint: envRemote,
			ForkSlot:       envForkSlot,
			GenesisPath:    envGenesis,
		}
	}

	if err := fillDefaults(env); err != nil {
		return err
	}

	if err := registry().Create(env); err != nil {
		return err
	}

	logSuccess("Environment %s created", env.Name)
	fmt.Printf("  Kind: %s\n", env.Kind)
	fmt.Printf("  Control port: %d\n", env.ControlPort)
	fmt.Printf("  Event port: %d\n", env.EventPort)
	fmt.Printf("  Ledger: %s\n", env.WorkDir)
	fmt.Printf("  Start: sandnet-ctl start %s\n", env.Name)
	return nil
}

// fillDefaults assigns free ports and a ledger directory when the caller
// left them out. Port suggestions exclude ports already reserved by other
// environments, not just ones currently bound.
func fillDefaults(env *environment.Environment) error {
	existing, err := listEnvironments()
	if err != nil {
		return err
	}
	var reserved []int
	for _, other := range existing {
		reserved = append(reserved, other.ControlPort, other.EventPort)
	}

	if env.ControlPort == 0 {
		p, err := port.NextFree(reserved...)
		if err != nil {
			return errors.PortConflict(0, err)
		}
		env.ControlPort = p
		reserved = append(reserved, p)
	}
	if env.EventPort == 0 {
		p, err := port.NextFree(reserved...)
		if err != nil {
			return errors.PortConflict(0, err)
		}
		env.EventPort = p
	}
	if env.WorkDir == "" && env.Name != "" {
		env.WorkDir = filepath.Join(paths().StateDir, "ledgers", env.Name)
	}
	return nil
}

func runEnvList(cmd *cobra.Command, args []string) error {
	envs, err := listEnvironments()
	if err != nil {
		return err
	}

	fmt.Print(tui.SimpleList(envs, registry().Active()))
	return nil
}

func runEnvShow(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Environment: %s\n", env.Name)
	if env.DisplayName != "" {
		fmt.Printf("Display name: %s\n", env.DisplayName)
	}
	fmt.Printf("Kind: %s\n", env.Kind)
	fmt.Printf("Control port: %d\n", env.ControlPort)
	fmt.Printf("Event port: %d\n", env.EventPort)
	fmt.Printf("Ledger: %s\n", env.WorkDir)
	switch env.Kind {
	case environment.KindFork:
		fmt.Printf("Remote: %s\n", env.RemoteEndpoint)
		if env.ForkSlot > 0 {
			fmt.Printf("Fork slot: %d\n", env.ForkSlot)
		}
	case environment.KindCustom:
		fmt.Printf("Genesis: %s\n", env.GenesisPath)
	case environment.KindFresh:
		if len(env.Accounts) > 0 {
			fmt.Printf("Preloaded accounts: %d\n", len(env.Accounts))
		}
	}
	fmt.Printf("Created: %s\n", env.CreatedAt.Format("2006-01-02 15:04:05"))

	spec := supervisor.BuildSpec(settings().Validator.Binary, env)
	fmt.Printf("\nCommand: %s\n", spec.CommandLine())

	if conflict := port.FirstUnavailable(env.ControlPort, env.EventPort); conflict != 0 {
		logWarning("Port %d is currently in use; starting this environment will fail", conflict)
		if free, err := port.NextFree(env.ControlPort, env.EventPort); err == nil {
			logInfo("Next free port: %d", free)
		}
	}
	return nil
}

func runEnvDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := registry().Delete(name); err != nil {
		return err
	}
	if envDeleteTrail {
		if err := trail().Remove(name); err != nil {
			logWarning("Failed to delete audit trail: %v", err)
		}
	}

	logSuccess("Environment %s deleted", name)
	return nil
}
