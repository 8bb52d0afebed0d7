package supervisor

import (
	"strconv"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
)

// BuildSpec constructs the validator invocation for an environment.
//
// The flag surface is fixed: control port, event port, and ledger directory
// always; fork or genesis flags depending on the environment kind.
func BuildSpec(binary string, env *environment.Environment) Spec {
	args := []string{
		"--control-port", strconv.Itoa(env.ControlPort),
		"--event-port", strconv.Itoa(env.EventPort),
		"--ledger", env.WorkDir,
	}

	switch env.Kind {
	case environment.KindFork:
		args = append(args, "--fork-url", env.RemoteEndpoint)
		if env.ForkSlot > 0 {
			args = append(args, "--fork-slot", strconv.FormatUint(env.ForkSlot, 10))
		}
	case environment.KindCustom:
		args = append(args, "--genesis", env.GenesisPath)
	}

	return Spec{Binary: binary, Args: args, WorkDir: env.WorkDir}
}

// CommandLine renders a spec as a shell-quoted string for logs and
// `env show` output.
func (s Spec) CommandLine() string {
	return shellquote.Join(append([]string{s.Binary}, s.Args...)...)
}
