package environment

import (
	"fmt"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
)

// Kind selects how the validator's initial state is produced.
type Kind string

const (
	// KindFresh starts an empty network, optionally preloading accounts.
	KindFresh Kind = "fresh"
	// KindFork copies initial state from a remote live network at a slot.
	KindFork Kind = "fork"
	// KindCustom boots from a caller-supplied genesis spec file.
	KindCustom Kind = "custom"
)

// PreloadedAccount is an account seeded into a fresh network at startup.
type PreloadedAccount struct {
	Pubkey   string `json:"pubkey" yaml:"pubkey"`
	Lamports uint64 `json:"lamports" yaml:"lamports"`
}

// Environment is a named, durable configuration for one validator instance.
type Environment struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Kind        Kind   `json:"kind"`

	ControlPort int    `json:"controlPort"`
	EventPort   int    `json:"eventPort"`
	WorkDir     string `json:"workDir"`

	// Fork parameters, only for KindFork.
	RemoteEndpoint string `json:"remoteEndpoint,omitempty"`
	ForkSlot       uint64 `json:"forkSlot,omitempty"`

	// Genesis spec path, only for KindCustom.
	GenesisPath string `json:"genesisPath,omitempty"`

	// Accounts preloaded at startup, only for KindFresh.
	Accounts []PreloadedAccount `json:"accounts,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks that the environment is internally consistent.
// Remote reachability for forks is deliberately not checked here; that is
// deferred to spawn time.
func (e *Environment) Validate() error {
	if err := config.ValidateEnvName(e.Name); err != nil {
		return err
	}

	if e.ControlPort <= 0 || e.ControlPort > 65535 {
		return fmt.Errorf("control port %d out of range", e.ControlPort)
	}
	if e.EventPort <= 0 || e.EventPort > 65535 {
		return fmt.Errorf("event port %d out of range", e.EventPort)
	}
	if e.ControlPort == e.EventPort {
		return fmt.Errorf("control port and event port must differ (both %d)", e.ControlPort)
	}
	if e.WorkDir == "" {
		return fmt.Errorf("working directory is required")
	}

	switch e.Kind {
	case KindFresh:
		for i, acct := range e.Accounts {
			if acct.Pubkey == "" {
				return fmt.Errorf("preloaded account %d has no pubkey", i)
			}
		}
	case KindFork:
		if e.RemoteEndpoint == "" {
			return fmt.Errorf("fork environments require a remote endpoint")
		}
		if len(e.Accounts) > 0 {
			return fmt.Errorf("preloaded accounts are only supported for fresh environments")
		}
	case KindCustom:
		if e.GenesisPath == "" {
			return fmt.Errorf("custom environments require a genesis spec path")
		}
		if len(e.Accounts) > 0 {
			return fmt.Errorf("preloaded accounts are only supported for fresh environments")
		}
	default:
		return fmt.Errorf("unknown environment kind %q", e.Kind)
	}

	return nil
}

// Label returns the display name if set, otherwise the identifier.
func (e *Environment) Label() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Name
}
