package environment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the YAML representation accepted by `env create -f`.
type Spec struct {
	Name        string             `yaml:"name"`
	DisplayName string             `yaml:"displayName"`
	Kind        string             `yaml:"kind"`
	ControlPort int                `yaml:"controlPort"`
	EventPort   int                `yaml:"eventPort"`
	WorkDir     string             `yaml:"workDir"`
	Remote      string             `yaml:"remote"`
	ForkSlot    uint64             `yaml:"forkSlot"`
	Genesis     string             `yaml:"genesis"`
	Accounts    []PreloadedAccount `yaml:"accounts"`
}

// LoadSpec reads and parses an environment spec file.
func LoadSpec(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse spec file: %w", err)
	}

	return spec.Environment()
}

// Environment converts a parsed spec into an Environment. The kind defaults
// to fresh when omitted; full validation happens at registry create time.
func (s *Spec) Environment() (*Environment, error) {
	kind := Kind(s.Kind)
	if s.Kind == "" {
		kind = KindFresh
	}

	switch kind {
	case KindFresh, KindFork, KindCustom:
	default:
		return nil, fmt.Errorf("unknown kind %q (want fresh, fork, or custom)", s.Kind)
	}

	return &Environment{
		Name:           s.Name,
		DisplayName:    s.DisplayName,
		Kind:           kind,
		ControlPort:    s.ControlPort,
		EventPort:      s.EventPort,
		WorkDir:        s.WorkDir,
		RemoteEndpoint: s.Remote,
		ForkSlot:       s.ForkSlot,
		GenesisPath:    s.Genesis,
		Accounts:       s.Accounts,
	}, nil
}
