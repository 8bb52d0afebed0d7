package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	securejoin "github.com/cyphar/filepath-securejoin"
)

const (
	DefaultConfigDir = "/etc/sandnet"
	DefaultStateDir  = "/var/lib/sandnet"

	// Defaults stated by the controller contract.
	DefaultHealthTimeout  = 30 * time.Second
	DefaultHealthInterval = 200 * time.Millisecond
	DefaultClockTimeout   = 10 * time.Second
	DefaultGracePeriod    = 5 * time.Second
	DefaultMonitorTick    = 2 * time.Second
)

// envNameRegex validates environment names.
// Names must start with a lowercase letter or digit, followed by lowercase
// letters, digits, underscores, or hyphens. Maximum length is 63 characters.
var envNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateEnvName checks if an environment name is valid.
func ValidateEnvName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}

	if !envNameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must start with a lowercase letter or digit, contain only lowercase letters, digits, underscores, or hyphens, and be at most 63 characters", name)
	}

	return nil
}

// SafePath joins name+suffix under baseDir, guaranteeing the result cannot
// escape baseDir even for hostile names.
func SafePath(baseDir, name, suffix string) (string, error) {
	return securejoin.SecureJoin(baseDir, name+suffix)
}

// Paths holds the configured directory layout.
type Paths struct {
	ConfigDir       string
	StateDir        string
	EnvironmentsDir string
	SnapshotsDir    string
}

// DefaultPaths returns the default path configuration.
func DefaultPaths() *Paths {
	return PathsUnder(DefaultConfigDir, DefaultStateDir)
}

// PathsUnder returns a path configuration rooted at the given directories.
func PathsUnder(configDir, stateDir string) *Paths {
	return &Paths{
		ConfigDir:       configDir,
		StateDir:        stateDir,
		EnvironmentsDir: filepath.Join(stateDir, "environments"),
		SnapshotsDir:    filepath.Join(stateDir, "snapshots"),
	}
}

// EnsureDirs creates the state directories if they do not exist.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.StateDir, p.EnvironmentsDir, p.SnapshotsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Duration is a TOML-friendly wrapper around time.Duration.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Settings holds controller-level settings from config.toml.
type Settings struct {
	Validator struct {
		// Binary is the validator executable name or path.
		Binary string `toml:"binary"`
	} `toml:"validator"`

	Timeouts struct {
		Health Duration `toml:"health"`
		Clock  Duration `toml:"clock"`
		Grace  Duration `toml:"grace"`
	} `toml:"timeouts"`

	Monitor struct {
		Interval Duration `toml:"interval"`
	} `toml:"monitor"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.Validator.Binary = "sandnet-validator"
	s.Timeouts.Health = Duration{DefaultHealthTimeout}
	s.Timeouts.Clock = Duration{DefaultClockTimeout}
	s.Timeouts.Grace = Duration{DefaultGracePeriod}
	s.Monitor.Interval = Duration{DefaultMonitorTick}
	return s
}

// LoadSettings loads settings from {configDir}/config.toml. A missing file
// yields the defaults; a malformed file is an error.
func LoadSettings(configDir string) (*Settings, error) {
	settings := DefaultSettings()

	path := filepath.Join(configDir, "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	return settings, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	if s.Validator.Binary == "" {
		return fmt.Errorf("validator.binary is required")
	}
	if s.Timeouts.Health.Duration <= 0 {
		return fmt.Errorf("timeouts.health must be positive")
	}
	if s.Timeouts.Clock.Duration <= 0 {
		return fmt.Errorf("timeouts.clock must be positive")
	}
	if s.Timeouts.Grace.Duration <= 0 {
		return fmt.Errorf("timeouts.grace must be positive")
	}
	if s.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	return nil
}
