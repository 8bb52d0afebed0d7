// Package app provides the application context for sandnet-ctl.
// It allows dependency injection for testing.
package app

import (
	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
	"github.com/firefly-engineering/sandnet-ctl/internal/clock"
	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/control"
	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
	"github.com/firefly-engineering/sandnet-ctl/internal/health"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
	"github.com/firefly-engineering/sandnet-ctl/internal/snapshot"
	"github.com/firefly-engineering/sandnet-ctl/internal/supervisor"
)

// App holds the application dependencies.
type App struct {
	// Paths holds the configured paths.
	Paths *config.Paths

	// Settings is the loaded controller configuration.
	Settings *config.Settings

	// Registry stores environment definitions.
	Registry *environment.Registry

	// Supervisor spawns and terminates validator processes.
	Supervisor *supervisor.Supervisor

	// Coordinator serializes lifecycle operations.
	Coordinator *control.Coordinator

	// Trail is the lifecycle audit trail.
	Trail *audit.Trail

	// Dial builds control clients for validator ports.
	Dial netclient.Dialer

	launcher supervisor.Launcher
}

// Option is a function that configures the App.
type Option func(*App)

// WithPaths sets custom paths.
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithSettings sets custom settings, bypassing config.toml.
func WithSettings(settings *config.Settings) Option {
	return func(a *App) {
		a.Settings = settings
	}
}

// WithDialer sets a custom control-client dialer.
func WithDialer(dial netclient.Dialer) Option {
	return func(a *App) {
		a.Dial = dial
	}
}

// WithLauncher sets a custom process launcher.
func WithLauncher(l supervisor.Launcher) Option {
	return func(a *App) {
		a.launcher = l
	}
}

// New creates a new App with the given options and wires the controller
// stack. Settings come from {ConfigDir}/config.toml unless provided; a
// malformed file falls back to defaults with a warning so read-only verbs
// keep working.
func New(opts ...Option) *App {
	a := &App{
		Paths: config.DefaultPaths(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.Settings == nil {
		settings, err := config.LoadSettings(a.Paths.ConfigDir)
		if err != nil {
			logging.Warn("failed to load settings, using defaults", "error", err)
			settings = config.DefaultSettings()
		}
		a.Settings = settings
	}

	if a.Dial == nil {
		a.Dial = netclient.DialHTTP
	}
	if a.launcher == nil {
		a.launcher = supervisor.NewOSLauncher()
	}

	a.Registry = environment.NewRegistry(a.Paths.EnvironmentsDir)
	a.Supervisor = supervisor.New(a.launcher, a.Dial, a.Settings.Validator.Binary,
		supervisor.WithProbe(health.Probe{
			Interval: config.DefaultHealthInterval,
			Timeout:  a.Settings.Timeouts.Health.Duration,
		}),
		supervisor.WithGracePeriod(a.Settings.Timeouts.Grace.Duration))

	engine := snapshot.NewEngine(snapshot.NewFileStore(a.Paths.SnapshotsDir))
	a.Coordinator = control.NewCoordinator(
		a.Registry,
		a.Supervisor,
		clock.New(clock.WithTimeout(a.Settings.Timeouts.Clock.Duration)),
		engine,
		a.Dial,
		a.Paths.StateDir,
		control.WithGracePeriod(a.Settings.Timeouts.Grace.Duration),
	)
	a.Trail = audit.NewTrail(a.Paths.StateDir)

	if err := a.Coordinator.Reattach(); err != nil {
		logging.Warn("failed to reattach to previous run state", "error", err)
	}

	return a
}

// Default is the default application instance.
var Default = New()

// SetDefault sets the default application instance (used for testing).
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance.
func ResetDefault() {
	Default = New()
}
