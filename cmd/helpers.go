package cmd

import (
	"github.com/firefly-engineering/sandnet-ctl/internal/app"
	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/control"
	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
)

// paths returns the configured paths.
// This is a helper to reduce repetition in commands.
func paths() *config.Paths {
	return app.Default.Paths
}

// settings returns the loaded controller settings.
func settings() *config.Settings {
	return app.Default.Settings
}

// coordinator returns the application coordinator.
func coordinator() *control.Coordinator {
	return app.Default.Coordinator
}

// registry returns the environment registry.
func registry() *environment.Registry {
	return app.Default.Registry
}

// trail returns the audit trail.
func trail() *audit.Trail {
	return app.Default.Trail
}

// loadEnvironment loads an environment definition by name.
func loadEnvironment(name string) (*environment.Environment, error) {
	return registry().Get(name)
}

// listEnvironments lists all defined environments.
func listEnvironments() ([]*environment.Environment, error) {
	return registry().List()
}
