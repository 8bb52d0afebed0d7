package app

import (
	"testing"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
	"github.com/firefly-engineering/sandnet-ctl/internal/supervisor"
)

func TestNew(t *testing.T) {
	app := New(WithPaths(config.PathsUnder(t.TempDir(), t.TempDir())))

	if app == nil {
		t.Fatal("New() returned nil")
	}
	if app.Paths == nil || app.Settings == nil {
		t.Error("Paths and Settings should be wired")
	}
	if app.Registry == nil || app.Supervisor == nil || app.Coordinator == nil || app.Trail == nil {
		t.Error("controller stack should be wired")
	}
}

func TestNew_WithPaths(t *testing.T) {
	customPaths := config.PathsUnder("/custom/config", "/custom/state")

	app := New(WithPaths(customPaths), WithSettings(config.DefaultSettings()))

	if app.Paths != customPaths {
		t.Error("WithPaths did not set custom paths")
	}
}

func TestNew_WithSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Validator.Binary = "custom-validator"
	settings.Timeouts.Grace = config.Duration{Duration: time.Second}

	app := New(
		WithPaths(config.PathsUnder(t.TempDir(), t.TempDir())),
		WithSettings(settings),
	)

	if app.Settings.Validator.Binary != "custom-validator" {
		t.Errorf("binary = %q", app.Settings.Validator.Binary)
	}
}

func TestNew_WithInjectedFakes(t *testing.T) {
	launcher := supervisor.NewFakeLauncher()
	validator := netclient.NewFake()

	app := New(
		WithPaths(config.PathsUnder(t.TempDir(), t.TempDir())),
		WithLauncher(launcher),
		WithDialer(validator.Dial),
	)

	if app.Dial == nil {
		t.Fatal("dialer not wired")
	}
	// The injected dialer must reach the fake, not a real socket.
	if app.Dial(9999) != netclient.Client(validator) {
		t.Error("dialer should yield the injected fake")
	}
}

func TestSetDefault(t *testing.T) {
	original := Default
	defer SetDefault(original)

	custom := New(WithPaths(config.PathsUnder(t.TempDir(), t.TempDir())))
	SetDefault(custom)

	if Default != custom {
		t.Error("SetDefault did not replace the default instance")
	}
}
