// Package app provides the application context for sandnet-ctl.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct wires the controller stack once and hands the commands
// fully constructed dependencies:
//
//	type App struct {
//	    Paths       *config.Paths            // File system paths
//	    Settings    *config.Settings         // Controller settings
//	    Registry    *environment.Registry    // Environment definitions
//	    Coordinator *control.Coordinator     // Lifecycle coordinator
//	    Trail       *audit.Trail             // Lifecycle audit trail
//	}
//
// # Testing
//
// Commands resolve dependencies through app.Default, which tests replace:
//
//	launcher := supervisor.NewFakeLauncher()
//	validator := netclient.NewFake()
//	app.SetDefault(app.New(
//	    app.WithPaths(config.PathsUnder(cfgDir, stateDir)),
//	    app.WithLauncher(launcher),
//	    app.WithDialer(validator.Dial),
//	))
//	defer app.ResetDefault()
package app
