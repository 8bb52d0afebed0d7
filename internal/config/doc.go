// Package config provides configuration types and loading for sandnet-ctl.
//
// The package handles two kinds of configuration:
//
//   - Settings: controller-level settings loaded from config.toml
//     (validator binary, default timeouts, monitor interval)
//   - Paths: directory layout for controller state (environment records,
//     snapshots, audit logs)
//
// # Settings
//
// Settings come from {configDir}/config.toml:
//
//	[validator]
//	binary = "sandnet-validator"
//
//	[timeouts]
//	health = "30s"
//	clock = "10s"
//	grace = "5s"
//
//	[monitor]
//	interval = "2s"
//
// A missing file yields DefaultSettings. All durations are Go duration
// strings.
//
// # Validation
//
// Environment names are restricted to lowercase letters, digits,
// underscores, and hyphens, at most 63 characters. Paths derived from
// user-supplied names go through securejoin so a hostile name can never
// escape the state directory.
package config
