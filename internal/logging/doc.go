// Package logging provides logging utilities for sandnet-ctl.
//
// This package provides two categories of output:
//   - Debug logging: structured logs for debugging (via slog)
//   - User output: formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("spawning validator", "env", name, "controlPort", port)
//	logging.Warn("health probe failed", "attempt", n, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Waiting for validator on port %d...", port)
//	logging.UserSuccess("Environment %s is running", name)
//	logging.UserWarning("Port %d is already in use", port)
//	logging.UserError("Failed to start environment: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
package logging
