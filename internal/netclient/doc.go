// Package netclient provides the client for a sandnet validator's control
// surface.
//
// The controller never speaks the simulated network's own transaction
// protocol; everything it needs — health, clock position, clock movement,
// account and program enumeration, and restore seeding — goes through the
// small JSON-over-HTTP surface on the validator's control port, expressed
// here as the Client interface.
//
// HTTPClient is the real implementation. Fake is an in-memory validator
// used throughout the tests; it supports injectable errors, a call log,
// and an auto-advancing clock to exercise capture stability checks.
package netclient
