// Package environment provides the registry of named sandbox-network
// environment configurations.
//
// An Environment describes one simulated-network validator instance: its
// kind (fresh, fork of a remote network, or custom genesis), its control
// and event ports, and the working directory holding its ledger data.
// Environments are persisted as JSON files under the environments state
// directory, one file per environment.
//
// The registry enforces uniqueness of ports and working directories across
// all defined environments, and rejects deletion or mutation of the
// environment that is currently active. Activation itself is driven by the
// control coordinator; nothing else should call SetActive.
package environment
