// Package control is the single entry point for every lifecycle
// operation: start, stop, switch, clock moves, snapshot capture, and
// restore.
//
// The coordinator serializes mutations with one in-flight operation
// token. A second mutating call while one is running is rejected
// immediately as busy, never queued, so callers always know whether
// their request was acted on. Reads (status, event subscription) bypass
// the token.
//
// At most one environment is ever active. The coordinator owns the
// active process handle and is the only writer of the lifecycle state:
// stopped, starting, running, stopping, or errored. An unexpected
// process exit moves the state to errored, where every operation except
// stop and status is rejected; stop is the designated way back to
// stopped.
//
// Lifecycle facts are mirrored to a run-state file so later CLI
// invocations can reattach to a validator started by an earlier one.
package control
