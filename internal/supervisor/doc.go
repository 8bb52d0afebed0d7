// Package supervisor owns the external validator process for the active
// environment.
//
// Supervisor spawns the validator from an environment's configuration,
// confirms startup health through the readiness probe, watches for exit,
// and terminates gracefully with a force-kill fallback. At most one
// process exists per supervisor at a time; the control coordinator
// guarantees no two environments are ever started concurrently.
//
// OS process access goes through the Launcher interface so tests can run
// against FakeLauncher without spawning anything.
package supervisor
