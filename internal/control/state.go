package control

// LifecycleState is the coordinator's view of the controlled process.
type LifecycleState string

const (
	// StateStopped means no process exists.
	StateStopped LifecycleState = "stopped"

	// StateStarting means a spawn is in flight, before the first
	// successful health check.
	StateStarting LifecycleState = "starting"

	// StateRunning means the process is up and passed startup health.
	StateRunning LifecycleState = "running"

	// StateStopping means a termination is in flight.
	StateStopping LifecycleState = "stopping"

	// StateErrored means the process exited without a stop being
	// requested, or a control operation left its state unknown. Only stop
	// leaves this state.
	StateErrored LifecycleState = "errored"
)

// oneOf reports whether s is in the allowed set.
func (s LifecycleState) oneOf(allowed ...LifecycleState) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
