package supervisor

import (
	"context"
	"sync"
	"syscall"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/health"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
	"github.com/firefly-engineering/sandnet-ctl/internal/port"
)

// Health is the result of polling a running process.
type Health string

const (
	Healthy   Health = "healthy"
	Unhealthy Health = "unhealthy"
	Exited    Health = "exited"
)

// Supervisor spawns, watches, and terminates validator processes.
type Supervisor struct {
	launcher Launcher
	dial     netclient.Dialer
	binary   string
	probe    health.Probe
	grace    time.Duration

	mu     sync.Mutex
	onExit func(*Handle, int)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithProbe overrides the startup readiness probe settings.
func WithProbe(p health.Probe) Option {
	return func(s *Supervisor) { s.probe = p }
}

// WithGracePeriod overrides the default graceful-termination window.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) { s.grace = d }
}

// New creates a Supervisor spawning the given validator binary.
func New(launcher Launcher, dial netclient.Dialer, binary string, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher: launcher,
		dial:     dial,
		binary:   binary,
		probe:    health.DefaultProbe(),
		grace:    config.DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnExit registers a callback invoked from the watch goroutine whenever a
// spawned process exits, whether or not a stop was requested. This is the
// coordinator's crash-detection hook.
func (s *Supervisor) OnExit(fn func(h *Handle, code int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = fn
}

// Spawn launches the validator for an environment and confirms startup
// health. On probe failure or cancellation any partially started process
// is terminated best-effort so no orphan survives.
//
// Port binds are checked up front; conflicts are reported without
// spawning and remediation is left to the caller.
func (s *Supervisor) Spawn(ctx context.Context, env *environment.Environment) (*Handle, error) {
	if p := port.FirstUnavailable(env.ControlPort, env.EventPort); p != 0 {
		return nil, errors.PortConflict(p, nil)
	}

	spec := BuildSpec(s.binary, env)
	logging.Debug("spawning validator", "env", env.Name, "command", spec.CommandLine())

	proc, err := s.launcher.Start(spec)
	if err != nil {
		return nil, errors.SpawnFailed(err)
	}

	h := newHandle(env, proc)
	go s.watch(h)

	client := s.dial(env.ControlPort)
	if err := s.probe.WaitReady(ctx, client, h.Exited(), h.ExitCode); err != nil {
		if _, exited := h.ExitCode(); !exited {
			logging.Debug("terminating partially started validator", "env", env.Name, "pid", h.Pid())
			_ = s.Terminate(context.Background(), h, s.grace)
		}
		return nil, err
	}

	h.MarkHealthy()
	logging.Debug("validator running", "env", env.Name, "pid", h.Pid())
	return h, nil
}

// watch blocks until the process exits, records the exit on the handle,
// and notifies the registered exit callback.
func (s *Supervisor) watch(h *Handle) {
	code := h.proc.Wait()
	h.recordExit(code)
	logging.Debug("validator exited", "env", h.env.Name, "pid", h.Pid(), "code", code)

	s.mu.Lock()
	fn := s.onExit
	s.mu.Unlock()
	if fn != nil {
		fn(h, code)
	}
}

// Terminate stops the process: graceful signal, wait up to grace, then
// force-kill. Stop always runs to completion; caller cancellation does not
// interrupt it. Output is fully drained before return, so the handle's
// tail holds the final bytes regardless of termination path.
func (s *Supervisor) Terminate(_ context.Context, h *Handle, grace time.Duration) error {
	if _, exited := h.ExitCode(); exited {
		return nil
	}
	if grace <= 0 {
		grace = s.grace
	}

	if err := h.proc.Signal(syscall.SIGTERM); err != nil {
		// Signal delivery failing usually means the process is already
		// gone; fall through to waiting for the watch goroutine.
		logging.Debug("graceful signal failed", "pid", h.Pid(), "error", err)
	}

	select {
	case <-h.Exited():
		return nil
	case <-time.After(grace):
	}

	logging.Warn("validator did not stop in time, killing", "env", h.env.Name, "pid", h.Pid(), "grace", grace)
	if err := h.proc.Kill(); err != nil {
		logging.Debug("kill failed", "pid", h.Pid(), "error", err)
	}

	select {
	case <-h.Exited():
		return nil
	case <-time.After(s.grace):
		return errors.StopFailed(h.env.Name, nil)
	}
}

// PollHealth reports the current health of a spawned process. The second
// return value is the exit code, meaningful only when the result is
// Exited.
func (s *Supervisor) PollHealth(ctx context.Context, h *Handle) (Health, int) {
	if code, exited := h.ExitCode(); exited {
		return Exited, code
	}

	client := s.dial(h.env.ControlPort)
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Health(probeCtx); err != nil {
		return Unhealthy, 0
	}

	h.MarkHealthy()
	return Healthy, 0
}
