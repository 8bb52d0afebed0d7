package control

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/clock"
	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
	"github.com/firefly-engineering/sandnet-ctl/internal/snapshot"
	"github.com/firefly-engineering/sandnet-ctl/internal/supervisor"
)

// SwitchPolicy decides what happens to the outgoing environment's state
// during a switch.
type SwitchPolicy string

const (
	// SwitchSaveSnapshot captures the outgoing environment before it is
	// stopped. A capture failure aborts the switch with the outgoing
	// environment still running.
	SwitchSaveSnapshot SwitchPolicy = "save-snapshot"

	// SwitchDiscard stops the outgoing environment without capturing.
	SwitchDiscard SwitchPolicy = "discard"
)

// Status is a point-in-time report of the coordinator.
type Status struct {
	State       LifecycleState
	Environment *environment.Environment
	Pid         int
	StartedAt   time.Time
	Slot        uint64
	SlotKnown   bool
	Health      supervisor.Health
	LastError   string
}

// Coordinator owns the controlled process and serializes every lifecycle
// mutation. See the package comment for the concurrency contract.
type Coordinator struct {
	registry *environment.Registry
	sup      *supervisor.Supervisor
	clock    *clock.Controller
	engine   *snapshot.Engine
	dial     netclient.Dialer
	events   *Emitter
	stateDir string
	grace    time.Duration

	mu         sync.Mutex
	state      LifecycleState
	env        *environment.Environment
	handle     *supervisor.Handle // nil while detached or stopped
	pid        int
	startedAt  time.Time
	inflight   string
	stopWanted bool
	lastErr    error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithGracePeriod overrides the stop grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Coordinator) { c.grace = d }
}

// NewCoordinator wires the coordinator and registers itself as the
// supervisor's exit hook.
func NewCoordinator(
	registry *environment.Registry,
	sup *supervisor.Supervisor,
	clk *clock.Controller,
	engine *snapshot.Engine,
	dial netclient.Dialer,
	stateDir string,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		registry: registry,
		sup:      sup,
		clock:    clk,
		engine:   engine,
		dial:     dial,
		events:   NewEmitter(),
		stateDir: stateDir,
		grace:    config.DefaultGracePeriod,
		state:    StateStopped,
	}
	for _, opt := range opts {
		opt(c)
	}
	sup.OnExit(c.handleExit)
	return c
}

// Events exposes the lifecycle event stream.
func (c *Coordinator) Events() *Emitter {
	return c.events
}

// Snapshots exposes the snapshot store for listing and deletion.
func (c *Coordinator) Snapshots() snapshot.Store {
	return c.engine.Store()
}

// Reattach adopts a validator recorded by an earlier invocation. A
// recorded process that is no longer alive surfaces as errored, since it
// exited without anyone requesting a stop.
func (c *Coordinator) Reattach() error {
	rs, err := LoadRunState(c.stateDir)
	if err != nil {
		return err
	}
	if rs == nil {
		return nil
	}

	switch rs.State {
	case StateRunning, StateStarting, StateStopping:
		env, envErr := c.registry.Get(rs.Environment)
		if envErr != nil {
			logging.Warn("run state names an unknown environment, discarding", "environment", rs.Environment)
			return ClearRunState(c.stateDir)
		}
		if ProcessAlive(rs.Pid) {
			c.mu.Lock()
			c.state = StateRunning
			c.env = env
			c.pid = rs.Pid
			c.startedAt = rs.StartedAt
			c.mu.Unlock()
			c.registry.SetActive(env.Name)
			logging.Debug("reattached to running validator", "environment", env.Name, "pid", rs.Pid)
			return nil
		}
		c.mu.Lock()
		c.state = StateErrored
		c.env = env
		c.lastErr = fmt.Errorf("validator (pid %d) exited while unsupervised", rs.Pid)
		c.mu.Unlock()
		c.persistRunState()
		return nil

	case StateErrored:
		env, envErr := c.registry.Get(rs.Environment)
		if envErr != nil {
			return ClearRunState(c.stateDir)
		}
		c.mu.Lock()
		c.state = StateErrored
		c.env = env
		if ProcessAlive(rs.Pid) {
			c.pid = rs.Pid
		}
		c.mu.Unlock()
		return nil

	default:
		return ClearRunState(c.stateDir)
	}
}

// begin claims the single in-flight operation token. Rejection is
// immediate: a busy coordinator never queues.
func (c *Coordinator) begin(op string, allowed ...LifecycleState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != "" {
		return errors.Busy(op, c.inflight)
	}
	if !c.state.oneOf(allowed...) {
		return errors.InvalidState(op, string(c.state))
	}
	c.inflight = op
	return nil
}

func (c *Coordinator) finish() {
	c.mu.Lock()
	c.inflight = ""
	c.mu.Unlock()
}

// Start spawns the named environment's validator and confirms startup
// health. Only valid while stopped.
func (c *Coordinator) Start(ctx context.Context, name string) error {
	if err := c.begin("start", StateStopped); err != nil {
		return err
	}
	defer c.finish()

	env, err := c.registry.Get(name)
	if err != nil {
		return err
	}

	c.setPhase(StateStarting, env)
	h, err := c.sup.Spawn(ctx, env)
	if err != nil {
		c.markErrored(err)
		return err
	}

	if err := c.seedPreloaded(ctx, env); err != nil {
		_ = c.sup.Terminate(context.Background(), h, c.grace)
		seedErr := errors.SpawnFailed(err)
		c.markErrored(seedErr)
		return seedErr
	}

	c.adopt(h, env)
	c.events.Emit(Event{Type: EventStarted, Environment: env.Name, State: string(StateRunning)})
	logging.Info("environment started", "environment", env.Name, "pid", h.Pid())
	return nil
}

// seedPreloaded writes an environment's preloaded accounts into a freshly
// spawned validator.
func (c *Coordinator) seedPreloaded(ctx context.Context, env *environment.Environment) error {
	if len(env.Accounts) == 0 {
		return nil
	}

	accounts := make([]netclient.Account, len(env.Accounts))
	for i, a := range env.Accounts {
		accounts[i] = netclient.Account{Pubkey: a.Pubkey, Lamports: a.Lamports}
	}
	return c.dial(env.ControlPort).PutAccounts(ctx, accounts)
}

// Stop terminates the active validator. Legal from running and from
// errored, where it is the designated recovery path. Stop always runs to
// completion; the context does not cancel an in-progress termination.
func (c *Coordinator) Stop(ctx context.Context) error {
	if err := c.begin("stop", StateRunning, StateErrored); err != nil {
		return err
	}
	defer c.finish()

	c.mu.Lock()
	env := c.env
	hasProc := c.handle != nil || c.pid > 0
	c.state = StateStopping
	c.mu.Unlock()

	if env != nil {
		c.events.Emit(Event{Type: EventStopping, Environment: env.Name, State: string(StateStopping)})
	}

	if hasProc {
		if err := c.terminateCurrent(); err != nil {
			c.markErrored(err)
			return err
		}
	}

	c.clearActive()
	name := ""
	if env != nil {
		name = env.Name
	}
	c.events.Emit(Event{Type: EventStopped, Environment: name, State: string(StateStopped)})
	logging.Info("environment stopped", "environment", name)
	return nil
}

// terminateCurrent stops whatever process the coordinator holds, via the
// supervisor when attached or by pid when reattached from run state.
func (c *Coordinator) terminateCurrent() error {
	c.mu.Lock()
	h := c.handle
	pid := c.pid
	c.stopWanted = true
	c.mu.Unlock()

	if h != nil {
		return c.sup.Terminate(context.Background(), h, c.grace)
	}
	if pid > 0 {
		return terminateDetached(pid, c.grace)
	}
	return nil
}

// terminateDetached stops a reattached process: graceful signal, wait up
// to grace, then force-kill.
func terminateDetached(pid int, grace time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return nil // already gone
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	logging.Warn("validator did not stop in time, killing", "pid", pid, "grace", grace)
	_ = proc.Signal(syscall.SIGKILL)
	deadline = time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return errors.StopFailed(fmt.Sprintf("pid %d", pid), nil)
}

// Switch stops the active environment and starts another in one
// operation. With SwitchSaveSnapshot the outgoing state is captured
// first, and a capture failure aborts the switch with the outgoing
// environment untouched.
func (c *Coordinator) Switch(ctx context.Context, target string, policy SwitchPolicy) error {
	if err := c.begin("switch", StateRunning); err != nil {
		return err
	}
	defer c.finish()

	newEnv, err := c.registry.Get(target)
	if err != nil {
		return err
	}

	c.mu.Lock()
	oldEnv := c.env
	c.mu.Unlock()
	if oldEnv.Name == target {
		return errors.InvalidArgument(fmt.Sprintf("environment %s is already active", target))
	}

	var saved *snapshot.Snapshot
	if policy == SwitchSaveSnapshot {
		saved, err = c.engine.Capture(ctx, c.dial(oldEnv.ControlPort), oldEnv.Name, "switch to "+target)
		if err != nil {
			return err
		}
	}

	c.setPhase(StateStopping, oldEnv)
	if err := c.terminateCurrent(); err != nil {
		c.markErrored(err)
		return err
	}
	c.clearActive()

	c.setPhase(StateStarting, newEnv)
	h, err := c.sup.Spawn(ctx, newEnv)
	if err != nil {
		c.markErrored(err)
		return err
	}
	if err := c.seedPreloaded(ctx, newEnv); err != nil {
		_ = c.sup.Terminate(context.Background(), h, c.grace)
		seedErr := errors.SpawnFailed(err)
		c.markErrored(seedErr)
		return seedErr
	}

	c.adopt(h, newEnv)
	ev := Event{Type: EventSwitched, Environment: newEnv.Name, State: string(StateRunning)}
	if saved != nil {
		ev.SnapshotID = saved.ID
	}
	c.events.Emit(ev)
	logging.Info("switched environment", "from", oldEnv.Name, "to", newEnv.Name)
	return nil
}

// Advance moves the clock forward by delta slots. A round-trip timeout
// leaves the clock position unknown, so the coordinator degrades to
// errored rather than pretend the move landed.
func (c *Coordinator) Advance(ctx context.Context, delta uint64) (uint64, error) {
	if err := c.begin("clock advance", StateRunning); err != nil {
		return 0, err
	}
	defer c.finish()

	slot, err := c.clock.Advance(ctx, c.dial(c.controlPort()), delta)
	if err != nil {
		if errors.Is(err, errors.ErrTimeout) {
			c.markErrored(err)
		}
		return 0, err
	}

	c.events.Emit(Event{Type: EventClockMoved, Environment: c.activeName(), Slot: slot})
	return slot, nil
}

// Warp moves the clock to an absolute target. A target behind the
// current position is rejected without side effects and the environment
// stays running.
func (c *Coordinator) Warp(ctx context.Context, target uint64) (uint64, error) {
	if err := c.begin("clock warp", StateRunning); err != nil {
		return 0, err
	}
	defer c.finish()

	slot, err := c.clock.WarpTo(ctx, c.dial(c.controlPort()), target)
	if err != nil {
		if errors.Is(err, errors.ErrTimeout) {
			c.markErrored(err)
		}
		return 0, err
	}

	c.events.Emit(Event{Type: EventClockMoved, Environment: c.activeName(), Slot: slot})
	return slot, nil
}

// Snapshot captures the active environment's state.
func (c *Coordinator) Snapshot(ctx context.Context, label string) (*snapshot.Snapshot, error) {
	c.mu.Lock()
	if c.inflight != "" {
		op := c.inflight
		c.mu.Unlock()
		return nil, errors.Busy("snapshot", op)
	}
	if c.state != StateRunning {
		env := c.env
		c.mu.Unlock()
		if env != nil {
			return nil, errors.NotRunning(env.Name)
		}
		return nil, errors.ErrNotRunning
	}
	env := c.env
	c.inflight = "snapshot"
	c.mu.Unlock()
	defer c.finish()

	snap, err := c.engine.Capture(ctx, c.dial(env.ControlPort), env.Name, label)
	if err != nil {
		return nil, err
	}

	c.events.Emit(Event{Type: EventSnapshotted, Environment: env.Name, Slot: snap.Slot, SnapshotID: snap.ID})
	return snap, nil
}

// Restore rebuilds an environment from a snapshot: stop whatever is
// active, spawn a fresh process for the snapshot's environment, and seed
// the captured state into it. This is the only way to move the clock
// backward.
func (c *Coordinator) Restore(ctx context.Context, idOrPrefix string) (*snapshot.Snapshot, error) {
	if err := c.begin("restore", StateStopped, StateRunning, StateErrored); err != nil {
		return nil, err
	}
	defer c.finish()

	snap, err := snapshot.Resolve(c.engine.Store(), idOrPrefix)
	if err != nil {
		return nil, err
	}
	env, err := c.registry.Get(snap.Environment)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	current := c.env
	hasProc := c.handle != nil || c.pid > 0
	c.mu.Unlock()

	if hasProc {
		c.setPhase(StateStopping, current)
		if err := c.terminateCurrent(); err != nil {
			c.markErrored(err)
			return nil, errors.StopFailed(current.Name, err)
		}
	}
	c.clearActive()

	c.setPhase(StateStarting, env)
	h, err := c.sup.Spawn(ctx, env)
	if err != nil {
		c.markErrored(err)
		return nil, err
	}
	if err := snapshot.Seed(ctx, c.dial(env.ControlPort), snap); err != nil {
		_ = c.sup.Terminate(context.Background(), h, c.grace)
		seedErr := errors.SpawnFailed(err)
		c.markErrored(seedErr)
		return nil, seedErr
	}

	c.adopt(h, env)
	c.events.Emit(Event{Type: EventRestored, Environment: env.Name, Slot: snap.Slot, SnapshotID: snap.ID})
	logging.Info("environment restored", "environment", env.Name, "snapshot", snap.ShortID(), "slot", snap.Slot)
	return snap, nil
}

// Status reports the coordinator's view, enriched with a best-effort
// clock read and health probe when running. Status never takes the
// operation token.
func (c *Coordinator) Status(ctx context.Context) *Status {
	c.mu.Lock()
	st := &Status{
		State:       c.state,
		Environment: c.env,
		Pid:         c.pid,
		StartedAt:   c.startedAt,
	}
	handle := c.handle
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()

	if st.State != StateRunning || st.Environment == nil {
		return st
	}

	// Reattached processes have no watch goroutine; liveness is polled.
	if handle == nil && st.Pid > 0 && !ProcessAlive(st.Pid) {
		c.noteCrash(st.Environment, -1)
		st.State = StateErrored
		st.Health = supervisor.Exited
		return st
	}

	if handle != nil {
		health, _ := c.sup.PollHealth(ctx, handle)
		st.Health = health
		if health == supervisor.Exited {
			// The exit hook has already degraded the state.
			st.State = StateErrored
			return st
		}
	} else {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.dial(st.Environment.ControlPort).Health(probeCtx); err != nil {
			st.Health = supervisor.Unhealthy
		} else {
			st.Health = supervisor.Healthy
		}
	}

	slotCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if slot, err := c.dial(st.Environment.ControlPort).Slot(slotCtx); err == nil {
		st.Slot = slot
		st.SlotKnown = true
	}
	return st
}

// handleExit is the supervisor's exit hook. A process exiting without a
// requested stop is a crash: the coordinator degrades to errored and
// stays there until an explicit stop.
func (c *Coordinator) handleExit(h *supervisor.Handle, code int) {
	c.mu.Lock()
	if c.handle != h || c.stopWanted {
		c.mu.Unlock()
		return
	}
	env := c.env
	c.state = StateErrored
	c.handle = nil
	c.pid = 0
	c.lastErr = fmt.Errorf("validator exited unexpectedly with code %d", code)
	c.mu.Unlock()

	c.persistRunState()
	c.events.Emit(Event{Type: EventCrashed, Environment: env.Name, State: string(StateErrored), ExitCode: code})
	logging.Error("validator crashed", "environment", env.Name, "code", code,
		"tail", fmt.Sprintf("%d lines retained", len(h.Tail())))
}

// noteCrash records a crash detected by polling a reattached process.
func (c *Coordinator) noteCrash(env *environment.Environment, code int) {
	c.mu.Lock()
	if c.state != StateRunning || c.env == nil || c.env.Name != env.Name {
		c.mu.Unlock()
		return
	}
	c.state = StateErrored
	c.pid = 0
	c.lastErr = fmt.Errorf("validator exited while unsupervised")
	c.mu.Unlock()

	c.persistRunState()
	c.events.Emit(Event{Type: EventCrashed, Environment: env.Name, State: string(StateErrored), ExitCode: code})
	logging.Error("validator exited while unsupervised", "environment", env.Name)
}

// setPhase records an intermediate transition and publishes it; the
// event stream carries every state change, not just the settled ones.
func (c *Coordinator) setPhase(state LifecycleState, env *environment.Environment) {
	c.mu.Lock()
	c.state = state
	c.env = env
	c.mu.Unlock()

	switch state {
	case StateStarting:
		c.events.Emit(Event{Type: EventStarting, Environment: env.Name, State: string(state)})
	case StateStopping:
		c.events.Emit(Event{Type: EventStopping, Environment: env.Name, State: string(state)})
	}
}

// adopt records a freshly spawned process as the active one.
func (c *Coordinator) adopt(h *supervisor.Handle, env *environment.Environment) {
	c.mu.Lock()
	c.state = StateRunning
	c.env = env
	c.handle = h
	c.pid = h.Pid()
	c.startedAt = h.StartedAt()
	c.stopWanted = false
	c.lastErr = nil
	c.mu.Unlock()

	c.registry.SetActive(env.Name)
	c.persistRunState()
}

// clearActive resets to stopped with no process.
func (c *Coordinator) clearActive() {
	c.mu.Lock()
	c.state = StateStopped
	c.env = nil
	c.handle = nil
	c.pid = 0
	c.startedAt = time.Time{}
	c.stopWanted = false
	c.lastErr = nil
	c.mu.Unlock()

	c.registry.SetActive("")
	if err := ClearRunState(c.stateDir); err != nil {
		logging.Warn("failed to clear run state", "error", err)
	}
}

// markErrored degrades to errored and publishes the transition with its
// reason. Recovery requires an explicit stop.
func (c *Coordinator) markErrored(err error) {
	c.mu.Lock()
	c.state = StateErrored
	c.stopWanted = false
	c.lastErr = err
	name := ""
	if c.env != nil {
		name = c.env.Name
	}
	c.mu.Unlock()
	c.persistRunState()
	c.events.Emit(Event{Type: EventErrored, Environment: name, State: string(StateErrored), Message: err.Error()})
}

func (c *Coordinator) persistRunState() {
	c.mu.Lock()
	rs := &RunState{
		State:     c.state,
		Pid:       c.pid,
		StartedAt: c.startedAt,
	}
	if c.env != nil {
		rs.Environment = c.env.Name
		rs.ControlPort = c.env.ControlPort
		rs.EventPort = c.env.EventPort
	}
	c.mu.Unlock()

	if err := SaveRunState(c.stateDir, rs); err != nil {
		logging.Warn("failed to persist run state", "error", err)
	}
}

func (c *Coordinator) controlPort() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env == nil {
		return 0
	}
	return c.env.ControlPort
}

func (c *Coordinator) activeName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env == nil {
		return ""
	}
	return c.env.Name
}
