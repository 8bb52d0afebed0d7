package control

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/clock"
	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/health"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
	"github.com/firefly-engineering/sandnet-ctl/internal/snapshot"
	"github.com/firefly-engineering/sandnet-ctl/internal/supervisor"
)

// Ports chosen high and odd to avoid colliding with anything on the test
// host; spawning probes real TCP availability.
const (
	devControlPort     = 39761
	devEventPort       = 39762
	stagingControlPort = 39763
	stagingEventPort   = 39764
)

type rig struct {
	coord     *Coordinator
	launcher  *supervisor.FakeLauncher
	validator *netclient.Fake
	registry  *environment.Registry
	stateDir  string
}

func newRig(t *testing.T) *rig {
	t.Helper()

	stateDir := t.TempDir()
	registry := environment.NewRegistry(filepath.Join(stateDir, "environments"))

	for _, env := range []*environment.Environment{
		{
			Name:        "dev",
			Kind:        environment.KindFresh,
			ControlPort: devControlPort,
			EventPort:   devEventPort,
			WorkDir:     filepath.Join(stateDir, "ledgers", "dev"),
		},
		{
			Name:        "staging",
			Kind:        environment.KindFresh,
			ControlPort: stagingControlPort,
			EventPort:   stagingEventPort,
			WorkDir:     filepath.Join(stateDir, "ledgers", "staging"),
		},
	} {
		if err := registry.Create(env); err != nil {
			t.Fatal(err)
		}
	}

	launcher := supervisor.NewFakeLauncher()
	validator := netclient.NewFake()
	sup := supervisor.New(launcher, validator.Dial, "sandnet-validator",
		supervisor.WithProbe(health.Probe{Interval: 5 * time.Millisecond, Timeout: 250 * time.Millisecond}),
		supervisor.WithGracePeriod(100*time.Millisecond))

	coord := NewCoordinator(
		registry,
		sup,
		clock.New(clock.WithTimeout(200*time.Millisecond)),
		snapshot.NewEngine(snapshot.NewFileStore(filepath.Join(stateDir, "snapshots"))),
		validator.Dial,
		stateDir,
		WithGracePeriod(100*time.Millisecond),
	)

	return &rig{coord: coord, launcher: launcher, validator: validator, registry: registry, stateDir: stateDir}
}

func (r *rig) mustStart(t *testing.T, name string) {
	t.Helper()
	if err := r.coord.Start(context.Background(), name); err != nil {
		t.Fatalf("Start(%s) failed: %v", name, err)
	}
}

func waitEvent(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

func TestStartStop(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	r.mustStart(t, "dev")

	st := r.coord.Status(ctx)
	if st.State != StateRunning {
		t.Fatalf("state = %s, want running", st.State)
	}
	if st.Environment == nil || st.Environment.Name != "dev" {
		t.Errorf("active environment = %+v", st.Environment)
	}
	if r.registry.Active() != "dev" {
		t.Errorf("registry active = %q", r.registry.Active())
	}

	rs, err := LoadRunState(r.stateDir)
	if err != nil || rs == nil {
		t.Fatalf("run state = (%v, %v), want persisted", rs, err)
	}
	if rs.Environment != "dev" || rs.State != StateRunning {
		t.Errorf("run state = %+v", rs)
	}

	if err := r.coord.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if st := r.coord.Status(ctx); st.State != StateStopped {
		t.Errorf("state after stop = %s", st.State)
	}
	if r.registry.Active() != "" {
		t.Errorf("registry active = %q after stop", r.registry.Active())
	}
	if r.launcher.Last().Killed {
		t.Error("orderly stop should not force-kill")
	}

	rs, err = LoadRunState(r.stateDir)
	if err != nil {
		t.Fatal(err)
	}
	if rs != nil {
		t.Errorf("run state %+v should be cleared after stop", rs)
	}
}

func TestStart_SecondEnvironmentRejected(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")

	err := r.coord.Start(context.Background(), "staging")
	if !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("second Start = %v, want invalid-state", err)
	}
	if len(r.launcher.Procs) != 1 {
		t.Errorf("launched %d processes, want 1", len(r.launcher.Procs))
	}
}

func TestSingleActiveInvariant_ConcurrentStarts(t *testing.T) {
	r := newRig(t)

	const callers = 8
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.coord.Start(context.Background(), "dev")
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, errors.ErrInvalidState) && !errors.Is(err, errors.ErrBusy) {
			t.Errorf("concurrent Start = %v, want invalid-state or busy", err)
		}
	}
	if successes != 1 {
		t.Errorf("%d starts succeeded, want exactly 1", successes)
	}
	if len(r.launcher.Procs) != 1 {
		t.Errorf("launched %d processes, want exactly 1", len(r.launcher.Procs))
	}
}

func TestBusyRejectionWhileOperationInFlight(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")

	// Claim the operation token as an in-flight operation would.
	if err := r.coord.begin("restore", StateRunning); err != nil {
		t.Fatal(err)
	}

	if _, err := r.coord.Advance(context.Background(), 1); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("Advance = %v, want busy", err)
	}
	if _, err := r.coord.Snapshot(context.Background(), ""); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("Snapshot = %v, want busy", err)
	}
	if err := r.coord.Stop(context.Background()); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("Stop = %v, want busy", err)
	}

	r.coord.finish()
	if _, err := r.coord.Advance(context.Background(), 1); err != nil {
		t.Errorf("Advance after release = %v", err)
	}
}

func TestCrashMovesToErrored(t *testing.T) {
	r := newRig(t)
	events, cancel := r.coord.Events().Subscribe()
	defer cancel()

	r.mustStart(t, "dev")
	r.launcher.Last().Exit(137)

	ev := waitEvent(t, events, EventCrashed)
	if ev.ExitCode != 137 || ev.Environment != "dev" {
		t.Errorf("crash event = %+v", ev)
	}

	st := r.coord.Status(context.Background())
	if st.State != StateErrored {
		t.Fatalf("state = %s, want errored", st.State)
	}
	if st.LastError == "" {
		t.Error("errored status should carry the failure cause")
	}

	// Everything except stop is rejected until the error is cleared.
	if _, err := r.coord.Advance(context.Background(), 1); !errors.Is(err, errors.ErrInvalidState) {
		t.Errorf("Advance while errored = %v, want invalid-state", err)
	}
	if err := r.coord.Start(context.Background(), "staging"); !errors.Is(err, errors.ErrInvalidState) {
		t.Errorf("Start while errored = %v, want invalid-state", err)
	}

	if err := r.coord.Stop(context.Background()); err != nil {
		t.Fatalf("Stop from errored failed: %v", err)
	}
	if st := r.coord.Status(context.Background()); st.State != StateStopped {
		t.Errorf("state after recovery stop = %s", st.State)
	}
}

func TestAdvanceAndWarp(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")
	ctx := context.Background()

	slot, err := r.coord.Advance(ctx, 50)
	if err != nil || slot != 50 {
		t.Fatalf("Advance = (%d, %v), want (50, nil)", slot, err)
	}

	slot, err = r.coord.Warp(ctx, 200)
	if err != nil || slot != 200 {
		t.Fatalf("Warp = (%d, %v), want (200, nil)", slot, err)
	}

	// Rewinding is rejected as a clean no-op: still running, clock intact.
	if _, err := r.coord.Warp(ctx, 100); !errors.Is(err, errors.ErrCannotRewind) {
		t.Fatalf("backward Warp = %v, want cannot-rewind", err)
	}
	st := r.coord.Status(ctx)
	if st.State != StateRunning {
		t.Errorf("state after rejected warp = %s, want running", st.State)
	}
	if !st.SlotKnown || st.Slot != 200 {
		t.Errorf("slot after rejected warp = (%d, %v), want (200, true)", st.Slot, st.SlotKnown)
	}

	if _, err := r.coord.Advance(ctx, 0); !errors.As(err, new(*errors.CtlError)) {
		t.Errorf("zero Advance = %v, want invalid-argument", err)
	}
	if st := r.coord.Status(ctx); st.State != StateRunning {
		t.Errorf("state after rejected advance = %s, want running", st.State)
	}
}

func TestClockTimeoutDegradesToErrored(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")

	events, cancel := r.coord.Events().Subscribe()
	defer cancel()
	r.validator.SetError("AdvanceSlot", context.DeadlineExceeded)

	_, err := r.coord.Advance(context.Background(), 10)
	if !errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("Advance = %v, want timeout", err)
	}

	// Position unknown after a timeout, so the coordinator degrades.
	if st := r.coord.Status(context.Background()); st.State != StateErrored {
		t.Errorf("state after clock timeout = %s, want errored", st.State)
	}

	// The degradation is published, not just visible via Status.
	ev := waitEvent(t, events, EventErrored)
	if ev.Environment != "dev" || ev.Message == "" {
		t.Errorf("errored event = %+v, want dev with a reason", ev)
	}
}

func TestLifecycleTransitionsPublished(t *testing.T) {
	r := newRig(t)
	events, cancel := r.coord.Events().Subscribe()
	defer cancel()

	r.mustStart(t, "dev")
	if err := r.coord.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Intermediate states appear on the stream in order, not just the
	// settled ones.
	for _, want := range []EventType{EventStarting, EventStarted, EventStopping, EventStopped} {
		ev := waitEvent(t, events, want)
		if ev.Environment != "dev" {
			t.Errorf("%s event environment = %q, want dev", want, ev.Environment)
		}
	}
}

func TestStartFailureDegradesToErrored(t *testing.T) {
	r := newRig(t)
	events, cancel := r.coord.Events().Subscribe()
	defer cancel()

	r.launcher.StartErr = fmt.Errorf("binary not found")
	if err := r.coord.Start(context.Background(), "dev"); err == nil {
		t.Fatal("Start should fail when the launcher does")
	}

	if st := r.coord.Status(context.Background()); st.State != StateErrored {
		t.Fatalf("state after failed start = %s, want errored", st.State)
	}
	ev := waitEvent(t, events, EventErrored)
	if ev.Environment != "dev" || ev.Message == "" {
		t.Errorf("errored event = %+v, want dev with a reason", ev)
	}

	// No automatic recovery: a retry is rejected until an explicit stop.
	r.launcher.StartErr = nil
	if err := r.coord.Start(context.Background(), "dev"); !errors.Is(err, errors.ErrInvalidState) {
		t.Errorf("Start while errored = %v, want invalid-state", err)
	}
	if err := r.coord.Stop(context.Background()); err != nil {
		t.Fatalf("Stop from errored failed: %v", err)
	}
	if err := r.coord.Start(context.Background(), "dev"); err != nil {
		t.Errorf("Start after recovery failed: %v", err)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.validator.StoredAccounts = []netclient.Account{{Pubkey: "payer", Lamports: 1_000_000}}

	r.mustStart(t, "dev")

	if _, err := r.coord.Advance(ctx, 50); err != nil {
		t.Fatal(err)
	}
	snap, err := r.coord.Snapshot(ctx, "mid-scenario")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Slot != 50 {
		t.Fatalf("snapshot slot = %d, want 50", snap.Slot)
	}

	if _, err := r.coord.Advance(ctx, 50); err != nil {
		t.Fatal(err)
	}
	r.validator.StoredAccounts = append(r.validator.StoredAccounts,
		netclient.Account{Pubkey: "scratch", Lamports: 5})

	restored, err := r.coord.Restore(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.ID != snap.ID {
		t.Errorf("restored %s, want %s", restored.ShortID(), snap.ShortID())
	}

	// A restore is a fresh process seeded with the captured state, not an
	// in-place mutation.
	if len(r.launcher.Procs) != 2 {
		t.Errorf("launched %d processes across restore, want 2", len(r.launcher.Procs))
	}
	st := r.coord.Status(ctx)
	if st.State != StateRunning {
		t.Fatalf("state after restore = %s", st.State)
	}
	if !st.SlotKnown || st.Slot != 50 {
		t.Errorf("slot after restore = %d, want 50", st.Slot)
	}
	if len(r.validator.StoredAccounts) != 1 || r.validator.StoredAccounts[0].Pubkey != "payer" {
		t.Errorf("accounts after restore = %+v, want the captured set", r.validator.StoredAccounts)
	}
}

func TestSnapshot_NotRunning(t *testing.T) {
	r := newRig(t)

	_, err := r.coord.Snapshot(context.Background(), "")
	if !errors.Is(err, errors.ErrNotRunning) {
		t.Fatalf("Snapshot = %v, want not-running", err)
	}
}

func TestRestore_NotFound(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")

	_, err := r.coord.Restore(context.Background(), "deadbeef")

	var ctlErr *errors.CtlError
	if !errors.As(err, &ctlErr) || ctlErr.Kind != errors.KindSnapshotNotFound {
		t.Fatalf("Restore = %v, want snapshot-not-found", err)
	}
	// Nothing was stopped for an unknown snapshot.
	if st := r.coord.Status(context.Background()); st.State != StateRunning {
		t.Errorf("state = %s, want running", st.State)
	}
	if len(r.launcher.Procs) != 1 {
		t.Errorf("launched %d processes, want 1", len(r.launcher.Procs))
	}
}

func TestSwitch_SaveSnapshot(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.validator.CurrentSlot = 42

	r.mustStart(t, "dev")
	events, cancel := r.coord.Events().Subscribe()
	defer cancel()

	if err := r.coord.Switch(ctx, "staging", SwitchSaveSnapshot); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}

	ev := waitEvent(t, events, EventSwitched)
	if ev.Environment != "staging" || ev.SnapshotID == "" {
		t.Errorf("switch event = %+v", ev)
	}

	st := r.coord.Status(ctx)
	if st.State != StateRunning || st.Environment.Name != "staging" {
		t.Errorf("status after switch = %s/%v", st.State, st.Environment)
	}
	if r.registry.Active() != "staging" {
		t.Errorf("registry active = %q", r.registry.Active())
	}

	snaps, err := r.coord.Snapshots().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].Environment != "dev" || snaps[0].Slot != 42 {
		t.Errorf("saved snapshots = %+v", snaps)
	}
}

func TestSwitch_CaptureFailureAborts(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")
	r.validator.SetError("Accounts", os.ErrDeadlineExceeded)

	err := r.coord.Switch(context.Background(), "staging", SwitchSaveSnapshot)
	if err == nil {
		t.Fatal("Switch should fail when the pre-switch capture fails")
	}

	// The outgoing environment must be untouched by the failed switch.
	st := r.coord.Status(context.Background())
	if st.State != StateRunning || st.Environment.Name != "dev" {
		t.Errorf("status after aborted switch = %s/%v, want running dev", st.State, st.Environment)
	}
	if len(r.launcher.Procs) != 1 {
		t.Errorf("launched %d processes, want 1", len(r.launcher.Procs))
	}
	if !r.launcher.Last().Running() {
		t.Error("original process should still be running after aborted switch")
	}
}

func TestSwitch_Discard(t *testing.T) {
	r := newRig(t)
	r.mustStart(t, "dev")

	if err := r.coord.Switch(context.Background(), "staging", SwitchDiscard); err != nil {
		t.Fatalf("Switch failed: %v", err)
	}

	snaps, err := r.coord.Snapshots().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Errorf("discard switch should not capture, got %d snapshots", len(snaps))
	}
	if len(r.launcher.Procs) != 2 {
		t.Errorf("launched %d processes, want 2", len(r.launcher.Procs))
	}
}

func TestStop_WhenStopped(t *testing.T) {
	r := newRig(t)

	if err := r.coord.Stop(context.Background()); !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("Stop while stopped = %v, want invalid-state", err)
	}
}

func TestReattach_LiveProcess(t *testing.T) {
	r := newRig(t)

	// A previous invocation left a live validator behind; our own pid
	// stands in for it.
	err := SaveRunState(r.stateDir, &RunState{
		Environment: "dev",
		State:       StateRunning,
		Pid:         os.Getpid(),
		ControlPort: devControlPort,
		EventPort:   devEventPort,
		StartedAt:   time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.coord.Reattach(); err != nil {
		t.Fatalf("Reattach failed: %v", err)
	}

	st := r.coord.Status(context.Background())
	if st.State != StateRunning || st.Environment == nil || st.Environment.Name != "dev" {
		t.Fatalf("status after reattach = %s/%v", st.State, st.Environment)
	}
	if st.Pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", st.Pid, os.Getpid())
	}
	if r.registry.Active() != "dev" {
		t.Errorf("registry active = %q", r.registry.Active())
	}
}

func TestReattach_DeadProcess(t *testing.T) {
	r := newRig(t)

	// A pid that certainly existed and certainly exited.
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run helper process: %v", err)
	}
	deadPid := cmd.Process.Pid

	err := SaveRunState(r.stateDir, &RunState{
		Environment: "dev",
		State:       StateRunning,
		Pid:         deadPid,
		StartedAt:   time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.coord.Reattach(); err != nil {
		t.Fatalf("Reattach failed: %v", err)
	}

	st := r.coord.Status(context.Background())
	if st.State != StateErrored {
		t.Fatalf("status after reattaching to dead pid = %s, want errored", st.State)
	}

	// Stop clears the error without a process to signal.
	if err := r.coord.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if st := r.coord.Status(context.Background()); st.State != StateStopped {
		t.Errorf("state = %s, want stopped", st.State)
	}
}

func TestDevScenario(t *testing.T) {
	// The canonical workflow: start, do work, snapshot, do more work,
	// rewind to the snapshot.
	r := newRig(t)
	ctx := context.Background()

	r.mustStart(t, "dev")

	if _, err := r.coord.Advance(ctx, 50); err != nil {
		t.Fatal(err)
	}
	snap, err := r.coord.Snapshot(ctx, "checkpoint")
	if err != nil {
		t.Fatal(err)
	}

	slot, err := r.coord.Advance(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	if slot != 100 {
		t.Fatalf("slot = %d, want 100", slot)
	}

	if _, err := r.coord.Restore(ctx, snap.ShortID()); err != nil {
		t.Fatal(err)
	}

	st := r.coord.Status(ctx)
	if st.State != StateRunning || !st.SlotKnown || st.Slot != 50 {
		t.Fatalf("after restore: state=%s slot=(%d,%v), want running at 50", st.State, st.Slot, st.SlotKnown)
	}
}
