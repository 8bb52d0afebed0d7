package snapshot

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
)

// captureAttempts bounds the stability loop on validators whose clock
// cannot be paused.
const captureAttempts = 3

// Engine captures validator state into the snapshot store.
type Engine struct {
	store Store
}

// NewEngine creates a capture engine backed by the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Store returns the backing snapshot store.
func (e *Engine) Store() Store {
	return e.store
}

// Capture reads a consistent account/program/clock triple from the
// validator, persists it, and returns the record. envName is recorded so
// listings can attribute the snapshot.
func (e *Engine) Capture(ctx context.Context, client netclient.Client, envName, label string) (*Snapshot, error) {
	slot, accounts, programs, err := e.readConsistent(ctx, client)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Environment: envName,
		Label:       label,
		Slot:        slot,
		Accounts:    accounts,
		Programs:    programs,
		CreatedAt:   time.Now().UTC(),
	}
	snap.ID, err = snap.ComputeID()
	if err != nil {
		return nil, errors.PersistFailed(err)
	}

	if err := e.store.Save(snap); err != nil {
		return nil, errors.PersistFailed(err)
	}

	logging.Info("snapshot captured",
		"id", snap.ShortID(), "environment", envName, "slot", slot,
		"accounts", len(accounts), "programs", len(programs))
	return snap, nil
}

// readConsistent returns state guaranteed to belong to a single clock
// position. Preferred path: pause the clock around the reads. Validators
// without pause support instead get re-read until two clock observations
// bracketing the enumeration agree.
func (e *Engine) readConsistent(ctx context.Context, client netclient.Client) (uint64, []netclient.Account, []netclient.Program, error) {
	err := client.PauseClock(ctx)
	switch {
	case err == nil:
		defer func() {
			if rerr := client.ResumeClock(context.WithoutCancel(ctx)); rerr != nil {
				logging.Warn("failed to resume clock after capture", "error", rerr)
			}
		}()

		slot, serr := client.Slot(ctx)
		if serr != nil {
			return 0, nil, nil, serr
		}
		accounts, programs, eerr := enumerate(ctx, client)
		if eerr != nil {
			return 0, nil, nil, eerr
		}
		return slot, accounts, programs, nil

	case errors.Is(err, errors.ErrUnsupported):
		return e.readStable(ctx, client)

	default:
		return 0, nil, nil, err
	}
}

func (e *Engine) readStable(ctx context.Context, client netclient.Client) (uint64, []netclient.Account, []netclient.Program, error) {
	for attempt := 1; attempt <= captureAttempts; attempt++ {
		before, err := client.Slot(ctx)
		if err != nil {
			return 0, nil, nil, err
		}

		accounts, programs, err := enumerate(ctx, client)
		if err != nil {
			return 0, nil, nil, err
		}

		after, err := client.Slot(ctx)
		if err != nil {
			return 0, nil, nil, err
		}

		if before == after {
			return before, accounts, programs, nil
		}
		logging.Debug("clock moved during capture, retrying",
			"attempt", attempt, "before", before, "after", after)
	}
	return 0, nil, nil, errors.UnstableState(captureAttempts)
}

// enumerate fetches accounts and programs concurrently. Both reads happen
// between the same pair of clock observations, so fetching them in
// parallel shrinks the window the stability check has to defend.
func enumerate(ctx context.Context, client netclient.Client) ([]netclient.Account, []netclient.Program, error) {
	var (
		accounts []netclient.Account
		programs []netclient.Program
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = client.Accounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		programs, err = client.Programs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return accounts, programs, nil
}

// Seed writes a snapshot's state into a freshly spawned validator: clock
// position first, then accounts and programs. Only valid against a
// process that has not yet produced state of its own.
func Seed(ctx context.Context, client netclient.Client, snap *Snapshot) error {
	if err := client.SetClock(ctx, snap.Slot); err != nil {
		return err
	}
	if err := client.PutAccounts(ctx, snap.Accounts); err != nil {
		return err
	}
	if err := client.PutPrograms(ctx, snap.Programs); err != nil {
		return err
	}
	logging.Debug("snapshot seeded", "id", snap.ShortID(), "slot", snap.Slot)
	return nil
}
