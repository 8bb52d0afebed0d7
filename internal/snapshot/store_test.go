package snapshot

import (
	"testing"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
)

func testSnapshot(t *testing.T, env string, slot uint64) *Snapshot {
	t.Helper()
	snap := &Snapshot{
		Environment: env,
		Slot:        slot,
		Accounts:    []netclient.Account{{Pubkey: "abc", Lamports: slot}},
		CreatedAt:   time.Now().UTC(),
	}
	id, err := snap.ComputeID()
	if err != nil {
		t.Fatal(err)
	}
	snap.ID = id
	return snap
}

func TestFileStore_SaveAndGet(t *testing.T) {
	store := NewFileStore(t.TempDir())
	snap := testSnapshot(t, "dev", 100)

	if err := store.Save(snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Environment != "dev" || got.Slot != 100 {
		t.Errorf("Get = %+v", got)
	}
	if len(got.Accounts) != 1 || got.Accounts[0].Pubkey != "abc" {
		t.Errorf("accounts = %+v", got.Accounts)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Get("0000000000000000000000000000000000000000000000000000000000000000")

	var ctlErr *errors.CtlError
	if !errors.As(err, &ctlErr) || ctlErr.Kind != errors.KindSnapshotNotFound {
		t.Fatalf("Get = %v, want snapshot-not-found", err)
	}
}

func TestFileStore_ListNewestFirst(t *testing.T) {
	store := NewFileStore(t.TempDir())

	older := testSnapshot(t, "dev", 100)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testSnapshot(t, "dev", 200)

	for _, snap := range []*Snapshot{older, newer} {
		if err := store.Save(snap); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("List returned %d snapshots, want 2", len(snaps))
	}
	if snaps[0].Slot != 200 || snaps[1].Slot != 100 {
		t.Errorf("List order = [%d, %d], want newest first", snaps[0].Slot, snaps[1].Slot)
	}
}

func TestFileStore_ListEmptyDir(t *testing.T) {
	store := NewFileStore(t.TempDir() + "/never-created")

	snaps, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("List = %v, want empty", snaps)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	snap := testSnapshot(t, "dev", 100)

	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(snap.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(snap.ID); err == nil {
		t.Error("Get should fail after Delete")
	}

	var ctlErr *errors.CtlError
	err := store.Delete(snap.ID)
	if !errors.As(err, &ctlErr) || ctlErr.Kind != errors.KindSnapshotNotFound {
		t.Errorf("double Delete = %v, want snapshot-not-found", err)
	}
}

func TestResolve(t *testing.T) {
	store := NewFileStore(t.TempDir())
	snap := testSnapshot(t, "dev", 100)
	if err := store.Save(snap); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(store, snap.ID[:8])
	if err != nil {
		t.Fatalf("Resolve by prefix failed: %v", err)
	}
	if got.ID != snap.ID {
		t.Errorf("Resolve = %s, want %s", got.ShortID(), snap.ShortID())
	}

	if _, err := Resolve(store, "ffffffff"); err == nil {
		t.Error("Resolve of unknown prefix should fail")
	}
}
