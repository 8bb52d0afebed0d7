package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
)

// Store persists snapshots.
type Store interface {
	// Save persists a snapshot record. Saving an existing ID overwrites it.
	Save(snap *Snapshot) error

	// Get loads a snapshot by its full ID.
	Get(id string) (*Snapshot, error)

	// List returns all snapshots, newest first.
	List() ([]*Snapshot, error)

	// Delete removes a snapshot by its full ID.
	Delete(id string) error
}

// FileStore is a Store backed by one JSON file per snapshot.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a store rooted at the snapshots directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" {
		return "", errors.InvalidArgument("snapshot id cannot be empty")
	}
	return config.SafePath(s.dir, id, ".json")
}

// Save implements Store.
func (s *FileStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(snap.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn record.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

func (s *FileStore) read(id string) (*Snapshot, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SnapshotNotFound(id)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// List implements Store.
func (s *FileStore) List() ([]*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	var snaps []*Snapshot
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		snap, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps, nil
}

// Delete implements Store.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.SnapshotNotFound(id)
		}
		return fmt.Errorf("failed to delete snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Resolve finds the single snapshot whose ID starts with idOrPrefix. An
// exact full-ID match wins; an ambiguous prefix is rejected.
func Resolve(store Store, idOrPrefix string) (*Snapshot, error) {
	if idOrPrefix == "" {
		return nil, errors.InvalidArgument("snapshot id cannot be empty")
	}

	snaps, err := store.List()
	if err != nil {
		return nil, err
	}

	var matches []*Snapshot
	for _, snap := range snaps {
		if snap.ID == idOrPrefix {
			return snap, nil
		}
		if strings.HasPrefix(snap.ID, idOrPrefix) {
			matches = append(matches, snap)
		}
	}

	switch len(matches) {
	case 0:
		return nil, errors.SnapshotNotFound(idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return nil, errors.InvalidArgument(fmt.Sprintf("snapshot id %q is ambiguous (%d matches)", idOrPrefix, len(matches)))
	}
}
