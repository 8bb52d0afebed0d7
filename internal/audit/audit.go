// Package audit keeps a durable trail of lifecycle events per
// environment. Events are stored as JSON Lines (JSONL) files, one per
// environment, appended as they happen and readable after the fact for
// the logs verb.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/control"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Environment string    `json:"environment"`
	Slot        uint64    `json:"slot,omitempty"`
	SnapshotID  string    `json:"snapshotId,omitempty"`
	ExitCode    int       `json:"exitCode,omitempty"`
	Details     string    `json:"details,omitempty"`
}

// Trail writes and reads audit entries.
// Entries live in {stateDir}/audit/{environment}.events.jsonl.
type Trail struct {
	stateDir string
}

// NewTrail creates an audit trail rooted at stateDir.
func NewTrail(stateDir string) *Trail {
	return &Trail{stateDir: stateDir}
}

func (t *Trail) entryPath(environment string) string {
	return filepath.Join(t.stateDir, "audit", environment+".events.jsonl")
}

// Append adds an entry to the environment's trail.
func (t *Trail) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Environment == "" {
		entry.Environment = "unattributed"
	}

	path := t.entryPath(entry.Environment)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Entries reads all entries for an environment in chronological order.
func (t *Trail) Entries(environment string) ([]Entry, error) {
	f, err := os.Open(t.entryPath(environment))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("error reading audit trail: %w", err)
	}
	return entries, nil
}

// Remove deletes the trail for an environment.
func (t *Trail) Remove(environment string) error {
	if err := os.Remove(t.entryPath(environment)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Record subscribes to the coordinator's event stream and appends every
// event in the background until the context is cancelled. The
// subscription is established before Record returns, so no event emitted
// afterwards is missed.
func (t *Trail) Record(ctx context.Context, emitter *control.Emitter) {
	events, cancel := emitter.Subscribe()
	go t.record(ctx, events, cancel)
}

func (t *Trail) record(ctx context.Context, events <-chan control.Event, cancel func()) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			entry := Entry{
				Timestamp:   ev.Time,
				Type:        string(ev.Type),
				Environment: ev.Environment,
				Slot:        ev.Slot,
				SnapshotID:  ev.SnapshotID,
				ExitCode:    ev.ExitCode,
				Details:     ev.Message,
			}
			if err := t.Append(entry); err != nil {
				logging.Warn("failed to append audit entry", "error", err)
			}
		}
	}
}
