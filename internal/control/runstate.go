package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// runStateFile is the file name under the state directory.
const runStateFile = "runstate.json"

// RunState mirrors the coordinator's lifecycle facts to disk so a later
// CLI invocation can reattach to a validator started by an earlier one.
type RunState struct {
	Environment string         `json:"environment"`
	State       LifecycleState `json:"state"`
	Pid         int            `json:"pid"`
	ControlPort int            `json:"controlPort"`
	EventPort   int            `json:"eventPort"`
	StartedAt   time.Time      `json:"startedAt"`
}

func runStatePath(stateDir string) string {
	return filepath.Join(stateDir, runStateFile)
}

// SaveRunState writes the run-state file atomically.
func SaveRunState(stateDir string, rs *RunState) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}

	path := runStatePath(stateDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize run state: %w", err)
	}
	return nil
}

// LoadRunState reads the run-state file. A missing file returns nil
// without error.
func LoadRunState(stateDir string) (*RunState, error) {
	data, err := os.ReadFile(runStatePath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var rs RunState
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse run state: %w", err)
	}
	return &rs, nil
}

// ClearRunState removes the run-state file. Missing is not an error.
func ClearRunState(stateDir string) error {
	err := os.Remove(runStatePath(stateDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear run state: %w", err)
	}
	return nil
}

// ProcessAlive reports whether a pid names a live process we can signal.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}
