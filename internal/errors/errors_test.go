package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCtlError_Error(t *testing.T) {
	err := New(KindGeneral, ExitGeneralError, "something broke")
	if err.Error() != "something broke" {
		t.Errorf("Error() = %q, want %q", err.Error(), "something broke")
	}
}

func TestCtlError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(KindConfig, ExitConfigError, "config load failed", cause)

	if err.Error() != "config load failed: underlying" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause with errors.Is")
	}
}

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"busy", Busy("warp", "snapshot"), ErrBusy},
		{"invalid state", InvalidState("start", "running"), ErrInvalidState},
		{"timeout", Timeout("clock advance", nil), ErrTimeout},
		{"rewind", CannotRewind(10, 50), ErrCannotRewind},
		{"unstable", UnstableState(3), ErrUnstableState},
		{"port conflict", PortConflict(9000, nil), ErrPortConflict},
		{"env in use", EnvInUse("dev"), ErrEnvInUse},
		{"not running", NotRunning("dev"), ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false, want true", tt.err)
			}
		})
	}
}

func TestSentinelMatching_DistinctKinds(t *testing.T) {
	if errors.Is(Busy("warp", "snapshot"), ErrInvalidState) {
		t.Error("busy error should not match ErrInvalidState")
	}
	if errors.Is(Timeout("advance", nil), ErrBusy) {
		t.Error("timeout error should not match ErrBusy")
	}
}

func TestSentinelMatching_WrappedChain(t *testing.T) {
	err := fmt.Errorf("coordinator: %w", CannotRewind(5, 100))
	if !errors.Is(err, ErrCannotRewind) {
		t.Error("wrapped rewind error should still match ErrCannotRewind")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"env not found", EnvNotFound("dev"), ExitEnvNotFound},
		{"snapshot not found", SnapshotNotFound("abc"), ExitSnapshotNotFound},
		{"port conflict", PortConflict(9000, nil), ExitPortConflict},
		{"spawn timeout", SpawnTimeout("30s"), ExitSpawnFailed},
		{"crashed", CrashedDuringStartup(2), ExitSpawnFailed},
		{"busy", Busy("stop", "start"), ExitBusy},
		{"plain error", errors.New("plain"), ExitGeneralError},
		{"wrapped ctl error", fmt.Errorf("outer: %w", EnvNotFound("x")), ExitEnvNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", CrashedDuringStartup(137))

	var ctlErr *CtlError
	if !As(err, &ctlErr) {
		t.Fatal("As() should find CtlError in chain")
	}
	if ctlErr.Kind != KindCrashedDuringStartup {
		t.Errorf("Kind = %q, want %q", ctlErr.Kind, KindCrashedDuringStartup)
	}
}
