package errors

import (
	"errors"
	"fmt"
)

// Exit codes for sandnet-ctl
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitEnvNotFound      = 2
	ExitSnapshotNotFound = 3
	ExitPortConflict     = 4
	ExitSpawnFailed      = 5
	ExitConfigError      = 6
	ExitInvalidState     = 7
	ExitBusy             = 8
	ExitTimeout          = 9
)

// Kind classifies a controller error so callers can match on the
// failure class with errors.Is regardless of message details.
type Kind string

const (
	KindGeneral              Kind = "general"
	KindEnvNotFound          Kind = "env_not_found"
	KindEnvInUse             Kind = "env_in_use"
	KindSnapshotNotFound     Kind = "snapshot_not_found"
	KindPortConflict         Kind = "port_conflict"
	KindSpawnTimeout         Kind = "spawn_timeout"
	KindCrashedDuringStartup Kind = "crashed_during_startup"
	KindInvalidState         Kind = "invalid_state"
	KindBusy                 Kind = "busy"
	KindTimeout              Kind = "timeout"
	KindCannotRewind         Kind = "cannot_rewind_without_snapshot"
	KindInvalidArgument      Kind = "invalid_argument"
	KindUnstableState        Kind = "unstable_state"
	KindNotRunning           Kind = "not_running"
	KindPersistFailed        Kind = "persist_failed"
	KindStopFailed           Kind = "stop_failed"
	KindSpawnFailed          Kind = "spawn_failed"
	KindValidation           Kind = "validation"
	KindConfig               Kind = "config"
)

// CtlError is the base error type for sandnet-ctl.
type CtlError struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *CtlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CtlError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error.
func (e *CtlError) ExitCode() int {
	return e.Code
}

// Is reports whether target is a CtlError of the same kind, so that
// errors.Is(err, ErrBusy) matches any busy rejection.
func (e *CtlError) Is(target error) bool {
	t, ok := target.(*CtlError)
	return ok && t.Kind == e.Kind
}

// New creates a new CtlError.
func New(kind Kind, code int, message string) *CtlError {
	return &CtlError{Kind: kind, Code: code, Message: message}
}

// Wrap wraps an existing error with a CtlError.
func Wrap(kind Kind, code int, message string, cause error) *CtlError {
	return &CtlError{Kind: kind, Code: code, Message: message, Cause: cause}
}

// Sentinel values for errors.Is matching. The constructors below produce
// errors that match these by Kind.
var (
	ErrInvalidState  = New(KindInvalidState, ExitInvalidState, "operation not valid in current lifecycle state")
	ErrBusy          = New(KindBusy, ExitBusy, "another lifecycle operation is in flight")
	ErrTimeout       = New(KindTimeout, ExitTimeout, "control operation timed out")
	ErrCannotRewind  = New(KindCannotRewind, ExitGeneralError, "cannot move clock backward without a snapshot restore")
	ErrUnstableState = New(KindUnstableState, ExitGeneralError, "clock position unstable during capture")
	ErrPortConflict  = New(KindPortConflict, ExitPortConflict, "port already in use")
	ErrEnvInUse      = New(KindEnvInUse, ExitGeneralError, "environment is active")
	ErrNotRunning    = New(KindNotRunning, ExitInvalidState, "environment is not running")
	ErrUnsupported   = errors.New("operation not supported by validator")
)

// Common error constructors

// EnvNotFound returns an error for a missing environment.
func EnvNotFound(name string) *CtlError {
	return New(KindEnvNotFound, ExitEnvNotFound, fmt.Sprintf("environment not found: %s", name))
}

// EnvInUse returns an error for deleting or mutating the active environment.
func EnvInUse(name string) *CtlError {
	return New(KindEnvInUse, ExitGeneralError, fmt.Sprintf("environment %s is active", name))
}

// SnapshotNotFound returns an error for a missing snapshot.
func SnapshotNotFound(id string) *CtlError {
	return New(KindSnapshotNotFound, ExitSnapshotNotFound, fmt.Sprintf("snapshot not found: %s", id))
}

// PortConflict returns an error for a port bind failure at spawn time.
func PortConflict(port int, cause error) *CtlError {
	return Wrap(KindPortConflict, ExitPortConflict, fmt.Sprintf("port %d already in use", port), cause)
}

// SpawnTimeout returns an error for a validator that never became healthy.
func SpawnTimeout(timeout string) *CtlError {
	return New(KindSpawnTimeout, ExitSpawnFailed, fmt.Sprintf("validator not healthy after %s", timeout))
}

// CrashedDuringStartup returns an error for a validator that exited before
// its first successful health check.
func CrashedDuringStartup(exitCode int) *CtlError {
	return New(KindCrashedDuringStartup, ExitSpawnFailed, fmt.Sprintf("validator exited with code %d before becoming healthy", exitCode))
}

// InvalidState returns an error for an operation rejected by the coordinator.
func InvalidState(op, state string) *CtlError {
	return New(KindInvalidState, ExitInvalidState, fmt.Sprintf("cannot %s while %s", op, state))
}

// Busy returns an error for an operation arriving while another is in flight.
func Busy(op, inflight string) *CtlError {
	return New(KindBusy, ExitBusy, fmt.Sprintf("cannot %s: %s in progress", op, inflight))
}

// Timeout returns an error for a control round-trip that did not complete.
func Timeout(op string, cause error) *CtlError {
	return Wrap(KindTimeout, ExitTimeout, fmt.Sprintf("%s timed out", op), cause)
}

// InvalidArgument returns an error for a caller-supplied bad value.
func InvalidArgument(message string) *CtlError {
	return New(KindInvalidArgument, ExitGeneralError, message)
}

// CannotRewind returns an error for a warp target behind the current clock.
func CannotRewind(target, current uint64) *CtlError {
	return New(KindCannotRewind, ExitGeneralError,
		fmt.Sprintf("target slot %d is behind current slot %d; rewinding requires a snapshot restore", target, current))
}

// UnstableState returns an error for a capture whose clock reads never settled.
func UnstableState(attempts int) *CtlError {
	return New(KindUnstableState, ExitGeneralError, fmt.Sprintf("clock position still moving after %d capture attempts", attempts))
}

// NotRunning returns an error for a capture against a stopped environment.
func NotRunning(name string) *CtlError {
	return New(KindNotRunning, ExitInvalidState, fmt.Sprintf("environment %s is not running", name))
}

// PersistFailed returns an error for a snapshot hand-off that did not stick.
func PersistFailed(cause error) *CtlError {
	return Wrap(KindPersistFailed, ExitGeneralError, "failed to persist snapshot", cause)
}

// StopFailed returns an error for a restore that could not stop the target.
func StopFailed(name string, cause error) *CtlError {
	return Wrap(KindStopFailed, ExitGeneralError, fmt.Sprintf("failed to stop environment %s for restore", name), cause)
}

// SpawnFailed returns an error for a restore or start whose respawn failed.
func SpawnFailed(cause error) *CtlError {
	return Wrap(KindSpawnFailed, ExitSpawnFailed, "failed to spawn validator", cause)
}

// ValidationError returns an error for input validation failures.
func ValidationError(message string) *CtlError {
	return New(KindValidation, ExitGeneralError, message)
}

// ConfigError returns an error for configuration issues.
func ConfigError(message string, cause error) *CtlError {
	return Wrap(KindConfig, ExitConfigError, message, cause)
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	var ctlErr *CtlError
	if errors.As(err, &ctlErr) {
		return ctlErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
