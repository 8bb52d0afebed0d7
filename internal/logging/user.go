package logging

import (
	"fmt"
	"os"
)

// Operator-facing output for sandnet-ctl verbs, with emoji prefixes.
// These write to stdout/stderr directly and bypass the structured slog
// output, which stays on stderr for --verbose and --json runs.

// UserInfo prints an informational line, e.g. remediation hints.
func UserInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "ℹ "+format+"\n", args...)
}

// UserSuccess prints a completed-operation line (started, snapshotted,
// restored).
func UserSuccess(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "✓ "+format+"\n", args...)
}

// UserWarning prints a degraded-but-continuing line to stderr.
func UserWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// UserError prints a failure line to stderr.
func UserError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}
