package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetup_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Info("starting validator", "env", "dev")

	output := buf.String()
	if !strings.Contains(output, "starting validator") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "dev") {
		t.Errorf("expected attribute value in output, got: %s", output)
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, true, &buf)

	Info("starting validator", "env", "dev")

	output := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("expected JSON output, got: %s", output)
	}
}

func TestSetup_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(true, false, &buf)

	if !Verbose {
		t.Error("Verbose flag should be true after Setup(true, ...)")
	}

	Debug("probe attempt", "n", 3)

	if !strings.Contains(buf.String(), "probe attempt") {
		t.Errorf("debug message should appear in verbose mode, got: %s", buf.String())
	}
}

func TestSetup_NonVerboseSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Debug("probe attempt")

	if strings.Contains(buf.String(), "probe attempt") {
		t.Errorf("debug message should not appear without verbose, got: %s", buf.String())
	}
}

func TestSetup_NilWriter(t *testing.T) {
	Setup(false, false, nil)
	// Must not panic.
	Info("writing to stderr")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	l := With("env", "dev")
	l.Info("scoped message")

	output := buf.String()
	if !strings.Contains(output, "scoped message") || !strings.Contains(output, "dev") {
		t.Errorf("expected scoped attributes in output, got: %s", output)
	}
}

func TestWarnAndError(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Warn("clock drift", "delta", 2)
	Error("spawn failed", "error", "port in use")

	output := buf.String()
	if !strings.Contains(output, "clock drift") {
		t.Errorf("expected warn message, got: %s", output)
	}
	if !strings.Contains(output, "spawn failed") {
		t.Errorf("expected error message, got: %s", output)
	}
}
