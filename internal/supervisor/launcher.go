package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Spec describes one validator process invocation.
type Spec struct {
	Binary  string
	Args    []string
	WorkDir string
}

// Proc is a started OS process.
type Proc interface {
	// Pid returns the operating-system process id.
	Pid() int

	// Stdout and Stderr stream the process output. Both are closed by the
	// process exiting.
	Stdout() io.Reader
	Stderr() io.Reader

	// Signal delivers a signal to the process.
	Signal(sig os.Signal) error

	// Kill force-terminates the process.
	Kill() error

	// Wait blocks until the process exits and returns its exit code.
	// Signal-based exits report -1.
	Wait() int
}

// Launcher starts validator processes. The default implementation uses
// os/exec; tests substitute FakeLauncher.
type Launcher interface {
	Start(spec Spec) (Proc, error)
}

// osLauncher implements Launcher using real OS operations.
type osLauncher struct{}

// NewOSLauncher returns the Launcher backed by os/exec.
func NewOSLauncher() Launcher {
	return &osLauncher{}
}

func (l *osLauncher) Start(spec Spec) (Proc, error) {
	if err := os.MkdirAll(spec.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	cmd := exec.Command(spec.Binary, spec.Args...)
	cmd.Dir = spec.WorkDir
	// Own process group so a force-kill cannot take the controller down.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &osProc{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type osProc struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

func (p *osProc) Pid() int          { return p.cmd.Process.Pid }
func (p *osProc) Stdout() io.Reader { return p.stdout }
func (p *osProc) Stderr() io.Reader { return p.stderr }

func (p *osProc) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *osProc) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *osProc) Wait() int {
	err := p.cmd.Wait()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
