package supervisor

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FakeLauncher is a Launcher for tests. Each Start produces a FakeProc
// whose lifecycle the test controls.
type FakeLauncher struct {
	mu sync.Mutex

	// StartErr, when set, fails the next Start call.
	StartErr error

	// ExitImmediately makes spawned procs exit with ExitCode right away,
	// simulating a crash during startup.
	ExitImmediately bool
	ExitCode        int

	// Procs records every process started, in order.
	Procs []*FakeProc

	// Specs records every spec passed to Start.
	Specs []Spec
}

// NewFakeLauncher creates an empty fake launcher.
func NewFakeLauncher() *FakeLauncher {
	return &FakeLauncher{}
}

// Start implements Launcher.
func (l *FakeLauncher) Start(spec Spec) (Proc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.StartErr != nil {
		return nil, l.StartErr
	}

	proc := NewFakeProc(1000 + len(l.Procs))
	l.Procs = append(l.Procs, proc)
	l.Specs = append(l.Specs, spec)

	if l.ExitImmediately {
		proc.Exit(l.ExitCode)
	}
	return proc, nil
}

// Last returns the most recently started proc, or nil.
func (l *FakeLauncher) Last() *FakeProc {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Procs) == 0 {
		return nil
	}
	return l.Procs[len(l.Procs)-1]
}

// FakeProc is a controllable Proc. Tests emit output with EmitLine and
// end the process with Exit; SIGTERM delivery exits with code 0 unless
// IgnoreSignals is set.
type FakeProc struct {
	mu sync.Mutex

	pid  int
	code int
	done bool

	// IgnoreSignals simulates a hung process that only dies on Kill.
	IgnoreSignals bool

	// Signals records every signal delivered.
	Signals []os.Signal

	// Killed reports whether Kill was called.
	Killed bool

	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	exitCh chan struct{}
}

// NewFakeProc creates a running fake process with the given pid.
func NewFakeProc(pid int) *FakeProc {
	p := &FakeProc{pid: pid, exitCh: make(chan struct{})}
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

// EmitLine writes a line to the fake process stdout.
func (p *FakeProc) EmitLine(line string) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done {
		return
	}
	fmt.Fprintln(p.stdoutW, line)
}

// EmitErrLine writes a line to the fake process stderr.
func (p *FakeProc) EmitErrLine(line string) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done {
		return
	}
	fmt.Fprintln(p.stderrW, line)
}

// Exit ends the fake process with the given code, closing its output
// streams. Safe to call more than once.
func (p *FakeProc) Exit(code int) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.code = code
	p.mu.Unlock()

	p.stdoutW.Close()
	p.stderrW.Close()
	close(p.exitCh)
}

// Running reports whether the fake process has not yet exited.
func (p *FakeProc) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.done
}

// Pid implements Proc.
func (p *FakeProc) Pid() int { return p.pid }

// Stdout implements Proc.
func (p *FakeProc) Stdout() io.Reader { return p.stdoutR }

// Stderr implements Proc.
func (p *FakeProc) Stderr() io.Reader { return p.stderrR }

// Signal implements Proc. SIGTERM exits the process with code 0 unless
// IgnoreSignals is set.
func (p *FakeProc) Signal(sig os.Signal) error {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return os.ErrProcessDone
	}
	p.Signals = append(p.Signals, sig)
	ignore := p.IgnoreSignals
	p.mu.Unlock()

	if !ignore {
		p.Exit(0)
	}
	return nil
}

// Kill implements Proc.
func (p *FakeProc) Kill() error {
	p.mu.Lock()
	p.Killed = true
	p.mu.Unlock()
	p.Exit(-1)
	return nil
}

// Wait implements Proc.
func (p *FakeProc) Wait() int {
	<-p.exitCh
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code
}
