package supervisor

import (
	"bufio"
	"io"
	"sync"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
)

// tailSize is the number of final output lines retained for diagnostics
// after the process exits.
const tailSize = 64

// subscriberBuffer is the per-subscriber line channel capacity. Slow
// subscribers drop lines rather than stall the pump.
const subscriberBuffer = 256

// Handle is the live representation of a running validator process. It
// exists exactly while the environment is Running or Stopping.
type Handle struct {
	env       *environment.Environment
	proc      Proc
	startedAt time.Time

	mu          sync.Mutex
	subscribers map[int]chan string
	nextSubID   int
	tail        []string
	lastHealthy time.Time
	exitCode    int
	exited      bool

	exitCh chan struct{}
	pumpWG sync.WaitGroup
}

func newHandle(env *environment.Environment, proc Proc) *Handle {
	h := &Handle{
		env:         env,
		proc:        proc,
		startedAt:   time.Now(),
		subscribers: make(map[int]chan string),
		exitCh:      make(chan struct{}),
	}

	h.pumpWG.Add(2)
	go h.pump(proc.Stdout())
	go h.pump(proc.Stderr())

	return h
}

// pump reads one output stream line by line, broadcasting to subscribers
// and keeping the tail ring. Runs until the stream closes on exit.
func (h *Handle) pump(r io.Reader) {
	defer h.pumpWG.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.broadcast(scanner.Text())
	}
}

func (h *Handle) broadcast(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tail = append(h.tail, line)
	if len(h.tail) > tailSize {
		h.tail = h.tail[len(h.tail)-tailSize:]
	}

	for _, ch := range h.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

// recordExit marks the handle exited and closes subscriber channels after
// the output pumps drain.
func (h *Handle) recordExit(code int) {
	h.pumpWG.Wait()

	h.mu.Lock()
	h.exitCode = code
	h.exited = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	close(h.exitCh)
}

// Environment returns the environment this process was spawned for.
func (h *Handle) Environment() *environment.Environment {
	return h.env
}

// Pid returns the operating-system process id.
func (h *Handle) Pid() int {
	return h.proc.Pid()
}

// StartedAt returns the spawn timestamp.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// SubscribeOutput returns a channel of process output lines and a cancel
// function. The channel is closed when the process exits or the
// subscription is cancelled. Multiple subscribers each receive every line.
func (h *Handle) SubscribeOutput() (<-chan string, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.exited {
		ch := make(chan string)
		close(ch)
		return ch, func() {}
	}

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan string, subscriberBuffer)
	h.subscribers[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			close(sub)
			delete(h.subscribers, id)
		}
	}
	return ch, cancel
}

// Exited returns a channel closed once the process has exited and its
// output has been fully drained.
func (h *Handle) Exited() <-chan struct{} {
	return h.exitCh
}

// ExitCode returns the recorded exit code. The bool is false while the
// process is still running.
func (h *Handle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, h.exited
}

// Tail returns the final retained output lines for diagnostics.
func (h *Handle) Tail() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.tail))
	copy(out, h.tail)
	return out
}

// MarkHealthy records a successful health observation.
func (h *Handle) MarkHealthy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastHealthy = time.Now()
}

// LastHealthy returns the timestamp of the last successful health
// observation, zero if none.
func (h *Handle) LastHealthy() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastHealthy
}
