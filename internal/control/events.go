package control

import (
	"sync"
	"time"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventStarting    EventType = "starting"
	EventStarted     EventType = "started"
	EventStopping    EventType = "stopping"
	EventStopped     EventType = "stopped"
	EventCrashed     EventType = "crashed"
	EventErrored     EventType = "errored"
	EventClockMoved  EventType = "clock_moved"
	EventSnapshotted EventType = "snapshotted"
	EventRestored    EventType = "restored"
	EventSwitched    EventType = "switched"
)

// Event is one lifecycle notification.
type Event struct {
	Type        EventType `json:"type"`
	Environment string    `json:"environment,omitempty"`
	State       string    `json:"state,omitempty"`
	Slot        uint64    `json:"slot,omitempty"`
	SnapshotID  string    `json:"snapshotId,omitempty"`
	ExitCode    int       `json:"exitCode,omitempty"`
	Message     string    `json:"message,omitempty"`
	Time        time.Time `json:"time"`
}

// eventBuffer is the per-subscriber channel capacity. Slow subscribers
// drop events rather than block lifecycle operations.
const eventBuffer = 64

// Emitter fans lifecycle events out to subscribers.
type Emitter struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of future events and a cancel function.
func (e *Emitter) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	ch := make(chan Event, eventBuffer)
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[id]; ok {
			close(sub)
			delete(e.subs, id)
		}
	}
	return ch, cancel
}

// Emit delivers an event to every subscriber without blocking.
func (e *Emitter) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
