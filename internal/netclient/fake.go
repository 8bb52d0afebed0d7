package netclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
)

// Fake is an in-memory validator for testing.
type Fake struct {
	mu sync.Mutex

	// CurrentSlot is the simulated clock position.
	CurrentSlot uint64

	// AutoAdvance makes the clock move by this many slots on every Slot
	// read while not paused, simulating a validator that produces blocks
	// on its own.
	AutoAdvance uint64

	// SupportsPause controls whether PauseClock succeeds or reports
	// ErrUnsupported.
	SupportsPause bool

	// Healthy controls the Health response.
	Healthy bool

	paused bool

	// StoredAccounts and StoredPrograms hold the simulated state.
	StoredAccounts []Account
	StoredPrograms []Program

	// Errors allows injecting errors for specific methods.
	Errors map[string]error

	// CallLog records method names in call order.
	CallLog []string
}

// NewFake creates a healthy fake validator with a pausable clock.
func NewFake() *Fake {
	return &Fake{
		SupportsPause: true,
		Healthy:       true,
		Errors:        make(map[string]error),
	}
}

// Dial returns a Dialer that always yields this fake, regardless of port.
func (f *Fake) Dial(int) Client { return f }

// SetError injects an error for a method name.
func (f *Fake) SetError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[method] = err
}

// Calls returns the number of calls recorded for a method.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.CallLog {
		if call == method {
			n++
		}
	}
	return n
}

func (f *Fake) begin(method string) error {
	f.CallLog = append(f.CallLog, method)
	if err, ok := f.Errors[method]; ok {
		return err
	}
	return nil
}

// Health implements Client.
func (f *Fake) Health(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Health"); err != nil {
		return err
	}
	if !f.Healthy {
		return fmt.Errorf("validator not ready")
	}
	return nil
}

// Slot implements Client. With AutoAdvance set and the clock unpaused, the
// position moves on every read.
func (f *Fake) Slot(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Slot"); err != nil {
		return 0, err
	}
	if f.AutoAdvance > 0 && !f.paused {
		f.CurrentSlot += f.AutoAdvance
	}
	return f.CurrentSlot, nil
}

// AdvanceSlot implements Client.
func (f *Fake) AdvanceSlot(ctx context.Context, delta uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AdvanceSlot"); err != nil {
		return 0, err
	}
	f.CurrentSlot += delta
	return f.CurrentSlot, nil
}

// WarpSlot implements Client.
func (f *Fake) WarpSlot(ctx context.Context, target uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("WarpSlot"); err != nil {
		return 0, err
	}
	if target < f.CurrentSlot {
		return 0, fmt.Errorf("validator rejected warp to past slot %d", target)
	}
	f.CurrentSlot = target
	return f.CurrentSlot, nil
}

// PauseClock implements Client.
func (f *Fake) PauseClock(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PauseClock"); err != nil {
		return err
	}
	if !f.SupportsPause {
		return errors.ErrUnsupported
	}
	f.paused = true
	return nil
}

// ResumeClock implements Client.
func (f *Fake) ResumeClock(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ResumeClock"); err != nil {
		return err
	}
	f.paused = false
	return nil
}

// Paused reports whether the fake clock is currently paused.
func (f *Fake) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// Accounts implements Client.
func (f *Fake) Accounts(ctx context.Context) ([]Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Accounts"); err != nil {
		return nil, err
	}
	out := make([]Account, len(f.StoredAccounts))
	copy(out, f.StoredAccounts)
	return out, nil
}

// Programs implements Client.
func (f *Fake) Programs(ctx context.Context) ([]Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Programs"); err != nil {
		return nil, err
	}
	out := make([]Program, len(f.StoredPrograms))
	copy(out, f.StoredPrograms)
	return out, nil
}

// PutAccounts implements Client.
func (f *Fake) PutAccounts(ctx context.Context, accounts []Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutAccounts"); err != nil {
		return err
	}
	f.StoredAccounts = append([]Account(nil), accounts...)
	return nil
}

// PutPrograms implements Client.
func (f *Fake) PutPrograms(ctx context.Context, programs []Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutPrograms"); err != nil {
		return err
	}
	f.StoredPrograms = append([]Program(nil), programs...)
	return nil
}

// SetClock implements Client.
func (f *Fake) SetClock(ctx context.Context, slot uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SetClock"); err != nil {
		return err
	}
	f.CurrentSlot = slot
	return nil
}
