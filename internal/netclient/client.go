package netclient

import "context"

// Account is one account tuple as reported by the validator.
type Account struct {
	Pubkey   string `json:"pubkey"`
	Owner    string `json:"owner"`
	Lamports uint64 `json:"lamports"`
	Data     []byte `json:"data,omitempty"`
}

// Program is one deployed program record as reported by the validator.
type Program struct {
	ID         string `json:"id"`
	BinaryHash string `json:"binaryHash"`
	Binary     []byte `json:"binary,omitempty"`
}

// Client is the control-surface client for a running validator.
// All methods honor context cancellation and deadlines.
type Client interface {
	// Health reports whether the validator answers on its control port.
	Health(ctx context.Context) error

	// Slot returns the current clock position.
	Slot(ctx context.Context) (uint64, error)

	// AdvanceSlot moves the clock forward by delta slots and returns the
	// acknowledged position.
	AdvanceSlot(ctx context.Context, delta uint64) (uint64, error)

	// WarpSlot moves the clock to an absolute target at or beyond the
	// current position and returns the acknowledged position.
	WarpSlot(ctx context.Context, target uint64) (uint64, error)

	// PauseClock suspends automatic clock advancement. Validators without
	// auto-advance return errors.ErrUnsupported.
	PauseClock(ctx context.Context) error

	// ResumeClock resumes automatic clock advancement.
	ResumeClock(ctx context.Context) error

	// Accounts enumerates all known accounts.
	Accounts(ctx context.Context) ([]Account, error)

	// Programs enumerates all deployed programs.
	Programs(ctx context.Context) ([]Program, error)

	// PutAccounts writes accounts into the validator's state. Used for
	// preloaded accounts and snapshot restore seeding.
	PutAccounts(ctx context.Context, accounts []Account) error

	// PutPrograms writes deployed programs into the validator's state.
	PutPrograms(ctx context.Context, programs []Program) error

	// SetClock asserts an absolute clock position. Only valid while
	// seeding a freshly spawned process during restore.
	SetClock(ctx context.Context, slot uint64) error
}

// Dialer builds a Client for a validator's control port. The supervisor
// and coordinator take a Dialer so tests can substitute a Fake.
type Dialer func(controlPort int) Client
