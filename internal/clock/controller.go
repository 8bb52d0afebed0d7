package clock

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
)

// Controller moves the active validator's clock.
type Controller struct {
	timeout time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout overrides the control round-trip timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// New creates a clock controller with the documented 10s default timeout.
func New(opts ...Option) *Controller {
	c := &Controller{timeout: config.DefaultClockTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Advance moves the clock forward by delta slots and returns the
// acknowledged position. delta must be positive.
func (c *Controller) Advance(ctx context.Context, client netclient.Client, delta uint64) (uint64, error) {
	if delta == 0 {
		return 0, errors.InvalidArgument("advance delta must be greater than zero")
	}

	rtCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slot, err := client.AdvanceSlot(rtCtx, delta)
	if err != nil {
		return 0, c.roundTripError("clock advance", err)
	}

	logging.Debug("clock advanced", "delta", delta, "slot", slot)
	return slot, nil
}

// WarpTo moves the clock to an absolute target position. Targets at or
// beyond the current position behave like an advance; targets behind it
// are rejected without touching the validator, leaving state untouched.
func (c *Controller) WarpTo(ctx context.Context, client netclient.Client, target uint64) (uint64, error) {
	rtCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	current, err := client.Slot(rtCtx)
	if err != nil {
		return 0, c.roundTripError("clock position read", err)
	}

	if target < current {
		return 0, errors.CannotRewind(target, current)
	}
	if target == current {
		return current, nil
	}

	slot, err := client.WarpSlot(rtCtx, target)
	if err != nil {
		return 0, c.roundTripError("clock warp", err)
	}

	logging.Debug("clock warped", "target", target, "slot", slot)
	return slot, nil
}

// roundTripError classifies a failed control round-trip. Deadline
// expirations become ControlError timeouts, after which the clock position
// is of unknown consistency.
func (c *Controller) roundTripError(op string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(op, err)
	}
	return err
}
