package health

import (
	"context"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
)

// Probe polls a validator's control endpoint until it reports ready.
type Probe struct {
	// Interval between status calls.
	Interval time.Duration

	// Timeout is the total time allowed for the validator to become ready.
	Timeout time.Duration
}

// DefaultProbe returns the documented probe defaults: one status call
// every 200ms for up to 30s.
func DefaultProbe() Probe {
	return Probe{
		Interval: config.DefaultHealthInterval,
		Timeout:  config.DefaultHealthTimeout,
	}
}

// WaitReady blocks until the validator answers a health call, the process
// exits, the timeout elapses, or ctx is cancelled.
//
// exited is closed when the process exits; exitCode reports the recorded
// code once it has. A process exit before the first successful health call
// is a startup crash, not a timeout.
func (p Probe) WaitReady(ctx context.Context, client netclient.Client, exited <-chan struct{}, exitCode func() (int, bool)) error {
	deadline := time.NewTimer(p.Timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	attempt := 0
	for {
		attempt++
		probeCtx, cancel := context.WithTimeout(ctx, p.Interval*4)
		err := client.Health(probeCtx)
		cancel()
		if err == nil {
			logging.Debug("validator ready", "attempts", attempt)
			return nil
		}
		logging.Debug("health probe not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			code, _ := exitCode()
			return errors.CrashedDuringStartup(code)
		case <-deadline.C:
			return errors.SpawnTimeout(p.Timeout.String())
		case <-ticker.C:
		}
	}
}
