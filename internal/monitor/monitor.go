// Package monitor provides background health monitoring for the active
// environment.
package monitor

import (
	"context"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/audit"
	"github.com/firefly-engineering/sandnet-ctl/internal/control"
	"github.com/firefly-engineering/sandnet-ctl/internal/logging"
	"github.com/firefly-engineering/sandnet-ctl/internal/supervisor"
)

// Monitor periodically polls the coordinator's status. Polling is what
// detects the death of a reattached validator, which has no watch
// goroutine of its own; for supervised processes it only records health
// observations.
type Monitor struct {
	interval time.Duration
	coord    *control.Coordinator
	trail    *audit.Trail
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAuditTrail records health observations to the audit trail.
func WithAuditTrail(trail *audit.Trail) Option {
	return func(m *Monitor) { m.trail = trail }
}

// New creates a Monitor polling at the given interval.
func New(interval time.Duration, coord *control.Coordinator, opts ...Option) *Monitor {
	m := &Monitor{interval: interval, coord: coord}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is
// cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting health monitor", "interval", m.interval)

	// Run an immediate check, then loop on interval.
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("health monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	st := m.coord.Status(ctx)
	if st.Environment == nil {
		return
	}

	if st.Health == supervisor.Unhealthy {
		logging.Warn("validator unhealthy", "environment", st.Environment.Name)
	}

	if m.trail != nil && st.State == control.StateRunning {
		entry := audit.Entry{
			Type:        "health",
			Environment: st.Environment.Name,
			Details:     string(st.Health),
		}
		if st.SlotKnown {
			entry.Slot = st.Slot
		}
		if err := m.trail.Append(entry); err != nil {
			logging.Warn("failed to record health observation", "error", err)
		}
	}
}
