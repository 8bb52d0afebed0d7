package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
	"github.com/firefly-engineering/sandnet-ctl/internal/netclient"
)

func fastProbe() Probe {
	return Probe{Interval: 5 * time.Millisecond, Timeout: 250 * time.Millisecond}
}

func TestWaitReady_Immediate(t *testing.T) {
	validator := netclient.NewFake()

	err := fastProbe().WaitReady(context.Background(), validator, nil, func() (int, bool) { return 0, false })
	if err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
	if validator.Calls("Health") == 0 {
		t.Error("expected at least one health call")
	}
}

func TestWaitReady_BecomesHealthyLater(t *testing.T) {
	validator := netclient.NewFake()
	validator.SetError("Health", fmt.Errorf("still starting"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		validator.SetError("Health", nil)
	}()

	if err := fastProbe().WaitReady(context.Background(), validator, nil, func() (int, bool) { return 0, false }); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
	if validator.Calls("Health") < 2 {
		t.Errorf("expected retries, got %d health calls", validator.Calls("Health"))
	}
}

func TestWaitReady_Timeout(t *testing.T) {
	validator := netclient.NewFake()
	validator.Healthy = false

	err := fastProbe().WaitReady(context.Background(), validator, nil, func() (int, bool) { return 0, false })
	var ctlErr *errors.CtlError
	if !errors.As(err, &ctlErr) || ctlErr.Kind != errors.KindSpawnTimeout {
		t.Fatalf("expected spawn timeout, got %v", err)
	}
}

func TestWaitReady_ProcessExit(t *testing.T) {
	validator := netclient.NewFake()
	validator.Healthy = false

	exited := make(chan struct{})
	close(exited)

	err := fastProbe().WaitReady(context.Background(), validator, exited, func() (int, bool) { return 137, true })
	var ctlErr *errors.CtlError
	if !errors.As(err, &ctlErr) || ctlErr.Kind != errors.KindCrashedDuringStartup {
		t.Fatalf("expected startup crash, got %v", err)
	}
	if ctlErr.Message == "" {
		t.Error("crash error should carry a message")
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	validator := netclient.NewFake()
	validator.Healthy = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fastProbe().WaitReady(ctx, validator, nil, func() (int, bool) { return 0, false })
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
