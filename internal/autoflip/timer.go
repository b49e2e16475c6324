package autoflip

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/snapvault/widgetsync/internal/common"
	"github.com/snapvault/widgetsync/internal/logging"
	"github.com/snapvault/widgetsync/internal/models"
	"github.com/snapvault/widgetsync/internal/registry"
	"github.com/snapvault/widgetsync/internal/render"
	"github.com/snapvault/widgetsync/internal/store"
)

// Timer flips every active widget instance to its next item once per
// interval. Each tick arms a fresh one-shot alarm, so the cadence stops by
// itself when the last instance disappears and resumes on Start.
type Timer struct {
	states   *store.Store
	registry registry.Registry
	alarms   AlarmScheduler
	notifier render.Notifier
	logger   logging.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  func()
	stopped bool
}

func NewTimer(states *store.Store, reg registry.Registry, alarms AlarmScheduler,
	notifier render.Notifier, interval time.Duration, logger logging.Logger) *Timer {
	return &Timer{
		states:   states,
		registry: reg,
		alarms:   alarms,
		notifier: notifier,
		interval: interval,
		logger:   logger.With("component", "autoflip"),
		stopped:  true,
	}
}

// Start arms the first alarm. Starting an already running timer is a no-op.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		return
	}
	t.stopped = false
	t.armLocked(ctx)
}

// Stop cancels the pending alarm. Safe to call repeatedly.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// armLocked schedules the next tick, preferring an exact alarm and falling
// back to an approximate one when the permission is missing or was revoked
// after the probe.
func (t *Timer) armLocked(ctx context.Context) {
	fire := func() { t.tick(ctx) }

	if t.alarms.CanScheduleExact() {
		cancel, err := t.alarms.ScheduleExact(t.interval, fire)
		if err == nil {
			t.cancel = cancel
			return
		}
		if !errors.Is(err, common.ErrExactAlarmNotPermitted) {
			t.logger.Warn(ctx, "exact alarm failed", "error", err)
		}
	}

	t.cancel = t.alarms.ScheduleApproximate(t.interval, fire)
}

// tick advances every active instance that has more than one item, then
// re-arms only if instances remain.
func (t *Timer) tick(ctx context.Context) {
	active := t.registry.Active()

	for _, instanceID := range active {
		advanced := false
		_, err := t.states.Update(ctx, instanceID, func(st models.InstanceState) models.InstanceState {
			if len(st.RemindItems) < 2 {
				return st
			}
			st.CurrentIndex = (st.CurrentIndex + 1) % len(st.RemindItems)
			advanced = true
			return st
		})
		if err != nil {
			t.logger.Warn(ctx, "auto-flip update failed", "instance", instanceID, "error", err)
			continue
		}
		if advanced {
			t.notifier.Invalidate(instanceID)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if len(active) == 0 {
		t.stopped = true
		t.cancel = nil
		t.logger.Info(ctx, "no active instances, auto-flip idle")
		return
	}
	t.armLocked(ctx)
}
