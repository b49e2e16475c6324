// Package autoflip advances the visible item on every widget instance at a
// fixed cadence, driven by one-shot alarms that re-arm themselves after each
// tick.
package autoflip

import (
	"time"

	"github.com/snapvault/widgetsync/internal/common"
)

// AlarmScheduler arms one-shot callbacks. Exact alarms fire on time but may
// be forbidden by the host at any moment; approximate alarms are always
// available and may fire late.
type AlarmScheduler interface {
	// CanScheduleExact reports whether exact alarms are currently permitted.
	CanScheduleExact() bool

	// ScheduleExact arms fire after d. It returns a cancel function, or
	// common.ErrExactAlarmNotPermitted if permission is gone; the
	// permission can be revoked between a CanScheduleExact probe and this
	// call, so callers must handle the error even after a positive probe.
	ScheduleExact(d time.Duration, fire func()) (cancel func(), err error)

	// ScheduleApproximate arms fire after at least d, possibly later.
	ScheduleApproximate(d time.Duration, fire func()) (cancel func())
}

// ClockAlarm is the process-clock AlarmScheduler. The permitted probe stands
// in for the host's exact-alarm permission and may change between calls.
type ClockAlarm struct {
	permitted func() bool
	slack     time.Duration
}

// NewClockAlarm builds a ClockAlarm. permitted may be nil, meaning exact
// alarms are always allowed; slack is the extra delay tolerated on
// approximate alarms.
func NewClockAlarm(permitted func() bool, slack time.Duration) *ClockAlarm {
	if permitted == nil {
		permitted = func() bool { return true }
	}
	return &ClockAlarm{permitted: permitted, slack: slack}
}

func (a *ClockAlarm) CanScheduleExact() bool {
	return a.permitted()
}

func (a *ClockAlarm) ScheduleExact(d time.Duration, fire func()) (func(), error) {
	if !a.permitted() {
		return nil, common.ErrExactAlarmNotPermitted
	}
	t := time.AfterFunc(d, fire)
	return func() { t.Stop() }, nil
}

func (a *ClockAlarm) ScheduleApproximate(d time.Duration, fire func()) func() {
	t := time.AfterFunc(d+a.slack, fire)
	return func() { t.Stop() }
}
