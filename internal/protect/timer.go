// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import "time"

// timerSlot holds at most one pending timer. Arming a slot always cancels the
// previous timer first, and every callback carries the generation it was armed
// with so a callback that was already in flight when the slot was re-armed or
// cancelled is discarded.
//
// A slot is not safe for concurrent use on its own. All methods, and the
// callbacks delivered through exec, run under the owning session's lock.
type timerSlot struct {
	clock Clock
	exec  func(func()) // serializes a fired callback with the session
	gen   uint64
	timer Timer
}

func newTimerSlot(clock Clock, exec func(func())) *timerSlot {
	return &timerSlot{clock: clock, exec: exec}
}

// Start arms fn to run once after d.
func (t *timerSlot) Start(d time.Duration, fn func()) {
	t.Cancel()
	t.arm(d, fn, false)
}

// Every arms fn to run every d until the slot is cancelled or re-armed.
func (t *timerSlot) Every(d time.Duration, fn func()) {
	t.Cancel()
	t.arm(d, fn, true)
}

// Cancel stops the pending timer, if any, and invalidates in-flight callbacks.
func (t *timerSlot) Cancel() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Active reports whether a timer is pending.
func (t *timerSlot) Active() bool {
	return t.timer != nil
}

func (t *timerSlot) arm(d time.Duration, fn func(), repeat bool) {
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() {
		t.exec(func() {
			if t.gen != gen {
				return
			}
			// Re-arm before fn so fn may cancel or replace the slot.
			if repeat {
				t.arm(d, fn, true)
			} else {
				t.timer = nil
			}
			fn()
		})
	})
}
