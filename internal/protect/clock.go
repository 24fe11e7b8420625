// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import "time"

// Timer is a pending callback scheduled by a Clock.
type Timer interface {
	Stop() bool
}

// Clock supplies time and one-shot timers. Sessions use SystemClock unless a
// test substitutes a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock. In the js/wasm build time.AfterFunc is backed
// by the browser event loop.
var SystemClock Clock = systemClock{}
