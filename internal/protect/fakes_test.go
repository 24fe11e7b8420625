// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/lectern/internal/actions"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// manualClock is a deterministic Clock. Advance fires due timers in time
// order, outside its own lock.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	at    time.Time
	seq   int
	fn    func()
	done  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: epoch}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		live := c.timers[:0]
		for _, t := range c.timers {
			if t.done {
				continue
			}
			live = append(live, t)
			if t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
				next = t
			}
		}
		c.timers = live
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of live timers.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type recordingSink struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

func (s *recordingSink) Send(_ context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return s.err
}

func (s *recordingSink) Actions() []actions.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]actions.Action, len(s.reports))
	for i, r := range s.reports {
		out[i] = r.Action
	}
	return out
}

func (s *recordingSink) Count(a actions.Action) int {
	n := 0
	for _, got := range s.Actions() {
		if got == a {
			n++
		}
	}
	return n
}

type fakeProbe struct {
	mu    sync.Mutex
	geo   Geometry
	avail bool
}

func (p *fakeProbe) Geometry() (Geometry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.geo, p.avail
}

func (p *fakeProbe) SetGap(gap float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.avail = true
	p.geo = Geometry{OuterWidth: 1280 + gap, OuterHeight: 800, InnerWidth: 1280, InnerHeight: 800}
}

type fakeClipboard struct {
	mu     sync.Mutex
	writes []string
	fail   bool
}

func (c *fakeClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("clipboard permission denied")
	}
	c.writes = append(c.writes, text)
	return nil
}

func (c *fakeClipboard) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// renderLog collects rendered views.
type renderLog struct {
	mu    sync.Mutex
	views []View
}

func (r *renderLog) record(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *renderLog) Countdowns() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, v := range r.views {
		out = append(out, v.Overlay.Countdown)
	}
	return out
}

func (r *renderLog) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func keyDown(at time.Time, code string, ctrl, shift, meta bool) RawSignal {
	return RawSignal{Kind: SignalKeyDown, At: at, Key: KeyStroke{Code: code, Ctrl: ctrl, Shift: shift, Meta: meta}}
}
