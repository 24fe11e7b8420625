// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package cache

import (
	"sync"
	"time"
)

// EventWindow counts events inside a rolling time window using their exact
// timestamps. Callers supply the time of every operation, so the window is
// driven by event time rather than wall-clock arrival order.
//
// This is useful for:
//   - Escalation thresholds (e.g., 5 screenshot attempts per hour)
//   - Per-user detection rules fed by server-stamped records
//
// Complexity:
//   - AddAt: O(k) amortized where k = events currently in the window
//   - CountAt: O(k)
//   - Memory: O(min(k, capacity))
type EventWindow struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	times    []time.Time // ascending
}

// NewEventWindow creates a window of the given duration. capacity bounds the
// number of retained timestamps (0 = 1024); when exceeded the oldest are dropped.
func NewEventWindow(window time.Duration, capacity int) *EventWindow {
	if window <= 0 {
		window = time.Hour
	}
	if capacity <= 0 {
		capacity = 1024
	}
	return &EventWindow{
		window:   window,
		capacity: capacity,
		times:    make([]time.Time, 0, 8),
	}
}

// AddAt records an event at t and returns the number of events in the window
// ending at t, including this one.
func (w *EventWindow) AddAt(t time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.insert(t)
	w.prune(t)
	return w.countUpTo(t)
}

// CountAt returns the number of events in the window ending at t.
func (w *EventWindow) CountAt(t time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(t)
	return w.countUpTo(t)
}

// Reset clears the window.
func (w *EventWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.times = w.times[:0]
}

// insert keeps times ascending; out-of-order events are placed by timestamp.
// Must be called with lock held.
func (w *EventWindow) insert(t time.Time) {
	i := len(w.times)
	for i > 0 && w.times[i-1].After(t) {
		i--
	}
	w.times = append(w.times, time.Time{})
	copy(w.times[i+1:], w.times[i:])
	w.times[i] = t

	if len(w.times) > w.capacity {
		w.times = w.times[len(w.times)-w.capacity:]
	}
}

// prune drops events at or before t-window.
// Must be called with lock held.
func (w *EventWindow) prune(t time.Time) {
	cutoff := t.Add(-w.window)
	drop := 0
	for drop < len(w.times) && !w.times[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		w.times = append(w.times[:0], w.times[drop:]...)
	}
}

// countUpTo counts retained events not later than t.
// Must be called with lock held.
func (w *EventWindow) countUpTo(t time.Time) int {
	n := len(w.times)
	for n > 0 && w.times[n-1].After(t) {
		n--
	}
	return n
}

// EventWindowStore manages one EventWindow per key, for per-user or per-session
// tracking.
//
// Example usage:
//
//	store := NewEventWindowStore(time.Hour, 0, 10000)
//	n := store.AddAt("user:123", record.Timestamp)
type EventWindowStore struct {
	mu       sync.RWMutex
	windows  map[string]*EventWindow
	window   time.Duration
	capacity int
	maxKeys  int // maximum number of keys (0 = unlimited)
}

// NewEventWindowStore creates a new keyed store.
func NewEventWindowStore(window time.Duration, capacity, maxKeys int) *EventWindowStore {
	return &EventWindowStore{
		windows:  make(map[string]*EventWindow),
		window:   window,
		capacity: capacity,
		maxKeys:  maxKeys,
	}
}

// AddAt records an event for key at t and returns the key's count in the window.
func (s *EventWindowStore) AddAt(key string, t time.Time) int {
	s.mu.Lock()
	w, exists := s.windows[key]
	if !exists {
		if s.maxKeys > 0 && len(s.windows) >= s.maxKeys {
			s.evictOne()
		}
		w = NewEventWindow(s.window, s.capacity)
		s.windows[key] = w
	}
	s.mu.Unlock()

	return w.AddAt(t)
}

// CountAt returns the key's count in the window ending at t.
func (s *EventWindowStore) CountAt(key string, t time.Time) int {
	s.mu.RLock()
	w, exists := s.windows[key]
	s.mu.RUnlock()

	if !exists {
		return 0
	}
	return w.CountAt(t)
}

// Remove removes the window for key.
func (s *EventWindowStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}

// Len returns the number of tracked keys.
func (s *EventWindowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// CleanupInactive removes keys with no events in the window ending at t.
// Returns the number of keys removed.
func (s *EventWindowStore) CleanupInactive(t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if w.CountAt(t) == 0 {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// evictOne removes an arbitrary key when at capacity.
// Must be called with lock held.
func (s *EventWindowStore) evictOne() {
	for key := range s.windows {
		delete(s.windows, key)
		return
	}
}

// UniqueValueWindow tracks distinct values seen within a rolling window.
// Each value remembers only its most recent sighting.
type UniqueValueWindow struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

// NewUniqueValueWindow creates a new distinct-value window.
func NewUniqueValueWindow(window time.Duration) *UniqueValueWindow {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &UniqueValueWindow{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// AddAt records value at t and returns the number of distinct values in the
// window ending at t.
func (u *UniqueValueWindow) AddAt(value string, t time.Time) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	if last, ok := u.seen[value]; !ok || t.After(last) {
		u.seen[value] = t
	}
	return u.countLocked(t)
}

// CountAt returns the number of distinct values in the window ending at t.
func (u *UniqueValueWindow) CountAt(t time.Time) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.countLocked(t)
}

// ValuesAt returns the distinct values in the window ending at t.
func (u *UniqueValueWindow) ValuesAt(t time.Time) []string {
	u.mu.Lock()
	defer u.mu.Unlock()

	cutoff := t.Add(-u.window)
	values := make([]string, 0, len(u.seen))
	for v, last := range u.seen {
		if last.After(cutoff) && !last.After(t) {
			values = append(values, v)
		}
	}
	return values
}

func (u *UniqueValueWindow) countLocked(t time.Time) int {
	cutoff := t.Add(-u.window)
	n := 0
	for v, last := range u.seen {
		switch {
		case !last.After(cutoff):
			delete(u.seen, v)
		case !last.After(t):
			n++
		}
	}
	return n
}

// UniqueValueStore manages one UniqueValueWindow per key.
type UniqueValueStore struct {
	mu      sync.RWMutex
	windows map[string]*UniqueValueWindow
	window  time.Duration
	maxKeys int
}

// NewUniqueValueStore creates a new keyed distinct-value store.
func NewUniqueValueStore(window time.Duration, maxKeys int) *UniqueValueStore {
	return &UniqueValueStore{
		windows: make(map[string]*UniqueValueWindow),
		window:  window,
		maxKeys: maxKeys,
	}
}

// AddAt records value for key at t and returns the key's distinct count.
func (s *UniqueValueStore) AddAt(key, value string, t time.Time) int {
	s.mu.Lock()
	w, exists := s.windows[key]
	if !exists {
		if s.maxKeys > 0 && len(s.windows) >= s.maxKeys {
			for k := range s.windows {
				delete(s.windows, k)
				break
			}
		}
		w = NewUniqueValueWindow(s.window)
		s.windows[key] = w
	}
	s.mu.Unlock()

	return w.AddAt(value, t)
}

// ValuesAt returns the distinct values for key in the window ending at t.
func (s *UniqueValueStore) ValuesAt(key string, t time.Time) []string {
	s.mu.RLock()
	w, exists := s.windows[key]
	s.mu.RUnlock()

	if !exists {
		return nil
	}
	return w.ValuesAt(t)
}

// Len returns the number of tracked keys.
func (s *UniqueValueStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}
