// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package cache

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEventWindow_BasicOperations(t *testing.T) {
	w := NewEventWindow(time.Hour, 0)

	if got := w.CountAt(base); got != 0 {
		t.Errorf("CountAt() = %d, want 0", got)
	}

	for i := 1; i <= 5; i++ {
		if got := w.AddAt(base.Add(time.Duration(i) * time.Minute)); got != i {
			t.Errorf("AddAt() #%d = %d, want %d", i, got, i)
		}
	}
}

func TestEventWindow_Expiration(t *testing.T) {
	w := NewEventWindow(time.Hour, 0)

	w.AddAt(base)
	w.AddAt(base.Add(30 * time.Minute))

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"both inside", base.Add(59 * time.Minute), 2},
		{"first exactly at edge", base.Add(time.Hour), 1},
		{"second still inside", base.Add(89 * time.Minute), 1},
		{"all expired", base.Add(2 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.CountAt(tt.at); got != tt.want {
				t.Errorf("CountAt(%v) = %d, want %d", tt.at.Sub(base), got, tt.want)
			}
		})
	}
}

func TestEventWindow_OutOfOrder(t *testing.T) {
	w := NewEventWindow(time.Hour, 0)

	w.AddAt(base.Add(10 * time.Minute))
	w.AddAt(base.Add(5 * time.Minute))

	// An event later than the query time is not counted.
	if got := w.CountAt(base.Add(7 * time.Minute)); got != 1 {
		t.Errorf("CountAt(7m) = %d, want 1", got)
	}
	if got := w.CountAt(base.Add(11 * time.Minute)); got != 2 {
		t.Errorf("CountAt(11m) = %d, want 2", got)
	}
}

func TestEventWindow_Capacity(t *testing.T) {
	w := NewEventWindow(time.Hour, 3)

	for i := 0; i < 10; i++ {
		w.AddAt(base.Add(time.Duration(i) * time.Second))
	}
	if got := w.CountAt(base.Add(time.Minute)); got != 3 {
		t.Errorf("CountAt() = %d, want capacity 3", got)
	}
}

func TestEventWindow_Reset(t *testing.T) {
	w := NewEventWindow(time.Hour, 0)
	w.AddAt(base)
	w.Reset()

	if got := w.CountAt(base); got != 0 {
		t.Errorf("CountAt() after Reset = %d, want 0", got)
	}
}

func TestEventWindow_Concurrent(t *testing.T) {
	w := NewEventWindow(time.Hour, 100000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.AddAt(base)
			}
		}()
	}
	wg.Wait()

	if got := w.CountAt(base); got != 5000 {
		t.Errorf("CountAt() = %d, want 5000", got)
	}
}

func TestEventWindowStore_Keys(t *testing.T) {
	store := NewEventWindowStore(time.Hour, 0, 0)

	store.AddAt("user1", base)
	store.AddAt("user1", base.Add(time.Minute))
	store.AddAt("user2", base)

	if got := store.CountAt("user1", base.Add(time.Minute)); got != 2 {
		t.Errorf("CountAt(user1) = %d, want 2", got)
	}
	if got := store.CountAt("user2", base.Add(time.Minute)); got != 1 {
		t.Errorf("CountAt(user2) = %d, want 1", got)
	}
	if got := store.CountAt("user3", base); got != 0 {
		t.Errorf("CountAt(user3) = %d, want 0", got)
	}

	store.Remove("user1")
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestEventWindowStore_MaxKeys(t *testing.T) {
	store := NewEventWindowStore(time.Hour, 0, 5)

	for i := 0; i < 10; i++ {
		store.AddAt(fmt.Sprintf("user%d", i), base)
	}
	if store.Len() > 5 {
		t.Errorf("Len() = %d, want <= 5", store.Len())
	}
}

func TestEventWindowStore_CleanupInactive(t *testing.T) {
	store := NewEventWindowStore(time.Hour, 0, 0)

	store.AddAt("old", base)
	store.AddAt("fresh", base.Add(90*time.Minute))

	removed := store.CleanupInactive(base.Add(100 * time.Minute))
	if removed != 1 {
		t.Errorf("CleanupInactive() = %d, want 1", removed)
	}
	if store.CountAt("fresh", base.Add(100*time.Minute)) != 1 {
		t.Error("fresh key should survive cleanup")
	}
}

func TestUniqueValueWindow(t *testing.T) {
	u := NewUniqueValueWindow(10 * time.Minute)

	if got := u.AddAt("a", base); got != 1 {
		t.Errorf("AddAt(a) = %d, want 1", got)
	}
	if got := u.AddAt("a", base.Add(time.Minute)); got != 1 {
		t.Errorf("AddAt(a) again = %d, want 1", got)
	}
	if got := u.AddAt("b", base.Add(2*time.Minute)); got != 2 {
		t.Errorf("AddAt(b) = %d, want 2", got)
	}

	// "a" was last seen at +1m, so it leaves the window at +11m.
	if got := u.CountAt(base.Add(11 * time.Minute)); got != 1 {
		t.Errorf("CountAt(+11m) = %d, want 1", got)
	}
}

func TestUniqueValueStore(t *testing.T) {
	store := NewUniqueValueStore(10*time.Minute, 0)

	store.AddAt("user1", "screenshot_attempt", base)
	store.AddAt("user1", "devtools_opened", base.Add(time.Minute))
	n := store.AddAt("user1", "ui_obstruct", base.Add(2*time.Minute))
	if n != 3 {
		t.Errorf("AddAt() = %d, want 3", n)
	}

	values := store.ValuesAt("user1", base.Add(2*time.Minute))
	sort.Strings(values)
	want := []string{"devtools_opened", "screenshot_attempt", "ui_obstruct"}
	if fmt.Sprint(values) != fmt.Sprint(want) {
		t.Errorf("ValuesAt() = %v, want %v", values, want)
	}

	if got := store.ValuesAt("nobody", base); got != nil {
		t.Errorf("ValuesAt(nobody) = %v, want nil", got)
	}
}
