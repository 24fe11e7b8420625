// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerTracker_ThresholdCrossing(t *testing.T) {
	p := NewPointerTracker(3)

	_, fired := p.Down(1)
	assert.False(t, fired)
	_, fired = p.Down(2)
	assert.False(t, fired)

	n, fired := p.Down(3)
	require.True(t, fired, "third pointer should cross the threshold")
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, p.Active(), "set must be cleared after emission")

	// A fourth finger still down does not re-fire on its own.
	_, fired = p.Down(4)
	assert.False(t, fired)
	assert.Equal(t, 1, p.Active())
}

func TestPointerTracker_DuplicateDownCountsOnce(t *testing.T) {
	p := NewPointerTracker(3)
	p.Down(7)
	p.Down(7)
	_, fired := p.Down(8)
	assert.False(t, fired)
	assert.Equal(t, 2, p.Active())
}

func TestPointerTracker_UpAndCancel(t *testing.T) {
	p := NewPointerTracker(3)
	p.Down(1)
	p.Down(2)
	p.Up(1)
	_, fired := p.Down(3)
	assert.False(t, fired, "released pointer must not count")

	p.Cancel()
	assert.Equal(t, 0, p.Active())
	p.Down(4)
	p.Down(5)
	_, fired = p.Down(6)
	assert.True(t, fired)
}

func TestViewportTracker_Band(t *testing.T) {
	tests := []struct {
		delta float64
		want  bool
	}{
		{0, false},
		{20, false},
		{20.5, true},
		{21, true},
		{150, true},
		{299, true},
		{300, false},
		{450, false},
	}

	for _, tt := range tests {
		v := NewViewportTracker(20, 300, 2*time.Second)
		v.Resize(800, epoch)

		_, got := v.Resize(800-tt.delta, epoch.Add(100*time.Millisecond))
		if got != tt.want {
			t.Errorf("Resize(delta=%v) fired = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func TestViewportTracker_FirstResizeSeeds(t *testing.T) {
	v := NewViewportTracker(20, 300, 2*time.Second)
	_, fired := v.Resize(500, epoch)
	assert.False(t, fired)
}

func TestViewportTracker_BaselineSettles(t *testing.T) {
	v := NewViewportTracker(20, 300, 2*time.Second)
	v.Resize(800, epoch)

	shift, fired := v.Resize(700, epoch.Add(100*time.Millisecond))
	require.True(t, fired)
	assert.Equal(t, 100.0, shift.Delta)

	// Still within the quiet period: baseline unchanged.
	_, fired = v.Resize(700, epoch.Add(500*time.Millisecond))
	assert.True(t, fired)

	// After 2s of quiet the baseline becomes 700.
	_, fired = v.Resize(700, epoch.Add(3*time.Second))
	assert.False(t, fired)

	shift, fired = v.Resize(650, epoch.Add(3100*time.Millisecond))
	require.True(t, fired)
	assert.Equal(t, 700.0, shift.Baseline)
	assert.Equal(t, 50.0, shift.Delta)
}

func TestVisibilityTracker_Spans(t *testing.T) {
	var v VisibilityTracker

	_, ok := v.Change(false, epoch)
	assert.False(t, ok, "show without hide yields nothing")

	v.Change(true, epoch)
	v.Change(true, epoch.Add(10*time.Millisecond)) // duplicate hide keeps first timestamp
	assert.True(t, v.Hidden())

	span, ok := v.Change(false, epoch.Add(200*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, span.Duration())
	assert.False(t, v.Hidden())
}

func TestHiddenSpan_ClampsNegative(t *testing.T) {
	span := HiddenSpan{HiddenAt: epoch, ShownAt: epoch.Add(-time.Second)}
	assert.Equal(t, time.Duration(0), span.Duration())
}
