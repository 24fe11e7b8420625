// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"sort"
	"time"

	"github.com/tomtom215/lectern/internal/actions"
)

// lastHour is the window counted by Stats.LastHourAttempts.
const lastHour = time.Hour

// matches reports whether rec satisfies every set field of f.
func (f Filter) matches(rec *Record) bool {
	if f.Action != "" && rec.Action != f.Action {
		return false
	}
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	if f.Start != nil && rec.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && rec.Timestamp.After(*f.End) {
		return false
	}
	return true
}

// statsAccumulator builds Stats from a record stream for the backends that
// scan in Go.
type statsAccumulator struct {
	cutoff time.Time
	users  map[string]struct{}
	stats  Stats
}

func newStatsAccumulator(now time.Time) *statsAccumulator {
	return &statsAccumulator{
		cutoff: now.Add(-lastHour),
		users:  make(map[string]struct{}),
	}
}

func (a *statsAccumulator) add(rec *Record) {
	a.stats.TotalAttempts++
	if rec.UserID != "" {
		a.users[rec.UserID] = struct{}{}
	}
	if !rec.Timestamp.Before(a.cutoff) {
		a.stats.LastHourAttempts++
	}
}

func (a *statsAccumulator) result() *Stats {
	s := a.stats
	s.UniqueUsers = int64(len(a.users))
	return &s
}

// summaryAccumulator counts records per action.
type summaryAccumulator map[actions.Action]int64

func (a summaryAccumulator) add(rec *Record) {
	a[rec.Action]++
}

func (a summaryAccumulator) result() []ActionCount {
	return sortSummary(a)
}

// sortSummary orders counts largest first, ties by action name.
func sortSummary(counts map[actions.Action]int64) []ActionCount {
	out := make([]ActionCount, 0, len(counts))
	for action, n := range counts {
		out = append(out, ActionCount{Action: action, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// page applies offset and limit to a newest-first slice.
type page struct {
	skip  int
	limit int
	out   []Record
}

func newPage(f Filter) *page {
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return &page{skip: offset, limit: f.EffectiveLimit()}
}

// add appends rec unless it falls before the offset. It returns false once the
// page is full.
func (p *page) add(rec Record) bool {
	if p.skip > 0 {
		p.skip--
		return true
	}
	p.out = append(p.out, rec)
	return len(p.out) < p.limit
}
