// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Data is lost on restart.
type MemoryStore struct {
	records []Record // ordered by Timestamp ascending
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates an in-memory store holding at most maxLen records.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		records: make([]Record, 0, min(maxLen, 1024)),
		maxLen:  maxLen,
	}
}

// Save appends a record, evicting the oldest 10% when full.
func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) >= s.maxLen {
		removeCount := max(s.maxLen/10, 1)
		s.records = s.records[removeCount:]
	}

	// Records usually arrive in order; insert keeps the slice sorted otherwise.
	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Timestamp.After(rec.Timestamp)
	})
	s.records = append(s.records, Record{})
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = *rec
	return nil
}

// Get retrieves a record by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := newPage(filter)
	for i := len(s.records) - 1; i >= 0; i-- {
		if !filter.matches(&s.records[i]) {
			continue
		}
		if !p.add(s.records[i]) {
			break
		}
	}
	return p.out, nil
}

// Count returns the number of matching records.
func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.records {
		if filter.matches(&s.records[i]) {
			count++
		}
	}
	return count, nil
}

// Stats computes the monitoring aggregate.
func (s *MemoryStore) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := newStatsAccumulator(now)
	for i := range s.records {
		acc.add(&s.records[i])
	}
	return acc.result(), nil
}

// Summary groups matching records by action.
func (s *MemoryStore) Summary(ctx context.Context, filter Filter) ([]ActionCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := summaryAccumulator{}
	for i := range s.records {
		if filter.matches(&s.records[i]) {
			acc.add(&s.records[i])
		}
	}
	return acc.result(), nil
}

// Prune removes records older than olderThan.
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.records), func(i int) bool {
		return !s.records[i].Timestamp.Before(olderThan)
	})
	s.records = append(s.records[:0], s.records[i:]...)
	return int64(i), nil
}

// Backend implements Store.
func (s *MemoryStore) Backend() string { return "memory" }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of records held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Capacity returns the record limit beyond which the oldest records are evicted.
func (s *MemoryStore) Capacity() int { return s.maxLen }
