// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"context"
	"sync"
	"time"
)

// MemoryAlertStore keeps the most recent alerts in memory. When capacity is
// reached the oldest alert is dropped.
type MemoryAlertStore struct {
	mu       sync.RWMutex
	alerts   []*Alert // oldest first
	byID     map[string]*Alert
	capacity int
}

// NewMemoryAlertStore creates a store holding up to capacity alerts
// (0 = 1000).
func NewMemoryAlertStore(capacity int) *MemoryAlertStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryAlertStore{
		alerts:   make([]*Alert, 0, min(capacity, 64)),
		byID:     make(map[string]*Alert),
		capacity: capacity,
	}
}

// SaveAlert implements AlertStore. The store keeps its own copy.
func (s *MemoryAlertStore) SaveAlert(_ context.Context, alert *Alert) error {
	stored := *alert

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[stored.ID]; ok {
		*existing = stored
		return nil
	}
	if len(s.alerts) >= s.capacity {
		delete(s.byID, s.alerts[0].ID)
		s.alerts[0] = nil
		s.alerts = s.alerts[1:]
	}
	s.alerts = append(s.alerts, &stored)
	s.byID[stored.ID] = &stored
	return nil
}

// GetAlert implements AlertStore.
func (s *MemoryAlertStore) GetAlert(_ context.Context, id string) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	out := *a
	return &out, nil
}

// ListAlerts implements AlertStore.
func (s *MemoryAlertStore) ListAlerts(_ context.Context, filter AlertFilter) ([]Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alert, 0, min(limit, len(s.alerts)))
	skipped := 0
	for i := len(s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		a := s.alerts[i]
		if !filter.matches(a) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

// AcknowledgeAlert implements AlertStore.
func (s *MemoryAlertStore) AcknowledgeAlert(_ context.Context, id, acknowledgedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return ErrAlertNotFound
	}
	now := time.Now().UTC()
	a.Acknowledged = true
	a.AcknowledgedBy = acknowledgedBy
	a.AcknowledgedAt = &now
	return nil
}

// GetAlertCount implements AlertStore.
func (s *MemoryAlertStore) GetAlertCount(_ context.Context, filter AlertFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.alerts {
		if filter.matches(a) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored alerts.
func (s *MemoryAlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
