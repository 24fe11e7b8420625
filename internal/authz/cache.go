// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package authz

import (
	"sync"
	"time"
)

const maxCachedDecisions = 4096

// decisionCache memoizes enforcement results. Entries expire after ttl and
// the whole map is dropped when it reaches capacity; the key space is a few
// roles times a few routes, so that only happens under path scanning.
type decisionCache struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu    sync.RWMutex
	items map[decisionKey]decision
}

type decisionKey struct {
	role, object, action string
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration, capacity int) *decisionCache {
	return &decisionCache{
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		items:    make(map[decisionKey]decision),
	}
}

func (c *decisionCache) get(role, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	d, found := c.items[decisionKey{role, object, action}]
	c.mu.RUnlock()

	if !found || c.now().After(d.expiresAt) {
		RecordAuthzCacheMiss()
		return false, false
	}
	RecordAuthzCacheHit()
	return d.allowed, true
}

func (c *decisionCache) set(role, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.capacity {
		c.items = make(map[decisionKey]decision)
	}
	c.items[decisionKey{role, object, action}] = decision{
		allowed:   allowed,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	c.items = make(map[decisionKey]decision)
	c.mu.Unlock()
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
