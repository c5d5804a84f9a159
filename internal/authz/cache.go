// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 4096
)

// decisionCache caches per-authority decisions in a bounded LRU. Entries
// also expire after ttl; a ticker sweeps expired entries out.
type decisionCache struct {
	ttl      time.Duration
	items    *lru.Cache[decisionKey, decision]
	stopChan chan struct{}
	stopOnce sync.Once
}

type decisionKey struct {
	authority, entity, action string
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration, size int) (*decisionCache, error) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	items, err := lru.NewWithEvict[decisionKey, decision](size, func(decisionKey, decision) {
		CacheEvictions.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("create decision cache: %w", err)
	}

	c := &decisionCache{
		ttl:      ttl,
		items:    items,
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c, nil
}

func (c *decisionCache) get(authority, entity, action string) (allowed, ok bool) {
	key := decisionKey{authority, entity, action}
	d, found := c.items.Get(key)
	if !found {
		return false, false
	}
	if time.Now().After(d.expiresAt) {
		c.items.Remove(key)
		return false, false
	}
	return d.allowed, true
}

func (c *decisionCache) set(authority, entity, action string, allowed bool) {
	c.items.Add(decisionKey{authority, entity, action}, decision{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	})
}

func (c *decisionCache) len() int {
	return c.items.Len()
}

// clear drops every entry. Purged entries count as evictions.
func (c *decisionCache) clear() {
	c.items.Purge()
}

func (c *decisionCache) evictExpired(now time.Time) {
	for _, key := range c.items.Keys() {
		if d, ok := c.items.Peek(key); ok && now.After(d.expiresAt) {
			c.items.Remove(key)
		}
	}
}

func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case now := <-ticker.C:
			c.evictExpired(now)
		}
	}
}

// stop is idempotent.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
