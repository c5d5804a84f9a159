// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration, size int) *decisionCache {
	t.Helper()
	c, err := newDecisionCache(ttl, size)
	if err != nil {
		t.Fatalf("newDecisionCache() error = %v", err)
	}
	t.Cleanup(c.stop)
	return c
}

func TestDecisionCache(t *testing.T) {
	c := newTestCache(t, time.Minute, 0)

	if _, ok := c.get("HR_READ", EntityEmployee, "get"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.set("HR_READ", EntityEmployee, "get", true)
	c.set("HR_READ", EntityEmployee, "put", false)

	if allowed, ok := c.get("HR_READ", EntityEmployee, "get"); !ok || !allowed {
		t.Errorf("get = %v, %v; want true, true", allowed, ok)
	}
	if allowed, ok := c.get("HR_READ", EntityEmployee, "put"); !ok || allowed {
		t.Errorf("cached denial = %v, %v; want false, true", allowed, ok)
	}

	c.clear()
	if c.len() != 0 {
		t.Errorf("len after clear = %d", c.len())
	}
}

func TestDecisionCache_Expiry(t *testing.T) {
	c := newTestCache(t, time.Minute, 0)

	c.set("HR_READ", EntityEmployee, "get", true)
	c.evictExpired(time.Now().Add(2 * time.Minute))

	if c.len() != 0 {
		t.Errorf("len after eviction = %d, want 0", c.len())
	}
}

func TestDecisionCache_Capacity(t *testing.T) {
	c := newTestCache(t, time.Minute, 2)

	c.set("HR_READ", EntityEmployee, "get", true)
	c.set("HR_READ", EntityDepartment, "get", true)
	c.set("HR_READ", EntityPosition, "get", true)

	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
	if _, ok := c.get("HR_READ", EntityEmployee, "get"); ok {
		t.Error("least recently used entry survived past capacity")
	}
}

func TestDecisionCache_StopIsIdempotent(t *testing.T) {
	c, err := newDecisionCache(0, 0)
	if err != nil {
		t.Fatalf("newDecisionCache() error = %v", err)
	}
	if c.ttl != defaultCacheTTL {
		t.Errorf("default ttl = %v", c.ttl)
	}
	c.stop()
	c.stop()
}
