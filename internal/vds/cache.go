// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package vds implements the handle/VDS cache: a bounded map from
// opaque handle strings to open external-container references, used to
// serve LOCAL/DSDS segment reads without reopening the legacy container on
// every access within one exporter run.
package vds

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/heliocore/drms-export/internal/segment"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// Handle is whatever an external container implementation needs to keep
// alive between Open and the matching Close; the cache only knows how to
// look it up and evict it, never how to create or close it itself.
type Handle = segment.ExternalHandle

// Cache is a process-local, non-thread-shared bounded map of open external
// container handles. It is never safe to share a cache
// between concurrently executing requests; callers must construct one per
// request.
//
// The underlying lru.Cache is given an effectively unbounded size so it
// never evicts on its own; Cache instead drives eviction itself with an
// approximately-half, forward-iteration-order sweep, which is
// not the recency-based policy golang-lru's own Add-triggered eviction
// implements. lru.Cache still earns its keep here: it gives O(1)
// get/insert/remove and an oldest-first Keys() ordering for the sweep to
// walk, which a bare map could not provide without extra bookkeeping.
type Cache struct {
	mu       sync.Mutex
	capacity int
	inner    *lru.Cache[string, Handle]
}

// New builds a cache holding at most capacity entries.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	inner, _ := lru.New[string, Handle](capacity*4 + 16) // headroom; Cache.Put enforces capacity itself
	return &Cache{capacity: capacity, inner: inner}
}

// Get returns the cached handle for key, if present. This does not affect
// eviction order, since eviction here is insertion-order, not recency.
func (c *Cache) Get(key string) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Peek(key)
}

// Put inserts key/handle. If the cache is at capacity, approximately half
// of the entries are evicted first, in forward (oldest-first) iteration
// order, a cheap amortized sweep rather than a per-access
// recency policy.
func (c *Cache) Put(key string, h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.inner.Peek(key); !ok && c.inner.Len() >= c.capacity {
		c.evictHalfLocked()
	}
	c.inner.Add(key, h)
}

func (c *Cache) evictHalfLocked() {
	keys := c.inner.Keys() // oldest first
	n := len(keys) / 2
	if n == 0 {
		n = 1
	}
	for i := 0; i < n && i < len(keys); i++ {
		c.inner.Remove(keys[i])
	}
}

// Close removes key's entry, closing the underlying handle. This is the
// explicit per-handle close a request performs on completion.
func (c *Cache) Close(key string) error {
	c.mu.Lock()
	h, ok := c.inner.Peek(key)
	if ok {
		c.inner.Remove(key)
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("vds: no cached handle for %q: %w", key, xerr.BadRequest)
	}
	return h.Close()
}

// CloseAll closes and removes every cached handle, used at request exit.
func (c *Cache) CloseAll() error {
	c.mu.Lock()
	keys := c.inner.Keys()
	handles := make([]Handle, 0, len(keys))
	for _, k := range keys {
		if h, ok := c.inner.Peek(k); ok {
			handles = append(handles, h)
		}
	}
	c.inner.Purge()
	c.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len reports the current number of cached handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}
