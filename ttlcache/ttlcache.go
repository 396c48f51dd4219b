// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
//
// Package ttlcache implements a cache whose items carry individual
// expiration deadlines. The grant registry uses it to serve terminal
// grant states (expired, revoked, exhausted) without a store lookup:
// terminal states are permanent, so a cached entry can never produce
// a stale allow.
//
// There is no active garbage collection, but expired items are
// deleted from the cache upon new 'Get' calls. This is a lazy
// strategy that does not prevent memory leaks.

package ttlcache

import (
	"sync"
	"time"
)

type cacheValue struct {
	value      interface{}
	expiration time.Time
}

// A Cache maps keys to values with per-item expiration deadlines.
type Cache struct {
	cache map[interface{}]cacheValue
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
}

// New returns a cache whose Set entries expire after the given
// default TTL. SetUntil overrides the deadline per item.
func New(ttl time.Duration) *Cache {
	return NewWithNow(ttl, time.Now)
}

// NewWithNow returns a cache that evaluates deadlines against the
// given time source instead of time.Now. Deadlines passed to SetUntil
// must come from the same source.
func NewWithNow(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		cache: map[interface{}]cacheValue{},
		ttl:   ttl,
		now:   now,
	}
}

// Get returns the live value stored under key, if any. An expired
// entry is deleted and reported as absent.
func (c *Cache) Get(key interface{}) (interface{}, bool) {
	c.mu.Lock()
	v, ok := c.cache[key]

	if ok && v.expiration.After(c.now()) {
		c.mu.Unlock()
		return v.value, true
	}
	if ok {
		delete(c.cache, key) // key is expired - delete it.
	}
	c.mu.Unlock()
	return nil, false
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key interface{}, value interface{}) {
	c.SetUntil(key, value, c.now().Add(c.ttl))
}

// SetUntil stores value under key with an explicit expiration
// deadline.
func (c *Cache) SetUntil(key interface{}, value interface{}, expiration time.Time) {
	c.mu.Lock()
	c.cache[key] = cacheValue{
		value:      value,
		expiration: expiration,
	}
	c.mu.Unlock()
}
