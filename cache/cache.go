// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache provides a TTL cache with single-flight fetch, used to share
// ledger reads of immutable values (ciphertext handles) between racing
// callers.
package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	fetched time.Time
}

// Cache holds fetched values for up to a TTL. Concurrent fetches for the same
// key are deduplicated through a single-flight group, so two callers racing
// on a cold key issue one underlying read and observe the same result.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[K]entry[V]
	group   singleflight.Group
}

func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
	}
}

// GetOrFetch returns the cached value for key if it is fresh, otherwise
// fetches it with fetch and caches the result. Fetch errors are not cached.
func (c *Cache[K, V]) GetOrFetch(key K, fetch func(K) (V, error)) (V, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Since(e.fetched) < c.ttl {
		return e.value, nil
	}

	v, err, _ := c.group.Do(keyString(key), func() (interface{}, error) {
		value, err := fetch(key)
		if err != nil {
			return *new(V), err
		}
		c.mu.Lock()
		c.entries[key] = entry[V]{value: value, fetched: time.Now()}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return *new(V), err
	}
	return v.(V), nil
}

// Evict drops the cached value for key, if any.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// keyString supports both fmt.Stringer keys and primitive keys.
func keyString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
