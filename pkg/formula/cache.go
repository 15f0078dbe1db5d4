// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package formula

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/spaolacci/murmur3"
)

// cacheEntry keeps the formula text next to the value so that a murmur3
// collision is detected instead of returning someone else's program.
type cacheEntry[V any] struct {
	formula string
	value   V
}

// Cache is a size-bounded LRU of values derived from formula text
// (typically compiled programs). It is safe for concurrent use.
type Cache[V any] struct {
	mu     sync.Mutex
	lru    *lru.Cache
	hits   uint64
	misses uint64
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewCache returns a cache holding at most size entries (minimum 1).
func NewCache[V any](size int) *Cache[V] {
	if size < 1 {
		size = 1
	}
	return &Cache[V]{lru: lru.New(size)}
}

func cacheKey(formula string) uint64 {
	return murmur3.Sum64([]byte(formula))
}

// Get returns the value stored for formula.
func (c *Cache[V]) Get(formula string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	v, ok := c.lru.Get(cacheKey(formula))
	if !ok {
		c.misses++
		return zero, false
	}
	entry := v.(cacheEntry[V])
	if entry.formula != formula {
		c.misses++
		return zero, false
	}
	c.hits++
	return entry.value, true
}

// Put stores value for formula, evicting the least recently used entry
// when the cache is full.
func (c *Cache[V]) Put(formula string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(cacheKey(formula), cacheEntry[V]{formula: formula, value: value})
}

// GetOrCreate returns the cached value for formula or builds, stores and
// returns a new one. Errors from build are returned and nothing is cached.
func (c *Cache[V]) GetOrCreate(formula string, build func(string) (V, error)) (V, error) {
	if v, ok := c.Get(formula); ok {
		return v, nil
	}
	v, err := build(formula)
	if err != nil {
		return v, err
	}
	c.Put(formula, v)
	return v, nil
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}
