// Copyright 2015 Google Inc. All rights reserved.
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

// Package memoization provides the bounded pattern result cache used by the
// memory store. Entries are evicted in insertion order once the capacity is
// exceeded.
package memoization

import (
	"container/list"
	"sync"

	"github.com/google/exograph/storage"
	"github.com/google/exograph/triple"
)

// Cache memoizes pattern lookups. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[storage.Pattern]*list.Element
	order    *list.List
}

type entry struct {
	key storage.Pattern
	ts  []triple.Triple
}

// New returns a cache holding at most capacity entries. A capacity lower than
// one disables memoization.
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[storage.Pattern]*list.Element),
		order:    list.New(),
	}
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of memoized patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Get returns the memoized result for the pattern. The returned slice is
// shared with later hits and must not be modified.
func (c *Cache) Get(p storage.Pattern) ([]triple.Triple, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[p.Normalize()]
	if !ok {
		return nil, false
	}
	return e.Value.(*entry).ts, true
}

// Put memoizes the result for the pattern, evicting the oldest entries when
// the capacity is exceeded. Updating an existing entry keeps its position.
func (c *Cache) Put(p storage.Pattern, ts []triple.Triple) {
	if c.capacity < 1 {
		return
	}
	k := p.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		e.Value.(*entry).ts = ts
		return
	}
	c.entries[k] = c.order.PushBack(&entry{key: k, ts: ts})
	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[storage.Pattern]*list.Element)
	c.order.Init()
}
