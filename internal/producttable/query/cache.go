// Package query caches fetched results by key and lets writers invalidate them.
package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	data      T
	has       bool
	stale     bool
	fetchedAt time.Time
	// generation moves on every invalidation. A fetch stores its result as
	// fresh only if the generation it started under is still current.
	generation uint64
	// dataGen is the generation data was fetched under.
	dataGen uint64
}

// Cache is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	group   singleflight.Group

	subMu  sync.Mutex
	subs   map[int]func(key string)
	nextID int

	now func() time.Time
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]*entry[T]),
		subs:    make(map[int]func(key string)),
		now:     time.Now,
	}
}

// Get returns the fresh value for key, or calls fetch. Concurrent Gets of
// the same key share one fetch, but a Get issued after an invalidation never
// joins a fetch that started before it. A failed fetch leaves the entry as
// it was.
func (c *Cache[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.has && !e.stale {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	gen := e.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, data)
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate marks key stale and notifies subscribers. Fetches already in
// flight still return their data to the callers that joined them, but do not
// make it fresh.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.generation++
	e.stale = true
	c.mu.Unlock()

	c.subMu.Lock()
	subs := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(key)
	}
}

// Peek returns the last stored value for key even when stale. ok is false
// when nothing was ever stored.
func (c *Cache[T]) Peek(key string) (data T, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, exists := c.entries[key]
	if !exists || !e.has {
		return data, false, false
	}
	return e.data, !e.stale, true
}

// FetchedAt reports when key was last stored.
func (c *Cache[T]) FetchedAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.has {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// Subscribe registers fn to be called after every invalidation. fn runs on
// the invalidating goroutine and must not block. The returned function
// removes the subscription.
func (c *Cache[T]) Subscribe(fn func(key string)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Cache[T]) store(key string, gen uint64, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	if e.has && gen < e.dataGen {
		return
	}
	e.data = data
	e.has = true
	e.dataGen = gen
	e.fetchedAt = c.now()
	e.stale = e.generation != gen
}

// entryLocked must be called with c.mu held.
func (c *Cache[T]) entryLocked(key string) *entry[T] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{}
		c.entries[key] = e
	}
	return e
}
