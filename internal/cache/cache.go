package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTL is a bounded key/value store whose entries expire after a time-to-live.
// Expired entries are removed lazily on read, or eagerly by Cleanup.
// When full, inserting a new key evicts the oldest-inserted entry (regardless of access).
// NewTTL should be used to create instances of TTL.
type TTL[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]

	// order tracks insertion order, front is oldest.
	order *list.List

	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	elem      *list.Element
}

// Stats reports entry counts at a point in time.
type Stats struct {
	Valid   int
	Expired int
	Total   int
}

// NewTTL creates an empty TTL cache.
func NewTTL[K comparable, V any](opts ...Option) (*TTL[K, V], error) {
	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &TTL[K, V]{
		entries: make(map[K]*entry[K, V]),
		order:   list.New(),
		ttl:     options.ttl,
		maxSize: options.maxSize,
		now:     options.now,
	}, nil
}

// Get returns the value for key when present and not expired.
// An expired entry is deleted as a side effect.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.expired(e) {
		c.remove(e)
		return zero, false
	}

	return e.value, true
}

// Set stores value under key. The optional ttl overrides the cache default for this entry.
func (c *TTL[K, V]) Set(key K, value V, ttl ...time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.ttl
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}
	expiresAt := c.now().Add(d)

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		return
	}

	if len(c.entries) >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.remove(oldest.Value.(*entry[K, V]))
		}
	}

	e := &entry[K, V]{key: key, value: value, expiresAt: expiresAt}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e
}

// Has reports whether key is present and not expired.
func (c *TTL[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key, returning true if it was present.
func (c *TTL[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)

	return true
}

// Clear removes all entries.
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.order.Init()
}

// Cleanup removes every expired entry and returns how many were removed.
func (c *TTL[K, V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if e := el.Value.(*entry[K, V]); c.expired(e) {
			c.remove(e)
			removed++
		}
		el = next
	}

	return removed
}

// Stats returns counts of valid and expired (but not yet removed) entries.
func (c *TTL[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Total: len(c.entries)}
	for _, e := range c.entries {
		if c.expired(e) {
			s.Expired++
		} else {
			s.Valid++
		}
	}

	return s
}

// Len returns the number of stored entries, including expired entries not yet removed.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[K, V]) expired(e *entry[K, V]) bool {
	return !c.now().Before(e.expiresAt)
}

// remove must be called with c.mu held.
func (c *TTL[K, V]) remove(e *entry[K, V]) {
	c.order.Remove(e.elem)
	delete(c.entries, e.key)
}
