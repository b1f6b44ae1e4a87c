package geocoding

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/jonboulle/clockwork"
)

// ResultStore caches resolved addresses by coordinate key.
type ResultStore interface {
	Get(ctx context.Context, key string) (domain.GeocodeResult, bool, error)
	Set(ctx context.Context, key string, result domain.GeocodeResult) error
}

// LRUStore is a thread-safe in-memory LRU cache with an optional per-entry TTL.
type LRUStore struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key       string
	value     domain.GeocodeResult
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// NewLRUStore creates a store holding at most maxEntries results. A ttl of
// zero keeps entries until they are evicted.
func NewLRUStore(maxEntries int, ttl time.Duration, clock clockwork.Clock) *LRUStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LRUStore{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

// Get never fails; the error is always nil.
func (c *LRUStore) Get(_ context.Context, key string) (domain.GeocodeResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.GeocodeResult{}, false, nil
	}
	if !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.GeocodeResult{}, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

func (c *LRUStore) Set(_ context.Context, key string, value domain.GeocodeResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.clock.Now().Add(c.ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (c *LRUStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUStore) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *LRUStore) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRUStore) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *LRUStore) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
