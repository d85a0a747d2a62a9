// Package cache provides the bounded, time-expiring query cache that
// insulates the catalog service from repeated identical searches.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/aribau/cartelera/internal/domain"
)

// Entry is one cached result page.
type Entry struct {
	Items []domain.Movie
	Total int
}

// Options configures capacity and expiry.
type Options struct {
	MaxEntries      int
	TTL             time.Duration
	RefreshOnAccess bool // A hit moves the entry to the front of the LRU order
}

type record struct {
	key      string
	entry    Entry
	storedAt time.Time
}

// Cache is an LRU map from canonical query key to result page.
// Entries older than TTL are treated as misses and dropped.
type Cache struct {
	mu    sync.Mutex
	opts  Options
	ll    *list.List // Front = most recently used
	index map[string]*list.Element

	now func() time.Time // Overridable in tests
}

func New(opts Options) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 50
	}
	return &Cache{
		opts:  opts,
		ll:    list.New(),
		index: make(map[string]*list.Element),
		now:   time.Now,
	}
}

// Get returns the entry for key if present and within TTL.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return Entry{}, false
	}
	rec := el.Value.(*record)
	if c.opts.TTL > 0 && c.now().Sub(rec.storedAt) > c.opts.TTL {
		c.ll.Remove(el)
		delete(c.index, key)
		return Entry{}, false
	}
	if c.opts.RefreshOnAccess {
		c.ll.MoveToFront(el)
	}
	return copyEntry(rec.entry), true
}

// Set stores an entry under key, evicting the least-recently-used entry
// once the capacity is exceeded.
func (c *Cache) Set(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry = copyEntry(entry)
	if el, ok := c.index[key]; ok {
		rec := el.Value.(*record)
		rec.entry = entry
		rec.storedAt = c.now()
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&record{key: key, entry: entry, storedAt: c.now()})
	c.index[key] = el

	for c.ll.Len() > c.opts.MaxEntries {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*record).key)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[string]*list.Element)
}

// copyEntry clones the item slice so cached pages never alias caller state.
func copyEntry(e Entry) Entry {
	return Entry{Items: append([]domain.Movie(nil), e.Items...), Total: e.Total}
}
