package census

import "sync"

// Source is anything that loads a vintage by its canonical filename.
type Source interface {
	Read(filename string) (*Dataset, error)
}

// CachedReader wraps a Source with an in-memory LRU cache keyed by filename.
// Vintage files are immutable once published, so repeated requests (duplicate
// years in a batch, a map render after a summary) can skip the decompress and
// parse. Cached datasets are shared between callers and must be treated as
// read-only.
type CachedReader struct {
	inner Source
	cache *lruCache
}

// NewCachedReader creates a cache decorator around a vintage source.
func NewCachedReader(inner Source, maxEntries int) *CachedReader {
	return &CachedReader{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// Read returns the cached dataset for filename or delegates to the inner
// source. Only successful reads are cached, so a missing file can be
// retried after the vintage lands on disk.
func (c *CachedReader) Read(filename string) (*Dataset, error) {
	if ds, ok := c.cache.get(filename); ok {
		return ds, nil
	}
	ds, err := c.inner.Read(filename)
	if err != nil {
		return nil, err
	}
	c.cache.put(filename, ds)
	return ds, nil
}

// lruCache is a simple thread-safe LRU cache for datasets.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *Dataset
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
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

func (c *lruCache) remove(e *entry) {
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
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
