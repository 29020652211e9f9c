package http

import "sync"

// gridKey identifies a sampled heat field. Weather data is merged exactly
// once, so the merge flag is enough to tell the pre- and post-merge fields
// apart.
type gridKey struct {
	channel string
	size    int
	merged  bool
}

// gridCache is a thread-safe LRU of sampled heat-field grids. Cached grids
// are shared between responses and must not be modified.
type gridCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[gridKey]*gridEntry
	head       *gridEntry // most recently used
	tail       *gridEntry // least recently used
}

type gridEntry struct {
	key  gridKey
	grid [][]float64
	prev *gridEntry
	next *gridEntry
}

func newGridCache(maxEntries int) *gridCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &gridCache{
		maxEntries: maxEntries,
		entries:    make(map[gridKey]*gridEntry),
	}
}

func (c *gridCache) get(key gridKey) ([][]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.touch(e)
	return e.grid, true
}

func (c *gridCache) put(key gridKey, grid [][]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.grid = grid
		c.touch(e)
		return
	}

	e := &gridEntry{key: key, grid: grid}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		victim := c.tail
		delete(c.entries, victim.key)
		c.unlink(victim)
	}
}

func (c *gridCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *gridCache) touch(e *gridEntry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *gridCache) pushFront(e *gridEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *gridCache) unlink(e *gridEntry) {
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
