package annotation

// Cache remembers synthesized entries of a store. It is owned by the caller
// and is not safe for concurrent use.
type Cache struct {
	entries map[uint16]Entry
}

// NewCache returns a new empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[uint16]Entry),
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Reset removes all cached entries, it has to be called when the store the
// cache is used with changes.
func (c *Cache) Reset() {
	c.entries = make(map[uint16]Entry)
}

func (c *Cache) get(address uint16) (Entry, bool) {
	e, ok := c.entries[address]
	return e, ok
}

func (c *Cache) set(address uint16, e Entry) {
	c.entries[address] = e
}
