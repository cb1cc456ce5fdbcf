package cache

import "sync"

// Memory is a process-lifetime EntityCache. Entries are never evicted; Reset is the
// only way to drop them.
type Memory[T any] struct {
	mu    sync.RWMutex
	slots map[Key]T
	lists map[Key][]T
}

var _ EntityCache[struct{}] = (*Memory[struct{}])(nil)

// NewMemory creates an empty cache.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{
		slots: make(map[Key]T),
		lists: make(map[Key][]T),
	}
}

// Put stores record in the single-record slot for key, replacing any previous record.
func (c *Memory[T]) Put(key Key, record T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = record
}

// Get returns the record in the slot for key.
func (c *Memory[T]) Get(key Key) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.slots[key]
	return record, ok
}

// Append adds record to the end of parent's list.
func (c *Memory[T]) Append(parent Key, record T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[parent] = append(c.lists[parent], record)
}

// ListFor returns a copy of parent's list in append order. Unknown parents yield an
// empty, non-nil slice.
func (c *Memory[T]) ListFor(parent Key) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.lists[parent]))
	copy(out, c.lists[parent])
	return out
}

// Len returns the number of slots and lists held.
func (c *Memory[T]) Len() (slots, lists int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slots), len(c.lists)
}

// Reset drops every entry.
func (c *Memory[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[Key]T)
	c.lists = make(map[Key][]T)
}
