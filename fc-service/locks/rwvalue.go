package locks

import "sync"

// RWValue deconflicts reads and writes of a single value,
// without locking up the structure that holds it.
type RWValue[E any] struct {
	mu    sync.RWMutex
	value E
}

func (c *RWValue[E]) Get() E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *RWValue[E]) Set(v E) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}
