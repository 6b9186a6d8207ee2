package locks

import "sync"

// RWMap guards a map with a single read-write lock.
// The zero value is ready for use.
type RWMap[K comparable, V any] struct {
	mu    sync.RWMutex
	inner map[K]V
}

func (m *RWMap[K, V]) Get(key K) (value V, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok = m.inner[key]
	return
}

func (m *RWMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inner == nil {
		m.inner = make(map[K]V)
	}
	m.inner[key] = value
}

// Delete removes the key, and reports whether it was present.
func (m *RWMap[K, V]) Delete(key K) (existed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, existed = m.inner[key]
	delete(m.inner, key)
	return
}

// Values returns the values in no particular order.
func (m *RWMap[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]V, 0, len(m.inner))
	for _, v := range m.inner {
		out = append(out, v)
	}
	return out
}
