// Package syncmap provides a read-mostly generic map guarded by a RWMutex.
package syncmap

import "sync"

// Map is a thread-safe map
type Map[K comparable, V any] struct {
	m   map[K]V
	mux sync.RWMutex
}

// New creates an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Get returns a value from the map
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

// Put adds a value to the map
func (m *Map[K, V]) Put(k K, v V) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.m[k] = v
}

// GetOrCreate returns the value of k, storing create() first when absent.
// create runs under the write lock and must not call back into m.
func (m *Map[K, V]) GetOrCreate(k K, create func() V) V {
	if v, ok := m.Get(k); ok {
		return v
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	if v, ok := m.m[k]; ok {
		return v
	}
	v := create()
	m.m[k] = v
	return v
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return len(m.m)
}
