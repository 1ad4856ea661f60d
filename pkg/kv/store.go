// Package kv provides a generic thread-safe map for per-user dialog state.
package kv

import "sync"

// Store is a thread-safe generic key-value store.
type Store[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates an empty store.
func New[K comparable, V any]() (s *Store[K, V]) {
	s = &Store[K, V]{
		data: make(map[K]V),
	}
	return s
}

// Get retrieves a value by key.
func (s *Store[K, V]) Get(key K) (val V, ok bool) {
	s.mu.RLock()
	val, ok = s.data[key]
	s.mu.RUnlock()
	return val, ok
}

// Set stores a value by key.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// Delete removes a key.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Pop removes a key and returns the value it held.
func (s *Store[K, V]) Pop(key K) (val V, ok bool) {
	s.mu.Lock()
	val, ok = s.data[key]
	delete(s.data, key)
	s.mu.Unlock()
	return val, ok
}

// Update replaces the value for key with the result of fn, atomically. fn receives the
// current value and whether it exists; returning keep=false deletes the key.
func (s *Store[K, V]) Update(key K, fn func(cur V, exists bool) (next V, keep bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.data[key]
	next, keep := fn(cur, exists)
	if keep {
		s.data[key] = next
		return
	}
	delete(s.data, key)
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() (n int) {
	s.mu.RLock()
	n = len(s.data)
	s.mu.RUnlock()
	return n
}

// Keys returns all keys in no particular order.
func (s *Store[K, V]) Keys() (keys []K) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys = make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
