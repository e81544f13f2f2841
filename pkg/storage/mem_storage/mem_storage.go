// Package mem_storage is the raw in-memory fallback backend. It holds native
// Go values, so the cache skips the serialization engine entirely when bound
// to it.
package mem_storage

import "sync"

type MemStorage struct {
	mu sync.RWMutex
	m  map[string]any
	// Insertion order of keys, so Key(i) stays stable across a scan.
	keys []string
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		m: make(map[string]any),
	}
}

func (s *MemStorage) GetItem(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemStorage) SetItem(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.m[key] = v
}

func (s *MemStorage) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		return
	}
	delete(s.m, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

func (s *MemStorage) Key(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.keys) {
		return "", false
	}
	return s.keys[i], true
}

func (s *MemStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *MemStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]any)
	s.keys = nil
}

func (s *MemStorage) NeedsSerialization() bool {
	return false
}

func (s *MemStorage) Close() error {
	return nil
}
