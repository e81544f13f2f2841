// Package session_storage is a string-only backend living for the lifetime of
// the process. It is the analog of a per-session browser storage partition:
// one shared default instance, partitioned among cache instances by key
// prefix.
package session_storage

import (
	"sync"
)

type SessionStorage struct {
	mu   sync.RWMutex
	m    map[string]string
	keys []string
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		m: make(map[string]string),
	}
}

var (
	defaultOnce sync.Once
	defaultInst *SessionStorage
)

// Default returns the process-wide shared instance. All caches constructed
// with the "session" storage kind bind to it.
func Default() *SessionStorage {
	defaultOnce.Do(func() {
		defaultInst = NewSessionStorage()
	})
	return defaultInst
}

func (s *SessionStorage) GetItem(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false
	}
	return v, true
}

func (s *SessionStorage) SetItem(key string, v any) {
	str, ok := v.(string)
	if !ok {
		// String-only contract. Callers serialize before storing.
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.m[key] = str
}

func (s *SessionStorage) RemoveItem(key string) {
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

func (s *SessionStorage) Key(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.keys) {
		return "", false
	}
	return s.keys[i], true
}

func (s *SessionStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *SessionStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]string)
	s.keys = nil
}

func (s *SessionStorage) NeedsSerialization() bool {
	return true
}

func (s *SessionStorage) Close() error {
	return nil
}
