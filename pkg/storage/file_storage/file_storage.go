// Package file_storage is a string-only backend persisted to a single JSON
// file, the "permanent" storage kind. The whole store is loaded on open and
// the file is rewritten after every mutation.
package file_storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var nopLogger = zap.NewNop()

type FileStorageOpts struct {
	// Path of the backing file. Required. Created on first mutation if it
	// does not exist.
	Path string

	// Logger is the *zap.Logger for this FileStorage.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

func (opts *FileStorageOpts) Init() error {
	if len(opts.Path) == 0 {
		return errors.New("empty file path")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

type FileStorage struct {
	opts FileStorageOpts

	mu   sync.RWMutex
	m    map[string]string
	keys []string
}

func NewFileStorage(opts FileStorageOpts) (*FileStorage, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}

	s := &FileStorage{
		opts: opts,
		m:    make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load storage file, %w", err)
	}
	return s, nil
}

func (s *FileStorage) load() error {
	b, err := os.ReadFile(s.opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, &s.m); err != nil {
		return err
	}

	// The file is an unordered mapping. Sort keys on load so Key(i) has a
	// stable order for this instance.
	s.keys = make([]string, 0, len(s.m))
	for k := range s.m {
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)
	return nil
}

// flush rewrites the backing file. Callers must hold the write lock.
func (s *FileStorage) flush() {
	b, err := json.Marshal(s.m)
	if err != nil {
		s.opts.Logger.Warn("marshal storage file", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.opts.Path, b, 0644); err != nil {
		s.opts.Logger.Warn("write storage file", zap.Error(err))
	}
}

func (s *FileStorage) GetItem(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false
	}
	return v, true
}

func (s *FileStorage) SetItem(key string, v any) {
	str, ok := v.(string)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.m[key] = str
	s.flush()
}

func (s *FileStorage) RemoveItem(key string) {
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
	s.flush()
}

func (s *FileStorage) Key(i int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.keys) {
		return "", false
	}
	return s.keys[i], true
}

func (s *FileStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *FileStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]string)
	s.keys = nil
	s.flush()
}

func (s *FileStorage) NeedsSerialization() bool {
	return true
}

func (s *FileStorage) Close() error {
	return nil
}
