package mem_storage

import (
	"strconv"
	"sync"
	"testing"
)

func Test_memStorage(t *testing.T) {
	s := NewMemStorage()
	for i := 0; i < 128; i++ {
		key := strconv.Itoa(i)
		s.SetItem(key, i)
		v, ok := s.GetItem(key)
		if !ok || v.(int) != i {
			t.Fatal("storage kv mismatched")
		}
	}
	if s.Len() != 128 {
		t.Fatal("unexpected length")
	}

	// Key enumeration follows insertion order.
	for i := 0; i < 128; i++ {
		k, ok := s.Key(i)
		if !ok || k != strconv.Itoa(i) {
			t.Fatal("key enumeration broken")
		}
	}
	if _, ok := s.Key(128); ok {
		t.Fatal("key index out of range should miss")
	}

	s.RemoveItem("5")
	s.RemoveItem("5") // removing twice is a no-op
	if _, ok := s.GetItem("5"); ok {
		t.Fatal("removed key still present")
	}
	if s.Len() != 127 {
		t.Fatal("unexpected length after remove")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Fatal("clear left keys behind")
	}
	if s.NeedsSerialization() {
		t.Fatal("mem storage must be raw")
	}
}

func Test_memStorage_race(t *testing.T) {
	s := NewMemStorage()
	wg := sync.WaitGroup{}
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 256; i++ {
				key := strconv.Itoa(i)
				s.SetItem(key, i)
				_, _ = s.GetItem(key)
				_, _ = s.Key(i)
				s.RemoveItem(key)
			}
		}()
	}
	wg.Wait()
}
