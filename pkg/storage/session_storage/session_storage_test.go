package session_storage

import (
	"testing"
)

func Test_sessionStorage(t *testing.T) {
	s := NewSessionStorage()
	if !s.NeedsSerialization() {
		t.Fatal("session storage must be string-only")
	}

	s.SetItem("a", "1")
	s.SetItem("b", "2")
	v, ok := s.GetItem("a")
	if !ok || v.(string) != "1" {
		t.Fatal("storage kv mismatched")
	}

	// Non-string values are not storable.
	s.SetItem("c", 42)
	if _, ok := s.GetItem("c"); ok {
		t.Fatal("string-only storage accepted a non-string value")
	}

	if k, ok := s.Key(0); !ok || k != "a" {
		t.Fatal("key enumeration broken")
	}

	s.RemoveItem("a")
	if s.Len() != 1 {
		t.Fatal("unexpected length after remove")
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatal("clear left keys behind")
	}
}

func Test_sessionStorage_default(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default must return the shared instance")
	}
}
