// Package storage defines the key/value substrate the cache is layered on.
package storage

import "io"

// Backend is a flat key/value store.
//
// Backends come in two capability classes, reported by NeedsSerialization:
//
//   - raw backends hold native Go values and GetItem returns exactly what
//     SetItem stored
//   - string-only backends hold nothing but strings; callers must serialize
//     values before SetItem and the value returned by GetItem is the stored
//     string
//
// A backend may be shared by several independent consumers, each owning a key
// prefix. Consumers must therefore scope enumeration and bulk removal to their
// own prefix and never assume exclusive ownership.
type Backend interface {
	// GetItem returns the stored value for key, or false if absent.
	GetItem(key string) (any, bool)

	// SetItem stores v under key, replacing any previous value.
	SetItem(key string, v any)

	// RemoveItem removes key. Removing an absent key is a no-op.
	RemoveItem(key string)

	// Key returns the i-th key of the backend, for 0 <= i < Len().
	// Order is backend-defined but stable while the backend is unmodified.
	Key(i int) (string, bool)

	// Len returns the number of stored keys.
	Len() int

	// Clear removes every key. Prefix-scoped consumers of a shared backend
	// must not call this; they remove their own keys one by one.
	Clear()

	// NeedsSerialization reports whether this backend is string-only.
	NeedsSerialization() bool

	io.Closer
}
