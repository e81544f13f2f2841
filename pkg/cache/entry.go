package cache

import (
	"time"

	"github.com/nohuhu/typecache/pkg/typeval"
)

// Entry is the {value, expires} pair stored under one key. Entries are never
// mutated in place; overwriting a key removes the old entry and inserts a new
// one.
type Entry struct {
	Value   any
	Expires time.Time // zero = never expires
}

// Expired reports whether the entry's expiration stamp is strictly before
// now. An entry expiring exactly at now is not expired.
func (e *Entry) Expired(now time.Time) bool {
	return !e.Expires.IsZero() && e.Expires.Before(now)
}

// entryNode wraps e into one serialized document: an object node with a
// "value" member and an "expires" member (a date node, or an undefined node
// for entries that never expire).
func entryNode(e *Entry) (*typeval.Node, error) {
	vn, err := typeval.Serialize(e.Value)
	if err != nil {
		return nil, err
	}

	en := &typeval.Node{Kind: typeval.KindUndefined}
	if !e.Expires.IsZero() {
		en, err = typeval.Serialize(e.Expires)
		if err != nil {
			return nil, err
		}
	}

	return &typeval.Node{
		Kind: typeval.KindObject,
		Value: map[string]*typeval.Node{
			"value":   vn,
			"expires": en,
		},
	}, nil
}

// nodeEntry is the inverse of entryNode.
func nodeEntry(n *typeval.Node) (*Entry, error) {
	members, ok := n.Value.(map[string]*typeval.Node)
	if n.Kind != typeval.KindObject || !ok {
		return nil, &typeval.CorruptEntryError{Reason: "stored entry is not an object document"}
	}

	vn, ok := members["value"]
	if !ok {
		return nil, &typeval.CorruptEntryError{Reason: "stored entry has no value member"}
	}
	v, err := typeval.Deserialize(vn)
	if err != nil {
		return nil, err
	}

	e := &Entry{Value: v}
	if en, ok := members["expires"]; ok {
		ev, err := typeval.Deserialize(en)
		if err != nil {
			return nil, err
		}
		switch t := ev.(type) {
		case time.Time:
			e.Expires = t
		case typeval.Undefined, nil:
		default:
			return nil, &typeval.CorruptEntryError{Reason: "stored entry expires member is not a date"}
		}
	}
	return e, nil
}
