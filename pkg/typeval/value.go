// Package typeval implements the tagged value algebra of the cache: a closed
// set of storable kinds, a classifier from native Go values to those kinds,
// and a serialization engine that turns values into self-describing documents
// a string-only storage backend can hold.
package typeval

import (
	"reflect"
	"regexp"
	"time"
)

// Kind is the runtime kind of a storable value. Exactly these eight kinds can
// appear in a cache entry or in a serialized document.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindString
	KindNumber
	KindBoolean
	KindDate
	KindArray
	KindObject

	kindCount
)

var kindTags = [kindCount]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindString:    "string",
	KindNumber:    "number",
	KindBoolean:   "boolean",
	KindDate:      "date",
	KindArray:     "array",
	KindObject:    "object",
}

// Tag returns the wire tag of k, e.g. "number".
func (k Kind) Tag() string {
	if k >= kindCount {
		return "invalid"
	}
	return kindTags[k]
}

// KindFromTag maps a wire tag back to its Kind.
func KindFromTag(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// Undefined is the explicit "no value" marker. It is rejected as a top level
// cache value but legal as a nested array element or object member.
type Undefined struct{}

// KindOf classifies v into one of the eight storable kinds.
// Any Go integer or float kind classifies as KindNumber. Slices and arrays of
// any element type classify as KindArray, maps with string keys as KindObject.
// Everything else (funcs, channels, regexps, pointers, structs other than
// time.Time, ...) returns an *UnsupportedTypeError naming the offending kind.
func KindOf(v any) (Kind, error) {
	switch v.(type) {
	case nil:
		return KindNull, nil
	case Undefined:
		return KindUndefined, nil
	case string:
		return KindString, nil
	case bool:
		return KindBoolean, nil
	case time.Time:
		return KindDate, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return KindNumber, nil
	case *regexp.Regexp:
		return 0, &UnsupportedTypeError{TypeName: "regexp"}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray, nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindObject, nil
		}
		return 0, &UnsupportedTypeError{TypeName: rv.Type().String()}
	case reflect.Func:
		return 0, &UnsupportedTypeError{TypeName: "func"}
	case reflect.Chan:
		return 0, &UnsupportedTypeError{TypeName: "chan"}
	default:
		return 0, &UnsupportedTypeError{TypeName: rv.Type().String()}
	}
}

// Node is one serialized value document: a kind tag plus its payload.
//
// Payload forms by kind:
//
//	undefined, null  nil
//	string           string
//	boolean          the string "true" or "false"
//	date             string of the epoch millisecond count
//	number           float64 for finite values, or one of the strings
//	                 "NaN", "Infinity", "-Infinity"
//	array            []*Node
//	object           map[string]*Node
//
// The finite/non-finite number split is deliberate: it keeps the wire format
// identical to previously persisted documents.
type Node struct {
	Kind  Kind
	Value any
}
