package typeval

import (
	"math"
	"reflect"
	"strconv"
	"time"
)

const (
	payloadNaN    = "NaN"
	payloadPosInf = "Infinity"
	payloadNegInf = "-Infinity"

	payloadTrue  = "true"
	payloadFalse = "false"
)

// Serialize converts v into its tagged document form, recursively for arrays
// and objects. It knows nothing about keys, expiration or backends.
//
// Callers are expected to have validated v with KindOf beforehand; an
// unsupported value surfaces here as the same *UnsupportedTypeError.
func Serialize(v any) (*Node, error) {
	k, err := KindOf(v)
	if err != nil {
		return nil, err
	}

	switch k {
	case KindUndefined, KindNull:
		return &Node{Kind: k}, nil
	case KindString:
		return &Node{Kind: k, Value: v.(string)}, nil
	case KindBoolean:
		if v.(bool) {
			return &Node{Kind: k, Value: payloadTrue}, nil
		}
		return &Node{Kind: k, Value: payloadFalse}, nil
	case KindNumber:
		return serializeNumber(v), nil
	case KindDate:
		ms := v.(time.Time).UnixMilli()
		return &Node{Kind: k, Value: strconv.FormatInt(ms, 10)}, nil
	case KindArray:
		return serializeArray(v)
	case KindObject:
		return serializeObject(v)
	}
	return nil, &UnsupportedTypeError{TypeName: k.Tag()}
}

// Validate walks v and returns an *UnsupportedTypeError for the first value
// outside the storable set, without building the serialized form. Callers use
// it to reject a value before touching any backend.
func Validate(v any) error {
	k, err := KindOf(v)
	if err != nil {
		return err
	}
	switch k {
	case KindArray:
		rv := reflect.ValueOf(v)
		for i := 0; i < rv.Len(); i++ {
			if err := Validate(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case KindObject:
		iter := reflect.ValueOf(v).MapRange()
		for iter.Next() {
			if err := Validate(iter.Value().Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// serializeNumber keeps finite values as numbers and the three non-finite
// values as their literal names, matching the persisted wire format.
func serializeNumber(v any) *Node {
	f := toFloat64(v)
	switch {
	case math.IsNaN(f):
		return &Node{Kind: KindNumber, Value: payloadNaN}
	case math.IsInf(f, 1):
		return &Node{Kind: KindNumber, Value: payloadPosInf}
	case math.IsInf(f, -1):
		return &Node{Kind: KindNumber, Value: payloadNegInf}
	default:
		return &Node{Kind: KindNumber, Value: f}
	}
}

func serializeArray(v any) (*Node, error) {
	rv := reflect.ValueOf(v)
	elems := make([]*Node, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		n, err := Serialize(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elems[i] = n
	}
	return &Node{Kind: KindArray, Value: elems}, nil
}

func serializeObject(v any) (*Node, error) {
	rv := reflect.ValueOf(v)
	members := make(map[string]*Node, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		n, err := Serialize(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		members[iter.Key().String()] = n
	}
	return &Node{Kind: KindObject, Value: members}, nil
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case uintptr:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}
