package typeval

import (
	"math"
	"strconv"
	"time"
)

type decodeFunc func(n *Node) (any, error)

// Decoder dispatch table, one entry per kind. Populated in init to break the
// decoders -> decodeArray -> Deserialize -> decoders reference cycle.
var decoders [kindCount]decodeFunc

func init() {
	decoders = [kindCount]decodeFunc{
		KindUndefined: decodeUndefined,
		KindNull:      decodeNull,
		KindString:    decodeString,
		KindNumber:    decodeNumber,
		KindBoolean:   decodeBoolean,
		KindDate:      decodeDate,
		KindArray:     decodeArray,
		KindObject:    decodeObject,
	}
}

// Deserialize reconstructs the native value described by n. The inverse of
// Serialize: for every storable value the round trip preserves kind and value,
// with numbers coming back as float64.
func Deserialize(n *Node) (any, error) {
	if n == nil {
		return nil, &CorruptEntryError{Reason: "nil node"}
	}
	if n.Kind >= kindCount {
		return nil, &InvalidSerializedTypeError{Tag: n.Kind.Tag()}
	}
	return decoders[n.Kind](n)
}

func decodeUndefined(n *Node) (any, error) {
	return Undefined{}, nil
}

func decodeNull(n *Node) (any, error) {
	return nil, nil
}

func decodeString(n *Node) (any, error) {
	s, ok := n.Value.(string)
	if !ok {
		return nil, &CorruptEntryError{Reason: "string node without string payload"}
	}
	return s, nil
}

func decodeNumber(n *Node) (any, error) {
	switch p := n.Value.(type) {
	case float64:
		return p, nil
	case string:
		switch p {
		case payloadNaN:
			return math.NaN(), nil
		case payloadPosInf:
			return math.Inf(1), nil
		case payloadNegInf:
			return math.Inf(-1), nil
		}
		return nil, &CorruptEntryError{Reason: "unrecognized number payload " + strconv.Quote(p)}
	}
	return nil, &CorruptEntryError{Reason: "number node without payload"}
}

func decodeBoolean(n *Node) (any, error) {
	switch n.Value {
	case payloadTrue:
		return true, nil
	case payloadFalse:
		return false, nil
	}
	return nil, &CorruptEntryError{Reason: "boolean node payload is not \"true\" or \"false\""}
}

func decodeDate(n *Node) (any, error) {
	s, ok := n.Value.(string)
	if !ok {
		return nil, &CorruptEntryError{Reason: "date node without string payload"}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &CorruptEntryError{Reason: "date node payload is not an epoch millisecond integer"}
	}
	return time.UnixMilli(ms), nil
}

func decodeArray(n *Node) (any, error) {
	elems, ok := n.Value.([]*Node)
	if !ok {
		return nil, &CorruptEntryError{Reason: "array node without element payload"}
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		v, err := Deserialize(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeObject(n *Node) (any, error) {
	members, ok := n.Value.(map[string]*Node)
	if !ok {
		return nil, &CorruptEntryError{Reason: "object node without member payload"}
	}
	out := make(map[string]any, len(members))
	for k, m := range members {
		v, err := Deserialize(m)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
