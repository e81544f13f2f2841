package typeval

import (
	"encoding/json"
)

// Wire form of one node: {"type": <tag>, "value": <payload>}, with "value"
// omitted for undefined and null.
type nodeWire struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Kind >= kindCount {
		return nil, &InvalidSerializedTypeError{Tag: n.Kind.Tag()}
	}

	w := nodeWire{Type: n.Kind.Tag()}
	switch n.Kind {
	case KindUndefined, KindNull:
		return json.Marshal(w)
	case KindArray:
		if _, ok := n.Value.([]*Node); !ok {
			return nil, &CorruptEntryError{Reason: "array node without element payload"}
		}
	case KindObject:
		if _, ok := n.Value.(map[string]*Node); !ok {
			return nil, &CorruptEntryError{Reason: "object node without member payload"}
		}
	case KindNumber:
		switch n.Value.(type) {
		case float64, string:
		default:
			return nil, &CorruptEntryError{Reason: "number node without payload"}
		}
	default:
		if _, ok := n.Value.(string); !ok {
			return nil, &CorruptEntryError{Reason: n.Kind.Tag() + " node without string payload"}
		}
	}

	raw, err := json.Marshal(n.Value)
	if err != nil {
		return nil, err
	}
	w.Value = raw
	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var w struct {
		Type  *string         `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return &CorruptEntryError{Reason: "malformed document: " + err.Error()}
	}
	if w.Type == nil {
		return &CorruptEntryError{Reason: "missing type tag"}
	}
	k, ok := KindFromTag(*w.Type)
	if !ok {
		return &InvalidSerializedTypeError{Tag: *w.Type}
	}

	n.Kind = k
	n.Value = nil
	if k == KindUndefined || k == KindNull {
		return nil
	}

	raw := w.Value
	if len(raw) == 0 || string(raw) == "null" {
		return &CorruptEntryError{Reason: "missing value payload for " + k.Tag() + " node"}
	}

	switch k {
	case KindNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			n.Value = f
			return nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &CorruptEntryError{Reason: "number payload is neither a number nor a string"}
		}
		n.Value = s
	case KindArray:
		var elems []*Node
		if err := json.Unmarshal(raw, &elems); err != nil {
			return unmarshalChildErr(err, "array payload is not a list")
		}
		if elems == nil {
			elems = []*Node{}
		}
		n.Value = elems
	case KindObject:
		var members map[string]*Node
		if err := json.Unmarshal(raw, &members); err != nil {
			return unmarshalChildErr(err, "object payload is not a mapping")
		}
		if members == nil {
			members = map[string]*Node{}
		}
		n.Value = members
	default: // string, boolean, date
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &CorruptEntryError{Reason: k.Tag() + " payload is not a string"}
		}
		n.Value = s
	}
	return nil
}

func unmarshalChildErr(err error, fallback string) error {
	switch err.(type) {
	case *CorruptEntryError, *InvalidSerializedTypeError:
		return err
	}
	return &CorruptEntryError{Reason: fallback}
}
