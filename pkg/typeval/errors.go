package typeval

import "fmt"

// UnsupportedTypeError reports a value whose runtime kind is outside the
// storable set.
type UnsupportedTypeError struct {
	TypeName string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported value type: %s", e.TypeName)
}

// CorruptEntryError reports a serialized document that fails structural
// validation: a missing kind tag, a missing required payload, or a payload of
// the wrong form. It indicates backend corruption or out-of-band tampering,
// not a caller mistake.
type CorruptEntryError struct {
	Reason string
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt serialized entry: %s", e.Reason)
}

// InvalidSerializedTypeError reports a kind tag outside the eight recognized
// variants.
type InvalidSerializedTypeError struct {
	Tag string
}

func (e *InvalidSerializedTypeError) Error() string {
	return fmt.Sprintf("invalid serialized value type %q", e.Tag)
}
