package record

import "bytes"

// IDField is the field every record is looked up by.
const IDField = "id"

// Record is an object with an identifier under IDField.
// The zero value (nil) is an empty record with no id.
type Record Object

func (Record) recordValue() {}

// MarshalJSON implements json.Marshaler with sorted keys.
func (r Record) MarshalJSON() ([]byte, error) {
	return Object(r).MarshalJSON()
}

// ID returns the record's identifier and whether the field is present.
func (r Record) ID() (Value, bool) {
	v, ok := r[IDField]
	return v, ok
}

// Clone returns a deep copy. Mutating the copy never affects r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(cloneValue(Object(r)).(Object))
}

// Equal reports whether both records have the same canonical form.
func (r Record) Equal(other Record) bool {
	return Equal(Object(r), Object(other))
}

// Comparable reports whether v may be used as an identifier.
// Arrays, objects and null have no identity semantics.
func Comparable(v Value) bool {
	switch v.(type) {
	case String, Int, Bool:
		return true
	default:
		return false
	}
}

// IDEqual compares identifiers strictly: both must be comparable, of the
// same kind and hold the same value. Int(1) never equals String("1").
func IDEqual(a, b Value) bool {
	if !Comparable(a) || !Comparable(b) {
		return false
	}
	return a == b
}

// Equal reports whether two values have identical canonical JSON.
// Values that cannot be marshaled are never equal.
func Equal(a, b Value) bool {
	ab, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case Array:
		if val == nil {
			return Array(nil)
		}
		out := make(Array, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case Object:
		if val == nil {
			return Object(nil)
		}
		out := make(Object, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case Record:
		return Record(cloneValue(Object(val)).(Object))
	default:
		// Scalars are immutable.
		return v
	}
}
