package core

import (
	"fmt"

	"github.com/google/uuid"
)

// SQLite storage classes, as reported by typeof().
const (
	StorageInteger = "integer"
	StorageReal    = "real"
)

// NumericStorageClass returns the storage class that tells t apart from the
// other type sharing TagNumeric. It is empty for every other type.
func NumericStorageClass(t ValueType) string {
	switch t {
	case ValueTypeLong:
		return StorageInteger
	case ValueTypeDouble:
		return StorageReal
	default:
		return ""
	}
}

// ToSQL converts a value to its storage cell and value_type_tag.
//
// Refs, longs, booleans (0/1) and instants (microseconds) are INTEGER;
// doubles are REAL; strings and keywords (":ns/name") are TEXT; UUIDs are a
// 16-byte BLOB.
func ToSQL(v TypedValue) (any, int) {
	switch val := v.(type) {
	case Ref:
		return int64(val), TagRef
	case Boolean:
		if val {
			return int64(1), TagBoolean
		}
		return int64(0), TagBoolean
	case Instant:
		return val.Micros(), TagInstant
	case Long:
		return int64(val), TagNumeric
	case Double:
		return float64(val), TagNumeric
	case String:
		return string(val), TagString
	case Keyword:
		return val.String(), TagKeyword
	case UUID:
		b := make([]byte, 16)
		copy(b, val[:])
		return b, TagUUID
	default:
		panic(fmt.Sprintf("cannot encode %T", v))
	}
}

// FromSQL decodes a raw storage cell as a value of type t.
//
// The caller always knows t (from the schema, a literal, or the tag column).
// A cell that cannot be a t is a programming error, so FromSQL panics.
func FromSQL(raw any, t ValueType) TypedValue {
	v, err := decode(raw, t)
	if err != nil {
		panic(err)
	}
	return v
}

// FromSQLTag decodes a cell whose type is only known by its storage tag.
// The numeric tag is split into Long or Double by the cell's storage class.
func FromSQLTag(raw any, tag int64) TypedValue {
	switch tag {
	case TagNumeric:
		if _, ok := raw.(float64); ok {
			return FromSQL(raw, ValueTypeDouble)
		}
		return FromSQL(raw, ValueTypeLong)
	default:
		types := ValueTypesForTag(int(tag))
		if len(types) != 1 {
			panic(fmt.Sprintf("unknown value_type_tag %d", tag))
		}
		return FromSQL(raw, types[0])
	}
}

func decode(raw any, t ValueType) (TypedValue, error) {
	switch t {
	case ValueTypeRef:
		n, err := asInt64(raw)
		if err != nil {
			return nil, wrongCell(raw, t)
		}
		return Ref(n), nil
	case ValueTypeBoolean:
		switch b := raw.(type) {
		case bool:
			return Boolean(b), nil
		case int64:
			if b != 0 && b != 1 {
				return nil, wrongCell(raw, t)
			}
			return Boolean(b == 1), nil
		}
		return nil, wrongCell(raw, t)
	case ValueTypeInstant:
		n, err := asInt64(raw)
		if err != nil {
			return nil, wrongCell(raw, t)
		}
		return InstantFromMicros(n), nil
	case ValueTypeLong:
		n, err := asInt64(raw)
		if err != nil {
			return nil, wrongCell(raw, t)
		}
		return Long(n), nil
	case ValueTypeDouble:
		switch f := raw.(type) {
		case float64:
			return Double(f), nil
		case int64:
			return Double(float64(f)), nil
		}
		return nil, wrongCell(raw, t)
	case ValueTypeString:
		switch s := raw.(type) {
		case string:
			return String(s), nil
		case []byte:
			return String(string(s)), nil
		}
		return nil, wrongCell(raw, t)
	case ValueTypeKeyword:
		var s string
		switch k := raw.(type) {
		case string:
			s = k
		case []byte:
			s = string(k)
		default:
			return nil, wrongCell(raw, t)
		}
		kw, err := ParseKeyword(s)
		if err != nil {
			return nil, wrongCell(raw, t)
		}
		return kw, nil
	case ValueTypeUUID:
		b, ok := raw.([]byte)
		if !ok {
			return nil, wrongCell(raw, t)
		}
		u, err := uuid.FromBytes(b)
		if err != nil {
			return nil, wrongCell(raw, t)
		}
		return UUID(u), nil
	default:
		return nil, fmt.Errorf("cannot decode invalid value type %d", int(t))
	}
}

func asInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("not an integer: %T", raw)
	}
}

func wrongCell(raw any, t ValueType) error {
	return fmt.Errorf("cannot decode storage cell %v (%T) as %s", raw, raw, t)
}
