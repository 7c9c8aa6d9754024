package core

import (
	"bytes"
	"cmp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entid is the internal integer identifier of an entity or attribute.
type Entid int64

// TypedValue is a sealed interface over the value kinds a datom can hold.
// Only Ref, Keyword, String, Boolean, Long, Double, Instant and UUID
// implement it.
type TypedValue interface {
	ValueType() ValueType
	typedValue() // Sealed - only these types implement it
}

// Ref is a reference to another entity.
type Ref Entid

func (Ref) typedValue() {}

// ValueType implements TypedValue.
func (Ref) ValueType() ValueType { return ValueTypeRef }

// String is a string value.
type String string

func (String) typedValue() {}

// ValueType implements TypedValue.
func (String) ValueType() ValueType { return ValueTypeString }

// Boolean is a boolean value.
type Boolean bool

func (Boolean) typedValue() {}

// ValueType implements TypedValue.
func (Boolean) ValueType() ValueType { return ValueTypeBoolean }

// Long is a signed 64-bit integer value.
type Long int64

func (Long) typedValue() {}

// ValueType implements TypedValue.
func (Long) ValueType() ValueType { return ValueTypeLong }

// Double is a 64-bit floating point value.
type Double float64

func (Double) typedValue() {}

// ValueType implements TypedValue.
func (Double) ValueType() ValueType { return ValueTypeDouble }

// Instant is a point in time with microsecond precision, always UTC.
type Instant struct {
	t time.Time
}

func (Instant) typedValue() {}

// ValueType implements TypedValue.
func (Instant) ValueType() ValueType { return ValueTypeInstant }

// NewInstant truncates t to microseconds and converts it to UTC so that
// values read back from storage compare equal to the values written.
func NewInstant(t time.Time) Instant {
	return Instant{t: t.UTC().Truncate(time.Microsecond)}
}

// InstantFromMicros builds an Instant from microseconds since the Unix epoch.
func InstantFromMicros(us int64) Instant {
	return Instant{t: time.UnixMicro(us).UTC()}
}

// Time returns the instant as a time.Time.
func (i Instant) Time() time.Time { return i.t }

// Micros returns microseconds since the Unix epoch.
func (i Instant) Micros() int64 { return i.t.UnixMicro() }

// UUID is a UUID value.
type UUID uuid.UUID

func (UUID) typedValue() {}

// ValueType implements TypedValue.
func (UUID) ValueType() ValueType { return ValueTypeUUID }

// String renders the UUID in its canonical hyphenated form.
func (u UUID) String() string { return uuid.UUID(u).String() }

// MatchesType reports whether v is tagged with type t.
func MatchesType(v TypedValue, t ValueType) bool {
	return v != nil && v.ValueType() == t
}

// Equal reports structural equality of two values.
func Equal(a, b TypedValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Compare(a, b) == 0
}

// Compare orders values by type tag first and payload second.
// Nil sorts before every value.
func Compare(a, b TypedValue) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := cmp.Compare(a.ValueType(), b.ValueType()); c != 0 {
		return c
	}

	switch x := a.(type) {
	case Ref:
		return cmp.Compare(x, b.(Ref))
	case Keyword:
		return compareKeywords(x, b.(Keyword))
	case String:
		return strings.Compare(string(x), string(b.(String)))
	case Boolean:
		y := b.(Boolean)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case Long:
		return cmp.Compare(x, b.(Long))
	case Double:
		return cmp.Compare(x, b.(Double))
	case Instant:
		return x.t.Compare(b.(Instant).t)
	case UUID:
		y := b.(UUID)
		return bytes.Compare(x[:], y[:])
	default:
		panic("unreachable: unknown TypedValue")
	}
}
