package core

import "fmt"

// ValueType identifies the kind of a TypedValue or of an attribute's values.
type ValueType int

// The zero ValueType is invalid so that an unset field is never mistaken
// for a real type.
const (
	ValueTypeRef ValueType = iota + 1
	ValueTypeBoolean
	ValueTypeInstant
	ValueTypeLong
	ValueTypeDouble
	ValueTypeString
	ValueTypeKeyword
	ValueTypeUUID
)

// AllValueTypes lists every ValueType in tag order.
var AllValueTypes = []ValueType{
	ValueTypeRef,
	ValueTypeBoolean,
	ValueTypeInstant,
	ValueTypeLong,
	ValueTypeDouble,
	ValueTypeString,
	ValueTypeKeyword,
	ValueTypeUUID,
}

// Storage tags written to datoms.value_type_tag. Long and Double share a tag:
// SQLite distinguishes them by storage class.
const (
	TagRef     = 0
	TagBoolean = 1
	TagInstant = 4
	TagNumeric = 5
	TagString  = 10
	TagUUID    = 11
	TagKeyword = 13
)

// IsValid reports whether t is one of the defined value types.
func (t ValueType) IsValid() bool {
	return t >= ValueTypeRef && t <= ValueTypeUUID
}

// Tag returns the storage tag for values of this type.
func (t ValueType) Tag() int {
	switch t {
	case ValueTypeRef:
		return TagRef
	case ValueTypeBoolean:
		return TagBoolean
	case ValueTypeInstant:
		return TagInstant
	case ValueTypeLong, ValueTypeDouble:
		return TagNumeric
	case ValueTypeString:
		return TagString
	case ValueTypeKeyword:
		return TagKeyword
	case ValueTypeUUID:
		return TagUUID
	default:
		panic(fmt.Sprintf("no storage tag for invalid value type %d", int(t)))
	}
}

// Keyword returns the schema ident for this type, e.g. :db.type/long.
func (t ValueType) Keyword() Keyword {
	switch t {
	case ValueTypeRef:
		return NewKeyword("db.type", "ref")
	case ValueTypeBoolean:
		return NewKeyword("db.type", "boolean")
	case ValueTypeInstant:
		return NewKeyword("db.type", "instant")
	case ValueTypeLong:
		return NewKeyword("db.type", "long")
	case ValueTypeDouble:
		return NewKeyword("db.type", "double")
	case ValueTypeString:
		return NewKeyword("db.type", "string")
	case ValueTypeKeyword:
		return NewKeyword("db.type", "keyword")
	case ValueTypeUUID:
		return NewKeyword("db.type", "uuid")
	default:
		return NewKeyword("db.type", "invalid")
	}
}

// String returns the short lower-case name ("ref", "long", ...).
func (t ValueType) String() string {
	return t.Keyword().Name
}

// ValueTypeFromName parses the short name used in vocabulary files.
func ValueTypeFromName(name string) (ValueType, bool) {
	for _, t := range AllValueTypes {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// ValueTypeFromKeyword maps a :db.type/* keyword to its ValueType.
func ValueTypeFromKeyword(kw Keyword) (ValueType, bool) {
	if kw.Namespace != "db.type" {
		return 0, false
	}
	return ValueTypeFromName(kw.Name)
}

// ValueTypesForTag returns the value types sharing a storage tag.
func ValueTypesForTag(tag int) []ValueType {
	var types []ValueType
	for _, t := range AllValueTypes {
		if t.Tag() == tag {
			types = append(types, t)
		}
	}
	return types
}
