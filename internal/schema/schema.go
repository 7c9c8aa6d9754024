// Package schema provides the read-only view of attribute metadata that the
// query pipeline resolves idents against.
//
// A Schema is an immutable snapshot: the store builds one per call and the
// algebrizer and projector only read it. Lookups are pure; a missing ident or
// attribute is reported through the boolean result, never as an error. The
// caller decides whether absence invalidates a query.
package schema

import (
	"fmt"
	"slices"

	"github.com/roach88/tessera/internal/core"
)

// Cardinality states how many values an attribute may hold per entity.
type Cardinality int

const (
	CardinalityOne Cardinality = iota + 1
	CardinalityMany
)

func (c Cardinality) String() string {
	switch c {
	case CardinalityOne:
		return "one"
	case CardinalityMany:
		return "many"
	default:
		return "invalid"
	}
}

// Unique is the uniqueness constraint of an attribute.
type Unique int

const (
	UniqueNone Unique = iota
	UniqueValue
	UniqueIdentity
)

func (u Unique) String() string {
	switch u {
	case UniqueValue:
		return "value"
	case UniqueIdentity:
		return "identity"
	default:
		return "none"
	}
}

// Attribute is the metadata of one attribute.
type Attribute struct {
	ValueType   core.ValueType
	Cardinality Cardinality
	Unique      Unique
	Index       bool
	Fulltext    bool
	Component   bool
}

// Multival reports whether the attribute is cardinality many.
func (a Attribute) Multival() bool {
	return a.Cardinality == CardinalityMany
}

// Indexed reports whether values are in the AVET index. Unique attributes
// are always indexed.
func (a Attribute) Indexed() bool {
	return a.Index || a.Unique != UniqueNone
}

// Validate checks that the attribute has exactly one valid value type and
// cardinality.
func (a Attribute) Validate() error {
	if !a.ValueType.IsValid() {
		return fmt.Errorf("invalid value type %d", int(a.ValueType))
	}
	if a.Cardinality != CardinalityOne && a.Cardinality != CardinalityMany {
		return fmt.Errorf("invalid cardinality %d", int(a.Cardinality))
	}
	if a.Fulltext && a.ValueType != core.ValueTypeString {
		return fmt.Errorf("fulltext requires value type string, got %s", a.ValueType)
	}
	return nil
}

// Schema is an immutable snapshot of idents and attribute metadata.
type Schema struct {
	identToEntid map[core.Keyword]core.Entid
	entidToIdent map[core.Entid]core.Keyword
	attributes   map[core.Entid]Attribute
}

// New builds a Schema from an ident table and attribute metadata.
//
// The ident table must be a bijection and every attribute must have an ident
// and valid metadata. The maps are copied; the caller may reuse them.
func New(idents map[core.Keyword]core.Entid, attributes map[core.Entid]Attribute) (*Schema, error) {
	s := &Schema{
		identToEntid: make(map[core.Keyword]core.Entid, len(idents)),
		entidToIdent: make(map[core.Entid]core.Keyword, len(idents)),
		attributes:   make(map[core.Entid]Attribute, len(attributes)),
	}

	for kw, e := range idents {
		if other, dup := s.entidToIdent[e]; dup {
			return nil, fmt.Errorf("entid %d has two idents: %s and %s", e, other, kw)
		}
		s.identToEntid[kw] = e
		s.entidToIdent[e] = kw
	}

	for e, attr := range attributes {
		kw, ok := s.entidToIdent[e]
		if !ok {
			return nil, fmt.Errorf("attribute %d has no ident", e)
		}
		if err := attr.Validate(); err != nil {
			return nil, fmt.Errorf("attribute %s: %w", kw, err)
		}
		s.attributes[e] = attr
	}

	return s, nil
}

// Entid resolves an ident to its entid.
func (s *Schema) Entid(kw core.Keyword) (core.Entid, bool) {
	e, ok := s.identToEntid[kw]
	return e, ok
}

// Ident resolves an entid to its ident.
func (s *Schema) Ident(e core.Entid) (core.Keyword, bool) {
	kw, ok := s.entidToIdent[e]
	return kw, ok
}

// Attribute returns the metadata of the attribute with the given entid.
func (s *Schema) Attribute(e core.Entid) (Attribute, bool) {
	attr, ok := s.attributes[e]
	return attr, ok
}

// AttributeFor resolves an attribute ident and returns its entid and metadata.
func (s *Schema) AttributeFor(kw core.Keyword) (core.Entid, Attribute, bool) {
	e, ok := s.identToEntid[kw]
	if !ok {
		return 0, Attribute{}, false
	}
	attr, ok := s.attributes[e]
	return e, attr, ok
}

// IsAttribute reports whether e names an attribute.
func (s *Schema) IsAttribute(e core.Entid) bool {
	_, ok := s.attributes[e]
	return ok
}

// ValueType returns the declared value type of an attribute.
func (s *Schema) ValueType(e core.Entid) (core.ValueType, bool) {
	attr, ok := s.attributes[e]
	return attr.ValueType, ok
}

// Cardinality returns the cardinality of an attribute.
func (s *Schema) Cardinality(e core.Entid) (Cardinality, bool) {
	attr, ok := s.attributes[e]
	return attr.Cardinality, ok
}

// Unique returns the uniqueness constraint of an attribute.
func (s *Schema) Unique(e core.Entid) (Unique, bool) {
	attr, ok := s.attributes[e]
	return attr.Unique, ok
}

// Fulltext reports whether an attribute is fulltext indexed.
func (s *Schema) Fulltext(e core.Entid) (bool, bool) {
	attr, ok := s.attributes[e]
	return attr.Fulltext, ok
}

// Indexed reports whether an attribute's values are in the AVET index.
func (s *Schema) Indexed(e core.Entid) (bool, bool) {
	attr, ok := s.attributes[e]
	return attr.Indexed(), ok
}

// AttributeEntids returns all attribute entids in ascending order.
func (s *Schema) AttributeEntids() []core.Entid {
	entids := make([]core.Entid, 0, len(s.attributes))
	for e := range s.attributes {
		entids = append(entids, e)
	}
	slices.Sort(entids)
	return entids
}

// Idents returns every ident in ascending entid order.
func (s *Schema) Idents() []core.Keyword {
	entids := make([]core.Entid, 0, len(s.entidToIdent))
	for e := range s.entidToIdent {
		entids = append(entids, e)
	}
	slices.Sort(entids)

	idents := make([]core.Keyword, len(entids))
	for i, e := range entids {
		idents[i] = s.entidToIdent[e]
	}
	return idents
}

// Len returns the number of idents.
func (s *Schema) Len() int {
	return len(s.identToEntid)
}
