package schema

import (
	"fmt"

	"github.com/roach88/tessera/internal/core"
)

// Triple is an (entity, attribute, value) assertion without its transaction.
type Triple struct {
	E core.Entid
	A core.Entid
	V core.TypedValue
}

// FromTriples assembles a Schema from ident and attribute-property datoms.
//
// Every entity with a :db/ident datom becomes an ident. Every entity with a
// :db/valueType becomes an attribute; an attribute without a cardinality
// datom is rejected, as is any property value of the wrong kind.
// Datoms for other attributes are ignored.
func FromTriples(triples []Triple) (*Schema, error) {
	idents := make(map[core.Keyword]core.Entid)
	partial := make(map[core.Entid]*Attribute)

	attr := func(e core.Entid) *Attribute {
		a, ok := partial[e]
		if !ok {
			a = &Attribute{}
			partial[e] = a
		}
		return a
	}

	// Idents first: property values are refs to ident entities.
	for _, t := range triples {
		if t.A != DbIdent {
			continue
		}
		kw, ok := t.V.(core.Keyword)
		if !ok {
			return nil, fmt.Errorf("entity %d: :db/ident value %s is not a keyword", t.E, core.Format(t.V))
		}
		if prev, dup := idents[kw]; dup && prev != t.E {
			return nil, fmt.Errorf("ident %s names both %d and %d", kw, prev, t.E)
		}
		idents[kw] = t.E
	}

	for _, t := range triples {
		switch t.A {
		case DbValueType:
			ref, ok := t.V.(core.Ref)
			if !ok {
				return nil, propertyError(t, "a ref")
			}
			vt, ok := valueTypeForEntid(core.Entid(ref))
			if !ok {
				return nil, fmt.Errorf("attribute %d: unknown value type entid %d", t.E, ref)
			}
			attr(t.E).ValueType = vt
		case DbCardinality:
			ref, ok := t.V.(core.Ref)
			if !ok {
				return nil, propertyError(t, "a ref")
			}
			switch core.Entid(ref) {
			case DbCardinalityOne:
				attr(t.E).Cardinality = CardinalityOne
			case DbCardinalityMany:
				attr(t.E).Cardinality = CardinalityMany
			default:
				return nil, fmt.Errorf("attribute %d: unknown cardinality entid %d", t.E, ref)
			}
		case DbUnique:
			ref, ok := t.V.(core.Ref)
			if !ok {
				return nil, propertyError(t, "a ref")
			}
			switch core.Entid(ref) {
			case DbUniqueValue:
				attr(t.E).Unique = UniqueValue
			case DbUniqueIdentity:
				attr(t.E).Unique = UniqueIdentity
			default:
				return nil, fmt.Errorf("attribute %d: unknown uniqueness entid %d", t.E, ref)
			}
		case DbIndex, DbFulltext, DbIsComponent:
			b, ok := t.V.(core.Boolean)
			if !ok {
				return nil, propertyError(t, "a boolean")
			}
			a := attr(t.E)
			switch t.A {
			case DbIndex:
				a.Index = bool(b)
			case DbFulltext:
				a.Fulltext = bool(b)
			case DbIsComponent:
				a.Component = bool(b)
			}
		}
	}

	attributes := make(map[core.Entid]Attribute, len(partial))
	for e, a := range partial {
		if a.ValueType == 0 {
			return nil, fmt.Errorf("attribute %d has properties but no :db/valueType", e)
		}
		if a.Cardinality == 0 {
			return nil, fmt.Errorf("attribute %d has no :db/cardinality", e)
		}
		attributes[e] = *a
	}

	return New(idents, attributes)
}

func propertyError(t Triple, want string) error {
	return fmt.Errorf("attribute %d: property %d value %s is not %s", t.E, t.A, core.Format(t.V), want)
}

func valueTypeForEntid(e core.Entid) (core.ValueType, bool) {
	for _, vt := range core.AllValueTypes {
		if valueTypeEntid(vt) == e {
			return vt, true
		}
	}
	return 0, false
}
