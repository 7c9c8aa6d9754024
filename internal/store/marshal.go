package store

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/schema"
)

// datomRow is one datoms row ready for INSERT.
type datomRow struct {
	e, a, tx      int64
	v             any
	tag           int
	indexAVET     bool
	indexVAET     bool
	indexFulltext bool
	uniqueValue   bool
}

// marshalDatom encodes a fact as a datoms row. The index flags follow the
// attribute: AVET for indexed or unique attributes, VAET for refs.
// Strings are stored in NFC.
func marshalDatom(e, a core.Entid, v core.TypedValue, tx core.Entid, attr schema.Attribute) datomRow {
	if s, ok := v.(core.String); ok {
		v = core.String(norm.NFC.String(string(s)))
	}
	cell, tag := core.ToSQL(v)
	return datomRow{
		e:             int64(e),
		a:             int64(a),
		tx:            int64(tx),
		v:             cell,
		tag:           tag,
		indexAVET:     attr.Indexed(),
		indexVAET:     attr.ValueType == core.ValueTypeRef,
		indexFulltext: attr.Fulltext,
		uniqueValue:   attr.Unique != schema.UniqueNone,
	}
}

// args returns the row in insertDatomSQL column order.
func (r datomRow) args() []any {
	return []any{r.e, r.a, r.v, r.tx, r.tag, flag(r.indexAVET), flag(r.indexVAET), flag(r.indexFulltext), flag(r.uniqueValue)}
}

const insertDatomSQL = `
	INSERT INTO datoms
	(e, a, v, tx, value_type_tag, index_avet, index_vaet, index_fulltext, unique_value)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING
`

// unmarshalValue decodes a stored cell by its tag.
func unmarshalValue(raw any, tag int64) (v core.TypedValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorf(CodeSchemaFailure, "undecodable datom value %v (tag %d): %v", raw, tag, r)
		}
	}()
	return core.FromSQLTag(raw, tag), nil
}

func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
