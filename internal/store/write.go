package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/schema"
)

// Definition names an attribute to install.
type Definition struct {
	Ident     core.Keyword
	Attribute schema.Attribute

	// Doc, when set, is asserted as the attribute's :db/doc.
	Doc string
}

// Fact asserts that entity E has value V for the attribute named A.
type Fact struct {
	E core.Entid
	A core.Keyword
	V core.TypedValue
}

// TxReport describes a committed transaction.
type TxReport struct {
	Tx        core.Entid
	TxInstant time.Time
	Datoms    int
}

// InstallAttribute installs one attribute and returns its entid.
func (s *Store) InstallAttribute(ctx context.Context, ident core.Keyword, attr schema.Attribute) (core.Entid, error) {
	entids, err := s.InstallAttributes(ctx, []Definition{{Ident: ident, Attribute: attr}})
	if err != nil {
		return 0, err
	}
	return entids[0], nil
}

// InstallAttributes installs attributes in one transaction, allocating their
// entids in :db.part/user in the given order.
//
// Re-installing an ident with identical metadata returns its existing entid.
// An ident that already names something else is rejected.
func (s *Store) InstallAttributes(ctx context.Context, defs []Definition) ([]core.Entid, error) {
	for _, d := range defs {
		if d.Ident.Name == "" {
			return nil, errorf(CodeTransactInvalid, "attribute ident is empty")
		}
		if err := d.Attribute.Validate(); err != nil {
			return nil, wrapf(err, CodeTransactInvalid, "attribute %s", d.Ident)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapf(err, CodeTransactFailure, "install attributes: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	sch, err := readSchema(ctx, tx)
	if err != nil {
		return nil, err
	}

	entids := make([]core.Entid, len(defs))
	var fresh []int
	seen := make(map[core.Keyword]int, len(defs))
	for i, d := range defs {
		if j, dup := seen[d.Ident]; dup {
			if defs[j] != d {
				return nil, errorf(CodeTransactInvalid, "attribute %s defined twice with different metadata", d.Ident)
			}
			entids[i] = -1
			continue
		}
		seen[d.Ident] = i

		e, exists := sch.Entid(d.Ident)
		if !exists {
			fresh = append(fresh, i)
			continue
		}
		existing, ok := sch.Attribute(e)
		if !ok {
			return nil, errorf(CodeTransactInvalid, "ident %s already names non-attribute entity %d", d.Ident, e)
		}
		if existing != d.Attribute {
			return nil, errorf(CodeTransactInvalid, "attribute %s is already installed with different metadata", d.Ident)
		}
		entids[i] = e
	}
	if len(fresh) == 0 {
		fillDuplicates(defs, entids, seen)
		return entids, nil
	}

	first, err := allocate(ctx, tx, PartUser, len(fresh))
	if err != nil {
		return nil, err
	}
	for n, i := range fresh {
		entids[i] = first + core.Entid(n)
	}
	fillDuplicates(defs, entids, seen)

	report, err := s.beginReport(ctx, tx)
	if err != nil {
		return nil, err
	}
	for n, i := range fresh {
		d := defs[i]
		e := first + core.Entid(n)
		if err := insertDatom(ctx, tx, marshalDatom(e, schema.DbIdent, d.Ident, report.Tx, schema.BootstrapAttributes[schema.DbIdent])); err != nil {
			return nil, err
		}
		report.Datoms++
		for _, t := range schema.AttributeTriples(e, d.Attribute) {
			if err := insertDatom(ctx, tx, marshalDatom(t.E, t.A, t.V, report.Tx, schema.BootstrapAttributes[t.A])); err != nil {
				return nil, err
			}
			report.Datoms++
		}
		if d.Doc != "" {
			doc := marshalDatom(e, schema.DbDoc, core.String(d.Doc), report.Tx, schema.BootstrapAttributes[schema.DbDoc])
			if err := insertDatom(ctx, tx, doc); err != nil {
				return nil, err
			}
			report.Datoms++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapf(err, CodeTransactFailure, "install attributes: commit")
	}

	s.logger.Debug("attributes installed", "count", len(fresh), "tx", report.Tx)
	return entids, nil
}

// fillDuplicates gives repeated definitions the entid of their first
// occurrence.
func fillDuplicates(defs []Definition, entids []core.Entid, first map[core.Keyword]int) {
	for i, d := range defs {
		if entids[i] == -1 {
			entids[i] = entids[first[d.Ident]]
		}
	}
}

// AllocateEntids reserves n fresh entids in :db.part/user.
func (s *Store) AllocateEntids(ctx context.Context, n int) ([]core.Entid, error) {
	if n < 0 {
		return nil, errorf(CodeTransactInvalid, "cannot allocate %d entids", n)
	}
	if n == 0 {
		return []core.Entid{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapf(err, CodeTransactFailure, "allocate entids: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	first, err := allocate(ctx, tx, PartUser, n)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, wrapf(err, CodeTransactFailure, "allocate entids: commit")
	}

	entids := make([]core.Entid, n)
	for i := range entids {
		entids[i] = first + core.Entid(i)
	}
	return entids, nil
}

// Assert adds facts in one transaction.
//
// Every fact is checked against the schema before anything is written: the
// attribute must be installed and the value must have its value type. A
// keyword value for a ref attribute is resolved as an ident. Asserting a
// cardinality-one attribute replaces the entity's previous value. Asserting a
// value a cardinality-many attribute already holds is a no-op and is not
// counted in the report. A value of a unique attribute already held by
// another entity is rejected.
func (s *Store) Assert(ctx context.Context, facts []Fact) (TxReport, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TxReport{}, wrapf(err, CodeTransactFailure, "assert: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	sch, err := readSchema(ctx, tx)
	if err != nil {
		return TxReport{}, err
	}

	type resolved struct {
		a    core.Entid
		attr schema.Attribute
		v    core.TypedValue
	}
	checked := make([]resolved, len(facts))
	for i, f := range facts {
		a, attr, ok := sch.AttributeFor(f.A)
		if !ok {
			return TxReport{}, errorf(CodeTransactInvalid, "fact %d: unknown attribute %s", i, f.A)
		}
		if f.E <= 0 {
			return TxReport{}, errorf(CodeTransactInvalid, "fact %d: invalid entity %d", i, f.E)
		}
		v, err := coerce(sch, attr, f.V)
		if err != nil {
			return TxReport{}, wrapf(err, CodeTransactInvalid, "fact %d (%s)", i, f.A)
		}
		checked[i] = resolved{a: a, attr: attr, v: v}
	}

	report, err := s.beginReport(ctx, tx)
	if err != nil {
		return TxReport{}, err
	}

	for i, f := range facts {
		c := checked[i]
		row := marshalDatom(f.E, c.a, c.v, report.Tx, c.attr)

		if row.uniqueValue {
			var owner int64
			err := tx.QueryRowContext(ctx,
				"SELECT e FROM datoms WHERE a = ? AND value_type_tag = ? AND v = ? AND e != ? LIMIT 1",
				row.a, row.tag, row.v, row.e,
			).Scan(&owner)
			switch {
			case err == nil:
				return TxReport{}, errorf(CodeTransactInvalid, "fact %d: %s %s is already held by entity %d",
					i, f.A, core.Format(c.v), owner)
			case err != sql.ErrNoRows:
				return TxReport{}, wrapf(err, CodeTransactFailure, "fact %d: check uniqueness", i)
			}
		}

		if !c.attr.Multival() {
			if _, err := tx.ExecContext(ctx, "DELETE FROM datoms WHERE e = ? AND a = ?", row.e, row.a); err != nil {
				return TxReport{}, wrapf(err, CodeTransactFailure, "fact %d: replace value", i)
			}
		}

		inserted, err := insertNewDatom(ctx, tx, row)
		if err != nil {
			return TxReport{}, err
		}
		if inserted {
			report.Datoms++
		}
	}

	if err := tx.Commit(); err != nil {
		return TxReport{}, wrapf(err, CodeTransactFailure, "assert: commit")
	}

	s.logger.Debug("facts asserted", "tx", report.Tx, "datoms", report.Datoms)
	return report, nil
}

// beginReport allocates the transaction entid and asserts its :db/txInstant.
func (s *Store) beginReport(ctx context.Context, tx *sql.Tx) (TxReport, error) {
	txEntid, err := allocate(ctx, tx, PartTx, 1)
	if err != nil {
		return TxReport{}, err
	}
	instant := core.NewInstant(s.clock.Now())
	attr := schema.BootstrapAttributes[schema.DbTxInstant]
	if err := insertDatom(ctx, tx, marshalDatom(txEntid, schema.DbTxInstant, instant, txEntid, attr)); err != nil {
		return TxReport{}, err
	}
	return TxReport{Tx: txEntid, TxInstant: instant.Time(), Datoms: 1}, nil
}

// coerce checks v against the attribute's value type, resolving a keyword
// to an entid for ref attributes.
func coerce(sch *schema.Schema, attr schema.Attribute, v core.TypedValue) (core.TypedValue, error) {
	if v == nil {
		return nil, errorf(CodeTransactInvalid, "nil value")
	}
	if kw, ok := v.(core.Keyword); ok && attr.ValueType == core.ValueTypeRef {
		e, ok := sch.Entid(kw)
		if !ok {
			return nil, errorf(CodeTransactInvalid, "unknown ident %s", kw)
		}
		return core.Ref(e), nil
	}
	if !core.MatchesType(v, attr.ValueType) {
		return nil, errorf(CodeTransactInvalid, "value %s is not a %s", core.Format(v), attr.ValueType)
	}
	return v, nil
}

// allocate advances a partition by n and returns the first entid reserved.
func allocate(ctx context.Context, tx *sql.Tx, part string, n int) (core.Entid, error) {
	var next int64
	if err := tx.QueryRowContext(ctx, "SELECT idx FROM parts WHERE part = ?", part).Scan(&next); err != nil {
		return 0, wrapf(err, CodeTransactFailure, "read partition %s", part)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE parts SET idx = idx + ? WHERE part = ?", int64(n), part); err != nil {
		return 0, wrapf(err, CodeTransactFailure, "advance partition %s", part)
	}
	return core.Entid(next), nil
}

func insertDatom(ctx context.Context, tx *sql.Tx, row datomRow) error {
	_, err := insertNewDatom(ctx, tx, row)
	return err
}

// insertNewDatom inserts row and reports whether it was new. An (e, a, v)
// already present is left alone.
func insertNewDatom(ctx context.Context, tx *sql.Tx, row datomRow) (bool, error) {
	res, err := tx.ExecContext(ctx, insertDatomSQL, row.args()...)
	if err != nil {
		return false, wrapf(err, CodeTransactFailure, "insert datom [%d %d %v]", row.e, row.a, row.v)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapf(err, CodeTransactFailure, "insert datom [%d %d %v]", row.e, row.a, row.v)
	}
	return n > 0, nil
}
