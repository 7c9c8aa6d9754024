package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/schema"
)

// schemaAttributes are the attributes whose datoms describe the schema.
var schemaAttributes = []core.Entid{
	schema.DbIdent,
	schema.DbValueType,
	schema.DbCardinality,
	schema.DbUnique,
	schema.DbIndex,
	schema.DbFulltext,
	schema.DbIsComponent,
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EnsureSchema brings the database to the current schema version and returns
// a snapshot of its idents and attributes.
func (s *Store) EnsureSchema(ctx context.Context) (*schema.Schema, error) {
	if err := runMigrations(ctx, s.db); err != nil {
		return nil, wrapf(err, CodeSchemaFailure, "migrate")
	}
	return s.Schema(ctx)
}

// Schema reads the current schema snapshot.
// The snapshot is immutable; later writes are not reflected in it.
func (s *Store) Schema(ctx context.Context) (*schema.Schema, error) {
	sch, err := readSchema(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("schema read", "idents", sch.Len(), "attributes", len(sch.AttributeEntids()))
	return sch, nil
}

func readSchema(ctx context.Context, q querier) (*schema.Schema, error) {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(schemaAttributes)), ", ")
	args := make([]any, len(schemaAttributes))
	for i, a := range schemaAttributes {
		args[i] = int64(a)
	}

	// Deterministic ordering: ORDER BY e, a, value_type_tag, v
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT e, a, v, value_type_tag
		FROM datoms
		WHERE a IN (%s)
		ORDER BY e ASC, a ASC, value_type_tag ASC, v ASC
	`, marks), args...)
	if err != nil {
		return nil, wrapf(err, CodeSchemaFailure, "query schema datoms")
	}
	defer rows.Close()

	var triples []schema.Triple
	for rows.Next() {
		var (
			e, a, tag int64
			raw       any
		)
		if err := rows.Scan(&e, &a, &raw, &tag); err != nil {
			return nil, wrapf(err, CodeSchemaFailure, "scan schema datom")
		}
		v, err := unmarshalValue(raw, tag)
		if err != nil {
			return nil, err
		}
		triples = append(triples, schema.Triple{E: core.Entid(e), A: core.Entid(a), V: v})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapf(err, CodeSchemaFailure, "iterate schema datoms")
	}

	sch, err := schema.FromTriples(triples)
	if err != nil {
		return nil, wrapf(err, CodeSchemaFailure, "build schema")
	}
	return sch, nil
}

// SchemaVersion returns the :db.schema/version asserted on :db.part/db.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT v FROM datoms WHERE e = ? AND a = ? AND value_type_tag = ?",
		int64(schema.DbPartDb), int64(schema.DbSchemaVersion), core.TagNumeric,
	).Scan(&version)
	if err != nil {
		return 0, wrapf(err, CodeSchemaFailure, "read schema version")
	}
	return version, nil
}
