package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/schema"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// personDefinitions is a small user vocabulary.
func personDefinitions() []Definition {
	return []Definition{
		{Ident: core.NewKeyword("person", "name"), Attribute: schema.Attribute{
			ValueType: core.ValueTypeString, Cardinality: schema.CardinalityOne, Unique: schema.UniqueIdentity,
		}},
		{Ident: core.NewKeyword("person", "age"), Attribute: schema.Attribute{
			ValueType: core.ValueTypeLong, Cardinality: schema.CardinalityOne,
		}},
		{Ident: core.NewKeyword("person", "friend"), Attribute: schema.Attribute{
			ValueType: core.ValueTypeRef, Cardinality: schema.CardinalityMany,
		}},
	}
}

// countDatoms returns the number of datoms for (e, a).
func countDatoms(t *testing.T, s *Store, e, a core.Entid) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM datoms WHERE e = ? AND a = ?", int64(e), int64(a)).Scan(&n); err != nil {
		t.Fatalf("count datoms: %v", err)
	}
	return n
}
