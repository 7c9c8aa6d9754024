package edn

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tessera/internal/core"
)

func TestRead_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, v Value)
	}{
		{"nil", "nil", func(t *testing.T, v Value) {
			assert.IsType(t, Nil{}, v)
		}},
		{"true", "true", func(t *testing.T, v Value) {
			assert.Equal(t, true, v.(Bool).Value)
		}},
		{"negative integer", "-42", func(t *testing.T, v Value) {
			assert.Equal(t, int64(-42), v.(Integer).Value)
		}},
		{"bigint suffix", "7N", func(t *testing.T, v Value) {
			assert.Equal(t, int64(7), v.(Integer).Value)
		}},
		{"float", "1.5", func(t *testing.T, v Value) {
			assert.Equal(t, 1.5, v.(Float).Value)
		}},
		{"exponent", "2e3", func(t *testing.T, v Value) {
			assert.Equal(t, 2000.0, v.(Float).Value)
		}},
		{"keyword", ":db.type/keyword", func(t *testing.T, v Value) {
			assert.Equal(t, core.NewKeyword("db.type", "keyword"), v.(Keyword).Value)
		}},
		{"plain keyword", ":find", func(t *testing.T, v Value) {
			assert.Equal(t, core.Keyword{Name: "find"}, v.(Keyword).Value)
		}},
		{"variable", "?ident", func(t *testing.T, v Value) {
			assert.Equal(t, "?ident", v.(Symbol).Name)
		}},
		{"ellipsis", "...", func(t *testing.T, v Value) {
			assert.Equal(t, "...", v.(Symbol).Name)
		}},
		{"string escapes", `"a\"b\né"`, func(t *testing.T, v Value) {
			assert.Equal(t, "a\"b\né", v.(String).Value)
		}},
		{"inst", `#inst "2017-01-02T03:04:05.123456Z"`, func(t *testing.T, v Value) {
			want := time.Date(2017, 1, 2, 3, 4, 5, 123456000, time.UTC)
			assert.True(t, want.Equal(v.(Inst).Value))
		}},
		{"uuid", `#uuid "5f8b4a3e-1c2d-4e5f-8a9b-0c1d2e3f4a5b"`, func(t *testing.T, v Value) {
			assert.Equal(t, uuid.MustParse("5f8b4a3e-1c2d-4e5f-8a9b-0c1d2e3f4a5b"), v.(UUID).Value)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Read(tt.input)
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestRead_NormalizesStrings(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	v, err := Read("\"cafe\u0301\"")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", v.(String).Value)
}

func TestRead_Collections(t *testing.T) {
	v, err := Read("[:find ?x . :where [?x :db/ident _]]")
	require.NoError(t, err)

	vec, ok := v.(Vector)
	require.True(t, ok)
	require.Len(t, vec.Items, 5)
	assert.Equal(t, "?x", vec.Items[1].(Symbol).Name)
	assert.Equal(t, ".", vec.Items[2].(Symbol).Name)

	clause := vec.Items[4].(Vector)
	require.Len(t, clause.Items, 3)
	assert.Equal(t, "_", clause.Items[2].(Symbol).Name)
	assert.Equal(t, Pos{Line: 1, Col: 20}, clause.Position())
}

func TestRead_MapKeepsOrder(t *testing.T) {
	v, err := Read("{:find [?x], :where [[?x :db/ident ?y]]}")
	require.NoError(t, err)

	m := v.(Map)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, "find", m.Entries[0].Key.(Keyword).Value.Name)
	assert.Equal(t, "where", m.Entries[1].Key.(Keyword).Value.Name)
}

func TestRead_CommentsAndPositions(t *testing.T) {
	v, err := Read("; leading comment\n[1\n  2]")
	require.NoError(t, err)

	vec := v.(Vector)
	assert.Equal(t, Pos{Line: 2, Col: 1}, vec.Position())
	assert.Equal(t, Pos{Line: 3, Col: 3}, vec.Items[1].Position())
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   Pos
	}{
		{"empty", "   ", Pos{1, 4}},
		{"unbalanced vector", "[:find ?x", Pos{1, 1}},
		{"stray closer", "]", Pos{1, 1}},
		{"trailing form", "[1] 2", Pos{1, 5}},
		{"odd map", "{:a}", Pos{1, 1}},
		{"unterminated string", `"abc`, Pos{1, 1}},
		{"bad escape", `"a\qb"`, Pos{1, 4}},
		{"set", "#{1}", Pos{1, 1}},
		{"unknown tag", `#foo "x"`, Pos{1, 1}},
		{"bad inst", `#inst "yesterday"`, Pos{1, 1}},
		{"bad uuid", `#uuid "nope"`, Pos{1, 1}},
		{"overflow", "99999999999999999999", Pos{1, 1}},
		{"character", `\a`, Pos{1, 1}},
		{"empty keyword", ": x", Pos{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.input)
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected SyntaxError, got %T", err)
			assert.Equal(t, tt.pos, se.Pos)
		})
	}
}

func TestReadAll(t *testing.T) {
	forms, err := ReadAll("1 :a \"s\"")
	require.NoError(t, err)
	require.Len(t, forms, 3)
	assert.IsType(t, Integer{}, forms[0])
	assert.IsType(t, Keyword{}, forms[1])
	assert.IsType(t, String{}, forms[2])

	forms, err = ReadAll("")
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		`[:find ?x . :where [?x :db/fulltext true]]`,
		`{:find [?e], :where [[?e :db/ident _]]}`,
		`(1 2.5 "s" nil)`,
	}
	for _, in := range inputs {
		v, err := Read(in)
		require.NoError(t, err)
		assert.Equal(t, in, Format(v))
	}
}

func TestDescribe(t *testing.T) {
	v, err := Read(":db/ident")
	require.NoError(t, err)
	assert.Equal(t, "keyword :db/ident", Describe(v))

	v, err = Read("[1]")
	require.NoError(t, err)
	assert.Equal(t, "vector", Describe(v))
}
