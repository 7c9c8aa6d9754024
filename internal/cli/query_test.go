package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tessera/internal/algebrize"
	"github.com/roach88/tessera/internal/core"
)

func TestQuery_Text(t *testing.T) {
	dbPath := seedDB(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"coll", `[:find [?n ...] :where [_ :person/name ?n]]`, `["Ada" "Bob"]`},
		{"rel", `[:find ?n ?a :where [?e :person/name ?n] [?e :person/age ?a]]`, `[["Ada" 36] ["Bob" 40]]`},
		{"scalar", `[:find ?n . :where [?b :person/friend ?a] [?a :person/name ?n]]`, `"Ada"`},
		{"tuple", `[:find [?n ?a] :where [?e :person/name ?n] [?e :person/age 40] [?e :person/age ?a]]`, `["Bob" 40]`},
		{"absent scalar", `[:find ?e . :where [?e :person/name "Zed"]]`, `nil`},
		{"fulltext is empty", `[:find ?e :where [?e :db/fulltext true]]`, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--db", dbPath, "query", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestQuery_JSON(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "--format", "json", "query",
		`[:find ?n ?a :where [?e :person/name ?n] [?e :person/age ?a]]`)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "rel", data["shape"])
	assert.Equal(t, []any{"?n", "?a"}, data["columns"])
	assert.Equal(t, `[["Ada" 36] ["Bob" 40]]`, data["result"])
	assert.Equal(t, float64(2), data["count"])
}

func TestQuery_Inputs(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "query", "--in", `?n="Bob"`,
		`[:find ?e . :in $ ?n :where [?e :person/name ?n]]`)
	require.NoError(t, err)
	assert.Equal(t, "65540\n", out)

	out, err = execute(t, "--db", dbPath, "query", "--in", "?lo=40", "--in", `?n="Bob"`,
		`[:find ?e . :in $ ?n ?lo :where [?e :person/name ?n] [?e :person/age ?lo]]`)
	require.NoError(t, err)
	assert.Equal(t, "65540\n", out)
}

func TestQuery_Limit(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "query", "--limit", "1", `[:find [?n ...] :where [_ :person/name ?n]]`)
	require.NoError(t, err)
	assert.Equal(t, "[\"Ada\"]\n", out)

	_, err = execute(t, "--db", dbPath, "query", "--limit", "-1", `[:find [?n ...] :where [_ :person/name ?n]]`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQuery_Errors(t *testing.T) {
	dbPath := seedDB(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"parse", `[:find ?e :where [?e]]`, "PARSE_ERROR"},
		{"unknown attribute", `[:find ?e :where [?e :person/nope _]]`, "UNKNOWN_ATTRIBUTE"},
		{"type conflict", `[:find ?e :where [?e :person/age "old"]]`, "TYPE_CONFLICT"},
		{"unbound find variable", `[:find ?x :where [?e :person/name _]]`, "UNBOUND_FIND_VARIABLE"},
		{"missing input", `[:find ?e :in $ ?n :where [?e :person/name ?n]]`, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--db", dbPath, "query", tt.query)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")

			out, err = execute(t, "--db", dbPath, "--format", "json", "query", tt.query)
			require.Error(t, err)
			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestQuery_ErrorDetails(t *testing.T) {
	dbPath := seedDB(t)

	tests := []struct {
		name  string
		query string
		want  *ErrorDetails
	}{
		{"clause", `[:find ?e :where [?e :person/name _] [?e :person/age "old"]]`, &ErrorDetails{Clause: 2}},
		{"variable", `[:find ?x :where [?e :person/name _]]`, &ErrorDetails{Variable: "?x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--db", dbPath, "--format", "json", "query", tt.query)
			require.Error(t, err)
			resp := decodeResponse(t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.want, resp.Error.Details)
		})
	}
}

func TestQuery_BadInput(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "query", "--in", "n=1", `[:find ?e :in $ ?n :where [?e :person/age ?n]]`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid --in")
}

func TestQuery_UnopenableDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "dir", "facts.db")

	out, err := execute(t, "--db", dbPath, "--format", "json", "query", `[:find ?e :where [?e :db/ident _]]`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "store.open.failure", resp.Error.Code)
}

func TestQuery_Explain(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "query", "--explain", `[:find ?e :where [?e :person/age 36]]`)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT")
	assert.Contains(t, out, "ORDER BY")
	assert.Contains(t, out, "?1 = ")

	out, err = execute(t, "--db", dbPath, "--format", "json", "query", "--explain",
		`[:find ?e :where [?e :person/friend :no/such]]`)
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Contains(t, data["known_empty"], "does not resolve")
	assert.Nil(t, data["sql"])
}

func TestParseInputs(t *testing.T) {
	inputs, err := ParseInputs([]string{`?n="Ada"`, "?a=36", "?k=:person/name", "?f=1.5"})
	require.NoError(t, err)
	assert.Equal(t, algebrize.Inputs{
		"?n": core.String("Ada"),
		"?a": core.Long(36),
		"?k": core.NewKeyword("person", "name"),
		"?f": core.Double(1.5),
	}, inputs)

	none, err := ParseInputs(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, bad := range []string{"n=1", "?n", "?=1", "?n=[1]", "?n=", "?n=nil"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseInputs([]string{bad})
			assert.Error(t, err)
		})
	}

	_, err = ParseInputs([]string{"?n=1", "?n=2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "given twice")
}
