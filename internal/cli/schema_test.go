package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Text(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, ":db/ident")
	assert.Contains(t, out, ":person/name")

	out, err = execute(t, "--db", dbPath, "schema", "--user")
	require.NoError(t, err)
	assert.NotContains(t, out, ":db/ident")
	assert.Contains(t, out, "65536")
	assert.Contains(t, out, "string one unique=identity")
	assert.Contains(t, out, "long one index")
	assert.Contains(t, out, "ref many")
}

func TestSchema_JSON(t *testing.T) {
	dbPath := seedDB(t)

	out, err := execute(t, "--db", dbPath, "--format", "json", "schema", "--user")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   []AttributeInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []AttributeInfo{
		{Ident: ":person/name", Entid: 65536, ValueType: "string", Cardinality: "one", Unique: "identity"},
		{Ident: ":person/age", Entid: 65537, ValueType: "long", Cardinality: "one", Index: true},
		{Ident: ":person/friend", Entid: 65538, ValueType: "ref", Cardinality: "many"},
	}, resp.Data)
}

func TestSchema_EmptyDatabase(t *testing.T) {
	out, err := execute(t, "--db", filepath.Join(t.TempDir(), "new.db"), "schema", "--user")
	require.NoError(t, err)
	assert.Contains(t, out, "No attributes installed.")
}

func TestAttributeInfo_String(t *testing.T) {
	a := AttributeInfo{Ident: ":doc/body", Entid: 65540, ValueType: "string", Cardinality: "one", Fulltext: true, IsComponent: true}
	assert.Contains(t, a.String(), "string one fulltext component")
}
