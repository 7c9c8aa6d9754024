package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tessera/internal/core"
	"github.com/roach88/tessera/internal/store"
	"github.com/roach88/tessera/internal/vocab"
)

const peopleVocab = `attributes: {
	"person/name":   {valueType: "string", unique: "identity"}
	"person/age":    {valueType: "long", index: true}
	"person/friend": {valueType: "ref", cardinality: "many"}
}
`

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes content to name under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// seedDB creates a database with the people vocabulary, Ada (36) and Bob
// (40, friend of Ada). Attributes get entids 65536-65538, Ada 65539 and
// Bob 65540.
func seedDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	defs, err := vocab.Compile("people.cue", []byte(peopleVocab))
	require.NoError(t, err)
	_, err = st.InstallAttributes(ctx, defs)
	require.NoError(t, err)

	entids, err := st.AllocateEntids(ctx, 2)
	require.NoError(t, err)
	ada, bob := entids[0], entids[1]

	name := core.NewKeyword("person", "name")
	age := core.NewKeyword("person", "age")
	_, err = st.Assert(ctx, []store.Fact{
		{E: ada, A: name, V: core.String("Ada")},
		{E: ada, A: age, V: core.Long(36)},
		{E: bob, A: name, V: core.String("Bob")},
		{E: bob, A: age, V: core.Long(40)},
		{E: bob, A: core.NewKeyword("person", "friend"), V: core.Ref(ada)},
	})
	require.NoError(t, err)
	return dbPath
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tessera", cmd.Use)
	assert.Contains(t, cmd.Long, "Datalog")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"query", "schema", "install", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)

	require.NotNil(t, queryCmd.Flags().Lookup("in"))
	limitFlag := queryCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "0", limitFlag.DefValue)
	explainFlag := queryCmd.Flags().Lookup("explain")
	require.NotNil(t, explainFlag)
	assert.Equal(t, "false", explainFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := execute(t, "--format", "invalid", "--db", filepath.Join(t.TempDir(), "x.db"), "schema")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFileSuppliesDefaults(t *testing.T) {
	dbPath := seedDB(t)
	cfgPath := writeFile(t, t.TempDir(), "tessera.yaml",
		"database:\n  path: "+dbPath+"\noutput:\n  format: json\nquery:\n  limit: 1\n")

	out, err := execute(t, "--config", cfgPath, "query", `[:find [?n ...] :where [_ :person/name ?n]]`)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, `["Ada"]`, data["result"])
}

func TestFlagsOverrideConfig(t *testing.T) {
	dbPath := seedDB(t)
	cfgPath := writeFile(t, t.TempDir(), "tessera.yaml",
		"database:\n  path: /nonexistent/dir/facts.db\noutput:\n  format: json\n")

	out, err := execute(t, "--config", cfgPath, "--db", dbPath, "--format", "text",
		"query", "--limit", "0", `[:find [?n ...] :where [_ :person/name ?n]]`)
	require.NoError(t, err)
	assert.Equal(t, "[\"Ada\" \"Bob\"]\n", out)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "schema")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
