package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = `typedef struct Buf Buf;
Buf *buf_new(size_t cap);
void buf_free(Buf *b);
int buf_append(Buf *b, const char *data, size_t len);
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "cirgen.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
version = 1

[input]
paths = ["include"]

[output]
dir = "out"

[store]
path = "db/cirgen.db"
`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "buf.h"), []byte(testHeader), 0o644))
	return dir, cfgPath
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cirgen v"+VERSION+"\n", out)
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, "resolve", "const char *", "double [10]")
	require.NoError(t, err)
	assert.Contains(t, out, "c-string")
	assert.Contains(t, out, "array")

	out, err = run(t, "resolve", "--format", "json", "int *")
	require.NoError(t, err)
	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "pointer", docs[0]["kind"])
	assert.Equal(t, "int *", docs[0]["cType"])

	out, err = run(t, "resolve", "--format", "json", "const   char *", "")
	require.NoError(t, err)
	docs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "c-string", docs[0]["kind"], "spellings are normalized like declaration types")
	assert.Equal(t, "const char *", docs[0]["cType"])
	assert.Equal(t, "primitive", docs[1]["kind"], "an empty spelling is void")

	_, err = run(t, "resolve", "--format", "xml", "int")
	assert.Error(t, err)

	_, err = run(t, "resolve")
	assert.Error(t, err)
}

func TestBuildAndHistoryCommands(t *testing.T) {
	dir, cfgPath := writeProject(t)

	out, err := run(t, "--config", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "buf")
	assert.Contains(t, out, "1 built, 0 cached, 0 failed")

	data, err := os.ReadFile(filepath.Join(dir, "out", "buf.ir.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"freedBy":"buf_free"`)

	out, err = run(t, "--config", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "0 built, 1 cached, 0 failed")

	out, err = run(t, "--config", cfgPath, "history", "--format", "tsv", "buf")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2, "header plus one snapshot")

	out, err = run(t, "--config", cfgPath, "history", "--prune", "0", "buf")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 1 snapshots of buf")
	assert.Contains(t, out, "no snapshots")
}

func TestShowCommand(t *testing.T) {
	_, cfgPath := writeProject(t)

	_, err := run(t, "--config", cfgPath, "show", "buf")
	require.Error(t, err, "nothing stored yet")

	_, err = run(t, "--config", cfgPath, "build")
	require.NoError(t, err)

	out, err := run(t, "--config", cfgPath, "show", "buf")
	require.NoError(t, err)
	assert.Contains(t, out, "buf_new")
	assert.Contains(t, out, "create-function(Buf)")
	assert.Contains(t, out, "freed by buf_free")
	assert.Contains(t, out, "destroy-function(0:Buf *)")

	_, err = run(t, "--config", cfgPath, "show", "buf", "--snapshot", "missing")
	assert.Error(t, err)
}

func TestBuildCommand_FlagsAndFailures(t *testing.T) {
	dir, cfgPath := writeProject(t)
	outDir := filepath.Join(dir, "alt")

	_, err := run(t, "--config", cfgPath, "build", "--no-store", "--out", outDir, "--module", "buffer",
		filepath.Join(dir, "include", "buf.h"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "buffer.ir.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "db", "cirgen.db"))
	assert.True(t, os.IsNotExist(err), "--no-store must not create the database")

	bad := filepath.Join(dir, "include", "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	out, err := run(t, "--config", cfgPath, "build", "--no-store")
	require.Error(t, err)
	assert.Contains(t, out, "bad.json")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "build", "x.h")
	assert.Error(t, err)
}
