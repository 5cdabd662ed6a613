package report

import (
	"bytes"
	"cirgen/internal/core/app"
	"cirgen/internal/core/errors"
	"cirgen/internal/data/store"
	"cirgen/internal/engine/ctype"
	"cirgen/internal/engine/ir"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSummary(t *testing.T) {
	s := app.Summary{
		Results: []app.BuildResult{
			{Module: "ctx", Output: "out/ctx.ir.json", Stats: app.Stats{Patterns: 7}},
			{Module: "math", Output: "out/math.ir.json", Cached: true},
		},
		Failures: []app.Failure{
			{Path: "broken.json", Err: errors.New(errors.CodeParseError, "bad json")},
		},
	}
	s.Results[0].Stats.Functions = 4
	s.Results[0].Stats.UnknownTypes = 1

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "ctx")
	assert.Contains(t, out, "4 functions")
	assert.Contains(t, out, "7 patterns")
	assert.Contains(t, out, "1 unknown")
	assert.Contains(t, out, "cached")
	assert.Contains(t, out, "broken.json")
	assert.Contains(t, out, "PARSE_ERROR")
	assert.Contains(t, out, "1 built, 1 cached, 1 failed")
}

func TestWriteBuild(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBuild(&buf, app.BuildResult{Path: "a.h"}, errors.New(errors.CodeNotFound, "gone")))
	assert.Contains(t, buf.String(), "NOT_FOUND")

	buf.Reset()
	require.NoError(t, WriteBuild(&buf, app.BuildResult{Module: "a", Cached: true}, nil))
	assert.Contains(t, buf.String(), "cached")
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, nil))
	assert.Contains(t, buf.String(), "no snapshots")

	snaps := []store.Snapshot{{
		ID:            "0d6c6a55-2d1d-4f4e-9d3c-9d61d1f2a8b1",
		Module:        "ctx",
		SourcePath:    "inc/ctx\t.h",
		ContentHash:   "abcdef0123456789",
		SchemaVersion: "1.1.0",
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Functions:     4,
		Patterns:      9,
	}}

	buf.Reset()
	require.NoError(t, WriteHistory(&buf, snaps))
	out := buf.String()
	assert.Contains(t, out, "2026-03-01T12:00:00Z")
	assert.Contains(t, out, "abcdef012345")
	assert.NotContains(t, out, "abcdef0123456789")

	buf.Reset()
	require.NoError(t, WriteHistoryTSV(&buf, snaps))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 9)
	assert.Equal(t, "inc/ctx .h", fields[8])
}

func TestWriteType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteType(&buf, "const char **", ctype.Resolve("const char **")))
	out := buf.String()
	assert.Contains(t, out, "pointer")
	assert.Contains(t, out, "c-string")

	buf.Reset()
	require.NoError(t, WriteType(&buf, "int (*)(int)", ctype.Resolve("int (*)(int)")))
	assert.Contains(t, buf.String(), "function-pointer")
	assert.Contains(t, buf.String(), "unknown(int)", "function pointer return is left unresolved")
	assert.NotContains(t, buf.String(), "primitive")
}

func TestWriteModule(t *testing.T) {
	m := ir.NewModule("ctx")
	create := &ir.Function{Name: "ctx_create", ReturnType: ctype.Resolve("Context *")}
	create.AddPattern(ir.CreateFunction{ResourceType: "Context"})
	create.SetErrorConvention(ir.ErrorNullPointer)
	create.SetFreedBy("ctx_destroy")
	plain := &ir.Function{Name: "ctx_ping", ReturnType: ctype.Resolve("void")}
	m.Functions = append(m.Functions, create, plain)

	var buf bytes.Buffer
	require.NoError(t, WriteModule(&buf, m))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "create-function(Context)")
	assert.Contains(t, lines[1], "null-is-error, freed by ctx_destroy")
	assert.Contains(t, lines[2], "ctx_ping")

	buf.Reset()
	require.NoError(t, WriteModule(&buf, ir.NewModule("empty")))
	assert.Contains(t, buf.String(), "no functions")
}
