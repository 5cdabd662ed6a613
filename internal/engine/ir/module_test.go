package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunction_AddPatternDedupes(t *testing.T) {
	f := &Function{Name: "f"}
	assert.True(t, f.AddPattern(OutParameter{ParamIndex: 0}))
	assert.False(t, f.AddPattern(OutParameter{ParamIndex: 0}))
	assert.True(t, f.AddPattern(OutParameter{ParamIndex: 1}), "same kind, different key")
	assert.True(t, f.AddPattern(CallbackParameter{ParamIndex: 0}), "different kind, same key")
	assert.True(t, f.AddPattern(BufferWithLength{BufferParam: 2, LengthParam: 3, Mode: DirIn}))
	assert.False(t, f.AddPattern(BufferWithLength{BufferParam: 2, LengthParam: 4, Mode: DirOut}), "keyed by buffer index")

	assert.Len(t, f.Patterns, 4)
	assert.Len(t, f.PatternsOf(PatternOutParameter), 2)
	assert.True(t, f.IsOutParameter(1))
	assert.False(t, f.IsOutParameter(2))
}

func TestFunction_SemanticsSetOnce(t *testing.T) {
	f := &Function{Name: "f"}

	assert.False(t, f.SetErrorConvention(ErrorNone))
	assert.True(t, f.SetErrorConvention(ErrorNegative))
	assert.False(t, f.SetErrorConvention(ErrorNonzero))
	assert.Equal(t, ErrorNegative, f.Semantics.ErrorConvention)

	assert.True(t, f.SetFreedBy("a_free"))
	assert.False(t, f.SetFreedBy("b_free"))
	assert.Equal(t, "a_free", f.Semantics.FreedBy)

	f.MarkConsumed(2)
	f.MarkConsumed(0)
	f.MarkConsumed(2)
	assert.Equal(t, []int{0, 2}, f.Semantics.ConsumesParams)
}

func TestModule_Underlying(t *testing.T) {
	m := NewModule("m")
	m.Typedefs = []*Typedef{
		{Name: "a", Underlying: TypedefRef{Name: "b", Text: "b"}},
		{Name: "b", Underlying: Primitive{Name: PrimInt, Text: "int"}},
		{Name: "loop1", Underlying: TypedefRef{Name: "loop2", Text: "loop2"}},
		{Name: "loop2", Underlying: TypedefRef{Name: "loop1", Text: "loop1"}},
	}

	assert.Equal(t, Primitive{Name: PrimInt, Text: "int"}, m.Underlying(TypedefRef{Name: "a", Text: "a"}))
	assert.Equal(t, TypedefRef{Name: "missing", Text: "missing"}, m.Underlying(TypedefRef{Name: "missing", Text: "missing"}))
	assert.Equal(t, KindTypedefRef, m.Underlying(TypedefRef{Name: "loop1", Text: "loop1"}).Kind(), "cycles terminate")

	ptr := Pointer{Elem: Primitive{Name: PrimChar, Text: "char"}, Text: "char *"}
	assert.Equal(t, ptr, m.Underlying(ptr))
}

func TestModule_Sorted(t *testing.T) {
	m := NewModule("m")
	m.Functions = []*Function{{Name: "zeta"}, {Name: "alpha"}}
	m.Structs = []*Struct{{Name: "S2"}, {Name: "S1"}}
	m.Metadata["source"] = "m.h"

	sorted := m.Sorted()
	assert.Equal(t, "alpha", sorted.Functions[0].Name)
	assert.Equal(t, "S1", sorted.Structs[0].Name)
	assert.Equal(t, "zeta", m.Functions[0].Name, "original order untouched")

	sorted.Metadata["source"] = "other"
	assert.Equal(t, "m.h", m.Metadata["source"])
}

func TestModule_Lookups(t *testing.T) {
	m := NewModule("m")
	m.Functions = []*Function{{Name: "f", Patterns: []Pattern{OutParameter{ParamIndex: 0}}}}
	m.Enums = []*Enum{{Name: "E"}}

	require.NotNil(t, m.Function("f"))
	assert.Nil(t, m.Function("g"))
	assert.NotNil(t, m.Enum("E"))
	assert.Nil(t, m.Struct("E"))
	assert.Nil(t, m.Typedef("E"))
	assert.Equal(t, 1, m.PatternCount())
}

func TestResourceKey(t *testing.T) {
	tests := map[string]string{
		"OpaqueContext *":     "OpaqueContext",
		"OpaqueContext":       "OpaqueContext",
		"const Foo * const":   "Foo",
		"struct Foo **":       "struct Foo",
		"  Buffer*  ":         "Buffer",
		"const struct Node *": "struct Node",
		"unsigned char *":     "unsigned char",
	}
	for in, want := range tests {
		assert.Equal(t, want, ResourceKey(in), in)
	}
	assert.Equal(t, "Foo", TrimPointer("Foo **"))
}
