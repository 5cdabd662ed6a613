package ctype

import (
	"cirgen/internal/engine/ir"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		spelling string
		want     string
	}{
		{"int", "primitive(int)"},
		{"const int", "primitive(int)"},
		{"unsigned long long", "primitive(ulonglong)"},
		{"size_t", "primitive(size_t)"},
		{"void", "primitive(void)"},
		{"char *", "c-string"},
		{"const char *", "c-string(const)"},
		{"unsigned char *", "pointer(primitive(uchar))"},
		{"double [10]", "array(primitive(double), extent=10)"},
		{"char [N + 1]", "array(primitive(char), extent=N + 1)"},
		{"int (*)(int)", "function-pointer(int)"},
		{"void (*)(void *, const char *)", "function-pointer(void *, const char *)"},
		{"OpaqueContext *", "pointer(typedef-ref(OpaqueContext))"},
		{"const void *", "pointer(const, primitive(void))"},
		{"char **", "pointer(c-string)"},
		{"const char *const *", "pointer(const, c-string)"},
		{"struct Foo *", "pointer(struct-ref(Foo))"},
		{"struct Foo", "struct-ref(Foo)"},
		{"union Value", "struct-ref(union Value)"},
		{"class Widget", "struct-ref(Widget)"},
		{"enum Color", "enum-ref(Color)"},
		{"png_structp", "typedef-ref(png_structp)"},
		{"foo bar baz", "unknown(foo bar baz)"},
		{"", "unknown()"},
	}

	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			got := Resolve(tt.spelling)
			assert.Equal(t, tt.want, ir.Describe(got))
		})
	}
}

func TestResolve_CStringTakesPriorityOverPointer(t *testing.T) {
	got := Resolve("const char *")
	cs, ok := got.(ir.CString)
	require.True(t, ok, "expected c-string, got %s", ir.Describe(got))
	assert.True(t, cs.Const)
	assert.Equal(t, ir.KindCString, got.Kind())
}

func TestResolve_ArrayLengthIsNotEvaluated(t *testing.T) {
	got := Resolve("double [10]")
	arr, ok := got.(ir.Array)
	require.True(t, ok)
	assert.Nil(t, arr.Length)
	assert.Equal(t, "10", arr.Extent)

	elem, ok := arr.Elem.(ir.Primitive)
	require.True(t, ok)
	assert.Equal(t, ir.PrimDouble, elem.Name)
}

func TestResolve_FunctionPointerReturnLeftUnknown(t *testing.T) {
	got := Resolve("int (*)(int, char **)")
	fp, ok := got.(ir.FunctionPointer)
	require.True(t, ok)
	assert.Equal(t, ir.KindUnknown, fp.Return.Kind())
	assert.Equal(t, "int", fp.Return.Spelling())
	assert.Equal(t, []string{"int", "char **"}, fp.Params)
}

func TestResolve_PointerConstAnywhere(t *testing.T) {
	cases := map[string]bool{
		"int *":           false,
		"const int *":     true,
		"int const *":     true,
		"Handle *const":   false,
		"struct Foo *":    false,
		"const Buffer **": true,
	}
	for spelling, wantConst := range cases {
		got := Resolve(spelling)
		p, ok := got.(ir.Pointer)
		if !ok {
			// "Handle *const" has no trailing star and is not a pointer.
			assert.Equal(t, "Handle *const", spelling)
			continue
		}
		assert.Equal(t, wantConst, p.Const, spelling)
	}
}

func TestResolve_SpellingRoundTrip(t *testing.T) {
	inputs := []string{
		"int", "const char *", "char *", "double [10]", "int (*)(int)",
		"struct Foo *", "enum Bar", "MyType", "unsigned int **", "weird <stuff>",
	}
	for _, in := range inputs {
		got := Resolve(in)
		assert.Equal(t, in, got.Spelling(), "spelling must round-trip")
		walkElems(got, func(inner ir.Type) {
			assert.NotNil(t, inner)
		})
	}
}

func walkElems(t ir.Type, fn func(ir.Type)) {
	fn(t)
	switch v := t.(type) {
	case ir.Pointer:
		walkElems(v.Elem, fn)
	case ir.Array:
		walkElems(v.Elem, fn)
	case ir.FunctionPointer:
		walkElems(v.Return, fn)
	}
}

func TestLookupPrimitive(t *testing.T) {
	name, ok := LookupPrimitive("uint32_t")
	assert.True(t, ok)
	assert.Equal(t, ir.PrimUInt32, name)
	assert.True(t, name.IsInteger())

	_, ok = LookupPrimitive("FILE")
	assert.False(t, ok)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "char **", join(tokenize("char**")))
	assert.Equal(t, "struct Foo *", join(tokenize("struct  Foo*")))
	assert.Equal(t, "char * const", join(tokenize("char *const")))
}

func TestResolve_RecursiveRulesReachTable(t *testing.T) {
	require.Len(t, rules, 7)

	got := Resolve("struct Foo *[4]")
	assert.Equal(t, "array(pointer(struct-ref(Foo)), extent=4)", ir.Describe(got))
	assert.Equal(t, "pointer(pointer(typedef-ref(Handle)))", ir.Describe(Resolve("Handle **")))
}
