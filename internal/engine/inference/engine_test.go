package inference

import (
	"cirgen/internal/core/errors"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/ir"
	"cirgen/internal/engine/translate"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func param(name, spelling string) header.Param {
	return header.Param{Name: name, Type: spelling}
}

func build(t *testing.T, h *header.Header) *ir.Module {
	t.Helper()
	m, err := translate.BuildModule(h)
	require.NoError(t, err)
	Default().Run(m)
	return m
}

func contextHeader() *header.Header {
	return &header.Header{
		Name: "ctx",
		Functions: []header.Function{
			{Name: "create_context", ReturnType: "OpaqueContext *"},
			{Name: "destroy_context", ReturnType: "void", Params: []header.Param{param("ctx", "OpaqueContext *")}},
			{Name: "get_value", ReturnType: "int", Params: []header.Param{param("out_value", "int *")}},
			{Name: "write_data", ReturnType: "int", Params: []header.Param{param("buf", "void *"), param("len", "size_t")}},
		},
		Typedefs: []header.Typedef{{Name: "OpaqueContext", Underlying: "struct OpaqueContext"}},
	}
}

func TestScenario_CreateDestroy(t *testing.T) {
	m := build(t, contextHeader())

	create := m.Function("create_context")
	require.NotNil(t, create)
	assert.Contains(t, create.Patterns, ir.Pattern(ir.CreateFunction{ResourceType: "OpaqueContext"}))
	assert.True(t, create.Semantics.ReturnsOwned)
	assert.Equal(t, "destroy_context", create.Semantics.FreedBy)
	assert.Equal(t, ir.ErrorNullPointer, create.Semantics.ErrorConvention)

	destroy := m.Function("destroy_context")
	require.NotNil(t, destroy)
	assert.Contains(t, destroy.Patterns, ir.Pattern(ir.DestroyFunction{ResourceType: "OpaqueContext *", ParamIndex: 0}))
	assert.Equal(t, []int{0}, destroy.Semantics.ConsumesParams)
	assert.Equal(t, ir.ErrorNone, destroy.Semantics.ErrorConvention)
}

func TestScenario_OutParameter(t *testing.T) {
	m := build(t, contextHeader())

	get := m.Function("get_value")
	assert.Contains(t, get.Patterns, ir.Pattern(ir.OutParameter{ParamIndex: 0}))
	assert.Equal(t, ir.ErrorNonzero, get.Semantics.ErrorConvention)
}

func TestScenario_BufferWithLength(t *testing.T) {
	m := build(t, contextHeader())

	write := m.Function("write_data")
	assert.Equal(t, []ir.Pattern{ir.BufferWithLength{BufferParam: 0, LengthParam: 1, Mode: ir.DirIn}}, write.Patterns)
	assert.Equal(t, ir.ErrorNegative, write.Semantics.ErrorConvention)
}

func TestBufferModes(t *testing.T) {
	h := &header.Header{
		Name: "io",
		Functions: []header.Function{
			{Name: "read_into", ReturnType: "int", Params: []header.Param{param("size", "size_t"), param("out_buf", "uint8_t *")}},
			{Name: "transform", ReturnType: "int", Params: []header.Param{
				{Name: "data", Type: "float *", Direction: "inout"}, param("count", "int"), param("flags", "int"),
			}},
			{Name: "no_length", ReturnType: "void", Params: []header.Param{param("data", "double *"), param("flags", "int")}},
			{Name: "bool_length", ReturnType: "void", Params: []header.Param{param("data", "const void *"), param("size", "bool")}},
			{Name: "struct_buffer", ReturnType: "void", Params: []header.Param{param("items", "struct Item *"), param("count", "size_t")}},
		},
	}
	m := build(t, h)

	read := m.Function("read_into")
	assert.Contains(t, read.Patterns, ir.Pattern(ir.BufferWithLength{BufferParam: 1, LengthParam: 0, Mode: ir.DirOut}))

	transform := m.Function("transform")
	assert.Contains(t, transform.Patterns, ir.Pattern(ir.BufferWithLength{BufferParam: 0, LengthParam: 1, Mode: ir.DirInOut}))

	assert.False(t, m.Function("no_length").HasPattern(ir.PatternBufferWithLength))
	assert.False(t, m.Function("bool_length").HasPattern(ir.PatternBufferWithLength))
	assert.False(t, m.Function("struct_buffer").HasPattern(ir.PatternBufferWithLength))
}

func TestStringWithLength(t *testing.T) {
	h := &header.Header{
		Name: "str",
		Functions: []header.Function{
			{Name: "set_name", ReturnType: "int", Params: []header.Param{param("name", "const char *"), param("name_len", "size_t")}},
			{Name: "copy_label", ReturnType: "void", Params: []header.Param{param("label", "unsigned char *"), param("size", "int")}},
			{Name: "set_tags", ReturnType: "void", Params: []header.Param{param("tag", "const char *"), param("count", "size_t")}},
		},
	}
	m := build(t, h)

	assert.Contains(t, m.Function("set_name").Patterns, ir.Pattern(ir.StringWithLength{StringParam: 0, LengthParam: 1}))
	assert.Contains(t, m.Function("copy_label").Patterns, ir.Pattern(ir.StringWithLength{StringParam: 0, LengthParam: 1}))
	assert.False(t, m.Function("set_tags").HasPattern(ir.PatternStringWithLength), "count is not a string length")
}

func eventsHeader() *header.Header {
	return &header.Header{
		Name: "events",
		Functions: []header.Function{
			{Name: "on_event", ReturnType: "void", Params: []header.Param{
				param("cb", "event_cb"), param("userdata", "void *"),
			}},
			{Name: "on_raw", ReturnType: "void", Params: []header.Param{
				param("fn", "void (*)(int)"), param("context", "void *"),
			}},
			{Name: "on_alias", ReturnType: "void", Params: []header.Param{param("handler", "handler_alias")}},
		},
		Typedefs: []header.Typedef{
			{Name: "event_cb", Underlying: "void (*)(int, void *)"},
			{Name: "handler_alias", Underlying: "event_cb"},
		},
	}
}

func TestCallbacksAndUserdata(t *testing.T) {
	m := build(t, eventsHeader())

	onEvent := m.Function("on_event")
	assert.False(t, onEvent.HasPattern(ir.PatternCallbackParameter), "typedef-ref parameters are not function pointers")
	assert.Contains(t, onEvent.Patterns, ir.Pattern(ir.UserdataParameter{ParamIndex: 1}))

	onRaw := m.Function("on_raw")
	assert.Contains(t, onRaw.Patterns, ir.Pattern(ir.CallbackParameter{ParamIndex: 0}))
	assert.Contains(t, onRaw.Patterns, ir.Pattern(ir.UserdataParameter{ParamIndex: 1}))

	assert.False(t, m.Function("on_alias").HasPattern(ir.PatternCallbackParameter))
}

func TestCallbacks_FollowTypedefs(t *testing.T) {
	m, err := translate.BuildModule(eventsHeader())
	require.NoError(t, err)
	New(DefaultRules().With(Extra{FollowTypedefs: true})).Run(m)

	assert.Contains(t, m.Function("on_event").Patterns, ir.Pattern(ir.CallbackParameter{ParamIndex: 0}))
	assert.Contains(t, m.Function("on_alias").Patterns, ir.Pattern(ir.CallbackParameter{ParamIndex: 0}))
}

func errorsHeader() *header.Header {
	return &header.Header{
		Name: "errs",
		Functions: []header.Function{
			{Name: "last_error", ReturnType: "int"},
			{Name: "get_status", ReturnType: "status_t"},
			{Name: "get_handle", ReturnType: "Handle"},
			{Name: "count_items", ReturnType: "size_t"},
			{Name: "lookup", ReturnType: "struct Item *", Params: []header.Param{param("key", "const char *")}},
			{Name: "version_string", ReturnType: "const char *"},
			{Name: "is_ready", ReturnType: "bool"},
			{Name: "ratio", ReturnType: "double"},
		},
		Typedefs: []header.Typedef{
			{Name: "status_t", Underlying: "int32_t"},
			{Name: "Handle", Underlying: "struct H *"},
		},
	}
}

func TestErrorConventions(t *testing.T) {
	m := build(t, errorsHeader())

	assert.Equal(t, ir.ErrorNonzero, m.Function("last_error").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNone, m.Function("get_status").Semantics.ErrorConvention, "typedef-ref return is neither integer nor pointer")
	assert.Equal(t, ir.ErrorNone, m.Function("get_handle").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNegative, m.Function("count_items").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNullPointer, m.Function("lookup").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNone, m.Function("version_string").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNone, m.Function("is_ready").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNone, m.Function("ratio").Semantics.ErrorConvention)
}

func TestErrorConventions_FollowTypedefs(t *testing.T) {
	m, err := translate.BuildModule(errorsHeader())
	require.NoError(t, err)
	New(DefaultRules().With(Extra{FollowTypedefs: true})).Run(m)

	assert.Equal(t, ir.ErrorNonzero, m.Function("get_status").Semantics.ErrorConvention)
	assert.Equal(t, ir.ErrorNullPointer, m.Function("get_handle").Semantics.ErrorConvention)
}

func TestCreateDestroy_Pairing(t *testing.T) {
	h := &header.Header{
		Name: "pairs",
		Functions: []header.Function{
			{Name: "buffer_new", ReturnType: "Buffer *"},
			{Name: "init_parser", ReturnType: "parser_t"},
			{Name: "orphan_alloc", ReturnType: "Orphan *"},
			{Name: "buffer_release", ReturnType: "void", Params: []header.Param{param("b", "const Buffer *")}},
			{Name: "buffer_free", ReturnType: "void", Params: []header.Param{param("b", "Buffer*")}},
			{Name: "parser_dispose", ReturnType: "void", Params: []header.Param{param("p", "parser_t *"), param("flags", "int")}},
			{Name: "allocate_count", ReturnType: "int"},
		},
	}
	m := build(t, h)

	assert.Equal(t, "buffer_release", m.Function("buffer_new").Semantics.FreedBy, "first destroyer in input order")
	assert.Equal(t, "parser_dispose", m.Function("init_parser").Semantics.FreedBy)
	assert.Empty(t, m.Function("orphan_alloc").Semantics.FreedBy)
	assert.True(t, m.Function("orphan_alloc").Semantics.ReturnsOwned)
	assert.False(t, m.Function("allocate_count").HasPattern(ir.PatternCreateFunction), "int is not a handle shape")

	dispose := m.Function("parser_dispose")
	assert.Equal(t, []ir.Pattern{ir.DestroyFunction{ResourceType: "parser_t *", ParamIndex: 0}},
		dispose.PatternsOf(ir.PatternDestroyFunction))
	assert.Equal(t, []int{0}, dispose.Semantics.ConsumesParams)
}

func TestCreateDestroy_PairingSymmetry(t *testing.T) {
	m := build(t, contextHeader())

	for _, f := range m.Functions {
		if f.Semantics.FreedBy == "" {
			continue
		}
		d := m.Function(f.Semantics.FreedBy)
		require.NotNil(t, d, "freedBy names a function in the module")

		created := f.PatternsOf(ir.PatternCreateFunction)[0].(ir.CreateFunction)
		matched := false
		for _, p := range d.PatternsOf(ir.PatternDestroyFunction) {
			if ir.ResourceKey(p.(ir.DestroyFunction).ResourceType) == ir.ResourceKey(created.ResourceType) {
				matched = true
			}
		}
		assert.True(t, matched, "%s is paired with %s", f.Name, d.Name)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	m := build(t, contextHeader())
	first := ir.Encode(m)

	Default().Run(m)
	Default().Run(m)
	assert.Equal(t, first, ir.Encode(m))
}

func TestEngine_Deterministic(t *testing.T) {
	a := build(t, contextHeader())
	b := build(t, contextHeader())
	assert.Equal(t, ir.Encode(a), ir.Encode(b))
}

func TestEngine_Order(t *testing.T) {
	e := Default()
	assert.Equal(t, []string{
		PassCreateDestroy, PassOutParameter, PassBufferLength,
		PassStringLength, PassCallbackUserdata, PassErrorConvention,
	}, e.Passes())

	passes := DefaultPasses()
	passes[1], passes[2] = passes[2], passes[1]
	_, err := NewEngine(DefaultRules(), passes...)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = NewEngine(DefaultRules(), DefaultPasses()[0], DefaultPasses()[0])
	assert.Error(t, err)
}

func TestEngine_Observed(t *testing.T) {
	m, err := translate.BuildModule(contextHeader())
	require.NoError(t, err)

	var results []PassResult
	Default().RunObserved(m, func(r PassResult) { results = append(results, r) })

	require.Len(t, results, 6)
	total := 0
	for _, r := range results {
		total += r.Added
	}
	assert.Equal(t, m.PatternCount(), total)
	assert.Equal(t, PassCreateDestroy, results[0].Pass)
	assert.Equal(t, 2, results[0].Added, "one create and one destroy tag")
}

func TestEngine_NilModule(t *testing.T) {
	assert.NotPanics(t, func() { Default().Run(nil) })
}
