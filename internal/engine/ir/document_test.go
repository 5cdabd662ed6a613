package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModule() *Module {
	m := NewModule("ctx")
	m.Metadata["source"] = "ctx.h"
	ten := 10
	value := int64(3)
	create := &Function{
		Name:       "create_context",
		ReturnType: Pointer{Elem: TypedefRef{Name: "OpaqueContext", Text: "OpaqueContext"}, Text: "OpaqueContext *"},
		Doc:        "Creates a context.",
	}
	create.AddPattern(CreateFunction{ResourceType: "OpaqueContext"})
	create.Semantics.ReturnsOwned = true
	create.SetFreedBy("destroy_context")
	create.SetErrorConvention(ErrorNullPointer)

	write := &Function{
		Name:       "write_data",
		ReturnType: Primitive{Name: PrimInt, Text: "int"},
		Params: []Param{
			{Name: "buf", Type: Pointer{Elem: Primitive{Name: PrimVoid, Text: "void"}, Text: "void *"}, Direction: DirInOut},
			{Name: "len", Type: Primitive{Name: PrimSize, Text: "size_t"}, Direction: DirIn},
		},
	}
	write.AddPattern(BufferWithLength{BufferParam: 0, LengthParam: 1, Mode: DirIn})

	m.Functions = []*Function{create, write}
	m.Structs = []*Struct{{
		Name: "Matrix",
		Fields: []Field{
			{Name: "values", Type: Array{Elem: Primitive{Name: PrimDouble, Text: "double"}, Length: &ten, Extent: "10", Text: "double [10]"}},
			{Name: "cmp", Type: FunctionPointer{Return: Unknown{Text: "int"}, Params: []string{"int"}, Text: "int (*)(int)"}},
		},
	}}
	m.Enums = []*Enum{{Name: "Mode", Constants: []EnumConstant{{Name: "A", Value: &value, Expr: "3"}, {Name: "B", Expr: "X | Y"}}}}
	m.Typedefs = []*Typedef{{Name: "name_t", Underlying: CString{Const: true, Text: "const char *"}}}
	return m
}

func TestEncode_JSONShape(t *testing.T) {
	doc := Encode(sampleModule())
	assert.Equal(t, SchemaVersion, doc.SchemaVersion)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	functions := generic["functions"].([]any)
	create := functions[0].(map[string]any)
	assert.Equal(t, "create_context", create["name"])
	assert.Equal(t, map[string]any{"returnsOwned": true, "freedBy": "destroy_context", "errorConvention": "null-is-error"}, create["semantics"])
	assert.Equal(t, []any{map[string]any{"kind": "create-function", "resourceType": "OpaqueContext"}}, create["patterns"])

	write := functions[1].(map[string]any)
	assert.Equal(t, []any{map[string]any{"kind": "buffer-with-length", "bufferParam": float64(0), "lengthParam": float64(1), "mode": "in"}}, write["patterns"])
}

func TestDecode_RestoresModule(t *testing.T) {
	m := sampleModule()
	doc := Encode(m)

	decoded, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, Encode(decoded))

	assert.Equal(t, "pointer(typedef-ref(OpaqueContext))", Describe(decoded.Function("create_context").ReturnType))
	assert.Equal(t, "destroy_context", decoded.Function("create_context").Semantics.FreedBy)
	assert.Nil(t, decoded.Enum("Mode").Constants[1].Value)
}

func TestDecode_UnknownPattern(t *testing.T) {
	doc := Encode(sampleModule())
	doc.Functions[0].Patterns = append(doc.Functions[0].Patterns, PatternDoc{Kind: "telepathy"})

	_, err := Decode(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_context")
}
