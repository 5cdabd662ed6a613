package ir

import "fmt"

// SchemaVersion is the version of the serialized Document layout. Readers
// accept any document with the same major version.
const SchemaVersion = "1.1.0"

// Document is the serialized form of a Module, shared by the JSON writer and
// the snapshot store. Tagged unions are flattened into Kind-discriminated
// records.
type Document struct {
	SchemaVersion string            `json:"schemaVersion" msgpack:"schema_version"`
	Name          string            `json:"name" msgpack:"name"`
	Functions     []FunctionDoc     `json:"functions" msgpack:"functions"`
	Structs       []StructDoc       `json:"structs" msgpack:"structs"`
	Enums         []EnumDoc         `json:"enums" msgpack:"enums"`
	Typedefs      []TypedefDoc      `json:"typedefs" msgpack:"typedefs"`
	Metadata      map[string]string `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

type TypeDoc struct {
	Kind      TypeKind      `json:"kind" msgpack:"kind"`
	CType     string        `json:"cType" msgpack:"c_type"`
	Primitive PrimitiveName `json:"primitive,omitempty" msgpack:"primitive,omitempty"`
	Name      string        `json:"name,omitempty" msgpack:"name,omitempty"`
	Const     bool          `json:"const,omitempty" msgpack:"const,omitempty"`
	Union     bool          `json:"union,omitempty" msgpack:"union,omitempty"`
	Element   *TypeDoc      `json:"element,omitempty" msgpack:"element,omitempty"`
	Length    *int          `json:"length,omitempty" msgpack:"length,omitempty"`
	Extent    string        `json:"extent,omitempty" msgpack:"extent,omitempty"`
	Return    *TypeDoc      `json:"return,omitempty" msgpack:"return,omitempty"`
	Params    []string      `json:"params,omitempty" msgpack:"params,omitempty"`
}

type ParamDoc struct {
	Name      string    `json:"name" msgpack:"name"`
	Type      TypeDoc   `json:"type" msgpack:"type"`
	Direction Direction `json:"direction" msgpack:"direction"`
	Nullable  *bool     `json:"nullable,omitempty" msgpack:"nullable,omitempty"`
	Declared  Direction `json:"declared,omitempty" msgpack:"declared,omitempty"`
}

type PatternDoc struct {
	Kind         PatternKind `json:"kind" msgpack:"kind"`
	ResourceType string      `json:"resourceType,omitempty" msgpack:"resource_type,omitempty"`
	ParamIndex   *int        `json:"paramIndex,omitempty" msgpack:"param_index,omitempty"`
	BufferParam  *int        `json:"bufferParam,omitempty" msgpack:"buffer_param,omitempty"`
	StringParam  *int        `json:"stringParam,omitempty" msgpack:"string_param,omitempty"`
	LengthParam  *int        `json:"lengthParam,omitempty" msgpack:"length_param,omitempty"`
	Mode         Direction   `json:"mode,omitempty" msgpack:"mode,omitempty"`
}

type SemanticsDoc struct {
	ErrorConvention ErrorConvention `json:"errorConvention,omitempty" msgpack:"error_convention,omitempty"`
	ReturnsOwned    bool            `json:"returnsOwned,omitempty" msgpack:"returns_owned,omitempty"`
	FreedBy         string          `json:"freedBy,omitempty" msgpack:"freed_by,omitempty"`
	ConsumesParams  []int           `json:"consumesParams,omitempty" msgpack:"consumes_params,omitempty"`
}

type FunctionDoc struct {
	Name       string       `json:"name" msgpack:"name"`
	ReturnType TypeDoc      `json:"returnType" msgpack:"return_type"`
	Params     []ParamDoc   `json:"params" msgpack:"params"`
	Variadic   bool         `json:"variadic,omitempty" msgpack:"variadic,omitempty"`
	Doc        string       `json:"doc,omitempty" msgpack:"doc,omitempty"`
	Patterns   []PatternDoc `json:"patterns" msgpack:"patterns"`
	Semantics  SemanticsDoc `json:"semantics" msgpack:"semantics"`
}

type FieldDoc struct {
	Name string  `json:"name" msgpack:"name"`
	Type TypeDoc `json:"type" msgpack:"type"`
}

type StructDoc struct {
	Name   string     `json:"name" msgpack:"name"`
	Fields []FieldDoc `json:"fields" msgpack:"fields"`
	Union  bool       `json:"union,omitempty" msgpack:"union,omitempty"`
	Doc    string     `json:"doc,omitempty" msgpack:"doc,omitempty"`
}

type EnumConstantDoc struct {
	Name  string `json:"name" msgpack:"name"`
	Value *int64 `json:"value,omitempty" msgpack:"value,omitempty"`
	Expr  string `json:"expr,omitempty" msgpack:"expr,omitempty"`
	Doc   string `json:"doc,omitempty" msgpack:"doc,omitempty"`
}

type EnumDoc struct {
	Name      string            `json:"name" msgpack:"name"`
	Constants []EnumConstantDoc `json:"constants" msgpack:"constants"`
	Doc       string            `json:"doc,omitempty" msgpack:"doc,omitempty"`
}

type TypedefDoc struct {
	Name       string  `json:"name" msgpack:"name"`
	Underlying TypeDoc `json:"underlying" msgpack:"underlying"`
	Doc        string  `json:"doc,omitempty" msgpack:"doc,omitempty"`
}

// Encode flattens m into a Document. Declaration order is preserved; call
// Sorted first for name-ordered output.
func Encode(m *Module) Document {
	doc := Document{
		SchemaVersion: SchemaVersion,
		Name:          m.Name,
		Functions:     make([]FunctionDoc, 0, len(m.Functions)),
		Structs:       make([]StructDoc, 0, len(m.Structs)),
		Enums:         make([]EnumDoc, 0, len(m.Enums)),
		Typedefs:      make([]TypedefDoc, 0, len(m.Typedefs)),
	}
	if len(m.Metadata) > 0 {
		doc.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			doc.Metadata[k] = v
		}
	}
	for _, f := range m.Functions {
		fd := FunctionDoc{
			Name:       f.Name,
			ReturnType: EncodeType(f.ReturnType),
			Params:     make([]ParamDoc, 0, len(f.Params)),
			Variadic:   f.Variadic,
			Doc:        f.Doc,
			Patterns:   make([]PatternDoc, 0, len(f.Patterns)),
			Semantics: SemanticsDoc{
				ErrorConvention: f.Semantics.ErrorConvention,
				ReturnsOwned:    f.Semantics.ReturnsOwned,
				FreedBy:         f.Semantics.FreedBy,
				ConsumesParams:  append([]int(nil), f.Semantics.ConsumesParams...),
			},
		}
		for _, p := range f.Params {
			fd.Params = append(fd.Params, ParamDoc{
				Name:      p.Name,
				Type:      EncodeType(p.Type),
				Direction: p.Direction,
				Nullable:  p.Nullable,
				Declared:  p.Declared,
			})
		}
		for _, p := range f.Patterns {
			fd.Patterns = append(fd.Patterns, encodePattern(p))
		}
		doc.Functions = append(doc.Functions, fd)
	}
	for _, s := range m.Structs {
		sd := StructDoc{Name: s.Name, Union: s.Union, Doc: s.Doc, Fields: make([]FieldDoc, 0, len(s.Fields))}
		for _, fl := range s.Fields {
			sd.Fields = append(sd.Fields, FieldDoc{Name: fl.Name, Type: EncodeType(fl.Type)})
		}
		doc.Structs = append(doc.Structs, sd)
	}
	for _, e := range m.Enums {
		ed := EnumDoc{Name: e.Name, Doc: e.Doc, Constants: make([]EnumConstantDoc, 0, len(e.Constants))}
		for _, c := range e.Constants {
			ed.Constants = append(ed.Constants, EnumConstantDoc{Name: c.Name, Value: c.Value, Expr: c.Expr, Doc: c.Doc})
		}
		doc.Enums = append(doc.Enums, ed)
	}
	for _, td := range m.Typedefs {
		doc.Typedefs = append(doc.Typedefs, TypedefDoc{Name: td.Name, Underlying: EncodeType(td.Underlying), Doc: td.Doc})
	}
	return doc
}

// EncodeType converts one type to its document form.
func EncodeType(t Type) TypeDoc {
	switch v := t.(type) {
	case Primitive:
		return TypeDoc{Kind: KindPrimitive, CType: v.Text, Primitive: v.Name}
	case Pointer:
		elem := EncodeType(v.Elem)
		return TypeDoc{Kind: KindPointer, CType: v.Text, Const: v.Const, Element: &elem}
	case Array:
		elem := EncodeType(v.Elem)
		return TypeDoc{Kind: KindArray, CType: v.Text, Element: &elem, Length: v.Length, Extent: v.Extent}
	case FunctionPointer:
		ret := EncodeType(v.Return)
		return TypeDoc{Kind: KindFunctionPointer, CType: v.Text, Return: &ret, Params: append([]string(nil), v.Params...)}
	case CString:
		return TypeDoc{Kind: KindCString, CType: v.Text, Const: v.Const}
	case StructRef:
		return TypeDoc{Kind: KindStructRef, CType: v.Text, Name: v.Name, Union: v.Union}
	case EnumRef:
		return TypeDoc{Kind: KindEnumRef, CType: v.Text, Name: v.Name}
	case TypedefRef:
		return TypeDoc{Kind: KindTypedefRef, CType: v.Text, Name: v.Name}
	case Unknown:
		return TypeDoc{Kind: KindUnknown, CType: v.Text}
	default:
		return TypeDoc{Kind: KindUnknown}
	}
}

func encodePattern(p Pattern) PatternDoc {
	switch v := p.(type) {
	case CreateFunction:
		return PatternDoc{Kind: v.Kind(), ResourceType: v.ResourceType}
	case DestroyFunction:
		return PatternDoc{Kind: v.Kind(), ResourceType: v.ResourceType, ParamIndex: intPtr(v.ParamIndex)}
	case OutParameter:
		return PatternDoc{Kind: v.Kind(), ParamIndex: intPtr(v.ParamIndex)}
	case BufferWithLength:
		return PatternDoc{Kind: v.Kind(), BufferParam: intPtr(v.BufferParam), LengthParam: intPtr(v.LengthParam), Mode: v.Mode}
	case StringWithLength:
		return PatternDoc{Kind: v.Kind(), StringParam: intPtr(v.StringParam), LengthParam: intPtr(v.LengthParam)}
	case CallbackParameter:
		return PatternDoc{Kind: v.Kind(), ParamIndex: intPtr(v.ParamIndex)}
	case UserdataParameter:
		return PatternDoc{Kind: v.Kind(), ParamIndex: intPtr(v.ParamIndex)}
	default:
		return PatternDoc{Kind: p.Kind()}
	}
}

// Decode rebuilds a Module from a Document.
func Decode(doc Document) (*Module, error) {
	m := NewModule(doc.Name)
	for k, v := range doc.Metadata {
		m.Metadata[k] = v
	}
	for _, fd := range doc.Functions {
		f := &Function{
			Name:       fd.Name,
			ReturnType: decodeType(fd.ReturnType),
			Variadic:   fd.Variadic,
			Doc:        fd.Doc,
			Semantics: Semantics{
				ErrorConvention: fd.Semantics.ErrorConvention,
				ReturnsOwned:    fd.Semantics.ReturnsOwned,
				FreedBy:         fd.Semantics.FreedBy,
				ConsumesParams:  append([]int(nil), fd.Semantics.ConsumesParams...),
			},
		}
		for _, pd := range fd.Params {
			f.Params = append(f.Params, Param{
				Name:      pd.Name,
				Type:      decodeType(pd.Type),
				Direction: pd.Direction,
				Nullable:  pd.Nullable,
				Declared:  pd.Declared,
			})
		}
		for _, pd := range fd.Patterns {
			p, err := decodePattern(pd)
			if err != nil {
				return nil, fmt.Errorf("function %s: %w", fd.Name, err)
			}
			f.Patterns = append(f.Patterns, p)
		}
		m.Functions = append(m.Functions, f)
	}
	for _, sd := range doc.Structs {
		s := &Struct{Name: sd.Name, Union: sd.Union, Doc: sd.Doc}
		for _, fl := range sd.Fields {
			s.Fields = append(s.Fields, Field{Name: fl.Name, Type: decodeType(fl.Type)})
		}
		m.Structs = append(m.Structs, s)
	}
	for _, ed := range doc.Enums {
		e := &Enum{Name: ed.Name, Doc: ed.Doc}
		for _, c := range ed.Constants {
			e.Constants = append(e.Constants, EnumConstant{Name: c.Name, Value: c.Value, Expr: c.Expr, Doc: c.Doc})
		}
		m.Enums = append(m.Enums, e)
	}
	for _, td := range doc.Typedefs {
		m.Typedefs = append(m.Typedefs, &Typedef{Name: td.Name, Underlying: decodeType(td.Underlying), Doc: td.Doc})
	}
	return m, nil
}

func decodeType(d TypeDoc) Type {
	switch d.Kind {
	case KindPrimitive:
		return Primitive{Name: d.Primitive, Text: d.CType}
	case KindPointer:
		return Pointer{Elem: decodeElem(d.Element), Const: d.Const, Text: d.CType}
	case KindArray:
		return Array{Elem: decodeElem(d.Element), Length: d.Length, Extent: d.Extent, Text: d.CType}
	case KindFunctionPointer:
		return FunctionPointer{Return: decodeElem(d.Return), Params: append([]string(nil), d.Params...), Text: d.CType}
	case KindCString:
		return CString{Const: d.Const, Text: d.CType}
	case KindStructRef:
		return StructRef{Name: d.Name, Union: d.Union, Text: d.CType}
	case KindEnumRef:
		return EnumRef{Name: d.Name, Text: d.CType}
	case KindTypedefRef:
		return TypedefRef{Name: d.Name, Text: d.CType}
	default:
		return Unknown{Text: d.CType}
	}
}

func decodeElem(d *TypeDoc) Type {
	if d == nil {
		return Unknown{}
	}
	return decodeType(*d)
}

func decodePattern(d PatternDoc) (Pattern, error) {
	switch d.Kind {
	case PatternCreateFunction:
		return CreateFunction{ResourceType: d.ResourceType}, nil
	case PatternDestroyFunction:
		return DestroyFunction{ResourceType: d.ResourceType, ParamIndex: intVal(d.ParamIndex)}, nil
	case PatternOutParameter:
		return OutParameter{ParamIndex: intVal(d.ParamIndex)}, nil
	case PatternBufferWithLength:
		return BufferWithLength{BufferParam: intVal(d.BufferParam), LengthParam: intVal(d.LengthParam), Mode: d.Mode}, nil
	case PatternStringWithLength:
		return StringWithLength{StringParam: intVal(d.StringParam), LengthParam: intVal(d.LengthParam)}, nil
	case PatternCallbackParameter:
		return CallbackParameter{ParamIndex: intVal(d.ParamIndex)}, nil
	case PatternUserdataParameter:
		return UserdataParameter{ParamIndex: intVal(d.ParamIndex)}, nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %q", d.Kind)
	}
}

func intPtr(v int) *int { return &v }

func intVal(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
