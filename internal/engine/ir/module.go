package ir

import (
	"sort"
	"strings"
)

// Direction is the data-flow direction of a parameter.
type Direction string

const (
	DirIn    Direction = "in"
	DirOut   Direction = "out"
	DirInOut Direction = "inout"
)

// Param is one function parameter.
type Param struct {
	Name      string
	Type      Type
	Direction Direction
	// Nullable is the source declaration's nullability hint, nil when absent.
	Nullable *bool
	// Declared is an explicit direction from the source (annotations), empty
	// when absent. It never overrides Direction.
	Declared Direction
}

// Function is a translated function declaration plus its annotations.
type Function struct {
	Name       string
	ReturnType Type
	Params     []Param
	Variadic   bool
	Doc        string
	Patterns   []Pattern
	Semantics  Semantics
}

// AddPattern appends p unless a pattern with the same kind and key is
// already attached. It reports whether p was added.
func (f *Function) AddPattern(p Pattern) bool {
	for _, existing := range f.Patterns {
		if existing.Kind() == p.Kind() && existing.Key() == p.Key() {
			return false
		}
	}
	f.Patterns = append(f.Patterns, p)
	return true
}

// HasPattern reports whether any pattern of kind is attached.
func (f *Function) HasPattern(kind PatternKind) bool {
	for _, p := range f.Patterns {
		if p.Kind() == kind {
			return true
		}
	}
	return false
}

// PatternsOf returns the attached patterns of kind in attachment order.
func (f *Function) PatternsOf(kind PatternKind) []Pattern {
	var out []Pattern
	for _, p := range f.Patterns {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out
}

// IsOutParameter reports whether parameter i carries an out-parameter tag.
func (f *Function) IsOutParameter(i int) bool {
	for _, p := range f.Patterns {
		if op, ok := p.(OutParameter); ok && op.ParamIndex == i {
			return true
		}
	}
	return false
}

// SetErrorConvention sets the convention if none is set yet.
func (f *Function) SetErrorConvention(c ErrorConvention) bool {
	if f.Semantics.ErrorConvention != ErrorNone || c == ErrorNone {
		return false
	}
	f.Semantics.ErrorConvention = c
	return true
}

// SetFreedBy records the release function if none is recorded yet.
func (f *Function) SetFreedBy(name string) bool {
	if f.Semantics.FreedBy != "" || name == "" {
		return false
	}
	f.Semantics.FreedBy = name
	return true
}

// MarkConsumed records an ownership transfer of parameter i.
func (f *Function) MarkConsumed(i int) {
	for _, existing := range f.Semantics.ConsumesParams {
		if existing == i {
			return
		}
	}
	f.Semantics.ConsumesParams = append(f.Semantics.ConsumesParams, i)
	sort.Ints(f.Semantics.ConsumesParams)
}

// Field is a struct member.
type Field struct {
	Name string
	Type Type
}

// Struct is a struct, class or union definition.
type Struct struct {
	Name   string
	Fields []Field
	Union  bool
	Doc    string
}

// EnumConstant is one enumerator. Value is nil when not statically known;
// Expr keeps the source expression when one was written.
type EnumConstant struct {
	Name  string
	Value *int64
	Expr  string
	Doc   string
}

// Enum is an enum definition.
type Enum struct {
	Name      string
	Constants []EnumConstant
	Doc       string
}

// Typedef aliases Underlying under Name.
type Typedef struct {
	Name       string
	Underlying Type
	Doc        string
}

// Module is the IR document for one header.
type Module struct {
	Name      string
	Functions []*Function
	Structs   []*Struct
	Enums     []*Enum
	Typedefs  []*Typedef
	Metadata  map[string]string
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, Metadata: make(map[string]string)}
}

func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (m *Module) Struct(name string) *Struct {
	for _, s := range m.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (m *Module) Enum(name string) *Enum {
	for _, e := range m.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (m *Module) Typedef(name string) *Typedef {
	for _, td := range m.Typedefs {
		if td.Name == name {
			return td
		}
	}
	return nil
}

// maxTypedefDepth bounds alias chains so cyclic typedef tables terminate.
const maxTypedefDepth = 32

// Underlying follows typedef references through the module's typedef table
// and returns the first non-typedef type, or the last reference reached when
// the chain is unresolved or cyclic.
func (m *Module) Underlying(t Type) Type {
	for depth := 0; depth < maxTypedefDepth; depth++ {
		ref, ok := t.(TypedefRef)
		if !ok {
			return t
		}
		td := m.Typedef(ref.Name)
		if td == nil || td.Underlying == nil {
			return t
		}
		t = td.Underlying
	}
	return t
}

// PatternCount returns the number of patterns attached across functions.
func (m *Module) PatternCount() int {
	n := 0
	for _, f := range m.Functions {
		n += len(f.Patterns)
	}
	return n
}

// Sorted returns a shallow copy with every declaration list ordered by name.
// Emitters use it so output does not depend on header order.
func (m *Module) Sorted() *Module {
	out := &Module{
		Name:      m.Name,
		Functions: append([]*Function(nil), m.Functions...),
		Structs:   append([]*Struct(nil), m.Structs...),
		Enums:     append([]*Enum(nil), m.Enums...),
		Typedefs:  append([]*Typedef(nil), m.Typedefs...),
		Metadata:  make(map[string]string, len(m.Metadata)),
	}
	for k, v := range m.Metadata {
		out.Metadata[k] = v
	}
	sort.SliceStable(out.Functions, func(i, j int) bool { return out.Functions[i].Name < out.Functions[j].Name })
	sort.SliceStable(out.Structs, func(i, j int) bool { return out.Structs[i].Name < out.Structs[j].Name })
	sort.SliceStable(out.Enums, func(i, j int) bool { return out.Enums[i].Name < out.Enums[j].Name })
	sort.SliceStable(out.Typedefs, func(i, j int) bool { return out.Typedefs[i].Name < out.Typedefs[j].Name })
	return out
}

// TrimPointer strips trailing pointer stars and whitespace from a spelling.
func TrimPointer(spelling string) string {
	return strings.TrimRight(spelling, "* \t")
}

// ResourceKey normalizes a resource spelling for create/destroy matching:
// const tokens, trailing pointers and whitespace are dropped.
func ResourceKey(spelling string) string {
	fields := strings.Fields(spelling)
	kept := fields[:0]
	for _, f := range fields {
		if f != "const" {
			kept = append(kept, f)
		}
	}
	return TrimPointer(strings.Join(kept, " "))
}
